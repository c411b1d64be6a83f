package navigation

import "time"

// Category groups functions into collapsible sections of the sidebar menu.
type Category struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Code        string    `gorm:"column:code;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	Icon        string    `gorm:"column:icon;default:fas fa-folder"`
	Color       string    `gorm:"column:color"`
	Order       int       `gorm:"column:menu_order;index;default:0"`
	IsActive    bool      `gorm:"column:is_active;index"`
	IsSystem    bool      `gorm:"column:is_system;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Category) TableName() string {
	return "navigation_categories"
}

// Function is a menu-addressable capability. A nil URL marks a grouping node,
// a nil category puts the function at the menu root.
type Function struct {
	ID             int64     `gorm:"primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	Code           string    `gorm:"column:code;uniqueIndex;not null"`
	URL            *string   `gorm:"column:url"`
	Icon           string    `gorm:"column:icon;default:fas fa-circle"`
	CategoryID     *int64    `gorm:"column:category_id;index"`
	Category       *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	PolicyResource string    `gorm:"column:policy_resource"`
	ParentID       *int64    `gorm:"column:parent_id;index:idx_functions_parent_order,priority:1"`
	Parent         *Function `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Order          int       `gorm:"column:menu_order;index:idx_functions_parent_order,priority:2;default:0"`
	IsActive       bool      `gorm:"column:is_active;index"`
	IsSystem       bool      `gorm:"column:is_system;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Function) TableName() string {
	return "navigation_functions"
}
