package user

import "time"

type User struct {
	ID           int64      `gorm:"primaryKey"`
	Email        string     `gorm:"column:email;uniqueIndex;not null"`
	FirstName    string     `gorm:"column:first_name"`
	LastName     string     `gorm:"column:last_name"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Phone        string     `gorm:"column:phone"`
	Address      string     `gorm:"column:address"`
	City         string     `gorm:"column:city"`
	Country      string     `gorm:"column:country"`
	BirthDate    *time.Time `gorm:"column:birth_date"`
	UserType     string     `gorm:"column:user_type;index;default:OTHER"`
	IsActive     bool       `gorm:"column:is_active;index"`
	IsStaff      bool       `gorm:"column:is_staff;default:false"`
	IsSuperuser  bool       `gorm:"column:is_superuser;default:false"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Customer extends a User by composition: the shared identity lives in the
// users row, commercial attributes live here.
type Customer struct {
	ID                 int64     `gorm:"primaryKey"`
	UserID             int64     `gorm:"column:user_id;uniqueIndex;not null"`
	User               User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CustomerCode       string    `gorm:"column:customer_code;uniqueIndex;not null"`
	CustomerType       string    `gorm:"column:customer_type;default:INDIVIDUAL"`
	TaxID              string    `gorm:"column:tax_id;index"`
	CompanyName        string    `gorm:"column:company_name;index"`
	ContactPerson      string    `gorm:"column:contact_person"`
	CreditLimit        float64   `gorm:"column:credit_limit;type:numeric(12,2);default:0"`
	PaymentTerms       int       `gorm:"column:payment_terms;default:30"`
	DiscountPercentage float64   `gorm:"column:discount_percentage;type:numeric(5,2);default:0"`
	Notes              string    `gorm:"column:notes"`
	IsActiveCustomer   bool      `gorm:"column:is_active_customer;index"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customers"
}
