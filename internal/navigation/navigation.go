package navigation

import (
	"context"
	"time"

	"github.com/commercia/access-management/internal/auth"
	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
)

type CategoryFilter struct {
	IsActive *bool
	Search   string
}

type FunctionFilter struct {
	IsActive   *bool
	CategoryID *int64
	Search     string
}

type RepositoryAPI interface {
	GetAllCategories(filter CategoryFilter) ([]*navigationDatamodel.Category, error)
	GetActiveCategories() ([]*navigationDatamodel.Category, error)
	GetCategoryByID(id int64) (*navigationDatamodel.Category, error)
	GetCategoryByCode(code string) (*navigationDatamodel.Category, error)
	CreateCategory(category *navigationDatamodel.Category) error
	UpdateCategory(category *navigationDatamodel.Category) error
	DeactivateCategory(id int64) error

	GetAllFunctions(filter FunctionFilter) ([]*navigationDatamodel.Function, error)
	GetFunctionByID(id int64) (*navigationDatamodel.Function, error)
	GetFunctionByCode(code string) (*navigationDatamodel.Function, error)
	CreateFunction(function *navigationDatamodel.Function) error
	UpdateFunction(function *navigationDatamodel.Function) error
	DeactivateFunction(id int64) error

	UpdateOrders(table string, orders map[int64]int) error
}

type ServiceAPI interface {
	ListCategories(ctx context.Context, actor *auth.Principal, filter CategoryFilter) ([]CategoryResponse, error)
	GetCategory(ctx context.Context, actor *auth.Principal, id int64) (*CategoryResponse, error)
	CreateCategory(ctx context.Context, actor *auth.Principal, dto CreateCategoryDTO) (*CategoryResponse, error)
	UpdateCategory(ctx context.Context, actor *auth.Principal, id int64, dto UpdateCategoryDTO) (*CategoryResponse, error)
	DeleteCategory(ctx context.Context, actor *auth.Principal, id int64) error

	ListFunctions(ctx context.Context, actor *auth.Principal, filter FunctionFilter) ([]FunctionResponse, error)
	GetFunction(ctx context.Context, actor *auth.Principal, id int64) (*FunctionResponse, error)
	CreateFunction(ctx context.Context, actor *auth.Principal, dto CreateFunctionDTO) (*FunctionResponse, error)
	UpdateFunction(ctx context.Context, actor *auth.Principal, id int64, dto UpdateFunctionDTO) (*FunctionResponse, error)
	DeleteFunction(ctx context.Context, actor *auth.Principal, id int64) error
	FunctionTree(ctx context.Context, actor *auth.Principal) ([]FunctionTreeNode, error)
	Reorder(ctx context.Context, actor *auth.Principal, dto ReorderDTO) error

	BuildMenuFor(userID int64) ([]MenuNode, error)
}

// FunctionResolver supplies the set of functions a user can reach; wired to
// the role resolution engine.
type FunctionResolver interface {
	ResolveFunctions(userID int64) ([]navigationDatamodel.Function, error)
}

type CategoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"is_active"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type FunctionResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	URL            *string   `json:"url"`
	Icon           string    `json:"icon"`
	CategoryID     *int64    `json:"category_id"`
	PolicyResource string    `json:"policy_resource"`
	ParentID       *int64    `json:"parent_id"`
	Order          int       `json:"order"`
	IsActive       bool      `json:"is_active"`
	IsSystem       bool      `json:"is_system"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FunctionTreeNode is the admin view of the function forest.
type FunctionTreeNode struct {
	FunctionResponse
	Children []FunctionTreeNode `json:"children"`
}

func categoryResponse(c *navigationDatamodel.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Code:        c.Code,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
		Order:       c.Order,
		IsActive:    c.IsActive,
		IsSystem:    c.IsSystem,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func functionResponse(f *navigationDatamodel.Function) FunctionResponse {
	return FunctionResponse{
		ID:             f.ID,
		Name:           f.Name,
		Code:           f.Code,
		URL:            f.URL,
		Icon:           f.Icon,
		CategoryID:     f.CategoryID,
		PolicyResource: f.PolicyResource,
		ParentID:       f.ParentID,
		Order:          f.Order,
		IsActive:       f.IsActive,
		IsSystem:       f.IsSystem,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}
