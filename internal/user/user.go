package user

import (
	"context"

	"github.com/commercia/access-management/internal/auth"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/navigation"
)

// User types, matching the user_type column.
const (
	TypeCustomer = "CUSTOMER"
	TypeStaff    = "STAFF"
	TypeOther    = "OTHER"
)

type Filter struct {
	IsActive *bool
	UserType string
	Search   string
}

type RepositoryAPI interface {
	GetAll(filter Filter) ([]*userDatamodel.User, error)
	GetByID(id int64) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	Create(u *userDatamodel.User) error
	Update(u *userDatamodel.User) error
	Deactivate(id int64) error
}

// RoleSyncAPI is the slice of the role service used when a create or admin
// update carries a role_ids set.
type RoleSyncAPI interface {
	SyncUserRoles(ctx context.Context, actor *auth.Principal, userID int64, roleIDs []int64) error
}

// MenuAPI renders the caller's menu.
type MenuAPI interface {
	BuildMenuFor(userID int64) ([]navigation.MenuNode, error)
}

// PermissionsAPI summarizes CRUD permissions per resource kind.
type PermissionsAPI interface {
	Permissions(ctx context.Context, p *auth.Principal, resourceType, resourceID string, resourceAttr map[string]interface{}) map[string]bool
}

type ServiceAPI interface {
	ListUsers(ctx context.Context, actor *auth.Principal, filter Filter) ([]Response, error)
	GetUser(ctx context.Context, actor *auth.Principal, id int64) (*Response, error)
	CreateUser(ctx context.Context, actor *auth.Principal, dto CreateDTO) (*Response, error)
	UpdateUser(ctx context.Context, actor *auth.Principal, id int64, dto AdminUpdateDTO) (*Response, error)
	DeleteUser(ctx context.Context, actor *auth.Principal, id int64) error

	GetMe(ctx context.Context, actor *auth.Principal) (*Response, error)
	UpdateMe(ctx context.Context, actor *auth.Principal, dto ProfileUpdateDTO) (*Response, error)
	ChangePassword(ctx context.Context, actor *auth.Principal, dto ChangePasswordDTO) error
	GetMyPermissions(ctx context.Context, actor *auth.Principal) (map[string]map[string]bool, error)
	GetMyMenu(ctx context.Context, actor *auth.Principal) ([]navigation.MenuNode, error)
}

func toResponse(u *userDatamodel.User) Response {
	return Response{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Address:     u.Address,
		City:        u.City,
		Country:     u.Country,
		BirthDate:   u.BirthDate,
		UserType:    u.UserType,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
