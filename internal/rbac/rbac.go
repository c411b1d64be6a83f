package rbac

import (
	"context"
	"time"

	"github.com/commercia/access-management/internal/auth"
	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
	rbacDatamodel "github.com/commercia/access-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
)

// BasicRoleCode is the baseline role every account keeps. Role sync never
// revokes it.
const BasicRoleCode = "basic_user"

// RoleFilter narrows role listings.
type RoleFilter struct {
	IsActive *bool
	IsSystem *bool
	Search   string
}

type RepositoryAPI interface {
	GetAllRoles(filter RoleFilter) ([]*rbacDatamodel.Role, error)
	GetRoleByID(id int64) (*rbacDatamodel.Role, error)
	GetRoleByCode(code string) (*rbacDatamodel.Role, error)
	CreateRole(role *rbacDatamodel.Role) error
	UpdateRole(role *rbacDatamodel.Role) error
	ReplaceRoleFunctions(role *rbacDatamodel.Role, functionIDs []int64) error
	DeactivateRole(id int64) error
	GetRoleUsers(roleID int64) ([]*userDatamodel.User, error)

	GetAssignment(userID, roleID int64, scopeType *string, scopeID *int64) (*rbacDatamodel.RoleAssignment, error)
	GetAssignmentByID(id int64) (*rbacDatamodel.RoleAssignment, error)
	CreateAssignment(a *rbacDatamodel.RoleAssignment) error
	SaveAssignment(a *rbacDatamodel.RoleAssignment) error
	ListAssignmentsForUser(userID int64) ([]*rbacDatamodel.RoleAssignment, error)

	// ActiveAssignmentsWithFunctions loads the user's active, unexpired
	// assignments with their role and function sets preloaded. Expiry is
	// re-checked in the service so a stale is_active flag cannot grant.
	ActiveAssignmentsWithFunctions(userID int64, now time.Time) ([]*rbacDatamodel.RoleAssignment, error)
}

type ServiceAPI interface {
	ListRoles(ctx context.Context, actor *auth.Principal, filter RoleFilter) ([]RoleResponse, error)
	GetRole(ctx context.Context, actor *auth.Principal, id int64) (*RoleResponse, error)
	CreateRole(ctx context.Context, actor *auth.Principal, dto CreateRoleDTO) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actor *auth.Principal, id int64, dto UpdateRoleDTO) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actor *auth.Principal, id int64) error
	GetRoleUsers(ctx context.Context, actor *auth.Principal, roleID int64) ([]RoleUserResponse, error)

	GrantRole(ctx context.Context, actor *auth.Principal, dto AssignRoleDTO) (*AssignmentResponse, error)
	SyncUserRoles(ctx context.Context, actor *auth.Principal, userID int64, roleIDs []int64) error
	RevokeRole(ctx context.Context, actor *auth.Principal, assignmentID int64) error
	ListUserAssignments(ctx context.Context, actor *auth.Principal, userID int64) ([]AssignmentResponse, error)

	ResolveFunctions(userID int64) ([]navigationDatamodel.Function, error)
}

// Role is the domain view of a stored role.
type Role struct {
	ID          int64
	Name        string
	Code        string
	Description string
	PolicyRole  string
	IsActive    bool
	IsSystem    bool
	Level       int
	FunctionIDs []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func FromDataModel(r *rbacDatamodel.Role) *Role {
	functionIDs := make([]int64, 0, len(r.Functions))
	for _, f := range r.Functions {
		functionIDs = append(functionIDs, f.ID)
	}
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		PolicyRole:  r.PolicyRole,
		IsActive:    r.IsActive,
		IsSystem:    r.IsSystem,
		Level:       r.Level,
		FunctionIDs: functionIDs,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *Role) ToResponse() RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		PolicyRole:  r.PolicyRole,
		IsActive:    r.IsActive,
		IsSystem:    r.IsSystem,
		Level:       r.Level,
		FunctionIDs: r.FunctionIDs,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
