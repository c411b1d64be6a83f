package postgres

import (
	"errors"
	"time"

	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
	rbacDatamodel "github.com/commercia/access-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/rbac"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) rbac.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetAllRoles(filter rbac.RoleFilter) ([]*rbacDatamodel.Role, error) {
	query := r.db.Preload("Functions").Order("level DESC, name ASC")
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsSystem != nil {
		query = query.Where("is_system = ?", *filter.IsSystem)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", pattern, pattern)
	}

	var roles []*rbacDatamodel.Role
	err := query.Find(&roles).Error
	return roles, err
}

func (r *Repository) GetRoleByID(id int64) (*rbacDatamodel.Role, error) {
	var role rbacDatamodel.Role
	err := r.db.Preload("Functions").Where("id = ?", id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *Repository) GetRoleByCode(code string) (*rbacDatamodel.Role, error) {
	var role rbacDatamodel.Role
	err := r.db.Where("code = ?", code).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *Repository) CreateRole(role *rbacDatamodel.Role) error {
	return r.db.Create(role).Error
}

func (r *Repository) UpdateRole(role *rbacDatamodel.Role) error {
	return r.db.Omit("Functions").Save(role).Error
}

func (r *Repository) ReplaceRoleFunctions(role *rbacDatamodel.Role, functionIDs []int64) error {
	var functions []navigationDatamodel.Function
	if len(functionIDs) > 0 {
		if err := r.db.Where("id IN ?", functionIDs).Find(&functions).Error; err != nil {
			return err
		}
	}
	return r.db.Model(role).Association("Functions").Replace(functions)
}

func (r *Repository) DeactivateRole(id int64) error {
	return r.db.Model(&rbacDatamodel.Role{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *Repository) GetRoleUsers(roleID int64) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.
		Joins("JOIN role_assignments ON role_assignments.user_id = users.id").
		Where("role_assignments.role_id = ? AND role_assignments.is_active = ?", roleID, true).
		Where("role_assignments.expires_at IS NULL OR role_assignments.expires_at > ?", time.Now()).
		Order("users.email ASC").
		Find(&users).Error
	return users, err
}

func (r *Repository) GetAssignment(userID, roleID int64, scopeType *string, scopeID *int64) (*rbacDatamodel.RoleAssignment, error) {
	query := r.db.Where("user_id = ? AND role_id = ?", userID, roleID)
	if scopeType == nil {
		query = query.Where("scope_type IS NULL")
	} else {
		query = query.Where("scope_type = ?", *scopeType)
	}
	if scopeID == nil {
		query = query.Where("scope_id IS NULL")
	} else {
		query = query.Where("scope_id = ?", *scopeID)
	}

	var assignment rbacDatamodel.RoleAssignment
	err := query.First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *Repository) GetAssignmentByID(id int64) (*rbacDatamodel.RoleAssignment, error) {
	var assignment rbacDatamodel.RoleAssignment
	err := r.db.Preload("Role").Where("id = ?", id).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *Repository) CreateAssignment(a *rbacDatamodel.RoleAssignment) error {
	return r.db.Create(a).Error
}

func (r *Repository) SaveAssignment(a *rbacDatamodel.RoleAssignment) error {
	return r.db.Save(a).Error
}

func (r *Repository) ListAssignmentsForUser(userID int64) ([]*rbacDatamodel.RoleAssignment, error) {
	var assignments []*rbacDatamodel.RoleAssignment
	err := r.db.Preload("Role").
		Where("user_id = ?", userID).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *Repository) ActiveAssignmentsWithFunctions(userID int64, now time.Time) ([]*rbacDatamodel.RoleAssignment, error) {
	var assignments []*rbacDatamodel.RoleAssignment
	err := r.db.
		Preload("Role").
		Preload("Role.Functions", "is_active = ?", true).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Find(&assignments).Error
	return assignments, err
}
