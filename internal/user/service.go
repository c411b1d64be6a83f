package user

import (
	"context"
	"fmt"
	"log/slog"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	"github.com/commercia/access-management/internal/authz"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/navigation"
	"golang.org/x/crypto/bcrypt"
)

// permissionResources are the resource kinds summarized by GetMyPermissions.
var permissionResources = []string{
	authz.ResourceUser,
	authz.ResourceCustomer,
	authz.ResourceRole,
	authz.ResourceCategory,
	authz.ResourceFunction,
}

type GuardAPI interface {
	Authorize(ctx context.Context, p *auth.Principal, resourceType, resourceID, action string, resourceAttr map[string]interface{}) error
	AuthorizeCreate(ctx context.Context, p *auth.Principal, resourceType string, resourceAttr map[string]interface{}) error
	Permissions(ctx context.Context, p *auth.Principal, resourceType, resourceID string, resourceAttr map[string]interface{}) map[string]bool
}

type Service struct {
	repo       RepositoryAPI
	guard      GuardAPI
	roleSync   RoleSyncAPI
	menu       MenuAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, guard GuardAPI, roleSync RoleSyncAPI, menu MenuAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		guard:      guard,
		roleSync:   roleSync,
		menu:       menu,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// ListUsers returns all users for staff and superusers, and only the caller's
// own record for everyone else.
func (s *Service) ListUsers(ctx context.Context, actor *auth.Principal, filter Filter) ([]Response, error) {
	if !authz.CanViewAll(actor) {
		me, err := s.loadUser(actor.ID)
		if err != nil {
			return nil, err
		}
		return []Response{toResponse(me)}, nil
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceUser, "all", "list", nil); err != nil {
		return nil, err
	}

	users, err := s.repo.GetAll(filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}

	responses := make([]Response, 0, len(users))
	for _, u := range users {
		responses = append(responses, toResponse(u))
	}
	return responses, nil
}

func (s *Service) GetUser(ctx context.Context, actor *auth.Principal, id int64) (*Response, error) {
	u, err := s.loadUser(id)
	if err != nil {
		return nil, err
	}

	if actor.ID != id {
		if err := s.guard.Authorize(ctx, actor, authz.ResourceUser, fmt.Sprintf("%d", id), "read", userAttr(u)); err != nil {
			return nil, err
		}
	}

	resp := toResponse(u)
	return &resp, nil
}

func (s *Service) CreateUser(ctx context.Context, actor *auth.Principal, dto CreateDTO) (*Response, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeCreate(ctx, actor, authz.ResourceUser, nil); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	} else if existing != nil {
		return nil, internal.NewConflictError("A user with this email already exists", internal.ErrCodeDuplicateEmail)
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	userType := dto.UserType
	if userType == "" {
		userType = TypeOther
	}

	u := &userDatamodel.User{
		Email:        dto.Email,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Phone:        dto.Phone,
		Address:      dto.Address,
		City:         dto.City,
		Country:      dto.Country,
		BirthDate:    dto.BirthDate,
		UserType:     userType,
		IsActive:     true,
		IsStaff:      dto.IsStaff,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "email", dto.Email, "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	// Always sync, even with no requested roles: the sync guarantees the
	// baseline role so a fresh account never starts without a menu.
	if err := s.roleSync.SyncUserRoles(ctx, actor, u.ID, dto.RoleIDs); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email, "created_by", actor.ID)
	resp := toResponse(u)
	return &resp, nil
}

func (s *Service) UpdateUser(ctx context.Context, actor *auth.Principal, id int64, dto AdminUpdateDTO) (*Response, error) {
	u, err := s.loadUser(id)
	if err != nil {
		return nil, err
	}

	// Superuser accounts cannot be deactivated through the API.
	if dto.IsActive != nil && !*dto.IsActive {
		if err := authz.EnsureMutableSystemEntity(u.IsSuperuser); err != nil {
			return nil, err
		}
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceUser, fmt.Sprintf("%d", id), "update", userAttr(u)); err != nil {
		return nil, err
	}

	applyProfile(u, ProfileUpdateDTO{
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Phone:     dto.Phone,
		Address:   dto.Address,
		City:      dto.City,
		Country:   dto.Country,
		BirthDate: dto.BirthDate,
	})
	if dto.UserType != nil {
		u.UserType = *dto.UserType
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	if dto.IsStaff != nil {
		u.IsStaff = *dto.IsStaff
	}

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	if dto.RoleIDs != nil {
		if err := s.roleSync.SyncUserRoles(ctx, actor, id, *dto.RoleIDs); err != nil {
			return nil, err
		}
	}

	s.logger.Info("user updated", "user_id", id, "updated_by", actor.ID)
	resp := toResponse(u)
	return &resp, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor *auth.Principal, id int64) error {
	u, err := s.loadUser(id)
	if err != nil {
		return err
	}

	if err := authz.EnsureMutableSystemEntity(u.IsSuperuser); err != nil {
		return err
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceUser, fmt.Sprintf("%d", id), "delete", userAttr(u)); err != nil {
		return err
	}

	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return internal.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deactivated", "user_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *Service) GetMe(ctx context.Context, actor *auth.Principal) (*Response, error) {
	u, err := s.loadUser(actor.ID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(u)
	return &resp, nil
}

// UpdateMe lets users edit their own profile fields. Flags, email and roles
// stay untouched whatever the request carries.
func (s *Service) UpdateMe(ctx context.Context, actor *auth.Principal, dto ProfileUpdateDTO) (*Response, error) {
	u, err := s.loadUser(actor.ID)
	if err != nil {
		return nil, err
	}

	applyProfile(u, dto)

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update profile", "user_id", actor.ID, "error", err)
		return nil, internal.NewInternalError("failed to update profile", err)
	}

	resp := toResponse(u)
	return &resp, nil
}

func (s *Service) ChangePassword(ctx context.Context, actor *auth.Principal, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.loadUser(actor.ID)
	if err != nil {
		return err
	}

	if err := auth.VerifyPassword(u.PasswordHash, dto.CurrentPassword); err != nil {
		return internal.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	u.PasswordHash = hash

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to change password", "user_id", actor.ID, "error", err)
		return internal.NewInternalError("failed to change password", err)
	}

	s.logger.Info("password changed", "user_id", actor.ID)
	return nil
}

// GetMyPermissions summarizes the caller's CRUD permissions for every
// registered resource kind.
func (s *Service) GetMyPermissions(ctx context.Context, actor *auth.Principal) (map[string]map[string]bool, error) {
	permissions := make(map[string]map[string]bool, len(permissionResources))
	for _, resource := range permissionResources {
		permissions[resource] = s.guard.Permissions(ctx, actor, resource, "", nil)
	}
	return permissions, nil
}

func (s *Service) GetMyMenu(ctx context.Context, actor *auth.Principal) ([]navigation.MenuNode, error) {
	return s.menu.BuildMenuFor(actor.ID)
}

func (s *Service) loadUser(id int64) (*userDatamodel.User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to load user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func applyProfile(u *userDatamodel.User, dto ProfileUpdateDTO) {
	if dto.FirstName != nil {
		u.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		u.LastName = *dto.LastName
	}
	if dto.Phone != nil {
		u.Phone = *dto.Phone
	}
	if dto.Address != nil {
		u.Address = *dto.Address
	}
	if dto.City != nil {
		u.City = *dto.City
	}
	if dto.Country != nil {
		u.Country = *dto.Country
	}
	if dto.BirthDate != nil {
		u.BirthDate = dto.BirthDate
	}
}

func userAttr(u *userDatamodel.User) map[string]interface{} {
	return map[string]interface{}{
		"is_superuser": u.IsSuperuser,
		"is_staff":     u.IsStaff,
		"user_type":    u.UserType,
	}
}
