package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	"github.com/commercia/access-management/internal/authz"
	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
	rbacDatamodel "github.com/commercia/access-management/internal/core/datamodel/rbac"
)

// GuardAPI is the authorization surface the service depends on.
type GuardAPI interface {
	Authorize(ctx context.Context, p *auth.Principal, resourceType, resourceID, action string, resourceAttr map[string]interface{}) error
	AuthorizeCreate(ctx context.Context, p *auth.Principal, resourceType string, resourceAttr map[string]interface{}) error
}

type Service struct {
	repo   RepositoryAPI
	guard  GuardAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, guard GuardAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		guard:  guard,
		logger: logger,
	}
}

// ListRoles requires authentication only; the policy engine is consulted
// for mutations, never for reads.
func (s *Service) ListRoles(ctx context.Context, actor *auth.Principal, filter RoleFilter) ([]RoleResponse, error) {
	roles, err := s.repo.GetAllRoles(filter)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, internal.NewInternalError("failed to list roles", err)
	}

	responses := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		responses = append(responses, FromDataModel(role).ToResponse())
	}
	return responses, nil
}

func (s *Service) GetRole(ctx context.Context, actor *auth.Principal, id int64) (*RoleResponse, error) {
	role, err := s.loadRole(id)
	if err != nil {
		return nil, err
	}

	resp := FromDataModel(role).ToResponse()
	return &resp, nil
}

func (s *Service) CreateRole(ctx context.Context, actor *auth.Principal, dto CreateRoleDTO) (*RoleResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeCreate(ctx, actor, authz.ResourceRole, nil); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetRoleByCode(dto.Code); err != nil {
		s.logger.Error("failed to check role code", "code", dto.Code, "error", err)
		return nil, internal.NewInternalError("failed to create role", err)
	} else if existing != nil {
		return nil, internal.NewConflictError("A role with this code already exists", internal.ErrCodeDuplicateCode)
	}

	role := &rbacDatamodel.Role{
		Name:        dto.Name,
		Code:        dto.Code,
		Description: dto.Description,
		PolicyRole:  dto.PolicyRole,
		Level:       dto.Level,
		IsActive:    true,
		CreatedByID: &actor.ID,
	}

	if err := s.repo.CreateRole(role); err != nil {
		s.logger.Error("failed to create role", "code", dto.Code, "error", err)
		return nil, internal.NewInternalError("failed to create role", err)
	}

	if len(dto.FunctionIDs) > 0 {
		if err := s.repo.ReplaceRoleFunctions(role, dto.FunctionIDs); err != nil {
			s.logger.Error("failed to attach role functions", "role_id", role.ID, "error", err)
			return nil, internal.NewInternalError("failed to attach role functions", err)
		}
		reloaded, err := s.repo.GetRoleByID(role.ID)
		if err == nil && reloaded != nil {
			role = reloaded
		}
	}

	s.logger.Info("role created", "role_id", role.ID, "code", role.Code, "created_by", actor.ID)
	resp := FromDataModel(role).ToResponse()
	return &resp, nil
}

func (s *Service) UpdateRole(ctx context.Context, actor *auth.Principal, id int64, dto UpdateRoleDTO) (*RoleResponse, error) {
	role, err := s.loadRole(id)
	if err != nil {
		return nil, err
	}

	// Deactivating a system role is destructive, block it before asking
	// the policy engine.
	if dto.IsActive != nil && !*dto.IsActive {
		if err := authz.EnsureMutableSystemEntity(role.IsSystem); err != nil {
			return nil, err
		}
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceRole, fmt.Sprintf("%d", id), "update", roleAttr(role)); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		role.Name = *dto.Name
	}
	if dto.Description != nil {
		role.Description = *dto.Description
	}
	if dto.PolicyRole != nil {
		role.PolicyRole = *dto.PolicyRole
	}
	if dto.Level != nil {
		role.Level = *dto.Level
	}
	if dto.IsActive != nil {
		role.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdateRole(role); err != nil {
		s.logger.Error("failed to update role", "role_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update role", err)
	}

	if dto.FunctionIDs != nil {
		if err := s.repo.ReplaceRoleFunctions(role, *dto.FunctionIDs); err != nil {
			s.logger.Error("failed to replace role functions", "role_id", id, "error", err)
			return nil, internal.NewInternalError("failed to replace role functions", err)
		}
		reloaded, rerr := s.repo.GetRoleByID(id)
		if rerr == nil && reloaded != nil {
			role = reloaded
		}
	}

	s.logger.Info("role updated", "role_id", id, "updated_by", actor.ID)
	resp := FromDataModel(role).ToResponse()
	return &resp, nil
}

func (s *Service) DeleteRole(ctx context.Context, actor *auth.Principal, id int64) error {
	role, err := s.loadRole(id)
	if err != nil {
		return err
	}

	if err := authz.EnsureMutableSystemEntity(role.IsSystem); err != nil {
		return err
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceRole, fmt.Sprintf("%d", id), "delete", roleAttr(role)); err != nil {
		return err
	}

	if err := s.repo.DeactivateRole(id); err != nil {
		s.logger.Error("failed to delete role", "role_id", id, "error", err)
		return internal.NewInternalError("failed to delete role", err)
	}

	s.logger.Info("role deactivated", "role_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *Service) GetRoleUsers(ctx context.Context, actor *auth.Principal, roleID int64) ([]RoleUserResponse, error) {
	if _, err := s.loadRole(roleID); err != nil {
		return nil, err
	}

	users, err := s.repo.GetRoleUsers(roleID)
	if err != nil {
		s.logger.Error("failed to list role users", "role_id", roleID, "error", err)
		return nil, internal.NewInternalError("failed to list role users", err)
	}

	responses := make([]RoleUserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, RoleUserResponse{
			ID:       u.ID,
			Email:    u.Email,
			FullName: fmt.Sprintf("%s %s", u.FirstName, u.LastName),
			IsActive: u.IsActive,
		})
	}
	return responses, nil
}

// GrantRole assigns a role to a user. Regranting a revoked assignment with
// the same scope reactivates the existing row instead of inserting a new one:
// the unique constraint covers revoked rows too.
func (s *Service) GrantRole(ctx context.Context, actor *auth.Principal, dto AssignRoleDTO) (*AssignmentResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, err := s.loadRole(dto.RoleID)
	if err != nil {
		return nil, err
	}
	if !role.IsActive {
		return nil, internal.NewValidationError("Cannot assign an inactive role", internal.ErrCodeInvalidReference)
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceRole, fmt.Sprintf("%d", dto.RoleID), "update", roleAttr(role)); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetAssignment(dto.UserID, dto.RoleID, dto.ScopeType, dto.ScopeID)
	if err != nil {
		s.logger.Error("failed to look up assignment", "user_id", dto.UserID, "role_id", dto.RoleID, "error", err)
		return nil, internal.NewInternalError("failed to grant role", err)
	}

	if existing != nil {
		if existing.IsActive && !existing.IsExpired() {
			return nil, internal.NewConflictError("User already holds this role", internal.ErrCodeRoleAlreadyHeld)
		}

		existing.IsActive = true
		existing.ExpiresAt = dto.ExpiresAt
		existing.AssignedByID = &actor.ID
		existing.AssignedAt = time.Now()
		if err := s.repo.SaveAssignment(existing); err != nil {
			s.logger.Error("failed to reactivate assignment", "assignment_id", existing.ID, "error", err)
			return nil, internal.NewInternalError("failed to grant role", err)
		}

		s.logger.Info("role assignment reactivated",
			"assignment_id", existing.ID, "user_id", dto.UserID, "role_id", dto.RoleID, "granted_by", actor.ID)
		resp := assignmentResponse(existing, role)
		return &resp, nil
	}

	assignment := &rbacDatamodel.RoleAssignment{
		UserID:       dto.UserID,
		RoleID:       dto.RoleID,
		ScopeType:    dto.ScopeType,
		ScopeID:      dto.ScopeID,
		ExpiresAt:    dto.ExpiresAt,
		AssignedByID: &actor.ID,
		IsActive:     true,
	}

	if err := s.repo.CreateAssignment(assignment); err != nil {
		// A concurrent grant can win the unique index between our lookup and
		// the insert. Fall back to reactivating the row that got there first.
		raced, lookupErr := s.repo.GetAssignment(dto.UserID, dto.RoleID, dto.ScopeType, dto.ScopeID)
		if lookupErr != nil || raced == nil {
			s.logger.Error("failed to create assignment", "user_id", dto.UserID, "role_id", dto.RoleID, "error", err)
			return nil, internal.NewInternalError("failed to grant role", err)
		}

		raced.IsActive = true
		raced.ExpiresAt = dto.ExpiresAt
		raced.AssignedByID = &actor.ID
		raced.AssignedAt = time.Now()
		if err := s.repo.SaveAssignment(raced); err != nil {
			s.logger.Error("failed to reactivate assignment", "assignment_id", raced.ID, "error", err)
			return nil, internal.NewInternalError("failed to grant role", err)
		}

		s.logger.Info("role assignment reactivated",
			"assignment_id", raced.ID, "user_id", dto.UserID, "role_id", dto.RoleID, "granted_by", actor.ID)
		resp := assignmentResponse(raced, role)
		return &resp, nil
	}

	s.logger.Info("role granted",
		"assignment_id", assignment.ID, "user_id", dto.UserID, "role_id", dto.RoleID, "granted_by", actor.ID)
	resp := assignmentResponse(assignment, role)
	return &resp, nil
}

// RevokeRole soft-revokes an assignment, preserving the row for audit.
func (s *Service) RevokeRole(ctx context.Context, actor *auth.Principal, assignmentID int64) error {
	assignment, err := s.repo.GetAssignmentByID(assignmentID)
	if err != nil {
		s.logger.Error("failed to load assignment", "assignment_id", assignmentID, "error", err)
		return internal.NewInternalError("failed to revoke role", err)
	}
	if assignment == nil {
		return internal.ErrAssignmentNotFound
	}

	var attr map[string]interface{}
	if assignment.Role != nil {
		attr = roleAttr(assignment.Role)
	}
	if err := s.guard.Authorize(ctx, actor, authz.ResourceRole, fmt.Sprintf("%d", assignment.RoleID), "update", attr); err != nil {
		return err
	}

	assignment.IsActive = false
	if err := s.repo.SaveAssignment(assignment); err != nil {
		s.logger.Error("failed to revoke assignment", "assignment_id", assignmentID, "error", err)
		return internal.NewInternalError("failed to revoke role", err)
	}

	s.logger.Info("role revoked", "assignment_id", assignmentID, "user_id", assignment.UserID, "revoked_by", actor.ID)
	return nil
}

func (s *Service) ListUserAssignments(ctx context.Context, actor *auth.Principal, userID int64) ([]AssignmentResponse, error) {
	if actor.ID != userID {
		if err := s.guard.Authorize(ctx, actor, authz.ResourceUser, fmt.Sprintf("%d", userID), "read", nil); err != nil {
			return nil, err
		}
	}

	assignments, err := s.repo.ListAssignmentsForUser(userID)
	if err != nil {
		s.logger.Error("failed to list assignments", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list role assignments", err)
	}

	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		responses = append(responses, assignmentResponse(a, a.Role))
	}
	return responses, nil
}

// SyncUserRoles reconciles a user's unscoped assignments against a desired
// role id set: missing roles are granted (reactivating revoked rows), extra
// ones revoked. The basic role every account holds is never revoked and is
// always left active when the sync finishes, even when absent from the
// desired set.
func (s *Service) SyncUserRoles(ctx context.Context, actor *auth.Principal, userID int64, roleIDs []int64) error {
	desired := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		desired[id] = struct{}{}
	}

	assignments, err := s.repo.ListAssignmentsForUser(userID)
	if err != nil {
		s.logger.Error("failed to list assignments for sync", "user_id", userID, "error", err)
		return internal.NewInternalError("failed to sync roles", err)
	}

	for _, a := range assignments {
		if a.ScopeType != nil || !a.IsActive {
			continue
		}
		if _, keep := desired[a.RoleID]; keep {
			delete(desired, a.RoleID)
			continue
		}
		if a.Role != nil && a.Role.Code == BasicRoleCode {
			continue
		}
		a.IsActive = false
		if err := s.repo.SaveAssignment(a); err != nil {
			s.logger.Error("failed to revoke assignment during sync", "assignment_id", a.ID, "error", err)
			return internal.NewInternalError("failed to sync roles", err)
		}
	}

	for roleID := range desired {
		role, err := s.loadRole(roleID)
		if err != nil {
			return err
		}
		if !role.IsActive {
			return internal.NewValidationError("Cannot assign an inactive role", internal.ErrCodeInvalidReference)
		}

		existing, err := s.repo.GetAssignment(userID, roleID, nil, nil)
		if err != nil {
			return internal.NewInternalError("failed to sync roles", err)
		}
		if existing != nil {
			existing.IsActive = true
			existing.AssignedByID = &actor.ID
			existing.AssignedAt = time.Now()
			existing.ExpiresAt = nil
			if err := s.repo.SaveAssignment(existing); err != nil {
				return internal.NewInternalError("failed to sync roles", err)
			}
			continue
		}
		if err := s.repo.CreateAssignment(&rbacDatamodel.RoleAssignment{
			UserID:       userID,
			RoleID:       roleID,
			AssignedByID: &actor.ID,
			IsActive:     true,
		}); err != nil {
			return internal.NewInternalError("failed to sync roles", err)
		}
	}

	if err := s.ensureBasicRole(userID, actor.ID); err != nil {
		return err
	}

	s.logger.Info("roles synced", "user_id", userID, "role_count", len(roleIDs), "synced_by", actor.ID)
	return nil
}

// ensureBasicRole guarantees the baseline role assignment exists and is
// active, reactivating a previously revoked row if one is there.
func (s *Service) ensureBasicRole(userID, actorID int64) error {
	basic, err := s.repo.GetRoleByCode(BasicRoleCode)
	if err != nil {
		return internal.NewInternalError("failed to sync roles", err)
	}
	if basic == nil {
		return nil
	}

	existing, err := s.repo.GetAssignment(userID, basic.ID, nil, nil)
	if err != nil {
		return internal.NewInternalError("failed to sync roles", err)
	}
	if existing != nil {
		if existing.IsActive && !existing.IsExpired() {
			return nil
		}
		existing.IsActive = true
		existing.ExpiresAt = nil
		existing.AssignedAt = time.Now()
		if err := s.repo.SaveAssignment(existing); err != nil {
			return internal.NewInternalError("failed to sync roles", err)
		}
		return nil
	}

	if err := s.repo.CreateAssignment(&rbacDatamodel.RoleAssignment{
		UserID:       userID,
		RoleID:       basic.ID,
		AssignedByID: &actorID,
		IsActive:     true,
	}); err != nil {
		return internal.NewInternalError("failed to sync roles", err)
	}
	return nil
}

// ResolveFunctions computes the set of functions a user can reach through
// active role assignments. Expiry is evaluated here, at read time, so an
// assignment past its expires_at stops granting even before any write
// deactivates it. Functions reachable through several roles appear once.
func (s *Service) ResolveFunctions(userID int64) ([]navigationDatamodel.Function, error) {
	now := time.Now()
	assignments, err := s.repo.ActiveAssignmentsWithFunctions(userID, now)
	if err != nil {
		s.logger.Error("failed to resolve functions", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to resolve accessible functions", err)
	}

	seen := make(map[int64]struct{})
	var functions []navigationDatamodel.Function
	for _, a := range assignments {
		if a.IsExpired() {
			continue
		}
		if a.Role == nil || !a.Role.IsActive {
			continue
		}
		for _, f := range a.Role.Functions {
			if !f.IsActive {
				continue
			}
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			functions = append(functions, f)
		}
	}
	return functions, nil
}

func (s *Service) loadRole(id int64) (*rbacDatamodel.Role, error) {
	role, err := s.repo.GetRoleByID(id)
	if err != nil {
		s.logger.Error("failed to load role", "role_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load role", err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}
	return role, nil
}

func roleAttr(role *rbacDatamodel.Role) map[string]interface{} {
	return map[string]interface{}{
		"is_system": role.IsSystem,
		"is_active": role.IsActive,
		"code":      role.Code,
	}
}

func assignmentResponse(a *rbacDatamodel.RoleAssignment, role *rbacDatamodel.Role) AssignmentResponse {
	resp := AssignmentResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		RoleID:     a.RoleID,
		ScopeType:  a.ScopeType,
		ScopeID:    a.ScopeID,
		AssignedAt: a.AssignedAt,
		AssignedBy: a.AssignedByID,
		ExpiresAt:  a.ExpiresAt,
		IsActive:   a.IsActive,
	}
	if role != nil {
		resp.RoleName = role.Name
		resp.RoleCode = role.Code
	}
	return resp
}
