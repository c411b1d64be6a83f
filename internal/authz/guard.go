package authz

import (
	"context"
	"log/slog"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	"github.com/commercia/access-management/internal/policy"
)

// Resource kinds registered with the decision engine.
const (
	ResourceUser     = "user"
	ResourceCustomer = "customer"
	ResourceRole     = "role"
	ResourceCategory = "category"
	ResourceFunction = "function"
)

// PolicyAPI is the slice of the decision client the guard needs. Injected so
// service tests can swap in a stub instead of a live engine.
type PolicyAPI interface {
	CheckUserPermission(ctx context.Context, principal policy.Principal, resourceType, resourceID, action string, resourceAttr map[string]interface{}) bool
	ResourcePermissions(ctx context.Context, principal policy.Principal, resourceType, resourceID string, resourceAttr map[string]interface{}) map[string]bool
}

// Guard turns policy decisions into domain errors. It sits between handlers
// and services: every mutating operation asks the guard before touching
// persistence.
type Guard struct {
	policy PolicyAPI
	logger *slog.Logger
}

func NewGuard(policyClient PolicyAPI, logger *slog.Logger) *Guard {
	return &Guard{policy: policyClient, logger: logger}
}

func descriptor(p *auth.Principal) policy.Principal {
	return policy.PrincipalForUser(p.ID, p.Email, p.IsSuperuser)
}

// Authorize checks one action on a persisted resource and returns
// ErrPermissionDenied when the engine denies it.
func (g *Guard) Authorize(ctx context.Context, p *auth.Principal, resourceType, resourceID, action string, resourceAttr map[string]interface{}) error {
	if g.policy.CheckUserPermission(ctx, descriptor(p), resourceType, resourceID, action, resourceAttr) {
		return nil
	}
	g.logger.Info("authorization denied",
		"user_id", p.ID,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"action", action)
	return internal.ErrPermissionDenied
}

// AuthorizeCreate checks the create action with the placeholder resource id,
// since the resource does not exist yet.
func (g *Guard) AuthorizeCreate(ctx context.Context, p *auth.Principal, resourceType string, resourceAttr map[string]interface{}) error {
	return g.Authorize(ctx, p, resourceType, policy.ResourceIDNew, "create", resourceAttr)
}

// Permissions summarizes the principal's CRUD permissions on a resource kind.
func (g *Guard) Permissions(ctx context.Context, p *auth.Principal, resourceType, resourceID string, resourceAttr map[string]interface{}) map[string]bool {
	return g.policy.ResourcePermissions(ctx, descriptor(p), resourceType, resourceID, resourceAttr)
}

// CanViewAll is the single visibility predicate for list endpoints: staff and
// superusers see everything, everyone else sees only their own records.
func CanViewAll(p *auth.Principal) bool {
	return p.IsSuperuser || p.IsStaff
}

// EnsureMutableSystemEntity rejects destructive operations on system-flagged
// entities. This check runs before any policy round-trip: no engine answer
// can override it.
func EnsureMutableSystemEntity(isSystem bool) error {
	if isSystem {
		return internal.ErrSystemProtected
	}
	return nil
}
