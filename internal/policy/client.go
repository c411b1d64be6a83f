package policy

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	effectAllow = "EFFECT_ALLOW"

	// resourceIDNew is used for create checks, where no persisted id exists yet.
	ResourceIDNew = "new"
)

// crudActions are the actions evaluated when summarizing a principal's
// permissions on a resource kind.
var crudActions = []string{"create", "read", "update", "delete", "list"}

// Principal describes the acting identity sent to the decision engine.
// Roles are deliberately left empty for user-facing checks: the engine
// decides on attributes (is_superuser, email), not role names.
type Principal struct {
	ID    string                 `json:"id"`
	Roles []string               `json:"roles"`
	Attr  map[string]interface{} `json:"attr,omitempty"`
}

// PrincipalForUser builds the descriptor for a user principal, carrying the
// stable identity id plus the two informational attributes the policies use.
func PrincipalForUser(userID int64, email string, isSuperuser bool) Principal {
	return Principal{
		ID:    fmt.Sprintf("%d", userID),
		Roles: []string{},
		Attr: map[string]interface{}{
			"is_superuser": isSuperuser,
			"email":        email,
		},
	}
}

// IsSuperuser reports the superuser attribute carried by the descriptor;
// it drives the degraded-mode fallback when the engine is unreachable.
func (p Principal) IsSuperuser() bool {
	v, ok := p.Attr["is_superuser"].(bool)
	return ok && v
}

type resource struct {
	Kind string                 `json:"kind"`
	ID   string                 `json:"id"`
	Attr map[string]interface{} `json:"attr,omitempty"`
}

type checkRequest struct {
	RequestID string          `json:"requestId"`
	Principal Principal       `json:"principal"`
	Resources []resourceEntry `json:"resources"`
}

type resourceEntry struct {
	Resource resource `json:"resource"`
	Actions  []string `json:"actions"`
}

type checkResponse struct {
	Results []struct {
		Resource struct {
			Kind string `json:"kind"`
			ID   string `json:"id"`
		} `json:"resource"`
		Actions map[string]string `json:"actions"`
	} `json:"results"`
}

type Config struct {
	Address      string
	TLSVerify    bool
	CheckTimeout time.Duration
}

// Client is a stateless adapter around the policy decision service. It is
// constructed once at process start and injected wherever decisions are
// needed; it never touches entity persistence.
type Client struct {
	address      string
	checkTimeout time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	transport := http.DefaultTransport
	if !cfg.TLSVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		address:      cfg.Address,
		checkTimeout: timeout,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// CheckUserPermission evaluates a single (principal, resource, action) tuple.
// On any communication or evaluation failure it fails open to the principal's
// superuser attribute: an unreachable engine must not lock out operators, but
// must not grant regular users anything either.
func (c *Client) CheckUserPermission(ctx context.Context, principal Principal, resourceType, resourceID, action string, resourceAttr map[string]interface{}) bool {
	allowed, err := c.isAllowed(ctx, principal, resource{Kind: resourceType, ID: resourceID, Attr: resourceAttr}, action)
	if err != nil {
		c.logger.Error("policy check failed, falling back to superuser flag",
			"error", err,
			"principal_id", principal.ID,
			"resource_type", resourceType,
			"resource_id", resourceID,
			"action", action,
			"fallback", principal.IsSuperuser())
		return principal.IsSuperuser()
	}
	return allowed
}

// ResourcePermissions summarizes the principal's CRUD permissions on a
// resource kind. Each action is evaluated independently and inherits the
// single-check fallback.
func (c *Client) ResourcePermissions(ctx context.Context, principal Principal, resourceType, resourceID string, resourceAttr map[string]interface{}) map[string]bool {
	if resourceID == "" {
		resourceID = "generic"
	}
	permissions := make(map[string]bool, len(crudActions))
	for _, action := range crudActions {
		permissions[action] = c.CheckUserPermission(ctx, principal, resourceType, resourceID, action, resourceAttr)
	}
	return permissions
}

// CheckPermission is the legacy role-carrying check. Unlike the user check
// it fails closed: an engine failure denies the action.
func (c *Client) CheckPermission(ctx context.Context, userID string, roles []string, resourceType, resourceID, action string, attributes map[string]interface{}) bool {
	principal := Principal{ID: userID, Roles: roles, Attr: map[string]interface{}{}}
	allowed, err := c.isAllowed(ctx, principal, resource{Kind: resourceType, ID: resourceID, Attr: attributes}, action)
	if err != nil {
		c.logger.Error("policy check failed, denying", "error", err, "principal_id", userID, "action", action)
		return false
	}
	return allowed
}

// CheckMultiplePermissions evaluates several actions at once through the
// legacy path. A failure on any action denies every action in the batch.
func (c *Client) CheckMultiplePermissions(ctx context.Context, userID string, roles []string, resourceType, resourceID string, actions []string, attributes map[string]interface{}) map[string]bool {
	principal := Principal{ID: userID, Roles: roles, Attr: map[string]interface{}{}}
	res := resource{Kind: resourceType, ID: resourceID, Attr: attributes}

	results := make(map[string]bool, len(actions))
	for _, action := range actions {
		allowed, err := c.isAllowed(ctx, principal, res, action)
		if err != nil {
			c.logger.Error("policy batch check failed, denying all actions",
				"error", err, "principal_id", userID, "resource_type", resourceType)
			for _, a := range actions {
				results[a] = false
			}
			return results
		}
		results[action] = allowed
	}
	return results
}

func (c *Client) isAllowed(ctx context.Context, principal Principal, res resource, action string) (bool, error) {
	payload := checkRequest{
		RequestID: uuid.NewString(),
		Principal: principal,
		Resources: []resourceEntry{
			{Resource: res, Actions: []string{action}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal check request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+"/api/check/resources", bytes.NewBuffer(body))
	if err != nil {
		return false, fmt.Errorf("failed to create check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("policy engine returned status %d", resp.StatusCode)
	}

	var decoded checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, fmt.Errorf("failed to decode check response: %w", err)
	}

	if len(decoded.Results) == 0 {
		return false, fmt.Errorf("policy engine returned no results")
	}

	effect, ok := decoded.Results[0].Actions[action]
	if !ok {
		return false, fmt.Errorf("policy engine returned no effect for action %s", action)
	}

	return effect == effectAllow, nil
}
