package policy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/commercia/access-management/internal/policy"
	"github.com/commercia/access-management/pkg/logger"
)

func TestPolicy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Policy Client Suite")
}

func respondWith(effects map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Resources []struct {
				Resource struct {
					Kind string `json:"kind"`
					ID   string `json:"id"`
				} `json:"resource"`
			} `json:"resources"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"resource": req.Resources[0].Resource,
					"actions":  effects,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func newClient(address string) *policy.Client {
	return policy.NewClient(policy.Config{
		Address:      address,
		TLSVerify:    true,
		CheckTimeout: 2 * time.Second,
	}, logger.LoggerWrapper())
}

var _ = Describe("Client", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("CheckUserPermission", func() {
		It("allows when the engine grants the action", func() {
			srv := httptest.NewServer(respondWith(map[string]string{"read": "EFFECT_ALLOW"}))
			defer srv.Close()

			client := newClient(srv.URL)
			principal := policy.PrincipalForUser(7, "user@example.com", false)

			allowed := client.CheckUserPermission(ctx, principal, "role", "1", "read", nil)
			Expect(allowed).To(BeTrue())
		})

		It("denies when the engine denies the action", func() {
			srv := httptest.NewServer(respondWith(map[string]string{"delete": "EFFECT_DENY"}))
			defer srv.Close()

			client := newClient(srv.URL)
			principal := policy.PrincipalForUser(7, "user@example.com", false)

			allowed := client.CheckUserPermission(ctx, principal, "role", "1", "delete", nil)
			Expect(allowed).To(BeFalse())
		})

		It("falls back to the superuser flag when the engine is unreachable", func() {
			client := newClient("http://127.0.0.1:1")

			superuser := policy.PrincipalForUser(1, "admin@example.com", true)
			regular := policy.PrincipalForUser(2, "user@example.com", false)

			Expect(client.CheckUserPermission(ctx, superuser, "role", "1", "delete", nil)).To(BeTrue())
			Expect(client.CheckUserPermission(ctx, regular, "role", "1", "read", nil)).To(BeFalse())
		})

		It("falls back on non-200 responses", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			client := newClient(srv.URL)
			superuser := policy.PrincipalForUser(1, "admin@example.com", true)

			Expect(client.CheckUserPermission(ctx, superuser, "role", "1", "update", nil)).To(BeTrue())
		})
	})

	Describe("ResourcePermissions", func() {
		It("evaluates every CRUD action independently", func() {
			srv := httptest.NewServer(respondWith(map[string]string{
				"create": "EFFECT_DENY",
				"read":   "EFFECT_ALLOW",
				"update": "EFFECT_DENY",
				"delete": "EFFECT_DENY",
				"list":   "EFFECT_ALLOW",
			}))
			defer srv.Close()

			client := newClient(srv.URL)
			principal := policy.PrincipalForUser(7, "user@example.com", false)

			perms := client.ResourcePermissions(ctx, principal, "function", "3", nil)
			Expect(perms).To(HaveLen(5))
			Expect(perms["read"]).To(BeTrue())
			Expect(perms["list"]).To(BeTrue())
			Expect(perms["create"]).To(BeFalse())
			Expect(perms["update"]).To(BeFalse())
			Expect(perms["delete"]).To(BeFalse())
		})

		It("substitutes a generic resource id when none is given", func() {
			var gotID string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Resources []struct {
						Resource struct {
							ID string `json:"id"`
						} `json:"resource"`
					} `json:"resources"`
				}
				_ = json.NewDecoder(r.Body).Decode(&req)
				gotID = req.Resources[0].Resource.ID
				respondWith(map[string]string{
					"create": "EFFECT_ALLOW", "read": "EFFECT_ALLOW", "update": "EFFECT_ALLOW",
					"delete": "EFFECT_ALLOW", "list": "EFFECT_ALLOW",
				})(w, r)
			}))
			defer srv.Close()

			client := newClient(srv.URL)
			principal := policy.PrincipalForUser(7, "user@example.com", false)

			client.ResourcePermissions(ctx, principal, "user", "", nil)
			Expect(gotID).To(Equal("generic"))
		})
	})

	Describe("CheckMultiplePermissions", func() {
		It("denies every action when the engine is unreachable", func() {
			client := newClient("http://127.0.0.1:1")

			results := client.CheckMultiplePermissions(ctx, "1", []string{"admin"}, "role", "1", []string{"read", "update"}, nil)
			Expect(results).To(Equal(map[string]bool{"read": false, "update": false}))
		})

		It("returns per-action effects when the engine responds", func() {
			srv := httptest.NewServer(respondWith(map[string]string{
				"read":   "EFFECT_ALLOW",
				"update": "EFFECT_DENY",
			}))
			defer srv.Close()

			client := newClient(srv.URL)
			results := client.CheckMultiplePermissions(ctx, "1", []string{"admin"}, "role", "1", []string{"read", "update"}, nil)
			Expect(results["read"]).To(BeTrue())
			Expect(results["update"]).To(BeFalse())
		})
	})
})
