package authz_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	"github.com/commercia/access-management/internal/authz"
	"github.com/commercia/access-management/internal/policy"
	"github.com/commercia/access-management/pkg/logger"
)

func TestAuthz(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Authz Suite")
}

type stubPolicy struct {
	allow       bool
	lastAction  string
	lastID      string
	lastKind    string
	permissions map[string]bool
}

func (s *stubPolicy) CheckUserPermission(ctx context.Context, principal policy.Principal, resourceType, resourceID, action string, attr map[string]interface{}) bool {
	s.lastKind = resourceType
	s.lastID = resourceID
	s.lastAction = action
	return s.allow
}

func (s *stubPolicy) ResourcePermissions(ctx context.Context, principal policy.Principal, resourceType, resourceID string, attr map[string]interface{}) map[string]bool {
	return s.permissions
}

var _ = Describe("Guard", func() {
	var (
		stub      *stubPolicy
		guard     *authz.Guard
		principal *auth.Principal
		ctx       context.Context
	)

	BeforeEach(func() {
		stub = &stubPolicy{}
		guard = authz.NewGuard(stub, logger.LoggerWrapper())
		principal = &auth.Principal{ID: 42, Email: "user@example.com", IsActive: true}
		ctx = context.Background()
	})

	Describe("Authorize", func() {
		It("passes when the engine allows", func() {
			stub.allow = true
			err := guard.Authorize(ctx, principal, authz.ResourceRole, "7", "update", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns a forbidden error when the engine denies", func() {
			stub.allow = false
			err := guard.Authorize(ctx, principal, authz.ResourceRole, "7", "delete", nil)
			Expect(err).To(HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
			Expect(appErr.Code).To(Equal(internal.ErrCodePermissionDenied))
		})
	})

	Describe("AuthorizeCreate", func() {
		It("uses the placeholder resource id", func() {
			stub.allow = true
			err := guard.AuthorizeCreate(ctx, principal, authz.ResourceFunction, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stub.lastID).To(Equal("new"))
			Expect(stub.lastAction).To(Equal("create"))
		})
	})

	Describe("CanViewAll", func() {
		It("grants staff and superusers full visibility", func() {
			Expect(authz.CanViewAll(&auth.Principal{IsStaff: true})).To(BeTrue())
			Expect(authz.CanViewAll(&auth.Principal{IsSuperuser: true})).To(BeTrue())
		})

		It("restricts regular users to their own records", func() {
			Expect(authz.CanViewAll(&auth.Principal{})).To(BeFalse())
		})
	})

	Describe("EnsureMutableSystemEntity", func() {
		It("blocks system entities without consulting the engine", func() {
			err := authz.EnsureMutableSystemEntity(true)
			Expect(err).To(HaveOccurred())

			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemProtected))
			Expect(stub.lastAction).To(BeEmpty())
		})

		It("passes for regular entities", func() {
			Expect(authz.EnsureMutableSystemEntity(false)).To(Succeed())
		})
	})
})
