package user_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/navigation"
	"github.com/commercia/access-management/internal/user"
	"github.com/commercia/access-management/pkg/logger"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

type stubGuard struct {
	deny bool
}

func (g *stubGuard) Authorize(ctx context.Context, p *auth.Principal, resourceType, resourceID, action string, attr map[string]interface{}) error {
	if g.deny {
		return internal.ErrPermissionDenied
	}
	return nil
}

func (g *stubGuard) AuthorizeCreate(ctx context.Context, p *auth.Principal, resourceType string, attr map[string]interface{}) error {
	return g.Authorize(ctx, p, resourceType, "new", "create", attr)
}

func (g *stubGuard) Permissions(ctx context.Context, p *auth.Principal, resourceType, resourceID string, attr map[string]interface{}) map[string]bool {
	return map[string]bool{"read": true, "list": true, "create": false, "update": false, "delete": false}
}

type stubRoleSync struct {
	syncedUser int64
	syncedIDs  []int64
}

func (s *stubRoleSync) SyncUserRoles(ctx context.Context, actor *auth.Principal, userID int64, roleIDs []int64) error {
	s.syncedUser = userID
	s.syncedIDs = roleIDs
	return nil
}

type stubMenu struct {
	menu []navigation.MenuNode
}

func (s *stubMenu) BuildMenuFor(userID int64) ([]navigation.MenuNode, error) {
	return s.menu, nil
}

type userMockRepo struct {
	users  map[int64]*userDatamodel.User
	nextID int64
}

func newUserMockRepo() *userMockRepo {
	return &userMockRepo{users: make(map[int64]*userDatamodel.User), nextID: 1}
}

func (m *userMockRepo) GetAll(filter user.Filter) ([]*userDatamodel.User, error) {
	var out []*userDatamodel.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *userMockRepo) GetByID(id int64) (*userDatamodel.User, error) {
	return m.users[id], nil
}

func (m *userMockRepo) GetByEmail(email string) (*userDatamodel.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *userMockRepo) Create(u *userDatamodel.User) error {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *userMockRepo) Update(u *userDatamodel.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *userMockRepo) Deactivate(id int64) error {
	if u, ok := m.users[id]; ok {
		u.IsActive = false
	}
	return nil
}

var _ = Describe("Service", func() {
	var (
		repo     *userMockRepo
		guard    *stubGuard
		roleSync *stubRoleSync
		menu     *stubMenu
		service  *user.Service
		ctx      context.Context
	)

	staff := &auth.Principal{ID: 1, Email: "admin@example.com", IsActive: true, IsStaff: true}
	regular := &auth.Principal{ID: 2, Email: "user@example.com", IsActive: true}

	BeforeEach(func() {
		repo = newUserMockRepo()
		guard = &stubGuard{}
		roleSync = &stubRoleSync{}
		menu = &stubMenu{}
		service = user.NewService(repo, guard, roleSync, menu, bcrypt.MinCost, logger.LoggerWrapper())
		ctx = context.Background()

		repo.users[1] = &userDatamodel.User{ID: 1, Email: "admin@example.com", IsActive: true, IsStaff: true}
		repo.users[2] = &userDatamodel.User{ID: 2, Email: "user@example.com", IsActive: true}
		repo.nextID = 3
	})

	Describe("ListUsers", func() {
		It("returns every user for staff", func() {
			users, err := service.ListUsers(ctx, staff, user.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})

		It("returns only the caller's record for regular users", func() {
			users, err := service.ListUsers(ctx, regular, user.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].ID).To(Equal(int64(2)))
		})
	})

	Describe("GetUser", func() {
		It("always allows reading your own record", func() {
			guard.deny = true
			u, err := service.GetUser(ctx, regular, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal(int64(2)))
		})

		It("authorizes reads of other users", func() {
			guard.deny = true
			_, err := service.GetUser(ctx, regular, 1)
			Expect(err).To(Equal(internal.ErrPermissionDenied))
		})
	})

	Describe("CreateUser", func() {
		It("rejects duplicate emails", func() {
			_, err := service.CreateUser(ctx, staff, user.CreateDTO{
				Email: "user@example.com", Password: "secret-password",
			})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateEmail))
		})

		It("hashes the password and defaults the user type", func() {
			resp, err := service.CreateUser(ctx, staff, user.CreateDTO{
				Email: "new@example.com", Password: "secret-password",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.UserType).To(Equal(user.TypeOther))

			stored := repo.users[resp.ID]
			Expect(stored.PasswordHash).NotTo(Equal("secret-password"))
			Expect(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret-password"))).To(Succeed())
		})

		It("syncs initial roles when given", func() {
			resp, err := service.CreateUser(ctx, staff, user.CreateDTO{
				Email: "new@example.com", Password: "secret-password", RoleIDs: []int64{4, 5},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(roleSync.syncedUser).To(Equal(resp.ID))
			Expect(roleSync.syncedIDs).To(Equal([]int64{4, 5}))
		})

		It("runs the role sync even without requested roles so the baseline role is granted", func() {
			resp, err := service.CreateUser(ctx, staff, user.CreateDTO{
				Email: "plain@example.com", Password: "secret-password",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(roleSync.syncedUser).To(Equal(resp.ID))
			Expect(roleSync.syncedIDs).To(BeEmpty())
		})
	})

	Describe("UpdateUser", func() {
		It("passes role_ids through to the role sync", func() {
			ids := []int64{7}
			_, err := service.UpdateUser(ctx, staff, 2, user.AdminUpdateDTO{RoleIDs: &ids})
			Expect(err).NotTo(HaveOccurred())
			Expect(roleSync.syncedUser).To(Equal(int64(2)))
			Expect(roleSync.syncedIDs).To(Equal([]int64{7}))
		})

		It("refuses to deactivate a superuser", func() {
			repo.users[3] = &userDatamodel.User{ID: 3, Email: "root@example.com", IsActive: true, IsSuperuser: true}

			inactive := false
			_, err := service.UpdateUser(ctx, staff, 3, user.AdminUpdateDTO{IsActive: &inactive})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemProtected))
		})
	})

	Describe("DeleteUser", func() {
		It("soft-deactivates the account", func() {
			Expect(service.DeleteUser(ctx, staff, 2)).To(Succeed())
			Expect(repo.users[2].IsActive).To(BeFalse())
		})

		It("refuses to delete a superuser", func() {
			repo.users[3] = &userDatamodel.User{ID: 3, Email: "root@example.com", IsActive: true, IsSuperuser: true}

			err := service.DeleteUser(ctx, staff, 3)
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemProtected))
		})
	})

	Describe("UpdateMe", func() {
		It("updates profile fields only", func() {
			name := "Updated"
			resp, err := service.UpdateMe(ctx, regular, user.ProfileUpdateDTO{FirstName: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.FirstName).To(Equal("Updated"))
			Expect(repo.users[2].IsStaff).To(BeFalse())
			Expect(repo.users[2].Email).To(Equal("user@example.com"))
		})
	})

	Describe("ChangePassword", func() {
		BeforeEach(func() {
			hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
			Expect(err).NotTo(HaveOccurred())
			repo.users[2].PasswordHash = string(hash)
		})

		It("rejects a wrong current password", func() {
			err := service.ChangePassword(ctx, regular, user.ChangePasswordDTO{
				CurrentPassword: "wrong", NewPassword: "new-password-1",
			})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("stores a new hash on success", func() {
			err := service.ChangePassword(ctx, regular, user.ChangePasswordDTO{
				CurrentPassword: "old-password", NewPassword: "new-password-1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(bcrypt.CompareHashAndPassword([]byte(repo.users[2].PasswordHash), []byte("new-password-1"))).To(Succeed())
		})
	})

	Describe("GetMyPermissions", func() {
		It("summarizes every resource kind", func() {
			permissions, err := service.GetMyPermissions(ctx, regular)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions).To(HaveLen(5))
			Expect(permissions).To(HaveKey("user"))
			Expect(permissions).To(HaveKey("customer"))
			Expect(permissions).To(HaveKey("role"))
			Expect(permissions).To(HaveKey("category"))
			Expect(permissions).To(HaveKey("function"))
			Expect(permissions["role"]["read"]).To(BeTrue())
		})
	})

	Describe("GetMyMenu", func() {
		It("returns the rendered menu", func() {
			menu.menu = []navigation.MenuNode{{ID: "1", Name: "Dashboard"}}

			nodes, err := service.GetMyMenu(ctx, regular)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(1))
		})
	})
})
