package customer_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/customer"
	"github.com/commercia/access-management/internal/user"
	"github.com/commercia/access-management/pkg/logger"
)

func TestCustomer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Customer Service Suite")
}

type stubGuard struct {
	deny      bool
	callCount int
}

func (g *stubGuard) Authorize(ctx context.Context, p *auth.Principal, resourceType, resourceID, action string, attr map[string]interface{}) error {
	g.callCount++
	if g.deny {
		return internal.ErrPermissionDenied
	}
	return nil
}

func (g *stubGuard) AuthorizeCreate(ctx context.Context, p *auth.Principal, resourceType string, attr map[string]interface{}) error {
	return g.Authorize(ctx, p, resourceType, "new", "create", attr)
}

type customerMockRepo struct {
	customers map[int64]*userDatamodel.Customer
	users     map[int64]*userDatamodel.User
	nextID    int64
}

func newCustomerMockRepo() *customerMockRepo {
	return &customerMockRepo{
		customers: make(map[int64]*userDatamodel.Customer),
		users:     make(map[int64]*userDatamodel.User),
		nextID:    1,
	}
}

func (m *customerMockRepo) GetAll(filter customer.Filter) ([]*userDatamodel.Customer, error) {
	var out []*userDatamodel.Customer
	for _, c := range m.customers {
		if filter.IsActive != nil && c.IsActiveCustomer != *filter.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *customerMockRepo) GetByID(id int64) (*userDatamodel.Customer, error) {
	return m.customers[id], nil
}

func (m *customerMockRepo) GetByUserID(userID int64) (*userDatamodel.Customer, error) {
	for _, c := range m.customers {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *customerMockRepo) GetByCode(code string) (*userDatamodel.Customer, error) {
	for _, c := range m.customers {
		if c.CustomerCode == code {
			return c, nil
		}
	}
	return nil, nil
}

func (m *customerMockRepo) Count() (int64, error) {
	return int64(len(m.customers)), nil
}

func (m *customerMockRepo) Create(c *userDatamodel.Customer) error {
	c.ID = m.nextID
	m.nextID++
	m.customers[c.ID] = c
	return nil
}

func (m *customerMockRepo) CreateWithUser(u *userDatamodel.User, c *userDatamodel.Customer) error {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	c.UserID = u.ID
	return m.Create(c)
}

func (m *customerMockRepo) Update(c *userDatamodel.Customer) error {
	m.customers[c.ID] = c
	return nil
}

func (m *customerMockRepo) Deactivate(id int64) error {
	c, ok := m.customers[id]
	if !ok {
		return internal.ErrCustomerNotFound
	}
	c.IsActiveCustomer = false
	return nil
}

type userStubRepo struct {
	byEmail map[string]*userDatamodel.User
}

func (m *userStubRepo) GetAll(filter user.Filter) ([]*userDatamodel.User, error) {
	return nil, nil
}

func (m *userStubRepo) GetByID(id int64) (*userDatamodel.User, error) { return nil, nil }

func (m *userStubRepo) GetByEmail(email string) (*userDatamodel.User, error) {
	if m.byEmail == nil {
		return nil, nil
	}
	return m.byEmail[email], nil
}

func (m *userStubRepo) Create(u *userDatamodel.User) error { return nil }
func (m *userStubRepo) Update(u *userDatamodel.User) error { return nil }
func (m *userStubRepo) Deactivate(id int64) error          { return nil }

var _ = Describe("Customer service", func() {
	var (
		repo     *customerMockRepo
		userRepo *userStubRepo
		guard    *stubGuard
		svc      *customer.Service
		ctx      context.Context
		staff    *auth.Principal
		owner    *auth.Principal
	)

	seed := func(userID int64, code string) *userDatamodel.Customer {
		u := &userDatamodel.User{
			ID:       userID,
			Email:    fmt.Sprintf("user%d@example.com", userID),
			UserType: user.TypeCustomer,
			IsActive: true,
		}
		c := &userDatamodel.Customer{
			ID:               userID * 100,
			UserID:           userID,
			User:             *u,
			CustomerCode:     code,
			CustomerType:     customer.TypeIndividual,
			PaymentTerms:     30,
			IsActiveCustomer: true,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		repo.users[userID] = u
		repo.customers[c.ID] = c
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
		return c
	}

	BeforeEach(func() {
		repo = newCustomerMockRepo()
		userRepo = &userStubRepo{}
		guard = &stubGuard{}
		svc = customer.NewService(repo, userRepo, guard, 4, logger.LoggerWrapper())
		ctx = context.Background()
		staff = &auth.Principal{ID: 1, Email: "staff@example.com", UserType: user.TypeStaff, IsActive: true, IsStaff: true}
		owner = &auth.Principal{ID: 7, Email: "user7@example.com", UserType: user.TypeCustomer, IsActive: true}
	})

	Describe("ListCustomers", func() {
		It("returns all customers for staff", func() {
			seed(7, "CLI000001")
			seed(8, "CLI000002")

			out, err := svc.ListCustomers(ctx, staff, customer.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(2))
		})

		It("returns only the caller's own record for a customer user", func() {
			seed(7, "CLI000001")
			seed(8, "CLI000002")

			out, err := svc.ListCustomers(ctx, owner, customer.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(1))
			Expect(out[0].UserID).To(Equal(int64(7)))
			Expect(guard.callCount).To(BeZero())
		})

		It("returns an empty list for a customer user without a record", func() {
			seed(8, "CLI000002")

			out, err := svc.ListCustomers(ctx, owner, customer.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
		})
	})

	Describe("GetCustomer", func() {
		It("lets the owner read their record without a policy check", func() {
			c := seed(7, "CLI000001")

			out, err := svc.GetCustomer(ctx, owner, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.CustomerCode).To(Equal("CLI000001"))
			Expect(guard.callCount).To(BeZero())
		})

		It("denies another user's record when the policy denies", func() {
			c := seed(8, "CLI000002")
			guard.deny = true

			_, err := svc.GetCustomer(ctx, owner, c.ID)
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})

		It("returns not found for an unknown id", func() {
			_, err := svc.GetCustomer(ctx, staff, 999)
			Expect(err).To(MatchError(internal.ErrCustomerNotFound))
		})
	})

	Describe("CreateCustomer", func() {
		validDTO := func() customer.CreateDTO {
			return customer.CreateDTO{
				Email:     "new@example.com",
				Password:  "s3cret-pass",
				FirstName: "New",
				LastName:  "Customer",
			}
		}

		It("creates the user and customer rows together", func() {
			out, err := svc.CreateCustomer(ctx, staff, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(out.CustomerCode).To(Equal("CLI000001"))
			Expect(out.Email).To(Equal("new@example.com"))
			Expect(out.CustomerType).To(Equal(customer.TypeIndividual))
			Expect(out.PaymentTerms).To(Equal(30))
			Expect(repo.users).To(HaveLen(1))
			Expect(repo.customers).To(HaveLen(1))
		})

		It("generates sequential codes", func() {
			_, err := svc.CreateCustomer(ctx, staff, validDTO())
			Expect(err).NotTo(HaveOccurred())

			dto := validDTO()
			dto.Email = "second@example.com"
			out, err := svc.CreateCustomer(ctx, staff, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.CustomerCode).To(Equal("CLI000002"))
		})

		It("walks past codes already taken", func() {
			seed(7, "CLI000002")

			out, err := svc.CreateCustomer(ctx, staff, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(out.CustomerCode).To(Equal("CLI000003"))
		})

		It("rejects a duplicate email", func() {
			userRepo.byEmail = map[string]*userDatamodel.User{
				"new@example.com": {ID: 42, Email: "new@example.com"},
			}

			_, err := svc.CreateCustomer(ctx, staff, validDTO())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateEmail))
		})

		It("requires a company name for company customers", func() {
			dto := validDTO()
			dto.CustomerType = customer.TypeCompany

			_, err := svc.CreateCustomer(ctx, staff, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
			Expect(guard.callCount).To(BeZero())
		})

		It("rejects an out-of-range discount", func() {
			dto := validDTO()
			dto.DiscountPercentage = 120

			_, err := svc.CreateCustomer(ctx, staff, dto)
			_, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
		})

		It("denies creation when the policy denies", func() {
			guard.deny = true

			_, err := svc.CreateCustomer(ctx, staff, validDTO())
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})
	})

	Describe("UpdateCustomer", func() {
		It("applies only the provided fields", func() {
			c := seed(7, "CLI000001")
			limit := 5000.0

			out, err := svc.UpdateCustomer(ctx, staff, c.ID, customer.UpdateDTO{CreditLimit: &limit})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.CreditLimit).To(Equal(5000.0))
			Expect(out.CustomerCode).To(Equal("CLI000001"))
		})

		It("rejects a negative credit limit", func() {
			c := seed(7, "CLI000001")
			limit := -1.0

			_, err := svc.UpdateCustomer(ctx, staff, c.ID, customer.UpdateDTO{CreditLimit: &limit})
			_, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
		})
	})

	Describe("DeleteCustomer", func() {
		It("deactivates instead of deleting", func() {
			c := seed(7, "CLI000001")

			Expect(svc.DeleteCustomer(ctx, staff, c.ID)).To(Succeed())
			Expect(repo.customers[c.ID].IsActiveCustomer).To(BeFalse())
		})
	})

	Describe("GetMyCustomer", func() {
		It("returns the caller's record", func() {
			seed(7, "CLI000001")

			out, err := svc.GetMyCustomer(ctx, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.UserID).To(Equal(int64(7)))
		})

		It("returns not found when the caller has no record", func() {
			_, err := svc.GetMyCustomer(ctx, owner)
			Expect(err).To(MatchError(internal.ErrCustomerNotFound))
		})
	})
})
