package navigation_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
	"github.com/commercia/access-management/internal/navigation"
	"github.com/commercia/access-management/pkg/logger"
)

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

type stubResolver struct {
	functions []navigationDatamodel.Function
	err       error
}

func (r *stubResolver) ResolveFunctions(userID int64) ([]navigationDatamodel.Function, error) {
	return r.functions, r.err
}

type navMockRepo struct {
	categories map[int64]*navigationDatamodel.Category
	functions  map[int64]*navigationDatamodel.Function
	nextID     int64

	updatedOrders map[int64]int
	orderedTable  string
}

func newNavMockRepo() *navMockRepo {
	return &navMockRepo{
		categories: make(map[int64]*navigationDatamodel.Category),
		functions:  make(map[int64]*navigationDatamodel.Function),
		nextID:     1,
	}
}

func (m *navMockRepo) GetAllCategories(filter navigation.CategoryFilter) ([]*navigationDatamodel.Category, error) {
	var out []*navigationDatamodel.Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *navMockRepo) GetActiveCategories() ([]*navigationDatamodel.Category, error) {
	var out []*navigationDatamodel.Category
	for _, c := range m.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *navMockRepo) GetCategoryByID(id int64) (*navigationDatamodel.Category, error) {
	return m.categories[id], nil
}

func (m *navMockRepo) GetCategoryByCode(code string) (*navigationDatamodel.Category, error) {
	for _, c := range m.categories {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func (m *navMockRepo) CreateCategory(c *navigationDatamodel.Category) error {
	c.ID = m.nextID
	m.nextID++
	m.categories[c.ID] = c
	return nil
}

func (m *navMockRepo) UpdateCategory(c *navigationDatamodel.Category) error {
	m.categories[c.ID] = c
	return nil
}

func (m *navMockRepo) DeactivateCategory(id int64) error {
	if c, ok := m.categories[id]; ok {
		c.IsActive = false
	}
	return nil
}

func (m *navMockRepo) GetAllFunctions(filter navigation.FunctionFilter) ([]*navigationDatamodel.Function, error) {
	var out []*navigationDatamodel.Function
	for _, f := range m.functions {
		out = append(out, f)
	}
	return out, nil
}

func (m *navMockRepo) GetFunctionByID(id int64) (*navigationDatamodel.Function, error) {
	return m.functions[id], nil
}

func (m *navMockRepo) GetFunctionByCode(code string) (*navigationDatamodel.Function, error) {
	for _, f := range m.functions {
		if f.Code == code {
			return f, nil
		}
	}
	return nil, nil
}

func (m *navMockRepo) CreateFunction(f *navigationDatamodel.Function) error {
	f.ID = m.nextID
	m.nextID++
	m.functions[f.ID] = f
	return nil
}

func (m *navMockRepo) UpdateFunction(f *navigationDatamodel.Function) error {
	m.functions[f.ID] = f
	return nil
}

func (m *navMockRepo) DeactivateFunction(id int64) error {
	if f, ok := m.functions[id]; ok {
		f.IsActive = false
	}
	return nil
}

func (m *navMockRepo) UpdateOrders(table string, orders map[int64]int) error {
	m.orderedTable = table
	m.updatedOrders = orders
	return nil
}

var _ = Describe("Service", func() {
	var (
		repo     *navMockRepo
		guard    *stubGuard
		resolver *stubResolver
		service  *navigation.Service
		actor    *auth.Principal
		ctx      context.Context
	)

	BeforeEach(func() {
		repo = newNavMockRepo()
		guard = &stubGuard{}
		resolver = &stubResolver{}
		service = navigation.NewService(repo, resolver, guard, logger.LoggerWrapper())
		actor = &auth.Principal{ID: 1, Email: "admin@example.com", IsActive: true, IsStaff: true}
		ctx = context.Background()
	})

	Describe("CreateFunction", func() {
		It("rejects duplicate codes", func() {
			repo.functions[1] = &navigationDatamodel.Function{ID: 1, Code: "users"}

			_, err := service.CreateFunction(ctx, actor, navigation.CreateFunctionDTO{Name: "Users", Code: "users"})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateCode))
		})

		It("rejects a missing parent", func() {
			parent := int64(99)
			_, err := service.CreateFunction(ctx, actor, navigation.CreateFunctionDTO{
				Name: "Users", Code: "users", ParentID: &parent,
			})
			Expect(err).To(Equal(internal.ErrFunctionNotFound))
		})

		It("creates an active function with the default icon", func() {
			resp, err := service.CreateFunction(ctx, actor, navigation.CreateFunctionDTO{Name: "Users", Code: "users"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.IsActive).To(BeTrue())
			Expect(resp.Icon).To(Equal("fas fa-circle"))
		})
	})

	Describe("UpdateFunction parent validation", func() {
		BeforeEach(func() {
			// a -> b -> c chain
			repo.functions[1] = &navigationDatamodel.Function{ID: 1, Name: "a", Code: "a", IsActive: true}
			repo.functions[2] = &navigationDatamodel.Function{ID: 2, Name: "b", Code: "b", ParentID: intPtr(1), IsActive: true}
			repo.functions[3] = &navigationDatamodel.Function{ID: 3, Name: "c", Code: "c", ParentID: intPtr(2), IsActive: true}
		})

		It("rejects making a function its own parent", func() {
			_, err := service.UpdateFunction(ctx, actor, 1, navigation.UpdateFunctionDTO{ParentID: intPtr(1)})
			Expect(err).To(Equal(internal.ErrCircularParent))
		})

		It("rejects a descendant as parent", func() {
			_, err := service.UpdateFunction(ctx, actor, 1, navigation.UpdateFunctionDTO{ParentID: intPtr(3)})
			Expect(err).To(Equal(internal.ErrCircularParent))
		})

		It("accepts a valid reparent", func() {
			resp, err := service.UpdateFunction(ctx, actor, 3, navigation.UpdateFunctionDTO{ParentID: intPtr(1)})
			Expect(err).NotTo(HaveOccurred())
			Expect(*resp.ParentID).To(Equal(int64(1)))
		})

		It("clears the parent on request", func() {
			resp, err := service.UpdateFunction(ctx, actor, 3, navigation.UpdateFunctionDTO{ClearParent: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ParentID).To(BeNil())
		})
	})

	Describe("system entity protection", func() {
		It("refuses to delete a system function before any policy call", func() {
			repo.functions[1] = &navigationDatamodel.Function{ID: 1, Name: "Core", Code: "core", IsActive: true, IsSystem: true}

			err := service.DeleteFunction(ctx, actor, 1)
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemProtected))
			Expect(guard.callCount).To(BeZero())
		})

		It("refuses to deactivate a system category", func() {
			repo.categories[1] = &navigationDatamodel.Category{ID: 1, Name: "Core", Code: "core", IsActive: true, IsSystem: true}

			inactive := false
			_, err := service.UpdateCategory(ctx, actor, 1, navigation.UpdateCategoryDTO{IsActive: &inactive})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemProtected))
		})
	})

	Describe("FunctionTree", func() {
		It("nests children under their parents ordered by (order, name)", func() {
			repo.functions[1] = &navigationDatamodel.Function{ID: 1, Name: "Root", Code: "root", Order: 1, IsActive: true}
			repo.functions[2] = &navigationDatamodel.Function{ID: 2, Name: "B", Code: "b", ParentID: intPtr(1), Order: 2, IsActive: true}
			repo.functions[3] = &navigationDatamodel.Function{ID: 3, Name: "A", Code: "a", ParentID: intPtr(1), Order: 1, IsActive: true}

			tree, err := service.FunctionTree(ctx, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(tree).To(HaveLen(1))
			Expect(tree[0].Children).To(HaveLen(2))
			Expect(tree[0].Children[0].Name).To(Equal("A"))
			Expect(tree[0].Children[1].Name).To(Equal("B"))
		})
	})

	Describe("read operations", func() {
		It("serves list and retrieve without consulting the policy engine", func() {
			guard.deny = true
			repo.categories[1] = &navigationDatamodel.Category{ID: 1, Name: "Admin", Code: "admin", IsActive: true}
			repo.functions[1] = &navigationDatamodel.Function{ID: 1, Name: "Users", Code: "users", IsActive: true}

			_, err := service.ListCategories(ctx, actor, navigation.CategoryFilter{})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GetCategory(ctx, actor, 1)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ListFunctions(ctx, actor, navigation.FunctionFilter{})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GetFunction(ctx, actor, 1)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.FunctionTree(ctx, actor)
			Expect(err).NotTo(HaveOccurred())

			Expect(guard.callCount).To(BeZero())
		})
	})

	Describe("Reorder", func() {
		It("validates the kind", func() {
			err := service.Reorder(ctx, actor, navigation.ReorderDTO{Kind: "widgets", Items: []navigation.ReorderItem{{ID: 1, Order: 2}}})
			Expect(err).To(HaveOccurred())
		})

		It("applies function ordering updates", func() {
			err := service.Reorder(ctx, actor, navigation.ReorderDTO{
				Kind:  "functions",
				Items: []navigation.ReorderItem{{ID: 1, Order: 3}, {ID: 2, Order: 1}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.orderedTable).To(Equal("navigation_functions"))
			Expect(repo.updatedOrders).To(HaveKeyWithValue(int64(1), 3))
		})
	})

	Describe("BuildMenuFor", func() {
		It("renders the menu from resolved functions and active categories", func() {
			repo.categories[7] = &navigationDatamodel.Category{ID: 7, Name: "Admin", Code: "admin", IsActive: true, Order: 2}
			resolver.functions = []navigationDatamodel.Function{
				{ID: 1, Name: "Dashboard", Code: "dashboard", Order: 1, IsActive: true},
				{ID: 2, Name: "Users", Code: "users", CategoryID: intPtr(7), Order: 1, IsActive: true},
			}

			menu, err := service.BuildMenuFor(9)
			Expect(err).NotTo(HaveOccurred())
			Expect(menu).To(HaveLen(2))
			Expect(menu[0].Name).To(Equal("Dashboard"))
			Expect(menu[1].ID).To(Equal("cat_7"))
		})

		It("propagates resolver failures", func() {
			resolver.err = internal.NewInternalError("resolution failed", nil)
			_, err := service.BuildMenuFor(9)
			Expect(err).To(HaveOccurred())
		})
	})
})
