package navigation_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
	"github.com/commercia/access-management/internal/navigation"
)

func TestNavigation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Navigation Suite")
}

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

var _ = Describe("BuildMenu", func() {
	It("returns an empty menu for no accessible functions", func() {
		menu := navigation.BuildMenu(nil, []*navigationDatamodel.Category{
			{ID: 1, Name: "Admin", IsActive: true, Order: 1},
		})
		Expect(menu).To(BeEmpty())
	})

	It("puts category-less functions at the root", func() {
		functions := []navigationDatamodel.Function{
			{ID: 1, Name: "Dashboard", Code: "dashboard", URL: strPtr("/dashboard"), Order: 1},
		}

		menu := navigation.BuildMenu(functions, nil)
		Expect(menu).To(HaveLen(1))
		Expect(menu[0].ID).To(Equal("1"))
		Expect(menu[0].IsCategory).To(BeFalse())
		Expect(*menu[0].URL).To(Equal("/dashboard"))
	})

	It("groups functions under their category with a cat_ prefixed id", func() {
		categories := []*navigationDatamodel.Category{
			{ID: 7, Name: "Admin", Code: "admin", IsActive: true, Order: 5},
		}
		functions := []navigationDatamodel.Function{
			{ID: 1, Name: "Users", Code: "users", CategoryID: intPtr(7), Order: 2},
			{ID: 2, Name: "Roles", Code: "roles", CategoryID: intPtr(7), Order: 1},
		}

		menu := navigation.BuildMenu(functions, categories)
		Expect(menu).To(HaveLen(1))
		Expect(menu[0].ID).To(Equal("cat_7"))
		Expect(menu[0].IsCategory).To(BeTrue())
		Expect(menu[0].Children).To(HaveLen(2))
		Expect(menu[0].Children[0].Name).To(Equal("Roles"))
		Expect(menu[0].Children[1].Name).To(Equal("Users"))
	})

	It("omits categories with no accessible functions", func() {
		categories := []*navigationDatamodel.Category{
			{ID: 7, Name: "Admin", IsActive: true, Order: 1},
			{ID: 8, Name: "Reports", IsActive: true, Order: 2},
		}
		functions := []navigationDatamodel.Function{
			{ID: 1, Name: "Users", CategoryID: intPtr(7), Order: 1},
		}

		menu := navigation.BuildMenu(functions, categories)
		Expect(menu).To(HaveLen(1))
		Expect(menu[0].ID).To(Equal("cat_7"))
	})

	It("omits inactive categories even when they have functions", func() {
		categories := []*navigationDatamodel.Category{
			{ID: 7, Name: "Admin", IsActive: false, Order: 1},
		}
		functions := []navigationDatamodel.Function{
			{ID: 1, Name: "Users", CategoryID: intPtr(7), Order: 1},
		}

		menu := navigation.BuildMenu(functions, categories)
		Expect(menu).To(BeEmpty())
	})

	It("interleaves root functions and categories by order value", func() {
		categories := []*navigationDatamodel.Category{
			{ID: 7, Name: "Admin", IsActive: true, Order: 2},
		}
		functions := []navigationDatamodel.Function{
			{ID: 1, Name: "Dashboard", Order: 1},
			{ID: 2, Name: "Settings", Order: 3},
			{ID: 3, Name: "Users", CategoryID: intPtr(7), Order: 1},
		}

		menu := navigation.BuildMenu(functions, categories)
		Expect(menu).To(HaveLen(3))
		Expect(menu[0].Name).To(Equal("Dashboard"))
		Expect(menu[1].ID).To(Equal("cat_7"))
		Expect(menu[2].Name).To(Equal("Settings"))
	})

	It("breaks order ties by name and keeps root functions before categories", func() {
		categories := []*navigationDatamodel.Category{
			{ID: 7, Name: "Admin", IsActive: true, Order: 1},
		}
		functions := []navigationDatamodel.Function{
			{ID: 1, Name: "Zeta", Order: 1},
			{ID: 2, Name: "Alpha", Order: 1},
			{ID: 3, Name: "Users", CategoryID: intPtr(7), Order: 1},
		}

		menu := navigation.BuildMenu(functions, categories)
		Expect(menu).To(HaveLen(3))
		Expect(menu[0].Name).To(Equal("Alpha"))
		Expect(menu[1].Name).To(Equal("Zeta"))
		Expect(menu[2].ID).To(Equal("cat_7"))
	})

	It("is deterministic regardless of input ordering", func() {
		categories := []*navigationDatamodel.Category{
			{ID: 7, Name: "Admin", IsActive: true, Order: 2},
			{ID: 8, Name: "Reports", IsActive: true, Order: 1},
		}
		functions := []navigationDatamodel.Function{
			{ID: 1, Name: "Dashboard", Order: 5},
			{ID: 2, Name: "Users", CategoryID: intPtr(7), Order: 1},
			{ID: 3, Name: "Sales", CategoryID: intPtr(8), Order: 1},
		}

		first := navigation.BuildMenu(functions, categories)

		reversedFunctions := []navigationDatamodel.Function{functions[2], functions[1], functions[0]}
		reversedCategories := []*navigationDatamodel.Category{categories[1], categories[0]}
		second := navigation.BuildMenu(reversedFunctions, reversedCategories)

		Expect(second).To(Equal(first))
	})
})
