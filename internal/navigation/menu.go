package navigation

import (
	"sort"
	"strconv"

	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
)

// MenuNode is one entry of the rendered sidebar menu. Category nodes carry a
// "cat_" prefixed id and their accessible functions as children; function
// nodes are leaves.
type MenuNode struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Code       string     `json:"code"`
	URL        *string    `json:"url,omitempty"`
	Icon       string     `json:"icon"`
	Color      string     `json:"color,omitempty"`
	Order      int        `json:"order"`
	IsCategory bool       `json:"is_category,omitempty"`
	Children   []MenuNode `json:"children,omitempty"`
}

// BuildMenu assembles the menu tree from the functions a user can access and
// the active categories. The output is fully determined by its inputs:
//
//  1. Functions without a category become root-level leaves, ordered by
//     (order, name).
//  2. Each active category, ordered by (order, name), groups its accessible
//     functions as children, again ordered by (order, name). Categories with
//     no accessible functions are omitted entirely.
//  3. Root leaves and category nodes are then merged into one sequence
//     ordered by each node's own order value; the sort is stable, so equal
//     orders keep the functions-then-categories arrangement.
func BuildMenu(functions []navigationDatamodel.Function, categories []*navigationDatamodel.Category) []MenuNode {
	var rootFunctions []navigationDatamodel.Function
	byCategory := make(map[int64][]navigationDatamodel.Function)

	for _, f := range functions {
		if f.CategoryID == nil {
			rootFunctions = append(rootFunctions, f)
		} else {
			byCategory[*f.CategoryID] = append(byCategory[*f.CategoryID], f)
		}
	}

	sortFunctions(rootFunctions)

	menu := make([]MenuNode, 0, len(rootFunctions)+len(categories))
	for _, f := range rootFunctions {
		menu = append(menu, functionNode(f))
	}

	sorted := make([]*navigationDatamodel.Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].Name < sorted[j].Name
	})

	for _, c := range sorted {
		if !c.IsActive {
			continue
		}
		children := byCategory[c.ID]
		if len(children) == 0 {
			continue
		}
		sortFunctions(children)

		childNodes := make([]MenuNode, 0, len(children))
		for _, f := range children {
			childNodes = append(childNodes, functionNode(f))
		}

		menu = append(menu, MenuNode{
			ID:         "cat_" + strconv.FormatInt(c.ID, 10),
			Name:       c.Name,
			Code:       c.Code,
			Icon:       c.Icon,
			Color:      c.Color,
			Order:      c.Order,
			IsCategory: true,
			Children:   childNodes,
		})
	}

	sort.SliceStable(menu, func(i, j int) bool {
		return menu[i].Order < menu[j].Order
	})

	return menu
}

func sortFunctions(functions []navigationDatamodel.Function) {
	sort.SliceStable(functions, func(i, j int) bool {
		if functions[i].Order != functions[j].Order {
			return functions[i].Order < functions[j].Order
		}
		return functions[i].Name < functions[j].Name
	})
}

func functionNode(f navigationDatamodel.Function) MenuNode {
	return MenuNode{
		ID:    strconv.FormatInt(f.ID, 10),
		Name:  f.Name,
		Code:  f.Code,
		URL:   f.URL,
		Icon:  f.Icon,
		Order: f.Order,
	}
}
