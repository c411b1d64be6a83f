package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	"github.com/commercia/access-management/internal/authz"
	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
)

type GuardAPI interface {
	Authorize(ctx context.Context, p *auth.Principal, resourceType, resourceID, action string, resourceAttr map[string]interface{}) error
	AuthorizeCreate(ctx context.Context, p *auth.Principal, resourceType string, resourceAttr map[string]interface{}) error
}

type Service struct {
	repo     RepositoryAPI
	resolver FunctionResolver
	guard    GuardAPI
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, resolver FunctionResolver, guard GuardAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		guard:    guard,
		logger:   logger,
	}
}

// Reads require authentication only; the policy engine is consulted for
// mutations, never for list or retrieve.
func (s *Service) ListCategories(ctx context.Context, actor *auth.Principal, filter CategoryFilter) ([]CategoryResponse, error) {
	categories, err := s.repo.GetAllCategories(filter)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		return nil, internal.NewInternalError("failed to list categories", err)
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		responses = append(responses, categoryResponse(c))
	}
	return responses, nil
}

func (s *Service) GetCategory(ctx context.Context, actor *auth.Principal, id int64) (*CategoryResponse, error) {
	category, err := s.loadCategory(id)
	if err != nil {
		return nil, err
	}

	resp := categoryResponse(category)
	return &resp, nil
}

func (s *Service) CreateCategory(ctx context.Context, actor *auth.Principal, dto CreateCategoryDTO) (*CategoryResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeCreate(ctx, actor, authz.ResourceCategory, nil); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetCategoryByCode(dto.Code); err != nil {
		return nil, internal.NewInternalError("failed to create category", err)
	} else if existing != nil {
		return nil, internal.NewConflictError("A category with this code already exists", internal.ErrCodeDuplicateCode)
	}

	category := &navigationDatamodel.Category{
		Name:        dto.Name,
		Code:        dto.Code,
		Description: dto.Description,
		Icon:        dto.Icon,
		Color:       dto.Color,
		Order:       dto.Order,
		IsActive:    true,
	}
	if category.Icon == "" {
		category.Icon = "fas fa-folder"
	}

	if err := s.repo.CreateCategory(category); err != nil {
		s.logger.Error("failed to create category", "code", dto.Code, "error", err)
		return nil, internal.NewInternalError("failed to create category", err)
	}

	s.logger.Info("category created", "category_id", category.ID, "code", category.Code, "created_by", actor.ID)
	resp := categoryResponse(category)
	return &resp, nil
}

func (s *Service) UpdateCategory(ctx context.Context, actor *auth.Principal, id int64, dto UpdateCategoryDTO) (*CategoryResponse, error) {
	category, err := s.loadCategory(id)
	if err != nil {
		return nil, err
	}

	if dto.IsActive != nil && !*dto.IsActive {
		if err := authz.EnsureMutableSystemEntity(category.IsSystem); err != nil {
			return nil, err
		}
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceCategory, fmt.Sprintf("%d", id), "update", systemAttr(category.IsSystem)); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		category.Name = *dto.Name
	}
	if dto.Description != nil {
		category.Description = *dto.Description
	}
	if dto.Icon != nil {
		category.Icon = *dto.Icon
	}
	if dto.Color != nil {
		category.Color = *dto.Color
	}
	if dto.Order != nil {
		category.Order = *dto.Order
	}
	if dto.IsActive != nil {
		category.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdateCategory(category); err != nil {
		s.logger.Error("failed to update category", "category_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update category", err)
	}

	resp := categoryResponse(category)
	return &resp, nil
}

func (s *Service) DeleteCategory(ctx context.Context, actor *auth.Principal, id int64) error {
	category, err := s.loadCategory(id)
	if err != nil {
		return err
	}

	if err := authz.EnsureMutableSystemEntity(category.IsSystem); err != nil {
		return err
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceCategory, fmt.Sprintf("%d", id), "delete", systemAttr(category.IsSystem)); err != nil {
		return err
	}

	if err := s.repo.DeactivateCategory(id); err != nil {
		s.logger.Error("failed to delete category", "category_id", id, "error", err)
		return internal.NewInternalError("failed to delete category", err)
	}

	s.logger.Info("category deactivated", "category_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *Service) ListFunctions(ctx context.Context, actor *auth.Principal, filter FunctionFilter) ([]FunctionResponse, error) {
	functions, err := s.repo.GetAllFunctions(filter)
	if err != nil {
		s.logger.Error("failed to list functions", "error", err)
		return nil, internal.NewInternalError("failed to list functions", err)
	}

	responses := make([]FunctionResponse, 0, len(functions))
	for _, f := range functions {
		responses = append(responses, functionResponse(f))
	}
	return responses, nil
}

func (s *Service) GetFunction(ctx context.Context, actor *auth.Principal, id int64) (*FunctionResponse, error) {
	function, err := s.loadFunction(id)
	if err != nil {
		return nil, err
	}

	resp := functionResponse(function)
	return &resp, nil
}

func (s *Service) CreateFunction(ctx context.Context, actor *auth.Principal, dto CreateFunctionDTO) (*FunctionResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeCreate(ctx, actor, authz.ResourceFunction, nil); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetFunctionByCode(dto.Code); err != nil {
		return nil, internal.NewInternalError("failed to create function", err)
	} else if existing != nil {
		return nil, internal.NewConflictError("A function with this code already exists", internal.ErrCodeDuplicateCode)
	}

	if dto.CategoryID != nil {
		if _, err := s.loadCategory(*dto.CategoryID); err != nil {
			return nil, err
		}
	}
	if dto.ParentID != nil {
		if _, err := s.loadFunction(*dto.ParentID); err != nil {
			return nil, err
		}
	}

	function := &navigationDatamodel.Function{
		Name:           dto.Name,
		Code:           dto.Code,
		URL:            dto.URL,
		Icon:           dto.Icon,
		CategoryID:     dto.CategoryID,
		PolicyResource: dto.PolicyResource,
		ParentID:       dto.ParentID,
		Order:          dto.Order,
		IsActive:       true,
	}
	if function.Icon == "" {
		function.Icon = "fas fa-circle"
	}

	if err := s.repo.CreateFunction(function); err != nil {
		s.logger.Error("failed to create function", "code", dto.Code, "error", err)
		return nil, internal.NewInternalError("failed to create function", err)
	}

	s.logger.Info("function created", "function_id", function.ID, "code", function.Code, "created_by", actor.ID)
	resp := functionResponse(function)
	return &resp, nil
}

func (s *Service) UpdateFunction(ctx context.Context, actor *auth.Principal, id int64, dto UpdateFunctionDTO) (*FunctionResponse, error) {
	function, err := s.loadFunction(id)
	if err != nil {
		return nil, err
	}

	if dto.IsActive != nil && !*dto.IsActive {
		if err := authz.EnsureMutableSystemEntity(function.IsSystem); err != nil {
			return nil, err
		}
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceFunction, fmt.Sprintf("%d", id), "update", systemAttr(function.IsSystem)); err != nil {
		return nil, err
	}

	if dto.ParentID != nil {
		if err := s.checkParentCycle(id, *dto.ParentID); err != nil {
			return nil, err
		}
		function.ParentID = dto.ParentID
	}
	if dto.ClearParent {
		function.ParentID = nil
	}

	if dto.CategoryID != nil {
		if _, err := s.loadCategory(*dto.CategoryID); err != nil {
			return nil, err
		}
		function.CategoryID = dto.CategoryID
	}
	if dto.ClearCategory {
		function.CategoryID = nil
	}

	if dto.Name != nil {
		function.Name = *dto.Name
	}
	if dto.URL != nil {
		function.URL = dto.URL
	}
	if dto.Icon != nil {
		function.Icon = *dto.Icon
	}
	if dto.PolicyResource != nil {
		function.PolicyResource = *dto.PolicyResource
	}
	if dto.Order != nil {
		function.Order = *dto.Order
	}
	if dto.IsActive != nil {
		function.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdateFunction(function); err != nil {
		s.logger.Error("failed to update function", "function_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update function", err)
	}

	resp := functionResponse(function)
	return &resp, nil
}

func (s *Service) DeleteFunction(ctx context.Context, actor *auth.Principal, id int64) error {
	function, err := s.loadFunction(id)
	if err != nil {
		return err
	}

	if err := authz.EnsureMutableSystemEntity(function.IsSystem); err != nil {
		return err
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceFunction, fmt.Sprintf("%d", id), "delete", systemAttr(function.IsSystem)); err != nil {
		return err
	}

	if err := s.repo.DeactivateFunction(id); err != nil {
		s.logger.Error("failed to delete function", "function_id", id, "error", err)
		return internal.NewInternalError("failed to delete function", err)
	}

	s.logger.Info("function deactivated", "function_id", id, "deleted_by", actor.ID)
	return nil
}

// FunctionTree returns the full function forest for administration screens.
func (s *Service) FunctionTree(ctx context.Context, actor *auth.Principal) ([]FunctionTreeNode, error) {
	functions, err := s.repo.GetAllFunctions(FunctionFilter{})
	if err != nil {
		s.logger.Error("failed to load function tree", "error", err)
		return nil, internal.NewInternalError("failed to load function tree", err)
	}

	children := make(map[int64][]*navigationDatamodel.Function)
	var roots []*navigationDatamodel.Function
	for _, f := range functions {
		if f.ParentID == nil {
			roots = append(roots, f)
		} else {
			children[*f.ParentID] = append(children[*f.ParentID], f)
		}
	}

	var build func(nodes []*navigationDatamodel.Function) []FunctionTreeNode
	build = func(nodes []*navigationDatamodel.Function) []FunctionTreeNode {
		sort.SliceStable(nodes, func(i, j int) bool {
			if nodes[i].Order != nodes[j].Order {
				return nodes[i].Order < nodes[j].Order
			}
			return nodes[i].Name < nodes[j].Name
		})
		out := make([]FunctionTreeNode, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, FunctionTreeNode{
				FunctionResponse: functionResponse(n),
				Children:         build(children[n.ID]),
			})
		}
		return out
	}

	return build(roots), nil
}

func (s *Service) Reorder(ctx context.Context, actor *auth.Principal, dto ReorderDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	resource := authz.ResourceCategory
	table := navigationDatamodel.Category{}.TableName()
	if dto.Kind == "functions" {
		resource = authz.ResourceFunction
		table = navigationDatamodel.Function{}.TableName()
	}

	if err := s.guard.Authorize(ctx, actor, resource, "all", "update", nil); err != nil {
		return err
	}

	orders := make(map[int64]int, len(dto.Items))
	for _, item := range dto.Items {
		orders[item.ID] = item.Order
	}

	if err := s.repo.UpdateOrders(table, orders); err != nil {
		s.logger.Error("failed to reorder", "kind", dto.Kind, "error", err)
		return internal.NewInternalError("failed to reorder menu entries", err)
	}

	s.logger.Info("menu reordered", "kind", dto.Kind, "count", len(dto.Items), "updated_by", actor.ID)
	return nil
}

// BuildMenuFor renders the menu for one user from their resolved functions
// and the active categories.
func (s *Service) BuildMenuFor(userID int64) ([]MenuNode, error) {
	functions, err := s.resolver.ResolveFunctions(userID)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.GetActiveCategories()
	if err != nil {
		s.logger.Error("failed to load menu categories", "error", err)
		return nil, internal.NewInternalError("failed to build menu", err)
	}

	return BuildMenu(functions, categories), nil
}

// checkParentCycle rejects a parent change that would make the function its
// own ancestor. Walks the parent chain from the proposed parent upward.
func (s *Service) checkParentCycle(functionID, parentID int64) error {
	current := parentID
	for {
		if current == functionID {
			return internal.ErrCircularParent
		}
		parent, err := s.repo.GetFunctionByID(current)
		if err != nil {
			return internal.NewInternalError("failed to validate parent", err)
		}
		if parent == nil {
			return internal.ErrFunctionNotFound
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
}

func (s *Service) loadCategory(id int64) (*navigationDatamodel.Category, error) {
	category, err := s.repo.GetCategoryByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load category", err)
	}
	if category == nil {
		return nil, internal.ErrCategoryNotFound
	}
	return category, nil
}

func (s *Service) loadFunction(id int64) (*navigationDatamodel.Function, error) {
	function, err := s.repo.GetFunctionByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load function", err)
	}
	if function == nil {
		return nil, internal.ErrFunctionNotFound
	}
	return function, nil
}

func systemAttr(isSystem bool) map[string]interface{} {
	return map[string]interface{}{"is_system": isSystem}
}
