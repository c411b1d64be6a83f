package navigation

import (
	internal "github.com/commercia/access-management/internal"
)

type CreateCategoryDTO struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Order       int    `json:"order"`
}

func (d CreateCategoryDTO) Validate() error {
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if d.Code == "" {
		return internal.NewValidationFieldError("code", "code is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateCategoryDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"is_active"`
}

type CreateFunctionDTO struct {
	Name           string  `json:"name"`
	Code           string  `json:"code"`
	URL            *string `json:"url"`
	Icon           string  `json:"icon"`
	CategoryID     *int64  `json:"category_id"`
	PolicyResource string  `json:"policy_resource"`
	ParentID       *int64  `json:"parent_id"`
	Order          int     `json:"order"`
}

func (d CreateFunctionDTO) Validate() error {
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if d.Code == "" {
		return internal.NewValidationFieldError("code", "code is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateFunctionDTO struct {
	Name           *string `json:"name"`
	URL            *string `json:"url"`
	Icon           *string `json:"icon"`
	CategoryID     *int64  `json:"category_id"`
	ClearCategory  bool    `json:"clear_category"`
	PolicyResource *string `json:"policy_resource"`
	ParentID       *int64  `json:"parent_id"`
	ClearParent    bool    `json:"clear_parent"`
	Order          *int    `json:"order"`
	IsActive       *bool   `json:"is_active"`
}

// ReorderDTO updates menu ordering in bulk. Kind selects categories or
// functions.
type ReorderDTO struct {
	Kind  string        `json:"kind"`
	Items []ReorderItem `json:"items"`
}

type ReorderItem struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

func (d ReorderDTO) Validate() error {
	if d.Kind != "categories" && d.Kind != "functions" {
		return internal.NewValidationFieldError("kind", "kind must be categories or functions", internal.ErrCodeValidationFailed)
	}
	if len(d.Items) == 0 {
		return internal.NewValidationFieldError("items", "items must not be empty", internal.ErrCodeValidationFailed)
	}
	return nil
}
