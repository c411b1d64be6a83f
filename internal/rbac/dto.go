package rbac

import (
	"time"

	internal "github.com/commercia/access-management/internal"
)

type CreateRoleDTO struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	PolicyRole  string  `json:"policy_role"`
	Level       int     `json:"level"`
	FunctionIDs []int64 `json:"function_ids"`
}

func (d CreateRoleDTO) Validate() error {
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if d.Code == "" {
		return internal.NewValidationFieldError("code", "code is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateRoleDTO struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	PolicyRole  *string  `json:"policy_role"`
	Level       *int     `json:"level"`
	IsActive    *bool    `json:"is_active"`
	FunctionIDs *[]int64 `json:"function_ids"`
}

type AssignRoleDTO struct {
	UserID    int64      `json:"user_id"`
	RoleID    int64      `json:"role_id"`
	ScopeType *string    `json:"scope_type"`
	ScopeID   *int64     `json:"scope_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (d AssignRoleDTO) Validate() error {
	if d.UserID == 0 {
		return internal.NewValidationFieldError("user_id", "user_id is required", internal.ErrCodeValidationFailed)
	}
	if d.RoleID == 0 {
		return internal.NewValidationFieldError("role_id", "role_id is required", internal.ErrCodeValidationFailed)
	}
	if d.ScopeID != nil && d.ScopeType == nil {
		return internal.NewValidationFieldError("scope_type", "scope_type is required when scope_id is set", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RoleResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	PolicyRole  string    `json:"policy_role"`
	IsActive    bool      `json:"is_active"`
	IsSystem    bool      `json:"is_system"`
	Level       int       `json:"level"`
	FunctionIDs []int64   `json:"function_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RoleUserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

type AssignmentResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	RoleID     int64      `json:"role_id"`
	RoleName   string     `json:"role_name,omitempty"`
	RoleCode   string     `json:"role_code,omitempty"`
	ScopeType  *string    `json:"scope_type"`
	ScopeID    *int64     `json:"scope_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	AssignedBy *int64     `json:"assigned_by"`
	ExpiresAt  *time.Time `json:"expires_at"`
	IsActive   bool       `json:"is_active"`
}
