package user

import (
	"strings"
	"time"

	internal "github.com/commercia/access-management/internal"
)

type CreateDTO struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	City      string     `json:"city"`
	Country   string     `json:"country"`
	BirthDate *time.Time `json:"birth_date"`
	UserType  string     `json:"user_type"`
	IsStaff   bool       `json:"is_staff"`
	RoleIDs   []int64    `json:"role_ids"`
}

func (d CreateDTO) Validate() error {
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return internal.NewValidationFieldError("email", "a valid email is required", internal.ErrCodeValidationFailed)
	}
	if len(d.Password) < 8 {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

// AdminUpdateDTO is the full update surface available to administrators.
type AdminUpdateDTO struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Phone     *string    `json:"phone"`
	Address   *string    `json:"address"`
	City      *string    `json:"city"`
	Country   *string    `json:"country"`
	BirthDate *time.Time `json:"birth_date"`
	UserType  *string    `json:"user_type"`
	IsActive  *bool      `json:"is_active"`
	IsStaff   *bool      `json:"is_staff"`
	RoleIDs   *[]int64   `json:"role_ids"`
}

// ProfileUpdateDTO is what a user may change about themselves. Account flags
// and email are deliberately absent.
type ProfileUpdateDTO struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Phone     *string    `json:"phone"`
	Address   *string    `json:"address"`
	City      *string    `json:"city"`
	Country   *string    `json:"country"`
	BirthDate *time.Time `json:"birth_date"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (d ChangePasswordDTO) Validate() error {
	if d.CurrentPassword == "" {
		return internal.NewValidationFieldError("current_password", "current_password is required", internal.ErrCodeValidationFailed)
	}
	if len(d.NewPassword) < 8 {
		return internal.NewValidationFieldError("new_password", "new password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type Response struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	BirthDate   *time.Time `json:"birth_date"`
	UserType    string     `json:"user_type"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
