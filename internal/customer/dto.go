package customer

import (
	"strings"

	internal "github.com/commercia/access-management/internal"
)

type CreateDTO struct {
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Phone              string  `json:"phone"`
	CustomerType       string  `json:"customer_type"`
	TaxID              string  `json:"tax_id"`
	CompanyName        string  `json:"company_name"`
	ContactPerson      string  `json:"contact_person"`
	CreditLimit        float64 `json:"credit_limit"`
	PaymentTerms       int     `json:"payment_terms"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Notes              string  `json:"notes"`
}

func (d CreateDTO) Validate() error {
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return internal.NewValidationFieldError("email", "a valid email is required", internal.ErrCodeValidationFailed)
	}
	if len(d.Password) < 8 {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	if d.CustomerType == TypeCompany && d.CompanyName == "" {
		return internal.NewValidationFieldError("company_name", "company_name is required for company customers", internal.ErrCodeValidationFailed)
	}
	if d.CreditLimit < 0 {
		return internal.NewValidationFieldError("credit_limit", "credit_limit must not be negative", internal.ErrCodeValidationFailed)
	}
	if d.DiscountPercentage < 0 || d.DiscountPercentage > 100 {
		return internal.NewValidationFieldError("discount_percentage", "discount_percentage must be between 0 and 100", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateDTO struct {
	CustomerType       *string  `json:"customer_type"`
	TaxID              *string  `json:"tax_id"`
	CompanyName        *string  `json:"company_name"`
	ContactPerson      *string  `json:"contact_person"`
	CreditLimit        *float64 `json:"credit_limit"`
	PaymentTerms       *int     `json:"payment_terms"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	Notes              *string  `json:"notes"`
	IsActiveCustomer   *bool    `json:"is_active_customer"`
}

func (d UpdateDTO) Validate() error {
	if d.CreditLimit != nil && *d.CreditLimit < 0 {
		return internal.NewValidationFieldError("credit_limit", "credit_limit must not be negative", internal.ErrCodeValidationFailed)
	}
	if d.DiscountPercentage != nil && (*d.DiscountPercentage < 0 || *d.DiscountPercentage > 100) {
		return internal.NewValidationFieldError("discount_percentage", "discount_percentage must be between 0 and 100", internal.ErrCodeValidationFailed)
	}
	return nil
}
