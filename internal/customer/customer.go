package customer

import (
	"context"
	"time"

	"github.com/commercia/access-management/internal/auth"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
)

// Customer types, matching the customer_type column.
const (
	TypeIndividual = "INDIVIDUAL"
	TypeCompany    = "COMPANY"
)

// CodePrefix starts every generated customer code; the suffix is a
// zero-padded sequence number.
const CodePrefix = "CLI"

type Filter struct {
	IsActive     *bool
	CustomerType string
	Search       string
}

type RepositoryAPI interface {
	GetAll(filter Filter) ([]*userDatamodel.Customer, error)
	GetByID(id int64) (*userDatamodel.Customer, error)
	GetByUserID(userID int64) (*userDatamodel.Customer, error)
	GetByCode(code string) (*userDatamodel.Customer, error)
	Count() (int64, error)
	Create(c *userDatamodel.Customer) error
	CreateWithUser(u *userDatamodel.User, c *userDatamodel.Customer) error
	Update(c *userDatamodel.Customer) error
	Deactivate(id int64) error
}

type ServiceAPI interface {
	ListCustomers(ctx context.Context, actor *auth.Principal, filter Filter) ([]Response, error)
	GetCustomer(ctx context.Context, actor *auth.Principal, id int64) (*Response, error)
	CreateCustomer(ctx context.Context, actor *auth.Principal, dto CreateDTO) (*Response, error)
	UpdateCustomer(ctx context.Context, actor *auth.Principal, id int64, dto UpdateDTO) (*Response, error)
	DeleteCustomer(ctx context.Context, actor *auth.Principal, id int64) error
	GetMyCustomer(ctx context.Context, actor *auth.Principal) (*Response, error)
}

type Response struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Email              string    `json:"email"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	CustomerCode       string    `json:"customer_code"`
	CustomerType       string    `json:"customer_type"`
	TaxID              string    `json:"tax_id"`
	CompanyName        string    `json:"company_name"`
	ContactPerson      string    `json:"contact_person"`
	CreditLimit        float64   `json:"credit_limit"`
	PaymentTerms       int       `json:"payment_terms"`
	DiscountPercentage float64   `json:"discount_percentage"`
	Notes              string    `json:"notes"`
	IsActiveCustomer   bool      `json:"is_active_customer"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toResponse(c *userDatamodel.Customer) Response {
	return Response{
		ID:                 c.ID,
		UserID:             c.UserID,
		Email:              c.User.Email,
		FirstName:          c.User.FirstName,
		LastName:           c.User.LastName,
		CustomerCode:       c.CustomerCode,
		CustomerType:       c.CustomerType,
		TaxID:              c.TaxID,
		CompanyName:        c.CompanyName,
		ContactPerson:      c.ContactPerson,
		CreditLimit:        c.CreditLimit,
		PaymentTerms:       c.PaymentTerms,
		DiscountPercentage: c.DiscountPercentage,
		Notes:              c.Notes,
		IsActiveCustomer:   c.IsActiveCustomer,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
