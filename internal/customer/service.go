package customer

import (
	"context"
	"fmt"
	"log/slog"

	internal "github.com/commercia/access-management/internal"
	"github.com/commercia/access-management/internal/auth"
	"github.com/commercia/access-management/internal/authz"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type GuardAPI interface {
	Authorize(ctx context.Context, p *auth.Principal, resourceType, resourceID, action string, resourceAttr map[string]interface{}) error
	AuthorizeCreate(ctx context.Context, p *auth.Principal, resourceType string, resourceAttr map[string]interface{}) error
}

type Service struct {
	repo       RepositoryAPI
	userRepo   user.RepositoryAPI
	guard      GuardAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, userRepo user.RepositoryAPI, guard GuardAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		userRepo:   userRepo,
		guard:      guard,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// ListCustomers gives staff the full book; a customer user sees only their
// own record.
func (s *Service) ListCustomers(ctx context.Context, actor *auth.Principal, filter Filter) ([]Response, error) {
	if !authz.CanViewAll(actor) {
		own, err := s.repo.GetByUserID(actor.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to list customers", err)
		}
		if own == nil {
			return []Response{}, nil
		}
		return []Response{toResponse(own)}, nil
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceCustomer, "all", "list", nil); err != nil {
		return nil, err
	}

	customers, err := s.repo.GetAll(filter)
	if err != nil {
		s.logger.Error("failed to list customers", "error", err)
		return nil, internal.NewInternalError("failed to list customers", err)
	}

	responses := make([]Response, 0, len(customers))
	for _, c := range customers {
		responses = append(responses, toResponse(c))
	}
	return responses, nil
}

func (s *Service) GetCustomer(ctx context.Context, actor *auth.Principal, id int64) (*Response, error) {
	c, err := s.loadCustomer(id)
	if err != nil {
		return nil, err
	}

	if c.UserID != actor.ID {
		if err := s.guard.Authorize(ctx, actor, authz.ResourceCustomer, fmt.Sprintf("%d", id), "read", customerAttr(c)); err != nil {
			return nil, err
		}
	}

	resp := toResponse(c)
	return &resp, nil
}

// CreateCustomer creates the identity row and the customer row in one
// transaction. The customer code is generated from a zero-padded sequence.
func (s *Service) CreateCustomer(ctx context.Context, actor *auth.Principal, dto CreateDTO) (*Response, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeCreate(ctx, actor, authz.ResourceCustomer, nil); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(dto.Email); err != nil {
		return nil, internal.NewInternalError("failed to create customer", err)
	} else if existing != nil {
		return nil, internal.NewConflictError("A user with this email already exists", internal.ErrCodeDuplicateEmail)
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	code, err := s.nextCustomerCode()
	if err != nil {
		return nil, err
	}

	customerType := dto.CustomerType
	if customerType == "" {
		customerType = TypeIndividual
	}
	paymentTerms := dto.PaymentTerms
	if paymentTerms == 0 {
		paymentTerms = 30
	}

	u := &userDatamodel.User{
		Email:        dto.Email,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Phone:        dto.Phone,
		UserType:     user.TypeCustomer,
		IsActive:     true,
	}
	c := &userDatamodel.Customer{
		CustomerCode:       code,
		CustomerType:       customerType,
		TaxID:              dto.TaxID,
		CompanyName:        dto.CompanyName,
		ContactPerson:      dto.ContactPerson,
		CreditLimit:        dto.CreditLimit,
		PaymentTerms:       paymentTerms,
		DiscountPercentage: dto.DiscountPercentage,
		Notes:              dto.Notes,
		IsActiveCustomer:   true,
	}

	if err := s.repo.CreateWithUser(u, c); err != nil {
		s.logger.Error("failed to create customer", "email", dto.Email, "error", err)
		return nil, internal.NewInternalError("failed to create customer", err)
	}

	s.logger.Info("customer created", "customer_id", c.ID, "customer_code", c.CustomerCode, "created_by", actor.ID)
	c.User = *u
	resp := toResponse(c)
	return &resp, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, actor *auth.Principal, id int64, dto UpdateDTO) (*Response, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.loadCustomer(id)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceCustomer, fmt.Sprintf("%d", id), "update", customerAttr(c)); err != nil {
		return nil, err
	}

	if dto.CustomerType != nil {
		c.CustomerType = *dto.CustomerType
	}
	if dto.TaxID != nil {
		c.TaxID = *dto.TaxID
	}
	if dto.CompanyName != nil {
		c.CompanyName = *dto.CompanyName
	}
	if dto.ContactPerson != nil {
		c.ContactPerson = *dto.ContactPerson
	}
	if dto.CreditLimit != nil {
		c.CreditLimit = *dto.CreditLimit
	}
	if dto.PaymentTerms != nil {
		c.PaymentTerms = *dto.PaymentTerms
	}
	if dto.DiscountPercentage != nil {
		c.DiscountPercentage = *dto.DiscountPercentage
	}
	if dto.Notes != nil {
		c.Notes = *dto.Notes
	}
	if dto.IsActiveCustomer != nil {
		c.IsActiveCustomer = *dto.IsActiveCustomer
	}

	if err := s.repo.Update(c); err != nil {
		s.logger.Error("failed to update customer", "customer_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update customer", err)
	}

	s.logger.Info("customer updated", "customer_id", id, "updated_by", actor.ID)
	resp := toResponse(c)
	return &resp, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, actor *auth.Principal, id int64) error {
	c, err := s.loadCustomer(id)
	if err != nil {
		return err
	}

	if err := s.guard.Authorize(ctx, actor, authz.ResourceCustomer, fmt.Sprintf("%d", id), "delete", customerAttr(c)); err != nil {
		return err
	}

	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to delete customer", "customer_id", id, "error", err)
		return internal.NewInternalError("failed to delete customer", err)
	}

	s.logger.Info("customer deactivated", "customer_id", id, "deleted_by", actor.ID)
	return nil
}

// GetMyCustomer returns the commercial record attached to the caller.
func (s *Service) GetMyCustomer(ctx context.Context, actor *auth.Principal) (*Response, error) {
	c, err := s.repo.GetByUserID(actor.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load customer", err)
	}
	if c == nil {
		return nil, internal.ErrCustomerNotFound
	}
	resp := toResponse(c)
	return &resp, nil
}

func (s *Service) nextCustomerCode() (string, error) {
	count, err := s.repo.Count()
	if err != nil {
		return "", internal.NewInternalError("failed to generate customer code", err)
	}

	// The unique index on customer_code catches concurrent creations; walk
	// forward past any gap left by earlier races.
	for seq := count + 1; ; seq++ {
		code := fmt.Sprintf("%s%06d", CodePrefix, seq)
		existing, err := s.repo.GetByCode(code)
		if err != nil {
			return "", internal.NewInternalError("failed to generate customer code", err)
		}
		if existing == nil {
			return code, nil
		}
	}
}

func (s *Service) loadCustomer(id int64) (*userDatamodel.Customer, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to load customer", "customer_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load customer", err)
	}
	if c == nil {
		return nil, internal.ErrCustomerNotFound
	}
	return c, nil
}

func customerAttr(c *userDatamodel.Customer) map[string]interface{} {
	return map[string]interface{}{
		"customer_type": c.CustomerType,
		"owner_id":      c.UserID,
	}
}
