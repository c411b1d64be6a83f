package postgres

import (
	"errors"

	"github.com/commercia/access-management/internal/customer"
	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) customer.RepositoryAPI {
	return &repository{db: db}
}

func (r *repository) GetAll(filter customer.Filter) ([]*userDatamodel.Customer, error) {
	var customers []*userDatamodel.Customer

	query := r.db.Preload("User").Joins("JOIN users ON users.id = customers.user_id")
	if filter.IsActive != nil {
		query = query.Where("customers.is_active_customer = ?", *filter.IsActive)
	}
	if filter.CustomerType != "" {
		query = query.Where("customers.customer_type = ?", filter.CustomerType)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"customers.customer_code LIKE ? OR customers.company_name LIKE ? OR users.email LIKE ?",
			pattern, pattern, pattern,
		)
	}

	if err := query.Order("customers.customer_code ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repository) GetByID(id int64) (*userDatamodel.Customer, error) {
	var c userDatamodel.Customer
	if err := r.db.Preload("User").First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByUserID(userID int64) (*userDatamodel.Customer, error) {
	var c userDatamodel.Customer
	if err := r.db.Preload("User").First(&c, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByCode(code string) (*userDatamodel.Customer, error) {
	var c userDatamodel.Customer
	if err := r.db.Preload("User").First(&c, "customer_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&userDatamodel.Customer{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Create(c *userDatamodel.Customer) error {
	return r.db.Create(c).Error
}

// CreateWithUser inserts the account row and the customer row in one
// transaction so a failed customer insert never leaves an orphan user.
func (r *repository) CreateWithUser(u *userDatamodel.User, c *userDatamodel.Customer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		c.UserID = u.ID
		return tx.Create(c).Error
	})
}

func (r *repository) Update(c *userDatamodel.Customer) error {
	return r.db.Omit("User").Save(c).Error
}

func (r *repository) Deactivate(id int64) error {
	result := r.db.Model(&userDatamodel.Customer{}).
		Where("id = ?", id).
		Update("is_active_customer", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
