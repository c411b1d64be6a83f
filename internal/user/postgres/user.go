package postgres

import (
	"errors"

	userDatamodel "github.com/commercia/access-management/internal/core/datamodel/user"
	"github.com/commercia/access-management/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) user.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetAll(filter user.Filter) ([]*userDatamodel.User, error) {
	query := r.db.Order("email ASC")
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.UserType != "" {
		query = query.Where("user_type = ?", filter.UserType)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", pattern, pattern, pattern)
	}

	var users []*userDatamodel.User
	err := query.Find(&users).Error
	return users, err
}

func (r *Repository) GetByID(id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(u *userDatamodel.User) error {
	return r.db.Create(u).Error
}

func (r *Repository) Update(u *userDatamodel.User) error {
	return r.db.Save(u).Error
}

func (r *Repository) Deactivate(id int64) error {
	return r.db.Model(&userDatamodel.User{}).Where("id = ?", id).Update("is_active", false).Error
}
