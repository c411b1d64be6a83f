package postgres

import (
	"errors"

	navigationDatamodel "github.com/commercia/access-management/internal/core/datamodel/navigation"
	"github.com/commercia/access-management/internal/navigation"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) navigation.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetAllCategories(filter navigation.CategoryFilter) ([]*navigationDatamodel.Category, error) {
	query := r.db.Order("menu_order ASC, name ASC")
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", pattern, pattern)
	}

	var categories []*navigationDatamodel.Category
	err := query.Find(&categories).Error
	return categories, err
}

func (r *Repository) GetActiveCategories() ([]*navigationDatamodel.Category, error) {
	var categories []*navigationDatamodel.Category
	err := r.db.Where("is_active = ?", true).Order("menu_order ASC, name ASC").Find(&categories).Error
	return categories, err
}

func (r *Repository) GetCategoryByID(id int64) (*navigationDatamodel.Category, error) {
	var category navigationDatamodel.Category
	err := r.db.Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *Repository) GetCategoryByCode(code string) (*navigationDatamodel.Category, error) {
	var category navigationDatamodel.Category
	err := r.db.Where("code = ?", code).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *Repository) CreateCategory(category *navigationDatamodel.Category) error {
	return r.db.Create(category).Error
}

func (r *Repository) UpdateCategory(category *navigationDatamodel.Category) error {
	return r.db.Save(category).Error
}

func (r *Repository) DeactivateCategory(id int64) error {
	return r.db.Model(&navigationDatamodel.Category{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *Repository) GetAllFunctions(filter navigation.FunctionFilter) ([]*navigationDatamodel.Function, error) {
	query := r.db.Order("menu_order ASC, name ASC")
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", pattern, pattern)
	}

	var functions []*navigationDatamodel.Function
	err := query.Find(&functions).Error
	return functions, err
}

func (r *Repository) GetFunctionByID(id int64) (*navigationDatamodel.Function, error) {
	var function navigationDatamodel.Function
	err := r.db.Where("id = ?", id).First(&function).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &function, nil
}

func (r *Repository) GetFunctionByCode(code string) (*navigationDatamodel.Function, error) {
	var function navigationDatamodel.Function
	err := r.db.Where("code = ?", code).First(&function).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &function, nil
}

func (r *Repository) CreateFunction(function *navigationDatamodel.Function) error {
	return r.db.Create(function).Error
}

func (r *Repository) UpdateFunction(function *navigationDatamodel.Function) error {
	return r.db.Save(function).Error
}

func (r *Repository) DeactivateFunction(id int64) error {
	return r.db.Model(&navigationDatamodel.Function{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *Repository) UpdateOrders(table string, orders map[int64]int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for id, order := range orders {
			if err := tx.Table(table).Where("id = ?", id).Update("menu_order", order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
