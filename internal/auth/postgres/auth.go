package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/commercia/access-management/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPasswordForEmail(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetPrincipal(userID int64) (*auth.Principal, error) {
	var principal auth.Principal
	query := `SELECT id, email, user_type, is_active, is_staff, is_superuser
	          FROM users WHERE id = ?`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&principal.ID, &principal.Email, &principal.UserType,
		&principal.IsActive, &principal.IsStaff, &principal.IsSuperuser); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &principal, nil
}

func (r *Repository) RecordLogin(userID int64, at time.Time) error {
	return r.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, at, userID).Error
}
