package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

type userRepository struct {
	db *sqlx.DB
}

// Upsert inserts the user or refreshes the email of an existing one. Profile
// fields edited by the user are never overwritten.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, display_name, role, bar_number, locale, created_at, updated_at)
		VALUES (:id, :email, :display_name, :role, :bar_number, :locale, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END
	`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return getOne[models.User](ctx, r.db, `SELECT * FROM users WHERE id = ?`, id)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE users
		SET display_name = :display_name, role = :role, bar_number = :bar_number,
		    locale = :locale, updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}
