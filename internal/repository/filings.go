package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

type filingRepository struct {
	db *sqlx.DB
}

func (r *filingRepository) Create(ctx context.Context, f *models.Filing) error {
	query := `
		INSERT INTO filings (id, case_id, user_id, template_key, format, procedure, filename,
		                     file_size, s3_key, used_fallback, created_at)
		VALUES (:id, :case_id, :user_id, :template_key, :format, :procedure, :filename,
		        :file_size, :s3_key, :used_fallback, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, f)
	return err
}

func (r *filingRepository) GetByID(ctx context.Context, id, userID string) (*models.Filing, error) {
	return getOne[models.Filing](ctx, r.db, `SELECT * FROM filings WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *filingRepository) ListByCase(ctx context.Context, caseID string) ([]models.Filing, error) {
	filings := []models.Filing{}
	err := r.db.SelectContext(ctx, &filings, `SELECT * FROM filings WHERE case_id = ? ORDER BY created_at DESC`, caseID)
	return filings, err
}
