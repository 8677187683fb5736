package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

type documentRepository struct {
	db *sqlx.DB
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, case_id, user_id, filename, file_size, content_type, s3_key,
		                       extracted_text, facts, created_at, updated_at, analyzed_at)
		VALUES (:id, :case_id, :user_id, :filename, :file_size, :content_type, :s3_key,
		        :extracted_text, :facts, :created_at, :updated_at, :analyzed_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, doc)
	return err
}

func (r *documentRepository) GetByID(ctx context.Context, id, userID string) (*models.Document, error) {
	return getOne[models.Document](ctx, r.db, `SELECT * FROM documents WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *documentRepository) ListByCase(ctx context.Context, caseID string) ([]models.Document, error) {
	docs := []models.Document{}
	err := r.db.SelectContext(ctx, &docs, `SELECT * FROM documents WHERE case_id = ? ORDER BY created_at`, caseID)
	return docs, err
}

func (r *documentRepository) UpdateAnalysis(ctx context.Context, id string, facts *models.DocumentFacts) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET facts = ?, analyzed_at = ?, updated_at = ? WHERE id = ?`,
		facts, now, now, id)
	return err
}

func (r *documentRepository) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
