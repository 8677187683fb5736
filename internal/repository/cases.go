package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

type caseRepository struct {
	db *sqlx.DB
}

func (r *caseRepository) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (id, user_id, template_key, jurisdiction, title, status, claimant, respondent,
		                   facts, city, amount, currency, rights_violated, petition, prior_request,
		                   facts_date, created_at, updated_at)
		VALUES (:id, :user_id, :template_key, :jurisdiction, :title, :status, :claimant, :respondent,
		        :facts, :city, :amount, :currency, :rights_violated, :petition, :prior_request,
		        :facts_date, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, c)
	return err
}

func (r *caseRepository) GetByID(ctx context.Context, id, userID string) (*models.Case, error) {
	return getOne[models.Case](ctx, r.db, `SELECT * FROM cases WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *caseRepository) ListByUser(ctx context.Context, userID string) ([]models.Case, error) {
	cases := []models.Case{}
	err := r.db.SelectContext(ctx, &cases, `SELECT * FROM cases WHERE user_id = ? ORDER BY created_at DESC`, userID)
	return cases, err
}

func (r *caseRepository) Update(ctx context.Context, c *models.Case) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE cases
		SET title = :title, status = :status, claimant = :claimant, respondent = :respondent,
		    facts = :facts, city = :city, amount = :amount, rights_violated = :rights_violated,
		    petition = :petition, prior_request = :prior_request, facts_date = :facts_date,
		    updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id
	`
	_, err := r.db.NamedExecContext(ctx, query, c)
	return err
}

func (r *caseRepository) UpdateStatus(ctx context.Context, id string, status models.CaseStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cases SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	return err
}

func (r *caseRepository) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
