package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

type purchaseRepository struct {
	db *sqlx.DB
}

func (r *purchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	query := `
		INSERT INTO purchases (id, user_id, case_id, template_key, stripe_session_id, checkout_url,
		                       status, amount_cents, currency, created_at, updated_at, paid_at)
		VALUES (:id, :user_id, :case_id, :template_key, :stripe_session_id, :checkout_url,
		        :status, :amount_cents, :currency, :created_at, :updated_at, :paid_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *purchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	return getOne[models.Purchase](ctx, r.db, `SELECT * FROM purchases WHERE id = ?`, id)
}

func (r *purchaseRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	return getOne[models.Purchase](ctx, r.db, `SELECT * FROM purchases WHERE stripe_session_id = ?`, sessionID)
}

// FindForCase returns the most recent purchase of the case in the given status.
func (r *purchaseRepository) FindForCase(ctx context.Context, caseID string, status models.PurchaseStatus) (*models.Purchase, error) {
	return getOne[models.Purchase](ctx, r.db,
		`SELECT * FROM purchases WHERE case_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		caseID, status)
}

func (r *purchaseRepository) ListByUser(ctx context.Context, userID string) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	err := r.db.SelectContext(ctx, &purchases, `SELECT * FROM purchases WHERE user_id = ? ORDER BY created_at DESC`, userID)
	return purchases, err
}

func (r *purchaseRepository) SetSession(ctx context.Context, id, sessionID, checkoutURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET stripe_session_id = ?, checkout_url = ?, updated_at = ? WHERE id = ?`,
		sessionID, checkoutURL, time.Now().UTC(), id)
	return err
}

func (r *purchaseRepository) UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus, paidAt *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET status = ?, paid_at = COALESCE(?, paid_at), updated_at = ? WHERE id = ?`,
		status, paidAt, time.Now().UTC(), id)
	return err
}
