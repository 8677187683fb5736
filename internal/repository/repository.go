package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id, userID string) (*models.Case, error)
	ListByUser(ctx context.Context, userID string) ([]models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	UpdateStatus(ctx context.Context, id string, status models.CaseStatus) error
	Delete(ctx context.Context, id, userID string) error
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id, userID string) (*models.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]models.Document, error)
	UpdateAnalysis(ctx context.Context, id string, facts *models.DocumentFacts) error
	Delete(ctx context.Context, id, userID string) error
}

type PurchaseRepository interface {
	Create(ctx context.Context, p *models.Purchase) error
	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error)
	FindForCase(ctx context.Context, caseID string, status models.PurchaseStatus) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]models.Purchase, error)
	SetSession(ctx context.Context, id, sessionID, checkoutURL string) error
	UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus, paidAt *time.Time) error
}

type FilingRepository interface {
	Create(ctx context.Context, f *models.Filing) error
	GetByID(ctx context.Context, id, userID string) (*models.Filing, error)
	ListByCase(ctx context.Context, caseID string) ([]models.Filing, error)
}

// Repository groups the per-collection repositories over one database.
type Repository struct {
	Users     UserRepository
	Cases     CaseRepository
	Documents DocumentRepository
	Purchases PurchaseRepository
	Filings   FilingRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Users:     &userRepository{db: db},
		Cases:     &caseRepository{db: db},
		Documents: &documentRepository{db: db},
		Purchases: &purchaseRepository{db: db},
		Filings:   &filingRepository{db: db},
	}
}

// getOne runs a single-row query, returning nil when nothing matches.
func getOne[T any](ctx context.Context, db *sqlx.DB, query string, args ...any) (*T, error) {
	var out T
	if err := db.GetContext(ctx, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}
