// Package services implements the business operations behind the HTTP API.
// Services return *utils.AppError for anything the client should see.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BerylCAtieno/lexdoc-api/internal/analyzer"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/payments"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/storage"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

// DefaultAnalyzeConcurrency bounds the LLM calls one case analysis runs at once.
const DefaultAnalyzeConcurrency = 3

type Settings struct {
	// InterestRateES is the Spanish legal interest rate in percent.
	InterestRateES decimal.Decimal
	// SMMLV is the Colombian monthly minimum wage, the unit of cuantía.
	SMMLV              decimal.Decimal
	AnalyzeConcurrency int
	// Now is the clock; tests pin it.
	Now func() time.Time
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type Dependencies struct {
	Repo     *repository.Repository
	Storage  storage.Storage
	Analyzer analyzer.Analyzer
	Payments payments.Provider
	Settings Settings
	Logger   *utils.Logger
}

type Services struct {
	Users     UserService
	Cases     CaseService
	Documents DocumentService
	Purchases PurchaseService
	Filings   FilingService
}

func New(deps Dependencies) *Services {
	if deps.Settings.AnalyzeConcurrency < 1 {
		deps.Settings.AnalyzeConcurrency = DefaultAnalyzeConcurrency
	}

	docs := &documentService{
		repo:     deps.Repo,
		storage:  deps.Storage,
		analyzer: deps.Analyzer,
		settings: deps.Settings,
		logger:   deps.Logger.With("service", "documents"),
	}
	return &Services{
		Users: &userService{repo: deps.Repo, logger: deps.Logger.With("service", "users")},
		Cases: &caseService{
			repo:     deps.Repo,
			storage:  deps.Storage,
			analyzer: deps.Analyzer,
			docs:     docs,
			settings: deps.Settings,
			logger:   deps.Logger.With("service", "cases"),
		},
		Documents: docs,
		Purchases: &purchaseService{
			repo:     deps.Repo,
			payments: deps.Payments,
			settings: deps.Settings,
			logger:   deps.Logger.With("service", "purchases"),
		},
		Filings: &filingService{
			repo:     deps.Repo,
			storage:  deps.Storage,
			analyzer: deps.Analyzer,
			settings: deps.Settings,
			logger:   deps.Logger.With("service", "filings"),
		},
	}
}

// validationError turns a request validation failure into a 400.
func validationError(err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return utils.NewBadRequestError(ve.Error())
	}
	return utils.NewBadRequestError(err.Error())
}

// loadCase fetches a case owned by userID or fails with 404.
func loadCase(ctx context.Context, repo *repository.Repository, logger *utils.Logger, id, userID string) (*models.Case, error) {
	c, err := repo.Cases.GetByID(ctx, id, userID)
	if err != nil {
		logger.Error("Failed to get case", "error", err, "case_id", id)
		return nil, utils.WrapInternal("Failed to retrieve case", err)
	}
	if c == nil {
		return nil, utils.NewNotFoundError("Case not found")
	}
	return c, nil
}
