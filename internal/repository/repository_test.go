package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lexdoc-api/internal/db"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, db.RunMigrations(path))
	conn, err := db.NewSQLiteDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn)
}

func seedUser(t *testing.T, repo *Repository, id string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{ID: id, Email: id + "@example.com", Role: models.RoleIndividual, Locale: "es-ES", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Users.Upsert(context.Background(), u))
	return u
}

func seedCase(t *testing.T, repo *Repository, userID string) *models.Case {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Case{
		ID:           "case-" + userID,
		UserID:       userID,
		TemplateKey:  "es_reclamacion_cantidades",
		Jurisdiction: models.JurisdictionSpain,
		Title:        "Facturas impagadas",
		Status:       models.CaseDraft,
		Claimant:     models.Party{Name: "Talleres Ruiz SL", IDNumber: "B12345678"},
		Respondent:   models.Party{Name: "Construcciones Norte SA"},
		Currency:     "EUR",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Cases.Create(context.Background(), c))
	return c
}

func TestUsers_UpsertKeepsProfile(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	u := seedUser(t, repo, "uid-1")

	u.DisplayName = "Lucía"
	u.Role = models.RoleLawyer
	u.BarNumber = "ICAM 12345"
	require.NoError(t, repo.Users.Update(ctx, u))

	again := &models.User{ID: "uid-1", Email: "new@example.com", Role: models.RoleIndividual, Locale: "es-ES", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, repo.Users.Upsert(ctx, again))

	got, err := repo.Users.GetByID(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "Lucía", got.DisplayName)
	assert.Equal(t, models.RoleLawyer, got.Role)

	missing, err := repo.Users.GetByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCases_RoundTripAndOwnership(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "owner")
	seedUser(t, repo, "intruder")
	c := seedCase(t, repo, "owner")

	factsDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c.Amount = decimal.NewNullDecimal(decimal.RequireFromString("1234.56"))
	c.RightsViolated = models.StringList{"salud"}
	c.PriorRequest = true
	c.FactsDate = &factsDate
	require.NoError(t, repo.Cases.Update(ctx, c))

	got, err := repo.Cases.GetByID(ctx, c.ID, "owner")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Talleres Ruiz SL", got.Claimant.Name)
	assert.Equal(t, "B12345678", got.Claimant.IDNumber)
	assert.True(t, got.Amount.Valid)
	assert.Equal(t, "1234.56", got.Amount.Decimal.String())
	assert.Equal(t, models.StringList{"salud"}, got.RightsViolated)
	assert.True(t, got.PriorRequest)
	require.NotNil(t, got.FactsDate)
	assert.True(t, factsDate.Equal(*got.FactsDate))

	other, err := repo.Cases.GetByID(ctx, c.ID, "intruder")
	require.NoError(t, err)
	assert.Nil(t, other)

	list, err := repo.Cases.ListByUser(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Cases.UpdateStatus(ctx, c.ID, models.CasePaid))
	got, err = repo.Cases.GetByID(ctx, c.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, models.CasePaid, got.Status)
}

func TestDocuments_AnalysisAndCascade(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "owner")
	c := seedCase(t, repo, "owner")

	now := time.Now().UTC()
	doc := &models.Document{
		ID: "doc-1", CaseID: c.ID, UserID: "owner", Filename: "factura.pdf", FileSize: 10,
		ContentType: "application/pdf", S3Key: "cases/x/doc-1/factura.pdf", ExtractedText: "FACTURA 1",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Documents.Create(ctx, doc))

	got, err := repo.Documents.GetByID(ctx, "doc-1", "owner")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Facts)
	assert.Nil(t, got.AnalyzedAt)

	facts := &models.DocumentFacts{
		Kind:   models.KindInvoice,
		Number: "F-1",
		Amount: decimal.NewNullDecimal(decimal.RequireFromString("99.90")),
	}
	require.NoError(t, repo.Documents.UpdateAnalysis(ctx, "doc-1", facts))

	docs, err := repo.Documents.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.NotNil(t, docs[0].Facts)
	assert.Equal(t, models.KindInvoice, docs[0].Facts.Kind)
	assert.Equal(t, "99.9", docs[0].Facts.Amount.Decimal.String())
	assert.NotNil(t, docs[0].AnalyzedAt)

	require.NoError(t, repo.Cases.Delete(ctx, c.ID, "owner"))
	docs, err = repo.Documents.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPurchases_Lifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "owner")
	c := seedCase(t, repo, "owner")

	now := time.Now().UTC()
	p := &models.Purchase{
		ID: "pur-1", UserID: "owner", CaseID: c.ID, TemplateKey: c.TemplateKey,
		Status: models.PurchasePending, AmountCents: 4900, Currency: "eur", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Purchases.Create(ctx, p))
	require.NoError(t, repo.Purchases.SetSession(ctx, "pur-1", "cs_test_1", "https://checkout.stripe.com/c/pay/cs_test_1"))

	got, err := repo.Purchases.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pur-1", got.ID)

	byID, err := repo.Purchases.GetByID(ctx, "pur-1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "cs_test_1", byID.StripeSessionID)

	missing, err := repo.Purchases.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	paid, err := repo.Purchases.FindForCase(ctx, c.ID, models.PurchasePaid)
	require.NoError(t, err)
	assert.Nil(t, paid)

	paidAt := time.Now().UTC()
	require.NoError(t, repo.Purchases.UpdateStatus(ctx, "pur-1", models.PurchasePaid, &paidAt))
	paid, err = repo.Purchases.FindForCase(ctx, c.ID, models.PurchasePaid)
	require.NoError(t, err)
	require.NotNil(t, paid)
	require.NotNil(t, paid.PaidAt)

	// A later status change without a timestamp keeps paid_at.
	require.NoError(t, repo.Purchases.UpdateStatus(ctx, "pur-1", models.PurchasePaid, nil))
	list, err := repo.Purchases.ListByUser(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].PaidAt)
}

func TestFilings_CreateAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "owner")
	c := seedCase(t, repo, "owner")

	f := &models.Filing{
		ID: "fil-1", CaseID: c.ID, UserID: "owner", TemplateKey: c.TemplateKey, Format: models.FormatPDF,
		Procedure: "monitorio", Filename: "monitorio.pdf", FileSize: 2048, S3Key: "filings/fil-1.pdf",
		UsedFallback: true, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Filings.Create(ctx, f))

	got, err := repo.Filings.GetByID(ctx, "fil-1", "owner")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.UsedFallback)
	assert.Equal(t, "filings/fil-1.pdf", got.S3Key)

	list, err := repo.Filings.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
