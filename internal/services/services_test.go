package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lexdoc-api/internal/analyzer"
	"github.com/BerylCAtieno/lexdoc-api/internal/db"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/payments"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/storage"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

var testNow = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

// fakeAnalyzer answers ExtractFacts by looking for a marker in the text.
type fakeAnalyzer struct {
	mu         sync.Mutex
	facts      map[string]*models.DocumentFacts
	extractErr map[string]error
	ocrText    string
	draft      *models.FilingDraft
	draftErr   error
	draftInput *analyzer.DraftInput
	opinion    *analyzer.TutelaOpinion
	opinionErr error
	calls      map[string]int
	delay      time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		facts:      map[string]*models.DocumentFacts{},
		extractErr: map[string]error{},
		calls:      map[string]int{},
	}
}

func (f *fakeAnalyzer) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeAnalyzer) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAnalyzer) ExtractFacts(ctx context.Context, text string) (*models.DocumentFacts, error) {
	f.record("extract")
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for marker, err := range f.extractErr {
		if strings.Contains(text, marker) {
			return nil, err
		}
	}
	for marker, facts := range f.facts {
		if strings.Contains(text, marker) {
			copied := *facts
			return &copied, nil
		}
	}
	return &models.DocumentFacts{Kind: models.KindOther, Summary: "sin datos"}, nil
}

func (f *fakeAnalyzer) OCRImage(_ context.Context, _ []byte, _ string) (string, error) {
	f.record("ocr")
	if f.ocrText == "" {
		return "", errors.New("ocr failed")
	}
	return f.ocrText, nil
}

func (f *fakeAnalyzer) DraftFiling(_ context.Context, in *analyzer.DraftInput) (*models.FilingDraft, error) {
	f.record("draft")
	f.mu.Lock()
	f.draftInput = in
	f.mu.Unlock()
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	return f.draft, nil
}

func (f *fakeAnalyzer) AssessTutela(_ context.Context, _ *analyzer.TutelaInput) (*analyzer.TutelaOpinion, error) {
	f.record("assess")
	if f.opinionErr != nil {
		return nil, f.opinionErr
	}
	return f.opinion, nil
}

type fakePayments struct {
	mu       sync.Mutex
	sessions []*payments.CheckoutRequest
	events   map[string]*payments.WebhookEvent
	err      error
}

func (f *fakePayments) CreateCheckout(_ context.Context, req *payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sessions = append(f.sessions, req)
	id := fmt.Sprintf("cs_test_%d", len(f.sessions))
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.stripe.com/c/pay/" + id}, nil
}

func (f *fakePayments) ParseWebhook(_ []byte, signature string) (*payments.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[signature]
	if !ok {
		return nil, fmt.Errorf("%w: no match", payments.ErrInvalidSignature)
	}
	return ev, nil
}

type harness struct {
	svc   *Services
	repo  *repository.Repository
	store *storage.MemoryStorage
	llm   *fakeAnalyzer
	pay   *fakePayments
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.db")
	require.NoError(t, db.RunMigrations(path))
	conn, err := db.NewSQLiteDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	h := &harness{
		repo:  repository.NewRepository(conn),
		store: storage.NewMemoryStorage(),
		llm:   newFakeAnalyzer(),
		pay:   &fakePayments{events: map[string]*payments.WebhookEvent{}},
	}
	h.svc = New(Dependencies{
		Repo:     h.repo,
		Storage:  h.store,
		Analyzer: h.llm,
		Payments: h.pay,
		Settings: Settings{
			InterestRateES:     decimal.RequireFromString("3.25"),
			SMMLV:              decimal.RequireFromString("1423500"),
			AnalyzeConcurrency: 2,
			Now:                func() time.Time { return testNow },
		},
		Logger: utils.NewNopLogger(),
	})
	return h
}

func (h *harness) user(t *testing.T, uid string) *models.Principal {
	t.Helper()
	p := &models.Principal{UID: uid, Email: uid + "@example.com"}
	_, err := h.svc.Users.EnsureUser(context.Background(), p)
	require.NoError(t, err)
	return p
}

func (h *harness) spanishCase(t *testing.T, userID string) *models.Case {
	t.Helper()
	c, err := h.svc.Cases.Create(context.Background(), userID, &models.CreateCaseRequest{
		TemplateKey: "es_reclamacion_cantidades",
		Title:       "Facturas impagadas Construcciones Norte",
		Claimant:    models.Party{Name: "Talleres Ruiz SL", IDNumber: "B47000000"},
		Respondent:  models.Party{Name: "Construcciones Norte SA"},
		Facts:       "Reparamos dos excavadoras y no nos han pagado.",
		City:        "Valladolid",
	})
	require.NoError(t, err)
	return c
}

func (h *harness) tutelaCase(t *testing.T, userID string) *models.Case {
	t.Helper()
	factsDate := testNow.AddDate(0, -1, 0)
	c, err := h.svc.Cases.Create(context.Background(), userID, &models.CreateCaseRequest{
		TemplateKey:    "co_accion_tutela",
		Title:          "Medicamento negado",
		Claimant:       models.Party{Name: "Ana Pérez", IDNumber: "52123456"},
		Respondent:     models.Party{Name: "EPS Salud Total"},
		Facts:          "La EPS negó la entrega del medicamento.",
		City:           "Medellín",
		RightsViolated: []string{"salud"},
		Petition:       "Ordenar la entrega del medicamento.",
		PriorRequest:   true,
		FactsDate:      &factsDate,
	})
	require.NoError(t, err)
	return c
}

func (h *harness) upload(t *testing.T, c *models.Case, filename, text string) *models.UploadResponse {
	t.Helper()
	resp, err := h.svc.Documents.Upload(context.Background(), &models.UploadRequest{
		CaseID:      c.ID,
		UserID:      c.UserID,
		File:        []byte(text),
		Filename:    filename,
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	return resp
}

func (h *harness) markPaid(t *testing.T, c *models.Case) {
	t.Helper()
	paidAt := testNow
	require.NoError(t, h.repo.Purchases.Create(context.Background(), &models.Purchase{
		ID: "pur-" + c.ID, UserID: c.UserID, CaseID: c.ID, TemplateKey: c.TemplateKey,
		Status: models.PurchasePaid, AmountCents: 4900, Currency: "eur",
		CreatedAt: testNow, UpdatedAt: testNow, PaidAt: &paidAt,
	}))
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, status, utils.StatusOf(err), err.Error())
}
