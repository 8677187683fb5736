package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/BerylCAtieno/lexdoc-api/internal/analyzer"
	"github.com/BerylCAtieno/lexdoc-api/internal/legal"
	"github.com/BerylCAtieno/lexdoc-api/internal/metrics"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/render"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/storage"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type FilingService interface {
	Generate(ctx context.Context, caseID, userID string, req *models.GenerateFilingRequest) (*models.Filing, error)
	List(ctx context.Context, caseID, userID string) ([]models.Filing, error)
	Download(ctx context.Context, id, userID string) (*models.Filing, []byte, error)
}

type filingService struct {
	repo     *repository.Repository
	storage  storage.Storage
	analyzer analyzer.Analyzer
	settings Settings
	logger   *utils.Logger
}

func filingKey(caseID, filingID string, format models.FilingFormat) string {
	return fmt.Sprintf("cases/%s/filings/%s.%s", caseID, filingID, format)
}

// Generate drafts, renders and stores a filing for a paid case. Any drafting
// error other than cancellation falls back to the template draft.
func (s *filingService) Generate(ctx context.Context, caseID, userID string, req *models.GenerateFilingRequest) (*models.Filing, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	c, err := loadCase(ctx, s.repo, s.logger, caseID, userID)
	if err != nil {
		return nil, err
	}
	tmpl, ok := legal.LookupTemplate(c.TemplateKey)
	if !ok {
		return nil, utils.NewInternalError("Case template is no longer available")
	}

	paid, err := s.repo.Purchases.FindForCase(ctx, caseID, models.PurchasePaid)
	if err != nil {
		s.logger.Error("Failed to look up purchases", "error", err, "case_id", caseID)
		return nil, utils.WrapInternal("Failed to look up purchases", err)
	}
	if paid == nil {
		return nil, utils.NewPaymentRequiredError("Purchase this filing before generating it")
	}

	docs, err := s.repo.Documents.ListByCase(ctx, caseID)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "case_id", caseID)
		return nil, utils.WrapInternal("Failed to list documents", err)
	}

	var claim *models.ClaimSummary
	if tmpl.Kind == legal.KindClaim {
		claim = computeClaim(s.settings, c, docs)
		if !claim.Total.IsPositive() {
			return nil, utils.NewBadRequestError("The claim amount is zero. Analyze the documents or set the amount on the case")
		}
	}
	procedure := legal.SelectProcedure(tmpl, claim, s.settings.SMMLV)
	signer := s.signer(ctx, userID, c)

	draft, err := s.analyzer.DraftFiling(ctx, &analyzer.DraftInput{
		Template:  tmpl,
		Case:      c,
		Claim:     claim,
		Procedure: procedure,
		Documents: docs,
		Signer:    signer,
	})
	usedFallback := false
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn("Drafting fell back to template", "error", err, "case_id", caseID)
		draft = render.Fallback(render.FallbackInput{
			Template:  tmpl,
			Case:      c,
			Claim:     claim,
			Procedure: procedure,
			Documents: docs,
			Signer:    signer,
			Now:       s.settings.now(),
		})
		usedFallback = true
	}

	var buf bytes.Buffer
	switch req.Format {
	case models.FormatDOCX:
		err = render.DOCX(&buf, draft)
	default:
		err = render.PDF(&buf, draft)
	}
	if err != nil {
		s.logger.Error("Failed to render filing", "error", err, "case_id", caseID, "format", req.Format)
		return nil, utils.WrapInternal("Failed to render filing", err)
	}

	now := s.settings.now()
	filing := &models.Filing{
		ID:           utils.GenerateID(),
		CaseID:       caseID,
		UserID:       userID,
		TemplateKey:  tmpl.Key,
		Format:       req.Format,
		Procedure:    string(procedure.Track),
		FileSize:     int64(buf.Len()),
		UsedFallback: usedFallback,
		CreatedAt:    now,
	}
	filing.Filename = fmt.Sprintf("%s-%s.%s", tmpl.Key, now.Format("20060102-150405"), req.Format)
	filing.S3Key = filingKey(caseID, filing.ID, req.Format)

	if err := s.storage.Upload(ctx, filing.S3Key, buf.Bytes(), req.Format.ContentType()); err != nil {
		s.logger.Error("Failed to upload filing", "error", err, "key", filing.S3Key)
		return nil, utils.WrapInternal("Failed to store filing", err)
	}
	if err := s.repo.Filings.Create(ctx, filing); err != nil {
		s.logger.Error("Failed to save filing", "error", err, "id", filing.ID)
		_ = s.storage.Delete(ctx, filing.S3Key)
		return nil, utils.WrapInternal("Failed to save filing", err)
	}
	if c.Status != models.CaseGenerated {
		if err := s.repo.Cases.UpdateStatus(ctx, caseID, models.CaseGenerated); err != nil {
			s.logger.Error("Failed to update case status", "error", err, "case_id", caseID)
			return nil, utils.WrapInternal("Failed to update case", err)
		}
	}

	metrics.FilingsGenerated.WithLabelValues(tmpl.Key, string(req.Format), strconv.FormatBool(usedFallback)).Inc()
	s.logger.Info("Filing generated",
		"id", filing.ID,
		"case_id", caseID,
		"procedure", filing.Procedure,
		"format", req.Format,
		"fallback", usedFallback,
		"size", filing.FileSize)
	return filing, nil
}

// signer is the name under which the filing is signed: the lawyer's with
// their bar number when a lawyer drafts it, otherwise the claimant's.
func (s *filingService) signer(ctx context.Context, userID string, c *models.Case) string {
	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load signer", "error", err, "user_id", userID)
	}
	if user == nil || user.Role != models.RoleLawyer || user.BarNumber == "" {
		return c.Claimant.Name
	}
	if c.Jurisdiction == models.JurisdictionColombia {
		return fmt.Sprintf("%s, T.P. nº %s", user.DisplayName, user.BarNumber)
	}
	return fmt.Sprintf("%s, colegiado nº %s", user.DisplayName, user.BarNumber)
}

func (s *filingService) List(ctx context.Context, caseID, userID string) ([]models.Filing, error) {
	if _, err := loadCase(ctx, s.repo, s.logger, caseID, userID); err != nil {
		return nil, err
	}
	filings, err := s.repo.Filings.ListByCase(ctx, caseID)
	if err != nil {
		s.logger.Error("Failed to list filings", "error", err, "case_id", caseID)
		return nil, utils.WrapInternal("Failed to list filings", err)
	}
	return filings, nil
}

func (s *filingService) Download(ctx context.Context, id, userID string) (*models.Filing, []byte, error) {
	filing, err := s.repo.Filings.GetByID(ctx, id, userID)
	if err != nil {
		s.logger.Error("Failed to get filing", "error", err, "id", id)
		return nil, nil, utils.WrapInternal("Failed to retrieve filing", err)
	}
	if filing == nil {
		return nil, nil, utils.NewNotFoundError("Filing not found")
	}

	data, err := s.storage.Download(ctx, filing.S3Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, utils.NewNotFoundError("Filing file is missing")
	}
	if err != nil {
		s.logger.Error("Failed to download filing", "error", err, "key", filing.S3Key)
		return nil, nil, utils.WrapInternal("Failed to download filing", err)
	}
	return filing, data, nil
}
