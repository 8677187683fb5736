package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/lexdoc-api/internal/analyzer"
	"github.com/BerylCAtieno/lexdoc-api/internal/legal"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/storage"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type CaseService interface {
	Create(ctx context.Context, userID string, req *models.CreateCaseRequest) (*models.Case, error)
	List(ctx context.Context, userID string) ([]models.Case, error)
	Get(ctx context.Context, id, userID string) (*models.Case, error)
	Update(ctx context.Context, id, userID string, req *models.UpdateCaseRequest) (*models.Case, error)
	Delete(ctx context.Context, id, userID string) error
	AnalyzeCase(ctx context.Context, id, userID string) (*models.CaseAnalysisResponse, error)
	Claim(ctx context.Context, id, userID string) (*models.ClaimResponse, error)
	AssessTutela(ctx context.Context, id, userID string) (*models.TutelaAssessment, error)
}

type caseService struct {
	repo     *repository.Repository
	storage  storage.Storage
	analyzer analyzer.Analyzer
	docs     *documentService
	settings Settings
	logger   *utils.Logger
}

func casePrefix(caseID string) string {
	return fmt.Sprintf("cases/%s/", caseID)
}

func (s *caseService) Create(ctx context.Context, userID string, req *models.CreateCaseRequest) (*models.Case, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	tmpl, ok := legal.LookupTemplate(req.TemplateKey)
	if !ok {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unknown template '%s'", req.TemplateKey))
	}

	now := s.settings.now()
	c := &models.Case{
		ID:             utils.GenerateID(),
		UserID:         userID,
		TemplateKey:    tmpl.Key,
		Jurisdiction:   tmpl.Jurisdiction,
		Title:          strings.TrimSpace(req.Title),
		Status:         models.CaseDraft,
		Claimant:       req.Claimant,
		Respondent:     req.Respondent,
		Facts:          req.Facts,
		City:           strings.TrimSpace(req.City),
		Currency:       tmpl.Jurisdiction.Currency(),
		RightsViolated: req.RightsViolated,
		Petition:       req.Petition,
		PriorRequest:   req.PriorRequest,
		FactsDate:      req.FactsDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Amount != nil {
		c.Amount = decimal.NewNullDecimal(*req.Amount)
	}
	if err := checkTemplateFields(tmpl, c); err != nil {
		return nil, err
	}

	if err := s.repo.Cases.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create case", "error", err, "user_id", userID)
		return nil, utils.WrapInternal("Failed to create case", err)
	}
	s.logger.Info("Case created", "id", c.ID, "template", c.TemplateKey, "user_id", userID)
	return c, nil
}

// checkTemplateFields enforces what each kind of filing cannot do without.
func checkTemplateFields(tmpl legal.Template, c *models.Case) error {
	if strings.TrimSpace(c.Respondent.Name) == "" {
		return utils.NewBadRequestError("respondent.name is required")
	}
	if tmpl.Kind == legal.KindTutela {
		if len(c.RightsViolated) == 0 {
			return utils.NewBadRequestError("rights_violated must name at least one fundamental right")
		}
		if c.Amount.Valid {
			return utils.NewBadRequestError("amount does not apply to a tutela")
		}
	}
	return nil
}

func (s *caseService) List(ctx context.Context, userID string) ([]models.Case, error) {
	cases, err := s.repo.Cases.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list cases", "error", err, "user_id", userID)
		return nil, utils.WrapInternal("Failed to list cases", err)
	}
	return cases, nil
}

func (s *caseService) Get(ctx context.Context, id, userID string) (*models.Case, error) {
	return loadCase(ctx, s.repo, s.logger, id, userID)
}

func (s *caseService) Update(ctx context.Context, id, userID string, req *models.UpdateCaseRequest) (*models.Case, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	tmpl, ok := legal.LookupTemplate(c.TemplateKey)
	if !ok {
		return nil, utils.NewInternalError("Case template is no longer available")
	}

	req.Apply(c)
	if err := checkTemplateFields(tmpl, c); err != nil {
		return nil, err
	}
	if err := s.repo.Cases.Update(ctx, c); err != nil {
		s.logger.Error("Failed to update case", "error", err, "id", id)
		return nil, utils.WrapInternal("Failed to update case", err)
	}
	return c, nil
}

// Delete removes the case, its rows through the foreign key cascade, and
// every stored upload and filing under the case prefix.
func (s *caseService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if err := s.storage.DeletePrefix(ctx, casePrefix(id)); err != nil {
		s.logger.Error("Failed to delete case files", "error", err, "id", id)
		return utils.WrapInternal("Failed to delete case files", err)
	}
	if err := s.repo.Cases.Delete(ctx, id, userID); err != nil {
		s.logger.Error("Failed to delete case", "error", err, "id", id)
		return utils.WrapInternal("Failed to delete case", err)
	}
	s.logger.Info("Case deleted", "id", id, "user_id", userID)
	return nil
}

// AnalyzeCase extracts facts from every document not analyzed yet, at most
// AnalyzeConcurrency at a time. One failing document does not stop the rest.
func (s *caseService) AnalyzeCase(ctx context.Context, id, userID string) (*models.CaseAnalysisResponse, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.Documents.ListByCase(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "case_id", id)
		return nil, utils.WrapInternal("Failed to list documents", err)
	}
	if len(docs) == 0 {
		return nil, utils.NewBadRequestError("The case has no documents to analyze")
	}

	resp := &models.CaseAnalysisResponse{CaseID: id, Analyzed: []models.AnalysisResponse{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.AnalyzeConcurrency)
	for i := range docs {
		doc := &docs[i]
		g.Go(func() error {
			result, err := s.docs.analyze(gctx, doc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Failed = append(resp.Failed, doc.ID)
				return nil
			}
			resp.Analyzed = append(resp.Analyzed, *result)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(resp.Analyzed, func(i, j int) bool { return resp.Analyzed[i].ID < resp.Analyzed[j].ID })
	sort.Strings(resp.Failed)

	tmpl, _ := legal.LookupTemplate(c.TemplateKey)
	if tmpl.Kind == legal.KindClaim {
		resp.Claim = s.computeClaim(c, docs)
	}

	if c.Status == models.CaseDraft && len(resp.Analyzed) > 0 {
		if err := s.repo.Cases.UpdateStatus(ctx, id, models.CaseAnalyzed); err != nil {
			s.logger.Error("Failed to update case status", "error", err, "id", id)
			return nil, utils.WrapInternal("Failed to update case", err)
		}
	}

	s.logger.Info("Case analyzed", "id", id, "analyzed", len(resp.Analyzed), "failed", len(resp.Failed))
	return resp, nil
}

func (s *caseService) computeClaim(c *models.Case, docs []models.Document) *models.ClaimSummary {
	return computeClaim(s.settings, c, docs)
}

// computeClaim applies legal interest only to Spanish claims; Colombian
// moratory interest depends on the contract and is left to the drafter.
func computeClaim(settings Settings, c *models.Case, docs []models.Document) *models.ClaimSummary {
	opts := legal.ClaimOptions{Now: settings.now()}
	if c.Jurisdiction == models.JurisdictionSpain {
		opts.InterestRate = settings.InterestRateES
	}
	return legal.ComputeClaim(c, docs, opts)
}

func (s *caseService) Claim(ctx context.Context, id, userID string) (*models.ClaimResponse, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	tmpl, ok := legal.LookupTemplate(c.TemplateKey)
	if !ok {
		return nil, utils.NewInternalError("Case template is no longer available")
	}
	if tmpl.Kind != legal.KindClaim {
		return nil, utils.NewBadRequestError("Only money claims have a claim summary")
	}

	docs, err := s.repo.Documents.ListByCase(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "case_id", id)
		return nil, utils.WrapInternal("Failed to list documents", err)
	}

	claim := s.computeClaim(c, docs)
	return &models.ClaimResponse{
		CaseID:    id,
		Claim:     claim,
		Procedure: legal.SelectProcedure(tmpl, claim, s.settings.SMMLV),
	}, nil
}

// AssessTutela scores the admissibility rules and asks the model for its view.
// When the model is unavailable the rule score stands alone.
func (s *caseService) AssessTutela(ctx context.Context, id, userID string) (*models.TutelaAssessment, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	tmpl, _ := legal.LookupTemplate(c.TemplateKey)
	if tmpl.Kind != legal.KindTutela {
		return nil, utils.NewBadRequestError("Success assessment is only available for acciones de tutela")
	}

	score, checks := legal.CheckTutela(c, s.settings.now())
	assessment := &models.TutelaAssessment{
		CaseID:      id,
		RuleScore:   score,
		Checks:      checks,
		Probability: score,
		Source:      "rules",
	}

	opinion, err := s.analyzer.AssessTutela(ctx, &analyzer.TutelaInput{Case: c, Checks: checks})
	if err != nil {
		s.logger.Warn("Tutela assessment fell back to rules", "error", err, "case_id", id)
		for _, ch := range checks {
			if ch.Passed {
				assessment.Strengths = append(assessment.Strengths, ch.Detail)
			} else {
				assessment.Weaknesses = append(assessment.Weaknesses, ch.Detail)
			}
		}
		assessment.Recommendation = ruleRecommendation(score)
		return assessment, nil
	}

	// A failed admissibility rule caps the model's estimate at the rule score.
	assessment.Probability = opinion.Probability
	if score < 100 && opinion.Probability > score {
		assessment.Probability = score
	}
	assessment.Strengths = opinion.Strengths
	assessment.Weaknesses = opinion.Weaknesses
	assessment.Recommendation = opinion.Recommendation
	assessment.Source = "llm"
	return assessment, nil
}

func ruleRecommendation(score int) string {
	switch {
	case score >= 80:
		return "La tutela cumple los requisitos de procedibilidad; puede presentarse."
	case score >= 50:
		return "Corrija los requisitos no cumplidos antes de presentar la tutela."
	default:
		return "La tutela probablemente sería declarada improcedente; valore otro mecanismo de defensa."
	}
}
