// Package analyzer talks to an OpenAI-compatible chat completion API to read
// supporting documents, draft filings and assess tutelas.
package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BerylCAtieno/lexdoc-api/internal/legal"
	"github.com/BerylCAtieno/lexdoc-api/internal/metrics"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

// MaxDocumentChars bounds the document text sent for fact extraction.
const MaxDocumentChars = 12000

type Analyzer interface {
	ExtractFacts(ctx context.Context, text string) (*models.DocumentFacts, error)
	OCRImage(ctx context.Context, data []byte, contentType string) (string, error)
	DraftFiling(ctx context.Context, in *DraftInput) (*models.FilingDraft, error)
	AssessTutela(ctx context.Context, in *TutelaInput) (*TutelaOpinion, error)
}

type DraftInput struct {
	Template  legal.Template
	Case      *models.Case
	Claim     *models.ClaimSummary
	Procedure *models.Procedure
	Documents []models.Document
	Signer    string
}

type TutelaInput struct {
	Case   *models.Case
	Checks []models.TutelaCheck
}

// TutelaOpinion is the model's view of a tutela's chances.
type TutelaOpinion struct {
	Probability    int      `json:"probability"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Recommendation string   `json:"recommendation"`
}

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     time.Duration
	Retry       RetryConfig
	// Referer and Title identify the app to OpenRouter.
	Referer string
	Title   string
}

type openAIAnalyzer struct {
	client      *openai.Client
	model       string
	visionModel string
	retry       RetryConfig
	prompts     *Prompts
	logger      *utils.Logger
}

func NewOpenAIAnalyzer(opts Options, logger *utils.Logger) (Analyzer, error) {
	prompts, err := LoadPrompts(nil)
	if err != nil {
		return nil, err
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{referer: opts.Referer, title: opts.Title, base: http.DefaultTransport},
	}

	retry := opts.Retry
	if retry.MaxAttempts < 1 {
		retry = DefaultRetryConfig()
	}
	vision := opts.VisionModel
	if vision == "" {
		vision = opts.Model
	}

	return &openAIAnalyzer{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		visionModel: vision,
		retry:       retry,
		prompts:     prompts,
		logger:      logger,
	}, nil
}

type headerTransport struct {
	referer string
	title   string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer == "" && t.title == "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}

type factsPayload struct {
	DocumentType string          `json:"document_type"`
	Number       string          `json:"number"`
	IssueDate    string          `json:"issue_date"`
	DueDate      string          `json:"due_date"`
	Amount       json.RawMessage `json:"amount"`
	Currency     string          `json:"currency"`
	Issuer       string          `json:"issuer"`
	Recipient    string          `json:"recipient"`
	Summary      string          `json:"summary"`
}

func (a *openAIAnalyzer) ExtractFacts(ctx context.Context, text string) (*models.DocumentFacts, error) {
	prompt, err := a.prompts.Render("extract_facts", map[string]any{"Text": truncate(text, MaxDocumentChars)})
	if err != nil {
		return nil, err
	}

	var payload factsPayload
	if err := a.completeJSON(ctx, "extract_facts", a.textRequest(prompt), &payload); err != nil {
		return nil, err
	}

	facts := &models.DocumentFacts{
		Kind:      models.NormalizeKind(strings.ToLower(strings.TrimSpace(payload.DocumentType))),
		Number:    strings.TrimSpace(payload.Number),
		IssueDate: isoDate(payload.IssueDate),
		DueDate:   isoDate(payload.DueDate),
		Amount:    parseAmount(payload.Amount),
		Currency:  strings.ToUpper(strings.TrimSpace(payload.Currency)),
		Issuer:    strings.TrimSpace(payload.Issuer),
		Recipient: strings.TrimSpace(payload.Recipient),
		Summary:   strings.TrimSpace(payload.Summary),
	}
	return facts, nil
}

func (a *openAIAnalyzer) OCRImage(ctx context.Context, data []byte, contentType string) (string, error) {
	prompt, err := a.prompts.Render("ocr_image", nil)
	if err != nil {
		return "", err
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	req := openai.ChatCompletionRequest{
		Model: a.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.prompts.System()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := a.completeJSON(ctx, "ocr_image", req, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.Text), nil
}

func (a *openAIAnalyzer) DraftFiling(ctx context.Context, in *DraftInput) (*models.FilingDraft, error) {
	name := "draft_" + in.Template.Key
	data := map[string]any{
		"Case":      in.Case,
		"Claim":     in.Claim,
		"Procedure": in.Procedure,
		"Documents": describeDocuments(in.Documents),
		"Rights":    legal.RecognizedRights(in.Case.RightsViolated),
		"Signer":    in.Signer,
	}
	prompt, err := a.prompts.Render(name, data)
	if err != nil {
		return nil, err
	}

	req := a.textRequest(prompt)
	req.Temperature = 0.3

	var draft models.FilingDraft
	if err := a.completeJSON(ctx, "draft_filing", req, &draft); err != nil {
		return nil, err
	}
	if len(draft.Sections) == 0 {
		return nil, fmt.Errorf("%w: draft has no sections", ErrInvalidResponse)
	}
	return &draft, nil
}

func (a *openAIAnalyzer) AssessTutela(ctx context.Context, in *TutelaInput) (*TutelaOpinion, error) {
	prompt, err := a.prompts.Render("assess_tutela", map[string]any{
		"Case":   in.Case,
		"Checks": in.Checks,
		"Rights": legal.RecognizedRights(in.Case.RightsViolated),
	})
	if err != nil {
		return nil, err
	}

	var opinion TutelaOpinion
	if err := a.completeJSON(ctx, "assess_tutela", a.textRequest(prompt), &opinion); err != nil {
		return nil, err
	}
	opinion.Probability = max(0, min(100, opinion.Probability))
	return &opinion, nil
}

func (a *openAIAnalyzer) textRequest(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.prompts.System()},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	}
}

// completeJSON sends req, retrying transient failures, and decodes the JSON
// object in the reply into out.
func (a *openAIAnalyzer) completeJSON(ctx context.Context, op string, req openai.ChatCompletionRequest, out any) error {
	start := time.Now()
	defer func() {
		metrics.LLMDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 1; attempt <= a.retry.MaxAttempts; attempt++ {
		resp, err = a.client.CreateChatCompletion(ctx, req)
		err = classify(err)
		if err == nil || !IsTransient(err) || attempt == a.retry.MaxAttempts {
			break
		}

		wait := a.retry.backoff(attempt)
		metrics.LLMRequests.WithLabelValues(op, "retry").Inc()
		a.logger.Warn("LLM call failed, retrying", "operation", op, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		metrics.LLMRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: %w: no choices in response", op, ErrInvalidResponse)
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		cleaned := extractJSON(content)
		if cleaned == "" || json.Unmarshal([]byte(cleaned), out) != nil {
			metrics.LLMRequests.WithLabelValues(op, "error").Inc()
			a.logger.Error("Failed to parse LLM response", "operation", op, "content", truncate(content, 500))
			return fmt.Errorf("%s: %w: reply is not JSON", op, ErrInvalidResponse)
		}
	}

	metrics.LLMRequests.WithLabelValues(op, "ok").Inc()
	a.logger.Debug("LLM call completed", "operation", op, "model", req.Model,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	return nil
}

func describeDocuments(docs []models.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, describeDocument(d))
	}
	return out
}

func isoDate(s string) string {
	if t, ok := legal.ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return ""
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
