// Package payments creates Stripe Checkout sessions for filing purchases and
// verifies the webhooks that settle them.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

type Provider interface {
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type CheckoutRequest struct {
	PurchaseID    string
	CaseID        string
	UserID        string
	CustomerEmail string
	ProductName   string
	Description   string
	AmountCents   int64
	Currency      string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type EventKind string

const (
	EventPaid    EventKind = "paid"
	EventExpired EventKind = "expired"
	EventIgnored EventKind = "ignored"
)

// WebhookEvent is the part of a Stripe event the purchase flow acts on.
type WebhookEvent struct {
	ID          string
	Kind        EventKind
	StripeType  string
	SessionID   string
	PurchaseID  string
	CaseID      string
	UserID      string
	AmountCents int64
	Currency    string
}

type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	// BackendURL overrides the Stripe API host.
	BackendURL string
}

type StripeProvider struct {
	sessions      *session.Client
	webhookSecret string
	successURL    string
	cancelURL     string
	logger        *utils.Logger
}

func NewStripeProvider(cfg Config, logger *utils.Logger) *StripeProvider {
	backendCfg := &stripe.BackendConfig{
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelWarn},
		MaxNetworkRetries: stripe.Int64(2),
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}

	return &StripeProvider{
		sessions: &session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		logger:        logger,
	}
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		ClientReferenceID: stripe.String(req.PurchaseID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
			},
		}},
	}
	if req.Description != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripe.String(req.Description)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("purchase_id", req.PurchaseID)
	params.AddMetadata("case_id", req.CaseID)
	params.AddMetadata("user_id", req.UserID)

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	p.logger.Info("Checkout session created", "purchase_id", req.PurchaseID, "session_id", s.ID)
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps checkout
// session events. Unrelated events come back with Kind EventIgnored.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Kind: EventIgnored, StripeType: string(event.Type)}

	var kind EventKind
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		kind = EventPaid
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		kind = EventExpired
	default:
		return out, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("event %s has no data", event.ID)
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	// Completed sessions paid by delayed methods settle later through
	// async_payment_succeeded.
	if kind == EventPaid && s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		p.logger.Info("Checkout completed without payment yet", "session_id", s.ID, "payment_status", s.PaymentStatus)
		return out, nil
	}

	out.Kind = kind
	out.SessionID = s.ID
	out.PurchaseID = s.ClientReferenceID
	out.CaseID = s.Metadata["case_id"]
	out.UserID = s.Metadata["user_id"]
	out.AmountCents = s.AmountTotal
	out.Currency = strings.ToUpper(string(s.Currency))
	if out.PurchaseID == "" {
		out.PurchaseID = s.Metadata["purchase_id"]
	}
	return out, nil
}
