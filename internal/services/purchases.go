package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/BerylCAtieno/lexdoc-api/internal/legal"
	"github.com/BerylCAtieno/lexdoc-api/internal/metrics"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/payments"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type PurchaseService interface {
	Checkout(ctx context.Context, caseID string, p *models.Principal) (*models.CheckoutResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	List(ctx context.Context, userID string) ([]models.Purchase, error)
}

type purchaseService struct {
	repo     *repository.Repository
	payments payments.Provider
	settings Settings
	logger   *utils.Logger
}

// Checkout starts payment for the case's template. A pending session is
// reused so double clicks do not open two payments.
func (s *purchaseService) Checkout(ctx context.Context, caseID string, p *models.Principal) (*models.CheckoutResponse, error) {
	c, err := loadCase(ctx, s.repo, s.logger, caseID, p.UID)
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
	if paid != nil {
		return nil, utils.NewConflictError("This case has already been paid for")
	}

	pending, err := s.repo.Purchases.FindForCase(ctx, caseID, models.PurchasePending)
	if err != nil {
		s.logger.Error("Failed to look up purchases", "error", err, "case_id", caseID)
		return nil, utils.WrapInternal("Failed to look up purchases", err)
	}
	if pending != nil && pending.CheckoutURL != "" {
		s.logger.Info("Reusing pending checkout", "purchase_id", pending.ID, "case_id", caseID)
		return &models.CheckoutResponse{PurchaseID: pending.ID, SessionID: pending.StripeSessionID, URL: pending.CheckoutURL}, nil
	}

	purchase := pending
	if purchase == nil {
		now := s.settings.now()
		purchase = &models.Purchase{
			ID:          utils.GenerateID(),
			UserID:      p.UID,
			CaseID:      caseID,
			TemplateKey: tmpl.Key,
			Status:      models.PurchasePending,
			AmountCents: tmpl.PriceCents,
			Currency:    tmpl.Currency,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Purchases.Create(ctx, purchase); err != nil {
			s.logger.Error("Failed to create purchase", "error", err, "case_id", caseID)
			return nil, utils.WrapInternal("Failed to create purchase", err)
		}
	}

	session, err := s.payments.CreateCheckout(ctx, &payments.CheckoutRequest{
		PurchaseID:    purchase.ID,
		CaseID:        caseID,
		UserID:        p.UID,
		CustomerEmail: p.Email,
		ProductName:   tmpl.Title,
		Description:   c.Title,
		AmountCents:   purchase.AmountCents,
		Currency:      purchase.Currency,
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session", "error", err, "purchase_id", purchase.ID)
		return nil, &utils.AppError{StatusCode: http.StatusBadGateway, Message: "Payment provider unavailable", Err: err}
	}

	if err := s.repo.Purchases.SetSession(ctx, purchase.ID, session.ID, session.URL); err != nil {
		s.logger.Error("Failed to save checkout session", "error", err, "purchase_id", purchase.ID)
		return nil, utils.WrapInternal("Failed to save checkout session", err)
	}

	s.logger.Info("Checkout started", "purchase_id", purchase.ID, "case_id", caseID, "amount_cents", purchase.AmountCents)
	return &models.CheckoutResponse{PurchaseID: purchase.ID, SessionID: session.ID, URL: session.URL}, nil
}

// HandleWebhook applies a verified Stripe event. Replays are no-ops.
func (s *purchaseService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			metrics.PaymentEvents.WithLabelValues("unknown", "rejected").Inc()
			s.logger.Warn("Rejected webhook", "error", err)
			return utils.NewBadRequestError("Invalid webhook signature")
		}
		s.logger.Error("Failed to parse webhook", "error", err)
		return utils.NewBadRequestError("Invalid webhook payload")
	}

	result, err := s.applyEvent(ctx, ev)
	if err != nil {
		metrics.PaymentEvents.WithLabelValues(ev.StripeType, "error").Inc()
		return err
	}
	metrics.PaymentEvents.WithLabelValues(ev.StripeType, result).Inc()
	s.logger.Info("Webhook handled", "event_id", ev.ID, "type", ev.StripeType, "result", result)
	return nil
}

func (s *purchaseService) applyEvent(ctx context.Context, ev *payments.WebhookEvent) (string, error) {
	if ev.Kind == payments.EventIgnored {
		return "ignored", nil
	}

	purchase, err := s.findPurchase(ctx, ev)
	if err != nil {
		return "", err
	}
	if purchase == nil {
		s.logger.Warn("Webhook for unknown purchase", "session_id", ev.SessionID, "purchase_id", ev.PurchaseID)
		return "unknown_purchase", nil
	}

	switch ev.Kind {
	case payments.EventPaid:
		if purchase.Status == models.PurchasePaid {
			return "duplicate", nil
		}
		now := s.settings.now()
		if err := s.repo.Purchases.UpdateStatus(ctx, purchase.ID, models.PurchasePaid, &now); err != nil {
			s.logger.Error("Failed to mark purchase paid", "error", err, "purchase_id", purchase.ID)
			return "", utils.WrapInternal("Failed to update purchase", err)
		}
		c, err := s.repo.Cases.GetByID(ctx, purchase.CaseID, purchase.UserID)
		if err != nil {
			s.logger.Error("Failed to get case", "error", err, "case_id", purchase.CaseID)
			return "", utils.WrapInternal("Failed to retrieve case", err)
		}
		if c != nil && c.Status != models.CaseGenerated {
			if err := s.repo.Cases.UpdateStatus(ctx, c.ID, models.CasePaid); err != nil {
				s.logger.Error("Failed to mark case paid", "error", err, "case_id", c.ID)
				return "", utils.WrapInternal("Failed to update case", err)
			}
		}
		return "paid", nil

	case payments.EventExpired:
		if purchase.Status != models.PurchasePending {
			return "duplicate", nil
		}
		if err := s.repo.Purchases.UpdateStatus(ctx, purchase.ID, models.PurchaseExpired, nil); err != nil {
			s.logger.Error("Failed to expire purchase", "error", err, "purchase_id", purchase.ID)
			return "", utils.WrapInternal("Failed to update purchase", err)
		}
		return "expired", nil
	}
	return "ignored", nil
}

// findPurchase matches by session first; the purchase ID in
// client_reference_id covers events racing the session being saved.
func (s *purchaseService) findPurchase(ctx context.Context, ev *payments.WebhookEvent) (*models.Purchase, error) {
	if ev.SessionID != "" {
		p, err := s.repo.Purchases.GetBySessionID(ctx, ev.SessionID)
		if err != nil {
			s.logger.Error("Failed to get purchase by session", "error", err, "session_id", ev.SessionID)
			return nil, utils.WrapInternal("Failed to retrieve purchase", err)
		}
		if p != nil {
			return p, nil
		}
	}
	if ev.PurchaseID == "" {
		return nil, nil
	}
	p, err := s.repo.Purchases.GetByID(ctx, ev.PurchaseID)
	if err != nil {
		s.logger.Error("Failed to get purchase", "error", err, "purchase_id", ev.PurchaseID)
		return nil, utils.WrapInternal("Failed to retrieve purchase", err)
	}
	return p, nil
}

func (s *purchaseService) List(ctx context.Context, userID string) ([]models.Purchase, error) {
	purchases, err := s.repo.Purchases.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list purchases", "error", err, "user_id", userID)
		return nil, utils.WrapInternal("Failed to list purchases", err)
	}
	return purchases, nil
}
