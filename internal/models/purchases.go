package models

import "time"

type PurchaseStatus string

const (
	PurchasePending PurchaseStatus = "pending"
	PurchasePaid    PurchaseStatus = "paid"
	PurchaseExpired PurchaseStatus = "expired"
)

type Purchase struct {
	ID              string         `json:"id" db:"id"`
	UserID          string         `json:"user_id" db:"user_id"`
	CaseID          string         `json:"case_id" db:"case_id"`
	TemplateKey     string         `json:"template_key" db:"template_key"`
	StripeSessionID string         `json:"stripe_session_id" db:"stripe_session_id"`
	CheckoutURL     string         `json:"checkout_url,omitempty" db:"checkout_url"`
	Status          PurchaseStatus `json:"status" db:"status"`
	AmountCents     int64          `json:"amount_cents" db:"amount_cents"`
	Currency        string         `json:"currency" db:"currency"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
	PaidAt          *time.Time     `json:"paid_at,omitempty" db:"paid_at"`
}

type CheckoutResponse struct {
	PurchaseID string `json:"purchase_id"`
	SessionID  string `json:"session_id"`
	URL        string `json:"url"`
}
