package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Jurisdiction string

const (
	JurisdictionSpain    Jurisdiction = "ES"
	JurisdictionColombia Jurisdiction = "CO"
)

func (j Jurisdiction) Valid() bool {
	return j == JurisdictionSpain || j == JurisdictionColombia
}

// Currency is the default claim currency of the jurisdiction.
func (j Jurisdiction) Currency() string {
	if j == JurisdictionColombia {
		return "COP"
	}
	return "EUR"
}

type CaseStatus string

const (
	CaseDraft     CaseStatus = "draft"
	CaseAnalyzed  CaseStatus = "analyzed"
	CasePaid      CaseStatus = "paid"
	CaseGenerated CaseStatus = "generated"
)

// Party is a claimant or respondent as it appears on the filing.
type Party struct {
	Name     string `json:"name"`
	IDNumber string `json:"id_number,omitempty"`
	Address  string `json:"address,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (p *Party) Scan(src any) error {
	*p = Party{}
	return scanJSON(src, p)
}

func (p Party) Value() (driver.Value, error) {
	return valueJSON(p)
}

type Case struct {
	ID           string              `json:"id" db:"id"`
	UserID       string              `json:"user_id" db:"user_id"`
	TemplateKey  string              `json:"template_key" db:"template_key"`
	Jurisdiction Jurisdiction        `json:"jurisdiction" db:"jurisdiction"`
	Title        string              `json:"title" db:"title"`
	Status       CaseStatus          `json:"status" db:"status"`
	Claimant     Party               `json:"claimant" db:"claimant"`
	Respondent   Party               `json:"respondent" db:"respondent"`
	Facts        string              `json:"facts" db:"facts"`
	City         string              `json:"city" db:"city"`
	Amount       decimal.NullDecimal `json:"amount" db:"amount"`
	Currency     string              `json:"currency" db:"currency"`

	// Tutela fields
	RightsViolated StringList `json:"rights_violated,omitempty" db:"rights_violated"`
	Petition       string     `json:"petition,omitempty" db:"petition"`
	PriorRequest   bool       `json:"prior_request" db:"prior_request"`
	FactsDate      *time.Time `json:"facts_date,omitempty" db:"facts_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CreateCaseRequest struct {
	TemplateKey    string           `json:"template_key"`
	Title          string           `json:"title"`
	Claimant       Party            `json:"claimant"`
	Respondent     Party            `json:"respondent"`
	Facts          string           `json:"facts"`
	City           string           `json:"city"`
	Amount         *decimal.Decimal `json:"amount"`
	RightsViolated []string         `json:"rights_violated"`
	Petition       string           `json:"petition"`
	PriorRequest   bool             `json:"prior_request"`
	FactsDate      *time.Time       `json:"facts_date"`
}

func (r *CreateCaseRequest) Validate() error {
	if strings.TrimSpace(r.TemplateKey) == "" {
		return fieldError("template_key", "is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return fieldError("title", "is required")
	}
	if len(r.Title) > 200 {
		return fieldError("title", "must be at most 200 characters")
	}
	if strings.TrimSpace(r.Claimant.Name) == "" {
		return fieldError("claimant.name", "is required")
	}
	if len(r.Facts) > 20000 {
		return fieldError("facts", "must be at most 20000 characters")
	}
	if r.Amount != nil && r.Amount.IsNegative() {
		return fieldError("amount", "must not be negative")
	}
	return nil
}

// UpdateCaseRequest is a partial update; nil fields are left untouched.
type UpdateCaseRequest struct {
	Title          *string          `json:"title"`
	Claimant       *Party           `json:"claimant"`
	Respondent     *Party           `json:"respondent"`
	Facts          *string          `json:"facts"`
	City           *string          `json:"city"`
	Amount         *decimal.Decimal `json:"amount"`
	ClearAmount    bool             `json:"clear_amount"`
	RightsViolated []string         `json:"rights_violated"`
	Petition       *string          `json:"petition"`
	PriorRequest   *bool            `json:"prior_request"`
	FactsDate      *time.Time       `json:"facts_date"`
}

func (r *UpdateCaseRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return fieldError("title", "must not be empty")
	}
	if r.Title != nil && len(*r.Title) > 200 {
		return fieldError("title", "must be at most 200 characters")
	}
	if r.Claimant != nil && strings.TrimSpace(r.Claimant.Name) == "" {
		return fieldError("claimant.name", "is required")
	}
	if r.Facts != nil && len(*r.Facts) > 20000 {
		return fieldError("facts", "must be at most 20000 characters")
	}
	if r.Amount != nil && r.Amount.IsNegative() {
		return fieldError("amount", "must not be negative")
	}
	return nil
}

// Apply copies the set fields onto c.
func (r *UpdateCaseRequest) Apply(c *Case) {
	if r.Title != nil {
		c.Title = strings.TrimSpace(*r.Title)
	}
	if r.Claimant != nil {
		c.Claimant = *r.Claimant
	}
	if r.Respondent != nil {
		c.Respondent = *r.Respondent
	}
	if r.Facts != nil {
		c.Facts = *r.Facts
	}
	if r.City != nil {
		c.City = *r.City
	}
	if r.Amount != nil {
		c.Amount = decimal.NewNullDecimal(*r.Amount)
	}
	if r.ClearAmount {
		c.Amount = decimal.NullDecimal{}
	}
	if r.RightsViolated != nil {
		c.RightsViolated = r.RightsViolated
	}
	if r.Petition != nil {
		c.Petition = *r.Petition
	}
	if r.PriorRequest != nil {
		c.PriorRequest = *r.PriorRequest
	}
	if r.FactsDate != nil {
		c.FactsDate = r.FactsDate
	}
}
