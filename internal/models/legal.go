package models

import "github.com/shopspring/decimal"

// ClaimLine is one document contributing to a money claim.
type ClaimLine struct {
	DocumentID string          `json:"document_id"`
	Kind       DocumentKind    `json:"kind"`
	Number     string          `json:"number,omitempty"`
	Date       string          `json:"date,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Interest   decimal.Decimal `json:"interest"`
}

type ClaimSummary struct {
	Currency       string          `json:"currency"`
	Principal      decimal.Decimal `json:"principal"`
	Interest       decimal.Decimal `json:"interest"`
	Total          decimal.Decimal `json:"total"`
	Invoices       []ClaimLine     `json:"invoices"`
	Payments       []ClaimLine     `json:"payments"`
	PriorDemand    bool            `json:"prior_demand"`
	SupportingDocs int             `json:"supporting_docs"`
	// Documents counts every document attached to the case, analyzed or not.
	Documents      int      `json:"documents"`
	ManualOverride bool     `json:"manual_override"`
	Warnings       []string `json:"warnings,omitempty"`
}

// HasDocuments reports whether the case has any document attached. Any
// document counts towards the monitorio track, whatever its kind.
func (c *ClaimSummary) HasDocuments() bool {
	return c.Documents > 0 || len(c.Invoices) > 0 || c.SupportingDocs > 0
}

type ProcedureTrack string

const (
	TrackMonitorio     ProcedureTrack = "monitorio"
	TrackVerbal        ProcedureTrack = "verbal"
	TrackVerbalSumario ProcedureTrack = "verbal_sumario"
	TrackOrdinario     ProcedureTrack = "ordinario"
	TrackTutela        ProcedureTrack = "tutela"
)

type Procedure struct {
	Track              ProcedureTrack `json:"track"`
	Court              string         `json:"court"`
	Cuantia            string         `json:"cuantia,omitempty"`
	RequiresLawyer     bool           `json:"requires_lawyer"`
	RequiresProcurador bool           `json:"requires_procurador"`
	Basis              string         `json:"basis"`
}

type ClaimResponse struct {
	CaseID    string        `json:"case_id"`
	Claim     *ClaimSummary `json:"claim"`
	Procedure *Procedure    `json:"procedure"`
}

type TutelaCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type TutelaAssessment struct {
	CaseID         string        `json:"case_id"`
	RuleScore      int           `json:"rule_score"`
	Checks         []TutelaCheck `json:"checks"`
	Probability    int           `json:"probability"`
	Strengths      []string      `json:"strengths"`
	Weaknesses     []string      `json:"weaknesses"`
	Recommendation string        `json:"recommendation"`
	Source         string        `json:"source"`
}
