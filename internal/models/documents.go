package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

type DocumentKind string

const (
	KindInvoice      DocumentKind = "invoice"
	KindDeliveryNote DocumentKind = "delivery_note"
	KindDemandLetter DocumentKind = "demand_letter"
	KindPayment      DocumentKind = "payment"
	KindCreditNote   DocumentKind = "credit_note"
	KindContract     DocumentKind = "contract"
	KindOther        DocumentKind = "other"
)

// NormalizeKind maps free-form labels (English or Spanish) onto a DocumentKind.
func NormalizeKind(label string) DocumentKind {
	switch label {
	case "invoice", "factura":
		return KindInvoice
	case "delivery_note", "albaran", "albarán", "remision", "remisión":
		return KindDeliveryNote
	case "demand_letter", "requerimiento", "burofax", "carta_requerimiento":
		return KindDemandLetter
	case "payment", "pago", "receipt", "recibo", "transfer", "transferencia":
		return KindPayment
	case "credit_note", "abono", "nota_credito", "nota_de_credito":
		return KindCreditNote
	case "contract", "contrato", "presupuesto", "quote":
		return KindContract
	default:
		return KindOther
	}
}

// Label is the Spanish name used in filings.
func (k DocumentKind) Label() string {
	switch k {
	case KindInvoice:
		return "Factura"
	case KindDeliveryNote:
		return "Albarán"
	case KindDemandLetter:
		return "Requerimiento de pago"
	case KindPayment:
		return "Justificante de pago"
	case KindCreditNote:
		return "Factura rectificativa"
	case KindContract:
		return "Contrato"
	default:
		return "Documento"
	}
}

// DocumentFacts is what the analyzer extracts from a supporting document.
type DocumentFacts struct {
	Kind      DocumentKind        `json:"kind"`
	Number    string              `json:"number,omitempty"`
	IssueDate string              `json:"issue_date,omitempty"`
	DueDate   string              `json:"due_date,omitempty"`
	Amount    decimal.NullDecimal `json:"amount"`
	Currency  string              `json:"currency,omitempty"`
	Issuer    string              `json:"issuer,omitempty"`
	Recipient string              `json:"recipient,omitempty"`
	Summary   string              `json:"summary"`
}

func (f *DocumentFacts) Scan(src any) error {
	*f = DocumentFacts{}
	return scanJSON(src, f)
}

func (f DocumentFacts) Value() (driver.Value, error) {
	return valueJSON(f)
}

type Document struct {
	ID            string         `json:"id" db:"id"`
	CaseID        string         `json:"case_id" db:"case_id"`
	UserID        string         `json:"user_id" db:"user_id"`
	Filename      string         `json:"filename" db:"filename"`
	FileSize      int64          `json:"file_size" db:"file_size"`
	ContentType   string         `json:"content_type" db:"content_type"`
	S3Key         string         `json:"s3_key" db:"s3_key"`
	ExtractedText string         `json:"extracted_text,omitempty" db:"extracted_text"`
	Facts         *DocumentFacts `json:"facts,omitempty" db:"facts"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
	AnalyzedAt    *time.Time     `json:"analyzed_at,omitempty" db:"analyzed_at"`
}

type UploadRequest struct {
	CaseID      string
	UserID      string
	File        []byte
	Filename    string
	ContentType string
}

type UploadResponse struct {
	ID          string    `json:"id"`
	CaseID      string    `json:"case_id"`
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	Message     string    `json:"message"`
}

type AnalysisResponse struct {
	ID         string         `json:"id"`
	Facts      *DocumentFacts `json:"facts"`
	AnalyzedAt time.Time      `json:"analyzed_at"`
}

// CaseAnalysisResponse reports the outcome of analyzing every pending document of a case.
type CaseAnalysisResponse struct {
	CaseID   string             `json:"case_id"`
	Analyzed []AnalysisResponse `json:"analyzed"`
	Failed   []string           `json:"failed,omitempty"`
	Claim    *ClaimSummary      `json:"claim,omitempty"`
}
