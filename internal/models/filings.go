package models

import (
	"strings"
	"time"
)

type FilingFormat string

const (
	FormatPDF  FilingFormat = "pdf"
	FormatDOCX FilingFormat = "docx"
)

func (f FilingFormat) ContentType() string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

type Filing struct {
	ID           string       `json:"id" db:"id"`
	CaseID       string       `json:"case_id" db:"case_id"`
	UserID       string       `json:"user_id" db:"user_id"`
	TemplateKey  string       `json:"template_key" db:"template_key"`
	Format       FilingFormat `json:"format" db:"format"`
	Procedure    string       `json:"procedure" db:"procedure"`
	Filename     string       `json:"filename" db:"filename"`
	FileSize     int64        `json:"file_size" db:"file_size"`
	S3Key        string       `json:"-" db:"s3_key"`
	UsedFallback bool         `json:"used_fallback" db:"used_fallback"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

type GenerateFilingRequest struct {
	Format FilingFormat `json:"format"`
}

func (r *GenerateFilingRequest) Validate() error {
	r.Format = FilingFormat(strings.ToLower(strings.TrimSpace(string(r.Format))))
	if r.Format == "" {
		r.Format = FormatPDF
	}
	if r.Format != FormatPDF && r.Format != FormatDOCX {
		return fieldError("format", "must be 'pdf' or 'docx'")
	}
	return nil
}

// Section is one headed block of a filing.
type Section struct {
	Heading    string   `json:"heading"`
	Paragraphs []string `json:"paragraphs"`
}

// FilingDraft is the renderer-neutral content of a filing.
type FilingDraft struct {
	Court     string    `json:"court"`
	Title     string    `json:"title"`
	Intro     string    `json:"intro"`
	Sections  []Section `json:"sections"`
	Closing   string    `json:"closing"`
	Signature string    `json:"signature"`
}
