// Package render turns a FilingDraft into the PDF and Word files users download.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

const (
	pdfFont       = "Times"
	pdfMargin     = 25.0
	pdfLineHeight = 6.0
)

// PDF writes draft as an A4 document. The core fonts only cover cp1252, which
// is enough for Spanish text.
func PDF(w io.Writer, draft *models.FilingDraft) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(true, pdfMargin)
	doc.SetTitle(draft.Title, true)
	doc.SetCreator("lexdoc", true)
	doc.AliasNbPages("")

	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(pdfFont, "I", 9)
		doc.CellFormat(0, 10, fmt.Sprintf("%d / {nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	if draft.Court != "" {
		doc.SetFont(pdfFont, "B", 12)
		doc.MultiCell(0, pdfLineHeight, tr(draft.Court), "", "L", false)
		doc.Ln(pdfLineHeight)
	}
	if draft.Title != "" {
		doc.SetFont(pdfFont, "B", 14)
		doc.MultiCell(0, pdfLineHeight+1, tr(draft.Title), "", "C", false)
		doc.Ln(pdfLineHeight)
	}

	doc.SetFont(pdfFont, "", 12)
	paragraph := func(text string) {
		for _, p := range splitParagraphs(text) {
			doc.MultiCell(0, pdfLineHeight, tr(p), "", "J", false)
			doc.Ln(2)
		}
	}
	paragraph(draft.Intro)

	for _, s := range draft.Sections {
		doc.Ln(pdfLineHeight / 2)
		doc.SetFont(pdfFont, "B", 12)
		doc.MultiCell(0, pdfLineHeight, tr(strings.ToUpper(s.Heading)), "", "C", false)
		doc.Ln(2)
		doc.SetFont(pdfFont, "", 12)
		for _, p := range s.Paragraphs {
			paragraph(p)
		}
	}

	if draft.Closing != "" {
		doc.Ln(pdfLineHeight / 2)
		paragraph(draft.Closing)
	}
	if draft.Signature != "" {
		doc.Ln(pdfLineHeight * 2)
		doc.MultiCell(0, pdfLineHeight, tr(draft.Signature), "", "L", false)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// splitParagraphs breaks text on blank lines and drops empty pieces.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
