package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText marks documents that parsed but carried no text layer, which is
// typical of scanned PDFs.
var ErrNoText = fmt.Errorf("no text could be extracted")

// MaxPDFPages bounds the pages read from one upload.
const MaxPDFPages = 50

func ExtractPDF(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	numPages := min(pdfReader.NumPage(), MaxPDFPages)

	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages; the rest may still carry the amounts.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	extractedText := cleanText(textBuilder.String())

	if extractedText == "" {
		return "", fmt.Errorf("PDF: %w", ErrNoText)
	}

	return extractedText, nil
}
