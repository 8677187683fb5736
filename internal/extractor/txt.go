package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExtractTXT decodes a plain-text upload. Spanish documents exported from
// older software are frequently Windows-1252 rather than UTF-8.
func ExtractTXT(data []byte) (string, error) {
	if err := ValidateTXT(data); err != nil {
		return "", err
	}

	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text file: %w", err)
	}

	text = cleanText(text)

	if text == "" {
		return "", fmt.Errorf("no text could be extracted from file")
	}

	return text, nil
}

// decodeText honours a UTF-8 or UTF-16 byte order mark. Without one, input
// that is not valid UTF-8 is read as Windows-1252, a superset of Latin-1 for
// the accented letters Spanish needs.
func decodeText(data []byte) (string, error) {
	fallback := encoding.Nop.NewDecoder()
	if !hasBOM(data) && !utf8.Valid(data) {
		fallback = charmap.Windows1252.NewDecoder()
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func hasBOM(data []byte) bool {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return true
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return true
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return true
	}
	return false
}

// cleanText normalizes line endings, drops NULs and blank lines, and trims
// each line.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	lines := strings.Split(text, "\n")

	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}

// ValidateTXT rejects data that looks binary. UTF-16 input is accepted on its BOM.
func ValidateTXT(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty file")
	}
	if hasBOM(data) {
		return nil
	}

	printableCount := 0
	sampleSize := min(len(data), 512)

	for i := 0; i < sampleSize; i++ {
		b := data[i]
		// Printable ASCII, whitespace, and high bytes of UTF-8 or Latin-1 letters
		if (b >= 32 && b <= 126) || b == '\t' || b == '\n' || b == '\r' || b >= 0x80 {
			printableCount++
		}
	}

	// If less than 80% of sample is printable text, it might be binary
	if float64(printableCount)/float64(sampleSize) < 0.8 {
		return fmt.Errorf("file does not appear to be valid text")
	}

	return nil
}
