// Package extractor turns uploaded supporting documents into plain text.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeTXT  = "text/plain"
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
	ContentTypeWEBP = "image/webp"
)

// ErrUnsupported is returned for content types with no extractor.
var ErrUnsupported = fmt.Errorf("unsupported content type")

// DetectContentType determines the content type from the filename extension,
// falling back to the header the client sent. Variants are normalized.
func DetectContentType(filename, headerContentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ContentTypePDF
	case ".docx":
		return ContentTypeDOCX
	case ".txt":
		return ContentTypeTXT
	case ".png":
		return ContentTypePNG
	case ".jpg", ".jpeg":
		return ContentTypeJPEG
	case ".webp":
		return ContentTypeWEBP
	case ".doc":
		return "application/msword"
	}

	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(headerContentType, ";", 2)[0]))
	switch ct {
	case "application/vnd.openxmlformats-officedocument.wordprocessingml",
		"application/docx",
		"application/x-docx":
		return ContentTypeDOCX
	case "text/txt", "application/txt", "application/x-txt":
		return ContentTypeTXT
	case "image/jpg", "image/pjpeg":
		return ContentTypeJPEG
	}
	return ct
}

// IsImage reports whether the content type needs OCR rather than text extraction.
func IsImage(contentType string) bool {
	switch contentType {
	case ContentTypePNG, ContentTypeJPEG, ContentTypeWEBP:
		return true
	}
	return false
}

// IsSupported reports whether an upload of this content type is accepted.
func IsSupported(contentType string) bool {
	switch contentType {
	case ContentTypePDF, ContentTypeDOCX, ContentTypeTXT:
		return true
	}
	return IsImage(contentType)
}

// Extract dispatches on content type. Images are not handled here.
func Extract(data []byte, contentType string) (string, error) {
	switch contentType {
	case ContentTypePDF:
		return ExtractPDF(data)
	case ContentTypeDOCX:
		return ExtractDOCX(data)
	case ContentTypeTXT:
		return ExtractTXT(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}
}
