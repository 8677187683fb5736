package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BerylCAtieno/lexdoc-api/internal/analyzer"
	"github.com/BerylCAtieno/lexdoc-api/internal/extractor"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/storage"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type DocumentService interface {
	Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	Analyze(ctx context.Context, id, userID string) (*models.AnalysisResponse, error)
	Get(ctx context.Context, id, userID string) (*models.Document, error)
	List(ctx context.Context, caseID, userID string) ([]models.Document, error)
	Delete(ctx context.Context, id, userID string) error
}

type documentService struct {
	repo     *repository.Repository
	storage  storage.Storage
	analyzer analyzer.Analyzer
	settings Settings
	logger   *utils.Logger
}

func documentKey(caseID, docID, filename string) string {
	return fmt.Sprintf("cases/%s/documents/%s/%s", caseID, docID, filename)
}

func (s *documentService) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	if _, err := loadCase(ctx, s.repo, s.logger, req.CaseID, req.UserID); err != nil {
		return nil, err
	}
	if !extractor.IsSupported(req.ContentType) {
		s.logger.Warn("Unsupported content type", "content_type", req.ContentType, "filename", req.Filename)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unsupported file type '%s'. Allowed: PDF, DOCX, TXT, PNG, JPEG, WEBP", req.ContentType))
	}

	var extractedText string
	var err error
	if extractor.IsImage(req.ContentType) {
		extractedText, err = s.analyzer.OCRImage(ctx, req.File, req.ContentType)
		if err != nil {
			s.logger.Error("Failed to OCR image", "error", err, "filename", req.Filename)
			return nil, analyzerError("Failed to read the image", err)
		}
	} else {
		extractedText, err = extractor.Extract(req.File, req.ContentType)
		if errors.Is(err, extractor.ErrNoText) {
			return nil, utils.NewBadRequestError("The PDF has no text layer. Upload a photo or scan of each page as an image instead")
		}
		if err != nil {
			s.logger.Error("Failed to extract text", "error", err, "content_type", req.ContentType, "filename", req.Filename)
			return nil, utils.NewBadRequestError(fmt.Sprintf("Failed to extract text from document: %v", err))
		}
	}

	if strings.TrimSpace(extractedText) == "" {
		s.logger.Warn("No text extracted from document", "filename", req.Filename)
		return nil, utils.NewBadRequestError("No text could be extracted from the document. The file may be empty or corrupted")
	}

	docID := utils.GenerateID()
	filename := safeFilename(req.Filename)
	key := documentKey(req.CaseID, docID, filename)
	if err := s.storage.Upload(ctx, key, req.File, req.ContentType); err != nil {
		s.logger.Error("Failed to upload to storage", "error", err, "key", key)
		return nil, utils.WrapInternal("Failed to store document", err)
	}

	now := s.settings.now()
	doc := &models.Document{
		ID:            docID,
		CaseID:        req.CaseID,
		UserID:        req.UserID,
		Filename:      filename,
		FileSize:      int64(len(req.File)),
		ContentType:   req.ContentType,
		S3Key:         key,
		ExtractedText: extractedText,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Documents.Create(ctx, doc); err != nil {
		s.logger.Error("Failed to save document to database", "error", err, "doc_id", docID)
		_ = s.storage.Delete(ctx, key)
		return nil, utils.WrapInternal("Failed to save document metadata", err)
	}

	s.logger.Info("Document uploaded",
		"id", docID,
		"case_id", req.CaseID,
		"content_type", req.ContentType,
		"text_length", len(extractedText))

	return &models.UploadResponse{
		ID:          docID,
		CaseID:      req.CaseID,
		Filename:    filename,
		FileSize:    doc.FileSize,
		ContentType: doc.ContentType,
		CreatedAt:   now,
		Message:     "Document uploaded successfully. Use /documents/{id}/analyze to extract its facts.",
	}, nil
}

func (s *documentService) Analyze(ctx context.Context, id, userID string) (*models.AnalysisResponse, error) {
	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, doc)
}

// analyze extracts the facts of doc once; later calls return the stored result.
func (s *documentService) analyze(ctx context.Context, doc *models.Document) (*models.AnalysisResponse, error) {
	if doc.AnalyzedAt != nil && doc.Facts != nil {
		s.logger.Debug("Document already analyzed, returning cached facts", "id", doc.ID)
		return &models.AnalysisResponse{ID: doc.ID, Facts: doc.Facts, AnalyzedAt: *doc.AnalyzedAt}, nil
	}

	s.logger.Info("Starting document analysis", "id", doc.ID, "text_length", len(doc.ExtractedText))
	facts, err := s.analyzer.ExtractFacts(ctx, doc.ExtractedText)
	if err != nil {
		s.logger.Error("Failed to analyze document", "error", err, "id", doc.ID)
		return nil, analyzerError("Failed to analyze document", err)
	}

	if err := s.repo.Documents.UpdateAnalysis(ctx, doc.ID, facts); err != nil {
		s.logger.Error("Failed to update analysis", "error", err, "id", doc.ID)
		return nil, utils.WrapInternal("Failed to save analysis results", err)
	}

	now := s.settings.now()
	doc.Facts = facts
	doc.AnalyzedAt = &now

	s.logger.Info("Document analyzed", "id", doc.ID, "kind", facts.Kind, "has_amount", facts.Amount.Valid)
	return &models.AnalysisResponse{ID: doc.ID, Facts: facts, AnalyzedAt: now}, nil
}

func (s *documentService) Get(ctx context.Context, id, userID string) (*models.Document, error) {
	doc, err := s.repo.Documents.GetByID(ctx, id, userID)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.WrapInternal("Failed to retrieve document", err)
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, caseID, userID string) ([]models.Document, error) {
	if _, err := loadCase(ctx, s.repo, s.logger, caseID, userID); err != nil {
		return nil, err
	}
	docs, err := s.repo.Documents.ListByCase(ctx, caseID)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "case_id", caseID)
		return nil, utils.WrapInternal("Failed to list documents", err)
	}
	return docs, nil
}

func (s *documentService) Delete(ctx context.Context, id, userID string) error {
	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Documents.Delete(ctx, id, userID); err != nil {
		s.logger.Error("Failed to delete document", "error", err, "id", id)
		return utils.WrapInternal("Failed to delete document", err)
	}
	if err := s.storage.Delete(ctx, doc.S3Key); err != nil {
		// The row is gone; an orphaned blob is removed with the case.
		s.logger.Warn("Failed to delete document blob", "error", err, "key", doc.S3Key)
	}
	s.logger.Info("Document deleted", "id", id, "case_id", doc.CaseID)
	return nil
}

// analyzerError maps LLM failures: transient ones are 503 so clients retry.
func analyzerError(message string, err error) error {
	if analyzer.IsTransient(err) {
		return &utils.AppError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    message + ": the AI service is temporarily unavailable, try again later",
			Err:        err,
		}
	}
	return utils.WrapInternal(message, err)
}

// safeFilename keeps the base name and replaces characters that are awkward in object keys.
func safeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		default:
			return -1
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "document"
	}
	return name
}
