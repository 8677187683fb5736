package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/lexdoc-api/internal/extractor"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

// multipartOverhead is allowed on top of the file size for form boundaries
// and headers.
const multipartOverhead = 64 << 10

type DocumentHandler struct {
	base
	service     services.DocumentService
	maxFileSize int64
}

func NewDocumentHandler(service services.DocumentService, maxFileSize int64, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{base: base{logger: logger}, service: service, maxFileSize: maxFileSize}
}

func (h *DocumentHandler) tooLarge() error {
	return utils.NewBadRequestError(fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(h.maxFileSize))))
}

func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	// Reject oversized requests before reading them.
	if r.ContentLength > h.maxFileSize+multipartOverhead {
		h.respondError(w, h.tooLarge())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, h.tooLarge())
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	contentType := extractor.DetectContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	if !extractor.IsSupported(contentType) {
		h.respondError(w, utils.NewBadRequestError("Only PDF, DOCX, TXT, PNG, JPEG and WEBP files are allowed"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		h.respondError(w, utils.WrapInternal("Failed to read file", err))
		return
	}
	if int64(len(data)) > h.maxFileSize {
		h.respondError(w, h.tooLarge())
		return
	}
	if len(data) == 0 {
		h.respondError(w, utils.NewBadRequestError("Uploaded file is empty"))
		return
	}

	resp, err := h.service.Upload(r.Context(), &models.UploadRequest{
		CaseID:      mux.Vars(r)["id"],
		UserID:      p.UID,
		File:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	docs, err := h.service.List(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	h.respondJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	resp, err := h.service.Analyze(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"], p.UID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
