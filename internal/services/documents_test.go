package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

func TestUploadDocument_Text(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "u1")
	c := h.spanishCase(t, "u1")

	resp := h.upload(t, c, "../Factura Enero.txt", "FACTURA F-1\r\nTotal: 1.210,00 €")
	assert.Equal(t, "Factura_Enero.txt", resp.Filename)

	doc, err := h.svc.Documents.Get(ctx, resp.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "FACTURA F-1\nTotal: 1.210,00 €", doc.ExtractedText)
	assert.True(t, strings.HasPrefix(doc.S3Key, "cases/"+c.ID+"/documents/"+resp.ID+"/"))
	assert.Equal(t, "text/plain", h.store.ContentType(doc.S3Key))
	assert.Nil(t, doc.Facts)
}

func TestUploadDocument_ImageUsesOCR(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "u1")
	c := h.spanishCase(t, "u1")
	h.llm.ocrText = "ALBARÁN 33\nEntregado"

	resp, err := h.svc.Documents.Upload(ctx, &models.UploadRequest{
		CaseID: c.ID, UserID: "u1", File: []byte{0x89, 'P', 'N', 'G'}, Filename: "albaran.png", ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.llm.count("ocr"))

	doc, err := h.svc.Documents.Get(ctx, resp.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ALBARÁN 33\nEntregado", doc.ExtractedText)

	h.llm.ocrText = ""
	_, err = h.svc.Documents.Upload(ctx, &models.UploadRequest{
		CaseID: c.ID, UserID: "u1", File: []byte{0xFF, 0xD8}, Filename: "x.jpg", ContentType: "image/jpeg",
	})
	requireStatus(t, err, http.StatusInternalServerError)
}

func TestUploadDocument_Rejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "u1")
	h.user(t, "u2")
	c := h.spanishCase(t, "u1")

	_, err := h.svc.Documents.Upload(ctx, &models.UploadRequest{
		CaseID: c.ID, UserID: "u1", File: []byte("x"), Filename: "a.doc", ContentType: "application/msword",
	})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = h.svc.Documents.Upload(ctx, &models.UploadRequest{
		CaseID: c.ID, UserID: "u2", File: []byte("FACTURA"), Filename: "a.txt", ContentType: "text/plain",
	})
	requireStatus(t, err, http.StatusNotFound)

	_, err = h.svc.Documents.Upload(ctx, &models.UploadRequest{
		CaseID: c.ID, UserID: "u1", File: []byte("   \n  "), Filename: "a.txt", ContentType: "text/plain",
	})
	requireStatus(t, err, http.StatusBadRequest)

	assert.Empty(t, h.store.Keys())
}

func TestAnalyzeDocument_Cached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "u1")
	h.user(t, "u2")
	c := h.spanishCase(t, "u1")
	h.llm.facts["F-9"] = &models.DocumentFacts{Kind: models.KindInvoice, Number: "F-9", Amount: nd("99.90"), Currency: "EUR"}
	doc := h.upload(t, c, "f9.txt", "FACTURA F-9")

	first, err := h.svc.Documents.Analyze(ctx, doc.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.KindInvoice, first.Facts.Kind)

	second, err := h.svc.Documents.Analyze(ctx, doc.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "F-9", second.Facts.Number)
	assert.True(t, second.Facts.Amount.Decimal.Equal(first.Facts.Amount.Decimal))
	assert.Equal(t, 1, h.llm.count("extract"))

	_, err = h.svc.Documents.Analyze(ctx, doc.ID, "u2")
	requireStatus(t, err, http.StatusNotFound)
}

func TestListAndDeleteDocuments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "u1")
	c := h.spanishCase(t, "u1")
	a := h.upload(t, c, "a.txt", "FACTURA A")
	h.upload(t, c, "b.txt", "FACTURA B")

	docs, err := h.svc.Documents.List(ctx, c.ID, "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	require.NoError(t, h.svc.Documents.Delete(ctx, a.ID, "u1"))
	docs, err = h.svc.Documents.List(ctx, c.ID, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, h.store.Keys(), 1)

	err = h.svc.Documents.Delete(ctx, a.ID, "u1")
	requireStatus(t, err, http.StatusNotFound)
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "factura.pdf", safeFilename("factura.pdf"))
	assert.Equal(t, "Factura_nº_3.pdf", safeFilename(`C:\Users\ana\Factura nº 3.pdf`))
	assert.Equal(t, "passwd", safeFilename("../../etc/passwd"))
	assert.Equal(t, "document", safeFilename("..."))
	assert.Equal(t, "albarán.txt", safeFilename("albarán?.txt"))
}
