package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Upload(ctx, "cases/a/documents/1/factura.pdf", []byte("%PDF"), "application/pdf"))
	require.NoError(t, s.Upload(ctx, "cases/a/filings/2.pdf", []byte("%PDF"), "application/pdf"))
	require.NoError(t, s.Upload(ctx, "cases/b/documents/3/albaran.pdf", []byte("%PDF"), "application/pdf"))

	data, err := s.Download(ctx, "cases/a/filings/2.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
	assert.Equal(t, "application/pdf", s.ContentType("cases/a/filings/2.pdf"))

	require.NoError(t, s.DeletePrefix(ctx, "cases/a/"))
	assert.Equal(t, []string{"cases/b/documents/3/albaran.pdf"}, s.Keys())

	_, err = s.Download(ctx, "cases/a/filings/2.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}
