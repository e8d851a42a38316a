package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/storage"
)

func newArchiveFixture(t *testing.T, ttl time.Duration) *ExportArchiveService {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewTokenSigner("test-secret", ttl)
	return NewExportArchiveService(store, signer, zap.NewNop())
}

func TestExportArchiveRoundTrip(t *testing.T) {
	svc := newArchiveFixture(t, time.Hour)

	link, err := svc.ArchiveNow(&ExportResult{
		FileName:    "assignment-2026.csv",
		ContentType: "text/csv",
		Data:        []byte("course,instructor\nCS101,inst-1\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "assignment-2026.csv", link.FileName)
	assert.True(t, link.ExpiresAt.After(time.Now()))

	result, err := svc.Download(link.Token)
	require.NoError(t, err)
	assert.Equal(t, "assignment-2026.csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, []byte("course,instructor\nCS101,inst-1\n"), result.Data)
}

func TestExportArchiveDownloadBadToken(t *testing.T) {
	svc := newArchiveFixture(t, time.Hour)

	_, err := svc.Download("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportArchiveDownloadMissingFile(t *testing.T) {
	svc := newArchiveFixture(t, time.Hour)

	link, err := svc.ArchiveNow(&ExportResult{FileName: "gone.csv", Data: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, svc.store.Delete("gone.csv"))

	_, err = svc.Download(link.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportArchiveRejectsForeignSignature(t *testing.T) {
	svc := newArchiveFixture(t, time.Hour)
	link, err := svc.ArchiveNow(&ExportResult{FileName: "report.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	otherStore, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	other := NewExportArchiveService(otherStore, storage.NewTokenSigner("other-secret", time.Hour), zap.NewNop())

	_, err = other.Download(link.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportArchiveCleanup(t *testing.T) {
	svc := newArchiveFixture(t, time.Hour)

	_, err := svc.ArchiveNow(&ExportResult{FileName: "old.csv", Data: []byte("x")})
	require.NoError(t, err)

	// A negative TTL puts the cutoff in the future, so every file qualifies.
	deleted, err := svc.Cleanup(-time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeFor("report.pdf"))
	assert.Equal(t, "text/csv", contentTypeFor("report.csv"))
	assert.Equal(t, "text/csv", contentTypeFor("report"))
}
