package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/jobs"
	"github.com/acadset/course-load-api/pkg/storage"
)

// ExportLink is a signed, time-limited download reference to an archived
// export file.
type ExportLink struct {
	Token     string    `json:"token"`
	FileName  string    `json:"file_name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportArchiveService keeps a copy of rendered export files on disk and
// hands out signed download links for them. Archiving from the export
// endpoint runs through a background task runner so the response is not held
// up by disk writes.
type ExportArchiveService struct {
	store  *storage.FileStore
	signer *storage.TokenSigner
	runner *jobs.Runner
	logger *zap.Logger
}

// NewExportArchiveService wires the archive store, the token signer and the
// background runner.
func NewExportArchiveService(store *storage.FileStore, signer *storage.TokenSigner, logger *zap.Logger) *ExportArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ExportArchiveService{store: store, signer: signer, logger: logger}
	svc.runner = jobs.NewRunner("export-archive", svc.handleArchive, jobs.Options{
		Workers: 2,
		Logger:  logger,
	})
	return svc
}

// Start launches the archive workers.
func (s *ExportArchiveService) Start(ctx context.Context) {
	s.runner.Start(ctx)
}

// Stop drains the archive workers.
func (s *ExportArchiveService) Stop() {
	s.runner.Stop()
}

// Archive queues a rendered export for persistence.
func (s *ExportArchiveService) Archive(result *ExportResult) {
	if result == nil {
		return
	}
	err := s.runner.Submit(jobs.Task{
		ID:      uuid.NewString(),
		Kind:    "archive-export",
		Payload: *result,
	})
	if err != nil {
		s.logger.Warn("failed to queue export archive", zap.String("file", result.FileName), zap.Error(err))
	}
}

// ArchiveNow persists a rendered export immediately and returns a signed
// download link for it.
func (s *ExportArchiveService) ArchiveNow(result *ExportResult) (*ExportLink, error) {
	if result == nil {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "nothing to archive")
	}
	name, err := s.store.Save(result.FileName, result.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive export")
	}
	token, expiresAt, err := s.signer.Sign(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	return &ExportLink{Token: token, FileName: name, ExpiresAt: expiresAt}, nil
}

// Download resolves a signed token back to the archived file.
func (s *ExportArchiveService) Download(token string) (*ExportResult, error) {
	fileName, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	file, err := s.store.Open(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "archived export no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open archived export")
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read archived export")
	}
	return &ExportResult{FileName: fileName, ContentType: contentTypeFor(fileName), Data: data}, nil
}

// Cleanup removes archived exports older than ttl.
func (s *ExportArchiveService) Cleanup(ttl time.Duration) (int, error) {
	removed, err := s.store.Sweep(ttl)
	if err != nil {
		return 0, fmt.Errorf("cleanup export archive: %w", err)
	}
	if len(removed) > 0 {
		s.logger.Info("cleaned up archived exports", zap.Int("removed", len(removed)))
	}
	return len(removed), nil
}

func (s *ExportArchiveService) handleArchive(ctx context.Context, task jobs.Task) error {
	result, ok := task.Payload.(ExportResult)
	if !ok {
		s.logger.Error("unexpected archive payload", zap.String("task_id", task.ID))
		return nil
	}
	if _, err := s.store.Save(result.FileName, result.Data); err != nil {
		return err
	}
	s.logger.Debug("export archived", zap.String("file", result.FileName))
	return nil
}

func contentTypeFor(fileName string) string {
	if strings.HasSuffix(fileName, ".pdf") {
		return "application/pdf"
	}
	return "text/csv"
}
