package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
	"github.com/noah-isme/sekolah-records-api/pkg/jobs"
	"github.com/noah-isme/sekolah-records-api/pkg/storage"
)

// PhotoCleanupJob is the job type used for background photo removal.
const PhotoCleanupJob = "photo-cleanup"

// PhotoKind names the record kind owning a photo. It doubles as the storage
// sub-directory and the route segment.
type PhotoKind string

const (
	PhotoKindStudent PhotoKind = "students"
	PhotoKindStaff   PhotoKind = "staff"
)

var allowedPhotoExt = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

type photoStorage interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type photoSigner interface {
	Generate(recordID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (recordID, relPath string, expiresAt time.Time, err error)
}

type photoCleanupQueue interface {
	Submit(ctx context.Context, jobType, payload string) error
}

// PhotoUpload carries an uploaded photo stream.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// PhotoDownload is an opened photo ready to stream. The caller closes File.
type PhotoDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// PhotoServiceConfig holds upload limits and URL settings.
type PhotoServiceConfig struct {
	MaxFileSize int64
	APIPrefix   string
}

// PhotoService stores, links and removes record photos.
type PhotoService struct {
	storage photoStorage
	signer  photoSigner
	cleanup photoCleanupQueue
	metrics *MetricsService
	logger  *zap.Logger
	cfg     PhotoServiceConfig
}

// NewPhotoService constructs the service. cleanup may be nil, in which case
// removals run inline.
func NewPhotoService(store photoStorage, signer photoSigner, cleanup photoCleanupQueue, metrics *MetricsService, logger *zap.Logger, cfg PhotoServiceConfig) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 4 * 1024 * 1024
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &PhotoService{storage: store, signer: signer, cleanup: cleanup, metrics: metrics, logger: logger, cfg: cfg}
}

// Allowed reports whether filename carries an accepted image extension.
func Allowed(filename string) bool {
	_, ok := allowedPhotoExt[storage.Ext(filename)]
	return ok
}

// Store saves the upload under the kind's directory and returns its relative
// path. A nil upload or a file with a disallowed extension is ignored and
// yields a nil path.
func (s *PhotoService) Store(ctx context.Context, kind PhotoKind, upload *PhotoUpload) (*string, error) {
	if upload == nil || upload.Content == nil || upload.Filename == "" {
		return nil, nil
	}
	if !Allowed(upload.Filename) {
		s.logger.Info("ignoring photo with disallowed extension", zap.String("kind", string(kind)), zap.String("filename", upload.Filename))
		return nil, nil
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("photo exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	relPath := path.Join(string(kind), s.storedName(upload.Filename))
	n, err := s.storage.SaveStream(relPath, io.LimitReader(upload.Content, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store photo")
	}
	if n > s.cfg.MaxFileSize {
		s.removeNow(relPath)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("photo exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	return &relPath, nil
}

// Discard schedules removal of a stored photo. Failures are logged only.
func (s *PhotoService) Discard(ctx context.Context, relPath *string) {
	if relPath == nil || *relPath == "" {
		return
	}
	if s.cleanup != nil {
		err := s.cleanup.Submit(ctx, PhotoCleanupJob, *relPath)
		if err == nil {
			return
		}
		s.logger.Warn("photo cleanup queue unavailable, removing inline", zap.String("path", *relPath), zap.Error(err))
	}
	s.removeNow(*relPath)
}

// HandleCleanup is the jobs.Handler for PhotoCleanupJob.
func (s *PhotoService) HandleCleanup(_ context.Context, job jobs.Job) error {
	if job.Type != PhotoCleanupJob {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	err := s.storage.Delete(job.Payload)
	s.metrics.RecordPhotoCleanup(err == nil)
	if errors.Is(err, storage.ErrOutsideBase) {
		s.logger.Error("refusing to remove photo outside storage", zap.String("path", job.Payload))
		return nil
	}
	return err
}

// URL returns a signed download URL for the record's photo, or "" when there
// is none or signing fails.
func (s *PhotoService) URL(kind PhotoKind, recordID string, relPath *string) string {
	if relPath == nil || *relPath == "" || s.signer == nil {
		return ""
	}
	token, _, err := s.signer.Generate(recordID, *relPath)
	if err != nil {
		s.logger.Warn("failed to sign photo url", zap.String("record_id", recordID), zap.Error(err))
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/photo?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), kind, recordID, token)
}

// Open validates the token against the record's current photo and opens it.
func (s *PhotoService) Open(recordID, token string, relPath *string) (*PhotoDownload, error) {
	if relPath == nil || *relPath == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "photo signer unavailable")
	}
	tokenID, tokenPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if tokenID != recordID || tokenPath != *relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	return s.openFile(*relPath)
}

// OpenStored opens a stored photo without token checks, for server-side rendering.
func (s *PhotoService) OpenStored(relPath *string) (*PhotoDownload, error) {
	if relPath == nil || *relPath == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	return s.openFile(*relPath)
}

func (s *PhotoService) openFile(relPath string) (*PhotoDownload, error) {
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, appErrors.Internal(err, "failed to open photo")
	}
	info, err := file.Stat()
	if err != nil {
		closeQuietly(file)
		return nil, appErrors.Internal(err, "failed to read photo metadata")
	}
	mimeType := mime.TypeByExtension(path.Ext(relPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &PhotoDownload{
		File:      file,
		Filename:  path.Base(relPath),
		MimeType:  mimeType,
		SizeBytes: info.Size(),
	}, nil
}

func (s *PhotoService) storedName(original string) string {
	name := storage.SecureFilename(original)
	if name == "" || name == storage.Ext(original) {
		name = "photo." + storage.Ext(original)
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return token + "_" + name
}

func (s *PhotoService) removeNow(relPath string) {
	err := s.storage.Delete(relPath)
	s.metrics.RecordPhotoCleanup(err == nil)
	if err != nil {
		s.logger.Warn("failed to remove photo", zap.String("path", relPath), zap.Error(err))
	}
}
