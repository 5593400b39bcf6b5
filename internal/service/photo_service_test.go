package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
	"github.com/noah-isme/sekolah-records-api/pkg/jobs"
	"github.com/noah-isme/sekolah-records-api/pkg/storage"
)

func newPhotoServiceForTest(t *testing.T, queue photoCleanupQueue) (*PhotoService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewPhotoService(store, signer, queue, NewMetricsService(), zap.NewNop(), PhotoServiceConfig{MaxFileSize: 16, APIPrefix: "/api/v1"})
	return svc, store
}

func newUpload(name, body string) *PhotoUpload {
	return &PhotoUpload{Filename: name, Size: int64(len(body)), Content: strings.NewReader(body)}
}

func TestPhotoServiceStoreSanitisesName(t *testing.T) {
	svc, store := newPhotoServiceForTest(t, nil)

	relPath, err := svc.Store(context.Background(), PhotoKindStudent, newUpload("../../my photo.PNG", "img"))
	require.NoError(t, err)
	require.NotNil(t, relPath)

	assert.True(t, strings.HasPrefix(*relPath, "students/"))
	assert.True(t, strings.HasSuffix(*relPath, "_my_photo.PNG"))
	assert.NotContains(t, *relPath, "..")
	assert.True(t, store.Exists(*relPath))
}

func TestPhotoServiceStoreIgnoresDisallowedExtension(t *testing.T) {
	svc, _ := newPhotoServiceForTest(t, nil)

	relPath, err := svc.Store(context.Background(), PhotoKindStaff, newUpload("cv.pdf", "pdf"))
	require.NoError(t, err)
	assert.Nil(t, relPath)

	relPath, err = svc.Store(context.Background(), PhotoKindStaff, nil)
	require.NoError(t, err)
	assert.Nil(t, relPath)
}

func TestPhotoServiceStoreRejectsOversize(t *testing.T) {
	svc, _ := newPhotoServiceForTest(t, nil)

	_, err := svc.Store(context.Background(), PhotoKindStaff, newUpload("a.jpg", strings.Repeat("x", 17)))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// A lying Size header is caught while streaming.
	lying := &PhotoUpload{Filename: "a.jpg", Size: 1, Content: strings.NewReader(strings.Repeat("x", 40))}
	_, err = svc.Store(context.Background(), PhotoKindStaff, lying)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPhotoServiceDiscardUsesQueue(t *testing.T) {
	queue := &mockQueue{}
	svc, store := newPhotoServiceForTest(t, queue)

	relPath, err := svc.Store(context.Background(), PhotoKindStudent, newUpload("a.png", "img"))
	require.NoError(t, err)

	svc.Discard(context.Background(), relPath)
	assert.Equal(t, []string{PhotoCleanupJob + ":" + *relPath}, queue.payloads)
	assert.True(t, store.Exists(*relPath))

	require.NoError(t, svc.HandleCleanup(context.Background(), jobs.Job{Type: PhotoCleanupJob, Payload: *relPath}))
	assert.False(t, store.Exists(*relPath))
}

func TestPhotoServiceDiscardFallsBackInline(t *testing.T) {
	queue := &mockQueue{err: jobs.ErrQueueClosed}
	svc, store := newPhotoServiceForTest(t, queue)

	relPath, err := svc.Store(context.Background(), PhotoKindStudent, newUpload("a.png", "img"))
	require.NoError(t, err)

	svc.Discard(context.Background(), relPath)
	assert.False(t, store.Exists(*relPath))
}

func TestPhotoServiceHandleCleanupRefusesEscapes(t *testing.T) {
	svc, _ := newPhotoServiceForTest(t, nil)

	assert.NoError(t, svc.HandleCleanup(context.Background(), jobs.Job{Type: PhotoCleanupJob, Payload: "../outside.png"}))
	assert.Error(t, svc.HandleCleanup(context.Background(), jobs.Job{Type: "other", Payload: "x"}))
}

func TestPhotoServiceSignedDownload(t *testing.T) {
	svc, _ := newPhotoServiceForTest(t, nil)

	relPath, err := svc.Store(context.Background(), PhotoKindStaff, newUpload("face.jpg", "jpeg-bytes"))
	require.NoError(t, err)

	url := svc.URL(PhotoKindStaff, "g1", relPath)
	require.True(t, strings.HasPrefix(url, "/api/v1/staff/g1/photo?token="))
	token := strings.TrimPrefix(url, "/api/v1/staff/g1/photo?token=")

	download, err := svc.Open("g1", token, relPath)
	require.NoError(t, err)
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))
	assert.Equal(t, "image/jpeg", download.MimeType)
	assert.Equal(t, int64(10), download.SizeBytes)

	_, err = svc.Open("g2", token, relPath)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	other := "staff/other.jpg"
	_, err = svc.Open("g1", token, &other)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Open("g1", "garbage", relPath)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPhotoServiceOpenMissing(t *testing.T) {
	svc, _ := newPhotoServiceForTest(t, nil)

	_, err := svc.Open("g1", "token", nil)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	gone := "staff/gone.png"
	_, err = svc.OpenStored(&gone)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, svc.URL(PhotoKindStaff, "g1", nil))
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("a.JPEG"))
	assert.True(t, Allowed("a.gif"))
	assert.False(t, Allowed("a.bmp"))
	assert.False(t, Allowed("png"))
}
