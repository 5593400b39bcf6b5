package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-records-api/internal/repository"
	"github.com/noah-isme/sekolah-records-api/internal/service"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
)

func newLookupDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestMalformedStudentIDIsNotFound(t *testing.T) {
	db, mock := newLookupDB(t)
	svc := service.NewStudentService(repository.NewStudentRepository(db), nil, nil, service.NewExportService(nil, nil, nil), nil, nil, nil, zap.NewNop())
	router := studentRouter(svc)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/students/abc", nil),
		httptest.NewRequest(http.MethodDelete, "/students/42", nil),
		httptest.NewRequest(http.MethodGet, "/students/abc/photo?token=x", nil),
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.Method+" "+req.URL.Path)
		assert.Equal(t, appErrors.ErrNotFound.Code, decodeEnvelope(t, rec).Error["code"])
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedStaffIDIsNotFound(t *testing.T) {
	db, mock := newLookupDB(t)
	svc := service.NewStaffService(repository.NewStaffRepository(db), nil, nil, service.NewExportService(nil, nil, nil), nil, nil, nil, zap.NewNop())
	router := staffRouter(svc)

	for _, path := range []string{"/staff/abc", "/staff/abc/card"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
