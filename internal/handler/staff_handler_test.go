package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sekolah-records-api/internal/dto"
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/internal/service"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
)

type fakeStaffSrv struct {
	lastFilter models.StaffFilter
	lastReq    dto.StaffRequest
	imported   string
	importErr  error
	cardErr    error
}

func (f *fakeStaffSrv) List(_ context.Context, filter models.StaffFilter) ([]dto.StaffResponse, *models.Pagination, error) {
	f.lastFilter = filter
	return []dto.StaffResponse{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeStaffSrv) Get(_ context.Context, id string) (*dto.StaffResponse, error) {
	return &dto.StaffResponse{Staff: models.Staff{ID: id}}, nil
}

func (f *fakeStaffSrv) Create(_ context.Context, req dto.StaffRequest, _ *service.PhotoUpload) (*dto.StaffResponse, error) {
	f.lastReq = req
	return &dto.StaffResponse{Staff: models.Staff{ID: "g1", Name: req.Name}}, nil
}

func (f *fakeStaffSrv) Update(_ context.Context, id string, req dto.StaffRequest, _ *service.PhotoUpload) (*dto.StaffResponse, error) {
	f.lastReq = req
	return &dto.StaffResponse{Staff: models.Staff{ID: id, Name: req.Name}}, nil
}

func (f *fakeStaffSrv) Delete(context.Context, string) error { return nil }

func (f *fakeStaffSrv) Photo(context.Context, string, string) (*service.PhotoDownload, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
}

func (f *fakeStaffSrv) ExportAll(_ context.Context, format dto.ExportFormat) (*dto.ExportFile, error) {
	return &dto.ExportFile{Filename: "staff_20240615." + string(format), ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
}

func (f *fakeStaffSrv) Card(_ context.Context, id string) (*dto.ExportFile, error) {
	if f.cardErr != nil {
		return nil, f.cardErr
	}
	return &dto.ExportFile{Filename: "card_" + id + ".pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
}

func (f *fakeStaffSrv) Import(_ context.Context, data []byte) (*dto.StaffImportResult, error) {
	f.imported = string(data)
	if f.importErr != nil {
		return nil, f.importErr
	}
	return &dto.StaffImportResult{Inserted: 1, Skipped: []dto.ImportSkip{{Row: 2, Reason: "name is required"}}}, nil
}

func (f *fakeStaffSrv) ImportTemplate() (*dto.ExportFile, error) {
	return &dto.ExportFile{Filename: "staff_import_template_20240615.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("name,nip\n")}, nil
}

func staffRouter(srv staffService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStaffHandler(srv)
	router := gin.New()
	router.GET("/staff", h.List)
	router.POST("/staff", h.Create)
	router.GET("/staff/export", h.Export)
	router.POST("/staff/import", h.Import)
	router.GET("/staff/import/template", h.ImportTemplate)
	router.GET("/staff/:id", h.Get)
	router.PUT("/staff/:id", h.Update)
	router.GET("/staff/:id/card", h.Card)
	router.GET("/staff/:id/photo", h.Photo)
	return router
}

func TestStaffHandlerCreateMultipart(t *testing.T) {
	srv := &fakeStaffSrv{}
	body, contentType := multipartBody(t, map[string]string{"name": "Siti", "nip": "1987", "first_decree_date": "2010-01-01"}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/staff", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	staffRouter(srv).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, dto.StaffRequest{Name: "Siti", NIP: "1987", FirstDecreeDate: "2010-01-01"}, srv.lastReq)
}

func TestStaffHandlerImport(t *testing.T) {
	srv := &fakeStaffSrv{}
	body, contentType := multipartBody(t, nil, "file", "staff.csv", "name\nSiti\n")
	req := httptest.NewRequest(http.MethodPost, "/staff/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	staffRouter(srv).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "name\nSiti\n", srv.imported)
	assert.Contains(t, rec.Body.String(), `"inserted":1`)
}

func TestStaffHandlerImportRequiresFile(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"other": "x"}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/staff/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	staffRouter(&fakeStaffSrv{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", decodeEnvelope(t, rec).Error["message"])
}

func TestStaffHandlerImportInvalidCSV(t *testing.T) {
	srv := &fakeStaffSrv{importErr: appErrors.Clone(appErrors.ErrValidation, "CSV header must include a name column")}
	body, contentType := multipartBody(t, nil, "file", "staff.csv", "nip\n1\n")
	req := httptest.NewRequest(http.MethodPost, "/staff/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	staffRouter(srv).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffHandlerCard(t *testing.T) {
	rec := httptest.NewRecorder()
	staffRouter(&fakeStaffSrv{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/g1/card", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="card_g1.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = httptest.NewRecorder()
	staffRouter(&fakeStaffSrv{cardErr: appErrors.Clone(appErrors.ErrNotFound, "staff not found")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/nope/card", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaffHandlerExportPDFAndTemplate(t *testing.T) {
	router := staffRouter(&fakeStaffSrv{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/export?format=pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="staff_20240615.pdf"`, rec.Header().Get("Content-Disposition"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/import/template", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "name,nip\n", rec.Body.String())
}

func TestStaffHandlerPhotoNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	staffRouter(&fakeStaffSrv{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/g1/photo?token=x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaffHandlerListDefaults(t *testing.T) {
	srv := &fakeStaffSrv{}
	rec := httptest.NewRecorder()
	staffRouter(srv).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff?page=abc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StaffFilter{Page: 0, PageSize: 20}, srv.lastFilter)
}
