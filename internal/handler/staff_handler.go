package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sekolah-records-api/internal/dto"
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/internal/service"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
	"github.com/noah-isme/sekolah-records-api/pkg/response"
)

// maxImportSize bounds the CSV accepted by the staff import.
const maxImportSize = 5 << 20

type staffService interface {
	List(ctx context.Context, filter models.StaffFilter) ([]dto.StaffResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.StaffResponse, error)
	Create(ctx context.Context, req dto.StaffRequest, photo *service.PhotoUpload) (*dto.StaffResponse, error)
	Update(ctx context.Context, id string, req dto.StaffRequest, photo *service.PhotoUpload) (*dto.StaffResponse, error)
	Delete(ctx context.Context, id string) error
	Photo(ctx context.Context, id, token string) (*service.PhotoDownload, error)
	ExportAll(ctx context.Context, format dto.ExportFormat) (*dto.ExportFile, error)
	Card(ctx context.Context, id string) (*dto.ExportFile, error)
	Import(ctx context.Context, data []byte) (*dto.StaffImportResult, error)
	ImportTemplate() (*dto.ExportFile, error)
}

// StaffHandler exposes staff endpoints.
type StaffHandler struct {
	staff staffService
}

// NewStaffHandler constructs StaffHandler.
func NewStaffHandler(staff staffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Param keyword query string false "Matches name, NIP, position or NUPTK"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	keyword, page, size := listQuery(c)
	staff, pagination, err := h.staff.List(c.Request.Context(), models.StaffFilter{Keyword: keyword, Page: page, PageSize: size})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, pagination)
}

// Get godoc
// @Summary Get staff detail
// @Tags Staff
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	member, err := h.staff.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Create staff member
// @Tags Staff
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.StaffRequest true "Staff payload"
// @Param photo formData file false "Photo (png, jpg, jpeg, gif)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	var req dto.StaffRequest
	if err := bindRecord(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	photo, release, err := photoFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	member, err := h.staff.Create(c.Request.Context(), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update staff member
// @Tags Staff
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Staff ID"
// @Param payload body dto.StaffRequest true "Staff payload"
// @Param photo formData file false "Photo (png, jpg, jpeg, gif)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/{id} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	var req dto.StaffRequest
	if err := bindRecord(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	photo, release, err := photoFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	member, err := h.staff.Update(c.Request.Context(), c.Param("id"), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Delete godoc
// @Summary Delete staff member
// @Tags Staff
// @Param id path string true "Staff ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /staff/{id} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	if err := h.staff.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Photo godoc
// @Summary Download staff photo
// @Tags Staff
// @Produce image/png,image/jpeg,image/gif
// @Param id path string true "Staff ID"
// @Param token query string true "Signed token from photo_url"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /staff/{id}/photo [get]
func (h *StaffHandler) Photo(c *gin.Context) {
	photo, err := h.staff.Photo(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendPhoto(c, photo)
}

// Export godoc
// @Summary Export all staff
// @Tags Staff
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200
// @Router /staff/export [get]
func (h *StaffHandler) Export(c *gin.Context) {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.staff.ExportAll(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Card godoc
// @Summary Staff identity card
// @Tags Staff
// @Produce application/pdf
// @Param id path string true "Staff ID"
// @Success 200
// @Failure 404 {object} response.Envelope
// @Router /staff/{id}/card [get]
func (h *StaffHandler) Card(c *gin.Context) {
	file, err := h.staff.Card(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Import godoc
// @Summary Import staff from CSV
// @Description Rows without a name are skipped and reported. Inserted rows commit together.
// @Tags Staff
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /staff/import [post]
func (h *StaffHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload"))
		return
	}
	if header.Size > maxImportSize {
		response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("import file exceeds %d bytes", maxImportSize)))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}

	result, err := h.staff.Import(c.Request.Context(), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// ImportTemplate godoc
// @Summary Staff import CSV template
// @Tags Staff
// @Produce text/csv
// @Success 200
// @Router /staff/import/template [get]
func (h *StaffHandler) ImportTemplate(c *gin.Context) {
	file, err := h.staff.ImportTemplate()
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}
