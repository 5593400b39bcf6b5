package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sekolah-records-api/internal/dto"
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/internal/service"
	"github.com/noah-isme/sekolah-records-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]dto.StudentResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.StudentResponse, error)
	Create(ctx context.Context, req dto.StudentRequest, photo *service.PhotoUpload) (*dto.StudentResponse, error)
	Update(ctx context.Context, id string, req dto.StudentRequest, photo *service.PhotoUpload) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
	Photo(ctx context.Context, id, token string) (*service.PhotoDownload, error)
	ExportAll(ctx context.Context, format dto.ExportFormat) (*dto.ExportFile, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param keyword query string false "Matches name, class, track, address, prior school or birth place"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	keyword, page, size := listQuery(c)
	students, pagination, err := h.students.List(c.Request.Context(), models.StudentFilter{Keyword: keyword, Page: page, PageSize: size})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.StudentRequest true "Student payload"
// @Param photo formData file false "Photo (png, jpg, jpeg, gif)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.StudentRequest
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

	student, err := h.students.Create(c.Request.Context(), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Description Replaces all fields. The photo changes only when a new file is sent.
// @Tags Students
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Param photo formData file false "Photo (png, jpg, jpeg, gif)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.StudentRequest
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

	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Photo godoc
// @Summary Download student photo
// @Tags Students
// @Produce image/png,image/jpeg,image/gif
// @Param id path string true "Student ID"
// @Param token query string true "Signed token from photo_url"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/photo [get]
func (h *StudentHandler) Photo(c *gin.Context) {
	photo, err := h.students.Photo(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendPhoto(c, photo)
}

// Export godoc
// @Summary Export all students
// @Tags Students
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.students.ExportAll(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}
