package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-records-api/internal/dto"
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/pkg/calendar"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
	"github.com/noah-isme/sekolah-records-api/pkg/export"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type recordPhotos interface {
	Store(ctx context.Context, kind PhotoKind, upload *PhotoUpload) (*string, error)
	Discard(ctx context.Context, relPath *string)
	URL(kind PhotoKind, recordID string, relPath *string) string
	Open(recordID, token string, relPath *string) (*PhotoDownload, error)
	OpenStored(relPath *string) (*PhotoDownload, error)
}

type rosterExporter interface {
	Roster(format dto.ExportFormat, name, title string, data export.Dataset) (*dto.ExportFile, error)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	photos    recordPhotos
	calc      *calendar.Calculator
	exports   rosterExporter
	dashboard dashboardInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, photos recordPhotos, calc *calendar.Calculator, exports rosterExporter, dashboard dashboardInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = calendar.NewCalculator(nil, nil, logger)
	}
	return &StudentService{
		repo:      repo,
		photos:    photos,
		calc:      calc,
		exports:   exports,
		dashboard: dashboard,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns students matching the filter with live ages.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]dto.StudentResponse, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, s.toResponse(&students[i]))
	}
	return result, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one student with its live age.
func (s *StudentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(student)
	return &resp, nil
}

// Create registers a new student, storing the optional photo first.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest, photo *PhotoUpload) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "name is required")
	}
	student := &models.Student{}
	s.apply(student, req)

	stored, err := s.storePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}
	student.Photo = stored

	if err := s.repo.Create(ctx, student); err != nil {
		s.discardPhoto(ctx, stored)
		return nil, appErrors.Internal(err, "failed to create student")
	}
	s.afterWrite(ctx, "create")
	resp := s.toResponse(student)
	return &resp, nil
}

// Update replaces a student's fields. The stored photo changes only when a
// new accepted file is supplied; the previous file is then discarded.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest, photo *PhotoUpload) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "name is required")
	}
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(student, req)

	stored, err := s.storePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}
	previous := student.Photo
	if stored != nil {
		student.Photo = stored
	}

	if err := s.repo.Update(ctx, student); err != nil {
		s.discardPhoto(ctx, stored)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to update student")
	}
	if stored != nil {
		s.discardPhoto(ctx, previous)
	}
	s.afterWrite(ctx, "update")
	resp := s.toResponse(student)
	return &resp, nil
}

// Delete removes a student. The photo is discarded before the row.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	student, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	s.discardPhoto(ctx, student.Photo)
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to delete student")
	}
	s.afterWrite(ctx, "delete")
	return nil
}

// Photo opens the student's photo for a signed download.
func (s *StudentService) Photo(ctx context.Context, id, token string) (*PhotoDownload, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.photos == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	return s.photos.Open(student.ID, token, student.Photo)
}

// ExportAll renders every student with live ages.
func (s *StudentService) ExportAll(ctx context.Context, format dto.ExportFormat) (*dto.ExportFile, error) {
	students, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students")
	}
	data := export.Dataset{
		Headers: []string{"name", "class_label", "track", "birth_place", "birth_date", "age", "prior_school", "address"},
		Rows:    make([]map[string]string, 0, len(students)),
	}
	for _, st := range students {
		data.Rows = append(data.Rows, map[string]string{
			"name":         st.Name,
			"class_label":  st.ClassLabel,
			"track":        st.Track,
			"birth_place":  st.BirthPlace,
			"birth_date":   st.BirthDate,
			"age":          formatInterval(s.calc.Age(st.BirthDate)),
			"prior_school": st.PriorSchool,
			"address":      st.Address,
		})
	}
	return s.exports.Roster(format, "students", "Data Siswa", data)
}

func (s *StudentService) find(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) apply(student *models.Student, req dto.StudentRequest) {
	student.Name = req.Name
	student.ClassLabel = req.ClassLabel
	student.Track = req.Track
	student.BirthPlace = req.BirthPlace
	student.BirthDate = req.BirthDate
	student.PriorSchool = req.PriorSchool
	student.Address = req.Address

	age := s.calc.Age(req.BirthDate)
	student.AgeYears = age.Years
	student.AgeMonths = age.Months
}

func (s *StudentService) storePhoto(ctx context.Context, photo *PhotoUpload) (*string, error) {
	if s.photos == nil {
		return nil, nil
	}
	return s.photos.Store(ctx, PhotoKindStudent, photo)
}

func (s *StudentService) discardPhoto(ctx context.Context, relPath *string) {
	if s.photos != nil {
		s.photos.Discard(ctx, relPath)
	}
}

func (s *StudentService) afterWrite(ctx context.Context, op string) {
	s.metrics.RecordWrite(string(PhotoKindStudent), op)
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

func (s *StudentService) toResponse(student *models.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		Student: *student,
		Age:     s.calc.Age(student.BirthDate),
	}
	if s.photos != nil {
		resp.PhotoURL = s.photos.URL(PhotoKindStudent, student.ID, student.Photo)
	}
	return resp
}

func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
