package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-records-api/internal/dto"
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/pkg/calendar"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
	"github.com/noah-isme/sekolah-records-api/pkg/export"
)

// StaffImportColumns is the header accepted by the staff CSV import.
var StaffImportColumns = []string{"name", "nip", "birth_place", "birth_date", "religion", "position", "nuptk", "first_decree_date", "latest_decree_date", "education"}

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	ListAll(ctx context.Context) ([]models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	Create(ctx context.Context, member *models.Staff) error
	CreateBatch(ctx context.Context, members []models.Staff) error
	Update(ctx context.Context, member *models.Staff) error
	Delete(ctx context.Context, id string) error
}

type cardExporter interface {
	Card(name string, card export.Card) (*dto.ExportFile, error)
}

// StaffExporter renders staff rosters and identity cards.
type StaffExporter interface {
	rosterExporter
	cardExporter
}

// StaffService handles staff use-cases.
type StaffService struct {
	repo      staffRepository
	photos    recordPhotos
	calc      *calendar.Calculator
	exports   StaffExporter
	dashboard dashboardInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs the staff service.
func NewStaffService(repo staffRepository, photos recordPhotos, calc *calendar.Calculator, exports StaffExporter, dashboard dashboardInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = calendar.NewCalculator(nil, nil, logger)
	}
	return &StaffService{
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

// List returns staff matching the filter with live tenure figures.
func (s *StaffService) List(ctx context.Context, filter models.StaffFilter) ([]dto.StaffResponse, *models.Pagination, error) {
	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list staff")
	}
	result := make([]dto.StaffResponse, 0, len(staff))
	for i := range staff {
		result = append(result, s.toResponse(&staff[i]))
	}
	return result, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one staff member.
func (s *StaffService) Get(ctx context.Context, id string) (*dto.StaffResponse, error) {
	member, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(member)
	return &resp, nil
}

// Create registers a staff member, storing the optional photo first.
func (s *StaffService) Create(ctx context.Context, req dto.StaffRequest, photo *PhotoUpload) (*dto.StaffResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "name is required")
	}
	member := &models.Staff{}
	s.apply(member, req)

	stored, err := s.storePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}
	member.Photo = stored

	if err := s.repo.Create(ctx, member); err != nil {
		s.discardPhoto(ctx, stored)
		return nil, appErrors.Internal(err, "failed to create staff")
	}
	s.afterWrite(ctx, "create")
	resp := s.toResponse(member)
	return &resp, nil
}

// Update replaces a staff member's fields, swapping the photo only when a new
// accepted file is supplied.
func (s *StaffService) Update(ctx context.Context, id string, req dto.StaffRequest, photo *PhotoUpload) (*dto.StaffResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "name is required")
	}
	member, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(member, req)

	stored, err := s.storePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}
	previous := member.Photo
	if stored != nil {
		member.Photo = stored
	}

	if err := s.repo.Update(ctx, member); err != nil {
		s.discardPhoto(ctx, stored)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Internal(err, "failed to update staff")
	}
	if stored != nil {
		s.discardPhoto(ctx, previous)
	}
	s.afterWrite(ctx, "update")
	resp := s.toResponse(member)
	return &resp, nil
}

// Delete removes a staff member. The photo is discarded before the row.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	member, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	s.discardPhoto(ctx, member.Photo)
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return appErrors.Internal(err, "failed to delete staff")
	}
	s.afterWrite(ctx, "delete")
	return nil
}

// Photo opens the staff member's photo for a signed download.
func (s *StaffService) Photo(ctx context.Context, id, token string) (*PhotoDownload, error) {
	member, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.photos == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	return s.photos.Open(member.ID, token, member.Photo)
}

// ExportAll renders every staff member with live tenure figures.
func (s *StaffService) ExportAll(ctx context.Context, format dto.ExportFormat) (*dto.ExportFile, error) {
	staff, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load staff")
	}
	data := export.Dataset{
		Headers: []string{"name", "nip", "nuptk", "position", "birth_date", "education", "total_tenure", "grade_tenure", "remaining_tenure"},
		Rows:    make([]map[string]string, 0, len(staff)),
	}
	for _, m := range staff {
		data.Rows = append(data.Rows, map[string]string{
			"name":             m.Name,
			"nip":              m.NIP,
			"nuptk":            m.NUPTK,
			"position":         m.Position,
			"birth_date":       m.BirthDate,
			"education":        m.Education,
			"total_tenure":     formatInterval(s.calc.Tenure(m.FirstDecreeDate)),
			"grade_tenure":     formatInterval(s.calc.Tenure(m.LatestDecreeDate)),
			"remaining_tenure": formatInterval(s.calc.RemainingTenure(m.BirthDate)),
		})
	}
	return s.exports.Roster(format, "staff", "Data Pegawai", data)
}

// Card renders the identity card of one staff member.
func (s *StaffService) Card(ctx context.Context, id string) (*dto.ExportFile, error) {
	member, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	birth := strings.Trim(strings.Join([]string{member.BirthPlace, member.BirthDate}, ", "), ", ")
	card := export.Card{
		Title:    "KARTU PEGAWAI",
		Subtitle: member.Position,
		Fields: []export.CardField{
			{Label: "Nama", Value: member.Name},
			{Label: "NIP", Value: member.NIP},
			{Label: "NUPTK", Value: member.NUPTK},
			{Label: "TTL", Value: birth},
			{Label: "Pendidikan", Value: member.Education},
			{Label: "Masa Kerja", Value: formatInterval(s.calc.Tenure(member.FirstDecreeDate))},
			{Label: "Masa Kerja Gol.", Value: formatInterval(s.calc.Tenure(member.LatestDecreeDate))},
			{Label: "Sisa Masa", Value: formatInterval(s.calc.RemainingTenure(member.BirthDate))},
		},
	}
	if s.photos != nil && member.Photo != nil {
		photo, err := s.photos.OpenStored(member.Photo)
		if err != nil {
			s.logger.Warn("rendering card without photo", zap.String("staff_id", member.ID), zap.Error(err))
		} else {
			defer closeQuietly(photo.File)
			card.Photo = photo.File
			card.PhotoType = cardImageType(photo.Filename)
		}
	}
	return s.exports.Card(member.ID, card)
}

// Import inserts staff rows from a CSV document in one transaction. Rows
// without a name are skipped and reported.
func (s *StaffService) Import(ctx context.Context, data []byte) (*dto.StaffImportResult, error) {
	headers, rows, err := export.ReadCSV(data)
	if err != nil {
		return nil, appErrors.Validation(err, "file is not a readable CSV")
	}
	if !containsString(headers, "name") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "CSV header must include a name column")
	}

	result := &dto.StaffImportResult{Skipped: []dto.ImportSkip{}}
	members := make([]models.Staff, 0, len(rows))
	for i, row := range rows {
		req := dto.StaffRequest{
			Name:             strings.TrimSpace(row["name"]),
			NIP:              row["nip"],
			BirthPlace:       row["birth_place"],
			BirthDate:        row["birth_date"],
			Religion:         row["religion"],
			Position:         row["position"],
			NUPTK:            row["nuptk"],
			FirstDecreeDate:  row["first_decree_date"],
			LatestDecreeDate: row["latest_decree_date"],
			Education:        row["education"],
		}
		if err := s.validator.Struct(req); err != nil {
			result.Skipped = append(result.Skipped, dto.ImportSkip{Row: i + 1, Reason: "name is required"})
			continue
		}
		var member models.Staff
		s.apply(&member, req)
		members = append(members, member)
	}

	if len(members) > 0 {
		if err := s.repo.CreateBatch(ctx, members); err != nil {
			return nil, appErrors.Internal(err, "failed to import staff")
		}
	}
	result.Inserted = len(members)
	s.metrics.RecordImport(result.Inserted, len(result.Skipped))
	if result.Inserted > 0 {
		s.afterWrite(ctx, "import")
	}
	s.logger.Info("staff import finished", zap.Int("inserted", result.Inserted), zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// ImportTemplate returns an empty CSV carrying the accepted import header.
func (s *StaffService) ImportTemplate() (*dto.ExportFile, error) {
	return s.exports.Roster(dto.ExportFormatCSV, "staff_import_template", "", export.Dataset{Headers: StaffImportColumns})
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (s *StaffService) find(ctx context.Context, id string) (*models.Staff, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Internal(err, "failed to load staff")
	}
	return member, nil
}

func (s *StaffService) apply(member *models.Staff, req dto.StaffRequest) {
	member.Name = req.Name
	member.NIP = req.NIP
	member.BirthPlace = req.BirthPlace
	member.BirthDate = req.BirthDate
	member.Religion = req.Religion
	member.Position = req.Position
	member.NUPTK = req.NUPTK
	member.FirstDecreeDate = req.FirstDecreeDate
	member.LatestDecreeDate = req.LatestDecreeDate
	member.Education = req.Education

	grade := s.calc.Tenure(req.LatestDecreeDate)
	total := s.calc.Tenure(req.FirstDecreeDate)
	remaining := s.calc.RemainingTenure(req.BirthDate)
	member.GradeTenureYears, member.GradeTenureMonths = grade.Years, grade.Months
	member.TotalTenureYears, member.TotalTenureMonths = total.Years, total.Months
	member.RemainingTenureYears, member.RemainingTenureMonths = remaining.Years, remaining.Months
}

func (s *StaffService) storePhoto(ctx context.Context, photo *PhotoUpload) (*string, error) {
	if s.photos == nil {
		return nil, nil
	}
	return s.photos.Store(ctx, PhotoKindStaff, photo)
}

func (s *StaffService) discardPhoto(ctx context.Context, relPath *string) {
	if s.photos != nil {
		s.photos.Discard(ctx, relPath)
	}
}

func (s *StaffService) afterWrite(ctx context.Context, op string) {
	s.metrics.RecordWrite(string(PhotoKindStaff), op)
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

func (s *StaffService) toResponse(member *models.Staff) dto.StaffResponse {
	resp := dto.StaffResponse{
		Staff:           *member,
		TotalTenure:     s.calc.Tenure(member.FirstDecreeDate),
		GradeTenure:     s.calc.Tenure(member.LatestDecreeDate),
		RemainingTenure: s.calc.RemainingTenure(member.BirthDate),
	}
	if s.photos != nil {
		resp.PhotoURL = s.photos.URL(PhotoKindStaff, member.ID, member.Photo)
	}
	return resp
}
