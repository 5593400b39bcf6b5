package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/noah-isme/sekolah-records-api/internal/dto"
	"github.com/noah-isme/sekolah-records-api/pkg/calendar"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
	"github.com/noah-isme/sekolah-records-api/pkg/export"
)

const (
	contentTypeCSV = "text/csv; charset=utf-8"
	contentTypePDF = "application/pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type cardRenderer interface {
	Render(card export.Card) ([]byte, error)
}

// ExportService renders roster datasets and identity cards into downloadable files.
type ExportService struct {
	csv  csvRenderer
	pdf  pdfRenderer
	card cardRenderer
	now  func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(csv csvRenderer, pdf pdfRenderer, card cardRenderer) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if card == nil {
		card = export.NewCardRenderer()
	}
	return &ExportService{csv: csv, pdf: pdf, card: card, now: time.Now}
}

// ParseFormat validates a format query value; empty means CSV.
func ParseFormat(raw string) (dto.ExportFormat, error) {
	switch dto.ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", dto.ExportFormatCSV:
		return dto.ExportFormatCSV, nil
	case dto.ExportFormatPDF:
		return dto.ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// Roster renders data in the requested format. name prefixes the file name.
func (s *ExportService) Roster(format dto.ExportFormat, name, title string, data export.Dataset) (*dto.ExportFile, error) {
	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case dto.ExportFormatCSV:
		payload, err = s.csv.Render(data)
		contentType = contentTypeCSV
	case dto.ExportFormatPDF:
		payload, err = s.pdf.Render(data, title)
		contentType = contentTypePDF
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("%s_%s.%s", name, s.now().Format("20060102"), format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

// Card renders a single identity card.
func (s *ExportService) Card(name string, card export.Card) (*dto.ExportFile, error) {
	payload, err := s.card.Render(card)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render card")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("card_%s.pdf", name),
		ContentType: contentTypePDF,
		Data:        payload,
	}, nil
}

// formatInterval renders an interval as "X th Y bln" for exports.
func formatInterval(iv calendar.Interval) string {
	return fmt.Sprintf("%d th %d bln", iv.Years, iv.Months)
}

// cardImageType maps a stored photo name to the gofpdf image type.
func cardImageType(name string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".png"):
		return "PNG"
	case strings.HasSuffix(strings.ToLower(name), ".gif"):
		return "GIF"
	case strings.HasSuffix(strings.ToLower(name), ".jpg"), strings.HasSuffix(strings.ToLower(name), ".jpeg"):
		return "JPG"
	default:
		return ""
	}
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
