package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// CardField is one labelled line on an identity card.
type CardField struct {
	Label string
	Value string
}

// Card describes a single identity card page.
type Card struct {
	Title    string
	Subtitle string
	Fields   []CardField
	// Photo is optional; PhotoType is the gofpdf image type ("PNG", "JPG", "GIF").
	Photo     io.Reader
	PhotoType string
}

// CardRenderer renders ID-1 sized identity cards.
type CardRenderer struct{}

// NewCardRenderer constructs a card renderer.
func NewCardRenderer() *CardRenderer {
	return &CardRenderer{}
}

// Render produces a one page PDF for the card.
func (r *CardRenderer) Render(card Card) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 85.6, Ht: 54},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(24, 78, 119)
	pdf.Rect(0, 0, 85.6, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetXY(4, 2)
	pdf.CellFormat(77.6, 4, tr(card.Title), "", 2, "C", false, 0, "")
	pdf.SetFont("Arial", "", 6)
	pdf.CellFormat(77.6, 3, tr(card.Subtitle), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	textX := 4.0
	if card.Photo != nil && card.PhotoType != "" {
		opts := gofpdf.ImageOptions{ImageType: card.PhotoType, ReadDpi: false}
		pdf.RegisterImageOptionsReader("photo", opts, card.Photo)
		if pdf.Ok() {
			pdf.ImageOptions("photo", 4, 13, 20, 25, false, opts, 0, "")
			textX = 27
		} else {
			// An unreadable photo should not prevent the card from rendering.
			pdf.ClearError()
		}
	}

	y := 13.0
	for _, field := range card.Fields {
		pdf.SetXY(textX, y)
		pdf.SetFont("Arial", "B", 6)
		pdf.CellFormat(20, 3.6, tr(field.Label), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 6)
		pdf.CellFormat(85.6-textX-24, 3.6, tr(": "+field.Value), "", 0, "", false, 0, "")
		y += 3.8
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	return buf.Bytes(), nil
}
