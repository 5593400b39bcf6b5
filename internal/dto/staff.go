package dto

import (
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/pkg/calendar"
)

// StaffRequest is the create/update payload for a staff member.
type StaffRequest struct {
	Name             string `form:"name" json:"name" validate:"required"`
	NIP              string `form:"nip" json:"nip"`
	BirthPlace       string `form:"birth_place" json:"birth_place"`
	BirthDate        string `form:"birth_date" json:"birth_date"`
	Religion         string `form:"religion" json:"religion"`
	Position         string `form:"position" json:"position"`
	NUPTK            string `form:"nuptk" json:"nuptk"`
	FirstDecreeDate  string `form:"first_decree_date" json:"first_decree_date"`
	LatestDecreeDate string `form:"latest_decree_date" json:"latest_decree_date"`
	Education        string `form:"education" json:"education"`
}

// StaffResponse is a stored staff member plus live tenure figures.
type StaffResponse struct {
	models.Staff
	TotalTenure     calendar.Interval `json:"total_tenure"`
	GradeTenure     calendar.Interval `json:"grade_tenure"`
	RemainingTenure calendar.Interval `json:"remaining_tenure"`
	PhotoURL        string            `json:"photo_url,omitempty"`
}

// ImportSkip explains why an import row was not inserted. Row counts data
// rows from 1, excluding the header.
type ImportSkip struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// StaffImportResult summarises a CSV import.
type StaffImportResult struct {
	Inserted int          `json:"inserted"`
	Skipped  []ImportSkip `json:"skipped"`
}
