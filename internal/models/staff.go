package models

import "time"

// Staff represents a teacher or administrative employee.
//
// Decree dates are the appointment decrees (SK): the first one starts total
// tenure, the latest one starts tenure in the current grade. The *Years and
// *Months columns are snapshots taken on write.
type Staff struct {
	ID                    string    `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	NIP                   string    `db:"nip" json:"nip"`
	BirthPlace            string    `db:"birth_place" json:"birth_place"`
	BirthDate             string    `db:"birth_date" json:"birth_date"`
	Religion              string    `db:"religion" json:"religion"`
	Position              string    `db:"position" json:"position"`
	NUPTK                 string    `db:"nuptk" json:"nuptk"`
	FirstDecreeDate       string    `db:"first_decree_date" json:"first_decree_date"`
	LatestDecreeDate      string    `db:"latest_decree_date" json:"latest_decree_date"`
	Education             string    `db:"education" json:"education"`
	GradeTenureYears      int       `db:"grade_tenure_years" json:"-"`
	GradeTenureMonths     int       `db:"grade_tenure_months" json:"-"`
	TotalTenureYears      int       `db:"total_tenure_years" json:"-"`
	TotalTenureMonths     int       `db:"total_tenure_months" json:"-"`
	RemainingTenureYears  int       `db:"remaining_tenure_years" json:"-"`
	RemainingTenureMonths int       `db:"remaining_tenure_months" json:"-"`
	Photo                 *string   `db:"photo" json:"photo,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// StaffFilter captures filtering options for listing staff.
type StaffFilter struct {
	Keyword  string
	Page     int
	PageSize int
}
