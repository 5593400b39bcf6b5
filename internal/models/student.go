package models

import "time"

// Student represents a learner record. BirthDate is stored as YYYY-MM-DD
// text; AgeYears and AgeMonths hold the age computed when the row was last
// written and are never served as the current age.
type Student struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ClassLabel  string    `db:"class_label" json:"class_label"`
	Track       string    `db:"track" json:"track"`
	BirthPlace  string    `db:"birth_place" json:"birth_place"`
	BirthDate   string    `db:"birth_date" json:"birth_date"`
	PriorSchool string    `db:"prior_school" json:"prior_school"`
	Address     string    `db:"address" json:"address"`
	AgeYears    int       `db:"age_years" json:"-"`
	AgeMonths   int       `db:"age_months" json:"-"`
	Photo       *string   `db:"photo" json:"photo,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Keyword  string
	Page     int
	PageSize int
}
