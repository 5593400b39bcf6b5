package dto

import (
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/pkg/calendar"
)

// StudentRequest is the create/update payload for a student. It binds from
// JSON bodies and from multipart forms carrying an optional photo.
type StudentRequest struct {
	Name        string `form:"name" json:"name" validate:"required"`
	ClassLabel  string `form:"class_label" json:"class_label"`
	Track       string `form:"track" json:"track"`
	BirthPlace  string `form:"birth_place" json:"birth_place"`
	BirthDate   string `form:"birth_date" json:"birth_date"`
	PriorSchool string `form:"prior_school" json:"prior_school"`
	Address     string `form:"address" json:"address"`
}

// StudentResponse is a stored student plus its live age.
type StudentResponse struct {
	models.Student
	Age      calendar.Interval `json:"age"`
	PhotoURL string            `json:"photo_url,omitempty"`
}
