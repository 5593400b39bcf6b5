package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sekolah-records-api/internal/models"
)

// DashboardRepository exposes the aggregate queries behind the dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository instantiates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Totals counts students, staff and the distinct non-empty class labels and tracks.
func (r *DashboardRepository) Totals(ctx context.Context) (*models.DashboardTotals, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students) AS students,
        (SELECT COUNT(*) FROM staff) AS staff,
        (SELECT COUNT(DISTINCT class_label) FROM students WHERE class_label <> '') AS classes,
        (SELECT COUNT(DISTINCT track) FROM students WHERE track <> '') AS tracks`
	var totals models.DashboardTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	return &totals, nil
}

// StudentsPerTrack groups students by track. Empty tracks are reported under
// models.UndefinedTrack.
func (r *DashboardRepository) StudentsPerTrack(ctx context.Context) ([]models.TrackCount, error) {
	const query = `SELECT COALESCE(NULLIF(track, ''), $1) AS track, COUNT(*) AS total
        FROM students GROUP BY 1 ORDER BY 1`
	rows := []models.TrackCount{}
	if err := r.db.SelectContext(ctx, &rows, query, models.UndefinedTrack); err != nil {
		return nil, fmt.Errorf("students per track: %w", err)
	}
	return rows, nil
}
