package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sekolah-records-api/internal/models"
)

const staffColumns = `id, name, nip, birth_place, birth_date, religion, position, nuptk, first_decree_date, latest_decree_date, education,
        grade_tenure_years, grade_tenure_months, total_tenure_years, total_tenure_months, remaining_tenure_years, remaining_tenure_months,
        photo, created_at, updated_at`

const insertStaffQuery = `INSERT INTO staff (id, name, nip, birth_place, birth_date, religion, position, nuptk, first_decree_date, latest_decree_date, education,
        grade_tenure_years, grade_tenure_months, total_tenure_years, total_tenure_months, remaining_tenure_years, remaining_tenure_months,
        photo, created_at, updated_at)
        VALUES (:id, :name, :nip, :birth_place, :birth_date, :religion, :position, :nuptk, :first_decree_date, :latest_decree_date, :education,
        :grade_tenure_years, :grade_tenure_months, :total_tenure_years, :total_tenure_months, :remaining_tenure_years, :remaining_tenure_months,
        :photo, :created_at, :updated_at)`

// StaffRepository manages persistence for staff records.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff matching the keyword ordered by name.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	base := "FROM staff"
	var args []interface{}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		args = append(args, likePattern(strings.ToLower(keyword)))
		base += " WHERE LOWER(name) LIKE $1 OR LOWER(nip) LIKE $1 OR LOWER(position) LIKE $1 OR LOWER(nuptk) LIKE $1"
	}

	_, size, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", staffColumns, base, size, offset)

	staff := []models.Staff{}
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}
	return staff, total, nil
}

// ListAll returns every staff member ordered by name.
func (r *StaffRepository) ListAll(ctx context.Context) ([]models.Staff, error) {
	staff := []models.Staff{}
	if err := r.db.SelectContext(ctx, &staff, "SELECT "+staffColumns+" FROM staff ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list all staff: %w", err)
	}
	return staff, nil
}

// FindByID fetches a staff member by ID. sql.ErrNoRows is returned unwrapped.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	var member models.Staff
	if err := r.db.GetContext(ctx, &member, "SELECT "+staffColumns+" FROM staff WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff: %w", err)
	}
	return &member, nil
}

// Create inserts a new staff record.
func (r *StaffRepository) Create(ctx context.Context, member *models.Staff) error {
	prepareStaffInsert(member, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertStaffQuery, member); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// CreateBatch inserts all members in a single transaction.
func (r *StaffRepository) CreateBatch(ctx context.Context, members []models.Staff) error {
	if len(members) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staff import tx: %w", err)
	}
	now := time.Now().UTC()
	for i := range members {
		prepareStaffInsert(&members[i], now)
		if _, err := tx.NamedExecContext(ctx, insertStaffQuery, members[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import staff row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staff import tx: %w", err)
	}
	return nil
}

// Update replaces every mutable column of an existing staff member.
func (r *StaffRepository) Update(ctx context.Context, member *models.Staff) error {
	if !validID(member.ID) {
		return sql.ErrNoRows
	}
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET name = :name, nip = :nip, birth_place = :birth_place, birth_date = :birth_date,
        religion = :religion, position = :position, nuptk = :nuptk, first_decree_date = :first_decree_date,
        latest_decree_date = :latest_decree_date, education = :education,
        grade_tenure_years = :grade_tenure_years, grade_tenure_months = :grade_tenure_months,
        total_tenure_years = :total_tenure_years, total_tenure_months = :total_tenure_months,
        remaining_tenure_years = :remaining_tenure_years, remaining_tenure_months = :remaining_tenure_months,
        photo = :photo, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, member)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a staff row. sql.ErrNoRows is returned when nothing matched.
func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return sql.ErrNoRows
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	return expectAffected(res)
}

func prepareStaffInsert(member *models.Staff, now time.Time) {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
}
