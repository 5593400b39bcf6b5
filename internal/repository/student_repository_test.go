package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-records-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

const studentID = "6f1c2a9e-4b7d-4c1a-9e2f-3b8d5a7c1e90"

var studentRowColumns = []string{"id", "name", "class_label", "track", "birth_place", "birth_date", "prior_school", "address", "age_years", "age_months", "photo", "created_at", "updated_at"}

func TestStudentRepositoryListWithKeyword(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "Budi", "X IPA 1", "IPA", "Bandung", "2008-04-02", "SMPN 1", "Jl. Merdeka", 16, 2, "students/a_budi.png", now, now).
		AddRow("s2", "Citra", "X IPA 2", "IPA", "Bogor", "not-a-date", "", "", 0, 0, nil, now, now)
	mock.ExpectQuery(`(?s)SELECT id, name, class_label.* FROM students WHERE LOWER\(name\) LIKE \$1 OR LOWER\(class_label\) LIKE \$1 OR LOWER\(track\) LIKE \$1.*LOWER\(birth_place\) LIKE \$1 ORDER BY name ASC LIMIT 10 OFFSET 10`).
		WithArgs("%ipa%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students WHERE LOWER\(name\) LIKE \$1`).
		WithArgs("%ipa%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Keyword: "  IPA ", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 12, total)
	require.NotNil(t, students[0].Photo)
	assert.Equal(t, "students/a_budi.png", *students[0].Photo)
	assert.Nil(t, students[1].Photo)
	assert.Equal(t, "not-a-date", students[1].BirthDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListWithoutKeyword(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`FROM students ORDER BY name ASC LIMIT 20 OFFSET 0`).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	students, total, err := repo.List(context.Background(), models.StudentFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NotNil(t, students)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`FROM students WHERE id = \$1`).WithArgs(studentID).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), studentID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	args := make([]driver.Value, len(studentRowColumns))
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO students").WithArgs(args...).WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{Name: "Budi", BirthDate: "2008-04-02", AgeYears: 16, AgeMonths: 2}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET name").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Student{ID: studentID, Name: "Budi"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(`DELETE FROM students WHERE id = \$1`).WithArgs(studentID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM students WHERE id = \$1`).WithArgs(studentID).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), studentID))
	assert.ErrorIs(t, repo.Delete(context.Background(), studentID), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM students ORDER BY name ASC$`).
		WillReturnRows(sqlmock.NewRows(studentRowColumns).AddRow("s1", "Budi", "", "", "", "", "", "", 0, 0, nil, now, now))

	students, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryRejectsMalformedID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, &models.Student{ID: "abc", Name: "Budi"}), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, "42"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
