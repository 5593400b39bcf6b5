package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/pkg/calendar"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
)

// fixedToday is the date every service test treats as today.
var fixedToday = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

func fixedCalculator() *calendar.Calculator {
	return calendar.NewCalculator(func() time.Time { return fixedToday }, time.UTC, nil)
}

type mockStudentRepo struct {
	students  map[string]models.Student
	listTotal int
	err       error
	updateErr error
	deleted   []string
	created   int
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.sorted(), m.listTotal, nil
}

func (m *mockStudentRepo) ListAll(ctx context.Context) ([]models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(), nil
}

func (m *mockStudentRepo) sorted() []models.Student {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.err != nil {
		return m.err
	}
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.created++
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockStaffRepo struct {
	staff     map[string]models.Staff
	batches   [][]models.Staff
	batchErr  error
	updateErr error
}

func (m *mockStaffRepo) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	out := m.sorted()
	return out, len(out), nil
}

func (m *mockStaffRepo) ListAll(ctx context.Context) ([]models.Staff, error) {
	return m.sorted(), nil
}

func (m *mockStaffRepo) sorted() []models.Staff {
	out := make([]models.Staff, 0, len(m.staff))
	for _, s := range m.staff {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockStaffRepo) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if s, ok := m.staff[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) Create(ctx context.Context, member *models.Staff) error {
	if m.staff == nil {
		m.staff = make(map[string]models.Staff)
	}
	if member.ID == "" {
		member.ID = "generated"
	}
	m.staff[member.ID] = *member
	return nil
}

func (m *mockStaffRepo) CreateBatch(ctx context.Context, members []models.Staff) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.batches = append(m.batches, members)
	return nil
}

func (m *mockStaffRepo) Update(ctx context.Context, member *models.Staff) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.staff[member.ID] = *member
	return nil
}

func (m *mockStaffRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.staff[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.staff, id)
	return nil
}

// mockPhotos records photo operations in call order.
type mockPhotos struct {
	stored    *string
	storeErr  error
	discarded []string
	calls     []string
}

func (m *mockPhotos) Store(ctx context.Context, kind PhotoKind, upload *PhotoUpload) (*string, error) {
	if upload == nil {
		return nil, nil
	}
	m.calls = append(m.calls, "store")
	return m.stored, m.storeErr
}

func (m *mockPhotos) Discard(ctx context.Context, relPath *string) {
	if relPath == nil {
		return
	}
	m.calls = append(m.calls, "discard:"+*relPath)
	m.discarded = append(m.discarded, *relPath)
}

func (m *mockPhotos) URL(kind PhotoKind, recordID string, relPath *string) string {
	if relPath == nil {
		return ""
	}
	return "/api/v1/" + string(kind) + "/" + recordID + "/photo?token=t"
}

func (m *mockPhotos) Open(recordID, token string, relPath *string) (*PhotoDownload, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPhotos) OpenStored(relPath *string) (*PhotoDownload, error) {
	return nil, errors.New("no file")
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) {
	m.calls++
}

type mockQueue struct {
	mu       sync.Mutex
	payloads []string
	err      error
}

func (m *mockQueue) Submit(ctx context.Context, jobType, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, jobType+":"+payload)
	return nil
}

type mockCacheRepo struct {
	values  map[string]string
	getErr  error
	setErr  error
	deleted []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = string(raw)
	return nil
}

func (m *mockCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
			m.deleted = append(m.deleted, k)
		}
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
