package repository

import "github.com/google/uuid"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageWindow clamps page parameters and returns the effective page, size and offset.
func pageWindow(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size, (page - 1) * size
}

func likePattern(keyword string) string {
	return "%" + keyword + "%"
}

// validID reports whether id can match a UUID primary key. Anything else is
// treated as a missing row instead of reaching Postgres as a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
