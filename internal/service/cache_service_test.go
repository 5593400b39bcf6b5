package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type cachedValue struct {
	Name string `json:"name"`
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, NewMetricsService(), 0, zap.NewNop(), true)

	var dest cachedValue
	assert.False(t, svc.Get(context.Background(), "k", &dest))

	svc.Set(context.Background(), "k", cachedValue{Name: "Budi"}, 0)
	assert.True(t, svc.Get(context.Background(), "k", &dest))
	assert.Equal(t, "Budi", dest.Name)

	svc.Invalidate(context.Background(), "k")
	assert.False(t, svc.Get(context.Background(), "k", &dest))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	svc.Set(context.Background(), "k", cachedValue{Name: "x"}, 0)
	assert.Empty(t, repo.values)
	assert.False(t, svc.Enabled())

	var nilSvc *CacheService
	assert.False(t, nilSvc.Get(context.Background(), "k", &cachedValue{}))
	nilSvc.Invalidate(context.Background(), "k")
}

func TestCacheServiceFailuresDegradeToMiss(t *testing.T) {
	repo := &mockCacheRepo{getErr: errors.New("conn refused"), setErr: errors.New("conn refused")}
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)

	svc.Set(context.Background(), "k", cachedValue{Name: "x"}, 0)
	assert.False(t, svc.Get(context.Background(), "k", &cachedValue{}))
}

func TestCacheServiceInvalidatePattern(t *testing.T) {
	repo := &mockCacheRepo{values: map[string]string{"dashboard:a": "1", "dashboard:b": "2", "other": "3"}}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	svc.InvalidatePattern(context.Background(), "dashboard:*")
	assert.Equal(t, map[string]string{"other": "3"}, repo.values)
}
