package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerfolio/internal/core/apperr"
	"powerfolio/internal/core/cache"
	"powerfolio/internal/domain"
)

func TestTopTech(t *testing.T) {
	got := TopTech([][]string{{"Go", "React"}, {"Go"}, {"Rust", "React"}, {"Zig"}}, 3)
	assert.Equal(t, []domain.TechCount{
		{Name: "Go", Count: 2},
		{Name: "React", Count: 2},
		{Name: "Rust", Count: 1},
	}, got)
	assert.Empty(t, TopTech(nil, 10))
}

func TestMonthlyTrend(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	created := []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), // 超出窗口
	}
	got := MonthlyTrend(created, now, 6)
	require.Len(t, got, 6)
	assert.Equal(t, domain.MonthCount{Year: 2025, Month: 10, Count: 1}, got[0])
	assert.Equal(t, domain.MonthCount{Year: 2025, Month: 12, Count: 1}, got[2])
	assert.Equal(t, domain.MonthCount{Year: 2026, Month: 1, Count: 0}, got[3])
	assert.Equal(t, domain.MonthCount{Year: 2026, Month: 3, Count: 2}, got[5])
}

func TestDashboard(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	root := e.admin(t, "root@example.com")
	a := e.register(t, "a", "a@example.com")
	p1 := e.submit(t, a, "one", "Go", "React")
	p2 := e.submit(t, a, "two", "Go")
	p3 := e.submit(t, a, "three", "Rust")
	_, err := e.projSvc.Approve(ctx, root, p1.ID)
	require.NoError(t, err)
	_, err = e.projSvc.Approve(ctx, root, p2.ID)
	require.NoError(t, err)
	_, err = e.projSvc.Reject(ctx, root, p3.ID, "")
	require.NoError(t, err)
	_, err = e.projSvc.Get(ctx, p2.ID)
	require.NoError(t, err)

	d, err := e.analytics.Dashboard(ctx, root)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.TotalUsers)
	assert.EqualValues(t, 3, d.TotalProjects)
	assert.EqualValues(t, 2, d.Approved)
	assert.EqualValues(t, 0, d.Pending)
	assert.EqualValues(t, 1, d.Rejected)
	assert.Equal(t, domain.TechCount{Name: "Go", Count: 2}, d.TopTech[0])
	require.Len(t, d.Trends, 6)
	assert.Equal(t, 3, d.Trends[5].Count)
	require.Len(t, d.TopProjects, 2)
	assert.Equal(t, p2.ID, d.TopProjects[0].ID)
	require.NotNil(t, d.TopProjects[0].Author)
	assert.Equal(t, "a", d.TopProjects[0].Author.Name)

	_, err = e.analytics.Dashboard(ctx, a)
	assert.True(t, apperr.IsForbidden(err))
}

func TestDashboard_CachedAndInvalidatedByModeration(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := cache.NewWithClient(rdb, "pf:", time.Minute, nil)

	e := newEnv(t, c)
	ctx := context.Background()
	root := e.admin(t, "root@example.com")
	a := e.register(t, "a", "a@example.com")
	p := e.submit(t, a, "P")

	d, err := e.analytics.Dashboard(ctx, root)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Pending)
	assert.True(t, s.Exists("pf:"+AnalyticsCacheKey))

	// 绕过 service 直接改库：缓存仍返回旧值
	_, _, err = e.projects.Transition(ctx, p.ID, domain.Approve(root.ID, time.Now()))
	require.NoError(t, err)
	d, err = e.analytics.Dashboard(ctx, root)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Pending)

	_, err = e.projSvc.Reject(ctx, root, p.ID, "late")
	require.NoError(t, err)
	assert.False(t, s.Exists("pf:"+AnalyticsCacheKey))

	d, err = e.analytics.Dashboard(ctx, root)
	require.NoError(t, err)
	assert.EqualValues(t, 0, d.Pending)
	assert.EqualValues(t, 1, d.Rejected)
}
