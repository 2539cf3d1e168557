package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"powerfolio/internal/access"
	"powerfolio/internal/core/cache"
	"powerfolio/internal/domain"
)

const (
	AnalyticsCacheKey = "analytics:dashboard"
	topTechLimit      = 10
	topProjectsLimit  = 5
	trendMonths       = 6
)

type TopProject struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Views  int64          `json:"views"`
	Author *domain.Author `json:"author,omitempty"`
}

type Analytics struct {
	TotalUsers    int64               `json:"totalUsers"`
	TotalProjects int64               `json:"totalProjects"`
	Approved      int64               `json:"approved"`
	Pending       int64               `json:"pending"`
	Rejected      int64               `json:"rejected"`
	TopTech       []domain.TechCount  `json:"topTech"`
	Trends        []domain.MonthCount `json:"trends"`
	TopProjects   []TopProject        `json:"topProjects"`
}

type AnalyticsService struct {
	users    domain.UserRepository
	projects domain.ProjectRepository
	cache    *cache.Cache
	now      func() time.Time
}

func NewAnalyticsService(users domain.UserRepository, projects domain.ProjectRepository, c *cache.Cache) *AnalyticsService {
	return &AnalyticsService{users: users, projects: projects, cache: c, now: time.Now}
}

// Dashboard 管理端看板，经 redis 缓存；审核与增删项目时失效
func (s *AnalyticsService) Dashboard(ctx context.Context, id access.Identity) (*Analytics, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return cache.GetOrLoadJSON(ctx, s.cache, AnalyticsCacheKey, s.compute)
}

func (s *AnalyticsService) compute(ctx context.Context) (*Analytics, error) {
	var a Analytics
	var err error
	if a.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	byStatus, err := s.projects.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	for _, n := range byStatus {
		a.TotalProjects += n
	}
	a.Approved = byStatus[domain.StatusApproved]
	a.Pending = byStatus[domain.StatusPending]
	a.Rejected = byStatus[domain.StatusRejected]

	stacks, err := s.projects.TechStacks(ctx, domain.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("load tech stacks: %w", err)
	}
	a.TopTech = TopTech(stacks, topTechLimit)

	now := s.now().UTC()
	since := monthStart(now).AddDate(0, -(trendMonths - 1), 0)
	created, err := s.projects.CreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load trends: %w", err)
	}
	a.Trends = MonthlyTrend(created, now, trendMonths)

	top, err := s.projects.TopViewed(ctx, topProjectsLimit)
	if err != nil {
		return nil, fmt.Errorf("load top projects: %w", err)
	}
	a.TopProjects = make([]TopProject, 0, len(top))
	for _, p := range top {
		a.TopProjects = append(a.TopProjects, TopProject{ID: p.ID, Title: p.Title, Views: p.Views, Author: p.Author})
	}
	return &a, nil
}

// TopTech 按出现次数降序，次数相同按名称升序
func TopTech(stacks [][]string, limit int) []domain.TechCount {
	counts := map[string]int{}
	for _, stack := range stacks {
		for _, t := range stack {
			counts[t]++
		}
	}
	out := make([]domain.TechCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.TechCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MonthlyTrend 最近 months 个自然月（含当月，UTC），无数据的月份记 0
func MonthlyTrend(created []time.Time, now time.Time, months int) []domain.MonthCount {
	start := monthStart(now.UTC()).AddDate(0, -(months - 1), 0)
	out := make([]domain.MonthCount, months)
	for i := range out {
		m := start.AddDate(0, i, 0)
		out[i] = domain.MonthCount{Year: m.Year(), Month: int(m.Month())}
	}
	for _, t := range created {
		t = t.UTC()
		idx := (t.Year()-start.Year())*12 + int(t.Month()) - int(start.Month())
		if idx >= 0 && idx < months {
			out[idx].Count++
		}
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
