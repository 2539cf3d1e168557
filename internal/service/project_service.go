package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"powerfolio/internal/access"
	"powerfolio/internal/core/apperr"
	"powerfolio/internal/core/cache"
	"powerfolio/internal/domain"
	"powerfolio/pkg/utils"
)

type ProjectService struct {
	projects domain.ProjectRepository
	users    domain.UserRepository
	cache    *cache.Cache
	log      *zap.Logger
	now      func() time.Time
}

func NewProjectService(projects domain.ProjectRepository, users domain.UserRepository, c *cache.Cache, log *zap.Logger) *ProjectService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectService{projects: projects, users: users, cache: c, log: log, now: time.Now}
}

type ListQuery struct {
	Search   string
	Category domain.Category
	Status   domain.ProjectStatus // 仅管理端生效
	Page     Page
}

type CreateProjectInput struct {
	Title       string
	Description string
	TechStack   []string
	Github      string
	LiveLink    string
	Thumbnail   string
	Tags        []string
	Category    domain.Category
}

// UpdateProjectInput Protected 是请求体里出现的受保护字段名，非空即拒绝
type UpdateProjectInput struct {
	Patch     domain.ProjectPatch
	Protected []string
}

// ListPublic 公开列表永远只含 approved
func (s *ProjectService) ListPublic(ctx context.Context, q ListQuery) (Paged[domain.Project], error) {
	q.Status = domain.StatusApproved
	return s.list(ctx, q, false)
}

// AdminList 可按任意状态筛选，附带作者邮箱
func (s *ProjectService) AdminList(ctx context.Context, id access.Identity, q ListQuery) (Paged[domain.Project], error) {
	if err := requireAdmin(id); err != nil {
		return Paged[domain.Project]{}, err
	}
	if q.Status != "" && !q.Status.Valid() {
		return Paged[domain.Project]{}, apperr.BadRequest("invalid status").WithField("status", "must be pending, approved or rejected")
	}
	return s.list(ctx, q, true)
}

func (s *ProjectService) list(ctx context.Context, q ListQuery, withEmail bool) (Paged[domain.Project], error) {
	if q.Category != "" && !q.Category.Valid() {
		return Paged[domain.Project]{}, apperr.BadRequest("invalid category").WithField("category", "unknown category")
	}
	page := q.Page.normalize()
	items, total, err := s.projects.List(ctx, domain.ProjectFilter{
		Status:      q.Status,
		Search:      q.Search,
		Category:    q.Category,
		AuthorEmail: withEmail,
		Offset:      page.offset(),
		Limit:       page.Limit,
	})
	if err != nil {
		return Paged[domain.Project]{}, fmt.Errorf("list projects: %w", err)
	}
	return newPaged(items, total, page), nil
}

// Get 公开详情：仅 approved 可见，每次读取 views+1
func (s *ProjectService) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	ok, err := s.projects.IncViews(ctx, projectID, domain.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("inc views: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("project not found")
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	if p == nil || p.Status != domain.StatusApproved {
		return nil, apperr.NotFound("project not found")
	}
	return p, nil
}

// Create 状态固定为 pending，作者固定为请求者
func (s *ProjectService) Create(ctx context.Context, id access.Identity, in CreateProjectInput) (*domain.Project, error) {
	if err := access.Authenticated(id); err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = domain.CategoryWeb
	}
	if err := validateProject(in); err != nil {
		return nil, err
	}

	p := &domain.Project{
		ID:          utils.NewID(),
		AuthorID:    id.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		TechStack:   domain.NormalizeSet(in.TechStack),
		Github:      strings.TrimSpace(in.Github),
		LiveLink:    strings.TrimSpace(in.LiveLink),
		Thumbnail:   strings.TrimSpace(in.Thumbnail),
		Tags:        domain.NormalizeSet(in.Tags),
		Category:    in.Category,
		Status:      domain.StatusPending,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if err := s.users.IncProjectCount(ctx, id.ID); err != nil {
		// 计数仅供展示，失败不回滚项目
		s.log.Warn("inc project count failed", zap.String("user_id", id.ID), zap.Error(err))
	}
	s.cache.Invalidate(ctx, AnalyticsCacheKey)
	s.log.Info("project submitted", zap.String("project_id", p.ID), zap.String("author_id", id.ID))

	created, err := s.projects.FindByID(ctx, p.ID)
	if err != nil || created == nil {
		return p, nil
	}
	return created, nil
}

func validateProject(in CreateProjectInput) error {
	e := apperr.BadRequest("invalid project")
	required := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"github":      in.Github,
		"thumbnail":   in.Thumbnail,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			e.WithField(field, "required")
		}
	}
	if !in.Category.Valid() {
		e.WithField("category", "unknown category")
	}
	if len(e.Fields) > 0 {
		return e
	}
	return nil
}

// Update 顺序：认证/状态 → 存在性 → 归属 → 字段校验；状态字段只能走审核
func (s *ProjectService) Update(ctx context.Context, id access.Identity, projectID string, in UpdateProjectInput) (*domain.Project, error) {
	if _, err := s.loadOwned(ctx, id, projectID); err != nil {
		return nil, err
	}
	if len(in.Protected) > 0 {
		fields := append([]string(nil), in.Protected...)
		sort.Strings(fields)
		e := apperr.BadRequest("status fields can only be changed through moderation")
		for _, f := range fields {
			e.WithField(f, "read-only")
		}
		return nil, e
	}
	if err := validatePatch(in.Patch); err != nil {
		return nil, err
	}

	p, err := s.projects.Update(ctx, projectID, in.Patch)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if p == nil {
		// 与删除并发
		return nil, apperr.NotFound("project not found")
	}
	return p, nil
}

func validatePatch(p domain.ProjectPatch) error {
	if p.Empty() {
		return apperr.BadRequest("no updatable fields provided")
	}
	e := apperr.BadRequest("invalid project")
	for field, v := range map[string]*string{
		"title": p.Title, "description": p.Description, "github": p.Github, "thumbnail": p.Thumbnail,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			e.WithField(field, "must not be empty")
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		e.WithField("category", "unknown category")
	}
	if len(e.Fields) > 0 {
		return e
	}
	return nil
}

func (s *ProjectService) Delete(ctx context.Context, id access.Identity, projectID string) error {
	if _, err := s.loadOwned(ctx, id, projectID); err != nil {
		return err
	}
	ok, err := s.projects.Delete(ctx, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if !ok {
		return apperr.NotFound("project not found")
	}
	s.cache.Invalidate(ctx, AnalyticsCacheKey)
	s.log.Info("project deleted", zap.String("project_id", projectID), zap.String("by", id.ID))
	return nil
}

// loadOwned 存在性检查先于归属检查
func (s *ProjectService) loadOwned(ctx context.Context, id access.Identity, projectID string) (*domain.Project, error) {
	if err := access.Authenticated(id); err != nil {
		return nil, err
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	if p == nil {
		return nil, apperr.NotFound("project not found")
	}
	if err := access.OwnerOrAdmin(id, p.AuthorID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Approve(ctx context.Context, id access.Identity, projectID string) (*domain.Project, error) {
	return s.moderate(ctx, id, projectID, func(at time.Time) domain.Transition {
		return domain.Approve(id.ID, at)
	})
}

// Reject reason 允许为空
func (s *ProjectService) Reject(ctx context.Context, id access.Identity, projectID, reason string) (*domain.Project, error) {
	return s.moderate(ctx, id, projectID, func(at time.Time) domain.Transition {
		return domain.Reject(id.ID, reason, at)
	})
}

func (s *ProjectService) moderate(ctx context.Context, id access.Identity, projectID string, build func(time.Time) domain.Transition) (*domain.Project, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	t := build(s.now().UTC())
	p, ok, err := s.projects.Transition(ctx, projectID, t)
	if err != nil {
		return nil, fmt.Errorf("%s project: %w", t.Action, err)
	}
	if !ok {
		cur, err := s.projects.FindByID(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("find project: %w", err)
		}
		if cur == nil {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Conflict(fmt.Sprintf("project is already %s", cur.Status))
	}

	moderationTotal.WithLabelValues(string(t.Action)).Inc()
	s.cache.Invalidate(ctx, AnalyticsCacheKey)
	s.log.Info("project moderated",
		zap.String("action", string(t.Action)),
		zap.String("project_id", projectID),
		zap.String("admin_id", id.ID),
	)
	return p, nil
}
