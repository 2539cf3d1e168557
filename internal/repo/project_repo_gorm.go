package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"powerfolio/internal/domain"
)

type ProjectRepo struct{ db *gorm.DB }

var _ domain.ProjectRepository = (*ProjectRepo)(nil)

func NewProjectRepo(db *gorm.DB) *ProjectRepo { return &ProjectRepo{db: db} }

func authorSummary(withEmail bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if withEmail {
			return db.Select("id", "name", "email", "avatar")
		}
		return db.Select("id", "name", "avatar")
	}
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	return r.db.WithContext(ctx).Omit("Author").Create(p).Error
}

func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.WithContext(ctx).Preload("Author", authorSummary(false)).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context, f domain.ProjectFilter) ([]domain.Project, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Project{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tech_stack) LIKE ?", like, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := []domain.Project{}
	list := q.Preload("Author", authorSummary(f.AuthorEmail)).Order("created_at DESC")
	if f.Limit > 0 {
		list = list.Offset(f.Offset).Limit(f.Limit)
	}
	if err := list.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update 只写 ProjectPatch 允许的列
func (r *ProjectRepo) Update(ctx context.Context, id string, p domain.ProjectPatch) (*domain.Project, error) {
	if cols := p.Columns(); len(cols) > 0 {
		if err := r.db.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&domain.Project{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// Transition 单行条件更新（find-and-update），并发下后写者生效
func (r *ProjectRepo) Transition(ctx context.Context, id string, t domain.Transition) (*domain.Project, bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ? AND status IN ?", id, t.From()).
		Updates(t.Columns())
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return p, p != nil, nil
}

// IncViews 仅对指定状态的项目计数，不触碰 updated_at
func (r *ProjectRepo) IncViews(ctx context.Context, id string, status domain.ProjectStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ? AND status = ?", id, status).
		UpdateColumn("views", gorm.Expr("views + 1"))
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepo) CountByStatus(ctx context.Context) (map[domain.ProjectStatus]int64, error) {
	var rows []struct {
		Status domain.ProjectStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Project{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.ProjectStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *ProjectRepo) TechStacks(ctx context.Context, status domain.ProjectStatus) ([][]string, error) {
	var sets []domain.StringSet
	err := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("status = ?", status).Pluck("tech_stack", &sets).Error
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(sets))
	for i, s := range sets {
		out[i] = s
	}
	return out, nil
}

func (r *ProjectRepo) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var ts []time.Time
	err := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("created_at >= ?", since).Pluck("created_at", &ts).Error
	return ts, err
}

func (r *ProjectRepo) TopViewed(ctx context.Context, limit int) ([]domain.Project, error) {
	items := []domain.Project{}
	err := r.db.WithContext(ctx).Preload("Author", authorSummary(false)).
		Where("status = ?", domain.StatusApproved).
		Order("views DESC").Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}
