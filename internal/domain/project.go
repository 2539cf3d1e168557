package domain

import (
	"context"
	"strings"
	"time"
)

type Category string

const (
	CategoryWeb    Category = "web"
	CategoryMobile Category = "mobile"
	CategoryAI     Category = "ai"
	CategoryData   Category = "data"
	CategoryOther  Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWeb, CategoryMobile, CategoryAI, CategoryData, CategoryOther:
		return true
	}
	return false
}

type Project struct {
	ID              string        `gorm:"primaryKey;type:varchar(32)" json:"id"`
	AuthorID        string        `gorm:"type:varchar(32);index;not null" json:"authorId"`
	Author          *Author       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title           string        `gorm:"size:200;not null" json:"title"`
	Description     string        `gorm:"type:text;not null" json:"description"`
	TechStack       StringSet     `gorm:"type:text" json:"techStack"`
	Github          string        `gorm:"size:512;not null" json:"github"`
	LiveLink        string        `gorm:"size:512" json:"liveLink,omitempty"`
	Thumbnail       string        `gorm:"type:text;not null" json:"thumbnail"`
	Tags            StringSet     `gorm:"type:text" json:"tags"`
	Category        Category      `gorm:"size:16;not null;default:web" json:"category"`
	Status          ProjectStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	RejectionReason *string       `gorm:"type:text" json:"rejectionReason,omitempty"`
	ApprovedAt      *time.Time    `json:"approvedAt,omitempty"`
	ApprovedBy      *string       `gorm:"type:varchar(32)" json:"approvedBy,omitempty"`
	Views           int64         `gorm:"not null;default:0" json:"views"`
	CreatedAt       time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (Project) TableName() string { return "projects" }

// ProjectPatch 通用更新允许的字段；状态相关字段只能走审核状态机
type ProjectPatch struct {
	Title       *string
	Description *string
	TechStack   *[]string
	Github      *string
	LiveLink    *string
	Thumbnail   *string
	Tags        *[]string
	Category    *Category
}

func (p ProjectPatch) Empty() bool { return len(p.Columns()) == 0 }

func (p ProjectPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.TechStack != nil {
		cols["tech_stack"] = StringSet(NormalizeSet(*p.TechStack))
	}
	if p.Github != nil {
		cols["github"] = *p.Github
	}
	if p.LiveLink != nil {
		cols["live_link"] = *p.LiveLink
	}
	if p.Thumbnail != nil {
		cols["thumbnail"] = *p.Thumbnail
	}
	if p.Tags != nil {
		cols["tags"] = StringSet(NormalizeSet(*p.Tags))
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	return cols
}

// NormalizeSet 去空白、去空串、去重，保持首次出现顺序
func NormalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

type ProjectFilter struct {
	Status      ProjectStatus // 空 = 不限
	AuthorID    string
	Search      string
	Category    Category
	AuthorEmail bool // 管理端附带作者邮箱
	Offset      int
	Limit       int
}

type TechCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, f ProjectFilter) ([]Project, int64, error)
	Update(ctx context.Context, id string, p ProjectPatch) (*Project, error)
	Delete(ctx context.Context, id string) (bool, error)
	// Transition 条件更新：仅当当前状态属于 t.From 时写入，否则返回 (nil, false, nil)
	Transition(ctx context.Context, id string, t Transition) (*Project, bool, error)
	IncViews(ctx context.Context, id string, status ProjectStatus) (bool, error)

	CountByStatus(ctx context.Context) (map[ProjectStatus]int64, error)
	TechStacks(ctx context.Context, status ProjectStatus) ([][]string, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
	TopViewed(ctx context.Context, limit int) ([]Project, error)
}
