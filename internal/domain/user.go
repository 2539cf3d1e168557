package domain

import (
	"context"
	"errors"
	"time"
)

var ErrEmailTaken = errors.New("email already registered")

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User 公开投影：映射 users 表但不含密码列，普通读取永远拿不到哈希
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	Role         Role      `gorm:"size:16;not null;default:user" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	Avatar       string    `gorm:"size:512" json:"avatar,omitempty"`
	Bio          string    `gorm:"size:1024" json:"bio,omitempty"`
	Location     string    `gorm:"size:128" json:"location,omitempty"`
	Website      string    `gorm:"size:255" json:"website,omitempty"`
	Github       string    `gorm:"size:255" json:"github,omitempty"`
	Linkedin     string    `gorm:"size:255" json:"linkedin,omitempty"`
	Twitter      string    `gorm:"size:255" json:"twitter,omitempty"`
	ProjectCount int       `gorm:"not null;default:0" json:"projectCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// IsAdmin 便捷判断
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Author 项目列表里附带的作者摘要
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"` // 仅管理端填充
	Avatar string `json:"avatar,omitempty"`
}

func (Author) TableName() string { return "users" }

// UserWithSecret 仅用于创建用户与登录校验
type UserWithSecret struct {
	User
	PasswordHash string `gorm:"size:100;not null" json:"-"`
}

func (UserWithSecret) TableName() string { return "users" }

// ProfilePatch 用户自助可改的字段；nil 表示不修改
type ProfilePatch struct {
	Name     *string
	Avatar   *string
	Bio      *string
	Location *string
	Website  *string
	Github   *string
	Linkedin *string
	Twitter  *string
}

// Columns 转为列名 → 值，供单行 UPDATE 使用
func (p ProfilePatch) Columns() map[string]any {
	cols := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("name", p.Name)
	set("avatar", p.Avatar)
	set("bio", p.Bio)
	set("location", p.Location)
	set("website", p.Website)
	set("github", p.Github)
	set("linkedin", p.Linkedin)
	set("twitter", p.Twitter)
	return cols
}

type UserFilter struct {
	Q      string // email/name 模糊
	Offset int
	Limit  int
}

// UserRepository 凭证存储 + 用户资料
type UserRepository interface {
	Create(ctx context.Context, u *UserWithSecret) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailWithSecret(ctx context.Context, email string) (*UserWithSecret, error)
	List(ctx context.Context, f UserFilter) ([]User, int64, error)
	UpdateProfile(ctx context.Context, id string, p ProfilePatch) (*User, error)
	SetActive(ctx context.Context, id string, active bool) (*User, error)
	SetRole(ctx context.Context, id string, role Role) (*User, error)
	IncProjectCount(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
