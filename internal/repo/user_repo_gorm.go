package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"powerfolio/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.UserWithSecret) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if isDupKey(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmailWithSecret 唯一会读出密码哈希的路径，只给登录用
func (r *UserRepo) FindByEmailWithSecret(ctx context.Context, email string) (*domain.UserWithSecret, error) {
	var u domain.UserWithSecret
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if s := strings.TrimSpace(f.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := []domain.User{}
	if err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfilePatch) (*domain.User, error) {
	if cols := p.Columns(); len(cols) > 0 {
		if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepo) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", role).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepo) IncProjectCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		UpdateColumn("project_count", gorm.Expr("project_count + 1")).Error
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 未开启 TranslateError 的方言兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
