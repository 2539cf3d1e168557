package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"powerfolio/internal/access"
	"powerfolio/internal/core/apperr"
	"powerfolio/internal/domain"
)

type UserService struct {
	users    domain.UserRepository
	projects domain.ProjectRepository
	log      *zap.Logger
}

func NewUserService(users domain.UserRepository, projects domain.ProjectRepository, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, projects: projects, log: log}
}

type ProfileView struct {
	User     *domain.User     `json:"user"`
	Projects []domain.Project `json:"projects"`
}

// Profile 本人资料 + 本人全部项目（含待审/被拒）
func (s *UserService) Profile(ctx context.Context, id access.Identity) (*ProfileView, error) {
	if err := access.Authenticated(id); err != nil {
		return nil, err
	}
	return s.profile(ctx, id.ID, "")
}

// PublicProfile 任何人可看，只附带已通过的项目
func (s *UserService) PublicProfile(ctx context.Context, userID string) (*ProfileView, error) {
	return s.profile(ctx, userID, domain.StatusApproved)
}

func (s *UserService) profile(ctx context.Context, userID string, status domain.ProjectStatus) (*ProfileView, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	items, _, err := s.projects.List(ctx, domain.ProjectFilter{AuthorID: userID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list user projects: %w", err)
	}
	return &ProfileView{User: u, Projects: items}, nil
}

// UpdateProfile 只改资料字段；role/isActive 不在 ProfilePatch 中
func (s *UserService) UpdateProfile(ctx context.Context, id access.Identity, p domain.ProfilePatch) (*domain.User, error) {
	if err := access.Authenticated(id); err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.BadRequest("invalid profile").WithField("name", "must not be empty")
		}
		p.Name = &name
	}
	u, err := s.users.UpdateProfile(ctx, id.ID, p)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if u == nil {
		return nil, apperr.Unauthorized("not authenticated")
	}
	return u, nil
}

// List 管理端用户列表，不含任何密码信息
func (s *UserService) List(ctx context.Context, id access.Identity, q string, page Page) (Paged[domain.User], error) {
	if err := requireAdmin(id); err != nil {
		return Paged[domain.User]{}, err
	}
	page = page.normalize()
	items, total, err := s.users.List(ctx, domain.UserFilter{Q: q, Offset: page.offset(), Limit: page.Limit})
	if err != nil {
		return Paged[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return newPaged(items, total, page), nil
}

// Deactivate 立即生效：已签发的 token 在下一次请求时被状态闸拦下
func (s *UserService) Deactivate(ctx context.Context, id access.Identity, userID string) (*domain.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if userID == id.ID {
		return nil, apperr.BadRequest("cannot deactivate your own account")
	}
	return s.setActive(ctx, id, userID, false)
}

func (s *UserService) Activate(ctx context.Context, id access.Identity, userID string) (*domain.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.setActive(ctx, id, userID, true)
}

func (s *UserService) setActive(ctx context.Context, id access.Identity, userID string, active bool) (*domain.User, error) {
	u, err := s.users.SetActive(ctx, userID, active)
	if err != nil {
		return nil, fmt.Errorf("set user active: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	s.log.Info("user status changed",
		zap.String("user_id", userID),
		zap.Bool("active", active),
		zap.String("admin_id", id.ID),
	)
	return u, nil
}

// Promote 运维命令行专用，授予 admin 角色
func (s *UserService) Promote(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	if u.Role == domain.RoleAdmin {
		return u, nil
	}
	u, err = s.users.SetRole(ctx, u.ID, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	s.log.Info("user promoted to admin", zap.String("user_id", u.ID))
	return u, nil
}

// requireAdmin 顺序：认证 → 账号状态 → 角色
func requireAdmin(id access.Identity) error {
	if err := access.Authenticated(id); err != nil {
		return err
	}
	return access.RequireRole(id, domain.RoleAdmin)
}
