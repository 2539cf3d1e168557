package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"powerfolio/internal/access"
	"powerfolio/internal/core/apperr"
	"powerfolio/internal/domain"
	"powerfolio/pkg/utils"
)

const (
	MsgInvalidCredentials = "invalid credentials"
	msgEmailTaken         = "user already exists with this email"
)

// TokenIssuer 由 auth.JWTer 实现
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// 未知邮箱也跑一次 bcrypt，两条失败路径耗时一致
var dummyHash = sync.OnceValue(func() string {
	h, _ := utils.HashPassword("powerfolio-timing-equalizer")
	return h
})

type AuthService struct {
	users  domain.UserRepository
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAuthService(users domain.UserRepository, tokens TokenIssuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, log: log}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name, email := strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		e := apperr.BadRequest("please provide all required fields")
		for field, v := range map[string]string{"name": name, "email": email, "password": in.Password} {
			if v == "" {
				e.WithField(field, "required")
			}
		}
		return nil, e
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, apperr.BadRequest(msgEmailTaken).WithField("email", "already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		// bcrypt 拒绝超过 72 字节的口令
		return nil, apperr.BadRequest("invalid password").WithField("password", err.Error())
	}
	u := &domain.UserWithSecret{
		User: domain.User{
			ID:       utils.NewID(),
			Email:    email,
			Name:     name,
			Role:     domain.RoleUser,
			IsActive: true,
		},
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			// 并发注册兜底：唯一索引冲突
			return nil, apperr.BadRequest(msgEmailTaken).WithField("email", "already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	pub := u.User
	return &Session{Token: token, User: &pub}, nil
}

// Login 未知邮箱与密码错误返回完全相同的 401；密码正确后才检查停用状态
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		loginTotal.WithLabelValues("invalid_input").Inc()
		e := apperr.BadRequest("please provide email and password")
		if email == "" {
			e.WithField("email", "required")
		}
		if password == "" {
			e.WithField("password", "required")
		}
		return nil, e
	}

	u, err := s.users.FindByEmailWithSecret(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	hash := dummyHash()
	if u != nil {
		hash = u.PasswordHash
	}
	if !utils.CheckPassword(password, hash) || u == nil {
		loginTotal.WithLabelValues("invalid_credentials").Inc()
		s.log.Info("login rejected", zap.Bool("known_email", u != nil))
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	if err := access.CheckActive(u.IsActive); err != nil {
		loginTotal.WithLabelValues("deactivated").Inc()
		s.log.Info("login by deactivated account", zap.String("user_id", u.ID))
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	loginTotal.WithLabelValues("success").Inc()
	pub := u.User
	return &Session{Token: token, User: &pub}, nil
}

// Me 会话自检；认证与状态闸已由中间件完成，这里只重新读取最新资料
func (s *AuthService) Me(ctx context.Context, id access.Identity) (*domain.User, error) {
	if err := access.Authenticated(id); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, apperr.Unauthorized("not authenticated")
	}
	return u, nil
}
