package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 统一的校验失败：格式错误、签名错误、过期、issuer 不符都归到这里
var ErrInvalidToken = errors.New("invalid token")

const DefaultTTL = 30 * 24 * time.Hour

// TokenConfig 启动时构造一次；更换 Secret 会使所有已签发 token 失效
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
}

type Claims struct {
	jwt.RegisteredClaims // Subject = user id；角色不入 token，每次请求实时查询
}

// JWTer 签发/校验 HS256 token，构造后不可变
type JWTer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

type Option func(*JWTer)

// WithClock 测试用
func WithClock(now func() time.Time) Option {
	return func(j *JWTer) {
		if now != nil {
			j.now = now
		}
	}
}

func NewJWTer(cfg TokenConfig, opts ...Option) (*JWTer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	j := &JWTer{
		secret: append([]byte(nil), cfg.Secret...),
		issuer: cfg.Issuer,
		ttl:    ttl,
		leeway: cfg.Leeway,
		now:    time.Now,
	}
	for _, o := range opts {
		o(j)
	}
	return j, nil
}

func (j *JWTer) TTL() time.Duration { return j.ttl }

func (j *JWTer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	now := j.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify 返回 token 绑定的 user id；任何失败都是 ErrInvalidToken
func (j *JWTer) Verify(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
		jwt.WithLeeway(j.leeway),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	var c Claims
	t, err := jwt.ParseWithClaims(tokenStr, &c, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !t.Valid {
		return "", ErrInvalidToken
	}
	if c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
