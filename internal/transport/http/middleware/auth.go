package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"powerfolio/internal/access"
	"powerfolio/internal/domain"
	resp "powerfolio/internal/transport/http/response"
)

const (
	KeyIdentity = "identity"
	KeyUserID   = "userId"

	msgUnauthenticated = "not authenticated"
)

// TokenVerifier 由 auth.JWTer 实现
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticate 认证闸：缺失/无效/过期 token 与用户已不存在返回同一个 401；
// 角色和状态每次从存储实时读取，不信任 token 里的任何声明
func Authenticate(v TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			resp.Abort(c, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		uid, err := v.Verify(tok)
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		u, err := users.FindByID(c.Request.Context(), uid)
		if err != nil {
			// 存储故障不是认证失败
			_ = c.Error(err)
			resp.Abort(c, http.StatusInternalServerError, "")
			return
		}
		if u == nil {
			resp.Abort(c, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		c.Set(KeyIdentity, access.IdentityOf(u))
		c.Set(KeyUserID, u.ID)
		c.Next()
	}
}

// RequireActive 账号状态闸，挂在所有需要登录的分组上
func RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.Authenticated(IdentityFrom(c)); err != nil {
			abortWith(c, err)
			return
		}
		c.Next()
	}
}

// RequireRole 分组级角色检查（管理端统一 admin）
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.RequireRole(IdentityFrom(c), roles...); err != nil {
			abortWith(c, err)
			return
		}
		c.Next()
	}
}

// IdentityFrom 未认证时返回零值
func IdentityFrom(c *gin.Context) access.Identity {
	if v, ok := c.Get(KeyIdentity); ok {
		if id, ok := v.(access.Identity); ok {
			return id
		}
	}
	return access.Identity{}
}

func bearer(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
