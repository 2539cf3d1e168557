// Package access 鉴权判定：纯函数，只依赖已认证身份与目标资源当前状态。
// 调用顺序固定为：认证 → 账号状态 → 资源存在性 → 角色/归属。
package access

import (
	"slices"

	"powerfolio/internal/core/apperr"
	"powerfolio/internal/domain"
)

const MsgDeactivated = "account deactivated, contact an administrator"

// Identity 认证网关解析出的请求者
type Identity struct {
	ID       string
	Role     domain.Role
	IsActive bool
}

func IdentityOf(u *domain.User) Identity {
	return Identity{ID: u.ID, Role: u.Role, IsActive: u.IsActive}
}

func (i Identity) IsAdmin() bool { return i.Role == domain.RoleAdmin }

// CheckActive 账号状态闸：登录与每次会话请求都要过
func CheckActive(active bool) error {
	if !active {
		return apperr.Forbidden(MsgDeactivated)
	}
	return nil
}

// Authenticated 认证闸 + 账号状态闸，所有会话操作的前置条件
func Authenticated(id Identity) error {
	if id.ID == "" {
		return apperr.Unauthorized("not authenticated")
	}
	return CheckActive(id.IsActive)
}

// RequireRole 角色检查
func RequireRole(id Identity, roles ...domain.Role) error {
	if id.ID == "" {
		return apperr.Unauthorized("not authenticated")
	}
	if !slices.Contains(roles, id.Role) {
		return apperr.Forbidden("insufficient role")
	}
	return nil
}

// OwnerOrAdmin 归属检查：作者本人或管理员
func OwnerOrAdmin(id Identity, authorID string) error {
	if id.ID == "" {
		return apperr.Unauthorized("not authenticated")
	}
	if id.IsAdmin() || (authorID != "" && id.ID == authorID) {
		return nil
	}
	return apperr.Forbidden("not authorized to modify this project")
}
