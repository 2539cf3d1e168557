package router

import (
	"github.com/gin-gonic/gin"

	"powerfolio/internal/domain"
	mdw "powerfolio/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps, reg *Registry) *gin.Engine {
	r := baseEngine("admin", d)

	// 管理端 v1：认证 → 账号状态 → admin 角色
	admin := r.Group("/admin/v1")
	admin.Use(
		mdw.Authenticate(d.Verifier, d.Users),
		mdw.RequireActive(),
		mdw.RequireRole(domain.RoleAdmin),
	)

	reg.MountAllAdmin(admin)
	return r
}
