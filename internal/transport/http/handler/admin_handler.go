package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerfolio/internal/domain"
	"powerfolio/internal/service"
	"powerfolio/internal/transport/http/ez"
	mdw "powerfolio/internal/transport/http/middleware"
)

// AdminHandler 挂在 /admin/v1；分组已过认证/状态/角色三道闸，
// service 层仍按身份再校验一次
type AdminHandler struct {
	projects  *service.ProjectService
	users     *service.UserService
	analytics *service.AnalyticsService
}

func NewAdminHandler(p *service.ProjectService, u *service.UserService, a *service.AnalyticsService) *AdminHandler {
	return &AdminHandler{projects: p, users: u, analytics: a}
}

type rejectReq struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type userListReq struct {
	Q     string `form:"q" binding:"max=200"`
	Page  int    `form:"page" binding:"min=0"`
	Limit int    `form:"limit" binding:"min=0"`
}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin)
	roles := []domain.Role{domain.RoleAdmin}

	// --- 项目审核 ---
	ez.RegisterAction(e, ez.Action[listReq, service.Paged[domain.Project]]{
		Method: http.MethodGet,
		Path:   "/projects",
		Binder: ez.BindQuery,
		Roles:  roles,
		Handler: func(c *gin.Context, in *listReq) (service.Paged[domain.Project], error) {
			return h.projects.AdminList(c.Request.Context(), mdw.IdentityFrom(c), in.query())
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPut,
		Path:   "/projects/:id/approve",
		Binder: ez.BindNone,
		Roles:  roles,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			p, err := h.projects.Approve(c.Request.Context(), mdw.IdentityFrom(c), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"project": p}, nil
		},
	})

	// reason 可选，body 可为空
	ez.RegisterAction(e, ez.Action[rejectReq, gin.H]{
		Method: http.MethodPut,
		Path:   "/projects/:id/reject",
		Binder: ez.BindJSONOptional,
		Roles:  roles,
		Handler: func(c *gin.Context, in *rejectReq) (gin.H, error) {
			p, err := h.projects.Reject(c.Request.Context(), mdw.IdentityFrom(c), c.Param("id"), in.Reason)
			if err != nil {
				return nil, err
			}
			return gin.H{"project": p}, nil
		},
	})

	// --- 用户管理 ---
	ez.RegisterAction(e, ez.Action[userListReq, service.Paged[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Roles:  roles,
		Handler: func(c *gin.Context, in *userListReq) (service.Paged[domain.User], error) {
			return h.users.List(c.Request.Context(), mdw.IdentityFrom(c), in.Q, service.Page{Page: in.Page, Limit: in.Limit})
		},
	})

	setActive := func(active bool) func(c *gin.Context, _ *struct{}) (gin.H, error) {
		return func(c *gin.Context, _ *struct{}) (gin.H, error) {
			op := h.users.Deactivate
			if active {
				op = h.users.Activate
			}
			u, err := op(c.Request.Context(), mdw.IdentityFrom(c), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		}
	}
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPut, Path: "/users/:id/deactivate", Binder: ez.BindNone, Roles: roles,
		Handler: setActive(false),
	})
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPut, Path: "/users/:id/activate", Binder: ez.BindNone, Roles: roles,
		Handler: setActive(true),
	})

	// --- 统计 ---
	ez.RegisterAction(e, ez.Action[struct{}, *service.Analytics]{
		Method: http.MethodGet,
		Path:   "/analytics",
		Binder: ez.BindNone,
		Roles:  roles,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Analytics, error) {
			return h.analytics.Dashboard(c.Request.Context(), mdw.IdentityFrom(c))
		},
	})
}
