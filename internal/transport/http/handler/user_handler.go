package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerfolio/internal/domain"
	"powerfolio/internal/service"
	"powerfolio/internal/transport/http/ez"
	mdw "powerfolio/internal/transport/http/middleware"
	"powerfolio/internal/transport/http/router"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler { return &UserHandler{svc: svc} }

// 资料更新只接受这些字段；role/isActive 等即使出现也被忽略
type profileReq struct {
	Name     *string `json:"name" binding:"omitempty,max=64"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=512"`
	Bio      *string `json:"bio" binding:"omitempty,max=1024"`
	Location *string `json:"location" binding:"omitempty,max=128"`
	Website  *string `json:"website" binding:"omitempty,max=255"`
	Github   *string `json:"github" binding:"omitempty,max=255"`
	Linkedin *string `json:"linkedin" binding:"omitempty,max=255"`
	Twitter  *string `json:"twitter" binding:"omitempty,max=255"`
}

func (r profileReq) patch() domain.ProfilePatch {
	return domain.ProfilePatch{
		Name: r.Name, Avatar: r.Avatar, Bio: r.Bio, Location: r.Location,
		Website: r.Website, Github: r.Github, Linkedin: r.Linkedin, Twitter: r.Twitter,
	}
}

func (h *UserHandler) MountAPI(g router.Groups) {
	priv := ez.New(g.Private.Group("/users"))

	ez.RegisterAction(priv, ez.Action[struct{}, *service.ProfileView]{
		Method: http.MethodGet,
		Path:   "/profile",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.ProfileView, error) {
			return h.svc.Profile(c.Request.Context(), mdw.IdentityFrom(c))
		},
	})

	ez.RegisterAction(priv, ez.Action[profileReq, gin.H]{
		Method: http.MethodPut,
		Path:   "/profile",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *profileReq) (gin.H, error) {
			u, err := h.svc.UpdateProfile(c.Request.Context(), mdw.IdentityFrom(c), in.patch())
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})

	ez.RegisterAction(ez.New(g.Public.Group("/users")), ez.Action[struct{}, *service.ProfileView]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.ProfileView, error) {
			return h.svc.PublicProfile(c.Request.Context(), c.Param("id"))
		},
	})
}
