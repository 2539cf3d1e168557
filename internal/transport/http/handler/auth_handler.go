package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerfolio/internal/service"
	"powerfolio/internal/transport/http/ez"
	mdw "powerfolio/internal/transport/http/middleware"
	"powerfolio/internal/transport/http/router"
)

type AuthHandler struct {
	svc   *service.AuthService
	limit []gin.HandlerFunc // 挂在 register/login 上的每 IP 限速
}

func NewAuthHandler(svc *service.AuthService, limit ...gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{svc: svc, limit: limit}
}

func (h *AuthHandler) Priority() int { return 10 }

type registerReq struct {
	Name     string `json:"name" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=191"`
	Password string `json:"password" binding:"required,max=72"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) MountAPI(g router.Groups) {
	pub := g.Public.Group("/auth", h.limit...)
	ezPub := ez.New(pub)

	ez.RegisterAction(ezPub, ez.Action[registerReq, *service.Session]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *registerReq) (*service.Session, error) {
			return h.svc.Register(c.Request.Context(), service.RegisterInput{
				Name: in.Name, Email: in.Email, Password: in.Password,
			})
		},
	})

	ez.RegisterAction(ezPub, ez.Action[loginReq, *service.Session]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginReq) (*service.Session, error) {
			return h.svc.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	ez.RegisterAction(ez.New(g.Private.Group("/auth")), ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u, err := h.svc.Me(c.Request.Context(), mdw.IdentityFrom(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u}, nil
		},
	})
}
