package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"powerfolio/internal/domain"
	"powerfolio/internal/service"
	"powerfolio/internal/transport/http/ez"
	mdw "powerfolio/internal/transport/http/middleware"
	"powerfolio/internal/transport/http/router"
)

type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type listReq struct {
	Search   string `form:"search" binding:"max=200"`
	Category string `form:"category"`
	Status   string `form:"status"` // 仅管理端
	Page     int    `form:"page" binding:"min=0"`
	Limit    int    `form:"limit" binding:"min=0"`
}

func (r listReq) query() service.ListQuery {
	return service.ListQuery{
		Search:   r.Search,
		Category: domain.Category(r.Category),
		Status:   domain.ProjectStatus(r.Status),
		Page:     service.Page{Page: r.Page, Limit: r.Limit},
	}
}

type createReq struct {
	Title       string   `json:"title" binding:"max=200"`
	Description string   `json:"description"`
	TechStack   []string `json:"techStack"`
	Github      string   `json:"github" binding:"max=512"`
	LiveLink    string   `json:"liveLink" binding:"max=512"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
}

// updateReq 可改字段用指针区分"未提供"；审核相关字段只用于探测，
// 出现即拒绝（包括显式 null）
type updateReq struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Description *string   `json:"description"`
	TechStack   *[]string `json:"techStack"`
	Github      *string   `json:"github" binding:"omitempty,max=512"`
	LiveLink    *string   `json:"liveLink" binding:"omitempty,max=512"`
	Thumbnail   *string   `json:"thumbnail"`
	Tags        *[]string `json:"tags"`
	Category    *string   `json:"category"`

	Status          json.RawMessage `json:"status"`
	ApprovedAt      json.RawMessage `json:"approvedAt"`
	ApprovedBy      json.RawMessage `json:"approvedBy"`
	RejectionReason json.RawMessage `json:"rejectionReason"`
	Author          json.RawMessage `json:"author"`
	AuthorID        json.RawMessage `json:"authorId"`
	Views           json.RawMessage `json:"views"`
}

func (r updateReq) input() service.UpdateProjectInput {
	in := service.UpdateProjectInput{Patch: domain.ProjectPatch{
		Title:       r.Title,
		Description: r.Description,
		TechStack:   r.TechStack,
		Github:      r.Github,
		LiveLink:    r.LiveLink,
		Thumbnail:   r.Thumbnail,
		Tags:        r.Tags,
	}}
	if r.Category != nil {
		cat := domain.Category(*r.Category)
		in.Patch.Category = &cat
	}
	for _, f := range []struct {
		name string
		raw  json.RawMessage
	}{
		{"status", r.Status},
		{"approvedAt", r.ApprovedAt},
		{"approvedBy", r.ApprovedBy},
		{"rejectionReason", r.RejectionReason},
		{"author", r.Author},
		{"authorId", r.AuthorID},
		{"views", r.Views},
	} {
		if len(f.raw) > 0 {
			in.Protected = append(in.Protected, f.name)
		}
	}
	return in
}

func (h *ProjectHandler) MountAPI(g router.Groups) {
	pub := ez.New(g.Public.Group("/projects"))
	priv := ez.New(g.Private.Group("/projects"))

	ez.RegisterAction(pub, ez.Action[listReq, service.Paged[domain.Project]]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listReq) (service.Paged[domain.Project], error) {
			return h.svc.ListPublic(c.Request.Context(), in.query())
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"project": p}, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[createReq, gin.H]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Auth:   true,
		Handler: func(c *gin.Context, in *createReq) (gin.H, error) {
			p, err := h.svc.Create(c.Request.Context(), mdw.IdentityFrom(c), service.CreateProjectInput{
				Title:       in.Title,
				Description: in.Description,
				TechStack:   in.TechStack,
				Github:      in.Github,
				LiveLink:    in.LiveLink,
				Thumbnail:   in.Thumbnail,
				Tags:        in.Tags,
				Category:    domain.Category(in.Category),
			})
			if err != nil {
				return nil, err
			}
			return gin.H{"project": p}, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[updateReq, gin.H]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *updateReq) (gin.H, error) {
			p, err := h.svc.Update(c.Request.Context(), mdw.IdentityFrom(c), c.Param("id"), in.input())
			if err != nil {
				return nil, err
			}
			return gin.H{"project": p}, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := h.svc.Delete(c.Request.Context(), mdw.IdentityFrom(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
