// Package ez 一行注册非 CRUD 动作接口：统一绑定、身份检查、错误映射与响应封装
package ez

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"powerfolio/internal/access"
	"powerfolio/internal/core/apperr"
	"powerfolio/internal/domain"
	mdw "powerfolio/internal/transport/http/middleware"
	resp "powerfolio/internal/transport/http/response"
)

func init() {
	// 校验错误用 json/form 名而不是 Go 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	}
}

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON         Binder = "json"          // 从 JSON 绑定
	BindJSONOptional Binder = "json_optional" // 同 JSON，但允许空 body
	BindQuery        Binder = "query"         // 从 URL ?a=b 绑定
	BindNone         Binder = "none"          // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string        // "GET" | "POST" | "PUT" | "DELETE"
	Path    string        // 例："/auth/login"、"/projects/:id/approve"
	Binder  Binder        // 绑定方式
	Status  int           // 成功状态码，默认 200
	Auth    bool          // 是否要求已认证身份（分组已挂 Authenticate）
	Roles   []domain.Role // 限定角色（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth || len(a.Roles) > 0 {
			id := mdw.IdentityFrom(c)
			if err := access.Authenticated(id); err != nil {
				Fail(c, err)
				return
			}
			if len(a.Roles) > 0 {
				if err := access.RequireRole(id, a.Roles...); err != nil {
					Fail(c, err)
					return
				}
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindJSONOptional:
			if bindErr = c.ShouldBindJSON(&in); errors.Is(bindErr, io.EOF) {
				bindErr = nil
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			Fail(c, bindError(bindErr))
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// Fail 写出错误响应；未分类错误只回通用 500，原因挂到 c.Errors 供访问日志记录
func Fail(c *gin.Context, err error) {
	ae := apperr.As(err)
	if ae == nil || ae.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Error(http.StatusInternalServerError, ""))
		return
	}
	c.AbortWithStatusJSON(ae.Code, resp.Fields(ae.Code, ae.Msg, ae.Fields))
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &apperr.Error{Code: http.StatusRequestEntityTooLarge, Msg: resp.MessageOf(http.StatusRequestEntityTooLarge)}
	}
	if errors.Is(err, io.EOF) {
		return apperr.BadRequest("request body is required")
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		e := apperr.BadRequest("validation failed")
		for _, fe := range ves {
			e.WithField(fieldName(fe), describe(fe))
		}
		return e
	}
	return apperr.BadRequest("malformed request: " + err.Error())
}

// fieldName 嵌套结构体只取最后一段
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email"
	case "url", "http_url":
		return "must be a valid url"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}
