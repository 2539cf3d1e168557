package ez

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerfolio/internal/access"
	"powerfolio/internal/core/apperr"
	"powerfolio/internal/domain"
	mdw "powerfolio/internal/transport/http/middleware"
	resp "powerfolio/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

type echoIn struct {
	Name  string `json:"name" binding:"required,max=5"`
	Email string `json:"email" binding:"omitempty,email"`
}

func do(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, resp.Resp) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRegisterAction_BindAndStatus(t *testing.T) {
	r := gin.New()
	RegisterAction(New(r.Group("")), Action[echoIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Status: http.StatusCreated,
		Handler: func(_ *gin.Context, in *echoIn) (gin.H, error) {
			return gin.H{"name": in.Name}, nil
		},
	})

	w, body := do(r, http.MethodPost, "/echo", `{"name":"ann"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, body.Success)
	assert.Equal(t, map[string]any{"name": "ann"}, body.Data)

	w, body = do(r, http.MethodPost, "/echo", `{"name":"toolong","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "must be at most 5", body.Errors["name"])
	assert.Equal(t, "must be a valid email", body.Errors["email"])

	w, body = do(r, http.MethodPost, "/echo", ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body is required", body.Message)

	w, _ = do(r, http.MethodPost, "/echo", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterAction_OptionalBody(t *testing.T) {
	type in struct {
		Reason string `json:"reason"`
	}
	r := gin.New()
	RegisterAction(New(r.Group("")), Action[in, string]{
		Method: http.MethodPut,
		Path:   "/r",
		Binder: BindJSONOptional,
		Handler: func(_ *gin.Context, v *in) (string, error) {
			return v.Reason, nil
		},
	})

	w, body := do(r, http.MethodPut, "/r", ``)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", body.Data)

	_, body = do(r, http.MethodPut, "/r", `{"reason":"spam"}`)
	assert.Equal(t, "spam", body.Data)
}

func TestRegisterAction_AuthAndRoles(t *testing.T) {
	r := gin.New()
	withIdentity := func(id access.Identity) gin.HandlerFunc {
		return func(c *gin.Context) {
			if id.ID != "" {
				c.Set(mdw.KeyIdentity, id)
			}
		}
	}
	ok := func(*gin.Context, *struct{}) (string, error) { return "ok", nil }

	for path, id := range map[string]access.Identity{
		"/anon":   {},
		"/user":   {ID: "u", Role: domain.RoleUser, IsActive: true},
		"/admin":  {ID: "a", Role: domain.RoleAdmin, IsActive: true},
		"/frozen": {ID: "f", Role: domain.RoleAdmin, IsActive: false},
	} {
		g := r.Group(path, withIdentity(id))
		RegisterAction(New(g), Action[struct{}, string]{
			Method: http.MethodGet, Path: "", Binder: BindNone,
			Roles: []domain.Role{domain.RoleAdmin}, Handler: ok,
		})
	}

	cases := map[string]int{
		"/anon":   http.StatusUnauthorized,
		"/user":   http.StatusForbidden,
		"/admin":  http.StatusOK,
		"/frozen": http.StatusForbidden,
	}
	for path, code := range cases {
		w, _ := do(r, http.MethodGet, path, "")
		assert.Equal(t, code, w.Code, path)
	}
}

func TestFail(t *testing.T) {
	r := gin.New()
	r.GET("/app", func(c *gin.Context) {
		Fail(c, apperr.BadRequest("bad").WithField("title", "required"))
	})
	r.GET("/conflict", func(c *gin.Context) { Fail(c, apperr.Conflict("project is already approved")) })
	r.GET("/raw", func(c *gin.Context) { Fail(c, errors.New("dial tcp 10.0.0.1: refused")) })

	w, body := do(r, http.MethodGet, "/app", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad", body.Message)
	assert.Equal(t, map[string]string{"title": "required"}, body.Errors)

	w, body = do(r, http.MethodGet, "/conflict", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "project is already approved", body.Message)

	w, body = do(r, http.MethodGet, "/raw", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}
