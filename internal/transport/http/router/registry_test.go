package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type recMod struct {
	name  string
	prio  int
	order *[]string
}

func (m recMod) MountAPI(g Groups) {
	*m.order = append(*m.order, m.name)
	g.Public.GET("/"+m.name, func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func (m recMod) Priority() int { return m.prio }

type adminOnly struct{ mounted *bool }

func (m adminOnly) MountAdmin(*gin.RouterGroup) { *m.mounted = true }

func TestRegistry_OrderAndDispatch(t *testing.T) {
	var order []string
	var adminMounted bool
	reg := NewRegistry(
		recMod{name: "late", prio: 200, order: &order},
		recMod{name: "early", prio: 1, order: &order},
		adminOnly{mounted: &adminMounted},
	)

	r := NewAPIEngine(Deps{Mode: gin.TestMode}, reg)
	assert.Equal(t, []string{"early", "late"}, order)
	assert.False(t, adminMounted)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/early", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	NewAdminEngine(Deps{Mode: gin.TestMode}, reg)
	assert.True(t, adminMounted)
}

func TestWithDefaults(t *testing.T) {
	l := withDefaults(Deps{}.Limits)
	assert.Positive(t, l.RPS)
	assert.EqualValues(t, 300, l.Concurrency)
	assert.EqualValues(t, 16<<20, l.MaxBodyBytes)
	assert.Equal(t, 10, l.RequestTimeoutSec)
}
