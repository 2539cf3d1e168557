package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"powerfolio/internal/core/config"
	"powerfolio/internal/core/server"
	mdw "powerfolio/internal/transport/http/middleware"
)

// Deps 两个引擎共用的依赖
type Deps struct {
	Log      *zap.Logger
	Verifier mdw.TokenVerifier
	Users    mdw.UserFinder
	Limits   config.Limits
	Mode     string // gin 模式
}

func baseEngine(name string, d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	l := withDefaults(d.Limits)
	r := server.NewRouter(server.Options{Name: name, Mode: d.Mode},
		mdw.RequestID(),
		mdw.AccessLog(d.Log),
		mdw.Recovery(d.Log),
		mdw.Metrics(name),
		mdw.RateLimit(rate.Limit(l.RPS), l.Burst),
		mdw.ConcurrencyLimit(l.Concurrency),
		mdw.MaxBodyBytes(l.MaxBodyBytes),
		mdw.Timeout(time.Duration(l.RequestTimeoutSec)*time.Second),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())
	return r
}

// withDefaults 未配置的限额取宽松默认值；RPS<=0 表示不限速
func withDefaults(l config.Limits) config.Limits {
	if l.RPS <= 0 {
		l.RPS = float64(rate.Inf)
	}
	if l.Burst <= 0 {
		l.Burst = 1
	}
	if l.Concurrency <= 0 {
		l.Concurrency = 300
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = 16 << 20
	}
	if l.RequestTimeoutSec <= 0 {
		l.RequestTimeoutSec = 10
	}
	return l
}

func NewAPIEngine(d Deps, reg *Registry) *gin.Engine {
	r := baseEngine("api", d)

	// 前缀
	api := r.Group("/api/v1")

	// 鉴权分组：认证闸 → 账号状态闸（/auth/me 也在这里）
	private := api.Group("")
	private.Use(mdw.Authenticate(d.Verifier, d.Users), mdw.RequireActive())

	reg.MountAllAPI(Groups{Public: api, Private: private})
	return r
}
