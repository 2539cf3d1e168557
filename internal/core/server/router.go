package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Name string // api / admin
	Mode string // gin.DebugMode / gin.ReleaseMode / gin.TestMode；空则不改
}

// NewRouter 基础引擎：CORS 在最外层，其余中间件按传入顺序挂载
func NewRouter(o Options, mws ...gin.HandlerFunc) *gin.Engine {
	if o.Mode != "" {
		gin.SetMode(o.Mode)
	}
	r := gin.New()

	cc := cors.DefaultConfig()
	cc.AllowAllOrigins = true
	cc.AddAllowHeaders("Authorization", "X-Request-ID")
	cc.AddExposeHeaders("X-Request-ID")
	r.Use(cors.New(cc))

	r.Use(mws...)
	return r
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
}

// Serve 启动并阻塞到 ctx 结束，然后在 grace 内优雅关闭
func Serve(ctx context.Context, srv *http.Server, l *zap.Logger, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		l.Info("http starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }

// HumanURL 启动日志里可点击的地址
func HumanURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + Addr(host, port)
}
