package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "powerfolio", Name: "http_requests_total", Help: "HTTP requests by route and status"},
		[]string{"server", "path", "method", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "powerfolio",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"server", "path", "method"},
	)
)

func init() { prometheus.MustRegister(httpReqTotal, httpLatency) }

// Metrics server 区分 api / admin
func Metrics(server string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			// 未匹配路由不按原始 URL 打点，避免标签爆炸
			path = "unmatched"
		}
		httpReqTotal.WithLabelValues(server, path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(server, path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler /metrics
func MetricsHandler() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
