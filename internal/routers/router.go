// Package routers serves the private HTTP listener of the sync client:
// prometheus metrics, health and sync status.
package routers

import (
	"expvar"

	"github.com/magnusfroste/notton/internal/middleware"
	pkgapp "github.com/magnusfroste/notton/pkg/app"
	"github.com/magnusfroste/notton/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatusSource reports the live sync state
type StatusSource interface {
	Online() bool
	PendingCount() int
	Loading() bool
}

// Options 私有路由配置
type Options struct {
	// RunMode "debug" mounts pprof and gin's own recovery
	RunMode  string
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
	Status   StatusSource
	Version  pkgapp.VersionInfo
}

// SyncStatus /status 响应数据
type SyncStatus struct {
	Online  bool               `json:"online"`
	Pending int                `json:"pending"`
	Loading bool               `json:"loading"`
	Version pkgapp.VersionInfo `json:"version"`
}

// NewPrivateRouter 创建私有路由
func NewPrivateRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	if opts.RunMode == "debug" {
		r.Use(gin.Recovery())
	} else {
		r.Use(middleware.RecoveryWithLogger(opts.Logger))
	}
	r.Use(middleware.AccessLogWithLogger(opts.Logger))

	// prom监控
	r.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	r.GET("/healthz", func(c *gin.Context) {
		pkgapp.NewResponse(c).ToResponse(code.Success.Clone())
	})
	r.GET("/status", func(c *gin.Context) {
		if opts.Status == nil {
			pkgapp.NewResponse(c).ToResponse(code.ErrorServerInternal.Clone().WithDetails("sync engine not running"))
			return
		}
		pkgapp.NewResponse(c).ToResponse(code.Success.Clone().WithData(SyncStatus{
			Online:  opts.Status.Online(),
			Pending: opts.Status.PendingCount(),
			Loading: opts.Status.Loading(),
			Version: opts.Version,
		}))
	})

	if opts.RunMode == "debug" {
		registerPprof(r)
	}
	return r
}
