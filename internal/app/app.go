// Package app 两个进程共用的依赖装配
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"powerfolio/internal/core/auth"
	"powerfolio/internal/core/cache"
	"powerfolio/internal/core/config"
	"powerfolio/internal/core/database"
	"powerfolio/internal/repo"
	"powerfolio/internal/service"
	"powerfolio/internal/transport/http/handler"
	mdw "powerfolio/internal/transport/http/middleware"
	"powerfolio/internal/transport/http/router"
)

const cachePrefix = "powerfolio:"

type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Cache *cache.Cache
	JWT   *auth.JWTer

	Users    *repo.UserRepo
	Projects *repo.ProjectRepo

	Auth      *service.AuthService
	UserSvc   *service.UserService
	ProjSvc   *service.ProjectService
	Analytics *service.AnalyticsService
}

// New 打开数据库与缓存并装配 service；migrate 为 true 时先建表
func New(cfg *config.Config, log *zap.Logger, migrate bool) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if migrate {
		if err := repo.Migrate(db); err != nil {
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}

	jwter, err := auth.NewJWTer(auth.TokenConfig{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
		Leeway: cfg.JWT.Leeway(),
	})
	if err != nil {
		return nil, err
	}

	c := cache.New(cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cachePrefix,
		TTL:      time.Duration(cfg.Redis.CacheTTLSec) * time.Second,
	}, log)
	if c != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// 缓存不可用不阻止启动，读路径会直接回源
		if err := c.Ping(ctx); err != nil {
			log.Warn("redis unavailable, analytics served uncached", zap.Error(err))
		}
	}

	users, projects := repo.NewUserRepo(db), repo.NewProjectRepo(db)
	return &App{
		Cfg:       cfg,
		Log:       log,
		DB:        db,
		Cache:     c,
		JWT:       jwter,
		Users:     users,
		Projects:  projects,
		Auth:      service.NewAuthService(users, jwter, log),
		UserSvc:   service.NewUserService(users, projects, log),
		ProjSvc:   service.NewProjectService(projects, users, c, log),
		Analytics: service.NewAnalyticsService(users, projects, c),
	}, nil
}

func (a *App) deps() router.Deps {
	return router.Deps{
		Log:      a.Log,
		Verifier: a.JWT,
		Users:    a.Users,
		Limits:   a.Cfg.Limits,
		Mode:     ginMode(a.Cfg.App.Env),
	}
}

// APIEngine 用户端：auth / users / projects
func (a *App) APIEngine() *gin.Engine {
	var limits []gin.HandlerFunc
	if l := a.Cfg.Limits; l.AuthRPS > 0 {
		limits = append(limits, mdw.RateLimitPerIP(rate.Limit(l.AuthRPS), max(1, l.AuthBurst)))
	}
	reg := router.NewRegistry(
		handler.NewAuthHandler(a.Auth, limits...),
		handler.NewUserHandler(a.UserSvc),
		handler.NewProjectHandler(a.ProjSvc),
	)
	return router.NewAPIEngine(a.deps(), reg)
}

// AdminEngine 管理端：审核 / 用户 / 统计
func (a *App) AdminEngine() *gin.Engine {
	reg := router.NewRegistry(handler.NewAdminHandler(a.ProjSvc, a.UserSvc, a.Analytics))
	return router.NewAdminEngine(a.deps(), reg)
}

func (a *App) Close() {
	_ = a.Cache.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func ginMode(env string) string {
	switch env {
	case "prod", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	}
	return gin.DebugMode
}
