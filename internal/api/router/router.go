package router

import (
	"fmt"
	"net/http"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/yatube/config"
	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/web"
)

// Deps 路由依赖
type Deps struct {
	Config    *config.Config
	Handler   *handler.Handler
	Sessions  *auth.SessionManager
	Tokens    *auth.TokenManager
	Users     middleware.UserLoader
	PageCache *cache.PageCache
	Media     http.FileSystem
}

// New 组装 gin 引擎
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	tmpl, err := web.Templates(cfg.Media.URLPrefix, cfg.Auth.LoginURL)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(middleware.Recovery(), middleware.RequestID())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	mediaPath := "/" + strings.Trim(cfg.Media.URLPrefix, "/")
	r.Use(
		middleware.Logger(),
		middleware.Metrics(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", mediaPath + "/"})),
	)
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	r.Use(middleware.Authenticate(d.Sessions, d.Tokens, d.Users))

	h := d.Handler
	login := middleware.LoginRequired(cfg.Auth.LoginURL)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if d.Media != nil {
		r.StaticFS(mediaPath, d.Media)
	}

	r.GET("/", middleware.CachePage(d.PageCache, cfg.Cache.TTL), h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/profile/:username/follow/", login, h.ProfileFollow)
	r.GET("/profile/:username/unfollow/", login, h.ProfileUnfollow)
	r.GET("/posts/:id/", h.PostDetail)
	r.GET("/posts/:id/edit/", login, h.PostEdit)
	r.POST("/posts/:id/edit/", login, h.PostEdit)
	r.POST("/posts/:id/comment/", login, h.AddComment)
	r.GET("/create/", login, h.PostCreate)
	r.POST("/create/", login, h.PostCreate)
	r.GET("/follow/", login, h.FollowIndex)

	// 登录页挂在配置的路径上，LoginRequired 跳转到同一地址
	r.GET(cfg.Auth.LoginURL, h.Login)
	r.POST(cfg.Auth.LoginURL, h.Login)
	authPages := r.Group("/auth")
	{
		authPages.GET("/signup/", h.Signup)
		authPages.POST("/signup/", h.Signup)
		authPages.GET("/logout/", h.Logout)
		authPages.POST("/logout/", h.Logout)
	}

	api := r.Group("/api/v1")
	{
		api.POST("/auth/token", h.IssueToken)
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)
		api.GET("/groups/:slug/posts", h.ListGroupPosts)
		api.GET("/relations/:username/following", h.ListFollowing)
		api.GET("/relations/:username/fans", h.ListFans)

		authed := api.Group("", middleware.APIAuthRequired())
		authed.GET("/follow/posts", h.ListFollowPosts)
		authed.POST("/relations/follow", h.Follow)
		authed.POST("/relations/unfollow", h.Unfollow)
	}

	r.NoRoute(h.NotFound)
	return r, nil
}
