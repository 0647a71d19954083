// Package app 组装仓储、服务与路由
package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/router"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
)

// App 组装完成的应用
type App struct {
	Engine    *gin.Engine
	PageCache *cache.PageCache
	Sessions  *auth.SessionManager
	Tokens    *auth.TokenManager

	Posts     service.PostService
	Comments  service.CommentService
	Relations service.RelationshipService
	Users     service.UserService
}

// Options 可替换的外部资源
type Options struct {
	CacheStore cache.Store
	Media      *media.FSStore
	// BcryptCost 0 表示默认值
	BcryptCost int
}

func New(cfg *config.Config, db *gorm.DB, opts Options) (*App, error) {
	if opts.CacheStore == nil {
		opts.CacheStore = cache.NewMemoryStore(cfg.Cache.Size)
	}
	if opts.Media == nil {
		opts.Media = media.NewLocalStore(cfg.Media.Dir, cfg.Media.MaxUploadBytes)
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	a := &App{
		PageCache: cache.NewPageCache(opts.CacheStore),
		Sessions: auth.NewSessionManager(cfg.Auth.SessionName, cfg.Auth.SessionSecret,
			cfg.Auth.SessionMaxAge, cfg.Server.Mode == gin.ReleaseMode),
		Tokens: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL),
	}
	a.Posts = service.NewPostService(service.PostDeps{
		Posts:    repository.NewPostRepository(db),
		Groups:   repository.NewGroupRepository(db),
		Users:    userRepo,
		Comments: commentRepo,
		Follows:  followRepo,
		Media:    opts.Media,
		PageSize: cfg.Posts.PageSize,
	})
	a.Comments = service.NewCommentService(a.Posts, commentRepo)
	a.Relations = service.NewRelationshipService(followRepo, userRepo)
	a.Users = service.NewUserService(userRepo, opts.BcryptCost)

	h := handler.New(handler.Deps{
		Posts:     a.Posts,
		Comments:  a.Comments,
		Relations: a.Relations,
		Users:     a.Users,
		Sessions:  a.Sessions,
		Tokens:    a.Tokens,
	})
	engine, err := router.New(router.Deps{
		Config:    cfg,
		Handler:   h,
		Sessions:  a.Sessions,
		Tokens:    a.Tokens,
		Users:     a.Users,
		PageCache: a.PageCache,
		Media:     opts.Media.HTTP(),
	})
	if err != nil {
		return nil, err
	}
	a.Engine = engine
	return a, nil
}
