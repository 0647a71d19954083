package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

var groups = []model.Group{
	{Title: "Cats", Slug: "cats", Description: "Everything about cats"},
	{Title: "Travel", Slug: "travel", Description: "Notes from the road"},
	{Title: "Go", Slug: "go", Description: "Gophers and their code"},
}

// 写入演示数据：分组、用户（密码 password123）、帖子与关注关系
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db := must(database.InitDB(cfg))
	defer database.Close(db)
	mustDo(database.Migrate(db, cfg.Database.Driver))

	USERS := envInt("USERS", 5)
	POSTS := envInt("POSTS", 30)
	ctx := context.Background()

	groupRepo := repository.NewGroupRepository(db)
	for i := range groups {
		g := groups[i]
		if _, err := groupRepo.GetBySlug(ctx, g.Slug); err == nil {
			continue
		}
		mustDo(groupRepo.Create(ctx, &g))
		groups[i] = g
	}
	all := must(groupRepo.List(ctx))

	userRepo := repository.NewUserRepository(db)
	users := service.NewUserService(userRepo, 0)
	authors := make([]*model.User, 0, USERS)
	for i := 0; i < USERS; i++ {
		name := fmt.Sprintf("user%d", i)
		u, err := users.Register(ctx, name, "password123")
		if errors.Is(err, service.ErrUsernameTaken) {
			u = must(userRepo.GetByUsername(ctx, name))
		} else if err != nil {
			panic(err)
		}
		authors = append(authors, u)
	}

	rnd := rand.New(rand.NewSource(1))
	postRepo := repository.NewPostRepository(db)
	base := time.Now().UTC().Add(-time.Duration(POSTS) * time.Hour)
	for i := 0; i < POSTS; i++ {
		p := &model.Post{
			Text:      fmt.Sprintf("Post number %d. Lorem ipsum dolor sit amet.", i),
			AuthorID:  authors[rnd.Intn(len(authors))].ID,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if len(all) > 0 && rnd.Intn(3) > 0 {
			p.GroupID = &all[rnd.Intn(len(all))].ID
		}
		mustDo(postRepo.Create(ctx, p))
	}

	// user0 关注其他所有作者
	rels := service.NewRelationshipService(repository.NewFollowRepository(db), userRepo)
	for _, a := range authors[1:] {
		if _, err := rels.Follow(ctx, authors[0].ID, a.Username); err != nil {
			panic(err)
		}
	}

	logger.Info("seed done",
		zap.Int("groups", len(all)),
		zap.Int("users", len(authors)),
		zap.Int("posts", POSTS),
	)
}
