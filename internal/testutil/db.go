// Package testutil 测试共用数据
package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/database"
)

// NewDB 已迁移的内存 sqlite，随测试关闭
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := database.Migrate(db, "sqlite"); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser 创建用户，密码哈希为占位值
func CreateUser(tb testing.TB, db *gorm.DB, username string) *model.User {
	tb.Helper()
	u := &model.User{Username: username, PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateGroup 按 slug 创建分组
func CreateGroup(tb testing.TB, db *gorm.DB, slug string) *model.Group {
	tb.Helper()
	g := &model.Group{Title: "title " + slug, Slug: slug, Description: "description " + slug}
	if err := db.Create(g).Error; err != nil {
		tb.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

// CreatePosts 创建 n 条帖子，created_at 严格递增，最后一条最新
func CreatePosts(tb testing.TB, db *gorm.DB, author *model.User, group *model.Group, n int) []*model.Post {
	tb.Helper()
	base := time.Now().UTC().Add(-time.Duration(n) * time.Minute)
	posts := make([]*model.Post, n)
	for i := 0; i < n; i++ {
		p := &model.Post{
			Text:      fmt.Sprintf("text%d", i),
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			p.GroupID = &group.ID
		}
		if err := db.Create(p).Error; err != nil {
			tb.Fatalf("create post: %v", err)
		}
		posts[i] = p
	}
	return posts
}
