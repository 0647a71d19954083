package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

// 关注流（拉模式）读延迟，以及首页整页缓存 memory / redis 对比
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)
	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		panic(err)
	}

	AUTHORS := envInt("AUTHORS", 200)
	FOLLOW := envInt("FOLLOW", 50)
	POSTS := envInt("POSTS", 20)
	READS := envInt("READS", 2000)
	ctx := context.Background()

	run := uuid.NewString()[:8]
	authors := make([]model.User, AUTHORS)
	for i := range authors {
		authors[i] = model.User{Username: fmt.Sprintf("author_%s_%d", run, i), PasswordHash: "x"}
	}
	if err := db.CreateInBatches(&authors, 500).Error; err != nil {
		panic(err)
	}
	reader := model.User{Username: "reader_" + run, PasswordHash: "x"}
	if err := db.Create(&reader).Error; err != nil {
		panic(err)
	}

	base := time.Now().UTC().Add(-time.Duration(AUTHORS*POSTS) * time.Second)
	posts := make([]model.Post, 0, AUTHORS*POSTS)
	for i, a := range authors {
		for j := 0; j < POSTS; j++ {
			posts = append(posts, model.Post{
				Text:      fmt.Sprintf("post %d by %s", j, a.Username),
				AuthorID:  a.ID,
				CreatedAt: base.Add(time.Duration(j*AUTHORS+i) * time.Second),
			})
		}
	}
	if err := db.Omit("Author", "Group").CreateInBatches(&posts, 1000).Error; err != nil {
		panic(err)
	}

	followRepo := repository.NewFollowRepository(db)
	for i := 0; i < FOLLOW && i < AUTHORS; i++ {
		if err := followRepo.Create(ctx, reader.ID, authors[i].ID); err != nil {
			panic(err)
		}
	}

	postSvc := service.NewPostService(service.PostDeps{
		Posts:    repository.NewPostRepository(db),
		Groups:   repository.NewGroupRepository(db),
		Users:    repository.NewUserRepository(db),
		Comments: repository.NewCommentRepository(db),
		Follows:  followRepo,
		PageSize: cfg.Posts.PageSize,
	})

	rnd := rand.New(rand.NewSource(42))
	pages := make([]string, READS)
	for i := range pages {
		pages[i] = "1"
		if rnd.Float64() > 0.7 {
			pages[i] = strconv.Itoa(2 + rnd.Intn(20))
		}
	}

	feedRecs := make([]time.Duration, 0, READS)
	for _, p := range pages {
		st := time.Now()
		_ = must(postSvc.FollowFeed(ctx, reader.ID, p))
		feedRecs = append(feedRecs, time.Since(st))
	}
	fmt.Printf("AUTHORS=%d FOLLOW=%d POSTS=%d READS=%d PAGE_SIZE=%d\n", AUTHORS, FOLLOW, POSTS, READS, cfg.Posts.PageSize)
	fmt.Printf("%-14s avg=%v p95=%v p99=%v\n", "Follow feed", avg(feedRecs), pct(feedRecs, 0.95), pct(feedRecs, 0.99))

	render := func(p string) func(context.Context) ([]byte, error) {
		return func(ctx context.Context) ([]byte, error) {
			feed, err := postSvc.Index(ctx, p)
			if err != nil {
				return nil, err
			}
			return json.Marshal(feed.Posts)
		}
	}
	runCache := func(name string, store cache.Store) {
		pc := cache.NewPageCache(store)
		if err := pc.Clear(ctx); err != nil {
			panic(err)
		}
		recs := make([]time.Duration, 0, READS)
		var size int
		for _, p := range pages {
			st := time.Now()
			body, _, err := pc.GetOrCompute(ctx, "/?page="+p, cfg.Cache.TTL, render(p))
			if err != nil {
				panic(err)
			}
			recs = append(recs, time.Since(st))
			size = len(body)
		}
		c := pc.Counters()
		fmt.Printf("%-14s avg=%v p95=%v p99=%v hits=%d misses=%d page=%s\n",
			name, avg(recs), pct(recs, 0.95), pct(recs, 0.99), c.Hits, c.Misses, humanize.Bytes(uint64(size)))
	}

	runCache("Memory cache", cache.NewMemoryStore(cfg.Cache.Size))

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = cfg.Redis.Addr
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("%-14s skipped: %v\n", "Redis cache", err)
		return
	}
	runCache("Redis cache", cache.NewRedisStore(client, cfg.Cache.Prefix+"bench:"))
}
