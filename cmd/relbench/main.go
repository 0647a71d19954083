package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/yatube/config"
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

// 关注/取消关注吞吐：N 个用户并发关注同一作者，再全部取消
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)
	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		panic(err)
	}

	N := envInt("N", 10000)
	CONC := envInt("CONC", 1)
	PAGE := envInt("PAGE", 50)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	relSvc := service.NewRelationshipService(followRepo, userRepo)
	ctx := context.Background()

	run := uuid.NewString()[:8]
	celeb := &model.User{Username: "celeb_" + run, PasswordHash: "x"}
	if err := userRepo.Create(ctx, celeb); err != nil {
		panic(err)
	}
	users := make([]model.User, N)
	for i := range users {
		users[i] = model.User{Username: fmt.Sprintf("fan_%s_%d", run, i), PasswordHash: "x"}
	}
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		panic(err)
	}

	measure := func(op func(followerID uint) error) (time.Duration, []time.Duration) {
		workers := CONC
		if workers > N {
			workers = N
		}
		feed := make(chan int, N)
		for i := 0; i < N; i++ {
			feed <- i
		}
		close(feed)

		recs := make(chan time.Duration, N)
		done := make(chan struct{}, workers)
		t0 := time.Now()
		for w := 0; w < workers; w++ {
			go func() {
				for i := range feed {
					st := time.Now()
					if err := op(users[i].ID); err != nil {
						panic(err)
					}
					recs <- time.Since(st)
				}
				done <- struct{}{}
			}()
		}
		for w := 0; w < workers; w++ {
			<-done
		}
		total := time.Since(t0)
		close(recs)
		out := make([]time.Duration, 0, N)
		for d := range recs {
			out = append(out, d)
		}
		return total, out
	}

	followDur, followRecs := measure(func(id uint) error {
		_, err := relSvc.Follow(ctx, id, celeb.Username)
		return err
	})

	// 重复关注应为空操作
	dupDur, _ := measure(func(id uint) error {
		_, err := relSvc.Follow(ctx, id, celeb.Username)
		return err
	})
	fans := must(followRepo.CountFollowers(ctx, celeb.ID))

	q0 := time.Now()
	_ = must(relSvc.ListFans(ctx, celeb.Username, 1, PAGE))
	fansDur := time.Since(q0)

	q1 := time.Now()
	_ = must(relSvc.ListFollowing(ctx, users[0].Username, 1, PAGE))
	follDur := time.Since(q1)

	unfollowDur, unfollowRecs := measure(func(id uint) error {
		_, err := relSvc.Unfollow(ctx, id, celeb.Username)
		return err
	})

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Follow total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		followDur, followDur/time.Duration(N), pct(followRecs, 0.50), pct(followRecs, 0.95), pct(followRecs, 0.99))
	fmt.Printf("Duplicate follow total: %v, edges after: %d (want %d)\n", dupDur, fans, N)
	fmt.Printf("Unfollow total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		unfollowDur, unfollowDur/time.Duration(N), pct(unfollowRecs, 0.50), pct(unfollowRecs, 0.95), pct(unfollowRecs, 0.99))
	fmt.Printf("Query fans(%d) latency: %v\n", PAGE, fansDur)
	fmt.Printf("Query following(%d) latency: %v\n", PAGE, follDur)
}
