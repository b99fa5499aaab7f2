package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/DevPulse/internal/aggregator"
	"github.com/LJTian/DevPulse/internal/api"
	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/config"
	"github.com/LJTian/DevPulse/internal/ranking"
	"github.com/LJTian/DevPulse/internal/scheduler"
	"github.com/LJTian/DevPulse/internal/storage"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.RedisURL)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 注册表为空时写入初始源
	seeds, err := storage.LoadSeedFile(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("load sources file failed: %v", err)
	}
	if err := store.SeedSources(context.Background(), seeds); err != nil {
		log.Fatalf("seed sources failed: %v", err)
	}

	agg := aggregator.New(newDispatcher(cfg), ranking.New())
	agg.Workers = cfg.FetchWorkers
	agg.SourceTimeout = cfg.SourceTimeout

	svc := aggregator.NewService(agg, store, store.Cache(), store)
	svc.TTL = cfg.CacheTTL

	s, err := scheduler.New(cfg.CronSpec, svc, cfg.SourceTimeout)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	api.NewServer(svc, store).RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		log.Printf("starting api server at %s ...", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	select {
	case <-s.Stop().Done():
	case <-ctx.Done():
	}
}

func newDispatcher(cfg *config.Config) *collector.Dispatcher {
	return collector.NewDispatcher(collector.Options{
		Client:             &http.Client{Timeout: cfg.SourceTimeout},
		UserAgent:          cfg.UserAgent,
		DevToAPIKey:        cfg.DevToAPIKey,
		GitHubToken:        cfg.GitHubToken,
		RedditClientID:     cfg.RedditClientID,
		RedditClientSecret: cfg.RedditClientSecret,
		ProductHuntID:      cfg.ProductHuntAPIKey,
		ProductHuntSecret:  cfg.ProductHuntAPISecret,
		// 公开接口对未认证请求限流较严，所有 Reddit 源共享一个限流器
		RedditLimiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	})
}

// basicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// 仅当配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用。
// /health 不做认证，便于健康检查。
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
