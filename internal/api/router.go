package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/LJTian/DevPulse/internal/aggregator"
	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/ranking"
	"github.com/LJTian/DevPulse/internal/storage"
	"github.com/gin-gonic/gin"
)

// FeedService 由 aggregator.Service 实现
type FeedService interface {
	Sources(ctx context.Context, category string) ([]collector.Descriptor, error)
	Feed(ctx context.Context, id uint, mode ranking.Mode, subreddit string) ([]collector.Item, error)
	AllFeeds(ctx context.Context, mode ranking.Mode, category string) ([]collector.Item, error)
}

// SkipLister 由 storage.Store 实现，可为空
type SkipLister interface {
	RecentSkips(ctx context.Context, limit int) ([]storage.FetchSkip, error)
}

type Server struct {
	svc   FeedService
	skips SkipLister
}

func NewServer(svc FeedService, skips SkipLister) *Server {
	return &Server{svc: svc, skips: skips}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/sources", s.listSources)
		v1.GET("/feeds", s.allFeeds)
		v1.GET("/feeds/:id", s.feed)
		v1.GET("/skips", s.listSkips)
	}
}

type sourceView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FeedType string `json:"feedType"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listSources(c *gin.Context) {
	list, err := s.svc.Sources(c.Request.Context(), c.Query("category"))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]sourceView, 0, len(list))
	for _, d := range list {
		out = append(out, sourceView{ID: d.ID, Name: d.Name, URL: d.URL, FeedType: d.FeedType, Category: d.Category, Icon: d.Icon})
	}
	ok(c, out)
}

func (s *Server) feed(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "invalid source id",
		})
		return
	}
	mode := ranking.ParseMode(c.DefaultQuery("sort", "hot"))

	items, err := s.svc.Feed(c.Request.Context(), uint(id), mode, c.Query("subreddit"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, nonNil(items))
}

func (s *Server) allFeeds(c *gin.Context) {
	mode := ranking.ParseMode(c.DefaultQuery("sort", "hot"))

	items, err := s.svc.AllFeeds(c.Request.Context(), mode, c.Query("category"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, nonNil(items))
}

func (s *Server) listSkips(c *gin.Context) {
	if s.skips == nil {
		ok(c, []storage.FetchSkip{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	rows, err := s.skips.RecentSkips(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, rows)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

// fail 抓取错误按分类返回 502 / 501 / 400，源不存在返回 404，其它为 500
func (s *Server) fail(c *gin.Context, err error) {
	var fe *collector.FetchError
	switch {
	case errors.Is(err, aggregator.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "source not found",
		})
	case errors.As(err, &fe):
		log.Printf("api: fetch %s failed: %v", c.Request.URL.Path, err)
		c.JSON(fe.StatusCode(), gin.H{
			"code":    fe.Kind.String(),
			"message": err.Error(),
		})
	default:
		log.Printf("api: %s failed: %v", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
	}
}

func nonNil(items []collector.Item) []collector.Item {
	if items == nil {
		return []collector.Item{}
	}
	return items
}
