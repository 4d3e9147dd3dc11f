package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"laundry-machine-tracker/config"
	"laundry-machine-tracker/internal/mw"
	"laundry-machine-tracker/internal/store"
)

// NewRouter creates and configures a new Gin router. accessLog receives the
// request log so the /logs/access endpoint has something to serve.
func NewRouter(s store.Store, cfg *config.ServerConfig, accessLog io.Writer) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(accessLog), gin.Recovery())

	db := s.DB()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	r.Use(rateLimiter)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// GET / — the full availability snapshot, with optional narrowing.
	r.GET("/", caching, GetStatus(db))

	// POST /claim — attribute the last user of a machine.
	r.POST("/claim", ClaimMachine(db))

	// Log exposure, plain text.
	r.GET("/logs/access", GetLogFile(cfg.AccessLogPath, "access.log"))
	r.GET("/logs/error", GetLogFile(cfg.ErrorLogPath, "error.log"))

	return r
}
