// Package httpapi is the JSON gateway over the use-cases. Failures render as
// {"error":{"kind","code","message","retryable"}} with a status derived
// from the kind; successes render as {"data": ...}.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nimli/internal/platform/ratelimit"
	"nimli/internal/usecase"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// Options wires the gateway.
type Options struct {
	Services *usecase.Services
	Sessions *Sessions
	Logger   *slog.Logger
	// Limiter is keyed by client IP. Nil disables limiting.
	Limiter *ratelimit.Keyed
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Webhook receives chat bot updates on POST /telegram/webhook when set.
	Webhook http.Handler
	Checks  map[string]Check
}

type server struct {
	svc      *usecase.Services
	sessions *Sessions
	log      *slog.Logger
	checks   map[string]Check
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(o Options) *gin.Engine {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &server{svc: o.Services, sessions: o.Sessions, log: log, checks: o.Checks}

	r := gin.New()
	r.Use(gin.Recovery(), requestLog(log))

	r.GET("/healthz", s.health)
	if o.Metrics != nil {
		r.GET("/metrics", gin.WrapH(o.Metrics))
	}
	if o.Webhook != nil {
		r.POST("/telegram/webhook", gin.WrapH(o.Webhook))
	}

	v1 := r.Group("/v1", rateLimit(o.Limiter))
	{
		v1.GET("/tags/popular", s.popularTags)
		v1.GET("/tags/search", s.searchTags)
		v1.POST("/tags/by-ids", s.tagsByIDs)

		v1.GET("/creators/popular", s.popularCreators)
		v1.GET("/creators/search", s.searchCreatorsByName)
		v1.POST("/creators/search-by-tags", s.searchCreatorsByTags)
		v1.GET("/creators/:id", s.creatorDetail)

		v1.POST("/auth/phone/send", s.sendCode)
		v1.POST("/auth/phone/verify", s.verifyCode)
	}

	user := v1.Group("", o.Sessions.requireSession())
	{
		user.GET("/favorites", s.listFavorites)
		user.POST("/favorites", s.addFavorite)
		user.GET("/favorites/:id", s.favoriteStatus)
		user.DELETE("/favorites/:id", s.removeFavorite)

		user.GET("/search-history", s.listHistory)
		user.POST("/search-history", s.saveHistory)
		user.DELETE("/search-history", s.clearHistory)

		user.POST("/tag-applications", s.submitTagApplication)
		user.POST("/correction-requests", s.submitCorrection)
	}
	return r
}

func requestLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		lvl := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			lvl = slog.LevelWarn
		}
		log.Log(c.Request.Context(), lvl, "http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", status,
			"duration", time.Since(start))
	}
}

func rateLimit(l *ratelimit.Keyed) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errorBody{
				Kind:      "rateLimited",
				Code:      http.StatusTooManyRequests,
				Message:   "too many requests",
				Retryable: true,
			}})
			return
		}
		c.Next()
	}
}

func (s *server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
