package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/optimize"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/internal/usage"
)

const (
	rateGroupGenerate = "GENERATE"
	rateGroupFetch    = "FETCH"
	rateGroupDefault  = "DEFAULT"
)

// RouterDeps carries the handlers wired by bootstrap.
type RouterDeps struct {
	Config          config.Config
	OptimizeHandler *optimize.Handler
	UsageHandler    *usage.Handler
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	// ClientIP keys the quota and rate limits; only listed proxies may set X-Forwarded-For.
	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		telemetry.Warn("router.trusted_proxies_invalid", map[string]any{"error": err.Error()})
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        rateLimitRules(deps.Config),
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.OptimizeHandler != nil {
		deps.OptimizeHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
		if deps.Config.Env == "dev" {
			deps.UsageHandler.RegisterDevRoutes(api.Group("/dev"))
		}
	}

	return r
}

func rateLimitRules(cfg config.Config) map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		rateGroupGenerate: {Rate: cfg.GenerateRatePerMin / 60.0, Burst: cfg.GenerateBurst},
		rateGroupFetch:    {Rate: 0.5, Burst: 5},
		rateGroupDefault:  {Rate: 5, Burst: 20},
	}
}

func rateGroupFor(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/optimize", "/api/v1/optimize/download":
		return rateGroupGenerate
	case "/api/v1/job-descriptions/fetch":
		return rateGroupFetch
	case "/api/v1/health", "/api/v1/metrics":
		return "NONE"
	default:
		return rateGroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
