package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Config holds middleware configuration
type Config struct {
	Logger         *slog.Logger
	ServiceName    string
	EnableCORS     bool
	TrustedProxies []string
}

// DefaultConfig returns a default middleware configuration
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:      logger,
		ServiceName: serviceName,
		EnableCORS:  true,
	}
}

// Setup installs the platform chain: recovery, IDs, access log, CORS, JSON-only bodies
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	chain := []gin.HandlerFunc{Recovery(config.Logger), RequestID(), CorrelationID(), Logger(config.Logger)}
	if config.EnableCORS {
		chain = append(chain, CORS())
	}
	router.Use(append(chain, ContentType())...)

	router.HandleMethodNotAllowed = true
	router.NoRoute(routeError(http.StatusNotFound, "ROUTE_NOT_FOUND", "The requested resource was not found"))
	router.NoMethod(routeError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource"))
}

// CORS allows browser tooling to call the selection API
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+HeaderRequestID+", "+HeaderCorrelationID)
		h.Set("Access-Control-Expose-Headers", HeaderRequestID+", "+HeaderCorrelationID)
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// HealthCheck reports liveness only
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	}
}

// Check is one named readiness check
type Check func(ctx context.Context) error

// ReadinessCheck runs every check with the request context. Any failure answers 503,
// naming the failed checks in "error" and listing each result under "checks".
func ReadinessCheck(serviceName string, checks map[string]Check) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		results := make(map[string]string, len(names))
		var failed string
		for _, name := range names {
			if err := checks[name](c.Request.Context()); err != nil {
				results[name] = err.Error()
				if failed != "" {
					failed += "; "
				}
				failed += name + ": " + err.Error()
				continue
			}
			results[name] = "ok"
		}

		if failed != "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   failed,
				"checks":  results,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName, "checks": results})
	}
}

func routeError(status int, code, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(status, APIErrorResponse{
			Code:      code,
			Message:   message,
			RequestID: GetRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request.URL.Path,
		})
	}
}
