// Package api wires together all HTTP routes for the backend.
//
// Route grouping philosophy:
//   - /health, /ready, and /version are public: Kubernetes probes and load
//     balancers must reach them without credentials.
//   - /api/v1/auth/register and /login are public but sit behind the stricter
//     auth rate limiter so credential stuffing is throttled before any bcrypt
//     work happens.
//   - Everything else under /api/v1/ requires a valid session. Vault
//     operations additionally verify the PIN inside the service layer.
package api

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/mitojean/application-resume/internal/api/accounts"
	"github.com/mitojean/application-resume/internal/api/notes"
	vaultapi "github.com/mitojean/application-resume/internal/api/vault"
	"github.com/mitojean/application-resume/internal/config"
	"github.com/mitojean/application-resume/internal/crypto"
	"github.com/mitojean/application-resume/internal/db/repositories"
	"github.com/mitojean/application-resume/internal/middleware"
	"github.com/mitojean/application-resume/internal/vault"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible
// for calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize the envelope cipher. The master secret is validated by
	// cmd/server before this point; failing here means a programming error.
	cipher, err := crypto.DeriveEnvelopeCipher(cfg.Vault.MasterSecret)
	if err != nil {
		log.Fatalf("Failed to initialize envelope cipher: %v", err)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)

	// Wrap *sql.DB with sqlx for the credential and note repositories
	sqlxDB := sqlx.NewDb(db, "postgres")
	credRepo := repositories.NewCredentialRepository(sqlxDB)
	noteRepo := repositories.NewNoteRepository(sqlxDB)

	// Vault service: codec + store + PIN gate
	vaultSvc := vault.NewService(cipher, credRepo, vault.NewGate(userRepo))

	// Handlers
	accountHandlers := accounts.NewHandlers(userRepo, credRepo, cfg.Auth.TokenExpiry)
	vaultHandlers := vaultapi.NewHandlers(vaultSvc)
	noteHandlers := notes.NewHandlers(noteRepo)

	// Rate limiters, unless config disables them (local development, load
	// tests). The login limiter is stricter and keyed by IP; the general
	// limiter runs after AuthMiddleware so every user gets its own bucket.
	bg := &BackgroundServices{}
	var limitGeneral, limitLogin gin.HandlerFunc
	if cfg.Security.RateLimiting.Enabled {
		general := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Security.RateLimiting.RequestsPerMinute,
			Burst:             cfg.Security.RateLimiting.Burst,
		})
		login := middleware.NewRateLimiter(middleware.LoginRateLimitConfig())
		bg.rateLimiters = []*middleware.RateLimiter{general, login}
		limitGeneral = middleware.RateLimitMiddleware(general)
		limitLogin = middleware.RateLimitMiddleware(login)
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.Telemetry.Enabled {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.VaultSecurityHeaders()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint
	router.GET("/ready", readinessHandler(db))

	// API version
	router.GET("/version", versionHandler())

	apiV1 := router.Group("/api/v1")
	{
		// Public auth endpoints behind the stricter limiter
		authGroup := apiV1.Group("/auth")
		if limitLogin != nil {
			authGroup.Use(limitLogin)
		}
		{
			authGroup.POST("/register", accountHandlers.RegisterHandler())
			authGroup.POST("/login", accountHandlers.LoginHandler())
		}

		// Authenticated auth endpoints
		authedAuthGroup := apiV1.Group("/auth")
		authedAuthGroup.Use(middleware.AuthMiddleware(userRepo))
		if limitGeneral != nil {
			authedAuthGroup.Use(limitGeneral)
		}
		{
			authedAuthGroup.GET("/me", accountHandlers.MeHandler())
			authedAuthGroup.DELETE("/me", accountHandlers.DeleteAccountHandler())
			authedAuthGroup.PUT("/pin", accountHandlers.EnrollPINHandler())
		}

		// Vault endpoints: session required on every route; PIN checked
		// inside the service for the operations that need it.
		vaultGroup := apiV1.Group("/vault")
		vaultGroup.Use(middleware.AuthMiddleware(userRepo))
		if limitGeneral != nil {
			vaultGroup.Use(limitGeneral)
		}
		{
			vaultGroup.POST("/passwords", vaultHandlers.AddHandler())
			vaultGroup.GET("/passwords", vaultHandlers.ListHandler())
			vaultGroup.POST("/passwords/:id/reveal", vaultHandlers.RevealHandler())
			vaultGroup.PUT("/passwords/:id", vaultHandlers.UpdateHandler())
			vaultGroup.DELETE("/passwords/:id", vaultHandlers.DeleteHandler())
			vaultGroup.POST("/generate", vaultHandlers.GenerateHandler())
			vaultGroup.POST("/strength", vaultHandlers.StrengthHandler())
		}

		// Notes endpoints: session only
		notesGroup := apiV1.Group("/notes")
		notesGroup.Use(middleware.AuthMiddleware(userRepo))
		if limitGeneral != nil {
			notesGroup.Use(limitGeneral)
		}
		{
			notesGroup.POST("", noteHandlers.CreateHandler())
			notesGroup.GET("", noteHandlers.ListHandler())
			notesGroup.GET("/:id", noteHandlers.GetHandler())
			notesGroup.PUT("/:id", noteHandlers.UpdateHandler())
			notesGroup.DELETE("/:id", noteHandlers.DeleteHandler())
		}
	}

	return router, bg
}

// @Summary      Health check
// @Description  Liveness probe. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: database not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", strings.Join(cfg.Security.CORS.AllowedMethods, ", "))
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
