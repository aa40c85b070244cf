package handler

import (
	"private-ledger-indexer/internal/adapter/http/middleware"
	"private-ledger-indexer/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	IndexSvc       ports.IndexService
	Scheduler      ports.ReloadScheduler
	SigSvc         ports.SignatureService
	NonceStore     ports.NonceStore
	TokenSvc       ports.TokenService
	HookAuth       middleware.HookAuthConfig
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/token", authHandler.Token)
	}

	// --- HMAC-authenticated routes (chain notifier) ---
	hookAuth := middleware.HookAuth(deps.HookAuth, deps.SigSvc, deps.NonceStore, deps.Logger)
	hookHandler := NewHookHandler(deps.Scheduler, deps.Logger)
	recordHandler := NewRecordHandler(deps.IndexSvc, deps.Scheduler)

	hooks := v1.Group("/hooks", hookAuth)
	{
		hooks.POST("/ledger", hookHandler.LedgerEvent)
	}
	v1.POST("/records", hookAuth, recordHandler.Submit)

	// --- JWT-authenticated routes (client API) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1.GET("/records", jwtAuth, recordHandler.List)

	return r
}
