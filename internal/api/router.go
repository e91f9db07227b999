package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/vaultguard/credential-vault/docs"
	"github.com/vaultguard/credential-vault/internal/api/handler"
	"github.com/vaultguard/credential-vault/internal/api/middleware"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	infrahttp "github.com/vaultguard/credential-vault/internal/infrastructure/http"
	"github.com/vaultguard/credential-vault/internal/infrastructure/http/handlers"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Probes    []handlers.Probe
	JWTSecret string
	Log       zerolog.Logger
	// Metrics receives HTTP metrics. Nil means the default registry.
	Metrics *prometheus.Registry
	// IPExtractor resolves client addresses. Nil keeps the socket peer.
	IPExtractor echo.IPExtractor

	Auth      ports.AuthService
	Vault     ports.VaultService
	Alerts    ports.AlertService
	Activity  ports.ActivityService
	Generator ports.PasswordGenerator
	ScanDedup handler.ScanDeduper
	ScanQueue handler.ScanQueue
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := infrahttp.NewEcho(d.Log, d.Metrics, d.Probes...)
	if d.IPExtractor != nil {
		e.IPExtractor = d.IPExtractor
	}
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	authHandler := handler.NewAuthHandler(d.Auth)
	vaultHandler := handler.NewVaultHandler(d.Vault, d.Alerts)
	alertHandler := handler.NewAlertHandler(d.Alerts, d.ScanDedup, d.ScanQueue)
	activityHandler := handler.NewActivityHandler(d.Activity)
	generatorHandler := handler.NewGeneratorHandler(d.Generator)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", middleware.Auth(d.JWTSecret))
	v1.GET("/me", authHandler.Me)

	v1.GET("/passwords", vaultHandler.List)
	v1.POST("/passwords", vaultHandler.Create)
	v1.GET("/passwords/:id", vaultHandler.Get)
	v1.PATCH("/passwords/:id", vaultHandler.Update)
	v1.DELETE("/passwords/:id", vaultHandler.Delete)
	v1.GET("/stats", vaultHandler.Stats)

	v1.GET("/alerts", alertHandler.List)
	v1.POST("/alerts/scan", alertHandler.Scan)
	v1.POST("/alerts/:id/resolve", alertHandler.Resolve)

	v1.GET("/activity", activityHandler.List)
	v1.POST("/generate", generatorHandler.Generate)

	// --- API docs ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
