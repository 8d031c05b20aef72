package router

import (
	"fmt"

	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/interfaces/http/handler"
	"github.com/erp/accounting/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig assembles the HTTP stack
type EngineConfig struct {
	Logger           *zap.Logger
	Meter            metric.Meter
	Tracing          middleware.TracingConfig
	Auth             middleware.AuthConfig
	ProfilingEnabled bool
	MaxBodySize      int64
	SwaggerEnabled   bool
	TrustedProxies   []string
}

// NewEngine builds the gin engine with the middleware chain, the health
// and swagger routes and every mounted API area. Authentication applies
// to the versioned API only.
func NewEngine(cfg EngineConfig, health *handler.HealthHandler, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = log
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(logger.GinRecovery(log))
	engine.Use(logger.GinLogger(log))
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.HTTPMetrics(cfg.Meter))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	if health != nil {
		engine.GET("/health", health.Health)
	}
	if cfg.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := NewRouter(engine, WithMiddleware(
		middleware.Authenticate(cfg.Auth),
		middleware.SpanEnricher(),
		middleware.Profiling(cfg.ProfilingEnabled),
	))
	r.Register(FinanceRoutes(h))
	if h.Outbox != nil {
		r.Register(SystemRoutes(h.Outbox))
	}
	if h.Integration != nil {
		r.Register(IntegrationRoutes(h.Integration))
	}
	r.Setup()

	return engine, nil
}
