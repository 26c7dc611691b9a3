package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/halolight/platform/internal/api/handler"
	"github.com/halolight/platform/internal/api/middleware"
	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/service"
	"github.com/halolight/platform/internal/infrastructure/config"
	mongorepo "github.com/halolight/platform/internal/infrastructure/db/mongo"
	redisrepo "github.com/halolight/platform/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("platform"))

	// repositories
	userRepo := mongorepo.NewUserRepository(db)
	roleRepo := mongorepo.NewRoleRepository(db)
	permRepo := mongorepo.NewPermissionRepository(db)
	sessionRepo := mongorepo.NewSessionRepository(db)
	resourceRepo := mongorepo.NewResourceRepository(db)
	capCache := redisrepo.NewCapabilityCache(rdb, cfg.Redis.CacheTTL)

	// services
	sessionManager := service.NewSessionManager(sessionRepo, userRepo, service.SessionConfig{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		ClockSkew:  cfg.Auth.ClockSkew,
	}, log)
	resolver := service.NewCapabilityResolver(roleRepo, permRepo, capCache, log)
	userService := service.NewUserService(userRepo, roleRepo, sessionRepo, capCache, log)
	roleService := service.NewRoleService(roleRepo, permRepo, capCache, log)
	permService := service.NewPermissionService(permRepo)
	resourceService := service.NewResourceService(resourceRepo, log)

	// handlers
	authHandler := handler.NewAuthHandler(sessionManager, userService, resolver)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	permHandler := handler.NewPermissionHandler(permService)
	resourceHandlers := make(map[domain.ResourceKind]*handler.ResourceHandler, len(domain.ResourceKinds))
	for _, kind := range domain.ResourceKinds {
		resourceHandlers[kind] = handler.NewResourceHandler(kind, resourceService)
	}

	authn := middleware.Auth(sessionManager)

	// public
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// authenticated, no capability required
	e.GET("/auth/me", authHandler.Me, authn)
	e.POST("/auth/logout", authHandler.Logout, authn)

	// authenticated and capability-gated
	for _, op := range protectedOperations(userHandler, roleHandler, permHandler, resourceHandlers) {
		e.Add(op.method, op.path, op.handler, authn, middleware.Authorize(resolver, op.capability, log))
	}

	return e
}
