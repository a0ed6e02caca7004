package router

import (
	"time"

	"github.com/Mike861205/cajavscode-sub001/internal/config"
	"github.com/Mike861205/cajavscode-sub001/internal/handler"
	"github.com/Mike861205/cajavscode-sub001/internal/middleware"
	"github.com/Mike861205/cajavscode-sub001/internal/repository"
	"github.com/Mike861205/cajavscode-sub001/internal/service"
	"github.com/Mike861205/cajavscode-sub001/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// register service (the worker pool needs it to rebuild reports).
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) (*gin.Engine, service.RegisterService, repository.RegisterRepository) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	denomRepo := repository.NewDenominationRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	registerSvc := service.NewRegisterService(registerRepo, saleRepo, userRepo, tenantRepo, denomRepo, dispatcher, cfg.DefaultCurrency)
	saleSvc := service.NewSaleService(saleRepo, registerRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	registerH := handler.NewRegisterHandler(registerSvc)
	salesH := handler.NewSaleHandler(saleSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		reg := v1.Group("/register")
		{
			reg.POST("/open", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Open)
			reg.POST("/close", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Close)
			reg.POST("/movements", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.PostMovement)
			reg.DELETE("/movements/:id", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.ReverseMovement)
			reg.GET("/active", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.GetActive)
			reg.GET("/denominations", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.ListDenominations)
			reg.GET("/:id/summary", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.GetSummary)
			reg.GET("/:id/report", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.GetReport)
			reg.GET("/:id/report.pdf", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.GetReportPDF)
			// Supervisors review other cashiers' shifts
			reg.GET("/history", middleware.RequireRole("supervisor", "admin"), registerH.History)
			reg.GET("/history/export", middleware.RequireRole("supervisor", "admin"), registerH.ExportHistory)
		}

		v1.POST("/sales", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.Record)
		v1.GET("/sales", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.List)
		v1.DELETE("/sales/:id", middleware.RequireRole("supervisor", "admin"), salesH.Cancel)

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.DELETE("/:id", authH.DeactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, registerSvc, registerRepo
}
