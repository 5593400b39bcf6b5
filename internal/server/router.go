package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-records-api/internal/handler"
	"github.com/noah-isme/sekolah-records-api/internal/middleware"
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/internal/service"
	"github.com/noah-isme/sekolah-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sekolah-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sekolah-records-api/pkg/middleware/requestid"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Students  *handler.StudentHandler
	Staff     *handler.StaffHandler
	Dashboard *handler.DashboardHandler
	Metrics   *handler.MetricsHandler
}

// RouterConfig carries the settings that shape the route table.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	// MaxMultipartMemory bounds the in-memory part of multipart parsing.
	MaxMultipartMemory int64
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(cfg RouterConfig, h Handlers, tokens middleware.TokenValidator, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	if cfg.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = cfg.MaxMultipartMemory
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)

	// Photo downloads authenticate with the signed token in the query.
	api.GET("/students/:id/photo", h.Students.Photo)
	api.GET("/staff/:id/photo", h.Staff.Photo)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	adminOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	secured.GET("/auth/me", h.Auth.Me)
	secured.GET("/dashboard", h.Dashboard.Summary)

	students := secured.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/export", h.Students.Export)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", adminOnly, h.Students.Delete)

	staff := secured.Group("/staff")
	staff.GET("", h.Staff.List)
	staff.POST("", h.Staff.Create)
	staff.GET("/export", h.Staff.Export)
	staff.GET("/import/template", h.Staff.ImportTemplate)
	staff.POST("/import", adminOnly, h.Staff.Import)
	staff.GET("/:id", h.Staff.Get)
	staff.PUT("/:id", h.Staff.Update)
	staff.DELETE("/:id", adminOnly, h.Staff.Delete)
	staff.GET("/:id/card", h.Staff.Card)

	return r
}
