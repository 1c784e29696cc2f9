package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staycal/internal/infra/config"
	"staycal/internal/infra/obs"
)

type WidgetHTTP interface {
	Open(c *gin.Context)
	View(c *gin.Context)
	Close(c *gin.Context)
	Click(c *gin.Context)
	Reset(c *gin.Context)
	Mode(c *gin.Context)
	Selection(c *gin.Context)
	Occupied(c *gin.Context)
	ReplaceOccupied(c *gin.Context)
	Save(c *gin.Context)
	Export(c *gin.Context)
}

type AdminHTTP interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Publish(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
}

type Handlers struct {
	Widget         WidgetHTTP
	Admin          AdminHTTP
	Booking        BookingHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter registers every route; tests drive it through httptest.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Widget != nil {
		api.POST("/widgets", h.Widget.Open)
		widgets := api.Group("/widgets/:id")
		widgets.GET("", h.Widget.View)
		widgets.DELETE("", h.Widget.Close)
		widgets.POST("/clicks", h.Widget.Click)
		widgets.POST("/reset", h.Widget.Reset)
		widgets.PUT("/mode", h.Widget.Mode)
		widgets.GET("/selection", h.Widget.Selection)
		widgets.GET("/occupied", h.Widget.Occupied)
		widgets.PUT("/occupied", h.Widget.ReplaceOccupied)
		widgets.POST("/save", h.Widget.Save)
		widgets.GET("/export", h.Widget.Export)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.POST("/login", h.Admin.Login)
		adminGroup.POST("/logout", h.Admin.Logout)
		adminGroup.POST("/publish", h.Admin.Publish)
	}
	if h.Booking != nil {
		api.POST("/booking-requests", h.Booking.Create)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
