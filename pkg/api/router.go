package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/urmzd/nipcam/pkg/api/handlers"
	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/device/schema"
	"github.com/urmzd/nipcam/pkg/discovery"
	"github.com/urmzd/nipcam/pkg/metrics"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	controller device.Controller
	subscriber device.EventSubscriber
	validator  *schema.Validator
	discoverer discovery.Discoverer
}

// NewRouter creates a new API router
func NewRouter(controller device.Controller, subscriber device.EventSubscriber, validator *schema.Validator, discoverer discovery.Discoverer) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		controller: controller,
		subscriber: subscriber,
		validator:  validator,
		discoverer: discoverer,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	r.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	healthHandler := handlers.NewHealthHandler(r.controller)
	r.engine.GET("/health", healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		discoveryHandler := handlers.NewDiscoveryHandler(r.controller, r.discoverer)
		v1.GET("/discovery", discoveryHandler.Discover)

		eventsHandler := handlers.NewEventsHandler(r.subscriber)
		v1.GET("/events", eventsHandler.Events)

		camerasHandler := handlers.NewCamerasHandler(r.controller, r.validator)
		cameras := v1.Group("/cameras")
		{
			cameras.GET("", camerasHandler.ListCameras)
			cameras.POST("", camerasHandler.CreateCamera)
			cameras.GET("/:id", camerasHandler.GetCamera)
			cameras.PATCH("/:id", camerasHandler.UpdateCamera)
			cameras.DELETE("/:id", camerasHandler.DeleteCamera)

			cameras.GET("/:id/state", camerasHandler.GetState)
			cameras.GET("/:id/sensors", camerasHandler.ListSensors)
			cameras.GET("/:id/events", camerasHandler.GetEvents)
			cameras.POST("/:id/refresh", camerasHandler.RefreshCamera)
		}
	}
}

// Handler exposes the engine, mainly for tests and custom servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
