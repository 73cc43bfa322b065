// Package mockserver implements the shopping-assistant API locally so the
// terminal client can run without the production backend.
package mockserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/observability"
)

type Dependencies struct {
	Store         Store
	Catalog       Catalog
	Logger        logger.Logger
	Observability *observability.Observability
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit  float64
	RateBurst  int
	PerKeyword int
}

type Server struct {
	engine  *gin.Engine
	store   Store
	limiter *RateLimiter
	logger  logger.Logger
}

func NewServer(deps Dependencies) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(deps.Logger), RequestMetrics(deps.Observability))

	s := &Server{engine: engine, store: deps.Store, logger: deps.Logger}
	if deps.RateLimit > 0 {
		burst := deps.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = NewRateLimiter(rate.Limit(deps.RateLimit), burst, deps.Logger)
	}

	h := NewHandler(deps.Store, deps.Catalog, NewResponder(deps.Catalog, deps.PerKeyword, deps.Logger), deps.Logger)
	s.routes(h)
	return s
}

func (s *Server) routes(h *Handler) {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/ready", s.ready)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("")
	if s.limiter != nil {
		api.Use(s.limiter.Middleware())
	}
	api.POST("/login", h.Login)
	api.POST("/signup", h.Signup)

	v1 := api.Group("/api/v1")
	{
		v1.GET("/user/:user_id", h.GetUser)

		chat := v1.Group("/chat")
		{
			chat.GET("/list/:user_id", h.ListChats)
			chat.POST("/send", h.SendMessage)
			chat.GET("/:chat_id", h.GetChat)
		}

		collection := v1.Group("/collection")
		{
			collection.GET("/list/:user_id", h.ListCarts)
			collection.POST("/create", h.CreateCart)
			collection.POST("/register", h.AddToCart)
			collection.GET("/:collection_id", h.GetCart)
			collection.DELETE("/:collection_id", h.DeleteCart)
			collection.DELETE("/:collection_id/:item_id", h.RemoveCartItem)
		}
	}
}

func (s *Server) ready(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Warn("store not ready", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}
