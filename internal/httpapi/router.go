package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/anortham/miller-embeddings/internal/config"
	"github.com/anortham/miller-embeddings/internal/service"
)

const maxRequestBody = 2 << 20 // 2MB

// NewRouter builds the full gin engine for the daemon.
func NewRouter(cfg *config.Config, svc *service.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(MaxBodySize(maxRequestBody))

	h := NewHandler(svc)
	h.RegisterRoutes(r, RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	return r
}
