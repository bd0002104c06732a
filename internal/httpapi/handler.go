package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anortham/miller-embeddings/internal/service"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// Handler exposes the embedding service over HTTP.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires all endpoints onto the router. The search
// endpoint carries the rate limiter; indexing relies on the pool's own
// backpressure instead.
func (h *Handler) RegisterRoutes(r *gin.Engine, limiter gin.HandlerFunc) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/symbols", h.IndexSymbol)
		v1.POST("/symbols/batch", h.IndexBatch)
		v1.POST("/search", limiter, h.Search)
		v1.POST("/train", h.Train)
		v1.GET("/stats", h.Stats)
	}
}

type indexRequest struct {
	SymbolID string `json:"symbol_id" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Context  string `json:"context"`
	Priority string `json:"priority"`
}

type batchRequest struct {
	Items    []batchItem `json:"items" binding:"required,min=1"`
	Priority string      `json:"priority"`
}

type batchItem struct {
	SymbolID string `json:"symbol_id" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Context  string `json:"context"`
}

type searchRequest struct {
	Query   string `json:"query" binding:"required"`
	Context string `json:"context"`
	TopK    int    `json:"top_k"`
	NoCache bool   `json:"no_cache"`
}

type trainRequest struct {
	Documents map[string]string `json:"documents" binding:"required"`
}

// IndexSymbol queues one symbol for background embedding. The 202
// acknowledges the queue insert, not the finished vector.
func (h *Handler) IndexSymbol(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	taskID, err := h.svc.IndexSymbol(req.SymbolID, req.Code, req.Context, types.ParsePriority(req.Priority))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

// IndexBatch queues several symbols at once. On queue overflow the
// members enqueued before the queue filled stay queued; the error
// response reports the rejected count.
func (h *Handler) IndexBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	items := make([]types.BatchItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = types.BatchItem{SymbolID: it.SymbolID, Code: it.Code, Context: it.Context}
	}

	taskIDs, err := h.svc.IndexSymbols(items, types.ParsePriority(req.Priority))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_ids": taskIDs, "count": len(taskIDs)})
}

// Search embeds the query on the bypass path and ranks stored symbols.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.svc.Query(c.Request.Context(), req.Query, req.Context, req.TopK, !req.NoCache)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"matches":    resp.Matches,
		"confidence": resp.Confidence,
		"cache_hit":  resp.CacheHit,
		"duration":   resp.Duration.String(),
	})
}

// Train rebuilds the shared vocabulary and recycles the pool.
func (h *Handler) Train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.svc.Train(c.Request.Context(), req.Documents); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vocabulary trained", "documents": len(req.Documents)})
}

// Stats returns pool counters plus store and cache sizes.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health probes every worker and the store. Degraded backends answer
// 503 so load balancers rotate the instance out.
func (h *Handler) Health(c *gin.Context) {
	health := h.svc.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// statusForError maps pool sentinels onto HTTP statuses. Saturation is
// 503 so clients know to back off and retry.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrQueueFull),
		errors.Is(err, types.ErrNoIdleWorker),
		errors.Is(err, types.ErrPoolNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, types.ErrQueryTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
