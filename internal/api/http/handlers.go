package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/generate"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/formfill/internal/runner"
	"github.com/GriffinCanCode/formfill/internal/submit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint.
var Version = "dev"

// MaxCount caps answer sets per request.
const MaxCount = 100

// Handlers contains all HTTP handlers
type Handlers struct {
	runner  *runner.Runner
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(r *runner.Runner, metrics *monitoring.Metrics, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{runner: r, metrics: metrics, log: log}
}

// Register mounts the routes on router.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	v1 := router.Group("/v1/forms")
	v1.POST("/structure", h.Structure)
	v1.POST("/responses", h.Responses)
	v1.DELETE("/cache", h.Invalidate)
}

// StructureRequest asks for the structure of a form.
type StructureRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Refresh bool   `json:"refresh"`
}

// ResponsesRequest asks for generated answer sets.
type ResponsesRequest struct {
	URL   string  `json:"url" binding:"required,url"`
	Count int     `json:"count" binding:"omitempty,min=1"`
	Seed  *uint64 `json:"seed"`
}

// ResponsesReply carries generated answers with the encoded payload each
// would be submitted as.
type ResponsesReply struct {
	Identity string         `json:"identity"`
	Answers  []GeneratedSet `json:"answers"`
}

// GeneratedSet is one generated response.
type GeneratedSet struct {
	Answers generate.Answers `json:"answers"`
	Payload string           `json:"payload"`
}

// CacheRequest names the form whose cache entry is dropped.
type CacheRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// Root reports the service name and version
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "formfill",
		"version": Version,
	})
}

// Health reports liveness with running totals
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"stats":  h.metrics.Snapshot(),
	})
}

// Structure returns the extracted structure of a form
func (h *Handlers) Structure(c *gin.Context) {
	var req StructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.runner.Structure(c.Request.Context(), req.URL, req.Refresh)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Responses generates answer sets without submitting them
func (h *Handlers) Responses(c *gin.Context) {
	var req ResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count > MaxCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count exceeds the per-request limit"})
		return
	}

	gen := h.runner.Generator()
	if req.Seed != nil {
		seeded, err := generate.New(gen.Policy(), generate.WithSeed(*req.Seed))
		if err != nil {
			h.fail(c, err)
			return
		}
		gen = seeded
	}

	s, err := h.runner.Structure(c.Request.Context(), req.URL, false)
	if err != nil {
		h.fail(c, err)
		return
	}

	reply := ResponsesReply{Identity: s.Identity.String(), Answers: make([]GeneratedSet, req.Count)}
	for i := range reply.Answers {
		answers := gen.Generate(s)
		reply.Answers[i] = GeneratedSet{
			Answers: answers,
			Payload: submit.BuildPayload(s, answers).Encode(),
		}
	}
	c.JSON(http.StatusOK, reply)
}

// Invalidate drops the cached structure of a form
func (h *Handlers) Invalidate(c *gin.Context) {
	var req CacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.runner.Invalidate(req.URL); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"identity": form.IdentityFromURL(req.URL).String(),
	})
}

// fail maps pipeline errors onto status codes.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":     err.Error(),
		"timestamp": time.Now().Unix(),
	})
}

func statusOf(err error) int {
	var unsupported *form.UnsupportedFieldTypeError
	var extractErr *form.ExtractionError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, form.ErrNoForm),
		errors.Is(err, form.ErrPageUnusable),
		errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.As(err, &extractErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
