package usage

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
)

// Handler exposes usage endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.getUsage)
}

// RegisterDevRoutes attaches dev-only usage routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/usage/reset", h.resetUsage)
}

func (h *Handler) getUsage(c *gin.Context) {
	clientID := middleware.ClientIDFromContext(c)
	if !h.Svc.Enabled() {
		respond.OK(c, gin.H{"enabled": false})
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), clientID)
	if err != nil {
		writeStoreError(c, err, "failed to fetch usage")
		return
	}
	respond.OK(c, snapshot(u))
}

func (h *Handler) resetUsage(c *gin.Context) {
	clientID := middleware.ClientIDFromContext(c)
	u, err := h.Svc.Reset(c.Request.Context(), clientID)
	if err != nil {
		writeStoreError(c, err, "failed to reset usage")
		return
	}
	respond.OK(c, snapshot(u))
}

func snapshot(u Usage) gin.H {
	return gin.H{
		"enabled":   true,
		"limit":     u.Limit,
		"used":      u.Used,
		"remaining": u.Remaining(),
		"resetsAt":  u.ResetsAt,
	}
}

func writeStoreError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
