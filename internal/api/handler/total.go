package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/ticketsplit/internal/api/request"
	"github.com/mmynk/ticketsplit/internal/api/response"
)

type TotalsHandler struct {
	svc TotalsService
}

func NewTotalsHandler(svc TotalsService) *TotalsHandler {
	return &TotalsHandler{svc: svc}
}

// HandleSummary serves GET /totals?tax=&tip=&tipFlat=.
func (h *TotalsHandler) HandleSummary(c *gin.Context) {
	var query request.TotalQuery
	if !bindQuery(c, &query) {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), query.Surcharges())
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromSummary(summary))
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealthcheck returns a liveness handler backed by p.
func HandleHealthcheck(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, response.Health{Status: "unavailable", Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, response.Health{Status: "ok"})
	}
}
