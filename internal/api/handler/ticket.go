package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/ticketsplit/internal/api/request"
	"github.com/mmynk/ticketsplit/internal/api/response"
)

type TicketHandler struct {
	svc   TicketService
	alloc AllocationService
}

func NewTicketHandler(svc TicketService, alloc AllocationService) *TicketHandler {
	return &TicketHandler{svc: svc, alloc: alloc}
}

func (h *TicketHandler) HandleListTickets(c *gin.Context) {
	tickets, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromTickets(tickets))
}

func (h *TicketHandler) HandleCreateTicket(c *gin.Context) {
	var input request.CreateTicketRequest
	if !bindJSON(c, &input) {
		return
	}

	ticket, err := h.svc.Create(c.Request.Context(), input.ProductName, *input.Quantity, *input.Price)
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromTicket(ticket))
}

func (h *TicketHandler) HandleGetTicket(c *gin.Context) {
	ticket, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromTicket(ticket))
}

// HandleUpdateTicket sets the remaining quantity of a ticket.
func (h *TicketHandler) HandleUpdateTicket(c *gin.Context) {
	var input request.UpdateTicketRequest
	if !bindJSON(c, &input) {
		return
	}

	ticket, err := h.svc.UpdateQuantity(c.Request.Context(), c.Param("id"), *input.Quantity)
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromTicket(ticket))
}

// HandleDeleteTicket removes the ticket and every assignment on it.
func (h *TicketHandler) HandleDeleteTicket(c *gin.Context) {
	if err := h.alloc.DeleteTicket(c.Request.Context(), c.Param("id")); err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.Status(http.StatusNoContent)
}
