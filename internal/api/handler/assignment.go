package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/ticketsplit/internal/api/request"
	"github.com/mmynk/ticketsplit/internal/api/response"
)

type AssignmentHandler struct {
	svc AllocationService
}

func NewAssignmentHandler(svc AllocationService) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

func (h *AssignmentHandler) HandleListAssignments(c *gin.Context) {
	details, err := h.svc.ListAssignments(c.Request.Context())
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromAssignmentDetails(details))
}

func (h *AssignmentHandler) HandleListUserAssignments(c *gin.Context) {
	details, err := h.svc.ListUserAssignments(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromAssignmentDetails(details))
}

// HandleCreateAssignment claims units of a ticket. Asking for more than
// remains is a 409 and changes nothing.
func (h *AssignmentHandler) HandleCreateAssignment(c *gin.Context) {
	var input request.CreateAssignmentRequest
	if !bindJSON(c, &input) {
		return
	}

	assignment, err := h.svc.CreateAssignment(c.Request.Context(), input.UserID, input.TicketID, *input.Quantity)
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromAssignment(assignment))
}

func (h *AssignmentHandler) HandleGetAssignment(c *gin.Context) {
	assignment, err := h.svc.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromAssignment(assignment))
}

// HandleDeleteAssignment removes the assignment and gives its units back.
func (h *AssignmentHandler) HandleDeleteAssignment(c *gin.Context) {
	if err := h.svc.DeleteAssignment(c.Request.Context(), c.Param("id")); err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.Status(http.StatusNoContent)
}
