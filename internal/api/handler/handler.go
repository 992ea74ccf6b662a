// Package handler implements the REST endpoints on top of the services.
package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/ticketsplit/internal/api/response"
	"github.com/mmynk/ticketsplit/internal/calculator"
	"github.com/mmynk/ticketsplit/internal/models"
)

type UserService interface {
	Create(ctx context.Context, name string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}

type TicketService interface {
	Create(ctx context.Context, productName string, quantity int, price float64) (*models.Ticket, error)
	List(ctx context.Context) ([]*models.Ticket, error)
	Get(ctx context.Context, ticketID string) (*models.Ticket, error)
	UpdateQuantity(ctx context.Context, ticketID string, quantity int) (*models.Ticket, error)
}

type AllocationService interface {
	CreateAssignment(ctx context.Context, userID, ticketID string, quantity int) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, assignmentID string) error
	DeleteTicket(ctx context.Context, ticketID string) error
	GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error)
	ListAssignments(ctx context.Context) ([]*models.AssignmentDetail, error)
	ListUserAssignments(ctx context.Context, userID string) ([]*models.AssignmentDetail, error)
}

type TotalsService interface {
	UserTotal(ctx context.Context, userID string, surcharges calculator.Surcharges) (*calculator.Breakdown, error)
	Summary(ctx context.Context, surcharges calculator.Surcharges) (*calculator.Summary, error)
}

// validator is implemented by every request schema.
type validator interface {
	Validate() error
}

// bindJSON decodes the body strictly and validates it. On failure the error
// response has already been written.
func bindJSON(c *gin.Context, req validator) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.RenderErr(c, response.ErrBadRequest(err))
		return false
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(c, response.ErrBadRequest(err))
		return false
	}
	return true
}

// bindQuery is bindJSON for query strings.
func bindQuery(c *gin.Context, req validator) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.RenderErr(c, response.ErrBadRequest(errors.New("malformed query: "+err.Error())))
		return false
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(c, response.ErrBadRequest(err))
		return false
	}
	return true
}
