// Package rpc exposes the allocation and totals operations as Connect RPCs.
package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/ticketsplit/internal/calculator"
	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/service"
)

// LedgerServiceName is the fully-qualified name of the service.
const LedgerServiceName = "ticketsplit.v1.LedgerService"

// Procedure paths.
const (
	LedgerServiceCreateAssignmentProcedure = "/ticketsplit.v1.LedgerService/CreateAssignment"
	LedgerServiceDeleteAssignmentProcedure = "/ticketsplit.v1.LedgerService/DeleteAssignment"
	LedgerServiceDeleteTicketProcedure     = "/ticketsplit.v1.LedgerService/DeleteTicket"
	LedgerServiceUserTotalProcedure        = "/ticketsplit.v1.LedgerService/UserTotal"
)

type allocator interface {
	CreateAssignment(ctx context.Context, userID, ticketID string, quantity int) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, assignmentID string) error
	DeleteTicket(ctx context.Context, ticketID string) error
}

type totaler interface {
	UserTotal(ctx context.Context, userID string, surcharges calculator.Surcharges) (*calculator.Breakdown, error)
}

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	alloc  allocator
	totals totaler
}

// NewLedgerService creates a new LedgerService on top of the service layer.
func NewLedgerService(alloc allocator, totals totaler) *LedgerService {
	return &LedgerService{alloc: alloc, totals: totals}
}

// CreateAssignment claims units of a ticket for a user.
func (s *LedgerService) CreateAssignment(ctx context.Context, req *connect.Request[CreateAssignmentRequest]) (*connect.Response[CreateAssignmentResponse], error) {
	a, err := s.alloc.CreateAssignment(ctx, req.Msg.UserID, req.Msg.TicketID, req.Msg.Quantity)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateAssignmentResponse{
		Assignment: &Assignment{
			ID:        a.ID,
			UserID:    a.UserID,
			TicketID:  a.TicketID,
			Quantity:  a.Quantity,
			CreatedAt: a.CreatedAt,
		},
	}), nil
}

// DeleteAssignment removes an assignment and restores its units.
func (s *LedgerService) DeleteAssignment(ctx context.Context, req *connect.Request[DeleteAssignmentRequest]) (*connect.Response[DeleteAssignmentResponse], error) {
	if err := s.alloc.DeleteAssignment(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteAssignmentResponse{}), nil
}

// DeleteTicket removes a ticket and its assignments.
func (s *LedgerService) DeleteTicket(ctx context.Context, req *connect.Request[DeleteTicketRequest]) (*connect.Response[DeleteTicketResponse], error) {
	if err := s.alloc.DeleteTicket(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteTicketResponse{}), nil
}

// UserTotal computes what one user owes.
func (s *LedgerService) UserTotal(ctx context.Context, req *connect.Request[UserTotalRequest]) (*connect.Response[UserTotalResponse], error) {
	b, err := s.totals.UserTotal(ctx, req.Msg.UserID, calculator.Surcharges{
		TaxPercent: req.Msg.TaxPercent,
		TipPercent: req.Msg.TipPercent,
		TipFlat:    req.Msg.TipFlat,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	lines := make([]Line, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = Line{
			AssignmentID: l.AssignmentID,
			TicketID:     l.TicketID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Amount:       l.Amount,
		}
	}
	return connect.NewResponse(&UserTotalResponse{
		Lines:    lines,
		Subtotal: b.Subtotal,
		Tax:      b.Tax,
		Tip:      b.Tip,
		Total:    b.Total,
	}), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, service.ErrInsufficientQuantity):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	createAssignment := connect.NewUnaryHandler(LedgerServiceCreateAssignmentProcedure, svc.CreateAssignment, opts...)
	deleteAssignment := connect.NewUnaryHandler(LedgerServiceDeleteAssignmentProcedure, svc.DeleteAssignment, opts...)
	deleteTicket := connect.NewUnaryHandler(LedgerServiceDeleteTicketProcedure, svc.DeleteTicket, opts...)
	userTotal := connect.NewUnaryHandler(LedgerServiceUserTotalProcedure, svc.UserTotal, opts...)

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceCreateAssignmentProcedure:
			createAssignment.ServeHTTP(w, r)
		case LedgerServiceDeleteAssignmentProcedure:
			deleteAssignment.ServeHTTP(w, r)
		case LedgerServiceDeleteTicketProcedure:
			deleteTicket.ServeHTTP(w, r)
		case LedgerServiceUserTotalProcedure:
			userTotal.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
