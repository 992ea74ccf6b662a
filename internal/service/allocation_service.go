package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/ticketsplit/internal/metrics"
	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

// AllocationService moves ticket units between tickets and the users that
// claim them. Every mutation goes through a single atomic store call, so
// a ticket's remaining quantity plus its assigned units always equals its
// total.
type AllocationService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewAllocationService creates a new AllocationService. m may be nil.
func NewAllocationService(store storage.Store, m *metrics.Metrics) *AllocationService {
	return &AllocationService{store: store, metrics: m}
}

// CreateAssignment claims quantity units of a ticket for a user.
func (s *AllocationService) CreateAssignment(ctx context.Context, userID, ticketID string, quantity int) (*models.Assignment, error) {
	if userID == "" {
		s.metrics.ObserveAllocation(metrics.OutcomeInvalid, 0)
		return nil, invalid("user id is required")
	}
	if ticketID == "" {
		s.metrics.ObserveAllocation(metrics.OutcomeInvalid, 0)
		return nil, invalid("ticket id is required")
	}
	if quantity <= 0 {
		s.metrics.ObserveAllocation(metrics.OutcomeInvalid, 0)
		return nil, ErrInvalidQuantity
	}

	assignment := &models.Assignment{
		UserID:   userID,
		TicketID: ticketID,
		Quantity: quantity,
	}
	if err := s.store.CreateAssignment(ctx, assignment); err != nil {
		switch {
		case errors.Is(err, ErrInsufficientQuantity):
			s.metrics.ObserveAllocation(metrics.OutcomeInsufficient, quantity)
			slog.Warn("Allocation rejected",
				"user_id", userID,
				"ticket_id", ticketID,
				"quantity", quantity,
				"error", err,
			)
		case errors.Is(err, ErrNotFound):
			s.metrics.ObserveAllocation(metrics.OutcomeNotFound, quantity)
		default:
			s.metrics.ObserveAllocation(metrics.OutcomeError, quantity)
			slog.Error("Failed to create assignment", "ticket_id", ticketID, "error", err)
		}
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	s.metrics.ObserveAllocation(metrics.OutcomeAllocated, quantity)
	slog.Info("Assignment created",
		"assignment_id", assignment.ID,
		"user_id", userID,
		"ticket_id", ticketID,
		"quantity", quantity,
	)
	return assignment, nil
}

// DeleteAssignment removes an assignment and gives its units back to the ticket.
func (s *AllocationService) DeleteAssignment(ctx context.Context, assignmentID string) error {
	if assignmentID == "" {
		return invalid("assignment id is required")
	}

	// Read first only to report the released units; the store does the
	// restore atomically on its own.
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if err := s.store.DeleteAssignment(ctx, assignmentID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}

	s.metrics.ObserveAllocation(metrics.OutcomeReleased, assignment.Quantity)
	slog.Info("Assignment deleted",
		"assignment_id", assignmentID,
		"ticket_id", assignment.TicketID,
		"restored", assignment.Quantity,
	)
	return nil
}

// DeleteTicket removes a ticket together with every assignment on it.
func (s *AllocationService) DeleteTicket(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return invalid("ticket id is required")
	}
	if err := s.store.DeleteTicket(ctx, ticketID); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}

	slog.Info("Ticket deleted", "ticket_id", ticketID)
	return nil
}

// GetAssignment returns a single assignment.
func (s *AllocationService) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	if assignmentID == "" {
		return nil, invalid("assignment id is required")
	}
	return s.store.GetAssignment(ctx, assignmentID)
}

// ListAssignments returns every assignment with its user and ticket embedded.
func (s *AllocationService) ListAssignments(ctx context.Context) ([]*models.AssignmentDetail, error) {
	assignments, err := s.store.ListAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	tickets, err := s.ticketsFor(ctx, assignments)
	if err != nil {
		return nil, err
	}

	details := make([]*models.AssignmentDetail, len(assignments))
	for i, a := range assignments {
		details[i] = &models.AssignmentDetail{
			Assignment: *a,
			User:       byID[a.UserID],
			Ticket:     tickets[a.TicketID],
		}
	}
	return details, nil
}

// ListUserAssignments returns the assignments held by one user, with the
// user and tickets embedded.
func (s *AllocationService) ListUserAssignments(ctx context.Context, userID string) ([]*models.AssignmentDetail, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user assignments: %w", err)
	}
	assignments, err := s.store.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user assignments: %w", err)
	}
	tickets, err := s.ticketsFor(ctx, assignments)
	if err != nil {
		return nil, err
	}

	details := make([]*models.AssignmentDetail, len(assignments))
	for i, a := range assignments {
		details[i] = &models.AssignmentDetail{
			Assignment: *a,
			User:       user,
			Ticket:     tickets[a.TicketID],
		}
	}
	return details, nil
}

// ticketsFor batch-loads the tickets referenced by the given assignments.
func (s *AllocationService) ticketsFor(ctx context.Context, assignments []*models.Assignment) (map[string]*models.Ticket, error) {
	ids := make([]string, 0, len(assignments))
	seen := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if !seen[a.TicketID] {
			seen[a.TicketID] = true
			ids = append(ids, a.TicketID)
		}
	}

	tickets, err := s.store.GetTicketsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	return tickets, nil
}
