package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/ticketsplit/internal/calculator"
	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

// TotalsService is a read-only view over the store that works out who owes
// what. Nothing it computes is persisted.
type TotalsService struct {
	store storage.Store
}

// NewTotalsService creates a new TotalsService with the given storage backend.
func NewTotalsService(store storage.Store) *TotalsService {
	return &TotalsService{store: store}
}

// UserTotal computes what one user owes for everything the user has claimed.
func (s *TotalsService) UserTotal(ctx context.Context, userID string, surcharges calculator.Surcharges) (*calculator.Breakdown, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if err := surcharges.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("user total: %w", err)
	}
	assignments, err := s.store.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user total: %w", err)
	}
	tickets, err := s.loadTickets(ctx, assignments)
	if err != nil {
		return nil, err
	}

	breakdown, err := calculator.CalculateTotal(toLines(assignments, tickets), surcharges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	slog.Debug("User total calculated",
		"user_id", userID,
		"lines", len(breakdown.Lines),
		"subtotal", breakdown.Subtotal,
		"total", breakdown.Total,
	)
	return breakdown, nil
}

// Summary computes every user's total plus the value still unclaimed.
func (s *TotalsService) Summary(ctx context.Context, surcharges calculator.Surcharges) (*calculator.Summary, error) {
	if err := surcharges.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	allTickets, err := s.store.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	assignments, err := s.store.ListAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	tickets := make(map[string]*models.Ticket, len(allTickets))
	remainders := make([]calculator.Remainder, 0, len(allTickets))
	for _, t := range allTickets {
		tickets[t.ID] = t
		remainders = append(remainders, calculator.Remainder{
			TicketID:    t.ID,
			ProductName: t.ProductName,
			Quantity:    t.Quantity,
			UnitPrice:   t.Price,
		})
	}

	byUser := make(map[string][]*models.Assignment, len(users))
	for _, a := range assignments {
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}

	perUser := make([]calculator.UserLines, len(users))
	for i, u := range users {
		perUser[i] = calculator.UserLines{
			UserID: u.ID,
			Name:   u.Name,
			Lines:  toLines(byUser[u.ID], tickets),
		}
	}

	summary, err := calculator.Summarize(perUser, remainders, surcharges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return summary, nil
}

func (s *TotalsService) loadTickets(ctx context.Context, assignments []*models.Assignment) (map[string]*models.Ticket, error) {
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.TicketID)
	}
	tickets, err := s.store.GetTicketsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	return tickets, nil
}

// toLines joins assignments with their tickets. Assignments whose ticket is
// gone are skipped.
func toLines(assignments []*models.Assignment, tickets map[string]*models.Ticket) []calculator.Line {
	lines := make([]calculator.Line, 0, len(assignments))
	for _, a := range assignments {
		t, ok := tickets[a.TicketID]
		if !ok {
			slog.Warn("Assignment references missing ticket", "assignment_id", a.ID, "ticket_id", a.TicketID)
			continue
		}
		lines = append(lines, calculator.Line{
			AssignmentID: a.ID,
			TicketID:     t.ID,
			ProductName:  t.ProductName,
			Quantity:     a.Quantity,
			UnitPrice:    t.Price,
		})
	}
	return lines
}
