package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

// TicketService manages purchased items.
type TicketService struct {
	store storage.Store
}

// NewTicketService creates a new TicketService with the given storage backend.
func NewTicketService(store storage.Store) *TicketService {
	return &TicketService{store: store}
}

// Create adds a ticket with its whole quantity unclaimed.
func (s *TicketService) Create(ctx context.Context, productName string, quantity int, price float64) (*models.Ticket, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, invalid("product name is required")
	}
	if quantity < 1 || quantity > models.MaxQuantity {
		return nil, invalid("quantity must be between 1 and %d", models.MaxQuantity)
	}
	if math.IsNaN(price) || price < 0 || price > models.MaxPrice {
		return nil, invalid("price must be between 0 and %.0f", models.MaxPrice)
	}

	ticket := &models.Ticket{
		ProductName: productName,
		Quantity:    quantity,
		Price:       price,
	}
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		slog.Error("Failed to create ticket", "error", err)
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	slog.Info("Ticket created",
		"ticket_id", ticket.ID,
		"product", ticket.ProductName,
		"quantity", ticket.Quantity,
		"price", ticket.Price,
	)
	return ticket, nil
}

// List returns every ticket in creation order.
func (s *TicketService) List(ctx context.Context) ([]*models.Ticket, error) {
	tickets, err := s.store.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// Get returns a single ticket.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	if ticketID == "" {
		return nil, invalid("ticket id is required")
	}
	return s.store.GetTicket(ctx, ticketID)
}

// UpdateQuantity sets the remaining quantity of a ticket. The total moves by
// the same amount, so live assignments are untouched.
func (s *TicketService) UpdateQuantity(ctx context.Context, ticketID string, quantity int) (*models.Ticket, error) {
	if ticketID == "" {
		return nil, invalid("ticket id is required")
	}
	if quantity < 0 || quantity > models.MaxQuantity {
		return nil, invalid("quantity must be between 0 and %d", models.MaxQuantity)
	}

	ticket, err := s.store.SetTicketQuantity(ctx, ticketID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update ticket quantity: %w", err)
	}

	slog.Info("Ticket quantity updated",
		"ticket_id", ticket.ID,
		"quantity", ticket.Quantity,
		"total_quantity", ticket.TotalQuantity,
	)
	return ticket, nil
}
