// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/ticketsplit/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientQuantity is returned when an allocation asks for more
	// than the ticket has left.
	ErrInsufficientQuantity = errors.New("insufficient ticket quantity")
)

// Store defines the interface for user, ticket and assignment storage.
// This abstraction allows swapping storage backends (SQLite, MongoDB)
// without changing the service layer.
//
// Implementations must keep ticket quantities conserved: every method that
// touches an assignment adjusts the referenced ticket in the same atomic step.
type Store interface {
	// CreateUser persists a new user. ID and CreatedAt are populated by the store.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound if absent.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// ListUsers returns all users in creation order.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// DeleteUser removes a user after releasing all of the user's
	// assignments back to their tickets. Returns ErrNotFound if absent.
	DeleteUser(ctx context.Context, userID string) error

	// CreateTicket persists a new ticket. ID and CreatedAt are populated by
	// the store; TotalQuantity is set to Quantity.
	CreateTicket(ctx context.Context, ticket *models.Ticket) error

	// GetTicket retrieves a ticket by ID. Returns ErrNotFound if absent.
	GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error)

	// GetTicketsByIDs retrieves several tickets at once, keyed by ID.
	// Missing tickets are omitted from the result.
	GetTicketsByIDs(ctx context.Context, ids []string) (map[string]*models.Ticket, error)

	// ListTickets returns all tickets in creation order.
	ListTickets(ctx context.Context) ([]*models.Ticket, error)

	// SetTicketQuantity sets the remaining quantity of a ticket and moves
	// TotalQuantity by the same delta. Returns the updated ticket.
	SetTicketQuantity(ctx context.Context, ticketID string, quantity int) (*models.Ticket, error)

	// DeleteTicket removes a ticket and every assignment referencing it.
	// Returns ErrNotFound if absent.
	DeleteTicket(ctx context.Context, ticketID string) error

	// CreateAssignment decrements the ticket's remaining quantity and
	// persists the assignment atomically. Returns ErrNotFound if the user
	// or ticket is missing and ErrInsufficientQuantity if the ticket has
	// less than assignment.Quantity left.
	CreateAssignment(ctx context.Context, assignment *models.Assignment) error

	// GetAssignment retrieves an assignment by ID. Returns ErrNotFound if absent.
	GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error)

	// ListAssignments returns all assignments in creation order.
	ListAssignments(ctx context.Context) ([]*models.Assignment, error)

	// ListAssignmentsByUser returns the assignments of one user.
	ListAssignmentsByUser(ctx context.Context, userID string) ([]*models.Assignment, error)

	// DeleteAssignment removes an assignment and restores its quantity to
	// the ticket. Returns ErrNotFound if absent.
	DeleteAssignment(ctx context.Context, assignmentID string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
