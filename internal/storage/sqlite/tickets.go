package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

const ticketColumns = "id, product_name, quantity, total_quantity, price, created_at"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := row.Scan(
		&ticket.ID,
		&ticket.ProductName,
		&ticket.Quantity,
		&ticket.TotalQuantity,
		&ticket.Price,
		&ticket.CreatedAt,
	)
	return ticket, err
}

// CreateTicket persists a new ticket. The whole entered quantity starts unclaimed.
func (s *SQLiteStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.CreatedAt == 0 {
		ticket.CreatedAt = time.Now().Unix()
	}
	ticket.TotalQuantity = ticket.Quantity

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tickets ("+ticketColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		ticket.ID, ticket.ProductName, ticket.Quantity, ticket.TotalQuantity, ticket.Price, ticket.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	return nil
}

// GetTicket retrieves a ticket by ID.
func (s *SQLiteStore) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return getTicket(ctx, s.db, ticketID)
}

func getTicket(ctx context.Context, q querier, ticketID string) (*models.Ticket, error) {
	ticket, err := scanTicket(q.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id = ?",
		ticketID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

// GetTicketsByIDs retrieves multiple tickets by their IDs.
// Returns a map of ticket ID to Ticket; tickets that don't exist are omitted.
func (s *SQLiteStore) GetTicketsByIDs(ctx context.Context, ids []string) (map[string]*models.Ticket, error) {
	tickets := make(map[string]*models.Ticket, len(ids))
	if len(ids) == 0 {
		return tickets, nil
	}

	query := "SELECT " + ticketColumns + " FROM tickets WHERE id IN (?" + repeatPlaceholder(len(ids)-1) + ")"

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets[ticket.ID] = ticket
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}

// ListTickets retrieves all tickets in creation order.
func (s *SQLiteStore) ListTickets(ctx context.Context) ([]*models.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}

// SetTicketQuantity overwrites the remaining quantity. SQLite evaluates every
// SET expression against the old row, so total_quantity shifts by exactly
// the delta applied to quantity.
func (s *SQLiteStore) SetTicketQuantity(ctx context.Context, ticketID string, quantity int) (*models.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE tickets SET total_quantity = total_quantity + (? - quantity), quantity = ? WHERE id = ?",
		quantity, quantity, ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, storage.ErrNotFound)
	}

	ticket, err := getTicket(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

// DeleteTicket removes a ticket and all of its assignments.
func (s *SQLiteStore) DeleteTicket(ctx context.Context, ticketID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	found, err := exists(ctx, tx, "tickets", ticketID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("ticket %s: %w", ticketID, storage.ErrNotFound)
	}

	// Explicit rather than relying on ON DELETE CASCADE alone
	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE ticket_id = ?", ticketID); err != nil {
		return fmt.Errorf("failed to delete ticket assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", ticketID); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
