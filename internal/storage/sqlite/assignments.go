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

const assignmentColumns = "id, user_id, ticket_id, quantity, created_at"

func scanAssignment(row scanner) (*models.Assignment, error) {
	assignment := &models.Assignment{}
	err := row.Scan(
		&assignment.ID,
		&assignment.UserID,
		&assignment.TicketID,
		&assignment.Quantity,
		&assignment.CreatedAt,
	)
	return assignment, err
}

// CreateAssignment claims units of a ticket for a user.
// The quantity check and the decrement are one conditional UPDATE, so the
// remaining quantity can never go below zero.
func (s *SQLiteStore) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.New().String()
	}
	if assignment.CreatedAt == 0 {
		assignment.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	found, err := exists(ctx, tx, "users", assignment.UserID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("user %s: %w", assignment.UserID, storage.ErrNotFound)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE tickets SET quantity = quantity - ? WHERE id = ? AND quantity >= ?",
		assignment.Quantity, assignment.TicketID, assignment.Quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement ticket quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		found, err := exists(ctx, tx, "tickets", assignment.TicketID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("ticket %s: %w", assignment.TicketID, storage.ErrNotFound)
		}
		return fmt.Errorf("ticket %s: %w", assignment.TicketID, storage.ErrInsufficientQuantity)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO assignments ("+assignmentColumns+") VALUES (?, ?, ?, ?, ?)",
		assignment.ID, assignment.UserID, assignment.TicketID, assignment.Quantity, assignment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetAssignment retrieves an assignment by ID.
func (s *SQLiteStore) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	assignment, err := scanAssignment(s.db.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE id = ?",
		assignmentID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assignment %s: %w", assignmentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}

// ListAssignments retrieves all assignments in creation order.
func (s *SQLiteStore) ListAssignments(ctx context.Context) ([]*models.Assignment, error) {
	return s.queryAssignments(ctx,
		"SELECT "+assignmentColumns+" FROM assignments ORDER BY created_at, rowid",
	)
}

// ListAssignmentsByUser retrieves all assignments held by one user.
func (s *SQLiteStore) ListAssignmentsByUser(ctx context.Context, userID string) ([]*models.Assignment, error) {
	return s.queryAssignments(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE user_id = ? ORDER BY created_at, rowid",
		userID,
	)
}

func (s *SQLiteStore) queryAssignments(ctx context.Context, query string, args ...any) ([]*models.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	return assignments, nil
}

// DeleteAssignment removes an assignment and returns its units to the ticket.
func (s *SQLiteStore) DeleteAssignment(ctx context.Context, assignmentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ticketID string
	var quantity int
	err = tx.QueryRowContext(ctx,
		"SELECT ticket_id, quantity FROM assignments WHERE id = ?",
		assignmentID,
	).Scan(&ticketID, &quantity)
	if err == sql.ErrNoRows {
		return fmt.Errorf("assignment %s: %w", assignmentID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE id = ?", assignmentID); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE tickets SET quantity = quantity + ? WHERE id = ?",
		quantity, ticketID,
	)
	if err != nil {
		return fmt.Errorf("failed to restore ticket quantity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
