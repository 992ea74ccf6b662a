package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

// CreateAssignment claims units of a ticket with a conditional decrement,
// then records the claim. If the insert fails the decrement is undone, and if
// the ticket or user was deleted while the claim was in flight it is
// withdrawn again.
func (s *MongoStore) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.New().String()
	}
	if assignment.CreatedAt == 0 {
		assignment.CreatedAt = time.Now().Unix()
	}

	found, err := s.exists(ctx, s.users, assignment.UserID)
	if err != nil {
		return err
	}
	if !found {
		return notFound("user", assignment.UserID)
	}

	result, err := s.tickets.UpdateOne(ctx,
		bson.M{"_id": assignment.TicketID, "quantity": bson.M{"$gte": assignment.Quantity}},
		bson.M{"$inc": bson.M{"quantity": -assignment.Quantity}},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement ticket quantity: %w", err)
	}
	if result.MatchedCount == 0 {
		found, err := s.exists(ctx, s.tickets, assignment.TicketID)
		if err != nil {
			return err
		}
		if !found {
			return notFound("ticket", assignment.TicketID)
		}
		return fmt.Errorf("ticket %s: %w", assignment.TicketID, storage.ErrInsufficientQuantity)
	}

	doc := assignmentDoc{
		ID:        assignment.ID,
		UserID:    assignment.UserID,
		TicketID:  assignment.TicketID,
		Quantity:  assignment.Quantity,
		CreatedAt: assignment.CreatedAt,
	}
	if _, err := s.assignments.InsertOne(ctx, doc); err != nil {
		if restoreErr := s.restore(ctx, assignment.TicketID, assignment.Quantity); restoreErr != nil {
			slog.Error("Failed to compensate ticket decrement",
				"ticket_id", assignment.TicketID,
				"quantity", assignment.Quantity,
				"error", restoreErr,
			)
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	return s.checkOwners(ctx, assignment)
}

// checkOwners runs after an assignment is inserted. Deletes remove the owner
// before sweeping its assignments, so an insert that lands after a sweep
// always finds its owner gone here.
func (s *MongoStore) checkOwners(ctx context.Context, assignment *models.Assignment) error {
	owners := []struct {
		kind string
		coll *mongo.Collection
		id   string
	}{
		{"ticket", s.tickets, assignment.TicketID},
		{"user", s.users, assignment.UserID},
	}
	for _, owner := range owners {
		found, err := s.exists(ctx, owner.coll, owner.id)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := s.releaseAssignment(ctx, assignment.ID); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to withdraw assignment %s: %w", assignment.ID, err)
		}
		slog.Warn("Assignment withdrawn, owner deleted concurrently",
			"assignment_id", assignment.ID,
			"owner", owner.kind,
			"owner_id", owner.id,
		)
		return notFound(owner.kind, owner.id)
	}
	return nil
}

// GetAssignment retrieves an assignment by ID.
func (s *MongoStore) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	var doc assignmentDoc
	err := s.assignments.FindOne(ctx, bson.M{"_id": assignmentID}).Decode(&doc)
	if isNoDocuments(err) {
		return nil, notFound("assignment", assignmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return doc.model(), nil
}

// ListAssignments retrieves all assignments in creation order.
func (s *MongoStore) ListAssignments(ctx context.Context) ([]*models.Assignment, error) {
	return s.findAssignments(ctx, bson.M{})
}

// ListAssignmentsByUser retrieves all assignments held by one user.
func (s *MongoStore) ListAssignmentsByUser(ctx context.Context, userID string) ([]*models.Assignment, error) {
	return s.findAssignments(ctx, bson.M{"user_id": userID})
}

func (s *MongoStore) findAssignments(ctx context.Context, filter bson.M) ([]*models.Assignment, error) {
	cursor, err := s.assignments.Find(ctx, filter, byCreation())
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	var docs []assignmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}

	assignments := make([]*models.Assignment, 0, len(docs))
	for i := range docs {
		assignments = append(assignments, docs[i].model())
	}
	return assignments, nil
}

// DeleteAssignment removes an assignment and returns its units to the ticket.
func (s *MongoStore) DeleteAssignment(ctx context.Context, assignmentID string) error {
	return s.releaseAssignment(ctx, assignmentID)
}

func (s *MongoStore) releaseAssignment(ctx context.Context, assignmentID string) error {
	var doc assignmentDoc
	err := s.assignments.FindOneAndDelete(ctx, bson.M{"_id": assignmentID}).Decode(&doc)
	if isNoDocuments(err) {
		return notFound("assignment", assignmentID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	if err := s.restore(ctx, doc.TicketID, doc.Quantity); err != nil {
		return fmt.Errorf("failed to restore ticket quantity: %w", err)
	}
	return nil
}

// restore gives units back to a ticket. A ticket deleted in the meantime is
// not an error: there is nothing left to give back to.
func (s *MongoStore) restore(ctx context.Context, ticketID string, quantity int) error {
	_, err := s.tickets.UpdateOne(ctx,
		bson.M{"_id": ticketID},
		bson.M{"$inc": bson.M{"quantity": quantity}},
	)
	return err
}
