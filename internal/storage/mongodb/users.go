package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mmynk/ticketsplit/internal/models"
)

// CreateUser inserts a new user document.
func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	doc := userDoc{ID: user.ID, Name: user.Name, CreatedAt: user.CreatedAt}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *MongoStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if isNoDocuments(err) {
		return nil, notFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.model(), nil
}

// ListUsers retrieves all users in creation order.
func (s *MongoStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, byCreation())
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].model())
	}
	return users, nil
}

// DeleteUser deletes the user, then releases every assignment of the user.
// Each assignment goes through the same path as DeleteAssignment.
func (s *MongoStore) DeleteUser(ctx context.Context, userID string) error {
	found, err := s.exists(ctx, s.users, userID)
	if err != nil {
		return err
	}
	if !found {
		return notFound("user", userID)
	}

	result, err := s.users.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return notFound("user", userID)
	}

	// Swept after the user is gone, see checkOwners
	assignments, err := s.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if err := s.releaseAssignment(ctx, a.ID); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to release assignment %s: %w", a.ID, err)
		}
	}
	return nil
}
