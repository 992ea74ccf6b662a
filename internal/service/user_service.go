package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

// UserService manages the people a bill is split between.
type UserService struct {
	store storage.Store
}

// NewUserService creates a new UserService with the given storage backend.
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// Create adds a user. The name is trimmed and must not be empty.
func (s *UserService) Create(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}

	user := &models.User{Name: name}
	if err := s.store.CreateUser(ctx, user); err != nil {
		slog.Error("Failed to create user", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("User created", "user_id", user.ID, "name", user.Name)
	return user, nil
}

// List returns every user in creation order.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	return s.store.GetUser(ctx, userID)
}

// Delete removes a user after releasing everything the user had claimed.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return invalid("user id is required")
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	slog.Info("User deleted", "user_id", userID)
	return nil
}
