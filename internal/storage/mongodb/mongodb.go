// Package mongodb provides a MongoDB-backed implementation of the storage.Store interface.
//
// MongoDB is used without multi-document transactions, so quantity
// conservation relies on single-document atomic updates:
//
//   - allocation is one UpdateOne conditioned on quantity >= n
//   - a failed assignment insert is compensated with $inc +n
//   - deletion removes the assignment with FindOneAndDelete before
//     restoring, so each assignment is given back at most once
//   - deleting a user or ticket removes the owner first and sweeps its
//     assignments second; an allocation racing the sweep rechecks its
//     owners after inserting and withdraws itself
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

// Ensure MongoStore implements storage.Store
var _ storage.Store = (*MongoStore)(nil)

const (
	usersCollection       = "users"
	ticketsCollection     = "tickets"
	assignmentsCollection = "assignments"
)

// MongoStore implements storage.Store using MongoDB.
type MongoStore struct {
	client      *mongo.Client
	users       *mongo.Collection
	tickets     *mongo.Collection
	assignments *mongo.Collection
}

type userDoc struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	CreatedAt int64  `bson:"created_at"`
}

type ticketDoc struct {
	ID            string  `bson:"_id"`
	ProductName   string  `bson:"product_name"`
	Quantity      int     `bson:"quantity"`
	TotalQuantity int     `bson:"total_quantity"`
	Price         float64 `bson:"price"`
	CreatedAt     int64   `bson:"created_at"`
}

type assignmentDoc struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	TicketID  string `bson:"ticket_id"`
	Quantity  int    `bson:"quantity"`
	CreatedAt int64  `bson:"created_at"`
}

// New connects to MongoDB, verifies the connection and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:      client,
		users:       db.Collection(usersCollection),
		tickets:     db.Collection(ticketsCollection),
		assignments: db.Collection(assignmentsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.assignments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "ticket_id", Value: 1}}},
	})
	return err
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// byCreation sorts documents in insertion order.
func byCreation() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *MongoStore) exists(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", coll.Name(), err)
	}
	return n > 0, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func (d *userDoc) model() *models.User {
	return &models.User{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt}
}

func (d *ticketDoc) model() *models.Ticket {
	return &models.Ticket{
		ID:            d.ID,
		ProductName:   d.ProductName,
		Quantity:      d.Quantity,
		TotalQuantity: d.TotalQuantity,
		Price:         d.Price,
		CreatedAt:     d.CreatedAt,
	}
}

func (d *assignmentDoc) model() *models.Assignment {
	return &models.Assignment{
		ID:        d.ID,
		UserID:    d.UserID,
		TicketID:  d.TicketID,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
