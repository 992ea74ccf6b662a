package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmynk/ticketsplit/internal/models"
)

// CreateTicket inserts a new ticket document. The whole entered quantity starts unclaimed.
func (s *MongoStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.CreatedAt == 0 {
		ticket.CreatedAt = time.Now().Unix()
	}
	ticket.TotalQuantity = ticket.Quantity

	doc := ticketDoc{
		ID:            ticket.ID,
		ProductName:   ticket.ProductName,
		Quantity:      ticket.Quantity,
		TotalQuantity: ticket.TotalQuantity,
		Price:         ticket.Price,
		CreatedAt:     ticket.CreatedAt,
	}
	if _, err := s.tickets.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by ID.
func (s *MongoStore) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var doc ticketDoc
	err := s.tickets.FindOne(ctx, bson.M{"_id": ticketID}).Decode(&doc)
	if isNoDocuments(err) {
		return nil, notFound("ticket", ticketID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return doc.model(), nil
}

// GetTicketsByIDs retrieves multiple tickets keyed by ID. Missing tickets are omitted.
func (s *MongoStore) GetTicketsByIDs(ctx context.Context, ids []string) (map[string]*models.Ticket, error) {
	tickets := make(map[string]*models.Ticket, len(ids))
	if len(ids) == 0 {
		return tickets, nil
	}

	cursor, err := s.tickets.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets by IDs: %w", err)
	}

	var docs []ticketDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tickets: %w", err)
	}
	for i := range docs {
		tickets[docs[i].ID] = docs[i].model()
	}
	return tickets, nil
}

// ListTickets retrieves all tickets in creation order.
func (s *MongoStore) ListTickets(ctx context.Context) ([]*models.Ticket, error) {
	cursor, err := s.tickets.Find(ctx, bson.M{}, byCreation())
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	var docs []ticketDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tickets: %w", err)
	}

	tickets := make([]*models.Ticket, 0, len(docs))
	for i := range docs {
		tickets = append(tickets, docs[i].model())
	}
	return tickets, nil
}

// SetTicketQuantity overwrites the remaining quantity with a pipeline update.
// Field paths inside one $set stage read the pre-update document, so
// total_quantity shifts by exactly the delta applied to quantity.
func (s *MongoStore) SetTicketQuantity(ctx context.Context, ticketID string, quantity int) (*models.Ticket, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "total_quantity", Value: bson.D{{Key: "$add", Value: bson.A{
				"$total_quantity",
				bson.D{{Key: "$subtract", Value: bson.A{quantity, "$quantity"}}},
			}}}},
			{Key: "quantity", Value: quantity},
		}}},
	}

	var doc ticketDoc
	err := s.tickets.FindOneAndUpdate(ctx,
		bson.M{"_id": ticketID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if isNoDocuments(err) {
		return nil, notFound("ticket", ticketID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket quantity: %w", err)
	}
	return doc.model(), nil
}

// DeleteTicket removes the ticket, then every assignment of it.
func (s *MongoStore) DeleteTicket(ctx context.Context, ticketID string) error {
	found, err := s.exists(ctx, s.tickets, ticketID)
	if err != nil {
		return err
	}
	if !found {
		return notFound("ticket", ticketID)
	}

	result, err := s.tickets.DeleteOne(ctx, bson.M{"_id": ticketID})
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	if result.DeletedCount == 0 {
		return notFound("ticket", ticketID)
	}

	// Swept after the ticket is gone, see checkOwners
	if _, err := s.assignments.DeleteMany(ctx, bson.M{"ticket_id": ticketID}); err != nil {
		return fmt.Errorf("failed to delete ticket assignments: %w", err)
	}
	return nil
}
