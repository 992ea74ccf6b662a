package mongodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage"
)

// mongoURI returns a MongoDB URI for the tests, starting a container when
// TICKETSPLIT_TEST_MONGO=1 and no external URI is given.
func mongoURI(t *testing.T) string {
	t.Helper()

	if uri := os.Getenv("TICKETSPLIT_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	if os.Getenv("TICKETSPLIT_TEST_MONGO") != "1" {
		t.Skip("set TICKETSPLIT_TEST_MONGO=1 or TICKETSPLIT_TEST_MONGO_URI to run MongoDB tests")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func newTestStore(t *testing.T) *MongoStore {
	t.Helper()

	uri := mongoURI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A fresh database per test keeps tests independent on a shared server
	store, err := New(ctx, uri, "ticketsplit_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		store.users.Database().Drop(context.Background())
		store.Close()
	})
	return store
}

func TestMongoStore_Allocation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := &models.User{Name: "Alice"}
	bob := &models.User{Name: "Bob"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	ticket := &models.Ticket{ProductName: "Pizza", Quantity: 10, Price: 5}
	require.NoError(t, store.CreateTicket(ctx, ticket))
	assert.Equal(t, 10, ticket.TotalQuantity)

	first := &models.Assignment{UserID: alice.ID, TicketID: ticket.ID, Quantity: 4}
	require.NoError(t, store.CreateAssignment(ctx, first))

	got, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)

	err = store.CreateAssignment(ctx, &models.Assignment{UserID: bob.ID, TicketID: ticket.ID, Quantity: 10})
	assert.True(t, errors.Is(err, storage.ErrInsufficientQuantity), "got %v", err)

	err = store.CreateAssignment(ctx, &models.Assignment{UserID: "ghost", TicketID: ticket.ID, Quantity: 1})
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	require.NoError(t, store.DeleteAssignment(ctx, first.ID))
	got, err = store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	err = store.DeleteAssignment(ctx, first.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

func TestMongoStore_SetTicketQuantity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &models.User{Name: "Alice"}
	require.NoError(t, store.CreateUser(ctx, user))
	ticket := &models.Ticket{ProductName: "Beer", Quantity: 10, Price: 3}
	require.NoError(t, store.CreateTicket(ctx, ticket))
	require.NoError(t, store.CreateAssignment(ctx, &models.Assignment{UserID: user.ID, TicketID: ticket.ID, Quantity: 4}))

	updated, err := store.SetTicketQuantity(ctx, ticket.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)
	assert.Equal(t, 5, updated.TotalQuantity)

	_, err = store.SetTicketQuantity(ctx, "ghost", 1)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

func TestMongoStore_Cascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := &models.User{Name: "Alice"}
	bob := &models.User{Name: "Bob"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))
	pizza := &models.Ticket{ProductName: "Pizza", Quantity: 8, Price: 10}
	beer := &models.Ticket{ProductName: "Beer", Quantity: 6, Price: 4}
	require.NoError(t, store.CreateTicket(ctx, pizza))
	require.NoError(t, store.CreateTicket(ctx, beer))

	onPizza := &models.Assignment{UserID: bob.ID, TicketID: pizza.ID, Quantity: 3}
	require.NoError(t, store.CreateAssignment(ctx, onPizza))
	require.NoError(t, store.CreateAssignment(ctx, &models.Assignment{UserID: alice.ID, TicketID: beer.ID, Quantity: 2}))

	// Deleting a user gives the units back
	require.NoError(t, store.DeleteUser(ctx, alice.ID))
	got, err := store.GetTicket(ctx, beer.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)

	// Deleting a ticket removes its assignments
	require.NoError(t, store.DeleteTicket(ctx, pizza.ID))
	_, err = store.GetAssignment(ctx, onPizza.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	left, err := store.ListAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)

	tickets, err := store.GetTicketsByIDs(ctx, []string{pizza.ID, beer.ID})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.Contains(t, tickets, beer.ID)
}

// claimRaw performs the decrement and insert of CreateAssignment without the
// owner recheck, as if both landed just after a delete swept assignments.
func claimRaw(t *testing.T, store *MongoStore, a *models.Assignment) {
	t.Helper()
	ctx := context.Background()
	a.ID = uuid.NewString()
	_, err := store.tickets.UpdateOne(ctx, bson.M{"_id": a.TicketID}, bson.M{"$inc": bson.M{"quantity": -a.Quantity}})
	require.NoError(t, err)
	_, err = store.assignments.InsertOne(ctx, assignmentDoc{ID: a.ID, UserID: a.UserID, TicketID: a.TicketID, Quantity: a.Quantity})
	require.NoError(t, err)
}

func TestMongoStore_CheckOwners(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := &models.User{Name: "Alice"}
	require.NoError(t, store.CreateUser(ctx, alice))
	pizza := &models.Ticket{ProductName: "Pizza", Quantity: 8, Price: 10}
	beer := &models.Ticket{ProductName: "Beer", Quantity: 6, Price: 4}
	require.NoError(t, store.CreateTicket(ctx, pizza))
	require.NoError(t, store.CreateTicket(ctx, beer))

	// Owners present: the claim stands
	kept := &models.Assignment{UserID: alice.ID, TicketID: beer.ID, Quantity: 1}
	claimRaw(t, store, kept)
	require.NoError(t, store.checkOwners(ctx, kept))
	_, err := store.GetAssignment(ctx, kept.ID)
	require.NoError(t, err)

	// Ticket deleted underneath the claim
	onPizza := &models.Assignment{UserID: alice.ID, TicketID: pizza.ID, Quantity: 3}
	claimRaw(t, store, onPizza)
	_, err = store.tickets.DeleteOne(ctx, bson.M{"_id": pizza.ID})
	require.NoError(t, err)

	err = store.checkOwners(ctx, onPizza)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	_, err = store.GetAssignment(ctx, onPizza.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	// User deleted underneath the claim: units go back to the ticket
	bob := &models.User{Name: "Bob"}
	require.NoError(t, store.CreateUser(ctx, bob))
	onBeer := &models.Assignment{UserID: bob.ID, TicketID: beer.ID, Quantity: 2}
	claimRaw(t, store, onBeer)
	_, err = store.users.DeleteOne(ctx, bson.M{"_id": bob.ID})
	require.NoError(t, err)

	err = store.checkOwners(ctx, onBeer)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	got, err := store.GetTicket(ctx, beer.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	left, err := store.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, kept.ID, left[0].ID)
}
