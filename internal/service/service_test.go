package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/ticketsplit/internal/calculator"
	"github.com/mmynk/ticketsplit/internal/metrics"
	"github.com/mmynk/ticketsplit/internal/models"
	"github.com/mmynk/ticketsplit/internal/storage/sqlite"
)

type testServices struct {
	users   *UserService
	tickets *TicketService
	alloc   *AllocationService
	totals  *TotalsService
	metrics *metrics.Metrics
}

// setupServices creates every service on a fresh SQLite database.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	return &testServices{
		users:   NewUserService(store),
		tickets: NewTicketService(store),
		alloc:   NewAllocationService(store, m),
		totals:  NewTotalsService(store),
		metrics: m,
	}
}

func (s *testServices) mustUser(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := s.users.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("Create user %q failed: %v", name, err)
	}
	return user
}

func (s *testServices) mustTicket(t *testing.T, product string, quantity int, price float64) *models.Ticket {
	t.Helper()
	ticket, err := s.tickets.Create(context.Background(), product, quantity, price)
	if err != nil {
		t.Fatalf("Create ticket %q failed: %v", product, err)
	}
	return ticket
}

func (s *testServices) remaining(t *testing.T, ticketID string) int {
	t.Helper()
	ticket, err := s.tickets.Get(context.Background(), ticketID)
	if err != nil {
		t.Fatalf("Get ticket failed: %v", err)
	}
	return ticket.Quantity
}

func TestCreateUser(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user, err := svc.users.Create(ctx, "  Alice  ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected non-empty user ID")
	}
	if user.Name != "Alice" {
		t.Errorf("Expected trimmed name 'Alice', got %q", user.Name)
	}

	_, err = svc.users.Create(ctx, "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank name, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	svc := setupServices(t)

	svc.mustUser(t, "Alice")
	svc.mustUser(t, "Bob")

	users, err := svc.users.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if users[0].Name != "Alice" || users[1].Name != "Bob" {
		t.Errorf("Expected creation order [Alice Bob], got [%s %s]", users[0].Name, users[1].Name)
	}
}

func TestDeleteUser_ReleasesAssignments(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	pizza := svc.mustTicket(t, "Pizza", 8, 10)
	if _, err := svc.alloc.CreateAssignment(ctx, alice.ID, pizza.ID, 3); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	if err := svc.users.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := svc.remaining(t, pizza.ID); got != 8 {
		t.Errorf("Expected remaining 8 after user delete, got %d", got)
	}
	if _, err := svc.users.Get(ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.users.Delete(ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateTicket_Validation(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		product  string
		quantity int
		price    float64
	}{
		{"missing product", "", 1, 1},
		{"zero quantity", "Beer", 0, 1},
		{"negative price", "Beer", 1, -0.5},
		{"quantity above limit", "Beer", models.MaxQuantity + 1, 1},
		{"price above limit", "Gold", 10, 1e308},
		{"infinite price", "Gold", 1, math.Inf(1)},
		{"NaN price", "Gold", 1, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.tickets.Create(ctx, tt.product, tt.quantity, tt.price)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}

	ticket := svc.mustTicket(t, "Beer", 6, 0)
	if ticket.TotalQuantity != 6 {
		t.Errorf("Expected total quantity 6, got %d", ticket.TotalQuantity)
	}
}

func TestUpdateQuantity(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	beer := svc.mustTicket(t, "Beer", 10, 3)
	if _, err := svc.alloc.CreateAssignment(ctx, alice.ID, beer.ID, 4); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	updated, err := svc.tickets.UpdateQuantity(ctx, beer.ID, 2)
	if err != nil {
		t.Fatalf("UpdateQuantity failed: %v", err)
	}
	if updated.Quantity != 2 || updated.TotalQuantity != 6 {
		t.Errorf("Expected quantity 2 / total 6, got %d / %d", updated.Quantity, updated.TotalQuantity)
	}
	if updated.Assigned() != 4 {
		t.Errorf("Expected 4 assigned units to survive, got %d", updated.Assigned())
	}

	if _, err := svc.tickets.UpdateQuantity(ctx, beer.ID, -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.tickets.UpdateQuantity(ctx, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateAssignment(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	bob := svc.mustUser(t, "Bob")
	ticket := svc.mustTicket(t, "Pizza", 10, 5)

	first, err := svc.alloc.CreateAssignment(ctx, alice.ID, ticket.ID, 4)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if got := svc.remaining(t, ticket.ID); got != 6 {
		t.Errorf("Expected remaining 6, got %d", got)
	}

	_, err = svc.alloc.CreateAssignment(ctx, bob.ID, ticket.ID, 10)
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("Expected ErrInsufficientQuantity, got %v", err)
	}
	if got := svc.remaining(t, ticket.ID); got != 6 {
		t.Errorf("Expected remaining to stay 6, got %d", got)
	}

	if err := svc.alloc.DeleteAssignment(ctx, first.ID); err != nil {
		t.Fatalf("DeleteAssignment failed: %v", err)
	}
	if got := svc.remaining(t, ticket.ID); got != 10 {
		t.Errorf("Expected remaining 10 after delete, got %d", got)
	}
}

func TestCreateAssignment_Errors(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	ticket := svc.mustTicket(t, "Pizza", 2, 5)

	tests := []struct {
		name     string
		userID   string
		ticketID string
		quantity int
		wantErr  error
	}{
		{"zero quantity", alice.ID, ticket.ID, 0, ErrInvalidQuantity},
		{"negative quantity", alice.ID, ticket.ID, -3, ErrInvalidInput},
		{"missing user id", "", ticket.ID, 1, ErrInvalidInput},
		{"unknown user", "nobody", ticket.ID, 1, ErrNotFound},
		{"unknown ticket", alice.ID, "nothing", 1, ErrNotFound},
		{"too many", alice.ID, ticket.ID, 3, ErrInsufficientQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.alloc.CreateAssignment(ctx, tt.userID, tt.ticketID, tt.quantity)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if got := svc.remaining(t, ticket.ID); got != 2 {
		t.Errorf("Expected failed allocations to leave 2, got %d", got)
	}
}

func TestDeleteAssignment_NotFound(t *testing.T) {
	svc := setupServices(t)

	err := svc.alloc.DeleteAssignment(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTicket_Cascades(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	bob := svc.mustUser(t, "Bob")
	ticket := svc.mustTicket(t, "Pizza", 10, 5)

	a1, err := svc.alloc.CreateAssignment(ctx, alice.ID, ticket.ID, 3)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	a2, err := svc.alloc.CreateAssignment(ctx, bob.ID, ticket.ID, 2)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	if err := svc.alloc.DeleteTicket(ctx, ticket.ID); err != nil {
		t.Fatalf("DeleteTicket failed: %v", err)
	}

	for _, id := range []string{a1.ID, a2.ID} {
		if _, err := svc.alloc.GetAssignment(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for assignment %s, got %v", id, err)
		}
	}
	if _, err := svc.tickets.Get(ctx, ticket.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for ticket, got %v", err)
	}
	if err := svc.alloc.DeleteTicket(ctx, ticket.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListAssignments_EmbedsRecords(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	bob := svc.mustUser(t, "Bob")
	pizza := svc.mustTicket(t, "Pizza", 10, 5)
	beer := svc.mustTicket(t, "Beer", 6, 3)

	for _, a := range []struct {
		user   *models.User
		ticket *models.Ticket
		n      int
	}{
		{alice, pizza, 2},
		{alice, beer, 1},
		{bob, pizza, 3},
	} {
		if _, err := svc.alloc.CreateAssignment(ctx, a.user.ID, a.ticket.ID, a.n); err != nil {
			t.Fatalf("CreateAssignment failed: %v", err)
		}
	}

	all, err := svc.alloc.ListAssignments(ctx)
	if err != nil {
		t.Fatalf("ListAssignments failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 assignments, got %d", len(all))
	}
	for _, d := range all {
		if d.User == nil || d.User.ID != d.UserID {
			t.Errorf("Assignment %s: user not embedded", d.ID)
		}
		if d.Ticket == nil || d.Ticket.ID != d.TicketID {
			t.Errorf("Assignment %s: ticket not embedded", d.ID)
		}
	}

	mine, err := svc.alloc.ListUserAssignments(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListUserAssignments failed: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Expected 2 assignments for Alice, got %d", len(mine))
	}
	if mine[0].Ticket.ProductName != "Pizza" || mine[1].Ticket.ProductName != "Beer" {
		t.Errorf("Unexpected tickets: %s, %s", mine[0].Ticket.ProductName, mine[1].Ticket.ProductName)
	}

	if _, err := svc.alloc.ListUserAssignments(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestAllocationMetrics(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	ticket := svc.mustTicket(t, "Pizza", 3, 5)

	svc.alloc.CreateAssignment(ctx, alice.ID, ticket.ID, 2)
	svc.alloc.CreateAssignment(ctx, alice.ID, ticket.ID, 2)
	svc.alloc.CreateAssignment(ctx, alice.ID, ticket.ID, 0)

	if got := counterValue(t, svc.metrics, metrics.OutcomeAllocated); got != 1 {
		t.Errorf("Expected 1 allocated, got %v", got)
	}
	if got := counterValue(t, svc.metrics, metrics.OutcomeInsufficient); got != 1 {
		t.Errorf("Expected 1 insufficient, got %v", got)
	}
	if got := counterValue(t, svc.metrics, metrics.OutcomeInvalid); got != 1 {
		t.Errorf("Expected 1 invalid, got %v", got)
	}
}

func TestUserTotal(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	pizza := svc.mustTicket(t, "Pizza", 10, 5)
	beer := svc.mustTicket(t, "Beer", 10, 5)
	if _, err := svc.alloc.CreateAssignment(ctx, alice.ID, pizza.ID, 3); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if _, err := svc.alloc.CreateAssignment(ctx, alice.ID, beer.ID, 2); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	breakdown, err := svc.totals.UserTotal(ctx, alice.ID, calculator.Surcharges{TaxPercent: 10})
	if err != nil {
		t.Fatalf("UserTotal failed: %v", err)
	}
	if breakdown.Subtotal != 25 {
		t.Errorf("Expected subtotal 25, got %v", breakdown.Subtotal)
	}
	if breakdown.Total != 27.5 {
		t.Errorf("Expected total 27.50, got %v", breakdown.Total)
	}
	if len(breakdown.Lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(breakdown.Lines))
	}

	withFlatTip, err := svc.totals.UserTotal(ctx, alice.ID, calculator.Surcharges{TaxPercent: 10, TipPercent: 50, TipFlat: 2})
	if err != nil {
		t.Fatalf("UserTotal failed: %v", err)
	}
	if withFlatTip.Total != 29.5 {
		t.Errorf("Expected flat tip to win, total 29.50, got %v", withFlatTip.Total)
	}

	if _, err := svc.totals.UserTotal(ctx, alice.ID, calculator.Surcharges{TaxPercent: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative tax, got %v", err)
	}
	if _, err := svc.totals.UserTotal(ctx, "nobody", calculator.Surcharges{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	alice := svc.mustUser(t, "Alice")
	svc.mustUser(t, "Bob")
	pizza := svc.mustTicket(t, "Pizza", 4, 10)
	if _, err := svc.alloc.CreateAssignment(ctx, alice.ID, pizza.ID, 1); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	summary, err := svc.totals.Summary(ctx, calculator.Surcharges{TaxPercent: 10})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(summary.Users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(summary.Users))
	}
	if summary.Users[0].Breakdown.Total != 11 {
		t.Errorf("Expected Alice total 11, got %v", summary.Users[0].Breakdown.Total)
	}
	if summary.Users[1].Breakdown.Total != 0 {
		t.Errorf("Expected Bob total 0, got %v", summary.Users[1].Breakdown.Total)
	}
	if summary.Unassigned != 30 {
		t.Errorf("Expected unassigned 30, got %v", summary.Unassigned)
	}
	if summary.GrandTotal != 11 {
		t.Errorf("Expected grand total 11, got %v", summary.GrandTotal)
	}

	// A flat tip is owed by users with nothing claimed, in both views
	flat := calculator.Surcharges{TipFlat: 2}
	summary, err = svc.totals.Summary(ctx, flat)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	bob, err := svc.totals.UserTotal(ctx, summary.Users[1].UserID, flat)
	if err != nil {
		t.Fatalf("UserTotal failed: %v", err)
	}
	if bob.Total != 2 || summary.Users[1].Breakdown.Total != bob.Total {
		t.Errorf("Expected Bob total 2 in both views, got summary %v and user total %v",
			summary.Users[1].Breakdown.Total, bob.Total)
	}
	if summary.GrandTotal != 14 {
		t.Errorf("Expected grand total 14, got %v", summary.GrandTotal)
	}

	_, err = svc.totals.Summary(ctx, calculator.Surcharges{TipFlat: math.Inf(1)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for infinite flat tip, got %v", err)
	}
}

func counterValue(t *testing.T, m *metrics.Metrics, outcome string) float64 {
	t.Helper()
	return testutil.ToFloat64(m.AllocationCount(outcome))
}
