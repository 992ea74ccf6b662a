package models

// Upper bounds for a ticket. Every total built from tickets within these
// limits stays exactly representable in cents.
const (
	MaxPrice    = 1_000_000_000.0
	MaxQuantity = 1_000_000
)

// Ticket represents a purchased line item that can be split among users.
type Ticket struct {
	// ID is the unique identifier for the ticket (UUID format).
	ID string

	// ProductName is the name of the item (e.g., "Pizza", "Beer").
	ProductName string

	// Quantity is the remaining quantity not yet claimed by any assignment.
	Quantity int

	// TotalQuantity is the remaining quantity plus everything currently assigned.
	TotalQuantity int

	// Price is the unit price.
	Price float64

	// CreatedAt is the Unix timestamp when the ticket was created.
	CreatedAt int64
}

// Assigned returns the quantity currently held by assignments.
func (t *Ticket) Assigned() int {
	return t.TotalQuantity - t.Quantity
}
