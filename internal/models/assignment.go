package models

// Assignment represents a user's claim on part of a ticket.
type Assignment struct {
	// ID is the unique identifier for the assignment (UUID format).
	ID string

	// UserID is the user holding the claim.
	UserID string

	// TicketID is the ticket the units were taken from.
	TicketID string

	// Quantity is the number of units claimed. Always positive.
	Quantity int

	// CreatedAt is the Unix timestamp when the assignment was created.
	CreatedAt int64
}

// AssignmentDetail is an assignment together with the records it references.
// Either reference may be nil if the record could not be found.
type AssignmentDetail struct {
	Assignment
	User   *User
	Ticket *Ticket
}
