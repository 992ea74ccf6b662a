// Package models defines the core domain models for ticketsplit.
//
// # Models
//
//   - User: a person who takes a share of the bill
//   - Ticket: a purchased line item with a divisible quantity and unit price
//   - Assignment: a claim by one user on some quantity of one ticket
//
// # Quantity Conservation
//
// A ticket tracks two quantities. Quantity is what is still unclaimed and
// TotalQuantity is what was bought. For every ticket:
//
//	Quantity + sum(assignment quantities for the ticket) == TotalQuantity
//
// Creating an assignment moves units from Quantity into the assignment,
// deleting one moves them back. Relationships are plain ID strings, never
// pointers, so records can be stored and loaded independently.
package models
