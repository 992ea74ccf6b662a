// Package response holds the JSON bodies returned by the REST API.
package response

import (
	"github.com/mmynk/ticketsplit/internal/calculator"
	"github.com/mmynk/ticketsplit/internal/models"
)

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

type Ticket struct {
	ID            string  `json:"id"`
	ProductName   string  `json:"productName"`
	Quantity      int     `json:"quantity"`
	TotalQuantity int     `json:"totalQuantity"`
	Price         float64 `json:"price"`
	CreatedAt     int64   `json:"createdAt"`
}

// Assignment embeds the referenced user and ticket when they were loaded.
type Assignment struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	TicketID  string  `json:"ticketId"`
	Quantity  int     `json:"quantity"`
	CreatedAt int64   `json:"createdAt"`
	User      *User   `json:"user,omitempty"`
	Ticket    *Ticket `json:"ticket,omitempty"`
}

type Line struct {
	AssignmentID string  `json:"assignmentId"`
	TicketID     string  `json:"ticketId"`
	ProductName  string  `json:"productName"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	Amount       float64 `json:"amount"`
}

type Breakdown struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name,omitempty"`
	Lines    []Line  `json:"lines"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
	Total    float64 `json:"total"`
}

type Summary struct {
	Users      []Breakdown `json:"users"`
	Unassigned float64     `json:"unassigned"`
	GrandTotal float64     `json:"grandTotal"`
}

type Health struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func FromUser(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

func FromUsers(users []*models.User) []*User {
	out := make([]*User, len(users))
	for i, u := range users {
		out[i] = FromUser(u)
	}
	return out
}

func FromTicket(t *models.Ticket) *Ticket {
	if t == nil {
		return nil
	}
	return &Ticket{
		ID:            t.ID,
		ProductName:   t.ProductName,
		Quantity:      t.Quantity,
		TotalQuantity: t.TotalQuantity,
		Price:         t.Price,
		CreatedAt:     t.CreatedAt,
	}
}

func FromTickets(tickets []*models.Ticket) []*Ticket {
	out := make([]*Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = FromTicket(t)
	}
	return out
}

func FromAssignment(a *models.Assignment) *Assignment {
	return &Assignment{
		ID:        a.ID,
		UserID:    a.UserID,
		TicketID:  a.TicketID,
		Quantity:  a.Quantity,
		CreatedAt: a.CreatedAt,
	}
}

func FromAssignmentDetails(details []*models.AssignmentDetail) []*Assignment {
	out := make([]*Assignment, len(details))
	for i, d := range details {
		a := FromAssignment(&d.Assignment)
		a.User = FromUser(d.User)
		a.Ticket = FromTicket(d.Ticket)
		out[i] = a
	}
	return out
}

func FromBreakdown(userID, name string, b *calculator.Breakdown) Breakdown {
	lines := make([]Line, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = Line{
			AssignmentID: l.AssignmentID,
			TicketID:     l.TicketID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Amount:       l.Amount,
		}
	}
	return Breakdown{
		UserID:   userID,
		Name:     name,
		Lines:    lines,
		Subtotal: b.Subtotal,
		Tax:      b.Tax,
		Tip:      b.Tip,
		Total:    b.Total,
	}
}

func FromSummary(s *calculator.Summary) Summary {
	users := make([]Breakdown, len(s.Users))
	for i, u := range s.Users {
		users[i] = FromBreakdown(u.UserID, u.Name, u.Breakdown)
	}
	return Summary{
		Users:      users,
		Unassigned: s.Unassigned,
		GrandTotal: s.GrandTotal,
	}
}
