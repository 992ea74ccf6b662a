package rpc

// CreateAssignmentRequest asks for quantity units of a ticket on behalf of a user.
type CreateAssignmentRequest struct {
	UserID   string `json:"userId"`
	TicketID string `json:"ticketId"`
	Quantity int    `json:"quantity"`
}

// Assignment is the wire form of a claim on a ticket.
type Assignment struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	TicketID  string `json:"ticketId"`
	Quantity  int    `json:"quantity"`
	CreatedAt int64  `json:"createdAt"`
}

// CreateAssignmentResponse carries the assignment that was created.
type CreateAssignmentResponse struct {
	Assignment *Assignment `json:"assignment"`
}

// DeleteAssignmentRequest names the assignment to release.
type DeleteAssignmentRequest struct {
	ID string `json:"id"`
}

// DeleteAssignmentResponse is empty on success.
type DeleteAssignmentResponse struct{}

// DeleteTicketRequest names the ticket to remove along with its assignments.
type DeleteTicketRequest struct {
	ID string `json:"id"`
}

// DeleteTicketResponse is empty on success.
type DeleteTicketResponse struct{}

// UserTotalRequest selects a user and the surcharges to apply.
type UserTotalRequest struct {
	UserID     string  `json:"userId"`
	TaxPercent float64 `json:"taxPercent"`
	TipPercent float64 `json:"tipPercent"`
	TipFlat    float64 `json:"tipFlat"`
}

// Line is one assignment priced at its ticket's unit price.
type Line struct {
	AssignmentID string  `json:"assignmentId"`
	TicketID     string  `json:"ticketId"`
	ProductName  string  `json:"productName"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	Amount       float64 `json:"amount"`
}

// UserTotalResponse is what one user owes.
type UserTotalResponse struct {
	Lines    []Line  `json:"lines"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
	Total    float64 `json:"total"`
}
