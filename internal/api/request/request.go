// Package request holds the JSON and query schemas accepted by the REST API.
// Pointer fields tell a missing value apart from a zero one.
package request

import (
	"errors"
	"math"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/mmynk/ticketsplit/internal/calculator"
	"github.com/mmynk/ticketsplit/internal/models"
)

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name string `json:"name"`
}

// Validate checks the user name.
func (r *CreateUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// CreateTicketRequest is the body of POST /tickets.
type CreateTicketRequest struct {
	ProductName string   `json:"productName"`
	Quantity    *int     `json:"quantity"`
	Price       *float64 `json:"price"`
}

// Validate checks the product name and keeps quantity and price within the ticket bounds.
func (r *CreateTicketRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProductName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1), validation.Max(models.MaxQuantity)),
		validation.Field(&r.Price, validation.NotNil, validation.Min(0.0), validation.Max(models.MaxPrice)),
	)
}

// UpdateTicketRequest is the body of PUT /tickets/:id.
type UpdateTicketRequest struct {
	Quantity *int `json:"quantity"`
}

// Validate checks the new remaining quantity.
func (r *UpdateTicketRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Quantity, validation.NotNil, validation.Min(0), validation.Max(models.MaxQuantity)),
	)
}

// CreateAssignmentRequest is the body of POST /assignments. It only checks
// presence; the quantity range is enforced by the allocation service.
type CreateAssignmentRequest struct {
	UserID   string `json:"userId"`
	TicketID string `json:"ticketId"`
	Quantity *int   `json:"quantity"`
}

// Validate checks that every field is present.
func (r *CreateAssignmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.TicketID, validation.Required),
		validation.Field(&r.Quantity, validation.NotNil),
	)
}

// TotalQuery is the query string of the totals endpoints.
type TotalQuery struct {
	Tax     float64 `form:"tax"`
	Tip     float64 `form:"tip"`
	TipFlat float64 `form:"tipFlat"`
}

// Validate rejects negative and non-finite surcharges.
func (q *TotalQuery) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.Tax, validation.By(finite), validation.Min(0.0)),
		validation.Field(&q.Tip, validation.By(finite), validation.Min(0.0)),
		validation.Field(&q.TipFlat, validation.By(finite), validation.Min(0.0)),
	)
}

// Surcharges converts the query into calculator input.
func (q *TotalQuery) Surcharges() calculator.Surcharges {
	return calculator.Surcharges{
		TaxPercent: q.Tax,
		TipPercent: q.Tip,
		TipFlat:    q.TipFlat,
	}
}

func finite(value interface{}) error {
	f, _ := value.(float64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return errors.New("must be a finite number")
	}
	return nil
}
