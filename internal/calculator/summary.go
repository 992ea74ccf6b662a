package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UserLines groups the lines claimed by one user.
type UserLines struct {
	UserID string
	Name   string
	Lines  []Line
}

// UserTotal is one user's entry in a Summary.
type UserTotal struct {
	UserID    string
	Name      string
	Breakdown *Breakdown
}

// Remainder is the unclaimed part of a ticket.
type Remainder struct {
	TicketID    string
	ProductName string
	Quantity    int
	UnitPrice   float64
}

// Summary represents the totals of every user plus what nobody has claimed yet.
type Summary struct {
	Users []UserTotal

	// Unassigned is the pre-tax value of all remaining ticket quantity.
	Unassigned float64

	// GrandTotal is the sum of every user's Total.
	GrandTotal float64
}

// Summarize computes a breakdown per user and aggregates the bill.
//
// Algorithm:
//   - each user: CalculateTotal over that user's lines with the same surcharges
//   - unassigned: Σ remaining quantity × unit price
//   - grand total: Σ user totals
//
// Users are reported in the order given, including users with no lines.
// Their breakdown matches CalculateTotal, so a flat tip is still owed.
func Summarize(users []UserLines, remainders []Remainder, s Surcharges) (*Summary, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	summary := &Summary{Users: make([]UserTotal, 0, len(users))}
	grand := decimal.Zero
	for _, u := range users {
		breakdown, err := CalculateTotal(u.Lines, s)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.UserID, err)
		}
		summary.Users = append(summary.Users, UserTotal{
			UserID:    u.UserID,
			Name:      u.Name,
			Breakdown: breakdown,
		})
		grand = grand.Add(decimal.NewFromFloat(breakdown.Total))
	}

	unassigned := decimal.Zero
	for _, r := range remainders {
		if r.Quantity <= 0 {
			continue
		}
		if !finite(r.UnitPrice) {
			return nil, fmt.Errorf("ticket %s: %w", r.TicketID, ErrOutOfRange)
		}
		unassigned = unassigned.Add(decimal.NewFromFloat(r.UnitPrice).Mul(decimal.NewFromInt(int64(r.Quantity))))
	}

	summary.Unassigned = money(unassigned)
	summary.GrandTotal = money(grand)
	if !finite(summary.Unassigned) || !finite(summary.GrandTotal) {
		return nil, ErrOutOfRange
	}
	return summary, nil
}
