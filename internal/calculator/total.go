package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is one assignment as seen by the calculator: some units of a ticket.
type Line struct {
	AssignmentID string
	TicketID     string
	ProductName  string
	Quantity     int
	UnitPrice    float64
}

// LineAmount is a line with its computed pre-tax amount.
type LineAmount struct {
	Line
	Amount float64
}

// Surcharges are the percentage and flat extras applied on top of a subtotal.
type Surcharges struct {
	TaxPercent float64
	TipPercent float64
	// TipFlat replaces TipPercent when greater than zero.
	TipFlat float64
}

// ErrOutOfRange is returned when an amount does not fit in a float64.
var ErrOutOfRange = errors.New("amount is out of range")

// Validate rejects negative and non-finite surcharges.
func (s Surcharges) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"tax percent", s.TaxPercent},
		{"tip percent", s.TipPercent},
		{"flat tip", s.TipFlat},
	} {
		if !finite(f.value) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%s cannot be negative", f.name)
		}
	}
	return nil
}

// Breakdown is the calculated total for one user.
type Breakdown struct {
	Lines    []LineAmount
	Subtotal float64
	Tax      float64
	Tip      float64
	Total    float64
}

// CalculateTotal computes what one user owes for the given lines.
// Based on the algorithm:
//
//	subtotal = Σ quantity × unit price
//	taxed    = subtotal × (1 + tax/100)
//	total    = taxed + (tipFlat if tipFlat > 0 else taxed × tip/100)
//
// All arithmetic is decimal; amounts are rounded half away from zero to cents.
func CalculateTotal(lines []Line, s Surcharges) (*Breakdown, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	breakdown := &Breakdown{Lines: make([]LineAmount, 0, len(lines))}
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("line %s: quantity must be positive", line.AssignmentID)
		}
		if !finite(line.UnitPrice) || line.UnitPrice < 0 {
			return nil, fmt.Errorf("line %s: unit price must be a finite non-negative number", line.AssignmentID)
		}
		amount := decimal.NewFromFloat(line.UnitPrice).Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(amount)
		breakdown.Lines = append(breakdown.Lines, LineAmount{Line: line, Amount: money(amount)})
	}

	tax := subtotal.Mul(decimal.NewFromFloat(s.TaxPercent)).Div(hundred)
	taxed := subtotal.Add(tax)

	var tip decimal.Decimal
	if s.TipFlat > 0 {
		tip = decimal.NewFromFloat(s.TipFlat)
	} else {
		tip = taxed.Mul(decimal.NewFromFloat(s.TipPercent)).Div(hundred)
	}

	breakdown.Subtotal = money(subtotal)
	breakdown.Tax = money(tax)
	breakdown.Tip = money(tip)
	breakdown.Total = money(taxed.Add(tip))
	if !finite(breakdown.Total) {
		return nil, fmt.Errorf("total of %d lines: %w", len(lines), ErrOutOfRange)
	}
	return breakdown, nil
}

// money rounds to cents and converts back to float64 for transport.
// Amounts beyond float64 range come back as ±Inf.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
