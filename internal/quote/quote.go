// Package quote prices a project from its task estimates.
package quote

import (
	"github.com/shopspring/decimal"

	"fourgears/internal/models"
)

// Pricing holds the rates for the market comparison price and for the
// actual price charged to the customer.
type Pricing struct {
	MarketBaseFee    decimal.Decimal
	MarketHourlyRate decimal.Decimal
	UrgentSurcharge  decimal.Decimal
	BaseFee          decimal.Decimal
	HourlyRate       decimal.Decimal
}

// DefaultPricing returns the standard rate card.
func DefaultPricing() Pricing {
	return Pricing{
		MarketBaseFee:    decimal.NewFromInt(3500),
		MarketHourlyRate: decimal.NewFromInt(120),
		UrgentSurcharge:  decimal.NewFromInt(500),
		BaseFee:          decimal.NewFromInt(1500),
		HourlyRate:       decimal.NewFromInt(65),
	}
}

// Estimate is the breakdown shown next to a quote.
type Estimate struct {
	TaskCount       int             `json:"task_count"`
	UrgentTaskCount int             `json:"urgent_task_count"`
	TotalHours      decimal.Decimal `json:"total_hours"`

	MarketBaseFee decimal.Decimal `json:"market_base_fee"`
	MarketLabor   decimal.Decimal `json:"market_labor"`
	UrgentFee     decimal.Decimal `json:"urgent_fee"`
	MarketPrice   decimal.Decimal `json:"market_price"`

	BaseFee         decimal.Decimal `json:"base_fee"`
	Labor           decimal.Decimal `json:"labor"`
	CalculatedPrice decimal.Decimal `json:"calculated_price"`
	ActualPrice     decimal.Decimal `json:"actual_price"`
	FromSavedQuote  bool            `json:"from_saved_quote"`

	Savings decimal.Decimal `json:"savings"`
}

// Estimate computes both price models for tasks. A saved quote with a
// positive total overrides the calculated actual price; the market price is
// always recomputed.
func (p Pricing) Estimate(tasks []models.Task, existing *models.Quote) Estimate {
	est := Estimate{TaskCount: len(tasks), TotalHours: decimal.Zero}
	for _, t := range tasks {
		if t.EstimatedHours != nil {
			est.TotalHours = est.TotalHours.Add(decimal.NewFromFloat(*t.EstimatedHours))
		}
		if t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent {
			est.UrgentTaskCount++
		}
	}

	est.MarketBaseFee = decimal.Zero
	est.BaseFee = decimal.Zero
	if len(tasks) > 0 || existing != nil {
		est.MarketBaseFee = p.MarketBaseFee
		est.BaseFee = p.BaseFee
	}

	est.MarketLabor = est.TotalHours.Mul(p.MarketHourlyRate)
	est.UrgentFee = p.UrgentSurcharge.Mul(decimal.NewFromInt(int64(est.UrgentTaskCount)))
	est.MarketPrice = est.MarketBaseFee.Add(est.MarketLabor).Add(est.UrgentFee)

	est.Labor = est.TotalHours.Mul(p.HourlyRate)
	est.CalculatedPrice = est.BaseFee.Add(est.Labor)
	est.ActualPrice = est.CalculatedPrice
	if existing != nil && existing.TotalAmount.IsPositive() {
		est.ActualPrice = existing.TotalAmount
		est.FromSavedQuote = true
	}

	est.Savings = Savings(est.MarketPrice, est.ActualPrice)
	return est
}

// Savings is how much cheaper the actual price is than the market price,
// floored at zero.
func Savings(market, actual decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, market.Sub(actual))
}
