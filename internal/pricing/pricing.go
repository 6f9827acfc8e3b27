// Package pricing resolves the active price tier for an event and computes
// order totals. Ticket tiers advance with cumulative sales volume; child
// tickets and bar credits are flat-priced regardless of tier.
package pricing

import (
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
	"github.com/shopspring/decimal"
)

var (
	// ChildPrice is fixed at $10 across all tiers.
	ChildPrice = decimal.NewFromInt(10)

	// BarCreditPrice is the flat per-unit bar ticket add-on.
	BarCreditPrice = decimal.NewFromInt(5)

	// TaxRate is the Ontario HST rate.
	TaxRate = decimal.NewFromFloat(0.13)
)

type Tier struct {
	Number      int
	AdultPrice  decimal.Decimal
	ChildPrice  decimal.Decimal
	FamilyPrice decimal.Decimal
}

type Quantities struct {
	Adult      int
	Child      int
	Family     int
	BarCredits int
}

func (q Quantities) TicketCount() int {
	return q.Adult + q.Child + q.Family
}

// Quote carries exact decimal amounts; round to cents only when formatting
// output, never between steps.
type Quote struct {
	Tier     Tier
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Resolve derives the active tier from the event's cumulative tickets_sold
// counter: a linear scan over the thresholds, first match wins. Thresholds
// are assumed monotonic.
func Resolve(event railway.Event) Tier {
	sold := event.TicketsSold
	switch {
	case sold < event.Tier1Quantity:
		return Tier{
			Number:      1,
			AdultPrice:  decimal.NewFromFloat(event.Tier1AdultPrice),
			ChildPrice:  ChildPrice,
			FamilyPrice: decimal.NewFromFloat(event.Tier1FamilyPrice),
		}
	case sold < event.Tier2Quantity:
		return Tier{
			Number:      2,
			AdultPrice:  decimal.NewFromFloat(event.Tier2AdultPrice),
			ChildPrice:  ChildPrice,
			FamilyPrice: decimal.NewFromFloat(event.Tier2FamilyPrice),
		}
	default:
		return Tier{
			Number:      3,
			AdultPrice:  decimal.NewFromFloat(event.Tier3AdultPrice),
			ChildPrice:  ChildPrice,
			FamilyPrice: decimal.NewFromFloat(event.Tier3FamilyPrice),
		}
	}
}

// QuoteOrder computes subtotal, tax and total for the requested quantities
// at the given tier.
func QuoteOrder(tier Tier, q Quantities) Quote {
	subtotal := tier.AdultPrice.Mul(decimal.NewFromInt(int64(q.Adult))).
		Add(tier.ChildPrice.Mul(decimal.NewFromInt(int64(q.Child)))).
		Add(tier.FamilyPrice.Mul(decimal.NewFromInt(int64(q.Family)))).
		Add(BarCreditPrice.Mul(decimal.NewFromInt(int64(q.BarCredits))))

	tax := subtotal.Mul(TaxRate)

	return Quote{
		Tier:     tier,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
