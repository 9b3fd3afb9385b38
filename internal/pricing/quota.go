package pricing

import (
	"github.com/ibeloyar/laundry/internal/model"
	"github.com/shopspring/decimal"
)

type Surplus struct {
	BillableWeightKg decimal.Decimal
	QuotaConsumedKg  decimal.Decimal
	QuotaRemainingKg decimal.Decimal
	// ForcedDetailed is set when the surplus is below one small load and has
	// to be billed per kilogram.
	ForcedDetailed bool
}

// ComputeSurplus splits an order weight into the part covered by the Premium
// quota and the billable rest. The subscription counter is only read; the
// caller applies QuotaConsumedKg through storage.
func (e *Engine) ComputeSurplus(sub model.ClientSubscription, orderWeightKg decimal.Decimal) Surplus {
	if !sub.IsPremium() {
		return Surplus{
			BillableWeightKg: orderWeightKg,
			QuotaConsumedKg:  decimal.Zero,
			QuotaRemainingKg: decimal.Zero,
		}
	}

	ceiling := sub.QuotaCeilingKg
	if !ceiling.IsPositive() {
		ceiling = e.rates.MonthlyQuotaCeiling
	}

	remaining := decimal.Max(decimal.Zero, ceiling.Sub(sub.WashedKg))
	billable := decimal.Max(decimal.Zero, orderWeightKg.Sub(remaining))

	return Surplus{
		BillableWeightKg: billable,
		QuotaConsumedKg:  orderWeightKg.Sub(billable),
		QuotaRemainingKg: remaining,
		ForcedDetailed:   billable.IsPositive() && billable.LessThan(smallCapacityKg),
	}
}
