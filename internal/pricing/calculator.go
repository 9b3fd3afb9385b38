package pricing

import (
	"fmt"

	"github.com/ibeloyar/laundry/internal/model"
	"github.com/shopspring/decimal"
)

var (
	MinOrderWeightKg = decimal.NewFromInt(6)

	// Weights are stored as NUMERIC(10, 3).
	MaxOrderWeightKg       = decimal.NewFromInt(10_000_000)
	weightPrecision  int32 = 3
)

// Price computes the itemized breakdown of an order draft for the given
// subscription snapshot.
func (e *Engine) Price(draft model.OrderDraft, sub model.ClientSubscription) (model.PriceBreakdown, error) {
	if err := ValidateDraft(draft); err != nil {
		return model.PriceBreakdown{}, err
	}

	surplus := e.ComputeSurplus(sub, draft.WeightKg)
	billable := surplus.BillableWeightKg

	var roundErr error
	round := func(d decimal.Decimal) int64 {
		v, err := roundAmount(d)
		if err != nil && roundErr == nil {
			roundErr = err
		}
		return v
	}

	breakdown := model.PriceBreakdown{
		Formula:          surplusFormula(draft, sub, surplus),
		BillableWeightKg: billable,
		QuotaConsumedKg:  surplus.QuotaConsumedKg,
		IsPremiumFree:    sub.IsPremium() && billable.IsZero(),
	}

	if billable.IsPositive() {
		switch breakdown.Formula {
		case model.FormulaBasic:
			allocation, err := e.Allocate(billable)
			if err != nil {
				return model.PriceBreakdown{}, err
			}
			breakdown.Allocation = &allocation
			breakdown.Base = round(e.allocationCost(allocation))
		case model.FormulaDetailed:
			breakdown.Base = round(billable.Mul(e.rates.PerKgDetailedRate))
		}

		if draft.Options.Drying {
			breakdown.Surcharges.Drying = round(billable.Mul(e.rates.DryingRatePerKg))
		}
		if draft.Options.Ironing {
			breakdown.Surcharges.Ironing = round(billable.Mul(e.rates.IroningRatePerKg))
		}
	}

	if draft.Options.Delivery {
		breakdown.Surcharges.Delivery = round(e.rates.DeliverySurcharge)
	}
	if draft.Options.Express {
		breakdown.Surcharges.Express = round(e.rates.ExpressSurcharge)
	}

	breakdown.Subtotal = breakdown.Base +
		breakdown.Surcharges.Delivery +
		breakdown.Surcharges.Drying +
		breakdown.Surcharges.Ironing

	if draft.IsStudent && breakdown.Subtotal > 0 {
		breakdown.Discount = round(decimal.NewFromInt(breakdown.Subtotal).Mul(e.rates.StudentDiscountRate))
	}

	breakdown.Total = breakdown.Subtotal - breakdown.Discount + breakdown.Surcharges.Express

	if roundErr != nil {
		return model.PriceBreakdown{}, fmt.Errorf("%w: %w", model.ErrInvalidOrder, roundErr)
	}

	return breakdown, nil
}

// ValidateDraft checks weight, formula and option dependencies.
func ValidateDraft(draft model.OrderDraft) error {
	if !draft.Formula.Valid() {
		return fmt.Errorf("%w: unknown formula %q", model.ErrInvalidOrder, draft.Formula)
	}
	if draft.SurplusFormula != nil && !draft.SurplusFormula.Valid() {
		return fmt.Errorf("%w: unknown surplus formula %q", model.ErrInvalidOrder, *draft.SurplusFormula)
	}
	if draft.WeightKg.LessThan(MinOrderWeightKg) {
		return fmt.Errorf("%w: %w: %s kg is below the %s kg minimum",
			model.ErrInvalidOrder, model.ErrInvalidWeight, draft.WeightKg, MinOrderWeightKg)
	}
	if !draft.WeightKg.LessThan(MaxOrderWeightKg) {
		return fmt.Errorf("%w: %w: %s kg must be below %s kg",
			model.ErrInvalidOrder, model.ErrInvalidWeight, draft.WeightKg, MaxOrderWeightKg)
	}
	if !draft.WeightKg.Equal(draft.WeightKg.Truncate(weightPrecision)) {
		return fmt.Errorf("%w: %w: %s kg has more than %d decimal places",
			model.ErrInvalidOrder, model.ErrInvalidWeight, draft.WeightKg, weightPrecision)
	}

	opts := draft.Options
	if opts.Ironing && !opts.Drying {
		return fmt.Errorf("%w: ironing requires drying", model.ErrInvalidOrder)
	}

	switch draft.Formula {
	case model.FormulaBasic:
		if opts.Drying && !opts.Delivery {
			return fmt.Errorf("%w: drying requires delivery", model.ErrInvalidOrder)
		}
	case model.FormulaDetailed:
		if opts.Delivery || opts.Drying || opts.Ironing {
			return fmt.Errorf("%w: formula %s allows express only", model.ErrInvalidOrder, draft.Formula)
		}
	}

	return nil
}

func surplusFormula(draft model.OrderDraft, sub model.ClientSubscription, surplus Surplus) model.Formula {
	if !sub.IsPremium() {
		return draft.Formula
	}
	if surplus.ForcedDetailed {
		return model.FormulaDetailed
	}
	if draft.SurplusFormula != nil {
		return *draft.SurplusFormula
	}

	return draft.Formula
}
