package pricing

import (
	"fmt"

	"github.com/ibeloyar/laundry/internal/model"
	"github.com/shopspring/decimal"
)

var (
	largeCapacityKg = decimal.NewFromInt(20)
	smallCapacityKg = decimal.NewFromInt(6)

	// A partial small load above this weight is worth one more machine.
	partialLoadThresholdKg = decimal.New(15, -1)
)

// Allocate maps a washable weight to 20kg and 6kg machine loads, picking the
// cheaper of one extra large load and small loads for the remainder.
func (e *Engine) Allocate(weightKg decimal.Decimal) (model.MachineAllocation, error) {
	if !weightKg.IsPositive() {
		return model.MachineAllocation{}, fmt.Errorf("%w: weight must be positive, got %s kg", model.ErrInvalidWeight, weightKg)
	}
	if !weightKg.LessThan(MaxOrderWeightKg) {
		return model.MachineAllocation{}, fmt.Errorf("%w: %s kg must be below %s kg", model.ErrInvalidWeight, weightKg, MaxOrderWeightKg)
	}

	n, r := weightKg.QuoRem(largeCapacityKg, 0)
	large := int(n.IntPart())

	allocation := model.MachineAllocation{Large: large, WeightKg: weightKg}
	if r.IsZero() {
		return allocation, nil
	}

	smallCost := e.rates.UnitPriceSmall.Mul(r).Div(smallCapacityKg)
	if smallCost.GreaterThan(e.rates.UnitPriceLarge) {
		allocation.Large = large + 1
		return allocation, nil
	}

	whole, partial := r.QuoRem(smallCapacityKg, 0)
	allocation.Small = int(whole.IntPart())
	if partial.GreaterThan(partialLoadThresholdKg) {
		allocation.Small++
	}

	return allocation, nil
}

func (e *Engine) allocationCost(a model.MachineAllocation) decimal.Decimal {
	return e.rates.UnitPriceLarge.Mul(decimal.NewFromInt(int64(a.Large))).
		Add(e.rates.UnitPriceSmall.Mul(decimal.NewFromInt(int64(a.Small))))
}
