package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Rates is the injected tariff table. All amounts are in the local currency unit.
type Rates struct {
	UnitPriceLarge      decimal.Decimal
	UnitPriceSmall      decimal.Decimal
	PerKgDetailedRate   decimal.Decimal
	DryingRatePerKg     decimal.Decimal
	IroningRatePerKg    decimal.Decimal
	ExpressSurcharge    decimal.Decimal
	DeliverySurcharge   decimal.Decimal
	MonthlyQuotaCeiling decimal.Decimal
	StudentDiscountRate decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		UnitPriceLarge:      decimal.NewFromInt(2500),
		UnitPriceSmall:      decimal.NewFromInt(1000),
		PerKgDetailedRate:   decimal.NewFromInt(150),
		DryingRatePerKg:     decimal.NewFromInt(50),
		IroningRatePerKg:    decimal.NewFromInt(100),
		ExpressSurcharge:    decimal.NewFromInt(1000),
		DeliverySurcharge:   decimal.NewFromInt(500),
		MonthlyQuotaCeiling: decimal.NewFromInt(40),
		StudentDiscountRate: decimal.New(10, -2),
	}
}

func (r Rates) Validate() error {
	var errs []error

	if !r.UnitPriceLarge.IsPositive() {
		errs = append(errs, errors.New("unit price large must be positive"))
	}
	if !r.UnitPriceSmall.IsPositive() {
		errs = append(errs, errors.New("unit price small must be positive"))
	}

	nonNegative := []struct {
		name  string
		value decimal.Decimal
	}{
		{"per kg detailed rate", r.PerKgDetailedRate},
		{"drying rate per kg", r.DryingRatePerKg},
		{"ironing rate per kg", r.IroningRatePerKg},
		{"express surcharge", r.ExpressSurcharge},
		{"delivery surcharge", r.DeliverySurcharge},
		{"monthly quota ceiling", r.MonthlyQuotaCeiling},
	}
	for _, rate := range nonNegative {
		if rate.value.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative", rate.name))
		}
	}

	if r.StudentDiscountRate.IsNegative() || r.StudentDiscountRate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, errors.New("student discount rate must be within [0, 1]"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid rates: %w", errors.Join(errs...))
	}

	return nil
}

var (
	minAmount = decimal.NewFromInt(math.MinInt64)
	maxAmount = decimal.NewFromInt(math.MaxInt64)
)

// roundAmount finalizes a line item. Intermediate values stay unrounded.
func roundAmount(d decimal.Decimal) (int64, error) {
	rounded := d.Round(0)
	if rounded.LessThan(minAmount) || rounded.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("amount %s is out of range", rounded)
	}

	return rounded.IntPart(), nil
}
