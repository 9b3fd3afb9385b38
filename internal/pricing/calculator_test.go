package pricing

import (
	"testing"

	"github.com/ibeloyar/laundry/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noSubscription = model.ClientSubscription{Plan: model.PlanNone}

func basicDraft(weight string, opts model.Options) model.OrderDraft {
	return model.OrderDraft{WeightKg: kg(weight), Formula: model.FormulaBasic, Options: opts}
}

func formulaPtr(f model.Formula) *model.Formula {
	return &f
}

func TestEngine_Price_BasicSingleLoad(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Price(basicDraft("20", model.Options{}), noSubscription)
	require.NoError(t, err)

	assert.Equal(t, engine.rates.UnitPriceLarge.IntPart(), got.Base)
	assert.Equal(t, got.Base, got.Subtotal)
	assert.Equal(t, got.Base, got.Total)
	assert.Equal(t, model.Surcharges{}, got.Surcharges)
	require.NotNil(t, got.Allocation)
	assert.Equal(t, 1, got.Allocation.Large)
	assert.Equal(t, 0, got.Allocation.Small)
	assert.False(t, got.IsPremiumFree)
}

func TestEngine_Price_BasicAllOptions(t *testing.T) {
	engine := newTestEngine(t)
	opts := model.Options{Delivery: true, Drying: true, Ironing: true, Express: true}

	got, err := engine.Price(basicDraft("25", opts), noSubscription)
	require.NoError(t, err)

	assert.Equal(t, int64(3500), got.Base)
	assert.Equal(t, model.Surcharges{Delivery: 500, Drying: 1250, Ironing: 2500, Express: 1000}, got.Surcharges)
	assert.Equal(t, int64(7750), got.Subtotal)
	assert.Equal(t, int64(0), got.Discount)
	assert.Equal(t, int64(8750), got.Total)
}

func TestEngine_Price_StudentDiscountExcludesExpress(t *testing.T) {
	engine := newTestEngine(t)
	draft := basicDraft("25", model.Options{Delivery: true, Drying: true, Ironing: true, Express: true})
	draft.IsStudent = true

	got, err := engine.Price(draft, noSubscription)
	require.NoError(t, err)

	assert.Equal(t, int64(775), got.Discount)
	assert.Equal(t, int64(7750-775+1000), got.Total)
}

func TestEngine_Price_Detailed(t *testing.T) {
	engine := newTestEngine(t)
	draft := model.OrderDraft{
		WeightKg:  kg("10"),
		Formula:   model.FormulaDetailed,
		Options:   model.Options{Express: true},
		IsStudent: true,
	}

	got, err := engine.Price(draft, noSubscription)
	require.NoError(t, err)

	assert.Equal(t, model.FormulaDetailed, got.Formula)
	assert.Nil(t, got.Allocation)
	assert.Equal(t, int64(1500), got.Base)
	assert.Equal(t, int64(150), got.Discount)
	assert.Equal(t, int64(1500-150+1000), got.Total)
}

func TestEngine_Price_RoundsOncePerLineItem(t *testing.T) {
	rates := DefaultRates()
	rates.PerKgDetailedRate = decimal.NewFromInt(155)
	engine, err := NewEngine(rates)
	require.NoError(t, err)

	got, err := engine.Price(model.OrderDraft{WeightKg: kg("7.3"), Formula: model.FormulaDetailed}, noSubscription)
	require.NoError(t, err)

	// 7.3 * 155 = 1131.5
	assert.Equal(t, int64(1132), got.Base)
	assert.Equal(t, int64(1132), got.Total)
}

func TestEngine_Price_PremiumInsideQuota(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Price(basicDraft("20", model.Options{}), premium("10"))
	require.NoError(t, err)

	assert.True(t, got.IsPremiumFree)
	assert.Equal(t, int64(0), got.Total)
	assert.True(t, got.BillableWeightKg.IsZero())
	assert.True(t, got.QuotaConsumedKg.Equal(kg("20")))
	assert.Nil(t, got.Allocation)
}

func TestEngine_Price_PremiumInsideQuotaChargesAddOns(t *testing.T) {
	engine := newTestEngine(t)
	opts := model.Options{Delivery: true, Drying: true, Ironing: true, Express: true}

	got, err := engine.Price(basicDraft("20", opts), premium("0"))
	require.NoError(t, err)

	assert.True(t, got.IsPremiumFree)
	assert.Equal(t, model.Surcharges{Delivery: 500, Express: 1000}, got.Surcharges)
	assert.Equal(t, int64(1500), got.Total)
}

func TestEngine_Price_PremiumSmallSurplusForcesDetailed(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Price(basicDraft("25", model.Options{}), premium("20"))
	require.NoError(t, err)

	assert.Equal(t, model.FormulaDetailed, got.Formula)
	assert.True(t, got.BillableWeightKg.Equal(kg("5")))
	assert.Nil(t, got.Allocation)
	assert.Equal(t, int64(750), got.Base)
	assert.Equal(t, int64(750), got.Total)
	assert.False(t, got.IsPremiumFree)
}

func TestEngine_Price_PremiumSmallSurplusIgnoresOperatorChoice(t *testing.T) {
	engine := newTestEngine(t)
	draft := basicDraft("25", model.Options{})
	draft.SurplusFormula = formulaPtr(model.FormulaBasic)

	got, err := engine.Price(draft, premium("20"))
	require.NoError(t, err)

	assert.Equal(t, model.FormulaDetailed, got.Formula)
}

func TestEngine_Price_PremiumLargeSurplus(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Price(basicDraft("30", model.Options{}), premium("25"))
	require.NoError(t, err)

	assert.Equal(t, model.FormulaBasic, got.Formula)
	require.NotNil(t, got.Allocation)
	assert.Equal(t, 0, got.Allocation.Large)
	assert.Equal(t, 3, got.Allocation.Small)
	assert.Equal(t, int64(3000), got.Base)

	draft := basicDraft("30", model.Options{})
	draft.SurplusFormula = formulaPtr(model.FormulaDetailed)

	got, err = engine.Price(draft, premium("25"))
	require.NoError(t, err)

	assert.Equal(t, model.FormulaDetailed, got.Formula)
	assert.Equal(t, int64(2250), got.Base)
}

func TestEngine_Price_PremiumSurchargesOnBillableWeight(t *testing.T) {
	engine := newTestEngine(t)
	opts := model.Options{Delivery: true, Drying: true}

	got, err := engine.Price(basicDraft("30", opts), premium("25"))
	require.NoError(t, err)

	assert.Equal(t, int64(15*50), got.Surcharges.Drying)
}

func TestEngine_Price_SurplusFormulaIgnoredWithoutPremium(t *testing.T) {
	engine := newTestEngine(t)
	draft := basicDraft("20", model.Options{})
	draft.SurplusFormula = formulaPtr(model.FormulaDetailed)

	got, err := engine.Price(draft, model.ClientSubscription{Plan: model.PlanStandard})
	require.NoError(t, err)

	assert.Equal(t, model.FormulaBasic, got.Formula)
	assert.Equal(t, int64(2500), got.Total)
}

func TestEngine_Price_InvalidOrder(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name       string
		draft      model.OrderDraft
		wantWeight bool
	}{
		{name: "below minimum", draft: basicDraft("5.9", model.Options{}), wantWeight: true},
		{name: "zero weight", draft: basicDraft("0", model.Options{}), wantWeight: true},
		{name: "at maximum", draft: basicDraft("10000000", model.Options{}), wantWeight: true},
		{name: "far above maximum", draft: basicDraft("1e25", model.Options{}), wantWeight: true},
		{name: "detailed far above maximum", draft: model.OrderDraft{WeightKg: kg("1e25"), Formula: model.FormulaDetailed}, wantWeight: true},
		{name: "finer than grams", draft: basicDraft("6.0004", model.Options{}), wantWeight: true},
		{name: "ironing without drying", draft: basicDraft("10", model.Options{Delivery: true, Ironing: true})},
		{name: "drying without delivery", draft: basicDraft("10", model.Options{Drying: true})},
		{name: "detailed with delivery", draft: model.OrderDraft{WeightKg: kg("10"), Formula: model.FormulaDetailed, Options: model.Options{Delivery: true}}},
		{name: "detailed with drying", draft: model.OrderDraft{WeightKg: kg("10"), Formula: model.FormulaDetailed, Options: model.Options{Delivery: true, Drying: true}}},
		{name: "unknown formula", draft: model.OrderDraft{WeightKg: kg("10"), Formula: "WEEKLY"}},
		{name: "unknown surplus formula", draft: model.OrderDraft{WeightKg: kg("10"), Formula: model.FormulaBasic, SurplusFormula: formulaPtr("WEEKLY")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Price(tt.draft, noSubscription)

			require.ErrorIs(t, err, model.ErrInvalidOrder)
			if tt.wantWeight {
				assert.ErrorIs(t, err, model.ErrInvalidWeight)
			}
		})
	}
}

func TestEngine_Price_WeightBounds(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Price(basicDraft("9999999.999", model.Options{}), noSubscription)
	require.NoError(t, err)
	require.NotNil(t, got.Allocation)
	assert.Equal(t, 500000, got.Allocation.Large)
	assert.Equal(t, int64(1_250_000_000), got.Total)

	got, err = engine.Price(basicDraft("6.0000", model.Options{}), noSubscription)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Total)
}

func TestEngine_Price_AmountOverflow(t *testing.T) {
	rates := DefaultRates()
	rates.UnitPriceLarge = decimal.RequireFromString("1e30")

	engine, err := NewEngine(rates)
	require.NoError(t, err)

	_, err = engine.Price(basicDraft("20", model.Options{}), noSubscription)
	assert.ErrorIs(t, err, model.ErrInvalidOrder)
	assert.ErrorContains(t, err, "out of range")
}

func TestEngine_Price_Concurrent(t *testing.T) {
	engine := newTestEngine(t)
	draft := basicDraft("25", model.Options{Delivery: true, Drying: true})

	want, err := engine.Price(draft, noSubscription)
	require.NoError(t, err)

	results := make(chan model.PriceBreakdown, 32)
	for i := 0; i < cap(results); i++ {
		go func() {
			got, _ := engine.Price(draft, noSubscription)
			results <- got
		}()
	}

	for i := 0; i < cap(results); i++ {
		got := <-results
		assert.Equal(t, want.Total, got.Total)
	}
}
