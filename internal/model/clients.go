package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PlanKind string

const (
	PlanNone     PlanKind = "NONE"
	PlanStandard PlanKind = "STANDARD"
	PlanPremium  PlanKind = "PREMIUM"
)

type BillingPeriod struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func PeriodOf(t time.Time) BillingPeriod {
	t = t.UTC()
	return BillingPeriod{Year: t.Year(), Month: t.Month()}
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ClientSubscription is a read-only snapshot of the billing counter for one period.
type ClientSubscription struct {
	ClientID       string
	Plan           PlanKind
	QuotaCeilingKg decimal.Decimal // zero means the configured default
	Period         BillingPeriod
	WashedKg       decimal.Decimal
}

func (s ClientSubscription) IsPremium() bool {
	return s.Plan == PlanPremium
}

// QuotaIncrement is applied by storage as a conditional update: it succeeds
// only if the counter still equals ExpectedWashedKg.
type QuotaIncrement struct {
	ClientID         string
	Period           BillingPeriod
	ExpectedWashedKg decimal.Decimal
	DeltaKg          decimal.Decimal
}
