package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodOf(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	// 01:30 local on March 1st is still February in UTC
	p := PeriodOf(time.Date(2025, time.March, 1, 1, 30, 0, 0, loc))

	assert.Equal(t, BillingPeriod{Year: 2025, Month: time.February}, p)
	assert.Equal(t, "2025-02", p.String())
}

func TestClientSubscription_IsPremium(t *testing.T) {
	assert.True(t, ClientSubscription{Plan: PlanPremium}.IsPremium())
	assert.False(t, ClientSubscription{Plan: PlanStandard}.IsPremium())
	assert.False(t, ClientSubscription{}.IsPremium())
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &APIError{Code: 409, Message: "busy", Err: fmt.Errorf("%w: order 1", ErrOrderConflict)}

	assert.Equal(t, "busy", err.Error())
	assert.True(t, errors.Is(err, ErrOrderConflict))
	assert.False(t, errors.Is(err, ErrQuotaConflict))
}
