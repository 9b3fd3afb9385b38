package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Formula string

const (
	FormulaBasic    Formula = "BASIC"
	FormulaDetailed Formula = "DETAILED"
)

func (f Formula) Valid() bool {
	return f == FormulaBasic || f == FormulaDetailed
}

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusOnTheWay       OrderStatus = "ON_THE_WAY"
	OrderStatusPickedUp       OrderStatus = "PICKED_UP"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

type Options struct {
	Delivery bool `json:"delivery"`
	Drying   bool `json:"drying"`
	Ironing  bool `json:"ironing"`
	Express  bool `json:"express"`
}

// OrderDraft is the raw input priced at creation.
type OrderDraft struct {
	ClientID       *string         `json:"client_id,omitempty"`
	WeightKg       decimal.Decimal `json:"weight_kg"`
	Formula        Formula         `json:"formula"`
	Options        Options         `json:"options"`
	IsStudent      bool            `json:"is_student"`
	SurplusFormula *Formula        `json:"surplus_formula,omitempty"`
}

type MachineAllocation struct {
	Large    int             `json:"count_20kg"`
	Small    int             `json:"count_6kg"`
	WeightKg decimal.Decimal `json:"weight_kg"`
}

type Surcharges struct {
	Delivery int64 `json:"delivery"`
	Drying   int64 `json:"drying"`
	Ironing  int64 `json:"ironing"`
	Express  int64 `json:"express"`
}

// PriceBreakdown is computed once and replaced on recomputation, never patched.
type PriceBreakdown struct {
	Formula          Formula            `json:"formula"`
	BillableWeightKg decimal.Decimal    `json:"billable_weight_kg"`
	QuotaConsumedKg  decimal.Decimal    `json:"quota_consumed_kg"`
	Allocation       *MachineAllocation `json:"allocation,omitempty"`
	Base             int64              `json:"base"`
	Surcharges       Surcharges         `json:"surcharges"`
	Discount         int64              `json:"discount"`
	Subtotal         int64              `json:"subtotal"`
	Total            int64              `json:"total"`
	IsPremiumFree    bool               `json:"is_premium_free"`
}

type StatusEvent struct {
	From OrderStatus `json:"from"`
	To   OrderStatus `json:"to"`
	At   time.Time   `json:"at"`
}

type Order struct {
	ID             string            `json:"id"`
	ClientID       *string           `json:"client_id,omitempty"`
	WeightKg       decimal.Decimal   `json:"weight_kg"`
	Formula        Formula           `json:"formula"`
	SurplusFormula *Formula          `json:"surplus_formula,omitempty"`
	Options        Options           `json:"options"`
	IsStudent      bool              `json:"is_student"`
	Price          PriceBreakdown    `json:"price"`
	Allocation     MachineAllocation `json:"allocation"`
	Period         BillingPeriod     `json:"period"`
	Status         OrderStatus       `json:"status"`
	History        []StatusEvent     `json:"history,omitempty"`
	Version        int64             `json:"version"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Draft rebuilds the pricing input of a stored order.
func (o Order) Draft() OrderDraft {
	return OrderDraft{
		ClientID:       o.ClientID,
		WeightKg:       o.WeightKg,
		Formula:        o.Formula,
		Options:        o.Options,
		IsStudent:      o.IsStudent,
		SurplusFormula: o.SurplusFormula,
	}
}

// OrderChanges lists the fields a caller wants to modify; nil means unchanged.
type OrderChanges struct {
	WeightKg        *decimal.Decimal `json:"weight_kg,omitempty"`
	Formula         *Formula         `json:"formula,omitempty"`
	SurplusFormula  *Formula         `json:"surplus_formula,omitempty"`
	Options         *Options         `json:"options,omitempty"`
	IsStudent       *bool            `json:"is_student,omitempty"`
	ExpectedVersion *int64           `json:"expected_version,omitempty"`
}

type TransitionDTO struct {
	Status          OrderStatus `json:"status"`
	ExpectedVersion *int64      `json:"expected_version,omitempty"`
}

// Charge is what the external billing system receives for a delivered order.
type Charge struct {
	OrderID          string          `json:"order_id"`
	ClientID         *string         `json:"client_id,omitempty"`
	Period           BillingPeriod   `json:"period"`
	BillableWeightKg decimal.Decimal `json:"billable_weight_kg"`
	QuotaConsumedKg  decimal.Decimal `json:"quota_consumed_kg"`
	Total            int64           `json:"total"`
}
