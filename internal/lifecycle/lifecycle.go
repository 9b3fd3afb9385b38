// Package lifecycle validates order status transitions and tells which order
// fields may still change in a given status. It never touches storage.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/ibeloyar/laundry/internal/model"
)

var forward = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusPending:        model.OrderStatusConfirmed,
	model.OrderStatusConfirmed:      model.OrderStatusOnTheWay,
	model.OrderStatusOnTheWay:       model.OrderStatusPickedUp,
	model.OrderStatusPickedUp:       model.OrderStatusProcessing,
	model.OrderStatusProcessing:     model.OrderStatusOutForDelivery,
	model.OrderStatusOutForDelivery: model.OrderStatusDelivered,
}

// stage orders statuses along the forward chain; Cancelled has no stage.
var stage = map[model.OrderStatus]int{
	model.OrderStatusPending:        0,
	model.OrderStatusConfirmed:      1,
	model.OrderStatusOnTheWay:       2,
	model.OrderStatusPickedUp:       3,
	model.OrderStatusProcessing:     4,
	model.OrderStatusOutForDelivery: 5,
	model.OrderStatusDelivered:      6,
}

func Known(s model.OrderStatus) bool {
	_, ok := stage[s]
	return ok || s == model.OrderStatusCancelled
}

func IsTerminal(s model.OrderStatus) bool {
	return s == model.OrderStatusDelivered || s == model.OrderStatusCancelled
}

// Next returns the forward successor of s, if any.
func Next(s model.OrderStatus) (model.OrderStatus, bool) {
	next, ok := forward[s]
	return next, ok
}

func CanTransition(from, to model.OrderStatus) bool {
	if IsTerminal(from) || !Known(from) {
		return false
	}
	if to == model.OrderStatusCancelled {
		return true
	}

	next, ok := forward[from]
	return ok && next == to
}

// Transition returns a copy of order moved to target with the change appended
// to its history. The input order is left untouched.
func Transition(order model.Order, target model.OrderStatus, at time.Time) (model.Order, error) {
	if !CanTransition(order.Status, target) {
		return order, transitionError(order.Status, target)
	}

	history := make([]model.StatusEvent, len(order.History), len(order.History)+1)
	copy(history, order.History)

	order.History = append(history, model.StatusEvent{
		From: order.Status,
		To:   target,
		At:   at.UTC(),
	})
	order.Status = target

	return order, nil
}

func transitionError(from, to model.OrderStatus) error {
	next, ok := Next(from)
	switch {
	case !Known(from):
		return fmt.Errorf("%w: unknown status %s", model.ErrInvalidTransition, from)
	case !ok:
		return fmt.Errorf("%w: %s -> %s, %s is final", model.ErrInvalidTransition, from, to, from)
	}

	return fmt.Errorf("%w: %s -> %s, expected %s or %s",
		model.ErrInvalidTransition, from, to, next, model.OrderStatusCancelled)
}

// WeightMutable reports whether weight and machine allocation may change.
func WeightMutable(s model.OrderStatus) bool {
	return s == model.OrderStatusPending
}

func OptionsMutable(s model.OrderStatus) bool {
	return s == model.OrderStatusPending || s == model.OrderStatusConfirmed
}

// PriceMutable is false once the site has begun physical handling.
func PriceMutable(s model.OrderStatus) bool {
	st, ok := stage[s]
	return ok && st < stage[model.OrderStatusProcessing]
}

// CheckChanges rejects changes to fields locked in the order's current status.
func CheckChanges(status model.OrderStatus, changes model.OrderChanges) error {
	if changes.WeightKg != nil && !WeightMutable(status) {
		return fmt.Errorf("%w: weight cannot change in status %s", model.ErrFieldLocked, status)
	}

	optionsChanged := changes.Options != nil || changes.Formula != nil || changes.SurplusFormula != nil
	if optionsChanged && !OptionsMutable(status) {
		return fmt.Errorf("%w: options cannot change in status %s", model.ErrFieldLocked, status)
	}

	if !PriceMutable(status) {
		return fmt.Errorf("%w: price cannot change in status %s", model.ErrFieldLocked, status)
	}

	return nil
}
