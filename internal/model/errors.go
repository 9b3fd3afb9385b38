package model

import "errors"

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

const (
	ErrInternalServerMessage = "internal server error"
	ErrOrderNotFoundMessage  = "order not found"
	ErrClientNotFoundMessage = "client not found"
	ErrQuotaBusyMessage      = "client quota is being updated concurrently, try again"
	ErrOrderBusyMessage      = "order was modified concurrently, reload and try again"
)

var (
	ErrInvalidWeight     = errors.New("invalid weight")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrQuotaConflict     = errors.New("quota increment conflict")

	ErrOrderNotFound  = errors.New("order not found")
	ErrClientNotFound = errors.New("client not found")
	ErrOrderConflict  = errors.New("order version conflict")
	ErrFieldLocked    = errors.New("field is locked in current status")
)
