package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ibeloyar/laundry/internal/lifecycle"
	"github.com/ibeloyar/laundry/internal/model"
	"github.com/ibeloyar/laundry/internal/pricing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../repository/pg/mocks/mock_storage.go -package=mocks . StorageRepo

type StorageRepo interface {
	GetSubscription(ctx context.Context, clientID string, period model.BillingPeriod) (model.ClientSubscription, error)
	CreateOrder(ctx context.Context, order model.Order, inc *model.QuotaIncrement) error
	UpdateOrder(ctx context.Context, order model.Order, expectedVersion int64, inc *model.QuotaIncrement) error
	UpdateOrderStatus(ctx context.Context, order model.Order, expectedVersion int64) error
	GetOrder(ctx context.Context, id string) (model.Order, error)
	GetOrdersByClientID(ctx context.Context, clientID string) ([]model.Order, error)
}

type Pricer interface {
	Allocate(weightKg decimal.Decimal) (model.MachineAllocation, error)
	Price(draft model.OrderDraft, sub model.ClientSubscription) (model.PriceBreakdown, error)
}

type Service struct {
	storage StorageRepo
	pricer  Pricer
	lg      *zap.SugaredLogger
	tracer  trace.Tracer

	quotaRetryAttempts int

	now   func() time.Time
	newID func() string
}

func New(s StorageRepo, p Pricer, lg *zap.SugaredLogger, quotaRetryAttempts int) *Service {
	if quotaRetryAttempts < 1 {
		quotaRetryAttempts = 1
	}

	return &Service{
		storage: s,
		pricer:  p,
		lg:      lg,
		tracer:  otel.Tracer("github.com/ibeloyar/laundry/internal/service"),

		quotaRetryAttempts: quotaRetryAttempts,

		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (s *Service) Quote(ctx context.Context, draft model.OrderDraft) (*model.PriceBreakdown, *model.APIError) {
	ctx, span := s.tracer.Start(ctx, "Service.Quote")
	defer span.End()

	if err := pricing.ValidateDraft(draft); err != nil {
		return nil, s.fail(span, err)
	}

	sub, err := s.subscriptionFor(ctx, draft.ClientID, model.PeriodOf(s.now()))
	if err != nil {
		return nil, s.fail(span, err)
	}

	price, err := s.pricer.Price(draft, sub)
	if err != nil {
		return nil, s.fail(span, err)
	}

	return &price, nil
}

func (s *Service) CreateOrder(ctx context.Context, draft model.OrderDraft) (*model.Order, *model.APIError) {
	ctx, span := s.tracer.Start(ctx, "Service.CreateOrder")
	defer span.End()

	if err := pricing.ValidateDraft(draft); err != nil {
		return nil, s.fail(span, err)
	}

	allocation, err := s.pricer.Allocate(draft.WeightKg)
	if err != nil {
		return nil, s.fail(span, err)
	}

	now := s.now()
	order := model.Order{
		ID:             s.newID(),
		ClientID:       draft.ClientID,
		WeightKg:       draft.WeightKg,
		Formula:        draft.Formula,
		SurplusFormula: draft.SurplusFormula,
		Options:        draft.Options,
		IsStudent:      draft.IsStudent,
		Allocation:     allocation,
		Period:         model.PeriodOf(now),
		Status:         model.OrderStatusPending,
		Version:        1,
		CreatedAt:      now,
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	for attempt := 1; ; attempt++ {
		sub, err := s.subscriptionFor(ctx, draft.ClientID, order.Period)
		if err != nil {
			return nil, s.fail(span, err)
		}

		price, err := s.pricer.Price(draft, sub)
		if err != nil {
			return nil, s.fail(span, err)
		}
		order.Price = price

		err = s.storage.CreateOrder(ctx, order, quotaIncrement(sub, price.QuotaConsumedKg))
		if err == nil {
			return &order, nil
		}

		if errors.Is(err, model.ErrQuotaConflict) && attempt < s.quotaRetryAttempts {
			s.lg.Warnf("create order %s: quota of client %s changed concurrently, attempt %d", order.ID, sub.ClientID, attempt)
			continue
		}

		return nil, s.fail(span, err)
	}
}

func (s *Service) ModifyOrder(ctx context.Context, id string, changes model.OrderChanges) (*model.Order, *model.APIError) {
	ctx, span := s.tracer.Start(ctx, "Service.ModifyOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.storage.GetOrder(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	if changes.ExpectedVersion != nil && *changes.ExpectedVersion != order.Version {
		return nil, s.fail(span, model.ErrOrderConflict)
	}

	if err := lifecycle.CheckChanges(order.Status, changes); err != nil {
		return nil, s.fail(span, err)
	}

	draft := applyChanges(order.Draft(), changes)
	if err := pricing.ValidateDraft(draft); err != nil {
		return nil, s.fail(span, err)
	}

	allocation, err := s.pricer.Allocate(draft.WeightKg)
	if err != nil {
		return nil, s.fail(span, err)
	}

	own := order.Price.QuotaConsumedKg

	for attempt := 1; ; attempt++ {
		sub, err := s.subscriptionFor(ctx, order.ClientID, order.Period)
		if err != nil {
			return nil, s.fail(span, err)
		}

		// the counter already holds what this order consumed before the change
		others := sub
		others.WashedKg = decimal.Max(decimal.Zero, sub.WashedKg.Sub(own))

		price, err := s.pricer.Price(draft, others)
		if err != nil {
			return nil, s.fail(span, err)
		}

		updated := order
		updated.WeightKg = draft.WeightKg
		updated.Formula = draft.Formula
		updated.SurplusFormula = draft.SurplusFormula
		updated.Options = draft.Options
		updated.IsStudent = draft.IsStudent
		updated.Allocation = allocation
		updated.Price = price
		updated.Version = order.Version + 1

		var inc *model.QuotaIncrement
		if delta := price.QuotaConsumedKg.Sub(own); order.ClientID != nil && !delta.IsZero() {
			inc = &model.QuotaIncrement{
				ClientID:         *order.ClientID,
				Period:           order.Period,
				ExpectedWashedKg: sub.WashedKg,
				DeltaKg:          delta,
			}
		}

		err = s.storage.UpdateOrder(ctx, updated, order.Version, inc)
		if err == nil {
			return &updated, nil
		}

		if errors.Is(err, model.ErrQuotaConflict) && attempt < s.quotaRetryAttempts {
			s.lg.Warnf("modify order %s: quota changed concurrently, attempt %d", order.ID, attempt)
			continue
		}

		return nil, s.fail(span, err)
	}
}

func (s *Service) TransitionOrder(ctx context.Context, id string, input model.TransitionDTO) (*model.Order, *model.APIError) {
	ctx, span := s.tracer.Start(ctx, "Service.TransitionOrder", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.target_status", string(input.Status)),
	))
	defer span.End()

	order, err := s.storage.GetOrder(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	if input.ExpectedVersion != nil && *input.ExpectedVersion != order.Version {
		return nil, s.fail(span, model.ErrOrderConflict)
	}

	updated, err := lifecycle.Transition(order, input.Status, s.now())
	if err != nil {
		return nil, s.fail(span, err)
	}
	updated.Version = order.Version + 1

	if err := s.storage.UpdateOrderStatus(ctx, updated, order.Version); err != nil {
		return nil, s.fail(span, err)
	}

	return &updated, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*model.Order, *model.APIError) {
	order, err := s.storage.GetOrder(ctx, id)
	if err != nil {
		return nil, s.apiError(err)
	}

	return &order, nil
}

func (s *Service) GetClientOrders(ctx context.Context, clientID string) ([]model.Order, *model.APIError) {
	orders, err := s.storage.GetOrdersByClientID(ctx, clientID)
	if err != nil {
		return nil, s.apiError(err)
	}

	if len(orders) == 0 {
		return nil, &model.APIError{
			Code:    http.StatusNoContent,
			Message: "no orders found",
		}
	}

	return orders, nil
}

func (s *Service) subscriptionFor(ctx context.Context, clientID *string, period model.BillingPeriod) (model.ClientSubscription, error) {
	if clientID == nil {
		return model.ClientSubscription{Plan: model.PlanNone, Period: period}, nil
	}

	return s.storage.GetSubscription(ctx, *clientID, period)
}

func quotaIncrement(sub model.ClientSubscription, consumed decimal.Decimal) *model.QuotaIncrement {
	if !sub.IsPremium() || !consumed.IsPositive() {
		return nil
	}

	return &model.QuotaIncrement{
		ClientID:         sub.ClientID,
		Period:           sub.Period,
		ExpectedWashedKg: sub.WashedKg,
		DeltaKg:          consumed,
	}
}

func applyChanges(draft model.OrderDraft, changes model.OrderChanges) model.OrderDraft {
	if changes.WeightKg != nil {
		draft.WeightKg = *changes.WeightKg
	}
	if changes.Formula != nil {
		draft.Formula = *changes.Formula
	}
	if changes.SurplusFormula != nil {
		draft.SurplusFormula = changes.SurplusFormula
	}
	if changes.Options != nil {
		draft.Options = *changes.Options
	}
	if changes.IsStudent != nil {
		draft.IsStudent = *changes.IsStudent
	}

	return draft
}

func (s *Service) fail(span trace.Span, err error) *model.APIError {
	apiErr := s.apiError(err)
	span.SetStatus(codes.Error, apiErr.Message)

	return apiErr
}

func (s *Service) apiError(err error) *model.APIError {
	switch {
	case errors.Is(err, model.ErrInvalidWeight), errors.Is(err, model.ErrInvalidOrder):
		return &model.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error(), Err: err}
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, model.ErrFieldLocked):
		return &model.APIError{Code: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, model.ErrOrderConflict):
		return &model.APIError{Code: http.StatusConflict, Message: model.ErrOrderBusyMessage, Err: err}
	case errors.Is(err, model.ErrQuotaConflict):
		return &model.APIError{Code: http.StatusConflict, Message: model.ErrQuotaBusyMessage, Err: err}
	case errors.Is(err, model.ErrOrderNotFound):
		return &model.APIError{Code: http.StatusNotFound, Message: model.ErrOrderNotFoundMessage, Err: err}
	case errors.Is(err, model.ErrClientNotFound):
		return &model.APIError{Code: http.StatusNotFound, Message: model.ErrClientNotFoundMessage, Err: err}
	}

	s.lg.Errorf("storage error: %v", err)

	return &model.APIError{
		Code:    http.StatusInternalServerError,
		Message: model.ErrInternalServerMessage,
		Err:     err,
	}
}
