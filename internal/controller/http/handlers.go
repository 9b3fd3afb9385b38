package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ibeloyar/laundry/internal/model"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../../service/mocks/mock_service.go -package=mocks . Service

type Service interface {
	Quote(ctx context.Context, draft model.OrderDraft) (*model.PriceBreakdown, *model.APIError)
	CreateOrder(ctx context.Context, draft model.OrderDraft) (*model.Order, *model.APIError)
	ModifyOrder(ctx context.Context, id string, changes model.OrderChanges) (*model.Order, *model.APIError)
	TransitionOrder(ctx context.Context, id string, input model.TransitionDTO) (*model.Order, *model.APIError)
	GetOrder(ctx context.Context, id string) (*model.Order, *model.APIError)
	GetClientOrders(ctx context.Context, clientID string) ([]model.Order, *model.APIError)
}

type Pinger interface {
	Ping() error
}

type Controller struct {
	service Service
	storage Pinger
	lg      *zap.SugaredLogger
}

func New(s Service, p Pinger, lg *zap.SugaredLogger) *Controller {
	return &Controller{
		service: s,
		storage: p,
		lg:      lg,
	}
}

func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	if err := c.storage.Ping(); err != nil {
		c.lg.Errorf("storage ping error: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (c *Controller) Quote(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.OrderDraft](r)
	if err != nil {
		c.lg.Errorf("failed to parse request body: %v", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	price, apiErr := c.service.Quote(r.Context(), body)
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, price, http.StatusOK)
}

func (c *Controller) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.OrderDraft](r)
	if err != nil {
		c.lg.Errorf("failed to parse request body: %v", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, apiErr := c.service.CreateOrder(r.Context(), body)
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, order, http.StatusCreated)
}

func (c *Controller) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, apiErr := c.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, order, http.StatusOK)
}

func (c *Controller) ModifyOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.OrderChanges](r)
	if err != nil {
		c.lg.Errorf("failed to parse request body: %v", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, apiErr := c.service.ModifyOrder(r.Context(), chi.URLParam(r, "id"), body)
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, order, http.StatusOK)
}

func (c *Controller) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody[model.TransitionDTO](r)
	if err != nil {
		c.lg.Errorf("failed to parse request body: %v", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, apiErr := c.service.TransitionOrder(r.Context(), chi.URLParam(r, "id"), body)
	if apiErr != nil {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, order, http.StatusOK)
}

func (c *Controller) GetClientOrders(w http.ResponseWriter, r *http.Request) {
	orders, apiErr := c.service.GetClientOrders(r.Context(), chi.URLParam(r, "id"))
	if apiErr != nil {
		if apiErr.Code == http.StatusNoContent {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}

	writeJSON(w, c.lg, orders, http.StatusOK)
}
