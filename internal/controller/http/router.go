package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type MetricHandlers interface {
	Ping(w http.ResponseWriter, r *http.Request)
}

type OrderHandlers interface {
	Quote(w http.ResponseWriter, r *http.Request)
	CreateOrder(w http.ResponseWriter, r *http.Request)
	GetOrder(w http.ResponseWriter, r *http.Request)
	ModifyOrder(w http.ResponseWriter, r *http.Request)
	TransitionOrder(w http.ResponseWriter, r *http.Request)
	GetClientOrders(w http.ResponseWriter, r *http.Request)
}

func InitRoutes(r *chi.Mux, metricHandlers MetricHandlers, orderHandlers OrderHandlers) *chi.Mux {
	r.Get("/ping", metricHandlers.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders/quote", orderHandlers.Quote)
		r.Post("/orders", orderHandlers.CreateOrder)
		r.Get("/orders/{id}", orderHandlers.GetOrder)
		r.Patch("/orders/{id}", orderHandlers.ModifyOrder)
		r.Post("/orders/{id}/status", orderHandlers.TransitionOrder)

		r.Get("/clients/{id}/orders", orderHandlers.GetClientOrders)
	})

	return r
}
