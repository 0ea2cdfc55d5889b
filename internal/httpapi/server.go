// Package httpapi is the local UI-facing surface: view models in,
// mutations out. All monetary values are rounded to two digits here
// and nowhere earlier.
package httpapi

import (
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_storefront/internal/auth"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/checkout"
)

type Server struct {
	controller *cart.Controller
	session    *auth.Session
	catalog    checkout.ProductFetcher
	orders     checkout.OrderSubmitter
	log        *logrus.Logger

	submitDelay time.Duration

	flowMu sync.Mutex
	flow   *checkout.Flow
}

type Option func(*Server)

func WithLogger(log *logrus.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithSubmitDelay overrides the order-processing delay.
func WithSubmitDelay(d time.Duration) Option {
	return func(s *Server) { s.submitDelay = d }
}

func NewServer(controller *cart.Controller, session *auth.Session, catalog checkout.ProductFetcher, orders checkout.OrderSubmitter, opts ...Option) *Server {
	s := &Server{
		controller:  controller,
		session:     session,
		catalog:     catalog,
		orders:      orders,
		log:         logrus.New(),
		submitDelay: checkout.DefaultMinSubmitLatency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)

	r.Get("/cart", s.GetCart)
	r.Post("/cart/items", s.AddItem)
	r.Patch("/cart/items/{productID}", s.UpdateQuantity)
	r.Delete("/cart/items/{productID}", s.RemoveItem)
	r.Post("/login", s.Login)
	r.Post("/checkout", s.StartCheckout)
	r.Post("/checkout/submit", s.SubmitOrder)

	return r
}
