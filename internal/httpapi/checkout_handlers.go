package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_storefront/internal/auth"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/orders"
)

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SummaryItemDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice,omitempty"`
	Subtotal  string `json:"subtotal,omitempty"`
	Resolved  bool   `json:"resolved"`
}

type CheckoutSummaryDTO struct {
	State  string           `json:"state"`
	Items  []SummaryItemDTO `json:"items"`
	Totals TotalsDTO        `json:"totals"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	err := s.session.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
	default:
		s.log.WithError(err).WithField("request_id", getRequestID(r.Context())).Error("login failed")
		respondError(w, http.StatusBadGateway, "login_failed", "an unexpected error occurred, please try again later")
	}
}

// StartCheckout gates on authentication, snapshots the cart and
// returns the summary. The flow it creates is what SubmitOrder acts
// on.
func (s *Server) StartCheckout(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.controller.RequestCheckout(r.Context())
	switch {
	case errors.Is(err, cart.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, "auth_required", "log in to check out")
		return
	case errors.Is(err, cart.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty, nothing to checkout")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
		return
	}

	flow := checkout.NewFlow(snapshot, s.catalog, s.orders,
		checkout.WithLogger(s.log),
		checkout.WithMinSubmitLatency(s.submitDelay))
	summary := flow.Summarize(r.Context())

	s.flowMu.Lock()
	s.flow = flow
	s.flowMu.Unlock()

	respondJSON(w, http.StatusOK, toSummaryDTO(string(flow.State()), summary))
}

// SubmitOrder submits the active checkout. On success the cart is
// cleared here: that is a caller policy, not a side effect of the
// flow itself.
func (s *Server) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	s.flowMu.Lock()
	flow := s.flow
	s.flowMu.Unlock()

	if flow == nil {
		respondError(w, http.StatusConflict, "no_active_checkout", "start a checkout first")
		return
	}

	err := flow.Submit(r.Context())
	switch {
	case err == nil:
		s.controller.ClearCart(r.Context())
		s.flowMu.Lock()
		s.flow = nil
		s.flowMu.Unlock()
		respondJSON(w, http.StatusOK, map[string]string{"status": string(checkout.StateSucceeded)})
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", "order submission already in progress")
	case errors.Is(err, checkout.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "already_submitted", "order was already submitted")
	default:
		var se *orders.SubmissionError
		if errors.As(err, &se) {
			s.log.WithError(err).WithField("request_id", getRequestID(r.Context())).Error("order submission failed")
			respondError(w, http.StatusBadGateway, "submission_failed", "order submission failed, you can retry")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "order submission failed")
	}
}

func toSummaryDTO(state string, summary checkout.Summary) CheckoutSummaryDTO {
	dto := CheckoutSummaryDTO{
		State:  state,
		Items:  make([]SummaryItemDTO, 0, len(summary.Items)),
		Totals: toTotalsDTO(summary.Totals),
	}
	for _, item := range summary.Items {
		itemDTO := SummaryItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Resolved:  item.Resolved,
		}
		if item.Resolved {
			itemDTO.Name = item.Name
			itemDTO.UnitPrice = item.UnitPrice.StringFixed(2)
			itemDTO.Subtotal = item.Subtotal.StringFixed(2)
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}
