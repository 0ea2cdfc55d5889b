package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/pricing"
)

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartItemDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice,omitempty"`
	Subtotal  string `json:"subtotal,omitempty"`
	Resolved  bool   `json:"resolved"`
}

type TotalsDTO struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	TaxRate  string `json:"taxRate"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type CartViewDTO struct {
	State        string        `json:"state"`
	Items        []CartItemDTO `json:"items"`
	Totals       TotalsDTO     `json:"totals"`
	RefreshError string        `json:"refreshError,omitempty"`
}

func toTotalsDTO(snap pricing.Snapshot) TotalsDTO {
	return TotalsDTO{
		Subtotal: snap.Subtotal.StringFixed(2),
		Shipping: snap.Shipping.StringFixed(2),
		TaxRate:  snap.TaxRate.String(),
		Tax:      snap.Tax.StringFixed(2),
		Total:    snap.Total.StringFixed(2),
	}
}

func toCartViewDTO(vm cart.View) CartViewDTO {
	dto := CartViewDTO{
		State:  string(vm.State),
		Items:  make([]CartItemDTO, 0, len(vm.Items)),
		Totals: toTotalsDTO(vm.Totals),
	}
	if vm.RefreshErr != nil {
		dto.RefreshError = vm.RefreshErr.Error()
	}
	for _, item := range vm.Items {
		itemDTO := CartItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Resolved:  item.Resolved,
		}
		if item.Resolved {
			itemDTO.Name = item.Name
			itemDTO.Image = item.Image
			itemDTO.UnitPrice = item.UnitPrice.StringFixed(2)
			itemDTO.Subtotal = item.Subtotal.StringFixed(2)
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}

func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	vm := s.controller.ViewModel(r.Context())
	respondJSON(w, http.StatusOK, toCartViewDTO(vm))
}

func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must not be empty")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := s.controller.AddItem(r.Context(), req.ProductID, req.Quantity); err != nil {
		s.log.WithError(err).WithField("request_id", getRequestID(r.Context())).Error("add item failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	respondJSON(w, http.StatusCreated, toCartViewDTO(s.controller.ViewModel(r.Context())))
}

func (s *Server) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	err := s.controller.UpdateQuantity(r.Context(), productID, req.Quantity)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, toCartViewDTO(s.controller.ViewModel(r.Context())))
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "product is not in the cart")
	default:
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	}
}

func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	s.controller.RemoveItem(r.Context(), productID)
	w.WriteHeader(http.StatusNoContent)
}
