package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/pantry/internal/domain"
)

type createItemRequest struct {
	Name          string       `json:"name"`
	Quantity      int          `json:"quantity"`
	StorageAreaID string       `json:"storageAreaId"`
	ExpiryDate    *domain.Date `json:"expiryDate,omitempty"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type itemsResponse struct {
	Items []domain.PantryItem `json:"items"`
}

// handleListItems serves every item, or a name search with ?q=, or the
// items expiring within ?expiringWithin= days.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if within := query.Get("expiringWithin"); within != "" {
		days, err := strconv.Atoi(within)
		if err != nil {
			badRequest(w, "expiringWithin must be a whole number of days")
			return
		}
		items, err := s.service.ExpiringItems(days)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(items))
		return
	}

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		writeJSON(w, http.StatusOK, nonNil(s.service.SearchItems(q)))
		return
	}

	writeJSON(w, http.StatusOK, nonNil(s.service.ListItems()))
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StorageAreaID == "" {
		badRequest(w, "storageAreaId required")
		return
	}

	item, err := s.service.AddItem(r.Context(), req.Name, req.Quantity, req.StorageAreaID, req.ExpiryDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		badRequest(w, "quantity required")
		return
	}

	item, err := s.service.UpdateItemQuantity(r.Context(), chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		badRequest(w, "quantity required")
		return
	}

	items, err := s.service.OpenItem(r.Context(), chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}
