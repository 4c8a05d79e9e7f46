package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/pantry/internal/domain"
)

const maxAreaNameLen = 200

type createAreaRequest struct {
	Name  string       `json:"name"`
	Icon  domain.Icon  `json:"icon"`
	Color domain.Color `json:"color"`
}

type updateAreaRequest struct {
	Name  *string       `json:"name"`
	Icon  *domain.Icon  `json:"icon"`
	Color *domain.Color `json:"color"`
}

// updates turns the present fields into tagged area updates.
func (req updateAreaRequest) updates() []domain.AreaUpdate {
	var updates []domain.AreaUpdate
	if req.Name != nil {
		updates = append(updates, domain.SetAreaName(*req.Name))
	}
	if req.Icon != nil {
		updates = append(updates, domain.SetAreaIcon(*req.Icon))
	}
	if req.Color != nil {
		updates = append(updates, domain.SetAreaColor(*req.Color))
	}
	return updates
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

type areaItemsResponse struct {
	Items     []domain.PantryItem `json:"items"`
	ItemCount int                 `json:"itemCount"`
}

func (s *Server) handleListAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.service.ListAreas()))
}

func (s *Server) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	var req createAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Name) > maxAreaNameLen {
		badRequest(w, "area name too long")
		return
	}

	area, err := s.service.AddArea(r.Context(), req.Name, req.Icon, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, area)
}

func (s *Server) handleUpdateArea(w http.ResponseWriter, r *http.Request) {
	var req updateAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil && len(*req.Name) > maxAreaNameLen {
		badRequest(w, "area name too long")
		return
	}

	area, err := s.service.UpdateArea(r.Context(), chi.URLParam(r, "id"), req.updates()...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

func (s *Server) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteArea(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderAreas(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	areas, err := s.service.ReorderAreas(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(areas))
}

func (s *Server) handleAreaItems(w http.ResponseWriter, r *http.Request) {
	items, count, err := s.service.AreaContents(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, areaItemsResponse{Items: nonNil(items), ItemCount: count})
}
