package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stammtisch/internal/core"
)

type eventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	HostID      string `json:"hostId"`
}

func (req eventRequest) toEvent(id string) core.Event {
	return core.Event{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Month:       req.Month,
		Year:        req.Year,
		Time:        req.Time,
		Location:    req.Location,
		HostID:      req.HostID,
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.kasse.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []core.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e := req.toEvent("")
	if err := e.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	// The generator owns everything carrying the birthday marker.
	if e.IsBirthday() {
		writeError(w, http.StatusUnprocessableEntity, "reserved event description")
		return
	}
	created, err := s.kasse.CreateEvent(r.Context(), e)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e := req.toEvent(chi.URLParam(r, "id"))
	if err := e.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.kasse.UpdateEvent(r.Context(), e); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.kasse.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
