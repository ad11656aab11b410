package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"stammtisch/internal/core"
)

type memberRequest struct {
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.kasse.ListMembers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if members == nil {
		members = []core.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeServiceError(w, r, core.ErrEmptyName)
		return
	}
	m, err := s.kasse.CreateMember(r.Context(), req.Name, req.Birthday)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.kasse.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m := core.Member{ID: chi.URLParam(r, "id"), Name: req.Name, Birthday: req.Birthday}
	if err := m.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.kasse.UpdateMember(r.Context(), m); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type birthdayRequest struct {
	Birthday string `json:"birthday"`
}

func (s *Server) handleSetBirthday(w http.ResponseWriter, r *http.Request) {
	var req birthdayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := s.kasse.SetBirthday(r.Context(), chi.URLParam(r, "id"), req.Birthday)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.kasse.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
