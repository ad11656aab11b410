package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stammtisch/internal/core"
)

// ---- Penalties ----

type penaltyRequest struct {
	MemberID string     `json:"memberId"`
	Amount   core.Money `json:"amount"`
	Reason   string     `json:"reason"`
	Date     string     `json:"date"`
}

func (s *Server) handleListPenalties(w http.ResponseWriter, r *http.Request) {
	penalties, err := s.kasse.ListPenalties(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if penalties == nil {
		penalties = []core.Penalty{}
	}
	writeJSON(w, http.StatusOK, penalties)
}

func (s *Server) handleCreatePenalty(w http.ResponseWriter, r *http.Request) {
	var req penaltyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeServiceError(w, r, core.ErrInvalidDate)
		return
	}
	probe := core.Penalty{MemberID: req.MemberID, Amount: req.Amount, Reason: req.Reason, Date: date}
	if err := probe.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := s.kasse.CreatePenalty(r.Context(), req.MemberID, req.Amount, req.Reason, date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePenalty(w http.ResponseWriter, r *http.Request) {
	var p core.Penalty
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := p.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.kasse.UpdatePenalty(r.Context(), p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePayPenalty(w http.ResponseWriter, r *http.Request) {
	if err := s.kasse.PayPenalty(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeletePenalty(w http.ResponseWriter, r *http.Request) {
	if err := s.kasse.DeletePenalty(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ---- Contributions ----

type contributionRequest struct {
	MemberID string `json:"memberId"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := s.kasse.ListContributions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if contributions == nil {
		contributions = []core.Contribution{}
	}
	writeJSON(w, http.StatusOK, contributions)
}

func (s *Server) handleAddContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	probe := core.Contribution{MemberID: req.MemberID, Month: req.Month, Year: req.Year, IsPaid: true}
	if err := probe.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := s.kasse.AddContribution(r.Context(), req.MemberID, req.Month, req.Year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteContribution(w http.ResponseWriter, r *http.Request) {
	if err := s.kasse.DeleteContribution(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ---- Expenses ----

type expenseRequest struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        string     `json:"date"`
	MemberID    string     `json:"memberId"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.kasse.ListExpenses(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeServiceError(w, r, core.ErrInvalidDate)
		return
	}
	probe := core.Expense{Description: req.Description, Amount: req.Amount, Date: date}
	if err := probe.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	e, err := s.kasse.CreateExpense(r.Context(), req.Description, req.Amount, date, req.MemberID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeServiceError(w, r, core.ErrInvalidDate)
		return
	}
	e := core.Expense{
		ID:          chi.URLParam(r, "id"),
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		MemberID:    req.MemberID,
	}
	if err := e.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.kasse.UpdateExpense(r.Context(), e); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.kasse.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ---- Config & balance ----

type configRequest struct {
	StartingBalance core.Money `json:"startingBalance"`
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StartingBalance.Cents < 0 {
		writeServiceError(w, r, core.ErrInvalidAmount)
		return
	}
	if err := s.kasse.SetStartingBalance(r.Context(), req.StartingBalance); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.CashConfig{StartingBalance: req.StartingBalance})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	summary, err := s.kasse.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
