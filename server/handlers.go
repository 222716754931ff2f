package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rustyeddy/daybook/auth"
	"github.com/rustyeddy/daybook/date"
	"github.com/rustyeddy/daybook/ledger"
)

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func dateParam(r *http.Request) (date.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return date.Date{}, fmt.Errorf("%w: date is required", errBadRequest)
	}
	d, err := date.Parse(raw)
	if err != nil {
		return date.Date{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return d, nil
}

func idParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// --- Auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	sess, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	sess, err := s.auth.Register(req)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Validate(bearerToken(r))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	q, err := s.auth.RecoveryQuestion(req.Email)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"question": q})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Answer      string `json:"answer"`
		NewPassword string `json:"new_password"`
	}
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	if err := s.auth.ResetPassword(req.Email, req.Answer, req.NewPassword); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Expenses ---

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request, owner int64) {
	var e ledger.Expense
	if err := decode(r, &e); err != nil {
		s.writeErr(w, err)
		return
	}
	stored, err := s.ledger.AddExpense(r.Context(), owner, e)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, owner int64) {
	d, err := dateParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	list, err := s.ledger.Expenses(r.Context(), owner, d)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if list == nil {
		list = []ledger.Expense{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request, owner int64) {
	var e ledger.Expense
	if err := decode(r, &e); err != nil {
		s.writeErr(w, err)
		return
	}
	merged, err := s.ledger.EditExpense(r.Context(), owner, e)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, owner int64) {
	d, err := dateParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), owner, id, d); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Wagers ---

func (s *Server) handleAddWager(w http.ResponseWriter, r *http.Request, owner int64) {
	var wt ledger.WagerTransaction
	if err := decode(r, &wt); err != nil {
		s.writeErr(w, err)
		return
	}
	stored, err := s.ledger.AddWager(r.Context(), owner, wt)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListWagers(w http.ResponseWriter, r *http.Request, owner int64) {
	d, err := dateParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	list, err := s.ledger.Wagers(r.Context(), owner, d)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if list == nil {
		list = []ledger.WagerTransaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleEditWager(w http.ResponseWriter, r *http.Request, owner int64) {
	var wt ledger.WagerTransaction
	if err := decode(r, &wt); err != nil {
		s.writeErr(w, err)
		return
	}
	merged, err := s.ledger.EditWager(r.Context(), owner, wt)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) handleDeleteWager(w http.ResponseWriter, r *http.Request, owner int64) {
	d, err := dateParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if err := s.ledger.DeleteWager(r.Context(), owner, id, d); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Days ---

func (s *Server) handleOpeningBalance(w http.ResponseWriter, r *http.Request, owner int64) {
	d, err := dateParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	opening, err := s.ledger.OpeningBalance(r.Context(), owner, d)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":            d,
		"opening_balance": opening,
	})
}

func (s *Server) handleFinalizeDay(w http.ResponseWriter, r *http.Request, owner int64) {
	var req struct {
		Date date.Date `json:"date"`
	}
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	cb, err := s.ledger.FinalizeDay(r.Context(), owner, req.Date)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cb)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, owner int64) {
	d, err := dateParam(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	snap, err := s.ledger.Snapshot(r.Context(), owner, d)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleFinalizedDates(w http.ResponseWriter, r *http.Request, owner int64) {
	days, err := s.ledger.FinalizedDates(r.Context(), owner)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if days == nil {
		days = []date.Date{}
	}
	writeJSON(w, http.StatusOK, days)
}
