// Package server exposes the ledger and the auth service over HTTP/JSON.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rustyeddy/daybook/auth"
	"github.com/rustyeddy/daybook/ledger"
)

// Server routes HTTP requests to the ledger and auth services.
type Server struct {
	ledger *ledger.Ledger
	auth   *auth.Service
	log    *log.Logger
	mux    *http.ServeMux
}

// New builds a Server over the given services.
func New(l *ledger.Ledger, a *auth.Service, lg *log.Logger) *Server {
	if lg == nil {
		lg = log.Default()
	}
	s := &Server{ledger: l, auth: a, log: lg, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("POST /auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /auth/session", s.handleSession)
	s.mux.HandleFunc("POST /auth/recover", s.handleRecover)
	s.mux.HandleFunc("POST /auth/reset", s.handleReset)

	s.mux.HandleFunc("POST /expenses", s.withOwner(s.handleAddExpense))
	s.mux.HandleFunc("GET /expenses", s.withOwner(s.handleListExpenses))
	s.mux.HandleFunc("PUT /expenses", s.withOwner(s.handleEditExpense))
	s.mux.HandleFunc("DELETE /expenses", s.withOwner(s.handleDeleteExpense))

	s.mux.HandleFunc("POST /wagers", s.withOwner(s.handleAddWager))
	s.mux.HandleFunc("GET /wagers", s.withOwner(s.handleListWagers))
	s.mux.HandleFunc("PUT /wagers", s.withOwner(s.handleEditWager))
	s.mux.HandleFunc("DELETE /wagers", s.withOwner(s.handleDeleteWager))

	s.mux.HandleFunc("GET /days/opening", s.withOwner(s.handleOpeningBalance))
	s.mux.HandleFunc("POST /days/finalize", s.withOwner(s.handleFinalizeDay))
	s.mux.HandleFunc("GET /days/snapshot", s.withOwner(s.handleSnapshot))
	s.mux.HandleFunc("GET /days/finalized", s.withOwner(s.handleFinalizedDates))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// bearerToken extracts the bearer token, or "" when absent.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

type ownerHandler func(w http.ResponseWriter, r *http.Request, owner int64)

// withOwner resolves the session token to an owner id before calling next.
func (s *Server) withOwner(next ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.auth.Validate(bearerToken(r))
		if err != nil {
			s.writeErr(w, ledger.ErrUnauthenticated)
			return
		}
		next(w, r, u.ID)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps service errors onto HTTP statuses. Callers must be able to
// tell auth failures and missing entries apart from transient storage
// failures.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidSession),
		errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrDuplicateUser):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrNegativeAmount),
		errors.Is(err, ledger.ErrInvalidFlow),
		errors.Is(err, auth.ErrRecoveryRejected),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Printf("server: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")
