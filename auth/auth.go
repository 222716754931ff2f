// Package auth is the ledger's authentication collaborator: a user registry
// and a session manager. The ledger itself only ever sees the resolved owner
// id; everything here stays outside the ledger boundary.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/daybook/pkg/token"
)

var (
	// ErrInvalidCredentials is returned for a wrong email/password pair.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrDuplicateUser is returned when registering a booth number that is
	// already taken.
	ErrDuplicateUser = errors.New("auth: a user with that booth number already exists")

	// ErrInvalidSession is returned for unknown or expired tokens.
	ErrInvalidSession = errors.New("auth: invalid or expired session")

	// ErrRecoveryRejected is returned when password recovery fails. An
	// unknown email and a wrong security answer are deliberately
	// indistinguishable.
	ErrRecoveryRejected = errors.New("auth: recovery rejected")
)

// DefaultTTL is how long a session stays valid.
const DefaultTTL = 24 * time.Hour

// User is the public identity handed to callers after authentication.
type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	BoothNumber string    `json:"booth_number"`
	LastAccess  time.Time `json:"last_access"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session pairs a token with the user it authenticates.
type Session struct {
	Token    string    `json:"token"`
	User     User      `json:"user"`
	IssuedAt time.Time `json:"issued_at"`
}

// RegisterRequest carries the fields needed to create a user.
type RegisterRequest struct {
	Name        string `json:"name"`
	BoothNumber string `json:"booth_number"`
	Password    string `json:"password"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
}

type account struct {
	user     User
	password string
	question string
	answer   string
}

type session struct {
	user     User
	issuedAt time.Time
}

// Service holds users and sessions in memory, guarded by one mutex.
type Service struct {
	mu       sync.Mutex
	users    map[string]*account // keyed by email
	sessions map[string]session
	tokens   *token.Source
	ttl      time.Duration
	now      func() time.Time
	nextID   int64
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source. Tests use it to expire sessions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an empty Service.
func NewService(opts ...Option) *Service {
	s := &Service{
		users:    make(map[string]*account),
		sessions: make(map[string]session),
		tokens:   token.NewSource(),
		ttl:      DefaultTTL,
		now:      time.Now,
		nextID:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedDemo adds the two demo accounts used by the development UI.
func (s *Service) SeedDemo() {
	for _, req := range []RegisterRequest{
		{Name: "Usuario Demo", BoothNumber: "12345", Password: "demo123",
			Question: "¿Cuál es tu color favorito?", Answer: "azul"},
		{Name: "Usuario Test", BoothNumber: "67890", Password: "test123",
			Question: "¿Cuál es tu mascota favorita?", Answer: "perro"},
	} {
		if _, err := s.Register(req); err != nil {
			// Already seeded.
			continue
		}
	}
	// Demo accounts answer to their traditional addresses too.
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.users["12345@quiniela.com"]; ok {
		acc.user.Email = "admin@demo.com"
		s.users["admin@demo.com"] = acc
		delete(s.users, "12345@quiniela.com")
	}
	if acc, ok := s.users["67890@quiniela.com"]; ok {
		acc.user.Email = "test@test.com"
		s.users["test@test.com"] = acc
		delete(s.users, "67890@quiniela.com")
	}
}

// Register creates a user and logs it in. The account email is derived from
// the booth number.
func (s *Service) Register(req RegisterRequest) (Session, error) {
	s.mu.Lock()

	for _, acc := range s.users {
		if acc.user.BoothNumber == req.BoothNumber {
			s.mu.Unlock()
			return Session{}, ErrDuplicateUser
		}
	}

	now := s.now()
	email := fmt.Sprintf("%s@quiniela.com", req.BoothNumber)
	u := User{
		ID:          s.nextID,
		Name:        req.Name,
		Email:       email,
		BoothNumber: req.BoothNumber,
		LastAccess:  now,
		CreatedAt:   now,
	}
	s.nextID++
	s.users[email] = &account{
		user:     u,
		password: req.Password,
		question: req.Question,
		answer:   req.Answer,
	}
	s.mu.Unlock()

	return s.startSession(u), nil
}

// Login validates credentials and opens a session.
func (s *Service) Login(email, password string) (Session, error) {
	s.mu.Lock()
	acc, ok := s.users[email]
	if !ok || acc.password != password {
		s.mu.Unlock()
		return Session{}, ErrInvalidCredentials
	}
	acc.user.LastAccess = s.now()
	u := acc.user
	s.mu.Unlock()

	return s.startSession(u), nil
}

func (s *Service) startSession(u User) Session {
	tok := s.tokens.New()
	sess := Session{Token: tok, User: u, IssuedAt: s.now()}

	s.mu.Lock()
	s.sessions[tok] = session{user: u, issuedAt: sess.IssuedAt}
	s.mu.Unlock()
	return sess
}

// Validate resolves a token to its user. Expired sessions are evicted and
// rejected the same way unknown tokens are.
func (s *Service) Validate(tok string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tok]
	if !ok {
		return User{}, ErrInvalidSession
	}
	if s.now().Sub(sess.issuedAt) > s.ttl {
		delete(s.sessions, tok)
		return User{}, ErrInvalidSession
	}
	return sess.user, nil
}

// Logout drops the session. Unknown tokens are ignored.
func (s *Service) Logout(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tok)
}

// RecoveryQuestion returns the security question for an email.
func (s *Service) RecoveryQuestion(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[email]
	if !ok {
		return "", ErrRecoveryRejected
	}
	return acc.question, nil
}

// ResetPassword sets a new password when the security answer matches.
// Answers are compared case-insensitively.
func (s *Service) ResetPassword(email, answer, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[email]
	if !ok || !strings.EqualFold(strings.TrimSpace(answer), acc.answer) {
		return ErrRecoveryRejected
	}
	acc.password = newPassword
	return nil
}
