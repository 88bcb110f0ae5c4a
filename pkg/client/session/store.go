// Package session owns the client-side authentication lifecycle: one
// credential, one user profile, and the state machine everything else keys
// off.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custconnect/custconnect-backend/pkg/client"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

// State is the session lifecycle position. The only valid transitions are
// ANONYMOUS → AUTHENTICATING → AUTHENTICATED, AUTHENTICATED → ANONYMOUS on
// logout or session expiry, and AUTHENTICATING → ANONYMOUS on login failure.
type State string

const (
	StateAnonymous      State = "ANONYMOUS"
	StateAuthenticating State = "AUTHENTICATING"
	StateAuthenticated  State = "AUTHENTICATED"
)

// Session is the authenticated user as the client sees it.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	Roles       []string
}

// User mirrors the backend's user payload.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	IsVerified  bool     `json:"is_verified"`
}

// RegisterRequest is the unverified-account creation payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
}

// Subscriber is notified after every state transition. The realtime channel
// opens and closes on these.
type Subscriber func(state State, session *Session)

// Store holds at most one session. Only the store writes the token slot;
// every other component reads it through the shared client.
type Store struct {
	api *client.Client
	log *logger.Logger

	mu      sync.Mutex
	state   State
	current *Session
	subs    []Subscriber

	// best-effort server logout, bounded so the goroutine cannot hang
	logoutTimeout time.Duration
}

// StoreParams configures NewStore.
type StoreParams struct {
	API    *client.Client
	Logger *logger.Logger
}

func NewStore(params StoreParams) (*Store, error) {
	if params.API == nil {
		return nil, errors.New("session: API is required")
	}
	if params.Logger == nil {
		return nil, errors.New("session: Logger is required")
	}
	return &Store{
		api:           params.API,
		log:           params.Logger,
		state:         StateAnonymous,
		logoutTimeout: 5 * time.Second,
	}, nil
}

// State returns the current lifecycle position.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the in-memory session, nil when anonymous.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	copied.Roles = append([]string(nil), s.current.Roles...)
	return &copied
}

// Subscribe registers fn for state transitions. The current state is not
// replayed; callers read State first if they need it.
func (s *Store) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) transition(state State, sess *Session) {
	s.mu.Lock()
	s.state = state
	s.current = sess
	subs := append([]Subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state, sess)
	}
}

type loginPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login exchanges credentials for a session. Any previously stored token is
// cleared first so stale credentials never ride along with fresh ones. The
// success payload must carry a non-empty token and a user with an id;
// anything less is ErrInvalidServerResponse and leaves the caller anonymous.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	s.transition(StateAuthenticating, nil)
	s.api.Tokens().Clear()

	var payload loginPayload
	err := s.api.Do(ctx, client.Request{
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Body:        map[string]string{"email": strings.TrimSpace(email), "password": password},
		Out:         &payload,
		Credentials: true,
	})
	if err != nil {
		s.transition(StateAnonymous, nil)
		return nil, err
	}
	if payload.Token == "" || payload.User == nil || payload.User.ID == "" {
		s.transition(StateAnonymous, nil)
		return nil, client.ErrInvalidServerResponse
	}

	s.api.Tokens().SetToken(payload.Token)
	sess := sessionFromUser(payload.User)
	s.transition(StateAuthenticated, sess)
	return s.Current(), nil
}

// Logout clears the token and session synchronously; the server-side
// revocation is fired in the background with the old token and its failure
// is never surfaced.
func (s *Store) Logout() {
	token := s.api.Tokens().Token()
	s.api.Tokens().Clear()
	s.transition(StateAnonymous, nil)

	if token == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.logoutTimeout)
		defer cancel()
		err := s.api.Do(ctx, client.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/logout",
			Token:  token,
		})
		if err != nil {
			s.log.Warn(s.log.WithField(ctx, "error", err.Error()), "session.logout.server_call_failed")
		}
	}()
}

type mePayload struct {
	User *User `json:"user"`
}

// Resolve turns the persisted token into a fresh session, passing through
// AUTHENTICATING like any other authentication attempt. A 401 clears the
// token (the credential is dead); a transport failure retains it, because
// the network, not the credential, is suspect. Every failure lands back on
// ANONYMOUS.
func (s *Store) Resolve(ctx context.Context) (*Session, error) {
	s.transition(StateAuthenticating, nil)

	var payload mePayload
	err := s.api.Get(ctx, "/api/v1/auth/me", nil, &payload)
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		s.api.Tokens().Clear()
		s.transition(StateAnonymous, nil)
		return nil, client.ErrSessionExpired
	case err != nil:
		s.transition(StateAnonymous, nil)
		return nil, err
	}
	if payload.User == nil || payload.User.ID == "" {
		s.transition(StateAnonymous, nil)
		return nil, client.ErrInvalidServerResponse
	}

	sess := sessionFromUser(payload.User)
	s.transition(StateAuthenticated, sess)
	return s.Current(), nil
}

// Register creates an unverified account. It never establishes a session;
// the caller completes OTP verification and then logs in.
func (s *Store) Register(ctx context.Context, req RegisterRequest) error {
	return s.api.Post(ctx, "/api/v1/auth/register", req, nil)
}

// Verify submits the emailed OTP code.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	return s.api.Post(ctx, "/api/v1/auth/verify", map[string]string{
		"email": strings.TrimSpace(email),
		"code":  strings.TrimSpace(code),
	}, nil)
}

// ResendCode requests a fresh OTP for an unverified account.
func (s *Store) ResendCode(ctx context.Context, email string) error {
	return s.api.Post(ctx, "/api/v1/auth/resend-code", map[string]string{
		"email": strings.TrimSpace(email),
	}, nil)
}

func sessionFromUser(u *User) *Session {
	return &Session{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       append([]string(nil), u.Roles...),
	}
}
