package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/gateway"
	"github.com/jmcleod/examflow/storage"
)

const (
	loginFailed    = "Login failed"
	registerFailed = "Registration failed"
	updateFailed   = "Profile update failed"
	refreshFailed  = "Could not load profile"
)

// AuthAPI is the part of the remote API the Store drives.
// *api.AuthService satisfies it.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*api.User, error)
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.User, error)
}

// ExpirySource reports credential expiry detected outside the Store.
// *gateway.Gateway satisfies it.
type ExpirySource interface {
	OnExpiry(fn gateway.ExpiryFunc)
}

// Store owns the current Session. Every completed operation installs a new
// Session value; when operations race, the one whose response is handled
// last wins, in memory and in storage alike.
type Store struct {
	auth    AuthAPI
	persist storage.Store
	logger  *slog.Logger

	restoreOnce sync.Once

	mu  sync.RWMutex
	cur Session

	// notifyMu keeps observer callbacks in installation order. It is always
	// taken before mu, never while mu is held.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	nextSub  int
	subs     map[int]func(Session)
}

// Option configures the Store.
type Option func(*Store) error

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithExpirySource registers Store.Expire with src so the in-memory session
// is dropped whenever src clears the persisted one.
func WithExpirySource(src ExpirySource) Option {
	return func(s *Store) error {
		if gw, isGateway := src.(*gateway.Gateway); src == nil || (isGateway && gw == nil) {
			return errors.New("session: nil expiry source")
		}
		src.OnExpiry(s.Expire)
		return nil
	}
}

// New returns an empty Store in the loading state. Call Restore to adopt a
// previously persisted session.
func New(auth AuthAPI, persist storage.Store, opts ...Option) (*Store, error) {
	if auth == nil {
		return nil, errors.New("session: nil auth API")
	}
	if persist == nil {
		return nil, errors.New("session: nil storage")
	}
	s := &Store{
		auth:    auth,
		persist: persist,
		logger:  slog.Default(),
		cur:     Session{Loading: true},
		subs:    make(map[int]func(Session)),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Current returns a copy of the current Session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.clone()
}

// Subscribe registers fn to receive every newly installed Session. fn may
// read the Store (Current, IsAdmin, ...) but must not call mutating Store
// methods synchronously. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Restore adopts the persisted credential and identity, once. A half-present
// or undecodable pair is treated as absent and removed. Restore never touches
// the network and never overrides a session established before it ran.
func (s *Store) Restore() {
	s.restoreOnce.Do(func() {
		s.lock()
		next := s.cur
		next.Loading = false
		if !next.HasCredential() {
			if user, token := s.loadPersisted(); user != nil {
				next.Credential = token
				next.User = user
			}
		}
		s.install(next)
	})
}

// loadPersisted must be called with the write lock held, so a concurrent
// sign-in cannot land between its reads and its cleanup.
func (s *Store) loadPersisted() (*api.User, string) {
	token, terr := s.persist.Get(gateway.TokenKey)
	raw, uerr := s.persist.Get(gateway.UserKey)

	switch {
	case errors.Is(terr, storage.ErrNotFound) && errors.Is(uerr, storage.ErrNotFound):
		return nil, ""
	case terr == nil && uerr == nil && token == "":
		s.logger.Warn("session: discarding persisted session with empty credential")
	case terr == nil && uerr == nil:
		var u *api.User
		err := json.Unmarshal([]byte(raw), &u)
		if err == nil && u != nil {
			return u, token
		}
		s.logger.Warn("session: discarding undecodable persisted identity", "error", err)
	default:
		if err := errors.Join(ignoreNotFound(terr), ignoreNotFound(uerr)); err != nil {
			// Unreadable values are kept intact.
			s.logger.Error("session: reading persisted session failed", "error", err)
			return nil, ""
		}
		s.logger.Warn("session: discarding incomplete persisted session")
	}

	if err := s.persist.Delete(gateway.TokenKey, gateway.UserKey); err != nil {
		s.logger.Error("session: clearing persisted session failed", "error", err)
	}
	return nil, ""
}

func ignoreNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Login authenticates and, on success, replaces both halves of the session.
// On failure the session is unchanged and Message carries the server's
// detail or message, or "Login failed".
func (s *Store) Login(ctx context.Context, req api.LoginRequest) Result[*api.User] {
	resp, err := s.auth.Login(ctx, req)
	if err != nil {
		s.logger.Debug("session: login rejected", "error", err)
		return fail[*api.User](api.ErrorMessage(err, loginFailed), api.PayloadOf(err))
	}
	if err := s.establish(resp); err != nil {
		s.logger.Error("session: login not adopted", "error", err)
		return fail[*api.User](loginFailed, nil)
	}
	return ok(cloneUser(resp.User))
}

// Register creates an account and signs in as it. On failure Payload is
// the server's error body unmodified.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) Result[*api.AuthResponse] {
	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		s.logger.Debug("session: registration rejected", "error", err)
		return fail[*api.AuthResponse](registerFailed, api.PayloadOf(err))
	}
	if err := s.establish(resp); err != nil {
		s.logger.Error("session: registration not adopted", "error", err)
		return fail[*api.AuthResponse](registerFailed, nil)
	}
	out := *resp
	out.User = cloneUser(resp.User)
	return ok(&out)
}

// establish persists and installs a new credential and identity together.
func (s *Store) establish(resp *api.AuthResponse) error {
	if resp == nil || resp.Token == "" || resp.User == nil {
		return errors.New("response lacks token or user")
	}
	data, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}

	s.lock()
	err = s.persist.Batch(func(tx storage.BatchTx) error {
		if err := tx.Put(gateway.TokenKey, resp.Token); err != nil {
			return err
		}
		return tx.Put(gateway.UserKey, string(data))
	})
	if err != nil {
		s.unlock()
		return fmt.Errorf("persisting session: %w", err)
	}
	next := s.cur
	next.Credential = resp.Token
	next.User = cloneUser(resp.User)
	s.install(next)
	s.logger.Info("session: signed in", "username", resp.User.Username, "role", resp.User.Role)
	return nil
}

// Logout asks the server to drop the credential, then clears the session
// whatever the server answered.
func (s *Store) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn("session: remote logout failed", "error", err)
	}

	s.lock()
	if err := s.persist.Delete(gateway.TokenKey, gateway.UserKey); err != nil {
		s.logger.Error("session: clearing persisted session failed", "error", err)
	}
	s.install(Session{Loading: s.cur.Loading})
	s.logger.Info("session: signed out")
}

// Expire drops the in-memory session without contacting the server. The
// gateway has already removed the persisted copy when it calls this.
func (s *Store) Expire() {
	s.lock()
	if !s.cur.HasCredential() && !s.cur.HasIdentity() {
		s.unlock()
		return
	}
	s.install(Session{Loading: s.cur.Loading})
	s.logger.Info("session: expired")
}

// UpdateProfile applies upd and replaces only the identity; the credential
// is untouched and only the persisted identity is rewritten.
func (s *Store) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) Result[*api.User] {
	user, err := s.auth.UpdateProfile(ctx, upd)
	if err != nil {
		return fail[*api.User](api.ErrorMessage(err, updateFailed), api.PayloadOf(err))
	}
	s.adoptIdentity(user)
	return ok(cloneUser(user))
}

// Refresh reloads the identity from the server, as UpdateProfile does.
func (s *Store) Refresh(ctx context.Context) Result[*api.User] {
	user, err := s.auth.Profile(ctx)
	if err != nil {
		return fail[*api.User](api.ErrorMessage(err, refreshFailed), api.PayloadOf(err))
	}
	s.adoptIdentity(user)
	return ok(cloneUser(user))
}

// adoptIdentity installs user only while a credential is held, so a response
// arriving after logout or expiry cannot leave an identity without one.
func (s *Store) adoptIdentity(user *api.User) {
	if user == nil {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Error("session: encoding identity failed", "error", err)
		return
	}

	s.lock()
	if !s.cur.HasCredential() {
		s.unlock()
		s.logger.Debug("session: identity update ignored, signed out meanwhile")
		return
	}
	if err := s.persist.Put(gateway.UserKey, string(data)); err != nil {
		s.logger.Error("session: persisting identity failed", "error", err)
	}
	next := s.cur
	next.User = cloneUser(user)
	s.install(next)
}

// IsAdmin reports whether the signed-in user is an administrator.
func (s *Store) IsAdmin() bool { return s.hasRole(api.RoleAdmin) }

// IsInstructor reports whether the signed-in user is an instructor.
func (s *Store) IsInstructor() bool { return s.hasRole(api.RoleInstructor) }

// IsStudent reports whether the signed-in user is a student.
func (s *Store) IsStudent() bool { return s.hasRole(api.RoleStudent) }

func (s *Store) hasRole(r api.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.User != nil && s.cur.User.Role == r
}

// lock takes notifyMu then mu for writing. Observers run between the two
// releases, holding only notifyMu, so they can still read the Store.
func (s *Store) lock() {
	s.notifyMu.Lock()
	s.mu.Lock()
}

func (s *Store) unlock() {
	s.mu.Unlock()
	s.notifyMu.Unlock()
}

// install replaces the current session and notifies observers. It must be
// called under lock and releases both mutexes.
func (s *Store) install(next Session) {
	s.cur = next
	snapshot := next.clone()

	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.subsMu.Lock()
	fns := make([]func(Session), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, found := s.subs[id]; found {
			fns = append(fns, fn)
		}
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snapshot.clone())
	}
}
