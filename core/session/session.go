// Package session owns the signed-in identity of the running app.
//
// A Manager moves between three states: Unresolved until Init has read the
// stored user, then Anonymous or Authenticated. There is one Manager per
// process; it is built at startup and handed to whatever needs the current user.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/store"
	"github.com/trezcool/placement/core/user"
)

// CurrentUserKind is the KV key of the signed-in user.
const CurrentUserKind = "current-user"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrClosed             = errors.New("session closed")
)

type Status int

const (
	Unresolved Status = iota
	Anonymous
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unresolved"
	}
}

// State is a snapshot of the session.
type State struct {
	Status    Status     `json:"-"`
	User      *user.User `json:"user"`
	IsLoading bool       `json:"is_loading"`
	Error     string     `json:"error,omitempty"`
}

// Role returns the signed-in role, or "" when not authenticated.
func (st State) Role() user.Role {
	if st.Status != Authenticated || st.User == nil {
		return ""
	}
	return st.User.Role
}

// Sleeper suspends the caller for a while.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type Options struct {
	KV       core.KVStore
	Users    user.Repository
	IDP      *MockIdentityProvider
	Sleeper  Sleeper
	Logger   core.Logger
	Notifier core.Notifier

	LoginDelay  time.Duration
	LogoutDelay time.Duration
}

type Manager struct {
	mu      sync.RWMutex
	state   State
	closed  bool
	current *store.Document[user.User]
	opts    Options
}

func NewManager(opts Options) *Manager {
	if opts.Notifier == nil {
		opts.Notifier = core.NopNotifier
	}
	return &Manager{
		state:   State{Status: Unresolved, IsLoading: true},
		current: store.NewDocument[user.User](opts.KV, CurrentUserKind, opts.Logger),
		opts:    opts,
	}
}

// Current returns a snapshot of the session.
func (m *Manager) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.state
	if st.User != nil {
		usr := *st.User
		st.User = &usr
	}
	return st
}

// CurrentUser returns the signed-in user.
func (m *Manager) CurrentUser() (user.User, bool) {
	st := m.Current()
	if st.Status != Authenticated {
		return user.User{}, false
	}
	return *st.User, true
}

func (m *Manager) set(fn func(st *State)) {
	m.mu.Lock()
	fn(&m.state)
	m.mu.Unlock()
}

// Init restores the stored user, if any. A stored value that cannot be read
// leaves the session Anonymous.
func (m *Manager) Init(ctx context.Context) State {
	usr, found, err := m.current.Load(ctx, store.Global)
	if err != nil {
		m.opts.Logger.Error("restoring session", err)
		found = false
	}
	if found && (usr.ID == "" || !usr.Role.Valid()) {
		m.opts.Logger.Warn("stored session user is incomplete, ignoring", map[string]interface{}{"user_id": usr.ID})
		found = false
	}

	m.set(func(st *State) {
		*st = State{Status: Anonymous}
		if found {
			st.Status = Authenticated
			st.User = &usr
		}
	})
	return m.Current()
}

// Close ends the manager's life. Later calls fail with ErrClosed.
func (m *Manager) Close() {
	m.set(func(st *State) {
		*st = State{Status: Unresolved}
	})
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.state.IsLoading = true
	m.state.Error = ""
	return nil
}

func (m *Manager) fail(err error, msg string) error {
	m.set(func(st *State) {
		st.IsLoading = false
		st.Error = msg
	})
	m.opts.Notifier.Notify(core.NotifyError, msg)
	return err
}

func (m *Manager) authenticate(ctx context.Context, usr user.User) error {
	if err := m.current.Save(ctx, store.Global, usr); err != nil {
		return err
	}
	m.set(func(st *State) {
		*st = State{Status: Authenticated, User: &usr}
	})
	return nil
}

// Login signs in the directory account with email, provided it holds role.
// On failure the stored session is left untouched.
func (m *Manager) Login(ctx context.Context, email, credential string, role user.Role) (user.User, error) {
	if err := m.begin(); err != nil {
		return user.User{}, err
	}
	if err := m.opts.Sleeper.Sleep(ctx, m.opts.LoginDelay); err != nil {
		m.set(func(st *State) { st.IsLoading = false })
		return user.User{}, err
	}

	usr, err := m.opts.Users.GetByEmail(email)
	if err != nil {
		if err != user.ErrNotFound {
			m.opts.Logger.Error("looking up account", err)
		}
		return user.User{}, m.fail(ErrInvalidCredentials, "Invalid email or password")
	}
	if usr.Role != role || usr.CheckPassword(credential) != nil {
		return user.User{}, m.fail(ErrInvalidCredentials, "Invalid email or password")
	}

	if err := m.authenticate(ctx, usr); err != nil {
		m.opts.Logger.Error("saving session", err, usr)
		return user.User{}, m.fail(errors.Wrap(err, "saving session"), "Failed to login")
	}
	m.opts.Notifier.Notify(core.NotifySuccess, "Login successful!")
	return usr, nil
}

// LoginWithProvider signs in through a federated identity provider as the
// first directory account holding role.
func (m *Manager) LoginWithProvider(ctx context.Context, provider string, role user.Role) (user.User, error) {
	if err := m.begin(); err != nil {
		return user.User{}, err
	}
	name := providerNames[provider]
	if name == "" {
		return user.User{}, m.fail(ErrUnknownProvider, "Failed to login")
	}
	failMsg := "Failed to login with " + name

	if err := m.opts.Sleeper.Sleep(ctx, m.opts.LoginDelay); err != nil {
		m.set(func(st *State) { st.IsLoading = false })
		return user.User{}, err
	}

	token, err := m.opts.IDP.Issue(provider, role)
	if err != nil {
		return user.User{}, m.fail(err, failMsg)
	}
	claims, err := m.opts.IDP.Verify(token)
	if err != nil {
		return user.User{}, m.fail(err, failMsg)
	}

	usr, err := m.opts.Users.FirstWithRole(claims.Role)
	if err != nil {
		return user.User{}, m.fail(ErrInvalidCredentials, failMsg)
	}
	if err := m.authenticate(ctx, usr); err != nil {
		m.opts.Logger.Error("saving session", err, usr)
		return user.User{}, m.fail(errors.Wrap(err, "saving session"), failMsg)
	}
	m.opts.Notifier.Notify(core.NotifySuccess, "Login with "+name+" successful!")
	return usr, nil
}

// Logout forgets the signed-in user. It always ends Anonymous.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.begin(); err != nil {
		return
	}
	if err := m.opts.Sleeper.Sleep(ctx, m.opts.LogoutDelay); err != nil {
		m.opts.Logger.Debug("logout delay interrupted", err)
	}
	if err := m.current.Remove(ctx, store.Global); err != nil {
		m.opts.Logger.Error("clearing session", err)
	}
	m.set(func(st *State) {
		*st = State{Status: Anonymous}
	})
}

// UpdateProfile changes the signed-in user's mutable fields. ID and role are kept.
func (m *Manager) UpdateProfile(ctx context.Context, patch user.ProfilePatch) (user.User, error) {
	m.mu.RLock()
	closed, st := m.closed, m.state
	m.mu.RUnlock()
	if closed {
		return user.User{}, ErrClosed
	}
	if st.Status != Authenticated {
		return user.User{}, ErrNotAuthenticated
	}

	usr := patch.Apply(*st.User)
	usr.ID, usr.Role = st.User.ID, st.User.Role
	if err := m.current.Save(ctx, store.Global, usr); err != nil {
		return user.User{}, errors.Wrap(err, "saving profile")
	}
	m.set(func(st *State) {
		if st.Status == Authenticated && st.User.ID == usr.ID {
			st.User = &usr
		}
	})
	return usr, nil
}
