package state

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"echospace/internal/app/user"
	"echospace/internal/client/api"
	"echospace/internal/pkg/logx"
)

// AuthAPI is the part of the server the controller talks to. *api.Client implements it.
type AuthAPI interface {
	Register(ctx context.Context, username, email, password string) (*api.AuthResult, error)
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Me(ctx context.Context, token string) (*user.Profile, error)
	UpdateProfile(ctx context.Context, token, firstName, lastName, avatar string) (*user.Profile, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (string, error)
}

// TokenStore persists the session token. *localstore.Store implements it.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Timer is a scheduled task that can be cancelled. *time.Timer implements it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

func realScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type App struct {
	api    AuthAPI
	tokens TokenStore

	replyDelay time.Duration
	schedule   Scheduler
	now        func() time.Time
	mock       *MockData

	observers []func(Snapshot)
	notifier  func(Notification)

	logger zerolog.Logger

	// mu guards everything below and orders token store writes. It is never held across a server
	// call or a callback.
	mu sync.Mutex

	view  View
	user  *user.Profile
	token string

	// session changes on every sign-in and sign-out so late server replies can be dropped.
	session uint64

	rooms    []Room
	messages map[string][]Message
	activeID string

	// pending holds the scheduled replies; a callback whose id is gone has been cancelled.
	pending   map[uint64]Timer
	nextReply uint64
}

type Option func(*App)

// WithReplyDelay sets the delay of the simulated reply.
func WithReplyDelay(d time.Duration) Option {
	return func(a *App) { a.replyDelay = d }
}

// WithScheduler replaces time.AfterFunc for the simulated reply.
func WithScheduler(s Scheduler) Option {
	return func(a *App) { a.schedule = s }
}

// WithObserver registers fn to receive a snapshot after every state change.
func WithObserver(fn func(Snapshot)) Option {
	return func(a *App) { a.observers = append(a.observers, fn) }
}

// WithNotifier registers fn to receive notifications.
func WithNotifier(fn func(Notification)) Option {
	return func(a *App) { a.notifier = fn }
}

// WithMockData replaces the embedded demo content.
func WithMockData(m *MockData) Option {
	return func(a *App) { a.mock = m }
}

// New returns a controller on the landing page with no session.
func New(authAPI AuthAPI, tokens TokenStore, opts ...Option) *App {
	a := &App{
		api:        authAPI,
		tokens:     tokens,
		replyDelay: DefaultReplyDelay,
		schedule:   realScheduler,
		now:        time.Now,
		mock:       defaultMockData,
		logger:     logx.Component("ClientState"),
		view:       ViewLandingHome,
		messages:   make(map[string][]Message),
		pending:    make(map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Snapshot returns a copy of the current state.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// AvatarOptions returns the stock avatar URLs offered in the profile editor.
func (a *App) AvatarOptions() []string {
	return slices.Clone(a.mock.AvatarOptions)
}

func (a *App) snapshotLocked() Snapshot {
	snap := Snapshot{
		View:   a.view,
		Rooms:  slices.Clone(a.rooms),
		Typing: len(a.pending) > 0,
	}

	if a.user != nil {
		u := *a.user
		snap.User = &u
	}

	if room := a.activeRoomLocked(); room != nil {
		r := *room
		snap.ActiveRoom = &r
		snap.Messages = slices.Clone(a.messages[room.ID])
	}

	return snap
}

func (a *App) activeRoomLocked() *Room {
	if a.activeID == "" {
		return nil
	}
	return a.roomLocked(a.activeID)
}

func (a *App) roomLocked(id string) *Room {
	for i := range a.rooms {
		if a.rooms[i].ID == id {
			return &a.rooms[i]
		}
	}
	return nil
}

// commit releases the lock taken by the caller and publishes the resulting state.
func (a *App) commit() {
	snap := a.snapshotLocked()
	a.mu.Unlock()
	a.publish(snap)
}

func (a *App) publish(snap Snapshot) {
	for _, fn := range a.observers {
		fn(snap)
	}
}

func (a *App) notify(kind NotificationKind, message string) {
	if a.notifier != nil {
		a.notifier(Notification{Kind: kind, Message: message})
	}
}

// fail reports err as an error notification and returns it.
func (a *App) fail(err error) error {
	a.notify(NotifyError, Describe(err))
	return err
}

// Describe turns an action error into text for the user.
func Describe(err error) string {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, api.ErrNetwork):
		return "Unable to reach the server. Please try again."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in to continue."
	case errors.Is(err, ErrMissingFields):
		return "Please fill in all fields."
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, ErrPasswordTooShort):
		return "Password must be at least 6 characters."
	case errors.Is(err, ErrNameRequired):
		return "Please enter both first and last name."
	case errors.Is(err, ErrRoomNameRequired):
		return "Please enter a room name."
	case errors.Is(err, ErrInvalidRoomCode):
		return "Invalid room code. Please check and try again."
	case errors.Is(err, ErrRoomCodeTaken):
		return "A room with this code already exists."
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found."
	case errors.Is(err, ErrNoActiveRoom):
		return "Select a room first."
	case errors.Is(err, ErrEmptyMessage):
		return "Message cannot be empty."
	default:
		return "Something went wrong. Please try again."
	}
}

// cancelRepliesLocked stops every pending simulated reply.
func (a *App) cancelRepliesLocked() {
	for id, t := range a.pending {
		t.Stop()
		delete(a.pending, id)
	}
}
