package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echospace/internal/app/user"
	"echospace/internal/client/api"
	"echospace/internal/client/localstore"
	"echospace/internal/pkg/logx"
)

func init() {
	logx.InitWriterLogger(io.Discard, zerolog.Disabled)
}

// fakeAPI is an in-memory stand-in for the auth server.
type fakeAPI struct {
	mu       sync.Mutex
	accounts map[string]string // email -> password
	down     bool
	calls    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{accounts: make(map[string]string)}
}

func (f *fakeAPI) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return fmt.Errorf("%w: connection refused", api.ErrNetwork)
	}
	return nil
}

func profileFor(email string) user.Profile {
	name, _, _ := strings.Cut(email, "@")
	return user.Profile{ID: "id-" + email, Username: name, Email: email}
}

func (f *fakeAPI) Register(_ context.Context, username, email, password string) (*api.AuthResult, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[email]; ok {
		return nil, &api.Error{Status: http.StatusConflict, Code: 3201, Message: "An account with this email already exists."}
	}
	f.accounts[email] = password
	p := profileFor(email)
	p.Username = username
	return &api.AuthResult{User: p, Token: "token-" + email}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*api.AuthResult, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.accounts[email]; !ok || stored != password {
		return nil, &api.Error{Status: http.StatusUnauthorized, Code: 3301, Message: "Invalid email or password."}
	}
	return &api.AuthResult{User: profileFor(email), Token: "token-" + email}, nil
}

func (f *fakeAPI) Me(_ context.Context, token string) (*user.Profile, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	email, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, &api.Error{Status: http.StatusUnauthorized, Code: 3302, Message: "Please sign in to continue."}
	}
	p := profileFor(email)
	return &p, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, token, firstName, lastName, avatar string) (*user.Profile, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	email, _ := strings.CutPrefix(token, "token-")
	p := profileFor(email)
	p.FirstName, p.LastName, p.Avatar = firstName, lastName, avatar
	return &p, nil
}

func (f *fakeAPI) ChangePassword(_ context.Context, token, current, newPassword string) (string, error) {
	if err := f.begin(); err != nil {
		return "", err
	}
	return token + "-rotated", nil
}

// manualScheduler records scheduled tasks and runs them only when fired.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (s *manualScheduler) schedule(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

// fireAll runs every scheduled task, including stopped ones, to prove cancellation does not
// depend on Stop winning the race.
func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, t := range tasks {
		t.f()
	}
}

type harness struct {
	app       *App
	api       *fakeAPI
	tokens    *localstore.Store
	scheduler *manualScheduler

	mu      sync.Mutex
	notices []Notification
	snaps   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	tokens, err := localstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokens.Close() })

	h := &harness{api: newFakeAPI(), tokens: tokens, scheduler: &manualScheduler{}}
	h.app = New(h.api, tokens,
		WithScheduler(h.scheduler.schedule),
		WithNotifier(func(n Notification) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.notices = append(h.notices, n)
		}),
		WithObserver(func(Snapshot) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.snaps++
		}),
	)
	return h
}

func (h *harness) lastNotice() Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notices) == 0 {
		return Notification{}
	}
	return h.notices[len(h.notices)-1]
}

func (h *harness) snapshotCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snaps
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.app.Register(context.Background(), "alice", "alice@x.com", "secret1", "secret1"))
}

func TestLandingTransitions(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, ViewLandingHome, h.app.Snapshot().View)

	h.app.ShowAuth()
	assert.Equal(t, ViewLandingAuth, h.app.Snapshot().View)

	h.app.ShowHome()
	assert.Equal(t, ViewLandingHome, h.app.Snapshot().View)

	h.signIn(t)
	h.app.ShowAuth()
	assert.Equal(t, ViewChatNoRoom, h.app.Snapshot().View)
}

func TestRegisterAlice(t *testing.T) {
	h := newHarness(t)
	h.app.ShowAuth()

	require.NoError(t, h.app.Register(context.Background(), "Alice", "alice@x.com", "secret1", "secret1"))

	snap := h.app.Snapshot()
	assert.Equal(t, ViewChatNoRoom, snap.View)
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice@x.com", snap.User.Email)
	assert.Len(t, snap.Rooms, len(defaultMockData.Rooms))
	assert.Nil(t, snap.ActiveRoom)

	token, err := h.tokens.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-alice@x.com", token)
	assert.Equal(t, NotifySuccess, h.lastNotice().Kind)
}

func TestRegisterClientValidation(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantErr  error
	}{
		{"mismatch", "secret1", "secret2", ErrPasswordMismatch},
		{"too short", "abc", "abc", ErrPasswordTooShort},
		{"empty", "", "", ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.app.ShowAuth()

			err := h.app.Register(context.Background(), "alice", "alice@x.com", tt.password, tt.confirm)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, h.api.calls)
			assert.Equal(t, ViewLandingAuth, h.app.Snapshot().View)
			assert.Equal(t, NotifyError, h.lastNotice().Kind)
			assert.Equal(t, Describe(tt.wantErr), h.lastNotice().Message)
		})
	}
}

func TestFailedLoginLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	room, err := h.app.CreateRoom("Team", "", "")
	require.NoError(t, err)
	_, err = h.app.SendMessage("hello")
	require.NoError(t, err)

	before := h.app.Snapshot()
	snapsBefore := h.snapshotCount()

	err = h.app.Login(context.Background(), "alice@x.com", "wrong-password")

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, before, h.app.Snapshot())
	assert.Equal(t, snapsBefore, h.snapshotCount())
	assert.Equal(t, "Invalid email or password.", h.lastNotice().Message)
	assert.Equal(t, room.ID, h.app.Snapshot().ActiveRoom.ID)
}

func TestLoginNetworkFailure(t *testing.T) {
	h := newHarness(t)
	h.api.down = true

	err := h.app.Login(context.Background(), "alice@x.com", "secret1")

	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Equal(t, ViewLandingHome, h.app.Snapshot().View)
	assert.Equal(t, "Unable to reach the server. Please try again.", h.lastNotice().Message)
}

func TestCreateRoomTeam(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	before := len(h.app.Snapshot().Rooms)

	room, err := h.app.CreateRoom("Team", "", "Our team room")
	require.NoError(t, err)

	snap := h.app.Snapshot()
	assert.Equal(t, ViewChatRoom, snap.View)
	assert.Len(t, snap.Rooms, before+1)
	assert.Equal(t, room, snap.Rooms[len(snap.Rooms)-1])
	require.NotNil(t, snap.ActiveRoom)
	assert.Equal(t, room.ID, snap.ActiveRoom.ID)
	assert.Len(t, room.Code, 6)

	require.Len(t, snap.Messages, 1)
	assert.Equal(t, ReplySender, snap.Messages[0].SenderName)
	assert.False(t, snap.Messages[0].Sent)
	assert.Contains(t, snap.Messages[0].Body, "Team")
}

func TestCreateRoomCodes(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	room, err := h.app.CreateRoom("Lower", " abc123 ", "")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", room.Code)

	_, err = h.app.CreateRoom("Again", "ABC123", "")
	assert.ErrorIs(t, err, ErrRoomCodeTaken)

	_, err = h.app.CreateRoom("Bad", "AB-12", "")
	assert.ErrorIs(t, err, ErrInvalidRoomCode)

	_, err = h.app.CreateRoom("  ", "", "")
	assert.ErrorIs(t, err, ErrRoomNameRequired)
}

func TestCreateRoomRequiresSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.app.CreateRoom("Team", "", "")

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, h.app.Snapshot().Rooms)
}

func TestJoinRoom(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	before := h.app.Snapshot().Rooms

	_, err := h.app.JoinRoom("ABC")
	assert.ErrorIs(t, err, ErrInvalidRoomCode)
	assert.Equal(t, before, h.app.Snapshot().Rooms)
	assert.Equal(t, "Invalid room code. Please check and try again.", h.lastNotice().Message)

	existing, err := h.app.JoinRoom("gen001")
	require.NoError(t, err)
	assert.Equal(t, "room-general", existing.ID)
	assert.Len(t, h.app.Snapshot().Rooms, len(before))
	assert.Equal(t, "room-general", h.app.Snapshot().ActiveRoom.ID)

	joined, err := h.app.JoinRoom("zz9zz9")
	require.NoError(t, err)
	assert.Equal(t, "ZZ9ZZ9", joined.Code)

	snap := h.app.Snapshot()
	assert.Len(t, snap.Rooms, len(before)+1)
	assert.Equal(t, joined.ID, snap.ActiveRoom.ID)
	assert.Equal(t, ViewChatRoom, snap.View)
}

func TestSelectAndLeaveRoom(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	require.NoError(t, h.app.SelectRoom("room-design"))
	snap := h.app.Snapshot()
	assert.Equal(t, ViewChatRoom, snap.View)
	assert.Equal(t, "Design Review", snap.ActiveRoom.Name)
	require.NotEmpty(t, snap.Messages)
	assert.True(t, snap.Messages[0].Read)

	assert.ErrorIs(t, h.app.SelectRoom("missing"), ErrRoomNotFound)

	require.NoError(t, h.app.LeaveRoom())
	snap = h.app.Snapshot()
	assert.Equal(t, ViewChatNoRoom, snap.View)
	assert.Nil(t, snap.ActiveRoom)
	assert.Len(t, snap.Rooms, len(defaultMockData.Rooms))

	assert.ErrorIs(t, h.app.LeaveRoom(), ErrNoActiveRoom)
}

func TestSendMessageSchedulesReply(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	require.NoError(t, h.app.SelectRoom("room-random"))

	sent, err := h.app.SendMessage("  hi there  ")
	require.NoError(t, err)
	assert.Equal(t, "hi there", sent.Body)
	assert.True(t, sent.Sent)

	snap := h.app.Snapshot()
	assert.True(t, snap.Typing)
	assert.Equal(t, "hi there", snap.ActiveRoom.LastMessage)
	require.Len(t, h.scheduler.tasks, 1)
	assert.Equal(t, DefaultReplyDelay, h.scheduler.tasks[0].delay)

	h.scheduler.fireAll()

	snap = h.app.Snapshot()
	assert.False(t, snap.Typing)
	require.Len(t, snap.Messages, 2)
	reply := snap.Messages[1]
	assert.Equal(t, ReplyBody, reply.Body)
	assert.Equal(t, ReplySender, reply.SenderName)
	assert.False(t, reply.Sent)
	assert.Equal(t, ReplyBody, snap.ActiveRoom.LastMessage)
}

func TestSendMessageValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	_, err := h.app.SendMessage("hello")
	assert.ErrorIs(t, err, ErrNoActiveRoom)

	require.NoError(t, h.app.SelectRoom("room-random"))
	_, err = h.app.SendMessage("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, h.app.Snapshot().Messages)
}

func TestReplyCancelledOnLeave(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	require.NoError(t, h.app.SelectRoom("room-random"))

	_, err := h.app.SendMessage("hello")
	require.NoError(t, err)

	require.NoError(t, h.app.LeaveRoom())
	assert.False(t, h.app.Snapshot().Typing)

	h.scheduler.fireAll()

	require.NoError(t, h.app.SelectRoom("room-random"))
	msgs := h.app.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Body)
}

func TestReplyCancelledOnSelectingAnotherRoom(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	require.NoError(t, h.app.SelectRoom("room-random"))

	_, err := h.app.SendMessage("hello")
	require.NoError(t, err)

	require.NoError(t, h.app.SelectRoom("room-random"))
	assert.True(t, h.app.Snapshot().Typing, "reselecting the same room keeps the reply")

	require.NoError(t, h.app.SelectRoom("room-general"))
	h.scheduler.fireAll()

	require.NoError(t, h.app.SelectRoom("room-random"))
	assert.Len(t, h.app.Snapshot().Messages, 1)
}

func TestLogoutCancelsReplyAndClearsState(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	_, err := h.app.CreateRoom("Team", "", "")
	require.NoError(t, err)
	_, err = h.app.SendMessage("hello")
	require.NoError(t, err)

	h.app.Logout()
	h.scheduler.fireAll()

	snap := h.app.Snapshot()
	assert.Equal(t, ViewLandingHome, snap.View)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Rooms)
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.Typing)

	token, err := h.tokens.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestReplyWithRealTimer(t *testing.T) {
	h := newHarness(t)
	h.app.schedule = realScheduler
	h.app.replyDelay = 10 * time.Millisecond
	h.signIn(t)
	require.NoError(t, h.app.SelectRoom("room-random"))

	_, err := h.app.SendMessage("hello")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		msgs := h.app.Snapshot().Messages
		return len(msgs) == 2 && msgs[1].Body == ReplyBody
	}, time.Second, 5*time.Millisecond)
}

func TestRestore(t *testing.T) {
	h := newHarness(t)

	ok, err := h.app.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, h.api.calls)

	require.NoError(t, h.tokens.SetToken("token-bob@x.com"))
	ok, err = h.app.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	snap := h.app.Snapshot()
	assert.Equal(t, ViewChatNoRoom, snap.View)
	assert.Equal(t, "bob@x.com", snap.User.Email)
}

func TestRestoreClearsRejectedToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.SetToken("forged"))

	ok, err := h.app.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ViewLandingHome, h.app.Snapshot().View)

	token, err := h.tokens.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRestoreKeepsTokenOnNetworkError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.SetToken("token-bob@x.com"))
	h.api.down = true

	ok, err := h.app.Restore(context.Background())
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.False(t, ok)

	token, err := h.tokens.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-bob@x.com", token)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	err := h.app.UpdateProfile(context.Background(), "Alice", " ", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	avatar := h.app.AvatarOptions()[2]
	require.NoError(t, h.app.UpdateProfile(context.Background(), "Alice", "Smith", avatar))

	snap := h.app.Snapshot()
	assert.Equal(t, "Smith", snap.User.LastName)
	assert.Equal(t, avatar, snap.User.Avatar)
	assert.Equal(t, "Profile updated successfully!", h.lastNotice().Message)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	err := h.app.ChangePassword(context.Background(), "secret1", "newpass", "other")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = h.app.ChangePassword(context.Background(), "secret1", "abc", "abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	require.NoError(t, h.app.ChangePassword(context.Background(), "secret1", "newpass", "newpass"))

	token, err := h.tokens.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-alice@x.com-rotated", token)
}

func TestProfileActionsRequireSession(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.app.UpdateProfile(context.Background(), "A", "B", ""), ErrNotAuthenticated)
	assert.ErrorIs(t, h.app.ChangePassword(context.Background(), "a", "bbbbbb", "bbbbbb"), ErrNotAuthenticated)
	assert.Equal(t, 0, h.api.calls)
}

func TestParticipants(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	_, err := h.app.Participants()
	assert.ErrorIs(t, err, ErrNoActiveRoom)

	_, err = h.app.CreateRoom("Solo", "", "")
	require.NoError(t, err)
	people, err := h.app.Participants()
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.True(t, people[0].Host)
	assert.True(t, people[0].Online)

	require.NoError(t, h.app.SelectRoom("room-general"))
	people, err = h.app.Participants()
	require.NoError(t, err)
	assert.Len(t, people, len(defaultMockData.Participants)+1)
	assert.False(t, people[0].Host)
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	snap := h.app.Snapshot()
	snap.Rooms[0].Name = "mutated"
	snap.User.Email = "mutated"

	fresh := h.app.Snapshot()
	assert.NotEqual(t, "mutated", fresh.Rooms[0].Name)
	assert.Equal(t, "alice@x.com", fresh.User.Email)
}

func TestParseMockData(t *testing.T) {
	data, err := ParseMockData(mockdataYAML)
	require.NoError(t, err)
	assert.NotEmpty(t, data.Rooms)
	assert.NotEmpty(t, data.Participants)
	assert.Len(t, data.AvatarOptions, 8)

	_, err = ParseMockData([]byte("rooms:\n  - id: r1\n    name: Bad\n    code: nope\n"))
	assert.Error(t, err)

	_, err = ParseMockData([]byte("rooms:\n  - id: r1\n    name: A\n    code: AAAAAA\n  - id: r2\n    name: B\n    code: AAAAAA\n"))
	assert.Error(t, err)

	_, err = ParseMockData([]byte("rooms: [unterminated"))
	assert.Error(t, err)
}

// logoutOnRotate starts a Logout from inside the write of the rotated token and gives it a short
// window to finish before the write lands.
type logoutOnRotate struct {
	*localstore.Store
	app  *App
	done chan struct{}
}

func (l *logoutOnRotate) SetToken(token string) error {
	if strings.HasSuffix(token, "-rotated") && l.done == nil {
		l.done = make(chan struct{})
		go func() {
			l.app.Logout()
			close(l.done)
		}()
		select {
		case <-l.done:
		case <-time.After(50 * time.Millisecond):
		}
	}
	return l.Store.SetToken(token)
}

func TestLogoutDuringPasswordChangeKeepsTokenCleared(t *testing.T) {
	store, err := localstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens := &logoutOnRotate{Store: store}
	app := New(newFakeAPI(), tokens, WithScheduler((&manualScheduler{}).schedule))
	tokens.app = app

	require.NoError(t, app.Register(context.Background(), "alice", "alice@x.com", "secret1", "secret1"))
	require.NoError(t, app.ChangePassword(context.Background(), "secret1", "newpass", "newpass"))

	<-tokens.done

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, ViewLandingHome, app.Snapshot().View)
}
