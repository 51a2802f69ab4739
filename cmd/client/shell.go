package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"echospace/internal/app/user"
	"echospace/internal/client/api"
	"echospace/internal/client/state"
)

// historyLines is how many messages are printed when a room is opened.
const historyLines = 20

const helpText = `Commands:
  /signin                     open the sign-in screen (landing page)
  /login, /register, /back    sign in, create an account, return to the landing page
  /rooms                      list your rooms
  /create [name]              create a room
  /join <code>                join a room by its 6 character code
  /open <number|code>         open a room from /rooms
  /leave                      close the current room
  /people                     show the participants of the current room
  /profile                    edit your name and avatar
  /avatar <file>              upload an avatar image
  /password                   change your password
  /logout                     sign out
  /help, /quit
Any other text inside a room is sent as a message.
`

// avatarPresigner issues presigned avatar upload URLs. *api.Client implements it.
type avatarPresigner interface {
	PresignAvatar(ctx context.Context, token, fileName, mimeType string, fileSize int64) (*api.PresignResult, error)
}

type shell struct {
	in      *bufio.Scanner
	out     io.Writer
	outMu   sync.Mutex
	api     avatarPresigner
	tokens  state.TokenStore
	app     *state.App
	uploads *http.Client

	// readSecret reads a password without echo. Nil reads a plain line.
	readSecret func() ([]byte, error)

	// render state, guarded by mu
	mu        sync.Mutex
	lastView  state.View
	shownRoom string
	shown     int
	typing    bool
}

func newShell(in io.Reader, out io.Writer, presigner avatarPresigner, tokens state.TokenStore) *shell {
	return &shell{
		in:      bufio.NewScanner(in),
		out:     out,
		api:     presigner,
		tokens:  tokens,
		uploads: &http.Client{Timeout: time.Minute},
	}
}

// withTerminal hides password input when f is a terminal.
func (s *shell) withTerminal(f *os.File) *shell {
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		s.readSecret = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return s
}

func (s *shell) run(ctx context.Context) error {
	s.printf("EchoSpace terminal client. Type /help for commands.\n")

	if ok, _ := s.app.Restore(ctx); !ok {
		s.onSnapshot(s.app.Snapshot())
	}

	for {
		line, ok := s.readLine("> ")
		if !ok {
			return s.in.Err()
		}
		if line == "" {
			continue
		}
		if quit := s.dispatch(ctx, line); quit {
			return nil
		}
	}
}

func (s *shell) dispatch(ctx context.Context, line string) bool {
	snap := s.app.Snapshot()

	if !strings.HasPrefix(line, "/") {
		if snap.View != state.ViewChatRoom {
			s.printf("Unknown input. Type /help for commands.\n")
			return false
		}
		_, _ = s.app.SendMessage(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "help":
		s.printf("%s", helpText)
	case "quit", "exit":
		return true
	case "signin":
		s.app.ShowAuth()
	case "back":
		s.app.ShowHome()
	case "login":
		s.login(ctx)
	case "register":
		s.register(ctx)
	case "rooms":
		s.listRooms(snap)
	case "create":
		s.createRoom(arg)
	case "join":
		if arg == "" {
			arg, _ = s.readLine("Room code: ")
		}
		_, _ = s.app.JoinRoom(arg)
	case "open":
		s.openRoom(snap, arg)
	case "leave":
		_ = s.app.LeaveRoom()
	case "people":
		s.listParticipants()
	case "profile":
		s.editProfile(ctx, snap)
	case "avatar":
		s.uploadAvatar(ctx, arg)
	case "password":
		s.changePassword(ctx)
	case "logout":
		s.app.Logout()
	default:
		s.printf("Unknown command /%s. Type /help for commands.\n", cmd)
	}
	return false
}

func (s *shell) login(ctx context.Context) {
	if s.app.Snapshot().View.IsChat() {
		s.printf("You are already signed in.\n")
		return
	}
	s.app.ShowAuth()

	email, _ := s.readLine("Email: ")
	password := s.readPassword("Password: ")
	_ = s.app.Login(ctx, email, password)
}

func (s *shell) register(ctx context.Context) {
	if s.app.Snapshot().View.IsChat() {
		s.printf("You are already signed in.\n")
		return
	}
	s.app.ShowAuth()

	username, _ := s.readLine("Username: ")
	email, _ := s.readLine("Email: ")
	password := s.readPassword("Password: ")
	confirm := s.readPassword("Confirm password: ")
	_ = s.app.Register(ctx, username, email, password, confirm)
}

func (s *shell) listRooms(snap state.Snapshot) {
	if len(snap.Rooms) == 0 {
		s.printf("No rooms yet. Use /create or /join.\n")
		return
	}
	for i, r := range snap.Rooms {
		marker := " "
		if snap.ActiveRoom != nil && snap.ActiveRoom.ID == r.ID {
			marker = "*"
		}
		s.printf("%s %2d. %-20s %s  %d online  %s\n", marker, i+1, r.Name, r.Code, r.ParticipantCount, truncate(r.LastMessage, 40))
	}
}

func (s *shell) createRoom(name string) {
	if name == "" {
		name, _ = s.readLine("Room name: ")
	}
	code, _ := s.readLine("Room code (blank to generate): ")
	description, _ := s.readLine("Description (optional): ")
	_, _ = s.app.CreateRoom(name, code, description)
}

func (s *shell) openRoom(snap state.Snapshot, arg string) {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(snap.Rooms) {
		_ = s.app.SelectRoom(snap.Rooms[n-1].ID)
		return
	}
	for _, r := range snap.Rooms {
		if strings.EqualFold(r.Code, arg) {
			_ = s.app.SelectRoom(r.ID)
			return
		}
	}
	s.printf("No room %q in your list. Use /rooms or /join.\n", arg)
}

func (s *shell) listParticipants() {
	people, err := s.app.Participants()
	if err != nil {
		s.printf("! %s\n", state.Describe(err))
		return
	}
	for _, p := range people {
		tags := ""
		if p.Host {
			tags += " (host)"
		}
		if p.Online {
			tags += " online"
		}
		s.printf("  %s%s\n", p.Name, tags)
	}
}

func (s *shell) editProfile(ctx context.Context, snap state.Snapshot) {
	if snap.User == nil {
		s.printf("! %s\n", state.Describe(state.ErrNotAuthenticated))
		return
	}
	u := snap.User
	s.printf("%s <%s>, member since %s\n", u.Username, u.Email, u.CreatedAt.Format("Jan 2006"))

	first, last := u.FirstName, u.LastName
	if first == "" && last == "" {
		first, last = user.SplitName(u.Username)
	}

	if v, _ := s.readLine(fmt.Sprintf("First name [%s]: ", first)); v != "" {
		first = v
	}
	if v, _ := s.readLine(fmt.Sprintf("Last name [%s]: ", last)); v != "" {
		last = v
	}

	options := s.app.AvatarOptions()
	for i, o := range options {
		s.printf("  %d. %s\n", i+1, o)
	}
	avatar := u.Avatar
	if v, _ := s.readLine("Avatar (number or URL, blank to keep): "); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(options) {
			avatar = options[n-1]
		} else {
			avatar = v
		}
	}

	_ = s.app.UpdateProfile(ctx, first, last, avatar)
}

// uploadAvatar puts the file at path into object storage through a presigned URL and saves
// the resulting public URL as the avatar.
func (s *shell) uploadAvatar(ctx context.Context, path string) {
	snap := s.app.Snapshot()
	if snap.User == nil {
		s.printf("! %s\n", state.Describe(state.ErrNotAuthenticated))
		return
	}
	if path == "" {
		path, _ = s.readLine("Image file: ")
	}

	// Both names must be known before anything is uploaded.
	first, last := snap.User.FirstName, snap.User.LastName
	if first == "" && last == "" {
		first, last = user.SplitName(snap.User.Username)
	}
	if first == "" {
		first, _ = s.readLine("First name: ")
	}
	if last == "" {
		last, _ = s.readLine("Last name: ")
	}
	if first == "" || last == "" {
		s.printf("! %s\n", state.Describe(state.ErrNameRequired))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.printf("! Cannot open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.printf("! Cannot read %s: %v\n", path, err)
		return
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	token, err := s.tokens.Token()
	if err != nil || token == "" {
		s.printf("! %s\n", state.Describe(state.ErrNotAuthenticated))
		return
	}

	presigned, err := s.api.PresignAvatar(ctx, token, filepath.Base(path), mimeType, info.Size())
	if err != nil {
		s.printf("! %s\n", state.Describe(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presigned.PresignedURL, f)
	if err != nil {
		s.printf("! Upload failed: %v\n", err)
		return
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", mimeType)

	resp, err := s.uploads.Do(req)
	if err != nil {
		s.printf("! Upload failed: %v\n", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.printf("! Upload failed: %s\n", resp.Status)
		return
	}

	_ = s.app.UpdateProfile(ctx, first, last, presigned.PublicURL)
}

func (s *shell) changePassword(ctx context.Context) {
	if !s.app.Snapshot().View.IsChat() {
		s.printf("! %s\n", state.Describe(state.ErrNotAuthenticated))
		return
	}
	current := s.readPassword("Current password: ")
	next := s.readPassword("New password: ")
	confirm := s.readPassword("Confirm new password: ")
	_ = s.app.ChangePassword(ctx, current, next, confirm)
}

func (s *shell) onNotification(n state.Notification) {
	prefix := "-"
	switch n.Kind {
	case state.NotifySuccess:
		prefix = "+"
	case state.NotifyError:
		prefix = "!"
	}
	s.printf("%s %s\n", prefix, n.Message)
}

// onSnapshot prints what changed since the last snapshot: the screen, the open room and new
// messages. It may run on a timer goroutine.
func (s *shell) onSnapshot(snap state.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.View != s.lastView {
		s.lastView = snap.View
		s.printView(snap)
	}

	activeID := ""
	if snap.ActiveRoom != nil {
		activeID = snap.ActiveRoom.ID
	}

	if activeID != s.shownRoom {
		s.shownRoom = activeID
		s.shown = max(0, len(snap.Messages)-historyLines)
		if snap.ActiveRoom != nil {
			r := snap.ActiveRoom
			s.printf("== %s  [%s]  %d participants ==\n", r.Name, r.Code, r.ParticipantCount)
			if r.Description != "" {
				s.printf("   %s\n", r.Description)
			}
		}
	}

	if s.shown > len(snap.Messages) {
		s.shown = 0
	}
	for _, m := range snap.Messages[s.shown:] {
		s.printMessage(m)
	}
	s.shown = len(snap.Messages)

	if snap.Typing && !s.typing {
		s.printf("   %s is typing...\n", state.ReplySender)
	}
	s.typing = snap.Typing
}

func (s *shell) printView(snap state.Snapshot) {
	switch snap.View {
	case state.ViewLandingHome:
		s.printf("\nWelcome to EchoSpace. Real-time rooms, no setup.\nType /signin to get started or /quit to exit.\n")
	case state.ViewLandingAuth:
		s.printf("\nSign in with /login or create an account with /register. /back returns home.\n")
	case state.ViewChatNoRoom:
		if snap.User != nil {
			s.printf("\nSigned in as %s. You have %d rooms: /rooms, /open, /create, /join.\n", snap.User.Username, len(snap.Rooms))
		}
	}
}

func (s *shell) printMessage(m state.Message) {
	sender := m.SenderName
	if m.Sent {
		sender = "you"
	}
	s.printf("[%s] %s: %s\n", m.Timestamp.Format("15:04"), sender, m.Body)
}

func (s *shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) readLine(prompt string) (string, bool) {
	s.printf("%s", prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// readPassword reads a line without echo when stdin is a terminal.
func (s *shell) readPassword(prompt string) string {
	if s.readSecret == nil {
		line, _ := s.readLine(prompt)
		return line
	}

	s.printf("%s", prompt)
	raw, err := s.readSecret()
	s.printf("\n")
	if err != nil {
		return ""
	}
	return string(raw)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
