/*
Package state is the view-state controller of the EchoSpace client.

App owns every piece of client state: the current view, the signed-in user and token, the rooms,
their messages and the pending simulated replies. State changes only through App's action methods;
observers receive immutable snapshots after every change, and failures are reported as
notifications without touching the state.

Rooms and messages are local to the client. Only authentication and profile actions reach the server.
*/
package state

import (
	"errors"
	"time"

	"echospace/internal/app/user"
)

// View names the screen the client shows.
type View string

const (
	ViewLandingHome View = "landing/home"
	ViewLandingAuth View = "landing/auth"
	ViewChatNoRoom  View = "chat/no-room"
	ViewChatRoom    View = "chat/room"
)

// IsChat reports whether v belongs to the signed-in part of the client.
func (v View) IsChat() bool {
	return v == ViewChatNoRoom || v == ViewChatRoom
}

const (
	// MinPasswordLength mirrors the server's lower bound so obvious mistakes are caught locally.
	MinPasswordLength = 6

	// DefaultReplyDelay is how long the simulated reply takes.
	DefaultReplyDelay = time.Second

	ReplyBody   = "Got it!"
	ReplySender = "System"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMissingFields    = errors.New("missing required fields")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password too short")
	ErrNameRequired     = errors.New("first and last name required")
	ErrRoomNameRequired = errors.New("room name required")
	ErrInvalidRoomCode  = errors.New("invalid room code")
	ErrRoomCodeTaken    = errors.New("room code already used")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNoActiveRoom     = errors.New("no active room")
	ErrEmptyMessage     = errors.New("empty message")
)

// Room is a client-local chat room.
type Room struct {
	ID               string
	Name             string
	Code             string
	Description      string
	ParticipantCount int
	LastMessage      string

	// Owned marks rooms created by the current user.
	Owned bool
}

// Message is one entry of a room thread.
type Message struct {
	ID        string
	RoomID    string
	Body      string
	Timestamp time.Time

	// Sent is true for messages written by the current user.
	Sent bool
	Read bool

	SenderName   string
	SenderAvatar string
}

// Participant is an entry of the participant drawer.
type Participant struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Avatar string `yaml:"avatar"`
	Online bool   `yaml:"online"`
	Host   bool   `yaml:"host"`
}

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is a transient message for the user.
type Notification struct {
	Kind    NotificationKind
	Message string
}

// Snapshot is a copy of the state taken after a change. Mutating it has no effect on App.
type Snapshot struct {
	View       View
	User       *user.Profile
	Rooms      []Room
	ActiveRoom *Room

	// Messages is the thread of the active room.
	Messages []Message

	// Typing is true while a simulated reply is pending.
	Typing bool
}
