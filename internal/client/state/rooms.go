package state

import (
	"fmt"
	"strings"

	"echospace/internal/pkg/randx"
)

// maxCodeAttempts bounds the search for an unused generated join code.
const maxCodeAttempts = 32

// CreateRoom adds a room and makes it active. An empty code is generated; a chosen code is
// upper-cased and must be valid and not already used by a local room.
func (a *App) CreateRoom(name, code, description string) (Room, error) {
	name = strings.TrimSpace(name)
	code = randx.NormalizeRoomCode(code)
	description = strings.TrimSpace(description)

	a.mu.Lock()

	if a.user == nil {
		a.mu.Unlock()
		return Room{}, a.fail(ErrNotAuthenticated)
	}
	if name == "" {
		a.mu.Unlock()
		return Room{}, a.fail(ErrRoomNameRequired)
	}

	if code == "" {
		generated, err := a.unusedCodeLocked()
		if err != nil {
			a.mu.Unlock()
			return Room{}, a.fail(err)
		}
		code = generated
	} else {
		if !randx.IsValidRoomCode(code) {
			a.mu.Unlock()
			return Room{}, a.fail(ErrInvalidRoomCode)
		}
		if a.roomByCodeLocked(code) != nil {
			a.mu.Unlock()
			return Room{}, a.fail(ErrRoomCodeTaken)
		}
	}

	welcome := Message{
		ID:         randx.ID(),
		Body:       fmt.Sprintf("Welcome to %s! Share the code %s to invite others.", name, code),
		Timestamp:  a.now(),
		Read:       true,
		SenderName: ReplySender,
	}

	room := Room{
		ID:               randx.ID(),
		Name:             name,
		Code:             code,
		Description:      description,
		ParticipantCount: 1,
		LastMessage:      welcome.Body,
		Owned:            true,
	}
	welcome.RoomID = room.ID

	a.cancelRepliesLocked()
	a.rooms = append(a.rooms, room)
	a.messages[room.ID] = []Message{welcome}
	a.activeID = room.ID
	a.view = ViewChatRoom
	a.commit()

	a.notify(NotifySuccess, fmt.Sprintf("Room %q created. Code: %s", name, code))
	return room, nil
}

// JoinRoom selects the local room with code, or fabricates one for a well-formed code.
// A malformed code changes nothing.
func (a *App) JoinRoom(code string) (Room, error) {
	code = randx.NormalizeRoomCode(code)

	a.mu.Lock()

	if a.user == nil {
		a.mu.Unlock()
		return Room{}, a.fail(ErrNotAuthenticated)
	}

	if existing := a.roomByCodeLocked(code); existing != nil {
		room := *existing
		a.activateLocked(room.ID)
		a.commit()

		a.notify(NotifyInfo, fmt.Sprintf("Switched to %s.", room.Name))
		return room, nil
	}

	if !randx.IsValidRoomCode(code) {
		a.mu.Unlock()
		return Room{}, a.fail(ErrInvalidRoomCode)
	}

	room := Room{
		ID:               randx.ID(),
		Name:             "Room " + code,
		Code:             code,
		ParticipantCount: len(a.mock.Participants) + 1,
	}

	a.rooms = append(a.rooms, room)
	a.messages[room.ID] = nil
	a.activateLocked(room.ID)
	a.commit()

	a.notify(NotifySuccess, fmt.Sprintf("Joined room %s.", code))
	return room, nil
}

// SelectRoom makes the room with id active.
func (a *App) SelectRoom(id string) error {
	a.mu.Lock()

	if a.user == nil {
		a.mu.Unlock()
		return a.fail(ErrNotAuthenticated)
	}
	if a.roomLocked(id) == nil {
		a.mu.Unlock()
		return a.fail(ErrRoomNotFound)
	}

	a.activateLocked(id)
	a.commit()
	return nil
}

// LeaveRoom clears the active room. The room stays in the list.
func (a *App) LeaveRoom() error {
	a.mu.Lock()

	if a.activeID == "" {
		a.mu.Unlock()
		return a.fail(ErrNoActiveRoom)
	}

	a.cancelRepliesLocked()
	a.activeID = ""
	a.view = ViewChatNoRoom
	a.commit()
	return nil
}

// activateLocked switches the active room, cancelling replies pending for another room and
// marking the new thread as read.
func (a *App) activateLocked(id string) {
	if a.activeID != id {
		a.cancelRepliesLocked()
	}

	thread := a.messages[id]
	for i := range thread {
		thread[i].Read = true
	}

	a.activeID = id
	a.view = ViewChatRoom
}

// SendMessage appends a sent message to the active room and schedules the simulated reply.
func (a *App) SendMessage(body string) (Message, error) {
	body = strings.TrimSpace(body)

	a.mu.Lock()

	room := a.activeRoomLocked()
	if room == nil {
		a.mu.Unlock()
		return Message{}, a.fail(ErrNoActiveRoom)
	}
	if body == "" {
		a.mu.Unlock()
		return Message{}, a.fail(ErrEmptyMessage)
	}

	msg := Message{
		ID:        randx.ID(),
		RoomID:    room.ID,
		Body:      body,
		Timestamp: a.now(),
		Sent:      true,
		Read:      true,
	}
	if a.user != nil {
		msg.SenderName = a.user.Username
		msg.SenderAvatar = a.user.Avatar
	}

	a.messages[room.ID] = append(a.messages[room.ID], msg)
	room.LastMessage = body

	a.scheduleReplyLocked(room.ID)
	a.commit()

	return msg, nil
}

func (a *App) scheduleReplyLocked(roomID string) {
	a.nextReply++
	id := a.nextReply

	a.pending[id] = a.schedule(a.replyDelay, func() {
		a.deliverReply(id, roomID)
	})
}

func (a *App) deliverReply(id uint64, roomID string) {
	a.mu.Lock()

	if _, ok := a.pending[id]; !ok {
		a.mu.Unlock()
		return
	}
	delete(a.pending, id)

	room := a.roomLocked(roomID)
	if room == nil {
		a.mu.Unlock()
		return
	}

	reply := Message{
		ID:         randx.ID(),
		RoomID:     roomID,
		Body:       ReplyBody,
		Timestamp:  a.now(),
		Read:       a.activeID == roomID,
		SenderName: ReplySender,
	}

	a.messages[roomID] = append(a.messages[roomID], reply)
	room.LastMessage = reply.Body
	a.commit()
}

// Participants returns the participant drawer entries of the active room.
func (a *App) Participants() ([]Participant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	room := a.activeRoomLocked()
	if room == nil {
		return nil, ErrNoActiveRoom
	}

	out := make([]Participant, 0, room.ParticipantCount)
	if a.user != nil {
		out = append(out, Participant{
			ID:     a.user.ID,
			Name:   a.user.Username,
			Avatar: a.user.Avatar,
			Online: true,
			Host:   room.Owned,
		})
	}

	for _, p := range a.mock.Participants {
		if len(out) >= room.ParticipantCount {
			break
		}
		out = append(out, p)
	}

	return out, nil
}

func (a *App) roomByCodeLocked(code string) *Room {
	for i := range a.rooms {
		if a.rooms[i].Code == code {
			return &a.rooms[i]
		}
	}
	return nil
}

func (a *App) unusedCodeLocked() (string, error) {
	for range maxCodeAttempts {
		code, err := randx.RoomCode()
		if err != nil {
			return "", err
		}
		if a.roomByCodeLocked(code) == nil {
			return code, nil
		}
	}
	return "", ErrRoomCodeTaken
}
