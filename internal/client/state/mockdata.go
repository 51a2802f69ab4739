package state

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"echospace/internal/pkg/randx"
)

//go:embed mockdata.yaml
var mockdataYAML []byte

// MockData is the demo content seeded into a fresh session.
type MockData struct {
	Rooms         []MockRoom    `yaml:"rooms"`
	Participants  []Participant `yaml:"participants"`
	AvatarOptions []string      `yaml:"avatarOptions"`
}

type MockRoom struct {
	ID               string        `yaml:"id"`
	Name             string        `yaml:"name"`
	Code             string        `yaml:"code"`
	Description      string        `yaml:"description"`
	ParticipantCount int           `yaml:"participantCount"`
	Messages         []MockMessage `yaml:"messages"`
}

type MockMessage struct {
	Sender     string `yaml:"sender"`
	Avatar     string `yaml:"avatar"`
	Body       string `yaml:"body"`
	MinutesAgo int    `yaml:"minutesAgo"`
}

// ParseMockData decodes and checks a mock data document.
func ParseMockData(raw []byte) (*MockData, error) {
	var data MockData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse mock data: %w", err)
	}

	seen := make(map[string]struct{}, len(data.Rooms))
	for _, room := range data.Rooms {
		if room.ID == "" || room.Name == "" {
			return nil, fmt.Errorf("mock room %q: id and name are required", room.Code)
		}
		if !randx.IsValidRoomCode(room.Code) {
			return nil, fmt.Errorf("mock room %q: invalid code %q", room.ID, room.Code)
		}
		if _, dup := seen[room.Code]; dup {
			return nil, fmt.Errorf("mock room %q: duplicate code %q", room.ID, room.Code)
		}
		seen[room.Code] = struct{}{}
	}

	return &data, nil
}

func mustParseMockData(raw []byte) *MockData {
	data, err := ParseMockData(raw)
	if err != nil {
		panic(err)
	}
	return data
}

var defaultMockData = mustParseMockData(mockdataYAML)

// seed builds fresh room and message collections from the mock data.
func (m *MockData) seed(now time.Time) ([]Room, map[string][]Message) {
	rooms := make([]Room, 0, len(m.Rooms))
	messages := make(map[string][]Message, len(m.Rooms))

	for _, mr := range m.Rooms {
		room := Room{
			ID:               mr.ID,
			Name:             mr.Name,
			Code:             mr.Code,
			Description:      mr.Description,
			ParticipantCount: mr.ParticipantCount,
		}

		thread := make([]Message, 0, len(mr.Messages))
		for _, mm := range mr.Messages {
			thread = append(thread, Message{
				ID:           randx.ID(),
				RoomID:       mr.ID,
				Body:         mm.Body,
				Timestamp:    now.Add(-time.Duration(mm.MinutesAgo) * time.Minute),
				SenderName:   mm.Sender,
				SenderAvatar: mm.Avatar,
			})
		}
		if len(thread) > 0 {
			room.LastMessage = thread[len(thread)-1].Body
		}

		rooms = append(rooms, room)
		messages[room.ID] = thread
	}

	return rooms, messages
}
