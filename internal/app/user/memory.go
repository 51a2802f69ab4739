package user

import (
	"context"
	"sync"
	"time"

	"echospace/internal/pkg/randx"
)

// MemoryStore keeps accounts in process memory. It backs development servers and tests.
type MemoryStore struct {
	mu sync.RWMutex

	// byID owns the records; byEmail indexes them by normalized email.
	byID    map[string]*User
	byEmail map[string]string

	now func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// CreateUser stores a new account unless its email is already registered.
func (s *MemoryStore) CreateUser(ctx context.Context, params CreateParams) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[params.Email]; exists {
		return nil, ErrEmailTaken
	}

	now := s.now().UTC()
	u := &User{
		ID:           randx.ID(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID

	return clone(u), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, id string, params ProfileParams) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	u.FirstName = params.FirstName
	u.LastName = params.LastName
	u.AvatarURL = params.AvatarURL
	u.UpdatedAt = s.now().UTC()

	return clone(u), nil
}

func (s *MemoryStore) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	u.PasswordHash = passwordHash
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) UpdateLastLogin(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	now := s.now().UTC()
	u.LastLoginAt = &now
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// clone hands out copies so callers cannot mutate stored records without the lock.
func clone(u *User) *User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
