package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"echospace/internal/app/db"
)

// PostgresStore persists accounts in the users table.
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *db.Queries
}

// NewPostgresStore wraps an open, migrated pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, queries: db.New(pool)}
}

// CreateUser inserts the account. The unique index on email makes a concurrent duplicate fail
// with ErrEmailTaken.
func (s *PostgresStore) CreateUser(ctx context.Context, params CreateParams) (*User, error) {
	row, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return fromRow(row), nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupErr("get user by email", err)
	}
	return fromRow(row), nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr("get user by id", err)
	}
	return fromRow(row), nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, params ProfileParams) (*User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row, err := s.queries.UpdateUserProfile(ctx, db.UpdateUserProfileParams{
		ID:        id,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		AvatarUrl: params.AvatarURL,
	})
	if err != nil {
		return nil, mapLookupErr("update profile", err)
	}
	return fromRow(row), nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	if !validID(id) {
		return ErrNotFound
	}
	if err := s.queries.UpdateUserPassword(ctx, id, passwordHash); err != nil {
		return mapLookupErr("update password", err)
	}
	return nil
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	if err := s.queries.UpdateLastLogin(ctx, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func mapLookupErr(op string, err error) error {
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validID rejects ids that would make the ::uuid cast fail in the query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func fromRow(row db.User) *User {
	u := &User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		AvatarURL:    row.AvatarUrl,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.LastLoginAt.Valid {
		t := row.LastLoginAt.Time
		u.LastLoginAt = &t
	}
	return u
}
