package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the users table statements against a DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// User is one row of the users table.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	AvatarUrl    string
	LastLoginAt  pgtype.Timestamptz
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id::text, username, email, password_hash, first_name, last_name, avatar_url, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.AvatarUrl,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

const createUser = `
INSERT INTO users (username, email, password_hash, first_name, last_name)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.PasswordHash,
		arg.FirstName,
		arg.LastName,
	)
	return scanUser(row)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1::uuid`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

type UpdateUserProfileParams struct {
	ID        string
	FirstName string
	LastName  string
	AvatarUrl string
}

const updateUserProfile = `
UPDATE users
SET first_name = $2, last_name = $3, avatar_url = $4, updated_at = now()
WHERE id = $1::uuid
RETURNING ` + userColumns

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserProfile,
		arg.ID,
		arg.FirstName,
		arg.LastName,
		arg.AvatarUrl,
	)
	return scanUser(row)
}

const updateUserPassword = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1::uuid`

// UpdateUserPassword reports pgx.ErrNoRows when no row matched.
func (q *Queries) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := q.db.Exec(ctx, updateUserPassword, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const updateLastLogin = `UPDATE users SET last_login_at = now() WHERE id = $1::uuid`

func (q *Queries) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, updateLastLogin, id)
	return err
}
