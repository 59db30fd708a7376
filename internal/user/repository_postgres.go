package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spintom/inserf/internal/auth"
	"github.com/spintom/inserf/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	getUserByUsernameQuery = `
		SELECT id, username, password_hash, name, role, client_id, is_active
		FROM users
		WHERE lower(username) = lower($1)
	`
	insertUserQuery = `
		INSERT INTO users (username, password_hash, name, role, client_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	var (
		u        User
		role     string
		clientID sql.NullInt64
	)
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, getUserByUsernameQuery, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &role, &clientID, &u.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	if u.Role, err = auth.ParseRole(role); err != nil {
		return User{}, err
	}
	if clientID.Valid {
		id := int(clientID.Int64)
		u.ClientID = &id
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	var clientID any
	if u.ClientID != nil {
		clientID = *u.ClientID
	}
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, insertUserQuery,
		u.Username, u.PasswordHash, u.Name, string(u.Role), clientID, u.Active).Scan(&u.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUsernameExists
		}
		return User{}, err
	}
	return u, nil
}
