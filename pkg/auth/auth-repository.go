package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrUnknownSession = errors.New("session is unknown or expired")
)

type SessionRepository interface {
	Login(data LoginData) (Session, error)
	Logout(token string) error
	ActorFromToken(token string) (Actor, error)
}

type Session struct {
	Token   string
	UserID  int64
	Role    Role
	Expires time.Time
}

type sessionRepository struct {
	Connection *sql.DB
	Duration   time.Duration
}

func NewSessionRepository(connection *sql.DB, duration time.Duration) SessionRepository {
	return &sessionRepository{connection, duration}
}

// Login matches the username case insensitively, as stored usernames keep their original casing,
// verifies the password hash and issues a fresh session token.
func (sr *sessionRepository) Login(data LoginData) (session Session, err error) {

	var userId int64
	var hash string
	var role Role
	var active bool

	err = sr.Connection.QueryRow(
		"SELECT id, password_hash, role, active FROM users WHERE lower(username) = lower(?)",
		data.Username,
	).Scan(&userId, &hash, &role, &active)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return session, ErrBadCredentials
	case err != nil:
		return session, err
	}

	if !active || !CheckPassword(hash, data.Password) {
		return session, ErrBadCredentials
	}

	token, err := uuid.NewV4()
	if err != nil {
		return session, fmt.Errorf("couldn't generate a session token: %w", err)
	}

	var now = time.Now().UTC()
	var expires = now.Add(sr.Duration)

	if _, err = sr.Connection.Exec(
		"INSERT INTO sessions (token, user_id, created, expires) VALUES (?, ?, ?, ?)",
		token.String(), userId, now, expires,
	); err != nil {
		return session, err
	}

	return Session{Token: token.String(), UserID: userId, Role: role, Expires: expires}, nil
}

func (sr *sessionRepository) Logout(token string) error {
	_, err := sr.Connection.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// ActorFromToken resolves a session token to the acting user; expired sessions are removed on sight.
func (sr *sessionRepository) ActorFromToken(token string) (actor Actor, err error) {

	var countryId sql.NullInt64
	var active bool
	var expires time.Time

	err = sr.Connection.QueryRow(`
		SELECT users.id, users.role, users.country_id, users.active, sessions.expires
		FROM sessions JOIN users ON sessions.user_id = users.id
		WHERE sessions.token = ?`,
		token,
	).Scan(&actor.ID, &actor.Role, &countryId, &active, &expires)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return actor, ErrUnknownSession
	case err != nil:
		return actor, err
	}

	if !active || time.Now().UTC().After(expires) {
		_, _ = sr.Connection.Exec("DELETE FROM sessions WHERE token = ?", token)
		return actor, ErrUnknownSession
	}

	actor.CountryID = countryId.Int64
	return actor, nil
}
