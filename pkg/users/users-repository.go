package users

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amicimag/chapterdesk/pkg/auth"
	"github.com/mattn/go-sqlite3"
)

type UserRepository interface {
	GetAll() ([]User, error)
	GetUser(id int64) (User, error)
	Count() (int64, error)
	ExistsUsername(username string, excludeId int64) bool
	ExistsEmail(email string, excludeId int64) bool
	Add(data AddUserData, photo string) (User, error)
	Update(id int64, data EditUserData, photo string) error
	Delete(id int64) error
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username is already taken")
	ErrEmailTaken    = errors.New("email is already registered")
	ErrHasDependents = errors.New("user still has authored articles or events")
)

type userRepository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) UserRepository {
	return &userRepository{connection}
}

const userColumns = "id, username, email, role, country_id, profile_photo, active, created"

func scanUser(scanner interface{ Scan(...any) error }) (user User, err error) {
	var countryId sql.NullInt64
	var photo sql.NullString
	if err = scanner.Scan(
		&user.Id, &user.Username, &user.Email, &user.Role, &countryId, &photo, &user.Active, &user.Created,
	); err != nil {
		return user, err
	}
	user.CountryId = countryId.Int64
	user.ProfilePhoto = photo.String
	return user, nil
}

func (ur *userRepository) GetAll() (users []User, err error) {

	// initialise an empty slice to avoid null serialisation
	users = make([]User, 0)

	rows, err := ur.Connection.Query("SELECT " + userColumns + " FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return users, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return users, err
	}
	return users, rows.Close()
}

func (ur *userRepository) GetUser(id int64) (User, error) {
	user, err := scanUser(ur.Connection.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

func (ur *userRepository) Count() (count int64, err error) {
	err = ur.Connection.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func (ur *userRepository) ExistsUsername(username string, excludeId int64) (exists bool) {
	// will return false in the absence of positive results
	err := ur.Connection.QueryRow(
		"SELECT TRUE FROM users WHERE username = ? AND id != ?", username, excludeId,
	).Scan(&exists)
	return err == nil && exists
}

func (ur *userRepository) ExistsEmail(email string, excludeId int64) (exists bool) {
	err := ur.Connection.QueryRow(
		"SELECT TRUE FROM users WHERE email = ? AND id != ?", email, excludeId,
	).Scan(&exists)
	return err == nil && exists
}

func (ur *userRepository) Add(data AddUserData, photo string) (user User, err error) {

	hash, err := auth.HashPassword(data.Password)
	if err != nil {
		return user, fmt.Errorf("couldn't hash password for %q: %w", data.Username, err)
	}

	var now = time.Now().UTC()
	result, err := ur.Connection.Exec(`
		INSERT INTO users (username, email, password_hash, role, country_id, profile_photo, active, created)
		VALUES (?, ?, ?, ?, ?, ?, TRUE, ?)`,
		data.Username, data.Email, hash, data.Role, nullable(data.CountryId), nullableString(photo), now,
	)
	if err != nil {
		return user, mapConstraintError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return user, err
	}

	return User{
		Id:           id,
		Username:     data.Username,
		Email:        data.Email,
		Role:         data.Role,
		CountryId:    data.CountryId,
		ProfilePhoto: photo,
		Active:       true,
		Created:      now,
	}, nil
}

// Update applies the given changes; an empty photo keeps the stored one, an empty password the stored hash.
func (ur *userRepository) Update(id int64, data EditUserData, photo string) error {

	tx, err := ur.Connection.Begin()
	if err != nil {
		return err
	}

	// rolling back after a transaction commit will result in a safe NOP
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE users SET username = ?, email = ?, role = ?, country_id = ?, active = ? WHERE id = ?`,
		data.Username, data.Email, data.Role, nullable(data.CountryId), data.Active, id,
	)
	if err != nil {
		return mapConstraintError(err)
	}

	if photo != "" {
		if _, err = tx.Exec("UPDATE users SET profile_photo = ? WHERE id = ?", photo, id); err != nil {
			return err
		}
	}

	if data.Password != "" {
		hash, err := auth.HashPassword(data.Password)
		if err != nil {
			return err
		}
		if _, err = tx.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (ur *userRepository) Delete(id int64) error {
	result, err := ur.Connection.Exec("DELETE FROM users WHERE id = ?", id)

	// rows referencing the user, such as authored articles, block the deletion
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return ErrHasDependents
	}
	if err != nil {
		return err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// mapConstraintError turns SQLite uniqueness violations into domain errors; the uniqueness pre-checks in the
// handlers cover the common cases, this covers the races they can't.
func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		if strings.Contains(sqliteErr.Error(), "users.email") {
			return ErrEmailTaken
		}
		return ErrUsernameTaken
	}
	return err
}

func nullable(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
