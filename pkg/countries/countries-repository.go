package countries

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

type CountryRepository interface {
	GetAll() ([]Country, error)
	Get(id int64) (Country, error)
	ExistsName(name string, excludeId int64) bool
	ExistsCode(code string, excludeId int64) bool
	Add(data CountryData) (Country, error)
	Update(id int64, data CountryData) error
	Delete(id int64) error
}

var (
	ErrNotFound      = errors.New("country not found")
	ErrNameTaken     = errors.New("country name already exists")
	ErrCodeTaken     = errors.New("country code already exists")
	ErrHasDependents = errors.New("country still has assigned users, editions or events")
)

type countryRepository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) CountryRepository {
	return &countryRepository{connection}
}

func (cr *countryRepository) GetAll() (countries []Country, err error) {

	countries = make([]Country, 0)

	rows, err := cr.Connection.Query("SELECT id, name, code FROM countries ORDER BY name")
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var country Country
		if err = rows.Scan(&country.Id, &country.Name, &country.Code); err != nil {
			return countries, err
		}
		countries = append(countries, country)
	}

	if err = rows.Err(); err != nil {
		return countries, err
	}
	return countries, rows.Close()
}

func (cr *countryRepository) Get(id int64) (country Country, err error) {
	err = cr.Connection.QueryRow("SELECT id, name, code FROM countries WHERE id = ?", id).
		Scan(&country.Id, &country.Name, &country.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return country, ErrNotFound
	}
	return country, err
}

func (cr *countryRepository) ExistsName(name string, excludeId int64) (exists bool) {
	err := cr.Connection.QueryRow(
		"SELECT TRUE FROM countries WHERE name = ? AND id != ?", name, excludeId,
	).Scan(&exists)
	return err == nil && exists
}

func (cr *countryRepository) ExistsCode(code string, excludeId int64) (exists bool) {
	err := cr.Connection.QueryRow(
		"SELECT TRUE FROM countries WHERE code = ? AND id != ?", code, excludeId,
	).Scan(&exists)
	return err == nil && exists
}

func (cr *countryRepository) Add(data CountryData) (country Country, err error) {

	result, err := cr.Connection.Exec("INSERT INTO countries (name, code) VALUES (?, ?)", data.Name, data.Code)
	if err != nil {
		return country, mapConstraintError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return country, err
	}
	return Country{Id: id, Name: data.Name, Code: data.Code}, nil
}

func (cr *countryRepository) Update(id int64, data CountryData) error {

	result, err := cr.Connection.Exec("UPDATE countries SET name = ?, code = ? WHERE id = ?", data.Name, data.Code, id)
	if err != nil {
		return mapConstraintError(err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete refuses to remove a country while dependent users, editions or events reference it.
func (cr *countryRepository) Delete(id int64) error {

	var dependents bool
	if err := cr.Connection.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM users WHERE country_id = ?)
			OR EXISTS (SELECT 1 FROM editions WHERE country_id = ?)
			OR EXISTS (SELECT 1 FROM events WHERE country_id = ?)`,
		id, id, id,
	).Scan(&dependents); err != nil {
		return err
	}
	if dependents {
		return ErrHasDependents
	}

	result, err := cr.Connection.Exec("DELETE FROM countries WHERE id = ?", id)

	// other referencing rows, such as embassy lists, surface as foreign key violations
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

func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		if strings.Contains(sqliteErr.Error(), "countries.code") {
			return ErrCodeTaken
		}
		return ErrNameTaken
	}
	return err
}
