package manuals

import (
	"database/sql"
	"errors"
	"time"
)

type ManualRepository interface {
	GetAll() ([]Manual, error)
	GetForRole(role string) ([]Manual, error)
	Get(id int64) (Manual, error)
	GetByFilename(filename string) (Manual, error)
	Add(data ManualData, filename string) (Manual, error)
	Update(id int64, data ManualData) error
	Delete(id int64) error
}

var ErrNotFound = errors.New("manual not found")

type manualRepository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) ManualRepository {
	return &manualRepository{connection}
}

const manualColumns = "id, name, filename, target_role, uploaded"

func (mr *manualRepository) GetAll() ([]Manual, error) {
	return mr.query("SELECT " + manualColumns + " FROM manuals ORDER BY name")
}

// GetForRole returns the manuals addressed to everyone plus the ones targeting the given role.
func (mr *manualRepository) GetForRole(role string) ([]Manual, error) {
	return mr.query(
		"SELECT "+manualColumns+" FROM manuals WHERE target_role IN (?, ?) ORDER BY name",
		TargetAll, role,
	)
}

func (mr *manualRepository) query(statement string, args ...any) (manuals []Manual, err error) {

	manuals = make([]Manual, 0)

	rows, err := mr.Connection.Query(statement, args...)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var manual Manual
		if err = rows.Scan(&manual.Id, &manual.Name, &manual.Filename, &manual.TargetRole, &manual.Uploaded); err != nil {
			return manuals, err
		}
		manuals = append(manuals, manual)
	}

	if err = rows.Err(); err != nil {
		return manuals, err
	}
	return manuals, rows.Close()
}

func (mr *manualRepository) Get(id int64) (manual Manual, err error) {
	err = mr.Connection.QueryRow("SELECT "+manualColumns+" FROM manuals WHERE id = ?", id).
		Scan(&manual.Id, &manual.Name, &manual.Filename, &manual.TargetRole, &manual.Uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return manual, ErrNotFound
	}
	return manual, err
}

func (mr *manualRepository) GetByFilename(filename string) (manual Manual, err error) {
	err = mr.Connection.QueryRow("SELECT "+manualColumns+" FROM manuals WHERE filename = ?", filename).
		Scan(&manual.Id, &manual.Name, &manual.Filename, &manual.TargetRole, &manual.Uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return manual, ErrNotFound
	}
	return manual, err
}

func (mr *manualRepository) Add(data ManualData, filename string) (manual Manual, err error) {

	var now = time.Now().UTC()
	result, err := mr.Connection.Exec(
		"INSERT INTO manuals (name, filename, target_role, uploaded) VALUES (?, ?, ?, ?)",
		data.Name, filename, data.TargetRole, now,
	)
	if err != nil {
		return manual, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return manual, err
	}
	return Manual{Id: id, Name: data.Name, Filename: filename, TargetRole: data.TargetRole, Uploaded: now}, nil
}

// Update touches metadata only; replacing the PDF itself goes through delete and create.
func (mr *manualRepository) Update(id int64, data ManualData) error {

	result, err := mr.Connection.Exec(
		"UPDATE manuals SET name = ?, target_role = ? WHERE id = ?", data.Name, data.TargetRole, id,
	)
	if err != nil {
		return err
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

func (mr *manualRepository) Delete(id int64) error {

	result, err := mr.Connection.Exec("DELETE FROM manuals WHERE id = ?", id)
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
