package events

import (
	"database/sql"
	"time"
)

type EventRepository interface {
	GetAll() ([]Event, error)
	GetByCountry(countryId int64) ([]Event, error)
	Add(data AddEventData, countryId int64, createdBy int64) (int64, error)
}

type eventRepository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) EventRepository {
	return &eventRepository{connection}
}

const eventColumns = "id, title, start_time, end_time, description, location, country_id, created_by"

func (er *eventRepository) GetAll() ([]Event, error) {
	return er.query("SELECT " + eventColumns + " FROM events ORDER BY start_time")
}

func (er *eventRepository) GetByCountry(countryId int64) ([]Event, error) {
	return er.query("SELECT "+eventColumns+" FROM events WHERE country_id = ? ORDER BY start_time", countryId)
}

func (er *eventRepository) query(statement string, args ...any) (events []Event, err error) {

	events = make([]Event, 0)

	rows, err := er.Connection.Query(statement, args...)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var event Event
		var end sql.NullTime
		var countryId sql.NullInt64
		if err = rows.Scan(
			&event.Id, &event.Title, &event.Start, &end,
			&event.Description, &event.Location, &countryId, &event.CreatedBy,
		); err != nil {
			return events, err
		}
		if end.Valid {
			event.End = &end.Time
		}
		event.CountryId = countryId.Int64
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return events, err
	}
	return events, rows.Close()
}

func (er *eventRepository) Add(data AddEventData, countryId int64, createdBy int64) (int64, error) {

	start, err := time.Parse(time.RFC3339, data.Start)
	if err != nil {
		return 0, err
	}

	var end sql.NullTime
	if data.End != "" {
		parsed, err := time.Parse(time.RFC3339, data.End)
		if err != nil {
			return 0, err
		}
		end = sql.NullTime{Time: parsed, Valid: true}
	}

	result, err := er.Connection.Exec(`
		INSERT INTO events (title, start_time, end_time, description, location, country_id, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		data.Title, start, end, data.Description, data.Location,
		sql.NullInt64{Int64: countryId, Valid: countryId != 0}, createdBy,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
