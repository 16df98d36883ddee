package events

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Event struct {
	Id          int64
	Title       string
	Start       time.Time
	End         *time.Time // nil for open ended events
	Description string
	Location    string
	CountryId   int64
	CreatedBy   int64
}

type AddEventData struct {
	Title       string
	Start       string
	End         string
	Description string
	Location    string
}

func (data AddEventData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&data.Start, validation.Required, validation.Date(time.RFC3339)),
		validation.Field(&data.End, validation.When(data.End != "", validation.Date(time.RFC3339))),
		validation.Field(&data.Description, validation.RuneLength(0, 1000)),
		validation.Field(&data.Location, validation.RuneLength(0, 100)),
	)
}
