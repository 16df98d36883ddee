package editions

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Status string

const (
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var statuses = []interface{}{StatusPlanning, StatusInProgress, StatusCompleted}

const dateFormat = "2006-01-02"

type Edition struct {
	Id              int64
	Title           string
	PublicationDate time.Time
	FolderRef       string
	Status          Status
	CountryId       int64
	Created         time.Time
}

type AddEditionData struct {
	Title           string
	PublicationDate string

	// CountryId is only honoured for administrators; coordinators always create within their own country.
	CountryId int64
}

func (data AddEditionData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&data.PublicationDate, validation.Required, validation.Date(dateFormat)),
		validation.Field(&data.CountryId, validation.Min(0)),
	)
}

type EditEditionData struct {
	Title           string
	PublicationDate string
	Status          Status

	// CountryId of zero keeps the current country; changes are admin only.
	CountryId int64
}

func (data EditEditionData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&data.PublicationDate, validation.Required, validation.Date(dateFormat)),
		validation.Field(&data.Status, validation.Required, validation.In(statuses...)),
		validation.Field(&data.CountryId, validation.Min(0)),
	)
}

// AssignArticleData describes an article created straight from an edition, in `assigned` status,
// with an explicit author and deadline. The same 60/600 bounds of free-standing articles apply.
type AssignArticleData struct {
	Title    string
	Content  string
	AuthorId int64
	Deadline string
}

func (data AssignArticleData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Required, validation.RuneLength(1, 60)),
		validation.Field(&data.Content, validation.Required, validation.RuneLength(1, 600)),
		validation.Field(&data.AuthorId, validation.Required, validation.Min(1)),
		validation.Field(&data.Deadline, validation.Required, validation.Date(dateFormat)),
	)
}
