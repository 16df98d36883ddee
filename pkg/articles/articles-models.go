package articles

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusAssigned Status = "assigned"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
	StatusLayout   Status = "layout"
	StatusDone     Status = "done"
)

// MaxImages caps the attachments of a single article across its whole lifetime.
const MaxImages = 5

type Article struct {
	Id        int64
	Title     string
	Content   string
	Deadline  time.Time
	Status    Status
	AuthorId  int64
	EditionId int64

	// CountryId belongs to the owning edition; carried for country scoped access checks and listings.
	CountryId int64
}

type ArticleImage struct {
	Id       int64
	Filename string
	Uploaded time.Time
}

// ArticleData serves both creation and edits. AuthorId is only honoured for administrators.
type ArticleData struct {
	Title     string
	Content   string
	EditionId int64
	AuthorId  int64
}

func (data ArticleData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Required, validation.RuneLength(1, 60)),
		validation.Field(&data.Content, validation.Required, validation.RuneLength(1, 600)),
		validation.Field(&data.EditionId, validation.Required, validation.Min(1)),
		validation.Field(&data.AuthorId, validation.Min(0)),
	)
}
