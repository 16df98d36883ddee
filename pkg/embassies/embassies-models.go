package embassies

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// EmbassyList is a named collection of diplomatic contact entries for one country,
// such as "Embassies", "Consulates" or "NGOs".
type EmbassyList struct {
	Id        int64
	Name      string
	CountryId int64
	Created   time.Time
}

type Embassy struct {
	Id             int64
	ListId         int64
	Name           string
	AmbassadorName string
	Phone          string
	Email          string
	Instagram      string
	Photo          string
	Created        time.Time
}

type AddListData struct {
	Name      string
	CountryId int64
}

func (data AddListData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Name, validation.Required, validation.RuneLength(1, 150)),
		validation.Field(&data.CountryId, validation.Required, validation.Min(1)),
	)
}

// MemberData serves both creation and edits of a list's entries; the photo travels as a multipart file.
type MemberData struct {
	Name           string
	AmbassadorName string
	Phone          string
	Email          string
	Instagram      string
}

func (data MemberData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Name, validation.Required, validation.RuneLength(1, 150)),
		validation.Field(&data.AmbassadorName, validation.RuneLength(0, 100)),
		validation.Field(&data.Phone, validation.RuneLength(0, 50)),
		validation.Field(&data.Email, validation.When(data.Email != "", is.Email)),
		validation.Field(&data.Instagram, validation.RuneLength(0, 100)),
	)
}
