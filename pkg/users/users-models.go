package users

import (
	"time"

	"github.com/amicimag/chapterdesk/pkg/auth"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var usernameRules = []validation.Rule{validation.Required, validation.RuneLength(3, 64)}

// passwordRule counts bytes rather than runes; bcrypt reads at most 72 bytes of input.
var passwordRule = validation.Length(8, 72)

type User struct {
	Id           int64
	Username     string
	Email        string
	Role         auth.Role
	CountryId    int64 // zero when the user has no assigned country
	ProfilePhoto string
	Active       bool
	Created      time.Time
}

type AddUserData struct {
	Username  string
	Email     string
	Password  string
	Role      auth.Role
	CountryId int64
}

func (data AddUserData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Username, usernameRules...),
		validation.Field(&data.Email, validation.Required, is.Email),
		validation.Field(&data.Password, validation.Required, passwordRule),
		validation.Field(&data.Role, validation.Required, validation.In(auth.Roles...)),
		validation.Field(&data.CountryId, validation.Min(0)),
	)
}

type EditUserData struct {
	Username  string
	Email     string
	Role      auth.Role
	CountryId int64
	Active    bool

	// Password is optional; an empty one leaves the stored hash untouched.
	Password string
}

func (data EditUserData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Username, usernameRules...),
		validation.Field(&data.Email, validation.Required, is.Email),
		validation.Field(&data.Role, validation.Required, validation.In(auth.Roles...)),
		validation.Field(&data.CountryId, validation.Min(0)),
		validation.Field(&data.Password, validation.When(data.Password != "", passwordRule)),
	)
}
