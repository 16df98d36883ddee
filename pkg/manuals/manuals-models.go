package manuals

import (
	"time"

	"github.com/amicimag/chapterdesk/pkg/auth"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TargetAll marks manuals meant for every role.
const TargetAll = "all"

// targetRoles holds plain strings, as ozzo's In rule compares interface values with equality.
var targetRoles = func() []interface{} {
	var roles = []interface{}{TargetAll}
	for _, role := range auth.Roles {
		roles = append(roles, string(role.(auth.Role)))
	}
	return roles
}()

type Manual struct {
	Id         int64
	Name       string
	Filename   string
	TargetRole string
	Uploaded   time.Time
}

// ManualData carries the metadata of a manual; the PDF itself travels as a multipart file on creation.
type ManualData struct {
	Name       string
	TargetRole string
}

func (data ManualData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&data.TargetRole, validation.Required, validation.In(targetRoles...)),
	)
}
