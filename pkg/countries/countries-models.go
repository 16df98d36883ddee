package countries

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Country struct {
	Id   int64
	Name string
	Code string
}

// CountryData serves both creation and edits; countries carry no other state.
type CountryData struct {
	Name string
	Code string
}

func (data CountryData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Name, validation.Required, validation.RuneLength(2, 100)),
		validation.Field(&data.Code, validation.Required, validation.RuneLength(2, 10)),
	)
}
