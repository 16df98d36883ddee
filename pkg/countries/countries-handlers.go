package countries

import (
	"errors"
	"net/http"

	"github.com/amicimag/chapterdesk/pkg/auth"
	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
)

func RegisterHandlers(engine *rest.Engine, cr CountryRepository, sr auth.SessionRepository) {
	engine.Get("/countries", listCountries(cr), auth.Auth(sr))
	engine.Post("/countries", addCountry(cr), auth.Auth(sr))
	engine.Put("/countries/:id", editCountry(cr), auth.Auth(sr))
	engine.Delete("/countries/:id", deleteCountry(cr), auth.Auth(sr))
}

// gate rejects every actor the countries gate denies, writing the response on denial.
func gate(writer http.ResponseWriter, request *http.Request) bool {
	actor, err := auth.GetActor(request)
	if err != nil {
		JSON.Unauthorised(writer)
		return false
	}
	if !auth.Allowed(actor, auth.ManageCountries, 0) {
		JSON.Forbidden(writer)
		return false
	}
	return true
}

func listCountries(cr CountryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !gate(writer, request) {
			return
		}

		countries, err := cr.GetAll()
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Ok(writer, countries)
	}
}

func addCountry(cr CountryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !gate(writer, request) {
			return
		}

		data, err := JSON.DecodeValidate[CountryData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if cr.ExistsName(data.Name, 0) {
			JSON.Conflict(writer, ErrNameTaken.Error())
			return
		}
		if cr.ExistsCode(data.Code, 0) {
			JSON.Conflict(writer, ErrCodeTaken.Error())
			return
		}

		country, err := cr.Add(data)
		switch {
		case errors.Is(err, ErrNameTaken) || errors.Is(err, ErrCodeTaken):
			JSON.Conflict(writer, err.Error())
		case err != nil:
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.Created(writer, country)
		}
	}
}

func editCountry(cr CountryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !gate(writer, request) {
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[CountryData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		// uniqueness checks exclude the row being edited
		if cr.ExistsName(data.Name, id) {
			JSON.Conflict(writer, ErrNameTaken.Error())
			return
		}
		if cr.ExistsCode(data.Code, id) {
			JSON.Conflict(writer, ErrCodeTaken.Error())
			return
		}

		switch err = cr.Update(id, data); {
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer)
		case errors.Is(err, ErrNameTaken) || errors.Is(err, ErrCodeTaken):
			JSON.Conflict(writer, err.Error())
		case err != nil:
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.NoContent(writer)
		}
	}
}

func deleteCountry(cr CountryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !gate(writer, request) {
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		switch err = cr.Delete(id); {
		case errors.Is(err, ErrHasDependents):
			JSON.Conflict(writer, err.Error())
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer)
		case err != nil:
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.NoContent(writer)
		}
	}
}
