package editions

import (
	"errors"
	"net/http"

	"github.com/amicimag/chapterdesk/pkg/auth"
	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
)

func RegisterHandlers(engine *rest.Engine, er EditionRepository, folders FolderProvider, sr auth.SessionRepository) {
	engine.Get("/editions", listEditions(er), auth.Auth(sr))
	engine.Get("/editions/:id", getEdition(er), auth.Auth(sr))
	engine.Post("/editions", addEdition(er, folders), auth.Auth(sr))
	engine.Put("/editions/:id", editEdition(er), auth.Auth(sr))
	engine.Delete("/editions/:id", deleteEdition(er), auth.Auth(sr))
	engine.Post("/editions/:id/articles", assignArticle(er), auth.Auth(sr))
}

func listEditions(er EditionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageEditions, 0) {
			JSON.Forbidden(writer)
			return
		}

		var editions []Edition
		if actor.Role == auth.RoleAdmin {
			editions, err = er.GetAll()
		} else {
			editions, err = er.GetByCountry(actor.CountryID)
		}
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Ok(writer, editions)
	}
}

// getEdition serves a single edition to any authenticated user of the matching country;
// users without a country, administrators included, can view any of them.
func getEdition(er EditionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		edition, err := er.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if actor.CountryID != 0 && actor.CountryID != edition.CountryId {
			JSON.Forbidden(writer)
			return
		}
		JSON.Ok(writer, edition)
	}
}

func addEdition(er EditionRepository, folders FolderProvider) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		data, err := JSON.DecodeValidate[AddEditionData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		// coordinators always create within their own country; administrators must name one
		var countryId = actor.CountryID
		if actor.Role == auth.RoleAdmin {
			countryId = data.CountryId
		}
		if countryId == 0 {
			JSON.BadRequestWithMessage(writer, "an edition must be assigned to a country")
			return
		}

		if !auth.Allowed(actor, auth.ManageEditions, countryId) {
			JSON.Forbidden(writer)
			return
		}

		// the external folder is provisioned first; its failure aborts the insert altogether
		folderRef, err := folders.CreateEditionFolder(request.Context(), data.Title)
		if err != nil {
			rest.GetLogger(request).WithError(err).Error("edition folder provisioning failed")
			JSON.BadGateway(writer, "folder_unavailable")
			return
		}

		edition, err := er.Add(data, countryId, folderRef)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Created(writer, edition)
	}
}

func editEdition(er EditionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		edition, err := er.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageEditions, edition.CountryId) {
			JSON.Forbidden(writer)
			return
		}

		data, err := JSON.DecodeValidate[EditEditionData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		// reassigning the edition to another country is an administrator's privilege
		var newCountryId int64
		if actor.Role == auth.RoleAdmin && data.CountryId != 0 && data.CountryId != edition.CountryId {
			newCountryId = data.CountryId
		}

		switch err = er.Update(id, data, newCountryId); {
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer)
		case err != nil:
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.NoContent(writer)
		}
	}
}

func deleteEdition(er EditionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		edition, err := er.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageEditions, edition.CountryId) {
			JSON.Forbidden(writer)
			return
		}

		switch err = er.Delete(id); {
		case errors.Is(err, ErrHasArticles):
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

func assignArticle(er EditionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		edition, err := er.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageEditions, edition.CountryId) {
			JSON.Forbidden(writer)
			return
		}

		data, err := JSON.DecodeValidate[AssignArticleData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		articleId, err := er.AssignArticle(id, data)
		switch {
		case errors.Is(err, ErrUnknownAuthor):
			JSON.BadRequestWithMessage(writer, err.Error())
		case err != nil:
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.Created(writer, struct{ Id int64 }{articleId})
		}
	}
}
