package manuals

import (
	"errors"
	"net/http"
	"strings"

	"github.com/amicimag/chapterdesk/pkg/auth"
	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/amicimag/chapterdesk/pkg/storage/uploads"
)

const maxFormMemory = 32 << 20

func RegisterHandlers(engine *rest.Engine, mr ManualRepository, sr auth.SessionRepository, store uploads.Storage) {
	engine.Get("/manuals", listManuals(mr), auth.Auth(sr))
	engine.Post("/manuals", addManual(mr, store), auth.Auth(sr))
	engine.Put("/manuals/:id", editManual(mr), auth.Auth(sr))
	engine.Delete("/manuals/:id", deleteManual(mr, store), auth.Auth(sr))
	engine.Get("/manuals/files/:name", downloadManual(mr, store), auth.Auth(sr))
}

// listManuals shows administrators everything; everyone else sees the manuals addressed to
// all roles plus their own.
func listManuals(mr ManualRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		var manuals []Manual
		if actor.Role == auth.RoleAdmin {
			manuals, err = mr.GetAll()
		} else {
			manuals, err = mr.GetForRole(string(actor.Role))
		}
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Ok(writer, manuals)
	}
}

func addManual(mr ManualRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageManuals, 0) {
			JSON.Forbidden(writer)
			return
		}

		if err = request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequest(writer)
			return
		}

		var data = ManualData{
			Name:       request.FormValue("name"),
			TargetRole: request.FormValue("targetRole"),
		}
		if err = data.Validate(); err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		files := request.MultipartForm.File["file"]
		if len(files) == 0 {
			JSON.BadRequestWithMessage(writer, "no file was selected")
			return
		}

		var file = files[0]
		if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
			JSON.BadRequestWithMessage(writer, "only PDF files are accepted")
			return
		}

		filename, err := store.SaveManual(file)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		manual, err := mr.Add(data, filename)
		if err != nil {
			store.RemoveManual(filename)
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Created(writer, manual)
	}
}

func editManual(mr ManualRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageManuals, 0) {
			JSON.Forbidden(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := JSON.DecodeValidate[ManualData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		switch err = mr.Update(id, data); {
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer)
		case err != nil:
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.NoContent(writer)
		}
	}
}

func deleteManual(mr ManualRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageManuals, 0) {
			JSON.Forbidden(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		manual, err := mr.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if err = mr.Delete(id); err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		store.RemoveManual(manual.Filename)
		JSON.NoContent(writer)
	}
}

// downloadManual serves a stored PDF by its stored name, honouring the manual's target role.
func downloadManual(mr ManualRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		manual, err := mr.GetByFilename(rest.PathParam(request, "name"))
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if actor.Role != auth.RoleAdmin && manual.TargetRole != TargetAll && manual.TargetRole != string(actor.Role) {
			JSON.Forbidden(writer)
			return
		}

		http.ServeFile(writer, request, store.ManualPath(manual.Filename))
	}
}
