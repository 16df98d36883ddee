package users

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/amicimag/chapterdesk/pkg/auth"
	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/amicimag/chapterdesk/pkg/storage/uploads"
)

const maxFormMemory = 32 << 20

func RegisterHandlers(engine *rest.Engine, ur UserRepository, sr auth.SessionRepository, store uploads.Storage) {
	engine.Get("/users", listUsers(ur), auth.Auth(sr))
	engine.Post("/users", addUser(ur, store), auth.Auth(sr))
	engine.Put("/users/:id", editUser(ur, store), auth.Auth(sr))
	engine.Delete("/users/:id", deleteUser(ur, store), auth.Auth(sr))
}

// listUsers is available to administrators and coordinators; everyone else is denied.
func listUsers(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ListUsers, 0) {
			JSON.Forbidden(writer)
			return
		}

		users, err := ur.GetAll()
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Ok(writer, users)
	}
}

func addUser(ur UserRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageUsers, 0) {
			JSON.Forbidden(writer)
			return
		}

		if err = request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequest(writer)
			return
		}

		var data = AddUserData{
			Username:  request.FormValue("username"),
			Email:     request.FormValue("email"),
			Password:  request.FormValue("password"),
			Role:      auth.Role(request.FormValue("role")),
			CountryId: formId(request, "countryId"),
		}
		if err = data.Validate(); err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if ur.ExistsUsername(data.Username, 0) {
			JSON.Conflict(writer, ErrUsernameTaken.Error())
			return
		}
		if ur.ExistsEmail(data.Email, 0) {
			JSON.Conflict(writer, ErrEmailTaken.Error())
			return
		}

		// the photo is written before the row; a failed insert triggers its removal
		var photo string
		if file := formFile(request, "profilePhoto"); file != nil {
			if photo, err = store.SaveUserPhoto(file); err != nil {
				JSON.InternalServerError(writer, request, err)
				return
			}
		}

		user, err := ur.Add(data, photo)
		switch {
		case errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken):
			store.RemoveUserPhoto(photo)
			JSON.Conflict(writer, err.Error())
		case err != nil:
			store.RemoveUserPhoto(photo)
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.Created(writer, user)
		}
	}
}

func editUser(ur UserRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageUsers, 0) {
			JSON.Forbidden(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		existing, err := ur.GetUser(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if err = request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequest(writer)
			return
		}

		active, _ := strconv.ParseBool(request.FormValue("active"))
		var data = EditUserData{
			Username:  request.FormValue("username"),
			Email:     request.FormValue("email"),
			Role:      auth.Role(request.FormValue("role")),
			CountryId: formId(request, "countryId"),
			Active:    active,
			Password:  request.FormValue("password"),
		}
		if err = data.Validate(); err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if ur.ExistsUsername(data.Username, id) {
			JSON.Conflict(writer, ErrUsernameTaken.Error())
			return
		}
		if ur.ExistsEmail(data.Email, id) {
			JSON.Conflict(writer, ErrEmailTaken.Error())
			return
		}

		var photo string
		if file := formFile(request, "profilePhoto"); file != nil {
			if photo, err = store.SaveUserPhoto(file); err != nil {
				JSON.InternalServerError(writer, request, err)
				return
			}
		}

		switch err = ur.Update(id, data, photo); {
		case errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken):
			store.RemoveUserPhoto(photo)
			JSON.Conflict(writer, err.Error())
		case err != nil:
			store.RemoveUserPhoto(photo)
			JSON.InternalServerError(writer, request, err)
		default:
			// the replaced photo is only dropped once the row safely references the new one
			if photo != "" && existing.ProfilePhoto != "" {
				store.RemoveUserPhoto(existing.ProfilePhoto)
			}
			JSON.NoContent(writer)
		}
	}
}

func deleteUser(ur UserRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageUsers, 0) {
			JSON.Forbidden(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		if id == actor.ID {
			JSON.Conflict(writer, "you cannot delete your own account")
			return
		}

		user, err := ur.GetUser(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		switch err = ur.Delete(id); {
		case errors.Is(err, ErrHasDependents):
			JSON.Conflict(writer, err.Error())
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer)
		case err != nil:
			JSON.InternalServerError(writer, request, err)
		default:
			store.RemoveUserPhoto(user.ProfilePhoto)
			JSON.NoContent(writer)
		}
	}
}

// formId parses an optional numeric form value; absent or malformed ones collapse to zero.
func formId(request *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(request.FormValue(name), 10, 64)
	return id
}

// formFile returns the first uploaded file under the given field name, or nil.
func formFile(request *http.Request, name string) *multipart.FileHeader {
	if request.MultipartForm == nil {
		return nil
	}
	if files := request.MultipartForm.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}
