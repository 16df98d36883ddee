package embassies

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/amicimag/chapterdesk/pkg/auth"
	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/amicimag/chapterdesk/pkg/storage/uploads"
)

const maxFormMemory = 32 << 20

func RegisterHandlers(engine *rest.Engine, er EmbassyRepository, sr auth.SessionRepository, store uploads.Storage) {
	engine.Get("/embassies", listLists(er), auth.Auth(sr))
	engine.Post("/embassies", addList(er), auth.Auth(sr))
	engine.Get("/embassies/:id", getList(er), auth.Auth(sr))
	engine.Delete("/embassies/:id", deleteList(er, store), auth.Auth(sr))

	engine.Post("/embassies/:id/members", addMember(er, store), auth.Auth(sr))
	engine.Put("/embassies/:id/members/:memberId", editMember(er, store), auth.Auth(sr))
	engine.Delete("/embassies/:id/members/:memberId", deleteMember(er, store), auth.Auth(sr))
}

// listLists shows administrators and coordinators every list, everyone else their own country's;
// actors without a country receive an empty result.
func listLists(er EmbassyRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		var lists = make([]EmbassyList, 0)
		switch {
		case actor.Role == auth.RoleAdmin || actor.Role == auth.RoleCoordinator:
			lists, err = er.GetAllLists()
		case actor.CountryID != 0:
			lists, err = er.GetListsByCountry(actor.CountryID)
		}
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Ok(writer, lists)
	}
}

func addList(er EmbassyRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		data, err := JSON.DecodeValidate[AddListData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageEmbassies, data.CountryId) {
			JSON.Forbidden(writer)
			return
		}

		list, err := er.AddList(data)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Created(writer, list)
	}
}

// getList returns a list along with its entries; coordinators and administrators may view any,
// other roles only their own country's.
func getList(er EmbassyRepository) http.HandlerFunc {
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

		list, err := er.GetList(id)
		if errors.Is(err, ErrListNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleCoordinator && actor.CountryID != list.CountryId {
			JSON.Forbidden(writer)
			return
		}

		members, err := er.Members(id)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		JSON.Ok(writer, struct {
			EmbassyList
			Members []Embassy
		}{list, members})
	}
}

func deleteList(er EmbassyRepository, store uploads.Storage) http.HandlerFunc {
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

		list, err := er.GetList(id)
		if errors.Is(err, ErrListNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageEmbassies, list.CountryId) {
			JSON.Forbidden(writer)
			return
		}

		photos, err := er.DeleteList(id)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		// entry rows cascade with the list; their photos go separately, best-effort
		for _, photo := range photos {
			store.RemoveEmbassyPhoto(photo)
		}
		JSON.NoContent(writer)
	}
}

func addMember(er EmbassyRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		_, list, ok := gateList(writer, request, er)
		if !ok {
			return
		}

		if err := request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := memberData(request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var photo string
		if file := formFile(request, "photo"); file != nil {
			if photo, err = store.SaveEmbassyPhoto(file); err != nil {
				JSON.InternalServerError(writer, request, err)
				return
			}
		}

		member, err := er.AddMember(list.Id, data, photo)
		if err != nil {
			store.RemoveEmbassyPhoto(photo)
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Created(writer, member)
	}
}

func editMember(er EmbassyRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		_, list, ok := gateList(writer, request, er)
		if !ok {
			return
		}

		member, ok := findMember(writer, request, er, list.Id)
		if !ok {
			return
		}

		if err := request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequest(writer)
			return
		}

		data, err := memberData(request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var photo string
		if file := formFile(request, "photo"); file != nil {
			if photo, err = store.SaveEmbassyPhoto(file); err != nil {
				JSON.InternalServerError(writer, request, err)
				return
			}
		}

		if err = er.UpdateMember(member.Id, data, photo); err != nil {
			store.RemoveEmbassyPhoto(photo)
			JSON.InternalServerError(writer, request, err)
			return
		}

		// the replaced photo is only dropped once the row safely references the new one
		if photo != "" && member.Photo != "" {
			store.RemoveEmbassyPhoto(member.Photo)
		}
		JSON.NoContent(writer)
	}
}

func deleteMember(er EmbassyRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		_, list, ok := gateList(writer, request, er)
		if !ok {
			return
		}

		member, ok := findMember(writer, request, er, list.Id)
		if !ok {
			return
		}

		if err := er.DeleteMember(member.Id); err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		store.RemoveEmbassyPhoto(member.Photo)
		JSON.NoContent(writer)
	}
}

// gateList resolves the list named by the route and checks the actor against it, writing the
// response on every failure.
func gateList(writer http.ResponseWriter, request *http.Request, er EmbassyRepository) (auth.Actor, EmbassyList, bool) {

	actor, err := auth.GetActor(request)
	if err != nil {
		JSON.Unauthorised(writer)
		return actor, EmbassyList{}, false
	}

	id, err := rest.PathId(request, "id")
	if err != nil {
		JSON.BadRequest(writer)
		return actor, EmbassyList{}, false
	}

	list, err := er.GetList(id)
	if errors.Is(err, ErrListNotFound) {
		JSON.NotFound(writer)
		return actor, list, false
	} else if err != nil {
		JSON.InternalServerError(writer, request, err)
		return actor, list, false
	}

	if !auth.Allowed(actor, auth.ManageEmbassies, list.CountryId) {
		JSON.Forbidden(writer)
		return actor, list, false
	}
	return actor, list, true
}

// findMember resolves the member named by the route, rejecting entries of other lists.
func findMember(writer http.ResponseWriter, request *http.Request, er EmbassyRepository, listId int64) (Embassy, bool) {

	memberId, err := rest.PathId(request, "memberId")
	if err != nil {
		JSON.BadRequest(writer)
		return Embassy{}, false
	}

	member, err := er.GetMember(memberId)
	if errors.Is(err, ErrMemberNotFound) || (err == nil && member.ListId != listId) {
		JSON.NotFound(writer)
		return member, false
	} else if err != nil {
		JSON.InternalServerError(writer, request, err)
		return member, false
	}
	return member, true
}

func memberData(request *http.Request) (MemberData, error) {
	var data = MemberData{
		Name:           request.FormValue("name"),
		AmbassadorName: request.FormValue("ambassadorName"),
		Phone:          request.FormValue("phone"),
		Email:          request.FormValue("email"),
		Instagram:      request.FormValue("instagram"),
	}
	return data, data.Validate()
}

func formFile(request *http.Request, name string) *multipart.FileHeader {
	if request.MultipartForm == nil {
		return nil
	}
	if files := request.MultipartForm.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}
