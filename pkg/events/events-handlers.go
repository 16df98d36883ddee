package events

import (
	"net/http"

	"github.com/amicimag/chapterdesk/pkg/auth"
	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
)

// The calendar API reports failures through fixed codes only; it once echoed raw error text to
// clients, which is exactly what these constants replace.
const (
	codeInvalidEvent = "invalid_event"
	codeEventFailed  = "event_unavailable"
)

func RegisterHandlers(engine *rest.Engine, er EventRepository, sr auth.SessionRepository) {
	engine.Get("/events", listEvents(er), auth.Auth(sr))
	engine.Post("/events", addEvent(er), auth.Auth(sr))
}

// listEvents returns the actor's country's events; administrators without a country see all of them,
// anyone else without a country sees none.
func listEvents(er EventRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		var events = make([]Event, 0)
		switch {
		case actor.CountryID != 0:
			events, err = er.GetByCountry(actor.CountryID)
		case actor.Role == auth.RoleAdmin:
			events, err = er.GetAll()
		}
		if err != nil {
			rest.GetLogger(request).WithError(err).Error("listing events failed")
			JSON.InternalServerErrorWithCode(writer, codeEventFailed)
			return
		}
		JSON.Ok(writer, events)
	}
}

func addEvent(er EventRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}
		if !auth.Allowed(actor, auth.ManageEvents, actor.CountryID) {
			JSON.Forbidden(writer)
			return
		}

		data, err := JSON.DecodeValidate[AddEventData](request)
		if err != nil {
			JSON.BadRequestWithCode(writer, codeInvalidEvent)
			return
		}

		id, err := er.Add(data, actor.CountryID, actor.ID)
		if err != nil {
			rest.GetLogger(request).WithError(err).Error("creating event failed")
			JSON.InternalServerErrorWithCode(writer, codeEventFailed)
			return
		}
		JSON.Created(writer, struct{ Id int64 }{id})
	}
}
