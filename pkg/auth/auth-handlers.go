package auth

import (
	"errors"
	"net/http"
	"time"

	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
)

func RegisterHandlers(engine *rest.Engine, sr SessionRepository) {
	engine.Post("/sessions", login(sr))
	engine.Delete("/sessions", logout(sr))
}

func login(sr SessionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		data, err := JSON.DecodeValidate[LoginData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		session, err := sr.Login(data)
		switch {
		case errors.Is(err, ErrBadCredentials):
			// deliberately silent about which of the two was wrong
			JSON.Unauthorised(writer)
		case err != nil:
			rest.GetLogger(request).WithError(err).Error("login failed")
			JSON.InternalServerError(writer, request, err)
		default:
			JSON.Created(writer, struct {
				Token   string
				Expires time.Time
			}{session.Token, session.Expires})
		}
	}
}

func logout(sr SessionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		token, err := parseBearer(request)
		if err != nil {
			reportUnauthorised(writer)
			return
		}

		if err = sr.Logout(token); err != nil {
			rest.GetLogger(request).WithError(err).Error("logout failed")
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.NoContent(writer)
	}
}
