package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey int

const actorKey contextKey = iota

type sessionChecker interface {
	ActorFromToken(token string) (Actor, error)
}

// Auth ensures requests carry a bearer token matching a live session, and stashes the resolved actor
// in the request context for handlers further down the chain.
func Auth(sessions sessionChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {

			var token, err = parseBearer(request)
			if err != nil {
				reportUnauthorised(w)
				return
			}

			actor, err := sessions.ActorFromToken(token)
			if err != nil {
				reportUnauthorised(w)
				return
			}

			next.ServeHTTP(w, request.WithContext(context.WithValue(request.Context(), actorKey, actor)))
		})
	}
}

// parseBearer extracts the session token from the authorization header.
func parseBearer(request *http.Request) (string, error) {
	var header = request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		var token = header[7:]
		if len(token) == 36 {
			return token, nil
		}
	}
	return "", errors.New("bad authorization header")
}

// GetActor fetches the authenticated actor from the request context; an error signals a missing Auth middleware.
func GetActor(request *http.Request) (Actor, error) {
	if actor, ok := request.Context().Value(actorKey).(Actor); ok {
		return actor, nil
	}
	return Actor{}, errors.New("missing actor in request context")
}

func reportUnauthorised(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}
