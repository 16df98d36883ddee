package rest

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey int

const loggerKey contextKey = iota

// RequestLogger returns a middleware that attaches a request-scoped logger, carrying a unique request ID and the
// remote address, to the request context.
func RequestLogger(base logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {

			reqUUID, err := uuid.NewV4()
			if err != nil {
				base.WithError(err).Error("can't generate a request UUID")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			var logger = base.WithFields(logrus.Fields{
				"reqid":     reqUUID.String(),
				"remote-ip": request.RemoteAddr,
			})

			next.ServeHTTP(w, request.WithContext(context.WithValue(request.Context(), loggerKey, logger)))
		})
	}
}

// GetLogger fetches the request-scoped logger, falling back to a plain one when the middleware wasn't applied.
func GetLogger(request *http.Request) logrus.FieldLogger {
	if logger, ok := request.Context().Value(loggerKey).(logrus.FieldLogger); ok {
		return logger
	}
	return logrus.StandardLogger()
}
