package json_utilities

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/amicimag/chapterdesk/pkg/rest"
)

var errEncoding = errors.New("error while encoding response")

type httpError struct {
	Error     string
	Timestamp time.Time
}

func newHttpError(err error) *httpError {
	return &httpError{err.Error(), time.Now()}
}

type httpMessage struct {
	Message   string
	Timestamp time.Time
}

func newHttpMessage(message string) *httpMessage {
	return &httpMessage{message, time.Now()}
}

// httpCode carries a fixed, machine readable error code; internal details stay in the logs.
type httpCode struct {
	Code      string
	Timestamp time.Time
}

func Created(writer http.ResponseWriter, payload interface{}) {
	encodeJSON(writer, http.StatusCreated, payload)
}

func Ok(writer http.ResponseWriter, payload interface{}) {
	encodeJSON(writer, http.StatusOK, payload)
}

func NoContent(writer http.ResponseWriter) {
	// no content type header needed
	writer.WriteHeader(http.StatusNoContent)
}

func NotFound(writer http.ResponseWriter) {
	encodeJSON(writer, http.StatusNotFound, newHttpMessage("not found"))
}

func BadRequest(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusBadRequest)
}

func BadRequestWithMessage(writer http.ResponseWriter, message string) {
	encodeJSON(writer, http.StatusBadRequest, newHttpMessage(message))
}

// BadRequestWithCode reports client errors through a fixed code, so no internal detail ever reaches the response.
func BadRequestWithCode(writer http.ResponseWriter, code string) {
	encodeJSON(writer, http.StatusBadRequest, httpCode{code, time.Now()})
}

func Unauthorised(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusUnauthorized)
}

// Forbidden denies the request with a deliberately uninformative message.
func Forbidden(writer http.ResponseWriter) {
	encodeJSON(writer, http.StatusForbidden, newHttpMessage("access denied"))
}

// Conflict reports uniqueness violations, dependent row guards and similar refusals.
func Conflict(writer http.ResponseWriter, message string) {
	encodeJSON(writer, http.StatusConflict, newHttpMessage(message))
}

// BadGateway signals an external collaborator failure through a fixed code.
func BadGateway(writer http.ResponseWriter, code string) {
	encodeJSON(writer, http.StatusBadGateway, httpCode{code, time.Now()})
}

// InternalServerErrorWithCode reports server failures through a fixed code, keeping details in the logs.
func InternalServerErrorWithCode(writer http.ResponseWriter, code string) {
	encodeJSON(writer, http.StatusInternalServerError, httpCode{code, time.Now()})
}

// InternalServerError answers with a fixed generic message; the failure itself
// only reaches the request-scoped logs.
func InternalServerError(writer http.ResponseWriter, request *http.Request, err error) {
	rest.GetLogger(request).WithError(err).Error("unhandled internal error")
	encodeJSON(writer, http.StatusInternalServerError, newHttpMessage("internal server error"))
}

func ValidationError(writer http.ResponseWriter, err error) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(writer).Encode(newHttpError(err))
}

func encodeJSON(writer http.ResponseWriter, status int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(newHttpError(errEncoding))
	}
}

func DecodeValidate[T Validator](request *http.Request) (data T, err error) {
	if err = json.NewDecoder(request.Body).Decode(&data); err != nil {
		return data, err
	}
	return data, data.Validate()
}

type Validator interface {
	Validate() error
}
