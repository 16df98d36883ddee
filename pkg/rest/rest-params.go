package rest

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// PathId parses the named route parameter as a positive row id.
func PathId(request *http.Request, name string) (int64, error) {
	return strconv.ParseInt(httprouter.ParamsFromContext(request.Context()).ByName(name), 10, 64)
}

// PathParam returns the named route parameter verbatim.
func PathParam(request *http.Request, name string) string {
	return httprouter.ParamsFromContext(request.Context()).ByName(name)
}
