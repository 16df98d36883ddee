package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
)

// applyCORSHandler applies a CORS policy to the router; origins is a comma
// separated list and defaults to the permissive wildcard.
func applyCORSHandler(h http.Handler, origins string) http.Handler {
	allowed := []string{"*"}
	if origins != "" {
		allowed = strings.Split(origins, ",")
	}
	return handlers.CORS(
		handlers.AllowedHeaders([]string{
			"Content-Type", "Authorization",
		}),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS", "DELETE", "PUT"}),
		handlers.AllowedOrigins(allowed),
	)(h)
}
