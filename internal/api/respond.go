// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"net/http"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// graphQLResponse is the standard GraphQL response envelope. Data is always
// written, as null when absent.
type graphQLResponse struct {
	Data   any           `json:"data"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeGraphQLError writes a GraphQL error body carrying a machine readable code.
func writeGraphQLError(w http.ResponseWriter, status int, code, msg string) {
	e := gqlerror.Errorf("%s", msg)
	e.Extensions = map[string]any{"code": code}
	writeJSON(w, status, graphQLResponse{Errors: gqlerror.List{e}})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
