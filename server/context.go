package server

import (
	"net/http"
	"strings"
)

// bearerToken extracts the token from an Authorization header, falling back
// to the "token" query parameter (EventSource can't set headers).
func bearerToken(r *http.Request, allowQuery bool) (string, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), true
	}
	if allowQuery {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, true
		}
	}
	return "", false
}
