package web

import (
	"net/http"
)

// HXRequest is set by htmx on every request it issues.
const HXRequest = "HX-Request"

// IsHTMXRequest checks if the request is an HTMX request.
func IsHTMXRequest(r *http.Request) bool {
	return r.Header.Get(HXRequest) == "true"
}
