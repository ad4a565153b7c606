package middleware

import (
	"net/http"
	"strings"
)

// Vary returns middleware that marks every response as varying on the
// Accept header. Content negotiation picks JSON or CBOR from Accept, so
// caches must key on it (RFC 9110 section 12.5.5). Origin is left to
// the CORS middleware, which maintains its own Vary entry.
func Vary() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addVary(w.Header(), "Accept")
			next.ServeHTTP(w, r)
		})
	}
}

// addVary appends a field to Vary unless it is already listed, so
// repeated application of the middleware stays idempotent. Field names
// compare case-insensitively and existing entries may be comma-joined.
func addVary(h http.Header, field string) {
	for _, v := range h.Values("Vary") {
		for part := range strings.SplitSeq(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), field) {
				return
			}
		}
	}
	h.Add("Vary", field)
}
