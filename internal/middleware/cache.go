package middleware

import (
	"net/http"
)

// NoStore disables response caching across the board. Form schemas and
// record documents change out from under clients (schema edits, commits,
// rollbacks), so nothing served here may be cached.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
