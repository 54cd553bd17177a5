package api

import (
	"crypto/subtle"
	"net/http"
)

// secure rejects requests without the configured X-API-Key. With no key
// configured every request is let through.
func (s *Server) secure(next http.Handler) http.Handler {
	if s.config.APIKey == "" {
		return next
	}

	want := []byte(s.config.APIKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("X-API-Key"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
