// Package api implements the sislog REST API using chi.
package api

import (
	"net/http"

	"github.com/starford/sislog/internal/models"
)

// RequireEditor returns middleware that refuses requests with 403 unless
// user may edit log entries.
func RequireEditor(user *models.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !user.CanEdit() {
				writeJSON(w, http.StatusForbidden, errorBody("read-only user"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
