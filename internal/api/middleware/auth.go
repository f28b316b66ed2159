package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/fuelr/fuelr/internal/api/models"
)

// RefreshTokenHeader carries the shared secret that authorizes a forced
// station data refresh.
const RefreshTokenHeader = "X-Refresh-Token"

// RefreshGuard creates middleware that protects refresh endpoints with a
// shared secret. Requests must present the secret in the X-Refresh-Token
// header. An empty expected token disables the endpoint entirely: every
// request is rejected rather than letting an unconfigured deployment
// accept unauthenticated refreshes.
func RefreshGuard(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				writeUnauthorized(w, r, "refresh token is not configured")
				return
			}

			provided := r.Header.Get(RefreshTokenHeader)
			if provided == "" {
				writeUnauthorized(w, r, "missing refresh token")
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				writeUnauthorized(w, r, "invalid refresh token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}
