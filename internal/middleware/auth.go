package middleware

import (
	"errors"
	"net/http"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"
)

type RequestAuthenticator interface {
	Authenticate(apiKey, bearer string) (auth.UserClaims, error)
}

// AuthMiddleware requires the apikey header and a bearer access token (or the
// service key) and stores the resulting claims in the request context.
func AuthMiddleware(authenticator RequestAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticator.Authenticate(r.Header.Get(constants.HeaderAPIKey), common.BearerToken(r))
			if err != nil {
				message := constants.GetErrorMessage(constants.ErrCodeUnauthenticated)
				if errors.Is(err, auth.ErrMissingAPIKey) || errors.Is(err, auth.ErrInvalidAPIKey) {
					message = "A valid apikey header is required"
				}
				logging.Debug("Rejected request", "path", r.URL.Path, "reason", err.Error())
				common.RespondError(w, message, http.StatusUnauthorized)
				return
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
