package middleware

import (
	"context"
	"net/http"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, authUserID string) (bool, error)
}

// RequireAdmin lets through the service role and pilots flagged admin in the
// database. Role claims inside the token are not consulted.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserClaims(r.Context())
			if claims == nil {
				common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeUnauthenticated), http.StatusUnauthorized)
				return
			}
			if claims.IsServiceRole() {
				next.ServeHTTP(w, r)
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), claims.UserID())
			if err != nil {
				common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeDatabase), http.StatusInternalServerError)
				return
			}
			if !isAdmin {
				common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
