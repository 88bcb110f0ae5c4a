package middleware

import (
	"net/http"

	"github.com/custconnect/custconnect-backend/api/responses"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/roles"
)

// RequireClassification gates a route by the coarse view bucket derived from
// the token's role names. The bucket is recomputed on every request so a
// role change takes effect as soon as a new token is minted.
func RequireClassification(logg *logger.Logger, allowed ...roles.Classification) func(http.Handler) http.Handler {
	permitted := make(map[roles.Classification]struct{}, len(allowed))
	for _, class := range allowed {
		permitted[class] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := roles.Classify(RolesFromContext(r.Context()))
			if _, ok := permitted[class]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
