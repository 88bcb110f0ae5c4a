package controllers

import (
	"net/http"
	"strings"

	"github.com/custconnect/custconnect-backend/api/responses"
	"github.com/custconnect/custconnect-backend/internal/realtime"
	pkgAuth "github.com/custconnect/custconnect-backend/pkg/auth"
	"github.com/custconnect/custconnect-backend/pkg/auth/session"
	"github.com/custconnect/custconnect-backend/pkg/config"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

// RealtimeWS upgrades the request to a websocket bound to the caller's user
// id. Browsers cannot set headers on websocket dials, so the token is
// accepted from either the Authorization header or a ?token= query
// parameter. The hub only honors a join-room frame for the authenticated id.
func RealtimeWS(hub *realtime.Hub, jwtCfg config.JWTConfig, checker session.AccessSessionChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "realtime unavailable"))
			return
		}

		token := wsToken(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}
		if checker != nil {
			ok, err := checker.HasSession(r.Context(), claims.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
				return
			}
		}

		hub.ServeWS(w, r, claims.UserID.String())
	}
}

func wsToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw != "" {
		return raw
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
