package controllers

import (
	"context"
	"net/http"

	"github.com/custconnect/custconnect-backend/api/responses"
	"github.com/custconnect/custconnect-backend/pkg/config"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

// Pinger is anything whose backing dependency can be health-checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

const envHeader = "X-CustConnect-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady answers 200 only when every wired dependency responds.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
