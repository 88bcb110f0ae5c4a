// Package app wires the SDK components together: the session store drives
// the realtime channel's lifecycle, and the channel feeds the notification
// reconciler.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/custconnect/custconnect-backend/pkg/client"
	"github.com/custconnect/custconnect-backend/pkg/client/notify"
	"github.com/custconnect/custconnect-backend/pkg/client/realtime"
	"github.com/custconnect/custconnect-backend/pkg/client/router"
	"github.com/custconnect/custconnect-backend/pkg/client/session"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/roles"
)

// App is the fully wired client SDK.
type App struct {
	API           *client.Client
	Sessions      *session.Store
	Channel       *realtime.Channel
	Notifications *notify.Reconciler
	Router        *router.Router

	log *logger.Logger
}

// Options configures New. BaseURL is required; the rest defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	TokenStore client.TokenStore
	Toast      notify.ToastSink
	Logger     *logger.Logger

	// ChannelBackoff overrides the reconnect backoff. Tests shrink it.
	ChannelBackoff time.Duration
}

// New builds the SDK and installs the lifecycle wiring: entering
// AUTHENTICATED opens the realtime channel for the session's user and runs
// the one-shot notification refresh; leaving it closes the channel.
func New(opts Options) (*App, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("app: BaseURL is required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "custconnect-sdk"})
	}

	api, err := client.New(client.Options{
		BaseURL:    opts.BaseURL,
		Timeout:    opts.Timeout,
		TokenStore: opts.TokenStore,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(session.StoreParams{API: api, Logger: logg})
	if err != nil {
		return nil, err
	}
	channel, err := realtime.NewChannel(realtime.ChannelParams{
		BaseURL: opts.BaseURL,
		Tokens:  api.Tokens(),
		Logger:  logg,
		Backoff: opts.ChannelBackoff,
	})
	if err != nil {
		return nil, err
	}
	reconciler, err := notify.NewReconciler(notify.ReconcilerParams{
		API:    api,
		Logger: logg,
		Toast:  opts.Toast,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		API:           api,
		Sessions:      sessions,
		Channel:       channel,
		Notifications: reconciler,
		Router:        router.New(sessionRoles{sessions}),
		log:           logg,
	}
	app.Router.Guard(router.HomeAdmin, roles.ClassAdmin)
	app.Router.Guard(router.HomeVendor, roles.ClassVendor)

	channel.On(realtime.EventNotification, reconciler.OnPush)

	sessions.Subscribe(func(state session.State, sess *session.Session) {
		switch state {
		case session.StateAuthenticated:
			if sess == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := channel.Open(ctx, sess.UserID); err != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "app.channel_open_failed")
			}
			reconciler.EnsureFresh(ctx, sess.UserID)
		case session.StateAnonymous:
			channel.Close()
		}
	})

	return app, nil
}

// Close tears down the live connection. The session itself is untouched.
func (a *App) Close() {
	a.Channel.Close()
}

// sessionRoles adapts the session store to the router's RolesSource.
type sessionRoles struct {
	sessions *session.Store
}

func (s sessionRoles) Roles() []string {
	current := s.sessions.Current()
	if current == nil {
		return nil
	}
	return current.Roles
}
