package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/custconnect/custconnect-backend/api/middleware"
	"github.com/custconnect/custconnect-backend/api/responses"
	"github.com/custconnect/custconnect-backend/api/validators"
	"github.com/custconnect/custconnect-backend/internal/notifications"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/pagination"
)

// NotificationsList returns the caller's notifications, newest first.
func NotificationsList(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		params := pagination.Params{
			Page:  queryInt(r, "page"),
			Limit: queryInt(r, "limit"),
		}

		items, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []notifications.NotificationDTO{}
		}

		responses.WriteSuccessFields(w, http.StatusOK, map[string]any{
			"notifications": items,
		})
	}
}

// NotificationMarkRead marks a single notification read. Marking an
// already-read notification succeeds without change.
func NotificationMarkRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := pathUUID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.MarkRead(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessFields(w, http.StatusOK, map[string]any{"message": "notification marked read"})
	}
}

// NotificationsMarkAllRead marks every unread notification read.
func NotificationsMarkAllRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		updated, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessFields(w, http.StatusOK, map[string]any{"updated": updated})
	}
}

// NotificationDelete removes a notification permanently.
func NotificationDelete(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := pathUUID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.Delete(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessFields(w, http.StatusOK, map[string]any{"message": "notification deleted"})
	}
}

// NotificationsBroadcast files a notification for a set of users, or every
// active user. Admin only.
func NotificationsBroadcast(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body notifications.BroadcastRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.Broadcast(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessFields(w, http.StatusOK, map[string]any{"notified": count})
	}
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
