package controllers

import (
	"net/http"

	"github.com/custconnect/custconnect-backend/api/middleware"
	"github.com/custconnect/custconnect-backend/api/responses"
	"github.com/custconnect/custconnect-backend/api/validators"
	"github.com/custconnect/custconnect-backend/internal/messages"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/pagination"
)

// MessagesSend stores a direct message and pushes it to the recipient.
func MessagesSend(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body messages.SendRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Send(ctx, middleware.UserIDFromContext(ctx), middleware.DisplayNameFromContext(ctx), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// MessagesConversation lists both directions of a two-party thread,
// newest first.
func MessagesConversation(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		otherID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Page:  queryInt(r, "page"),
			Limit: queryInt(r, "limit"),
		}

		items, err := svc.Conversation(r.Context(), middleware.UserIDFromContext(r.Context()), otherID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []messages.MessageDTO{}
		}

		responses.WriteSuccessFields(w, http.StatusOK, map[string]any{"messages": items})
	}
}
