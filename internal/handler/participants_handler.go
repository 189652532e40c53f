package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voicesvc/internal/app/presence"
	"voicesvc/internal/pkg/errs"
	"voicesvc/internal/pkg/req"
	"voicesvc/internal/pkg/resp"
)

type ParticipantsResponse struct {
	ChannelID    string              `json:"channelId"`
	Count        int                 `json:"count"`
	Participants []presence.Occupant `json:"participants"`
}

type WebhookAck struct {
	OK bool `json:"ok"`
}

// HandleListParticipants returns the current roster of a channel. Unknown
// channels yield an empty list, never an error.
func HandleListParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID := chi.URLParam(r, "channelId")
		occupants := deps.Registry.ListOccupants(channelID)

		resp.RespondSuccess(w, r, ParticipantsResponse{
			ChannelID:    channelID,
			Count:        len(occupants),
			Participants: occupants,
		})
	}
}

// HandlePresenceWebhook folds a LiveKit webhook event into the registry. Any
// envelope carrying an event kind is acknowledged, whether or not it changed
// a roster.
func HandlePresenceWebhook(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev presence.Event
		if customErr := req.DecodeJSON(w, r, &ev); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if ev.Event == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidWebhookPayload))
			return
		}

		outcome := deps.Registry.Apply(ev)
		deps.Metrics.RecordPresenceEvent(r.Context(), ev.Event, outcome.Label())

		resp.RespondSuccess(w, r, WebhookAck{OK: true})
	}
}
