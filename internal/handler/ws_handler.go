/*
Package handler provides the HTTP handler function for the roster watch stream.

HandleWatchParticipants upgrades the connection to a WebSocket, registers a
watcher for the channel and runs its read and write pumps.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"voicesvc/internal/app/presence"
	"voicesvc/internal/pkg/errs"
	"voicesvc/internal/pkg/logx"
	"voicesvc/internal/pkg/resp"
)

// HandleWatchParticipants creates an HTTP HandlerFunc streaming roster snapshots
// of one channel over a WebSocket.
func HandleWatchParticipants(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID := chi.URLParam(r, "channelId")
		if channelID == "" {
			logx.Warn("Watch request rejected: Missing channel id")
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelIDRequired))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade watch connection to WebSocket", "error", err.Error())
			return
		}

		watcher := presence.NewWatcher(deps.Hub, conn, channelID)

		go watcher.WritePump()

		if !deps.Hub.Register(watcher, deps.Registry) {
			logx.Info("Watch connection refused: hub is shutting down", "room", channelID)
			return
		}

		watcher.ReadPump()
	}
}
