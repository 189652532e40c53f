package presence

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voicesvc/internal/pkg/logx"
)

const (
	// timeout for a single websocket write.
	writeWait = 10 * time.Second

	// how long to wait for a Pong before treating the watcher as gone.
	pongWait = 60 * time.Second

	// ping interval; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// watchers only send control frames; anything larger is a protocol violation.
	maxMessageSize = 512

	// snapshots buffered per watcher before it counts as too slow.
	watcherQueueSize = 16
)

// RosterMessage is the JSON frame pushed to watchers.
type RosterMessage struct {
	ChannelID    string     `json:"channelId"`
	Count        int        `json:"count"`
	Participants []Occupant `json:"participants"`
	Revision     uint64     `json:"revision"`
}

// NewRosterMessage converts a snapshot into its wire frame.
func NewRosterMessage(s Snapshot) RosterMessage {
	participants := s.Occupants
	if participants == nil {
		participants = []Occupant{}
	}

	return RosterMessage{
		ChannelID:    s.Room,
		Count:        len(participants),
		Participants: participants,
		Revision:     s.Revision,
	}
}

// Watcher streams one room's roster over a websocket connection.
type Watcher struct {
	// the room being watched.
	room string

	// underlying websocket connection.
	conn *websocket.Conn

	// hub the watcher is registered with.
	hub *Hub

	// queued snapshots waiting to be written. Only the hub sends to or closes it.
	queue chan Snapshot

	closeOnce sync.Once

	logger zerolog.Logger
}

// NewWatcher wraps conn as a watcher of room.
func NewWatcher(hub *Hub, conn *websocket.Conn, room string) *Watcher {
	return &Watcher{
		room:   room,
		conn:   conn,
		hub:    hub,
		queue:  make(chan Snapshot, watcherQueueSize),
		logger: logx.Component("presence_watcher").With().Str("room", room).Logger(),
	}
}

// enqueue queues s without blocking and reports whether there was room.
func (w *Watcher) enqueue(s Snapshot) bool {
	select {
	case w.queue <- s:
		return true
	default:
		return false
	}
}

func (w *Watcher) closeQueue() {
	w.closeOnce.Do(func() {
		close(w.queue)
	})
}

// ReadPump consumes inbound frames so pongs and close frames are processed.
// Payloads are discarded. When the connection ends the watcher is unregistered.
func (w *Watcher) ReadPump() {
	defer func() {
		w.hub.Unregister(w)
		if err := w.conn.Close(); err != nil {
			w.logger.Debug().Err(err).Msg("Watcher connection close error")
		}
	}()

	w.conn.SetReadLimit(maxMessageSize)

	if err := w.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		w.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Info().Err(err).Msg("Watcher disconnected unexpectedly")
			}
			return
		}
	}
}

// WritePump writes queued snapshots and periodic pings until the queue is closed
// or a write fails. Snapshots older than the last one written are skipped.
func (w *Watcher) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := w.conn.Close(); err != nil {
			w.logger.Debug().Err(err).Msg("Watcher connection close error in WritePump")
		}
	}()

	var (
		sent         bool
		lastRevision uint64
	)

	for {
		select {
		case snapshot, ok := <-w.queue:
			if !ok {
				w.writeClose()
				return
			}

			if sent && snapshot.Revision <= lastRevision {
				continue
			}

			if !w.writeSnapshot(snapshot) {
				return
			}
			sent = true
			lastRevision = snapshot.Revision

		case <-ticker.C:
			if !w.writePing() {
				return
			}
		}
	}
}

func (w *Watcher) writeSnapshot(s Snapshot) bool {
	payload, err := json.Marshal(NewRosterMessage(s))
	if err != nil {
		w.logger.Error().Err(err).Msg("Error marshaling roster snapshot")
		return false
	}

	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		w.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := w.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		w.logger.Info().Err(err).Msg("Error writing roster snapshot")
		return false
	}

	return true
}

func (w *Watcher) writePing() bool {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		w.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		w.logger.Info().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

func (w *Watcher) writeClose() {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "watch ended")
	if err := w.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		w.logger.Debug().Err(err).Msg("Error writing close message")
	}
}
