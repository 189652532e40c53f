package presence

import (
	"sync"

	"github.com/rs/zerolog"

	"voicesvc/internal/pkg/logx"
)

// Hub fans roster snapshots out to the websocket watchers of each room.
// It implements Observer and is wired into the Registry with WithObserver.
type Hub struct {
	// watchers groups the live watchers by room name.
	watchers map[string]map[*Watcher]struct{}

	// closed is set by Shutdown; later registrations are refused.
	closed bool

	// mu protects watchers and closed. Every send to or close of a watcher's
	// queue happens while holding it.
	mu sync.Mutex

	logger zerolog.Logger
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		watchers: make(map[string]map[*Watcher]struct{}),
		logger:   logx.Component("presence_hub"),
	}
}

// SnapshotSource provides the current roster of a room.
type SnapshotSource interface {
	Snapshot(room string) Snapshot
}

// Register adds w to its room and queues the room's current roster, read from
// source, as the first snapshot it sends. Reading under the hub lock guarantees
// no mutation is lost between the read and the registration.
// It reports false if the hub is shut down, in which case w's queue is closed.
func (h *Hub) Register(w *Watcher, source SnapshotSource) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		w.closeQueue()
		return false
	}

	set, ok := h.watchers[w.room]
	if !ok {
		set = make(map[*Watcher]struct{})
		h.watchers[w.room] = set
	}
	set[w] = struct{}{}

	w.enqueue(source.Snapshot(w.room))

	h.logger.Info().
		Str("room", w.room).
		Int("watchers", len(set)).
		Msg("Roster watcher registered.")
	return true
}

// Unregister removes w and closes its queue. Unknown watchers are ignored.
func (h *Hub) Unregister(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(w)
}

// RosterChanged queues snapshot for every watcher of its room. Watchers whose
// queue is full are dropped rather than blocking the registry.
func (h *Hub) RosterChanged(snapshot Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for w := range h.watchers[snapshot.Room] {
		if !w.enqueue(snapshot) {
			h.logger.Warn().
				Str("room", snapshot.Room).
				Msg("Roster watcher queue full, dropping watcher.")
			h.removeLocked(w)
		}
	}
}

// WatcherCount returns the number of live watchers for room.
func (h *Hub) WatcherCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.watchers[room])
}

// Shutdown closes every watcher and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.Info().Msg("Shutting down roster watchers...")

	for _, set := range h.watchers {
		for w := range set {
			w.closeQueue()
		}
	}
	h.watchers = make(map[string]map[*Watcher]struct{})
	h.closed = true

	h.logger.Info().Msg("Roster watcher shutdown complete.")
}

// removeLocked drops w from its room. The caller must hold h.mu.
func (h *Hub) removeLocked(w *Watcher) {
	set, ok := h.watchers[w.room]
	if !ok {
		return
	}
	if _, ok := set[w]; !ok {
		return
	}

	delete(set, w)
	if len(set) == 0 {
		delete(h.watchers, w.room)
	}
	w.closeQueue()

	h.logger.Info().
		Str("room", w.room).
		Int("watchers", len(set)).
		Msg("Roster watcher removed.")
}
