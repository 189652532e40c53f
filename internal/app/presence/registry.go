/*
Package presence keeps a best-effort, in-memory view of who occupies each voice room.

The view is built from LiveKit webhook notifications, which may arrive out of order,
twice, or not at all. It is a cache, not a record of truth: nothing is persisted and a
restart starts from empty rosters that refill from subsequent events.

This file defines the Registry, which owns every room roster. Rooms are spread over
a fixed set of buckets, each with its own lock, so mutations within one room are
serialized while rooms in different buckets never contend.
*/
package presence

import (
	"encoding/json"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voicesvc/internal/pkg/logx"
)

// bucketCount is the number of independently locked room buckets.
const bucketCount = 32

// TimestampLayout renders join times as UTC ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Occupant is one participant currently believed to be in a room.
type Occupant struct {
	UserID      string
	DisplayName string
	JoinedAt    time.Time
}

// MarshalJSON encodes the occupant in the shape served to clients.
func (o Occupant) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		JoinedAt    string `json:"joinedAt"`
	}{
		UserID:      o.UserID,
		DisplayName: o.DisplayName,
		JoinedAt:    o.JoinedAt.UTC().Format(TimestampLayout),
	})
}

// Snapshot is a point-in-time copy of one room's roster.
type Snapshot struct {
	// Room is the room name.
	Room string

	// Revision increases with every mutation of the room's bucket. Snapshots of
	// the same room can be ordered by it.
	Revision uint64

	// Occupants is sorted by join time, then user ID. Empty for absent rooms.
	Occupants []Occupant
}

// Observer is notified after each roster mutation.
// Calls happen outside the registry's locks and may arrive out of revision order.
type Observer interface {
	RosterChanged(snapshot Snapshot)
}

// bucket guards a subset of the rooms.
type bucket struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]Occupant
	revision uint64
}

// Registry maps room name to roster. The zero value is not usable; call NewRegistry.
type Registry struct {
	buckets  [bucketCount]*bucket
	now      func() time.Time
	observer Observer
	logger   zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now for join timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithObserver registers o to be told about every roster mutation.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		now:    time.Now,
		logger: logx.Component("presence"),
	}

	for i := range r.buckets {
		r.buckets[i] = &bucket{rooms: make(map[string]map[string]Occupant)}
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Registry) bucketFor(room string) *bucket {
	h := fnv.New32a()
	_, _ = h.Write([]byte(room))
	return r.buckets[h.Sum32()%bucketCount]
}

// RecordJoin upserts userID into room, creating the room if needed. A repeated
// join replaces the earlier record, refreshing JoinedAt. An empty displayName
// falls back to userID.
func (r *Registry) RecordJoin(room, userID, displayName string) {
	if displayName == "" {
		displayName = userID
	}

	b := r.bucketFor(room)

	b.mu.Lock()
	roster, ok := b.rooms[room]
	if !ok {
		roster = make(map[string]Occupant)
		b.rooms[room] = roster
	}
	roster[userID] = Occupant{
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    r.now(),
	}
	b.revision++
	snapshot := snapshotLocked(b, room)
	b.mu.Unlock()

	r.notify(snapshot)
}

// RecordLeave removes userID from room and reports whether it was present.
// The room itself is dropped once its last occupant leaves.
func (r *Registry) RecordLeave(room, userID string) bool {
	b := r.bucketFor(room)

	b.mu.Lock()
	roster, ok := b.rooms[room]
	if !ok {
		b.mu.Unlock()
		return false
	}
	if _, present := roster[userID]; !present {
		b.mu.Unlock()
		return false
	}

	delete(roster, userID)
	if len(roster) == 0 {
		delete(b.rooms, room)
	}
	b.revision++
	snapshot := snapshotLocked(b, room)
	b.mu.Unlock()

	r.notify(snapshot)
	return true
}

// ListOccupants returns a copy of room's roster. Absent rooms yield an empty, non-nil slice.
func (r *Registry) ListOccupants(room string) []Occupant {
	return r.Snapshot(room).Occupants
}

// Snapshot returns a copy of room's roster together with its revision.
func (r *Registry) Snapshot(room string) Snapshot {
	b := r.bucketFor(room)

	b.mu.RLock()
	defer b.mu.RUnlock()

	return snapshotLocked(b, room)
}

// HasRoom reports whether room currently has a roster entry.
func (r *Registry) HasRoom(room string) bool {
	b := r.bucketFor(room)

	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.rooms[room]
	return ok
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	total := 0
	for _, b := range r.buckets {
		b.mu.RLock()
		total += len(b.rooms)
		b.mu.RUnlock()
	}
	return total
}

func (r *Registry) notify(snapshot Snapshot) {
	if r.observer != nil {
		r.observer.RosterChanged(snapshot)
	}
}

// snapshotLocked copies room's roster. The caller must hold b.mu.
func snapshotLocked(b *bucket, room string) Snapshot {
	roster := b.rooms[room]

	occupants := make([]Occupant, 0, len(roster))
	for _, o := range roster {
		occupants = append(occupants, o)
	}

	sort.Slice(occupants, func(i, j int) bool {
		if !occupants[i].JoinedAt.Equal(occupants[j].JoinedAt) {
			return occupants[i].JoinedAt.Before(occupants[j].JoinedAt)
		}
		return occupants[i].UserID < occupants[j].UserID
	})

	return Snapshot{
		Room:      room,
		Revision:  b.revision,
		Occupants: occupants,
	}
}
