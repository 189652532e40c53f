package presence

import "encoding/json"

// Webhook event kinds that change a roster. Every other kind is ignored.
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
)

// Event is the subset of a LiveKit webhook envelope the registry reads.
type Event struct {
	Event       string            `json:"event"`
	Room        *EventRoom        `json:"room,omitempty"`
	Participant *EventParticipant `json:"participant,omitempty"`
}

// EventRoom identifies the room an event refers to.
type EventRoom struct {
	Name string `json:"name"`
}

// EventParticipant identifies the participant an event refers to.
type EventParticipant struct {
	Identity string `json:"identity"`
	Name     string `json:"name,omitempty"`
}

// UnmarshalJSON decodes a webhook envelope leniently. Only a body that is not a
// JSON object is an error. A field of the wrong type decodes as absent, so the
// event is later ignored instead of failing the whole delivery.
func (e *Event) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Event       json.RawMessage `json:"event"`
		Room        json.RawMessage `json:"room"`
		Participant json.RawMessage `json:"participant"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	*e = Event{Event: lenientString(envelope.Event)}

	var room struct {
		Name json.RawMessage `json:"name"`
	}
	if len(envelope.Room) > 0 && json.Unmarshal(envelope.Room, &room) == nil {
		e.Room = &EventRoom{Name: lenientString(room.Name)}
	}

	var participant struct {
		Identity json.RawMessage `json:"identity"`
		Name     json.RawMessage `json:"name"`
	}
	if len(envelope.Participant) > 0 && json.Unmarshal(envelope.Participant, &participant) == nil {
		e.Participant = &EventParticipant{
			Identity: lenientString(participant.Identity),
			Name:     lenientString(participant.Name),
		}
	}

	return nil
}

// lenientString returns raw as a string, or "" if raw is absent or not a JSON string.
func lenientString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// IgnoreReason says why an event left the registry unchanged.
type IgnoreReason string

const (
	ReasonMissingRoom        IgnoreReason = "missing_room"
	ReasonMissingParticipant IgnoreReason = "missing_participant"
	ReasonUnknownEvent       IgnoreReason = "unknown_event"
	ReasonNotPresent         IgnoreReason = "not_present"
)

// Outcome is the result of applying one event.
type Outcome struct {
	Applied bool
	Reason  IgnoreReason
}

// Label returns "applied" or the ignore reason, for logs and metric attributes.
func (o Outcome) Label() string {
	if o.Applied {
		return "applied"
	}
	return string(o.Reason)
}

func applied() Outcome {
	return Outcome{Applied: true}
}

func ignored(reason IgnoreReason) Outcome {
	return Outcome{Reason: reason}
}

// Apply folds one webhook event into the registry. It never fails: malformed,
// irrelevant and stale events are reported as ignored and leave state untouched.
func (r *Registry) Apply(ev Event) Outcome {
	var room, identity string
	if ev.Room != nil {
		room = ev.Room.Name
	}
	if ev.Participant != nil {
		identity = ev.Participant.Identity
	}

	outcome := r.dispatch(ev, room, identity)

	if outcome.Applied {
		r.logger.Info().
			Str("event", ev.Event).
			Str("room", room).
			Str("participant", identity).
			Msg("Presence event applied")
	} else {
		r.logger.Debug().
			Str("event", ev.Event).
			Str("room", room).
			Str("participant", identity).
			Str("reason", outcome.Label()).
			Msg("Presence event ignored")
	}

	return outcome
}

func (r *Registry) dispatch(ev Event, room, identity string) Outcome {
	switch {
	case room == "":
		return ignored(ReasonMissingRoom)
	case identity == "":
		return ignored(ReasonMissingParticipant)
	}

	switch ev.Event {
	case EventParticipantJoined:
		r.RecordJoin(room, identity, ev.Participant.Name)
		return applied()

	case EventParticipantLeft:
		if !r.RecordLeave(room, identity) {
			return ignored(ReasonNotPresent)
		}
		return applied()

	default:
		return ignored(ReasonUnknownEvent)
	}
}
