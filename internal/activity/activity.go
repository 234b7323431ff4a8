// Package activity defines the outbound activity-log port. The marketplace
// records every adoption outcome (requested, accepted, rejected) for audit
// and notification purposes; delivery (email, feeds) happens in an external
// system that consumes these events.
package activity

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event types emitted by the lifecycle engine.
const (
	EventRequested = "adoption.requested"
	EventAccepted  = "adoption.accepted"
	EventRejected  = "adoption.rejected"
	EventCancelled = "adoption.cancelled"
)

// Event is one immutable record of an adoption outcome.
type Event struct {
	Type       string    // one of the Event* constants
	RequestID  string    // the affected adoption request
	PetID      string    // the target pet
	PetOwnerID string    // the pet's owner at the time of the event
	ActorID    string    // who caused the transition (requester or resolver)
	Auto       bool      // true for cascade rejections authored by the system
	At         time.Time // event time (UTC)
}

// Log receives adoption events. Implementations must be safe for concurrent
// use and should not block the caller; the engine emits events after its
// transaction commits, so a slow or failing sink never rolls back state.
type Log interface {
	Record(ctx context.Context, ev Event)
}

// ZerologSink writes events as structured log records. It is the shipped
// implementation; production deployments replace it with a real fan-out.
type ZerologSink struct {
	Logger zerolog.Logger
}

// NewZerologSink returns a sink writing through the given logger.
func NewZerologSink(l zerolog.Logger) *ZerologSink { return &ZerologSink{Logger: l} }

// Record implements Log.
func (s *ZerologSink) Record(_ context.Context, ev Event) {
	s.Logger.Info().
		Str("event", ev.Type).
		Str("request_id", ev.RequestID).
		Str("pet_id", ev.PetID).
		Str("pet_owner_id", ev.PetOwnerID).
		Str("actor_id", ev.ActorID).
		Bool("auto", ev.Auto).
		Time("at", ev.At).
		Msg("activity")
}
