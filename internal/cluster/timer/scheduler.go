// Package timer schedules deterministic future work for the auction state
// machine.
//
// The durable deadline itself lives in the host's replicated timer facility;
// this package owns only the in-memory binding from a correlation id to the
// domain transition that must run when the deadline fires. Because that
// binding cannot survive a restart, it is carried as a tagged payload that
// snapshot restore can re-establish, never as a closure.
package timer

import "github.com/rs/zerolog"

// Kind identifies the domain transition a timer drives.
type Kind uint8

const (
	// KindUnknown is an invalid timer kind.
	KindUnknown Kind = iota
	// KindOpenAuction opens an auction at its start time.
	KindOpenAuction
	// KindCloseAuction closes an auction at its end time.
	KindCloseAuction
	// KindRemoveAuction evicts an auction after its removal delay.
	KindRemoveAuction
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindOpenAuction:
		return "OPEN_AUCTION"
	case KindCloseAuction:
		return "CLOSE_AUCTION"
	case KindRemoveAuction:
		return "REMOVE_AUCTION"
	default:
		return "UNKNOWN"
	}
}

// Payload is the durable description of pending timer work.
type Payload struct {
	Kind      Kind
	AuctionID int64
}

// Registrar is the external facility that durably fires deadlines back into
// the apply loop. Registration may be rejected under backpressure.
type Registrar interface {
	RegisterDeadline(correlationID, deadline int64) bool
}

// Transitions receives the domain calls resolved from fired timers.
type Transitions interface {
	OpenAuction(now, auctionID int64)
	CloseAuction(now, auctionID int64)
	RemoveAuction(auctionID int64)
}

const registerRetryLimit = 100

// Scheduler maps correlation ids to pending timer payloads. It is owned by
// the apply loop; all methods run single-threaded.
type Scheduler struct {
	log       zerolog.Logger
	registrar Registrar

	correlationID int64
	pending       map[int64]Payload
}

// NewScheduler returns a scheduler registering deadlines with the supplied
// registrar.
func NewScheduler(log zerolog.Logger, registrar Registrar) *Scheduler {
	return &Scheduler{
		log:       log,
		registrar: registrar,
		pending:   make(map[int64]Payload),
	}
}

// Schedule mints the next correlation id, remembers the payload, and
// registers the deadline with the external facility. Registration is retried
// against transient backpressure; after the retry budget is exhausted the
// mapping is kept and a warning is logged, matching the facility's
// at-most-once registration contract.
func (s *Scheduler) Schedule(deadline int64, payload Payload) int64 {
	s.correlationID++
	correlationID := s.correlationID
	s.pending[correlationID] = payload

	for attempt := 0; ; attempt++ {
		if s.registrar.RegisterDeadline(correlationID, deadline) {
			return correlationID
		}
		if attempt >= registerRetryLimit {
			s.log.Warn().
				Int64("correlation_id", correlationID).
				Int64("deadline", deadline).
				Stringer("kind", payload.Kind).
				Msg("failed to register timer deadline")
			return correlationID
		}
	}
}

// Restore re-binds a correlation id to its payload without registering the
// deadline again; the facility's own snapshot already carries it. The
// correlation counter is advanced past restored ids so future timers never
// collide with restored ones.
func (s *Scheduler) Restore(correlationID int64, payload Payload) {
	s.pending[correlationID] = payload
	if correlationID > s.correlationID {
		s.correlationID = correlationID
	}
}

// Fire resolves a fired correlation id to its domain transition and removes
// the binding. Unknown ids are logged and dropped.
func (s *Scheduler) Fire(now, correlationID int64, transitions Transitions) {
	payload, ok := s.pending[correlationID]
	if !ok {
		s.log.Warn().Int64("correlation_id", correlationID).Msg("timer fired for unknown correlation id")
		return
	}
	delete(s.pending, correlationID)

	switch payload.Kind {
	case KindOpenAuction:
		transitions.OpenAuction(now, payload.AuctionID)
	case KindCloseAuction:
		transitions.CloseAuction(now, payload.AuctionID)
	case KindRemoveAuction:
		transitions.RemoveAuction(payload.AuctionID)
	default:
		s.log.Warn().
			Int64("correlation_id", correlationID).
			Uint8("kind", uint8(payload.Kind)).
			Msg("timer fired with unknown payload kind")
	}
}

// NextCorrelationID returns the current correlation counter, for snapshots.
func (s *Scheduler) NextCorrelationID() int64 {
	return s.correlationID
}

// RestoreCorrelationID reinstates the correlation counter from a snapshot.
func (s *Scheduler) RestoreCorrelationID(correlationID int64) {
	if correlationID > s.correlationID {
		s.correlationID = correlationID
	}
}

// Pending returns the number of unfired timers, for tests and debugging.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}
