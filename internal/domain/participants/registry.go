// Package participants holds the authoritative set of participants known to
// the auction state machine.
package participants

import (
	"sort"

	"github.com/rs/zerolog"
)

// Participant is a member of the cluster that may create auctions and bid.
// Records are immutable once created.
type Participant struct {
	ID   int64
	Name string
}

// Responder acknowledges participant mutations back to the requesting
// session.
type Responder interface {
	ParticipantAdded(participantID, correlationID int64)
}

// Registry is the authoritative participant set. It is owned by the apply
// loop and must never be mutated concurrently.
type Registry struct {
	log       zerolog.Logger
	responder Responder
	byID      map[int64]Participant
}

// NewRegistry returns an empty registry that acknowledges mutations through
// the supplied responder.
func NewRegistry(log zerolog.Logger, responder Responder) *Registry {
	return &Registry{
		log:       log,
		responder: responder,
		byID:      make(map[int64]Participant),
	}
}

// Add stores a participant and acknowledges the request. Duplicate ids
// overwrite the existing record; uniqueness is not enforced here.
func (r *Registry) Add(id int64, name string, correlationID int64) {
	r.log.Info().Int64("participant_id", id).Str("name", name).Msg("adding participant")
	r.byID[id] = Participant{ID: id, Name: name}
	r.responder.ParticipantAdded(id, correlationID)
}

// Restore stores a participant during snapshot load, without acknowledgement.
func (r *Registry) Restore(id int64, name string) {
	r.log.Info().Int64("participant_id", id).Str("name", name).Msg("restoring participant")
	r.byID[id] = Participant{ID: id, Name: name}
}

// IsKnown reports whether a participant id exists in the registry.
func (r *Registry) IsKnown(id int64) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns all participants sorted by id.
func (r *Registry) List() []Participant {
	list := make([]Participant, 0, len(r.byID))
	for _, participant := range r.byID {
		list = append(list, participant)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// SeedDefaults installs the demo participants used by local walkthroughs.
// Production hosts leave seeding disabled.
func (r *Registry) SeedDefaults() {
	r.byID[500] = Participant{ID: 500, Name: "initiator"}
	r.byID[501] = Participant{ID: 501, Name: "responder"}
}
