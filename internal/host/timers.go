package host

import (
	"context"
	"sort"

	"github.com/gavelworks/gavel/internal/storage/bolt"
	"github.com/rs/zerolog"
)

// timerFacility is the single-node stand-in for the replicated log's durable
// timer store. Deadlines persist in BoltDB so they survive restarts; the
// state machine re-binds their correlation ids from its own snapshot.
type timerFacility struct {
	log     zerolog.Logger
	store   *bolt.Store
	pending map[int64]int64
}

func newTimerFacility(log zerolog.Logger, store *bolt.Store) *timerFacility {
	return &timerFacility{
		log:     log,
		store:   store,
		pending: make(map[int64]int64),
	}
}

// RegisterDeadline durably records a deadline. It reports failure so the
// scheduler can apply its retry budget.
func (f *timerFacility) RegisterDeadline(correlationID, deadline int64) bool {
	if err := f.store.PutTimer(context.Background(), correlationID, deadline); err != nil {
		f.log.Error().Err(err).Int64("correlation_id", correlationID).Msg("persist timer deadline")
		return false
	}
	f.pending[correlationID] = deadline
	return true
}

// restore reloads persisted deadlines after a restart.
func (f *timerFacility) restore(ctx context.Context) error {
	deadlines, err := f.store.Timers(ctx)
	if err != nil {
		return err
	}
	f.pending = deadlines
	return nil
}

// due returns every deadline at or before now, in correlation id order so
// replay is deterministic.
func (f *timerFacility) due(now int64) []int64 {
	var fired []int64
	for correlationID, deadline := range f.pending {
		if deadline <= now {
			fired = append(fired, correlationID)
		}
	}
	sort.Slice(fired, func(i, j int) bool { return fired[i] < fired[j] })
	return fired
}

// complete removes a fired deadline from memory and storage.
func (f *timerFacility) complete(correlationID int64) {
	delete(f.pending, correlationID)
	if err := f.store.DeleteTimer(context.Background(), correlationID); err != nil {
		f.log.Error().Err(err).Int64("correlation_id", correlationID).Msg("delete fired timer")
	}
}
