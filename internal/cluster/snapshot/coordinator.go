// Package snapshot serializes and restores the full domain state of the
// auction state machine.
//
// A snapshot is an ordered stream of typed records: a leading schema version,
// every participant, every live auction (with its timer correlation ids),
// the id generator position, the timer correlation counter, and a terminal
// end-of-snapshot marker. Restore filters auctions whose bidding window has
// already started; their timers would fire into the past.
package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/gavelworks/gavel/internal/cluster/codec"
	"github.com/gavelworks/gavel/internal/cluster/timer"
	"github.com/gavelworks/gavel/internal/domain/auctions"
	"github.com/gavelworks/gavel/internal/domain/ids"
	"github.com/gavelworks/gavel/internal/domain/participants"
	"github.com/rs/zerolog"
)

// Sink receives snapshot records. Offer reports backpressure by returning
// false; the coordinator retries a bounded number of times per record.
type Sink interface {
	Offer(record []byte) bool
}

// Source yields snapshot records in order, returning io.EOF when the stream
// is exhausted.
type Source interface {
	Next() ([]byte, error)
}

const offerRetryLimit = 3

// ErrUnsupportedVersion indicates a snapshot stream with an unknown schema
// version.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported schema version")

// Coordinator walks the domain components for serialization and restore.
type Coordinator struct {
	log       zerolog.Logger
	registry  *participants.Registry
	engine    *auctions.Engine
	generator *ids.Generator
	scheduler *timer.Scheduler
}

// NewCoordinator builds a coordinator over the domain components.
func NewCoordinator(log zerolog.Logger, registry *participants.Registry, engine *auctions.Engine,
	generator *ids.Generator, scheduler *timer.Scheduler) *Coordinator {
	return &Coordinator{
		log:       log,
		registry:  registry,
		engine:    engine,
		generator: generator,
		scheduler: scheduler,
	}
}

// Take writes the full domain state to the sink. Records that still fail
// after the retry budget are abandoned and logged; the resulting snapshot is
// incomplete and a restart from it may lose state, which is why the
// condition is logged loudly rather than silently tolerated.
func (c *Coordinator) Take(sink Sink) {
	c.log.Info().Msg("starting snapshot")

	c.offer(sink, codec.EncodeSnapshotVersion(codec.SnapshotSchemaVersion), "schema version")

	for _, participant := range c.registry.List() {
		c.offer(sink, codec.EncodeParticipantRecord(codec.ParticipantRecord{
			ParticipantID: participant.ID,
			Name:          participant.Name,
		}), "participant")
	}

	for _, auction := range c.engine.List() {
		c.offer(sink, codec.EncodeAuctionRecord(codec.AuctionRecord{
			AuctionID:            auction.ID,
			CreatedBy:            auction.CreatedBy,
			StartTime:            auction.StartTime,
			EndTime:              auction.EndTime,
			Name:                 auction.Name,
			Description:          auction.Description,
			CurrentPrice:         auction.CurrentPrice,
			WinningParticipantID: auction.WinningParticipantID,
			BidCount:             auction.BidCount,
			LastUpdateTime:       auction.LastUpdateTime,
			OpenTimerID:          auction.OpenTimerID,
			CloseTimerID:         auction.CloseTimerID,
			RemoveTimerID:        auction.RemoveTimerID,
		}), "auction")
	}

	c.offer(sink, codec.EncodeIDGeneratorRecord(c.generator.LastID()), "id generator")
	c.offer(sink, codec.EncodeTimerStateRecord(c.scheduler.NextCorrelationID()), "timer state")
	c.offer(sink, codec.EncodeEndOfSnapshot(), "end marker")

	c.log.Info().Msg("snapshot complete")
}

func (c *Coordinator) offer(sink Sink, record []byte, what string) {
	for attempt := 0; attempt < offerRetryLimit; attempt++ {
		if sink.Offer(record) {
			return
		}
	}
	c.log.Error().Str("record", what).Msg("abandoned snapshot record after retries; snapshot is incomplete")
}

// Load restores domain state from a snapshot stream at the supplied logical
// time. Participants are restored unconditionally; auctions whose start time
// has already passed are dropped. A missing end marker is logged as a
// warning but is not fatal.
func (c *Coordinator) Load(now int64, source Source) error {
	c.log.Info().Msg("loading snapshot")

	sawVersion := false
	sawEnd := false

	for {
		record, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read snapshot record: %w", err)
		}
		if sawEnd {
			c.log.Warn().Msg("snapshot records after end marker, ignored")
			break
		}

		header, err := codec.DecodeHeader(record)
		if err != nil {
			return fmt.Errorf("decode snapshot record: %w", err)
		}

		if !sawVersion {
			if header.Template != codec.TemplateSnapshotVersion {
				return fmt.Errorf("%w: stream does not begin with a version record", ErrUnsupportedVersion)
			}
			version, err := codec.DecodeSnapshotVersion(record, header)
			if err != nil {
				return fmt.Errorf("decode snapshot version: %w", err)
			}
			if version != codec.SnapshotSchemaVersion {
				return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
			}
			sawVersion = true
			continue
		}

		switch header.Template {
		case codec.TemplateParticipantRecord:
			rec, err := codec.DecodeParticipantRecord(record, header)
			if err != nil {
				return fmt.Errorf("decode participant record: %w", err)
			}
			c.registry.Restore(rec.ParticipantID, rec.Name)

		case codec.TemplateAuctionRecord:
			rec, err := codec.DecodeAuctionRecord(record, header)
			if err != nil {
				return fmt.Errorf("decode auction record: %w", err)
			}
			if rec.StartTime <= now {
				c.log.Info().
					Int64("auction_id", rec.AuctionID).
					Int64("start_time", rec.StartTime).
					Int64("now", now).
					Msg("dropping auction whose window has passed")
				continue
			}
			c.engine.Restore(auctions.Auction{
				ID:                   rec.AuctionID,
				CreatedBy:            rec.CreatedBy,
				StartTime:            rec.StartTime,
				EndTime:              rec.EndTime,
				Name:                 rec.Name,
				Description:          rec.Description,
				CurrentPrice:         rec.CurrentPrice,
				WinningParticipantID: rec.WinningParticipantID,
				BidCount:             rec.BidCount,
				LastUpdateTime:       rec.LastUpdateTime,
				OpenTimerID:          rec.OpenTimerID,
				CloseTimerID:         rec.CloseTimerID,
				RemoveTimerID:        rec.RemoveTimerID,
			})

		case codec.TemplateIDGeneratorRecord:
			lastID, err := codec.DecodeIDGeneratorRecord(record, header)
			if err != nil {
				return fmt.Errorf("decode id generator record: %w", err)
			}
			c.generator.RestoreLastID(lastID)

		case codec.TemplateTimerStateRecord:
			nextCorrelationID, err := codec.DecodeTimerStateRecord(record, header)
			if err != nil {
				return fmt.Errorf("decode timer state record: %w", err)
			}
			c.scheduler.RestoreCorrelationID(nextCorrelationID)

		case codec.TemplateEndOfSnapshot:
			sawEnd = true

		default:
			c.log.Warn().Uint16("template", header.Template).Msg("unknown snapshot record template, skipped")
		}
	}

	if !sawEnd {
		c.log.Warn().Msg("snapshot stream ended without end marker; snapshot may be truncated")
	}
	c.log.Info().Msg("snapshot load complete")
	return nil
}
