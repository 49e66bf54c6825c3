package host

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gavelworks/gavel/internal/cluster/codec"
	"github.com/gavelworks/gavel/internal/cluster/service"
	"github.com/gavelworks/gavel/internal/platform/config"
	"github.com/gavelworks/gavel/internal/platform/metrics"
	"github.com/gavelworks/gavel/internal/storage/bolt"
)

const timerPollInterval = 10 * time.Millisecond

// clock produces the logical timestamps fed into the state machine. Wall
// time enters the system here and nowhere else; the reading never goes
// backwards even if the wall clock does.
type clock struct {
	last int64
}

func (c *clock) now() int64 {
	t := time.Now().UnixMilli()
	if t <= c.last {
		t = c.last + 1
	}
	c.last = t
	return t
}

// Host runs the state machine single-threaded. Every mutation enters through
// one loop: client commands from the websocket hub, deadline expirations from
// the timer facility, and snapshot ticks. Nothing else touches the machine.
type Host struct {
	log     zerolog.Logger
	cfg     config.Config
	store   *bolt.Store
	hub     *hub
	timers  *timerFacility
	machine *service.Machine
	clock   clock
}

func New(cfg config.Config, log zerolog.Logger, store *bolt.Store) *Host {
	h := &Host{
		log:   log.With().Str("component", "host").Logger(),
		cfg:   cfg,
		store: store,
	}
	h.hub = newHub(log)
	h.timers = newTimerFacility(log, store)
	h.machine = service.New(service.Config{
		MinimumAuctionDuration: cfg.MinimumAuctionDuration,
		RemovalDelay:           cfg.RemovalDelay,
	}, log, h.timers, h.hub)
	return h
}

// Hub exposes the websocket handler for the HTTP server.
func (h *Host) Hub() http.Handler { return h.hub }

// Boot restores persisted state: the latest snapshot, then the durable timer
// deadlines whose correlation ids the snapshot re-bound.
func (h *Host) Boot(ctx context.Context) error {
	records, err := h.store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		src := &recordSource{records: records}
		if err := h.machine.LoadSnapshot(h.clock.now(), src); err != nil {
			return err
		}
		h.log.Info().Int("records", len(records)).Msg("snapshot restored")
	}
	if err := h.timers.restore(ctx); err != nil {
		return err
	}
	if h.cfg.SeedDemoParticipants {
		h.machine.SeedDemoParticipants()
	}
	return nil
}

// Run drives the apply loop until the context is cancelled.
func (h *Host) Run(ctx context.Context) error {
	poll := time.NewTicker(timerPollInterval)
	defer poll.Stop()

	var snapshots <-chan time.Time
	if h.cfg.SnapshotInterval > 0 {
		ticker := time.NewTicker(time.Duration(h.cfg.SnapshotInterval) * time.Millisecond)
		defer ticker.Stop()
		snapshots = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			h.snapshot(context.Background())
			h.hub.shutdown()
			h.hub.closeAll()
			return ctx.Err()
		case in := <-h.hub.inbound:
			h.apply(in)
		case <-poll.C:
			h.fireDue()
		case <-snapshots:
			h.snapshot(ctx)
		}
	}
}

func (h *Host) apply(in inbound) {
	now := h.clock.now()
	h.hub.setCurrent(in.from)
	h.machine.OnSessionMessage(now, in.frame)
	h.hub.setCurrent(nil)
	metrics.CommandApplied(templateName(in.frame))
}

func (h *Host) fireDue() {
	now := h.clock.now()
	for _, correlationID := range h.timers.due(now) {
		h.machine.OnTimerEvent(correlationID, now)
		h.timers.complete(correlationID)
		metrics.TimerFired()
	}
}

func (h *Host) snapshot(ctx context.Context) {
	start := time.Now()
	sink := &recordSink{}
	h.machine.TakeSnapshot(sink)
	if err := h.store.SaveSnapshot(ctx, sink.records); err != nil {
		h.log.Error().Err(err).Msg("persist snapshot")
		return
	}
	metrics.SnapshotTaken(time.Since(start).Seconds())
	h.log.Debug().Int("records", len(sink.records)).Msg("snapshot taken")
}

func templateName(frame []byte) string {
	header, err := codec.DecodeHeader(frame)
	if err != nil {
		return "invalid"
	}
	return codec.TemplateName(header.Template)
}

// recordSink buffers snapshot records in memory before they are written to
// storage in one transaction.
type recordSink struct {
	records [][]byte
}

func (s *recordSink) Offer(record []byte) bool {
	buf := make([]byte, len(record))
	copy(buf, record)
	s.records = append(s.records, buf)
	return true
}

// recordSource replays stored snapshot records.
type recordSource struct {
	records [][]byte
	next    int
}

func (s *recordSource) Next() ([]byte, error) {
	if s.next >= len(s.records) {
		return nil, io.EOF
	}
	record := s.records[s.next]
	s.next++
	return record, nil
}
