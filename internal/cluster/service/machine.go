// Package service assembles the auction state machine behind the surface the
// host apply loop drives.
//
// The host owns ordering and logical time: exactly one command, timer fire,
// or snapshot operation is in progress at a time, and every entry point takes
// the logical timestamp the host supplies. Nothing in this package or below
// it reads the wall clock.
package service

import (
	"github.com/gavelworks/gavel/internal/cluster/demux"
	"github.com/gavelworks/gavel/internal/cluster/respond"
	"github.com/gavelworks/gavel/internal/cluster/snapshot"
	"github.com/gavelworks/gavel/internal/cluster/timer"
	"github.com/gavelworks/gavel/internal/domain/auctions"
	"github.com/gavelworks/gavel/internal/domain/ids"
	"github.com/gavelworks/gavel/internal/domain/participants"
	"github.com/rs/zerolog"
)

// Config carries the domain durations for the machine.
type Config struct {
	// MinimumAuctionDuration is the smallest allowed auction length, in
	// logical milliseconds.
	MinimumAuctionDuration int64
	// RemovalDelay is how long a closed auction lingers before eviction,
	// in logical milliseconds.
	RemovalDelay int64
}

// Machine is the deterministic auction state machine. All methods must be
// called from a single apply loop.
type Machine struct {
	log        zerolog.Logger
	registry   *participants.Registry
	engine     *auctions.Engine
	generator  *ids.Generator
	scheduler  *timer.Scheduler
	dispatcher *demux.Dispatcher
	snapshots  *snapshot.Coordinator
}

// New wires the domain components over the host-provided seams: the timer
// registrar for durable deadlines and the session sink for replies and
// broadcasts.
func New(cfg Config, log zerolog.Logger, registrar timer.Registrar, sink respond.SessionSink) *Machine {
	responder := respond.NewWireResponder(log, sink)
	registry := participants.NewRegistry(log, responder)
	generator := &ids.Generator{}
	scheduler := timer.NewScheduler(log, registrar)
	engine := auctions.NewEngine(
		auctions.Config{MinimumDuration: cfg.MinimumAuctionDuration, RemovalDelay: cfg.RemovalDelay},
		log, registry, generator, scheduler, responder,
	)
	return &Machine{
		log:        log,
		registry:   registry,
		engine:     engine,
		generator:  generator,
		scheduler:  scheduler,
		dispatcher: demux.NewDispatcher(log, registry, engine, responder),
		snapshots:  snapshot.NewCoordinator(log, registry, engine, generator, scheduler),
	}
}

// OnSessionMessage applies one replicated command frame at the supplied
// logical time.
func (m *Machine) OnSessionMessage(timestamp int64, buf []byte) {
	m.dispatcher.Dispatch(timestamp, buf)
}

// OnTimerEvent resolves a fired timer to its domain transition.
func (m *Machine) OnTimerEvent(correlationID, timestamp int64) {
	m.scheduler.Fire(timestamp, correlationID, m.engine)
}

// TakeSnapshot serializes the full domain state to the sink.
func (m *Machine) TakeSnapshot(sink snapshot.Sink) {
	m.snapshots.Take(sink)
}

// LoadSnapshot restores domain state before normal command processing
// begins. It must be called at most once, on startup.
func (m *Machine) LoadSnapshot(timestamp int64, source snapshot.Source) error {
	return m.snapshots.Load(timestamp, source)
}

// SeedDemoParticipants installs the demo participants for local
// walkthroughs.
func (m *Machine) SeedDemoParticipants() {
	m.registry.SeedDefaults()
}

// Auctions returns the live auction set sorted by id, for host inspection.
func (m *Machine) Auctions() []auctions.Auction {
	return m.engine.List()
}

// Participants returns the participant set sorted by id, for host
// inspection.
func (m *Machine) Participants() []participants.Participant {
	return m.registry.List()
}
