package snapshot

import (
	"errors"
	"io"
	"testing"

	"github.com/gavelworks/gavel/internal/cluster/codec"
	"github.com/gavelworks/gavel/internal/cluster/timer"
	"github.com/gavelworks/gavel/internal/domain/auctions"
	"github.com/gavelworks/gavel/internal/domain/ids"
	"github.com/gavelworks/gavel/internal/domain/participants"
	"github.com/rs/zerolog"
)

type nullResponder struct{}

func (nullResponder) ParticipantAdded(participantID, correlationID int64) {}
func (nullResponder) AuctionAdded(correlationID, auctionID, startTime, endTime int64, name, description string) {
}
func (nullResponder) RejectAddAuction(correlationID int64, result auctions.AddAuctionResult) {}
func (nullResponder) BidAccepted(correlationID, auctionID, price int64)                      {}
func (nullResponder) RejectAddBid(correlationID, auctionID int64, result auctions.AddBidResult) {
}
func (nullResponder) BroadcastNewAuction(auctionID, startTime, endTime int64, name, description string) {
}
func (nullResponder) BroadcastAuctionUpdate(auction auctions.Auction) {}

type nullRegistrar struct{}

func (nullRegistrar) RegisterDeadline(correlationID, deadline int64) bool { return true }

type memorySink struct {
	records    [][]byte
	rejections int
}

func (m *memorySink) Offer(record []byte) bool {
	if m.rejections > 0 {
		m.rejections--
		return false
	}
	m.records = append(m.records, record)
	return true
}

type memorySource struct {
	records [][]byte
	next    int
}

func (m *memorySource) Next() ([]byte, error) {
	if m.next >= len(m.records) {
		return nil, io.EOF
	}
	record := m.records[m.next]
	m.next++
	return record, nil
}

type world struct {
	registry    *participants.Registry
	engine      *auctions.Engine
	generator   *ids.Generator
	scheduler   *timer.Scheduler
	coordinator *Coordinator
}

func newWorld() *world {
	registry := participants.NewRegistry(zerolog.Nop(), nullResponder{})
	generator := &ids.Generator{}
	scheduler := timer.NewScheduler(zerolog.Nop(), nullRegistrar{})
	engine := auctions.NewEngine(
		auctions.Config{MinimumDuration: 20_000, RemovalDelay: 25_000},
		zerolog.Nop(), registry, generator, scheduler, nullResponder{},
	)
	return &world{
		registry:    registry,
		engine:      engine,
		generator:   generator,
		scheduler:   scheduler,
		coordinator: NewCoordinator(zerolog.Nop(), registry, engine, generator, scheduler),
	}
}

func populate(t *testing.T, w *world) {
	t.Helper()
	w.registry.Add(500, "initiator", 1)
	w.registry.Add(501, "responder", 2)

	for i := int64(0); i < 3; i++ {
		start := 10_000 + i*1000
		result := w.engine.AddAuction(1000+i, 10+i, 500, start, start+30_000, "vase", "ming vase")
		if result != auctions.AddAuctionSuccess {
			t.Fatalf("add auction %d: %v", i, result)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	source := newWorld()
	populate(t, source)

	sink := &memorySink{}
	source.coordinator.Take(sink)

	restored := newWorld()
	if err := restored.coordinator.Load(2000, &memorySource{records: sink.records}); err != nil {
		t.Fatalf("load: %v", err)
	}

	wantParticipants := source.registry.List()
	gotParticipants := restored.registry.List()
	if len(gotParticipants) != len(wantParticipants) {
		t.Fatalf("participants = %d, want %d", len(gotParticipants), len(wantParticipants))
	}
	for i := range wantParticipants {
		if gotParticipants[i] != wantParticipants[i] {
			t.Fatalf("participant %d mismatch: %+v != %+v", i, gotParticipants[i], wantParticipants[i])
		}
	}

	wantAuctions := source.engine.List()
	gotAuctions := restored.engine.List()
	if len(gotAuctions) != len(wantAuctions) {
		t.Fatalf("auctions = %d, want %d", len(gotAuctions), len(wantAuctions))
	}
	for i := range wantAuctions {
		if gotAuctions[i] != wantAuctions[i] {
			t.Fatalf("auction %d mismatch: %+v != %+v", i, gotAuctions[i], wantAuctions[i])
		}
	}

	// Restored timers must be bound to the same correlation ids.
	if restored.scheduler.Pending() != source.scheduler.Pending() {
		t.Fatalf("pending timers = %d, want %d", restored.scheduler.Pending(), source.scheduler.Pending())
	}

	// The id generator must not re-issue ids after restore.
	next := restored.generator.NextID(2000)
	if next <= source.generator.LastID() {
		t.Fatalf("restored generator re-issued id %d", next)
	}
}

func TestLoadDropsAuctionsWhoseWindowPassed(t *testing.T) {
	source := newWorld()
	populate(t, source)

	sink := &memorySink{}
	source.coordinator.Take(sink)

	// First auction starts at 10000; restoring at 10000 must drop it and
	// keep the two later ones.
	restored := newWorld()
	if err := restored.coordinator.Load(10_000, &memorySource{records: sink.records}); err != nil {
		t.Fatalf("load: %v", err)
	}

	got := restored.engine.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 restored auctions, got %d", len(got))
	}
	for _, auction := range got {
		if auction.StartTime <= 10_000 {
			t.Fatalf("auction %d with elapsed window was restored", auction.ID)
		}
	}
}

func TestLoadRejectsUnknownSchemaVersion(t *testing.T) {
	records := [][]byte{
		codec.EncodeSnapshotVersion(codec.SnapshotSchemaVersion + 1),
		codec.EncodeEndOfSnapshot(),
	}

	restored := newWorld()
	err := restored.coordinator.Load(0, &memorySource{records: records})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version error, got %v", err)
	}
}

func TestLoadRejectsStreamWithoutVersionRecord(t *testing.T) {
	records := [][]byte{
		codec.EncodeParticipantRecord(codec.ParticipantRecord{ParticipantID: 1, Name: "a"}),
	}

	restored := newWorld()
	err := restored.coordinator.Load(0, &memorySource{records: records})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version error, got %v", err)
	}
}

func TestLoadTruncatedStreamWarnsButSucceeds(t *testing.T) {
	source := newWorld()
	populate(t, source)

	sink := &memorySink{}
	source.coordinator.Take(sink)

	// Drop the end marker.
	truncated := sink.records[:len(sink.records)-1]

	restored := newWorld()
	if err := restored.coordinator.Load(2000, &memorySource{records: truncated}); err != nil {
		t.Fatalf("truncated snapshot should load with a warning, got %v", err)
	}
	if len(restored.registry.List()) != 2 {
		t.Fatalf("participants should still restore from truncated stream")
	}
}

func TestLoadSkipsUnknownRecordTemplates(t *testing.T) {
	unknown := codec.EncodeAuctionRejected(codec.AuctionRejected{CorrelationID: 1, Result: 2})
	records := [][]byte{
		codec.EncodeSnapshotVersion(codec.SnapshotSchemaVersion),
		unknown,
		codec.EncodeParticipantRecord(codec.ParticipantRecord{ParticipantID: 7, Name: "carol"}),
		codec.EncodeEndOfSnapshot(),
	}

	restored := newWorld()
	if err := restored.coordinator.Load(0, &memorySource{records: records}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !restored.registry.IsKnown(7) {
		t.Fatalf("records after an unknown template should still restore")
	}
}

func TestTakeAbandonsRecordAfterRetryBudget(t *testing.T) {
	source := newWorld()
	source.registry.Add(500, "initiator", 1)

	// Reject every offer of the first record, then accept.
	sink := &memorySink{rejections: offerRetryLimit}
	source.coordinator.Take(sink)

	// The version record was abandoned after exactly its retry budget; the
	// rest of the stream was still written, ending with the end marker.
	last := sink.records[len(sink.records)-1]
	header, err := codec.DecodeHeader(last)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if header.Template != codec.TemplateEndOfSnapshot {
		t.Fatalf("stream should still terminate with end marker, got template %d", header.Template)
	}
	if sink.records[0] == nil {
		t.Fatalf("first accepted record missing")
	}
	firstHeader, err := codec.DecodeHeader(sink.records[0])
	if err != nil {
		t.Fatalf("decode first record: %v", err)
	}
	if firstHeader.Template == codec.TemplateSnapshotVersion {
		t.Fatalf("version record should have been abandoned within its budget")
	}
}
