package service

import (
	"io"
	"testing"

	"github.com/gavelworks/gavel/internal/cluster/codec"
	"github.com/gavelworks/gavel/internal/domain/auctions"
	"github.com/rs/zerolog"
)

// memoryRegistrar records registered deadlines and can replay due timers,
// standing in for the host's durable timer facility.
type memoryRegistrar struct {
	deadlines map[int64]int64
}

func newMemoryRegistrar() *memoryRegistrar {
	return &memoryRegistrar{deadlines: make(map[int64]int64)}
}

func (r *memoryRegistrar) RegisterDeadline(correlationID, deadline int64) bool {
	r.deadlines[correlationID] = deadline
	return true
}

// fireDue delivers every due timer to the machine in correlation id order.
func (r *memoryRegistrar) fireDue(machine *Machine, now int64) {
	for {
		bestID := int64(-1)
		for correlationID, deadline := range r.deadlines {
			if deadline <= now && (bestID == -1 || correlationID < bestID) {
				bestID = correlationID
			}
		}
		if bestID == -1 {
			return
		}
		delete(r.deadlines, bestID)
		machine.OnTimerEvent(bestID, now)
	}
}

type sessionRecorder struct {
	replies    [][]byte
	broadcasts [][]byte
}

func (s *sessionRecorder) Reply(frame []byte) bool {
	s.replies = append(s.replies, frame)
	return true
}

func (s *sessionRecorder) Broadcast(frame []byte) bool {
	s.broadcasts = append(s.broadcasts, frame)
	return true
}

type memorySink struct {
	records [][]byte
}

func (m *memorySink) Offer(record []byte) bool {
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

func newTestMachine() (*Machine, *memoryRegistrar, *sessionRecorder) {
	registrar := newMemoryRegistrar()
	sessions := &sessionRecorder{}
	machine := New(
		Config{MinimumAuctionDuration: 20_000, RemovalDelay: 25_000},
		zerolog.Nop(), registrar, sessions,
	)
	return machine, registrar, sessions
}

func TestMachineFullAuctionLifecycle(t *testing.T) {
	machine, registrar, sessions := newTestMachine()

	machine.OnSessionMessage(900, codec.EncodeAddParticipant(codec.AddParticipant{ParticipantID: 1000, CorrelationID: 1, Name: "alice"}))
	machine.OnSessionMessage(901, codec.EncodeAddParticipant(codec.AddParticipant{ParticipantID: 1001, CorrelationID: 2, Name: "bob"}))

	machine.OnSessionMessage(1000, codec.EncodeAddAuction(codec.AddAuction{
		CorrelationID: 3,
		CreatedBy:     1000,
		StartTime:     1002,
		EndTime:       31003,
		Name:          "name",
		Description:   "description",
	}))

	live := machine.Auctions()
	if len(live) != 1 {
		t.Fatalf("expected one auction, got %d", len(live))
	}
	auctionID := live[0].ID
	if len(registrar.deadlines) != 3 {
		t.Fatalf("expected three registered deadlines, got %d", len(registrar.deadlines))
	}

	// Open fires at the start time.
	registrar.fireDue(machine, 1002)
	live = machine.Auctions()
	if live[0].Status != auctions.StatusOpen {
		t.Fatalf("status = %v, want OPEN", live[0].Status)
	}

	machine.OnSessionMessage(2000, codec.EncodeAddBid(codec.AddBid{
		CorrelationID: 4,
		AuctionID:     auctionID,
		ParticipantID: 1001,
		Price:         99,
	}))
	live = machine.Auctions()
	if live[0].CurrentPrice != 99 || live[0].BidCount != 1 || live[0].WinningParticipantID != 1001 {
		t.Fatalf("bid not applied: %+v", live[0])
	}

	// Close fires at the end time.
	registrar.fireDue(machine, 31003)
	live = machine.Auctions()
	if live[0].Status != auctions.StatusClosed {
		t.Fatalf("status = %v, want CLOSED", live[0].Status)
	}

	// Removal evicts after the delay.
	registrar.fireDue(machine, 31003+25_000)
	if len(machine.Auctions()) != 0 {
		t.Fatalf("auction should be evicted after removal delay")
	}

	// Three participant/auction acks plus one bid ack.
	if len(sessions.replies) != 4 {
		t.Fatalf("expected 4 replies, got %d", len(sessions.replies))
	}
	// New auction, open, bid, close broadcasts.
	if len(sessions.broadcasts) != 4 {
		t.Fatalf("expected 4 broadcasts, got %d", len(sessions.broadcasts))
	}
}

func TestMachineSnapshotRestartResumesTimers(t *testing.T) {
	machine, _, _ := newTestMachine()

	machine.OnSessionMessage(900, codec.EncodeAddParticipant(codec.AddParticipant{ParticipantID: 1000, CorrelationID: 1, Name: "alice"}))
	machine.OnSessionMessage(901, codec.EncodeAddParticipant(codec.AddParticipant{ParticipantID: 1001, CorrelationID: 2, Name: "bob"}))
	machine.OnSessionMessage(1000, codec.EncodeAddAuction(codec.AddAuction{
		CorrelationID: 3,
		CreatedBy:     1000,
		StartTime:     5000,
		EndTime:       35_000,
		Name:          "name",
		Description:   "description",
	}))

	sink := &memorySink{}
	machine.TakeSnapshot(sink)

	// A fresh machine restores from the snapshot; the timer facility's own
	// durable deadlines are replayed by the host, so only the bindings are
	// re-established here.
	restarted, _, _ := newTestMachine()
	if err := restarted.LoadSnapshot(2000, &memorySource{records: sink.records}); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	live := restarted.Auctions()
	if len(live) != 1 {
		t.Fatalf("expected restored auction, got %d", len(live))
	}
	auction := live[0]
	if auction.Status != auctions.StatusPreOpen {
		t.Fatalf("restored status = %v, want PRE_OPEN", auction.Status)
	}

	// The persisted open-timer correlation id still drives the transition.
	restarted.OnTimerEvent(auction.OpenTimerID, 5000)
	live = restarted.Auctions()
	if live[0].Status != auctions.StatusOpen {
		t.Fatalf("restored timer binding should open the auction, status = %v", live[0].Status)
	}

	// Bids resume against restored state.
	restarted.OnSessionMessage(6000, codec.EncodeAddBid(codec.AddBid{
		CorrelationID: 4,
		AuctionID:     auction.ID,
		ParticipantID: 1001,
		Price:         50,
	}))
	live = restarted.Auctions()
	if live[0].CurrentPrice != 50 || live[0].BidCount != 1 {
		t.Fatalf("bid after restore not applied: %+v", live[0])
	}
}

func TestMachineSeedDemoParticipants(t *testing.T) {
	machine, _, _ := newTestMachine()
	machine.SeedDemoParticipants()

	list := machine.Participants()
	if len(list) != 2 || list[0].ID != 500 || list[1].ID != 501 {
		t.Fatalf("unexpected seeded participants: %+v", list)
	}
}
