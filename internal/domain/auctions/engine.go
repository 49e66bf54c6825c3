package auctions

import (
	"sort"
	"strings"

	"github.com/gavelworks/gavel/internal/cluster/timer"
	"github.com/rs/zerolog"
)

// Config carries the fixed lifecycle durations, in logical milliseconds.
type Config struct {
	// MinimumDuration is the smallest allowed end minus start time.
	MinimumDuration int64
	// RemovalDelay is how long a closed auction lingers before eviction.
	RemovalDelay int64
}

// ParticipantLookup answers participant existence checks.
type ParticipantLookup interface {
	IsKnown(id int64) bool
}

// IDSource mints auction identifiers from logical time.
type IDSource interface {
	NextID(logicalTimeMillis int64) int64
}

// TimerScheduler schedules and re-binds lifecycle timers.
type TimerScheduler interface {
	Schedule(deadline int64, payload timer.Payload) int64
	Restore(correlationID int64, payload timer.Payload)
}

// Responder delivers auction results to the requesting session and
// broadcasts state changes to every session.
type Responder interface {
	AuctionAdded(correlationID, auctionID, startTime, endTime int64, name, description string)
	RejectAddAuction(correlationID int64, result AddAuctionResult)
	BidAccepted(correlationID, auctionID, price int64)
	RejectAddBid(correlationID, auctionID int64, result AddBidResult)
	BroadcastNewAuction(auctionID, startTime, endTime int64, name, description string)
	BroadcastAuctionUpdate(auction Auction)
}

// Engine is the auction lifecycle state machine. It is owned by the apply
// loop; all methods run single-threaded with the logical time of the current
// command or timer event passed in.
type Engine struct {
	cfg          Config
	log          zerolog.Logger
	participants ParticipantLookup
	ids          IDSource
	timers       TimerScheduler
	responder    Responder

	byID map[int64]*Auction
}

// NewEngine builds an engine over the supplied collaborators.
func NewEngine(cfg Config, log zerolog.Logger, participants ParticipantLookup, ids IDSource,
	timers TimerScheduler, responder Responder) *Engine {
	return &Engine{
		cfg:          cfg,
		log:          log,
		participants: participants,
		ids:          ids,
		timers:       timers,
		responder:    responder,
		byID:         make(map[int64]*Auction),
	}
}

// AddAuction validates and creates an auction. On success the auction starts
// in PreOpen with its three lifecycle timers scheduled; on failure no state
// changes and the requester receives the specific result code.
func (e *Engine) AddAuction(now, correlationID, creatorID, startTime, endTime int64,
	name, description string) AddAuctionResult {
	result := e.validateAddAuction(now, creatorID, startTime, endTime, name, description)
	if result != AddAuctionSuccess {
		e.responder.RejectAddAuction(correlationID, result)
		return result
	}

	auctionID := e.ids.NextID(now)
	auction := &Auction{
		ID:                   auctionID,
		CreatedBy:            creatorID,
		StartTime:            startTime,
		EndTime:              endTime,
		Name:                 name,
		Description:          description,
		CurrentPrice:         NoWinningBid,
		WinningParticipantID: NoWinner,
		LastUpdateTime:       now,
		Status:               StatusPreOpen,
	}
	auction.OpenTimerID = e.timers.Schedule(startTime, timer.Payload{Kind: timer.KindOpenAuction, AuctionID: auctionID})
	auction.CloseTimerID = e.timers.Schedule(endTime, timer.Payload{Kind: timer.KindCloseAuction, AuctionID: auctionID})
	auction.RemoveTimerID = e.timers.Schedule(endTime+e.cfg.RemovalDelay, timer.Payload{Kind: timer.KindRemoveAuction, AuctionID: auctionID})
	e.byID[auctionID] = auction

	e.log.Info().
		Int64("auction_id", auctionID).
		Int64("created_by", creatorID).
		Int64("start_time", startTime).
		Int64("end_time", endTime).
		Msg("auction added")

	e.responder.AuctionAdded(correlationID, auctionID, startTime, endTime, name, description)
	e.responder.BroadcastNewAuction(auctionID, startTime, endTime, name, description)
	return AddAuctionSuccess
}

func (e *Engine) validateAddAuction(now, creatorID, startTime, endTime int64,
	name, description string) AddAuctionResult {
	if startTime <= now {
		return AddAuctionInvalidStartTime
	}
	if endTime <= startTime {
		return AddAuctionInvalidEndTime
	}
	if endTime-startTime < e.cfg.MinimumDuration {
		return AddAuctionInvalidDuration
	}
	if !e.participants.IsKnown(creatorID) {
		return AddAuctionUnknownParticipant
	}
	if strings.TrimSpace(name) == "" {
		return AddAuctionInvalidName
	}
	if strings.TrimSpace(description) == "" {
		return AddAuctionInvalidDescription
	}
	return AddAuctionSuccess
}

// AddBid validates and applies a bid. Bid admission gates on the auction's
// time window, not on Status: timers can lag the logical clock, and the
// window is the single source of truth for whether bidding is allowed.
func (e *Engine) AddBid(now, correlationID, auctionID, participantID, price int64) AddBidResult {
	auction, ok := e.byID[auctionID]
	if !ok {
		e.responder.RejectAddBid(correlationID, auctionID, AddBidUnknownAuction)
		return AddBidUnknownAuction
	}

	result := e.validateBid(now, auction, participantID, price)
	if result != AddBidSuccess {
		e.responder.RejectAddBid(correlationID, auctionID, result)
		return result
	}

	auction.CurrentPrice = price
	auction.WinningParticipantID = participantID
	auction.BidCount++
	auction.LastUpdateTime = now

	e.responder.BidAccepted(correlationID, auctionID, price)
	e.responder.BroadcastAuctionUpdate(*auction)
	return AddBidSuccess
}

func (e *Engine) validateBid(now int64, auction *Auction, participantID, price int64) AddBidResult {
	if now < auction.StartTime || now >= auction.EndTime {
		return AddBidAuctionNotOpen
	}
	if !e.participants.IsKnown(participantID) {
		return AddBidUnknownParticipant
	}
	if price <= 0 || price <= auction.CurrentPrice {
		return AddBidInvalidPrice
	}
	if participantID == auction.CreatedBy {
		return AddBidCannotSelfBid
	}
	return AddBidSuccess
}

// OpenAuction transitions an auction to Open. Invoked only from fired
// timers; guard failures are logged no-ops because timers are internal and
// no client is waiting.
func (e *Engine) OpenAuction(now, auctionID int64) {
	auction, ok := e.byID[auctionID]
	if !ok {
		e.log.Warn().Int64("auction_id", auctionID).Msg("open fired for unknown auction")
		return
	}
	if auction.Status != StatusPreOpen {
		e.log.Warn().
			Int64("auction_id", auctionID).
			Stringer("status", auction.Status).
			Msg("open fired for auction not in pre-open")
		return
	}
	if now < auction.StartTime {
		e.log.Warn().
			Int64("auction_id", auctionID).
			Int64("now", now).
			Int64("start_time", auction.StartTime).
			Msg("open fired before start time")
		return
	}

	auction.Status = StatusOpen
	auction.LastUpdateTime = now
	e.responder.BroadcastAuctionUpdate(*auction)
}

// CloseAuction transitions an auction to Closed.
func (e *Engine) CloseAuction(now, auctionID int64) {
	auction, ok := e.byID[auctionID]
	if !ok {
		e.log.Warn().Int64("auction_id", auctionID).Msg("close fired for unknown auction")
		return
	}
	if auction.Status != StatusOpen {
		e.log.Warn().
			Int64("auction_id", auctionID).
			Stringer("status", auction.Status).
			Msg("close fired for auction not open")
		return
	}
	if now < auction.EndTime {
		e.log.Warn().
			Int64("auction_id", auctionID).
			Int64("now", now).
			Int64("end_time", auction.EndTime).
			Msg("close fired before end time")
		return
	}

	auction.Status = StatusClosed
	auction.LastUpdateTime = now
	e.responder.BroadcastAuctionUpdate(*auction)
}

// RemoveAuction evicts an auction from the live set unconditionally. This is
// garbage collection, not a guarded transition; queries never observe the
// Removed status.
func (e *Engine) RemoveAuction(auctionID int64) {
	if _, ok := e.byID[auctionID]; !ok {
		e.log.Warn().Int64("auction_id", auctionID).Msg("remove fired for unknown auction")
		return
	}
	delete(e.byID, auctionID)
	e.log.Info().Int64("auction_id", auctionID).Msg("auction removed")
}

// Restore reconstructs an auction from a snapshot record. Status is always
// recomputed as PreOpen: the snapshot coordinator only restores auctions
// whose start time is still in the future, so a restored auction has not
// opened yet by construction. The three timer bindings are re-established
// without re-registering their deadlines.
func (e *Engine) Restore(auction Auction) {
	auction.Status = StatusPreOpen
	restored := auction
	e.byID[restored.ID] = &restored

	e.timers.Restore(restored.OpenTimerID, timer.Payload{Kind: timer.KindOpenAuction, AuctionID: restored.ID})
	e.timers.Restore(restored.CloseTimerID, timer.Payload{Kind: timer.KindCloseAuction, AuctionID: restored.ID})
	e.timers.Restore(restored.RemoveTimerID, timer.Payload{Kind: timer.KindRemoveAuction, AuctionID: restored.ID})
}

// Get returns a copy of an auction by id.
func (e *Engine) Get(auctionID int64) (Auction, bool) {
	auction, ok := e.byID[auctionID]
	if !ok {
		return Auction{}, false
	}
	return *auction, true
}

// List returns copies of all live auctions sorted by id.
func (e *Engine) List() []Auction {
	list := make([]Auction, 0, len(e.byID))
	for _, auction := range e.byID {
		list = append(list, *auction)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
