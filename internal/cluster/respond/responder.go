// Package respond publishes domain results and events to client sessions.
//
// The domain packages talk to narrow responder interfaces; WireResponder is
// the one production implementation, encoding frames with the wire codec and
// offering them to the host's session sink with a bounded retry budget.
// Delivery failures are logged and abandoned, never surfaced to the domain:
// a stalled session must not stall the apply loop.
package respond

import (
	"github.com/gavelworks/gavel/internal/cluster/codec"
	"github.com/gavelworks/gavel/internal/domain/auctions"
	"github.com/gavelworks/gavel/internal/domain/participants"
	"github.com/rs/zerolog"
)

// SessionSink delivers encoded frames to sessions. Reply targets the session
// whose command is currently being applied; Broadcast targets every open
// session. Both report backpressure by returning false.
type SessionSink interface {
	Reply(frame []byte) bool
	Broadcast(frame []byte) bool
}

const offerRetryLimit = 3

// WireResponder encodes domain results into wire frames.
type WireResponder struct {
	log  zerolog.Logger
	sink SessionSink
}

// NewWireResponder returns a responder writing to the supplied sink.
func NewWireResponder(log zerolog.Logger, sink SessionSink) *WireResponder {
	return &WireResponder{log: log, sink: sink}
}

// ParticipantAdded acknowledges a stored participant to the requester.
func (r *WireResponder) ParticipantAdded(participantID, correlationID int64) {
	frame := codec.EncodeParticipantAdded(codec.ParticipantAdded{
		ParticipantID: participantID,
		CorrelationID: correlationID,
	})
	r.reply(frame, "participant added")
}

// AuctionAdded acknowledges a created auction to the requester.
func (r *WireResponder) AuctionAdded(correlationID, auctionID, startTime, endTime int64, name, description string) {
	frame := codec.EncodeAuctionAdded(codec.AuctionAdded{
		CorrelationID: correlationID,
		AuctionID:     auctionID,
		StartTime:     startTime,
		EndTime:       endTime,
		Name:          name,
		Description:   description,
	})
	r.reply(frame, "auction added")
}

// RejectAddAuction reports an add-auction failure to the requester.
func (r *WireResponder) RejectAddAuction(correlationID int64, result auctions.AddAuctionResult) {
	frame := codec.EncodeAuctionRejected(codec.AuctionRejected{
		CorrelationID: correlationID,
		Result:        uint8(result),
	})
	r.reply(frame, "auction rejected")
}

// BidAccepted acknowledges an applied bid to the bidder.
func (r *WireResponder) BidAccepted(correlationID, auctionID, price int64) {
	frame := codec.EncodeBidAccepted(codec.BidAccepted{
		CorrelationID: correlationID,
		AuctionID:     auctionID,
		Price:         price,
	})
	r.reply(frame, "bid accepted")
}

// RejectAddBid reports an add-bid failure to the bidder.
func (r *WireResponder) RejectAddBid(correlationID, auctionID int64, result auctions.AddBidResult) {
	frame := codec.EncodeBidRejected(codec.BidRejected{
		CorrelationID: correlationID,
		AuctionID:     auctionID,
		Result:        uint8(result),
	})
	r.reply(frame, "bid rejected")
}

// BroadcastNewAuction announces a created auction to every session.
func (r *WireResponder) BroadcastNewAuction(auctionID, startTime, endTime int64, name, description string) {
	frame := codec.EncodeNewAuction(codec.NewAuction{
		AuctionID:   auctionID,
		StartTime:   startTime,
		EndTime:     endTime,
		Name:        name,
		Description: description,
	})
	r.broadcast(frame, "new auction")
}

// BroadcastAuctionUpdate announces updated auction state to every session.
func (r *WireResponder) BroadcastAuctionUpdate(auction auctions.Auction) {
	frame := codec.EncodeAuctionUpdate(codec.AuctionState{
		AuctionID:            auction.ID,
		Status:               uint8(auction.Status),
		CurrentPrice:         auction.CurrentPrice,
		BidCount:             auction.BidCount,
		LastUpdateTime:       auction.LastUpdateTime,
		WinningParticipantID: auction.WinningParticipantID,
	})
	r.broadcast(frame, "auction update")
}

// SendAuctionList replies with the current live auction set.
func (r *WireResponder) SendAuctionList(list []auctions.Auction) {
	summaries := make([]codec.AuctionSummary, 0, len(list))
	for _, auction := range list {
		summaries = append(summaries, codec.AuctionSummary{
			AuctionID:            auction.ID,
			CreatedBy:            auction.CreatedBy,
			StartTime:            auction.StartTime,
			EndTime:              auction.EndTime,
			Name:                 auction.Name,
			Description:          auction.Description,
			Status:               uint8(auction.Status),
			CurrentPrice:         auction.CurrentPrice,
			BidCount:             auction.BidCount,
			WinningParticipantID: auction.WinningParticipantID,
		})
	}
	r.reply(codec.EncodeAuctionList(summaries), "auction list")
}

// SendParticipantList replies with the current participant set.
func (r *WireResponder) SendParticipantList(list []participants.Participant) {
	entries := make([]codec.ParticipantEntry, 0, len(list))
	for _, participant := range list {
		entries = append(entries, codec.ParticipantEntry{
			ParticipantID: participant.ID,
			Name:          participant.Name,
		})
	}
	r.reply(codec.EncodeParticipantList(entries), "participant list")
}

func (r *WireResponder) reply(frame []byte, what string) {
	for attempt := 0; attempt < offerRetryLimit; attempt++ {
		if r.sink.Reply(frame) {
			return
		}
	}
	r.log.Warn().Str("event", what).Msg("abandoned reply after retries")
}

func (r *WireResponder) broadcast(frame []byte, what string) {
	for attempt := 0; attempt < offerRetryLimit; attempt++ {
		if r.sink.Broadcast(frame) {
			return
		}
	}
	r.log.Warn().Str("event", what).Msg("abandoned broadcast after retries")
}
