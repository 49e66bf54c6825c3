// Package auctions implements the auction lifecycle state machine.
//
// Every mutation is a pure function of (current state, command, supplied
// logical time). The package never reads the wall clock and performs no I/O;
// replies and broadcasts flow through the Responder seam, future work flows
// through the timer scheduler.
package auctions

// Sentinel values for an auction that has not received a bid.
const (
	// NoWinningBid is the current price before any bid is applied.
	NoWinningBid int64 = 0
	// NoWinner is the winning participant id before any bid is applied.
	NoWinner int64 = -1
)

// Status is the lifecycle state of an auction. It only ever advances
// PreOpen -> Open -> Closed -> Removed.
type Status uint8

const (
	// StatusPreOpen is an auction before its start time.
	StatusPreOpen Status = iota
	// StatusOpen is an auction inside its bidding window.
	StatusOpen
	// StatusClosed is an auction past its end time.
	StatusClosed
	// StatusRemoved is an auction evicted from the live set.
	StatusRemoved
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPreOpen:
		return "PRE_OPEN"
	case StatusOpen:
		return "OPEN"
	case StatusClosed:
		return "CLOSED"
	case StatusRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// Auction is a single auction record. The engine exclusively owns all
// records; nothing outside the package mutates them.
type Auction struct {
	ID                   int64
	CreatedBy            int64
	StartTime            int64
	EndTime              int64
	Name                 string
	Description          string
	CurrentPrice         int64
	WinningParticipantID int64
	BidCount             int64
	LastUpdateTime       int64
	Status               Status

	// Correlation ids of the three lifecycle timers, persisted in
	// snapshots so restore can re-bind them.
	OpenTimerID   int64
	CloseTimerID  int64
	RemoveTimerID int64
}

// AddAuctionResult is the outcome of an add-auction command.
type AddAuctionResult uint8

// Add-auction outcomes, in validation order.
const (
	AddAuctionSuccess AddAuctionResult = iota
	AddAuctionInvalidStartTime
	AddAuctionInvalidEndTime
	AddAuctionInvalidDuration
	AddAuctionUnknownParticipant
	AddAuctionInvalidName
	AddAuctionInvalidDescription
)

// String returns the wire-stable result name.
func (r AddAuctionResult) String() string {
	switch r {
	case AddAuctionSuccess:
		return "SUCCESS"
	case AddAuctionInvalidStartTime:
		return "INVALID_START_TIME"
	case AddAuctionInvalidEndTime:
		return "INVALID_END_TIME"
	case AddAuctionInvalidDuration:
		return "INVALID_DURATION"
	case AddAuctionUnknownParticipant:
		return "UNKNOWN_PARTICIPANT"
	case AddAuctionInvalidName:
		return "INVALID_NAME"
	case AddAuctionInvalidDescription:
		return "INVALID_DESCRIPTION"
	default:
		return "UNKNOWN"
	}
}

// AddBidResult is the outcome of an add-bid command.
type AddBidResult uint8

// Add-bid outcomes, in validation order.
const (
	AddBidSuccess AddBidResult = iota
	AddBidUnknownAuction
	AddBidAuctionNotOpen
	AddBidUnknownParticipant
	AddBidInvalidPrice
	AddBidCannotSelfBid
)

// String returns the wire-stable result name.
func (r AddBidResult) String() string {
	switch r {
	case AddBidSuccess:
		return "SUCCESS"
	case AddBidUnknownAuction:
		return "UNKNOWN_AUCTION"
	case AddBidAuctionNotOpen:
		return "AUCTION_NOT_OPEN"
	case AddBidUnknownParticipant:
		return "UNKNOWN_PARTICIPANT"
	case AddBidInvalidPrice:
		return "INVALID_PRICE"
	case AddBidCannotSelfBid:
		return "CANNOT_SELF_BID"
	default:
		return "UNKNOWN"
	}
}
