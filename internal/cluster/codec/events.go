package codec

// ParticipantAdded acknowledges an add-participant command.
type ParticipantAdded struct {
	ParticipantID int64
	CorrelationID int64
}

// EncodeParticipantAdded encodes a participant-added ack frame.
func EncodeParticipantAdded(evt ParticipantAdded) []byte {
	var w writer
	w.putInt64(evt.ParticipantID)
	w.putInt64(evt.CorrelationID)
	return w.frame(TemplateParticipantAdded)
}

// DecodeParticipantAdded decodes a participant-added payload.
func DecodeParticipantAdded(buf []byte, header Header) (ParticipantAdded, error) {
	r := reader{buf: payload(buf, header)}
	evt := ParticipantAdded{
		ParticipantID: r.int64(),
		CorrelationID: r.int64(),
	}
	return evt, r.err
}

// AuctionAdded acknowledges a successful add-auction command.
type AuctionAdded struct {
	CorrelationID int64
	AuctionID     int64
	StartTime     int64
	EndTime       int64
	Name          string
	Description   string
}

// EncodeAuctionAdded encodes an auction-added ack frame.
func EncodeAuctionAdded(evt AuctionAdded) []byte {
	var w writer
	w.putInt64(evt.CorrelationID)
	w.putInt64(evt.AuctionID)
	w.putInt64(evt.StartTime)
	w.putInt64(evt.EndTime)
	w.putString(evt.Name)
	w.putString(evt.Description)
	return w.frame(TemplateAuctionAdded)
}

// DecodeAuctionAdded decodes an auction-added payload.
func DecodeAuctionAdded(buf []byte, header Header) (AuctionAdded, error) {
	r := reader{buf: payload(buf, header)}
	evt := AuctionAdded{
		CorrelationID: r.int64(),
		AuctionID:     r.int64(),
		StartTime:     r.int64(),
		EndTime:       r.int64(),
		Name:          r.string(),
		Description:   r.string(),
	}
	return evt, r.err
}

// AuctionRejected reports a failed add-auction command with its result code.
type AuctionRejected struct {
	CorrelationID int64
	Result        uint8
}

// EncodeAuctionRejected encodes an auction-rejected frame.
func EncodeAuctionRejected(evt AuctionRejected) []byte {
	var w writer
	w.putInt64(evt.CorrelationID)
	w.putUint8(evt.Result)
	return w.frame(TemplateAuctionRejected)
}

// DecodeAuctionRejected decodes an auction-rejected payload.
func DecodeAuctionRejected(buf []byte, header Header) (AuctionRejected, error) {
	r := reader{buf: payload(buf, header)}
	evt := AuctionRejected{
		CorrelationID: r.int64(),
		Result:        r.uint8(),
	}
	return evt, r.err
}

// BidAccepted acknowledges a successful add-bid command.
type BidAccepted struct {
	CorrelationID int64
	AuctionID     int64
	Price         int64
}

// EncodeBidAccepted encodes a bid-accepted frame.
func EncodeBidAccepted(evt BidAccepted) []byte {
	var w writer
	w.putInt64(evt.CorrelationID)
	w.putInt64(evt.AuctionID)
	w.putInt64(evt.Price)
	return w.frame(TemplateBidAccepted)
}

// DecodeBidAccepted decodes a bid-accepted payload.
func DecodeBidAccepted(buf []byte, header Header) (BidAccepted, error) {
	r := reader{buf: payload(buf, header)}
	evt := BidAccepted{
		CorrelationID: r.int64(),
		AuctionID:     r.int64(),
		Price:         r.int64(),
	}
	return evt, r.err
}

// BidRejected reports a failed add-bid command with its result code.
type BidRejected struct {
	CorrelationID int64
	AuctionID     int64
	Result        uint8
}

// EncodeBidRejected encodes a bid-rejected frame.
func EncodeBidRejected(evt BidRejected) []byte {
	var w writer
	w.putInt64(evt.CorrelationID)
	w.putInt64(evt.AuctionID)
	w.putUint8(evt.Result)
	return w.frame(TemplateBidRejected)
}

// DecodeBidRejected decodes a bid-rejected payload.
func DecodeBidRejected(buf []byte, header Header) (BidRejected, error) {
	r := reader{buf: payload(buf, header)}
	evt := BidRejected{
		CorrelationID: r.int64(),
		AuctionID:     r.int64(),
		Result:        r.uint8(),
	}
	return evt, r.err
}

// AuctionState is the broadcast view of a live auction.
type AuctionState struct {
	AuctionID            int64
	Status               uint8
	CurrentPrice         int64
	BidCount             int64
	LastUpdateTime       int64
	WinningParticipantID int64
}

// EncodeAuctionUpdate encodes an auction state broadcast frame.
func EncodeAuctionUpdate(evt AuctionState) []byte {
	var w writer
	w.putInt64(evt.AuctionID)
	w.putUint8(evt.Status)
	w.putInt64(evt.CurrentPrice)
	w.putInt64(evt.BidCount)
	w.putInt64(evt.LastUpdateTime)
	w.putInt64(evt.WinningParticipantID)
	return w.frame(TemplateAuctionUpdate)
}

// DecodeAuctionUpdate decodes an auction state payload.
func DecodeAuctionUpdate(buf []byte, header Header) (AuctionState, error) {
	r := reader{buf: payload(buf, header)}
	evt := AuctionState{
		AuctionID:            r.int64(),
		Status:               r.uint8(),
		CurrentPrice:         r.int64(),
		BidCount:             r.int64(),
		LastUpdateTime:       r.int64(),
		WinningParticipantID: r.int64(),
	}
	return evt, r.err
}

// NewAuction announces a freshly created auction to every session.
type NewAuction struct {
	AuctionID   int64
	StartTime   int64
	EndTime     int64
	Name        string
	Description string
}

// EncodeNewAuction encodes a new-auction broadcast frame.
func EncodeNewAuction(evt NewAuction) []byte {
	var w writer
	w.putInt64(evt.AuctionID)
	w.putInt64(evt.StartTime)
	w.putInt64(evt.EndTime)
	w.putString(evt.Name)
	w.putString(evt.Description)
	return w.frame(TemplateNewAuction)
}

// DecodeNewAuction decodes a new-auction payload.
func DecodeNewAuction(buf []byte, header Header) (NewAuction, error) {
	r := reader{buf: payload(buf, header)}
	evt := NewAuction{
		AuctionID:   r.int64(),
		StartTime:   r.int64(),
		EndTime:     r.int64(),
		Name:        r.string(),
		Description: r.string(),
	}
	return evt, r.err
}

// AuctionSummary is one entry in a list-auctions reply.
type AuctionSummary struct {
	AuctionID            int64
	CreatedBy            int64
	StartTime            int64
	EndTime              int64
	Name                 string
	Description          string
	Status               uint8
	CurrentPrice         int64
	BidCount             int64
	WinningParticipantID int64
}

// EncodeAuctionList encodes a list-auctions reply frame.
func EncodeAuctionList(list []AuctionSummary) []byte {
	var w writer
	w.putInt64(int64(len(list)))
	for _, entry := range list {
		w.putInt64(entry.AuctionID)
		w.putInt64(entry.CreatedBy)
		w.putInt64(entry.StartTime)
		w.putInt64(entry.EndTime)
		w.putString(entry.Name)
		w.putString(entry.Description)
		w.putUint8(entry.Status)
		w.putInt64(entry.CurrentPrice)
		w.putInt64(entry.BidCount)
		w.putInt64(entry.WinningParticipantID)
	}
	return w.frame(TemplateAuctionList)
}

// auctionSummaryMinSize is the encoded size of an entry with empty strings.
const auctionSummaryMinSize = 65

// DecodeAuctionList decodes a list-auctions reply payload.
func DecodeAuctionList(buf []byte, header Header) ([]AuctionSummary, error) {
	r := reader{buf: payload(buf, header)}
	count := r.int64()
	if r.err != nil {
		return nil, r.err
	}
	// The declared count bounds the allocation, so it must itself be bounded
	// by what the payload could possibly hold.
	if count < 0 || count > int64(len(r.buf))/auctionSummaryMinSize {
		return nil, ErrShortBuffer
	}
	list := make([]AuctionSummary, 0, count)
	for i := int64(0); i < count; i++ {
		entry := AuctionSummary{
			AuctionID:   r.int64(),
			CreatedBy:   r.int64(),
			StartTime:   r.int64(),
			EndTime:     r.int64(),
			Name:        r.string(),
			Description: r.string(),
			Status:      r.uint8(),
		}
		entry.CurrentPrice = r.int64()
		entry.BidCount = r.int64()
		entry.WinningParticipantID = r.int64()
		if r.err != nil {
			return nil, r.err
		}
		list = append(list, entry)
	}
	return list, nil
}

// ParticipantEntry is one entry in a list-participants reply.
type ParticipantEntry struct {
	ParticipantID int64
	Name          string
}

// EncodeParticipantList encodes a list-participants reply frame.
func EncodeParticipantList(list []ParticipantEntry) []byte {
	var w writer
	w.putInt64(int64(len(list)))
	for _, entry := range list {
		w.putInt64(entry.ParticipantID)
		w.putString(entry.Name)
	}
	return w.frame(TemplateParticipantList)
}

// participantEntryMinSize is the encoded size of an entry with an empty name.
const participantEntryMinSize = 12

// DecodeParticipantList decodes a list-participants reply payload.
func DecodeParticipantList(buf []byte, header Header) ([]ParticipantEntry, error) {
	r := reader{buf: payload(buf, header)}
	count := r.int64()
	if r.err != nil {
		return nil, r.err
	}
	if count < 0 || count > int64(len(r.buf))/participantEntryMinSize {
		return nil, ErrShortBuffer
	}
	list := make([]ParticipantEntry, 0, count)
	for i := int64(0); i < count; i++ {
		entry := ParticipantEntry{
			ParticipantID: r.int64(),
			Name:          r.string(),
		}
		if r.err != nil {
			return nil, r.err
		}
		list = append(list, entry)
	}
	return list, nil
}
