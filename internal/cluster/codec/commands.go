package codec

// AddParticipant asks the state machine to register a participant.
type AddParticipant struct {
	ParticipantID int64
	CorrelationID int64
	Name          string
}

// EncodeAddParticipant encodes an add-participant command frame.
func EncodeAddParticipant(cmd AddParticipant) []byte {
	var w writer
	w.putInt64(cmd.ParticipantID)
	w.putInt64(cmd.CorrelationID)
	w.putString(cmd.Name)
	return w.frame(TemplateAddParticipant)
}

// DecodeAddParticipant decodes an add-participant payload.
func DecodeAddParticipant(buf []byte, header Header) (AddParticipant, error) {
	r := reader{buf: payload(buf, header)}
	cmd := AddParticipant{
		ParticipantID: r.int64(),
		CorrelationID: r.int64(),
		Name:          r.string(),
	}
	return cmd, r.err
}

// AddAuction asks the state machine to create an auction.
type AddAuction struct {
	CorrelationID int64
	CreatedBy     int64
	StartTime     int64
	EndTime       int64
	Name          string
	Description   string
}

// EncodeAddAuction encodes an add-auction command frame.
func EncodeAddAuction(cmd AddAuction) []byte {
	var w writer
	w.putInt64(cmd.CorrelationID)
	w.putInt64(cmd.CreatedBy)
	w.putInt64(cmd.StartTime)
	w.putInt64(cmd.EndTime)
	w.putString(cmd.Name)
	w.putString(cmd.Description)
	return w.frame(TemplateAddAuction)
}

// DecodeAddAuction decodes an add-auction payload.
func DecodeAddAuction(buf []byte, header Header) (AddAuction, error) {
	r := reader{buf: payload(buf, header)}
	cmd := AddAuction{
		CorrelationID: r.int64(),
		CreatedBy:     r.int64(),
		StartTime:     r.int64(),
		EndTime:       r.int64(),
		Name:          r.string(),
		Description:   r.string(),
	}
	return cmd, r.err
}

// AddBid asks the state machine to apply a bid to an auction.
type AddBid struct {
	CorrelationID int64
	AuctionID     int64
	ParticipantID int64
	Price         int64
}

// EncodeAddBid encodes an add-bid command frame.
func EncodeAddBid(cmd AddBid) []byte {
	var w writer
	w.putInt64(cmd.CorrelationID)
	w.putInt64(cmd.AuctionID)
	w.putInt64(cmd.ParticipantID)
	w.putInt64(cmd.Price)
	return w.frame(TemplateAddBid)
}

// DecodeAddBid decodes an add-bid payload.
func DecodeAddBid(buf []byte, header Header) (AddBid, error) {
	r := reader{buf: payload(buf, header)}
	cmd := AddBid{
		CorrelationID: r.int64(),
		AuctionID:     r.int64(),
		ParticipantID: r.int64(),
		Price:         r.int64(),
	}
	return cmd, r.err
}

// EncodeListAuctions encodes a list-auctions query frame.
func EncodeListAuctions() []byte {
	var w writer
	return w.frame(TemplateListAuctions)
}

// EncodeListParticipants encodes a list-participants query frame.
func EncodeListParticipants() []byte {
	var w writer
	return w.frame(TemplateListParticipants)
}
