package codec

// SnapshotSchemaVersion identifies the snapshot record schema. Bump on any
// incompatible record layout change; loaders reject versions they do not
// know.
const SnapshotSchemaVersion int64 = 1

// EncodeSnapshotVersion encodes the leading version record of a snapshot
// stream.
func EncodeSnapshotVersion(version int64) []byte {
	var w writer
	w.putInt64(version)
	return w.frame(TemplateSnapshotVersion)
}

// DecodeSnapshotVersion decodes a snapshot version payload.
func DecodeSnapshotVersion(buf []byte, header Header) (int64, error) {
	r := reader{buf: payload(buf, header)}
	version := r.int64()
	return version, r.err
}

// ParticipantRecord is a participant snapshot record.
type ParticipantRecord struct {
	ParticipantID int64
	Name          string
}

// EncodeParticipantRecord encodes a participant snapshot record.
func EncodeParticipantRecord(rec ParticipantRecord) []byte {
	var w writer
	w.putInt64(rec.ParticipantID)
	w.putString(rec.Name)
	return w.frame(TemplateParticipantRecord)
}

// DecodeParticipantRecord decodes a participant snapshot payload.
func DecodeParticipantRecord(buf []byte, header Header) (ParticipantRecord, error) {
	r := reader{buf: payload(buf, header)}
	rec := ParticipantRecord{
		ParticipantID: r.int64(),
		Name:          r.string(),
	}
	return rec, r.err
}

// AuctionRecord is a live-auction snapshot record, including the correlation
// ids of its three lifecycle timers. Status is not persisted: restore always
// recomputes it.
type AuctionRecord struct {
	AuctionID            int64
	CreatedBy            int64
	StartTime            int64
	EndTime              int64
	Name                 string
	Description          string
	CurrentPrice         int64
	WinningParticipantID int64
	BidCount             int64
	LastUpdateTime       int64
	OpenTimerID          int64
	CloseTimerID         int64
	RemoveTimerID        int64
}

// EncodeAuctionRecord encodes an auction snapshot record.
func EncodeAuctionRecord(rec AuctionRecord) []byte {
	var w writer
	w.putInt64(rec.AuctionID)
	w.putInt64(rec.CreatedBy)
	w.putInt64(rec.StartTime)
	w.putInt64(rec.EndTime)
	w.putString(rec.Name)
	w.putString(rec.Description)
	w.putInt64(rec.CurrentPrice)
	w.putInt64(rec.WinningParticipantID)
	w.putInt64(rec.BidCount)
	w.putInt64(rec.LastUpdateTime)
	w.putInt64(rec.OpenTimerID)
	w.putInt64(rec.CloseTimerID)
	w.putInt64(rec.RemoveTimerID)
	return w.frame(TemplateAuctionRecord)
}

// DecodeAuctionRecord decodes an auction snapshot payload.
func DecodeAuctionRecord(buf []byte, header Header) (AuctionRecord, error) {
	r := reader{buf: payload(buf, header)}
	rec := AuctionRecord{
		AuctionID:            r.int64(),
		CreatedBy:            r.int64(),
		StartTime:            r.int64(),
		EndTime:              r.int64(),
		Name:                 r.string(),
		Description:          r.string(),
		CurrentPrice:         r.int64(),
		WinningParticipantID: r.int64(),
		BidCount:             r.int64(),
		LastUpdateTime:       r.int64(),
		OpenTimerID:          r.int64(),
		CloseTimerID:         r.int64(),
		RemoveTimerID:        r.int64(),
	}
	return rec, r.err
}

// EncodeIDGeneratorRecord encodes the id generator position.
func EncodeIDGeneratorRecord(lastID int64) []byte {
	var w writer
	w.putInt64(lastID)
	return w.frame(TemplateIDGeneratorRecord)
}

// DecodeIDGeneratorRecord decodes an id generator payload.
func DecodeIDGeneratorRecord(buf []byte, header Header) (int64, error) {
	r := reader{buf: payload(buf, header)}
	lastID := r.int64()
	return lastID, r.err
}

// EncodeTimerStateRecord encodes the timer correlation counter.
func EncodeTimerStateRecord(nextCorrelationID int64) []byte {
	var w writer
	w.putInt64(nextCorrelationID)
	return w.frame(TemplateTimerStateRecord)
}

// DecodeTimerStateRecord decodes a timer state payload.
func DecodeTimerStateRecord(buf []byte, header Header) (int64, error) {
	r := reader{buf: payload(buf, header)}
	nextCorrelationID := r.int64()
	return nextCorrelationID, r.err
}

// EncodeEndOfSnapshot encodes the terminal end-of-snapshot marker.
func EncodeEndOfSnapshot() []byte {
	var w writer
	return w.frame(TemplateEndOfSnapshot)
}
