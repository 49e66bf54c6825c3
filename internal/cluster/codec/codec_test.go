package codec

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestDecodeHeaderShortBuffer(t *testing.T) {
	if _, err := DecodeHeader([]byte{0, 1, 0, 1}); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected short buffer error, got %v", err)
	}
}

func TestDecodeHeaderTruncatedPayload(t *testing.T) {
	frame := EncodeAddBid(AddBid{CorrelationID: 1, AuctionID: 2, ParticipantID: 3, Price: 4})
	if _, err := DecodeHeader(frame[:len(frame)-1]); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected short buffer error for truncated payload, got %v", err)
	}
}

func TestDecodeHeaderVersionMismatch(t *testing.T) {
	frame := EncodeListAuctions()
	frame[0] = 0xff
	if _, err := DecodeHeader(frame); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestAddAuctionRoundTrip(t *testing.T) {
	in := AddAuction{
		CorrelationID: 55,
		CreatedBy:     500,
		StartTime:     1002,
		EndTime:       31003,
		Name:          "vase",
		Description:   "ming vase",
	}

	frame := EncodeAddAuction(in)
	header, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if header.Template != TemplateAddAuction {
		t.Fatalf("template = %d, want %d", header.Template, TemplateAddAuction)
	}

	out, err := DecodeAddAuction(frame, header)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestAddAuctionEncodingCanonical(t *testing.T) {
	in := AddAuction{CorrelationID: 1, CreatedBy: 2, StartTime: 3, EndTime: 4, Name: "n", Description: "d"}

	first := EncodeAddAuction(in)
	second := EncodeAddAuction(in)
	if string(first) != string(second) {
		t.Fatalf("encoding is not canonical")
	}
}

func TestAuctionRecordRoundTrip(t *testing.T) {
	in := AuctionRecord{
		AuctionID:            9,
		CreatedBy:            500,
		StartTime:            1002,
		EndTime:              31003,
		Name:                 "vase",
		Description:          "ming vase",
		CurrentPrice:         99,
		WinningParticipantID: 501,
		BidCount:             3,
		LastUpdateTime:       2500,
		OpenTimerID:          11,
		CloseTimerID:         12,
		RemoveTimerID:        13,
	}

	frame := EncodeAuctionRecord(in)
	header, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	out, err := DecodeAuctionRecord(frame, header)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestAuctionListRoundTrip(t *testing.T) {
	in := []AuctionSummary{
		{AuctionID: 1, CreatedBy: 500, StartTime: 10, EndTime: 50, Name: "a", Description: "first",
			Status: 1, CurrentPrice: 5, BidCount: 1, WinningParticipantID: 501},
		{AuctionID: 2, CreatedBy: 501, StartTime: 20, EndTime: 60, Name: "b", Description: "second",
			Status: 0, CurrentPrice: 0, BidCount: 0, WinningParticipantID: -1},
	}

	frame := EncodeAuctionList(in)
	header, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	out, err := DecodeAuctionList(frame, header)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("list length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("entry %d mismatch: %+v != %+v", i, out[i], in[i])
		}
	}
}

func TestParticipantListRoundTrip(t *testing.T) {
	in := []ParticipantEntry{{ParticipantID: 500, Name: "initiator"}, {ParticipantID: 501, Name: "responder"}}

	frame := EncodeParticipantList(in)
	header, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	out, err := DecodeParticipantList(frame, header)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestDecodeListRejectsForgedCount(t *testing.T) {
	// A declared entry count the payload could not possibly hold must be
	// rejected before it sizes an allocation.
	frame := EncodeAuctionList(nil)
	binary.BigEndian.PutUint64(frame[HeaderLength:], 1<<40)
	header, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if _, err := DecodeAuctionList(frame, header); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected short buffer error for forged auction count, got %v", err)
	}

	frame = EncodeParticipantList(nil)
	binary.BigEndian.PutUint64(frame[HeaderLength:], ^uint64(0)) // count of -1
	header, err = DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if _, err := DecodeParticipantList(frame, header); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected short buffer error for negative participant count, got %v", err)
	}
}

func TestDecodeTruncatedStringPayload(t *testing.T) {
	frame := EncodeAddParticipant(AddParticipant{ParticipantID: 1, CorrelationID: 2, Name: "alice"})

	// Corrupt the declared string length so it overruns the payload.
	frame[len(frame)-6] = 0xff

	header, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if _, err := DecodeAddParticipant(frame, header); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected short buffer error, got %v", err)
	}
}

func TestEndOfSnapshotHasEmptyPayload(t *testing.T) {
	frame := EncodeEndOfSnapshot()
	header, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if header.Template != TemplateEndOfSnapshot || header.Length != 0 {
		t.Fatalf("unexpected end marker header: %+v", header)
	}
}
