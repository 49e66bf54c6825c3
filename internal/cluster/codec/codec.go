// Package codec defines the binary frame format shared by commands flowing
// into the state machine, events flowing out to sessions, and snapshot
// records.
//
// Frames are big-endian with a fixed 8-byte header:
//
//	version  uint16
//	template uint16
//	length   uint32 (payload bytes after the header)
//
// Strings are encoded as a uint32 byte length followed by UTF-8 bytes. The
// layout is canonical: encoding the same value always yields the same bytes,
// which snapshot equivalence across replicas depends on.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WireVersion is the frame format version carried in every header.
const WireVersion uint16 = 1

// HeaderLength is the encoded size of a frame header.
const HeaderLength = 8

// Command templates.
const (
	TemplateAddParticipant uint16 = iota + 1
	TemplateAddAuction
	TemplateAddBid
	TemplateListAuctions
	TemplateListParticipants
)

// Egress templates.
const (
	TemplateParticipantAdded uint16 = iota + 101
	TemplateAuctionAdded
	TemplateAuctionRejected
	TemplateBidAccepted
	TemplateBidRejected
	TemplateAuctionUpdate
	TemplateNewAuction
	TemplateAuctionList
	TemplateParticipantList
)

// Snapshot templates.
const (
	TemplateSnapshotVersion uint16 = iota + 201
	TemplateParticipantRecord
	TemplateAuctionRecord
	TemplateIDGeneratorRecord
	TemplateTimerStateRecord
	TemplateEndOfSnapshot
)

// TemplateName returns a stable label for a command template, for logs and
// metrics.
func TemplateName(template uint16) string {
	switch template {
	case TemplateAddParticipant:
		return "add_participant"
	case TemplateAddAuction:
		return "add_auction"
	case TemplateAddBid:
		return "add_bid"
	case TemplateListAuctions:
		return "list_auctions"
	case TemplateListParticipants:
		return "list_participants"
	default:
		return "unknown"
	}
}

// ErrShortBuffer indicates a frame or payload shorter than its declared
// layout.
var ErrShortBuffer = errors.New("codec: buffer too short")

// ErrVersionMismatch indicates a frame with an unsupported wire version.
var ErrVersionMismatch = errors.New("codec: unsupported wire version")

// Header is the decoded frame header.
type Header struct {
	Version  uint16
	Template uint16
	Length   uint32
}

// DecodeHeader reads a frame header and validates the declared payload
// length against the buffer.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLength {
		return Header{}, ErrShortBuffer
	}
	header := Header{
		Version:  binary.BigEndian.Uint16(buf[0:2]),
		Template: binary.BigEndian.Uint16(buf[2:4]),
		Length:   binary.BigEndian.Uint32(buf[4:8]),
	}
	if header.Version != WireVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrVersionMismatch, header.Version)
	}
	if len(buf) < HeaderLength+int(header.Length) {
		return Header{}, ErrShortBuffer
	}
	return header, nil
}

// writer accumulates a frame payload.
type writer struct {
	buf []byte
}

func (w *writer) putUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) putInt64(v int64) {
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], uint64(v))
	w.buf = append(w.buf, scratch[:]...)
}

func (w *writer) putString(s string) {
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], uint32(len(s)))
	w.buf = append(w.buf, scratch[:]...)
	w.buf = append(w.buf, s...)
}

// frame prepends the header to the accumulated payload.
func (w *writer) frame(template uint16) []byte {
	out := make([]byte, HeaderLength, HeaderLength+len(w.buf))
	binary.BigEndian.PutUint16(out[0:2], WireVersion)
	binary.BigEndian.PutUint16(out[2:4], template)
	binary.BigEndian.PutUint32(out[4:8], uint32(len(w.buf)))
	return append(out, w.buf...)
}

// reader consumes a frame payload with sticky error handling.
type reader struct {
	buf []byte
	err error
}

func (r *reader) uint8() uint8 {
	if r.err != nil {
		return 0
	}
	if len(r.buf) < 1 {
		r.err = ErrShortBuffer
		return 0
	}
	v := r.buf[0]
	r.buf = r.buf[1:]
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	if len(r.buf) < 8 {
		r.err = ErrShortBuffer
		return 0
	}
	v := int64(binary.BigEndian.Uint64(r.buf[:8]))
	r.buf = r.buf[8:]
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	if len(r.buf) < 4 {
		r.err = ErrShortBuffer
		return ""
	}
	n := binary.BigEndian.Uint32(r.buf[:4])
	r.buf = r.buf[4:]
	if uint32(len(r.buf)) < n {
		r.err = ErrShortBuffer
		return ""
	}
	s := string(r.buf[:n])
	r.buf = r.buf[n:]
	return s
}

// payload strips the header from a full frame previously validated with
// DecodeHeader.
func payload(buf []byte, header Header) []byte {
	return buf[HeaderLength : HeaderLength+int(header.Length)]
}
