// Package demux routes decoded ingress commands to the domain handlers.
//
// The dispatcher never fails the apply loop: malformed, truncated, or
// forward-incompatible messages are logged and dropped so a bad frame cannot
// halt replication.
package demux

import (
	"errors"

	"github.com/gavelworks/gavel/internal/cluster/codec"
	"github.com/gavelworks/gavel/internal/domain/auctions"
	"github.com/gavelworks/gavel/internal/domain/participants"
	"github.com/rs/zerolog"
)

// Lister replies with the current auction and participant sets.
type Lister interface {
	SendAuctionList(list []auctions.Auction)
	SendParticipantList(list []participants.Participant)
}

// Dispatcher decodes command frames and invokes domain logic.
type Dispatcher struct {
	log          zerolog.Logger
	participants *participants.Registry
	engine       *auctions.Engine
	lister       Lister
}

// NewDispatcher builds a dispatcher over the domain components.
func NewDispatcher(log zerolog.Logger, registry *participants.Registry, engine *auctions.Engine, lister Lister) *Dispatcher {
	return &Dispatcher{
		log:          log,
		participants: registry,
		engine:       engine,
		lister:       lister,
	}
}

// Dispatch routes one command frame at the supplied logical time. It always
// returns; errors are logged, never propagated.
func (d *Dispatcher) Dispatch(now int64, buf []byte) {
	header, err := codec.DecodeHeader(buf)
	if err != nil {
		if errors.Is(err, codec.ErrShortBuffer) {
			d.log.Error().Int("length", len(buf)).Msg("message too short, ignored")
			return
		}
		d.log.Error().Err(err).Msg("undecodable message header, ignored")
		return
	}

	switch header.Template {
	case codec.TemplateAddParticipant:
		cmd, err := codec.DecodeAddParticipant(buf, header)
		if err != nil {
			d.log.Error().Err(err).Msg("malformed add participant, ignored")
			return
		}
		d.participants.Add(cmd.ParticipantID, cmd.Name, cmd.CorrelationID)

	case codec.TemplateAddAuction:
		cmd, err := codec.DecodeAddAuction(buf, header)
		if err != nil {
			d.log.Error().Err(err).Msg("malformed add auction, ignored")
			return
		}
		d.engine.AddAuction(now, cmd.CorrelationID, cmd.CreatedBy, cmd.StartTime, cmd.EndTime,
			cmd.Name, cmd.Description)

	case codec.TemplateAddBid:
		cmd, err := codec.DecodeAddBid(buf, header)
		if err != nil {
			d.log.Error().Err(err).Msg("malformed add bid, ignored")
			return
		}
		d.engine.AddBid(now, cmd.CorrelationID, cmd.AuctionID, cmd.ParticipantID, cmd.Price)

	case codec.TemplateListAuctions:
		d.lister.SendAuctionList(d.engine.List())

	case codec.TemplateListParticipants:
		d.lister.SendParticipantList(d.participants.List())

	default:
		d.log.Error().Uint16("template", header.Template).Msg("unknown message template, ignored")
	}
}
