package relay

import (
	"errors"

	"github.com/knifearena/knifearena/pkg/game"
	"github.com/knifearena/knifearena/pkg/protocol"

	"github.com/rs/zerolog"
)

// dispatch applies one inbound event to the game on behalf of the client.
// Policy rejections go back to the requester only; malformed or unknown
// events are dropped.
func (r *Relay) dispatch(client *Client, data []byte, logger zerolog.Logger) {
	message, err := protocol.Decode(data)
	if err != nil {
		logger.Debug().Err(err).Msg("dropping undecodable message")
		return
	}

	switch m := message.(type) {
	case protocol.RequestSpawn:
		r.handleSpawn(client, m, logger)

	case protocol.Move:
		r.game.Move(client.playerID, m.X, m.Y)

	case protocol.ThrowKnife:
		if err := r.game.ThrowKnife(client.playerID, m.Knife); err != nil {
			logger.Debug().Err(err).Msg("dropping knife from slotless client")
		}

	case protocol.DestroyKnife:
		r.game.DestroyKnife(m.KnifeID)

	case protocol.KnifeHit:
		r.game.ReportHit(m)

	case protocol.PointsUpdate:
		r.game.RelayPoints(m)

	default:
		logger.Debug().Int("op", int(message.MessageOp())).Msg("dropping unexpected op")
	}
}

func (r *Relay) handleSpawn(client *Client, request protocol.RequestSpawn, logger zerolog.Logger) {
	slot, ok := game.ParseSlot(request.Position)
	if !ok {
		logger.Debug().Str("position", request.Position).Msg("dropping unknown spawn position")
		return
	}

	err := r.game.Spawn(client.playerID, slot)
	switch {
	case errors.Is(err, game.ErrMatchInProgress):
		r.reply(client, protocol.SpawnRejected{
			Position: request.Position,
			Reason:   protocol.ReasonGameInProgress,
		})
	case errors.Is(err, game.ErrSlotOccupied):
		r.reply(client, protocol.SpawnRejected{
			Position: request.Position,
			Reason:   protocol.ReasonSlotOccupied,
		})
	case err != nil:
		logger.Error().Err(err).Msg("spawn failed")
	}
}
