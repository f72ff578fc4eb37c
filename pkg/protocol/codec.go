package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var ErrUnknownOp = errors.New("unknown op")

type envelope struct {
	Op   Op
	Data cbor.RawMessage
}

func Encode(m Message) ([]byte, error) {
	data, err := cbor.Marshal(m)
	if err != nil {
		return nil, err
	}

	return cbor.Marshal(envelope{
		Op:   m.MessageOp(),
		Data: data,
	})
}

func Decode(data []byte) (Message, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	message, err := emptyMessage(env.Op)
	if err != nil {
		return nil, err
	}

	if err := cbor.Unmarshal(env.Data, message); err != nil {
		return nil, err
	}

	return deref(message), nil
}

func emptyMessage(op Op) (Message, error) {
	switch op {
	case RequestSpawnOp:
		return &RequestSpawn{}, nil
	case MoveOp:
		return &Move{}, nil
	case ThrowKnifeOp:
		return &ThrowKnife{}, nil
	case DestroyKnifeOp:
		return &DestroyKnife{}, nil
	case KnifeHitOp:
		return &KnifeHit{}, nil
	case PointsUpdateOp:
		return &PointsUpdate{}, nil
	case SpawnSlotsUpdateOp:
		return &SpawnSlotsUpdate{}, nil
	case PlayersOp:
		return &Players{}, nil
	case PlayerJoinedOp:
		return &PlayerJoined{}, nil
	case PlayerLeftOp:
		return &PlayerLeft{}, nil
	case PlayerMovedOp:
		return &PlayerMoved{}, nil
	case KnivesUpdateOp:
		return &KnivesUpdate{}, nil
	case KnifeFiredOp:
		return &KnifeFired{}, nil
	case KnifeDestroyedOp:
		return &KnifeDestroyed{}, nil
	case GameTimerUpdateOp:
		return &GameTimerUpdate{}, nil
	case GameEndOp:
		return &GameEnd{}, nil
	case SpawnRejectedOp:
		return &SpawnRejected{}, nil
	}

	return nil, fmt.Errorf("%w: %d", ErrUnknownOp, op)
}

func deref(m Message) Message {
	switch v := m.(type) {
	case *RequestSpawn:
		return *v
	case *Move:
		return *v
	case *ThrowKnife:
		return *v
	case *DestroyKnife:
		return *v
	case *KnifeHit:
		return *v
	case *PointsUpdate:
		return *v
	case *SpawnSlotsUpdate:
		return *v
	case *Players:
		return *v
	case *PlayerJoined:
		return *v
	case *PlayerLeft:
		return *v
	case *PlayerMoved:
		return *v
	case *KnivesUpdate:
		return *v
	case *KnifeFired:
		return *v
	case *KnifeDestroyed:
		return *v
	case *GameTimerUpdate:
		return *v
	case *GameEnd:
		return *v
	case *SpawnRejected:
		return *v
	}
	return m
}
