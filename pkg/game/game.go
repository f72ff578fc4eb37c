package game

import (
	"context"
	"errors"

	"github.com/knifearena/knifearena/pkg/config"
	"github.com/knifearena/knifearena/pkg/protocol"
	"github.com/knifearena/knifearena/pkg/utils"

	opt "github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

var (
	// Policy rejections; the relay maps these to spawnRejected replies.
	ErrSlotOccupied    = errors.New("slot occupied")
	ErrMatchInProgress = errors.New("match in progress")

	// The connection has no live player record.
	ErrNoPlayer = errors.New("no such player")
)

// Broadcast is an outbound event destined for every connection, except an
// optionally excluded player (e.g. playerJoined skips the joiner).
type Broadcast struct {
	Message protocol.Message
	Exclude string
}

// Game owns the entity store and the match lifecycle. One coarse mutex
// serializes the three mutation sources: inbound intents, the simulation
// tick, and the countdown clock.
type Game struct {
	mutex   deadlock.Mutex
	session utils.Session
	config  config.Config
	store   *Store
	match   match
	events  *utils.Topic[Broadcast]
}

func NewGame(ctx context.Context, cfg config.Config) *Game {
	return &Game{
		session: utils.NewSession(ctx),
		config:  cfg,
		store:   NewStore(),
		events:  utils.NewTopic[Broadcast](),
	}
}

// Broadcasts is the fanout topic for all state the server pushes to every
// client. The relay subscribes once and forwards.
func (g *Game) Broadcasts() *utils.Topic[Broadcast] {
	return g.events
}

func (g *Game) publish(message protocol.Message) {
	g.events.Publish(Broadcast{Message: message})
}

func (g *Game) publishExcept(message protocol.Message, exclude string) {
	g.events.Publish(Broadcast{Message: message, Exclude: exclude})
}

// Spawn handles a requestSpawn intent: occupy, toggle out of, or switch
// slots. Rejected with ErrMatchInProgress while a countdown runs and with
// ErrSlotOccupied when another player holds the slot.
func (g *Game) Spawn(playerID string, slot SlotID) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.match.state == MatchCountingDown {
		return ErrMatchInProgress
	}

	occupant := g.store.Occupant(slot)

	// Re-requesting the held slot toggles the player out of it.
	if opt.IsSome(occupant) && occupant.Value == playerID {
		g.store.RemovePlayer(playerID)
		g.publish(g.slotsMessage())
		g.publish(protocol.PlayerLeft{IDs: []string{playerID}})
		return nil
	}

	if opt.IsSome(occupant) {
		return ErrSlotOccupied
	}

	// Switching sides pre-match: free the other slot first.
	g.store.ClearSlotOf(playerID)

	x := g.config.Arena.CenterX
	y := g.config.Arena.CenterY - g.config.Arena.SpawnOffset
	if slot == SlotBottom {
		y = g.config.Arena.CenterY + g.config.Arena.SpawnOffset
	}

	player, err := g.store.AddPlayer(playerID, x, y, slot)
	if err != nil {
		// Occupancy was checked above; this is a programming defect.
		log.Error().Err(err).Msg("spawn failed after occupancy check")
		return ErrSlotOccupied
	}

	// A successful spawn leaves the Ended state behind.
	if g.match.state == MatchEnded {
		g.match.state = MatchIdle
		g.match.finalScores = nil
	}

	g.publish(g.slotsMessage())
	g.publish(g.rosterMessage())
	g.publishExcept(protocol.PlayerJoined{Player: wirePlayer(player)}, playerID)
	g.publish(g.knivesMessage())

	if g.store.BothSlotsFilled() && g.match.state != MatchCountingDown {
		g.startCountdown()
	}

	return nil
}

// Move applies a client-reported position without validation. The client is
// trusted for movement; this is a documented trust boundary.
func (g *Game) Move(playerID string, x float64, y float64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	player, ok := g.store.Player(playerID)
	if !ok {
		return
	}

	player.X = x
	player.Y = y
	g.publishExcept(protocol.PlayerMoved{ID: playerID, X: x, Y: y}, playerID)
}

// ThrowKnife registers a fired knife and echoes it to every connection,
// including the sender, which reconciles its predicted knife by id.
func (g *Game) ThrowKnife(playerID string, knife protocol.Knife) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.store.Player(playerID); !ok {
		return ErrNoPlayer
	}

	added := g.store.AddKnife(Knife{
		ID:        knife.ID,
		X:         knife.X,
		Y:         knife.Y,
		DX:        knife.DX,
		DY:        knife.DY,
		ShooterID: playerID,
	})

	g.publish(protocol.KnifeFired{Knife: wireKnife(added)})
	return nil
}

// DestroyKnife removes the knife if it is still live and rebroadcasts the
// destruction either way.
func (g *Game) DestroyKnife(knifeID string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.store.RemoveKnife(knifeID)
	g.publish(protocol.KnifeDestroyed{KnifeID: knifeID})
}

// ReportHit accepts a client-reported collision the tick engine may not have
// seen yet. Removal is idempotent; the event is relayed as-is.
func (g *Game) ReportHit(hit protocol.KnifeHit) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.store.RemoveKnife(hit.KnifeID)
	g.publish(hit)
}

// RelayPoints passes a client's points claim through unvalidated. Server-side
// scores are tracked by the tick engine independently.
func (g *Game) RelayPoints(update protocol.PointsUpdate) {
	g.publish(update)
}

// Disconnect runs the departure path for a connection's player. If a match
// countdown is active and the departing connection had a player in it, the
// whole match ends.
func (g *Game) Disconnect(playerID string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	_, tracked := g.store.Player(playerID)
	if !tracked {
		return
	}

	if g.match.state == MatchCountingDown {
		log.Info().Str("player", playerID).Msg("player left mid-match, ending game")
		g.endMatch()
		return
	}

	g.store.RemovePlayer(playerID)
	g.publish(g.slotsMessage())
	g.publish(protocol.PlayerLeft{IDs: []string{playerID}})
}

// JoinState builds the sync batch a newly-opened connection receives: slot
// state, roster, knives, the true countdown remainder if a match runs, and
// the frozen scores if the last match just ended.
func (g *Game) JoinState() []protocol.Message {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	messages := []protocol.Message{
		g.slotsMessage(),
		g.rosterMessage(),
		g.knivesMessage(),
	}

	if g.match.state == MatchCountingDown {
		messages = append(messages, protocol.GameTimerUpdate{
			Seconds: g.match.remaining,
		})
	}

	if g.match.state == MatchEnded && g.match.finalScores != nil {
		messages = append(messages, protocol.GameEnd{
			Scores: g.match.finalScores,
		})
	}

	return messages
}

func (g *Game) slotsMessage() protocol.SpawnSlotsUpdate {
	var message protocol.SpawnSlotsUpdate
	if top := g.store.Occupant(SlotTop); opt.IsSome(top) {
		id := top.Value
		message.Top = &id
	}
	if bottom := g.store.Occupant(SlotBottom); opt.IsSome(bottom) {
		id := bottom.Value
		message.Bottom = &id
	}
	return message
}

func (g *Game) rosterMessage() protocol.Players {
	roster := make(map[string]protocol.Player, g.store.NumPlayers())
	for _, player := range g.store.PlayersInSlotOrder() {
		roster[player.ID] = wirePlayer(player)
	}
	return protocol.Players{Players: roster}
}

func (g *Game) knivesMessage() protocol.KnivesUpdate {
	knives := make([]protocol.Knife, 0, g.store.NumKnives())
	for _, knife := range g.store.Knives() {
		knives = append(knives, wireKnife(knife))
	}
	return protocol.KnivesUpdate{Knives: knives}
}

func wirePlayer(player *Player) protocol.Player {
	return protocol.Player{
		ID:     player.ID,
		X:      player.X,
		Y:      player.Y,
		Points: player.Points,
		Slot:   string(player.Slot),
	}
}

func wireKnife(knife *Knife) protocol.Knife {
	return protocol.Knife{
		ID:        knife.ID,
		X:         knife.X,
		Y:         knife.Y,
		DX:        knife.DX,
		DY:        knife.DY,
		ShooterID: knife.ShooterID,
	}
}
