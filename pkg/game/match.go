package game

import (
	"context"
	"time"

	"github.com/knifearena/knifearena/pkg/protocol"

	"github.com/rs/zerolog/log"
)

type MatchState int

const (
	// Accepting spawn changes, no countdown.
	MatchIdle MatchState = iota
	// Both slots filled, clock running; spawn changes rejected.
	MatchCountingDown
	// Final scores frozen until the next match begins.
	MatchEnded
)

type match struct {
	state     MatchState
	remaining int

	// Present only in the Ended state.
	finalScores map[string]int

	// The running countdown's context. Canceling it guarantees no stale
	// clock tick can fire after a restart.
	ctx    context.Context
	cancel context.CancelFunc
}

// startCountdown begins a match. Caller holds the game mutex and has
// verified both slots are filled.
func (g *Game) startCountdown() {
	if g.match.cancel != nil {
		g.match.cancel()
	}

	ctx, cancel := context.WithCancel(g.session.Ctx())
	g.match.ctx = ctx
	g.match.cancel = cancel
	g.match.state = MatchCountingDown
	g.match.remaining = g.config.CountdownSeconds
	g.match.finalScores = nil

	log.Info().Int("seconds", g.match.remaining).Msg("match starting")
	g.publish(protocol.GameTimerUpdate{Seconds: g.match.remaining})

	go g.runCountdown(ctx)
}

func (g *Game) runCountdown(ctx context.Context) {
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			if g.countdownTick(ctx) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// countdownTick advances the match clock by one second and reports whether
// the countdown is finished. A tick from a canceled countdown is a no-op.
func (g *Game) countdownTick(ctx context.Context) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if ctx.Err() != nil || g.match.state != MatchCountingDown {
		return true
	}

	g.match.remaining--
	g.publish(protocol.GameTimerUpdate{Seconds: g.match.remaining})

	if g.match.remaining <= 0 {
		log.Info().Msg("match clock expired")
		g.endMatch()
		return true
	}

	return false
}

// endMatch freezes the scores, clears every entity, and broadcasts the
// result. Caller holds the game mutex. Both the clock expiring and a
// mid-match disconnection land here; either way the whole match ends.
func (g *Game) endMatch() {
	if g.match.cancel != nil {
		g.match.cancel()
		g.match.cancel = nil
	}

	scores := make(map[string]int)
	removed := make([]string, 0, g.store.NumPlayers())
	for _, player := range g.store.PlayersInSlotOrder() {
		scores[player.ID] = player.Points
		removed = append(removed, player.ID)
	}

	g.match.state = MatchEnded
	g.match.remaining = 0
	g.match.finalScores = scores

	g.store.Reset()

	log.Info().Interface("scores", scores).Msg("match ended")

	g.publish(protocol.GameEnd{Scores: scores})
	g.publish(g.slotsMessage())
	g.publish(protocol.PlayerLeft{IDs: removed})
	g.publish(g.knivesMessage())
}

// State reports the current lifecycle state.
func (g *Game) State() MatchState {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.match.state
}

// TimeRemaining reports the countdown's remaining seconds.
func (g *Game) TimeRemaining() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.match.remaining
}
