package game

import (
	"context"
	"math"
	"time"

	"github.com/knifearena/knifearena/pkg/protocol"

	"github.com/rs/zerolog/log"
)

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// Run drives the fixed-rate simulation until the context ends. Knife
// velocities are expressed in units per tick, so the tick rate fixes the
// visual speed.
func (g *Game) Run(ctx context.Context) {
	tick := time.NewTicker(time.Second / time.Duration(g.config.TickHz))
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			g.Step()
		case <-ctx.Done():
			return
		}
	}
}

// Step advances every knife by one tick: out-of-bounds knives are destroyed
// at their candidate position, collisions score for the shooter, and
// survivors commit the move. Hits broadcast immediately; the surviving knife
// list broadcasts once after the pass.
func (g *Game) Step() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	arena := g.config.Arena

	for _, knife := range g.store.Knives() {
		candidateX := knife.X + knife.DX
		candidateY := knife.Y + knife.DY

		if distance(candidateX, candidateY, arena.CenterX, arena.CenterY) > arena.Radius {
			g.store.RemoveKnife(knife.ID)
			continue
		}

		if g.resolveHit(knife, candidateX, candidateY) {
			g.store.RemoveKnife(knife.ID)
			continue
		}

		knife.X = candidateX
		knife.Y = candidateY
	}

	if g.store.NumKnives() > 0 {
		g.publish(g.knivesMessage())
	}
}

// resolveHit checks the candidate position against every player but the
// shooter, top slot first. Only the first match registers. Reports whether
// the knife hit.
func (g *Game) resolveHit(knife *Knife, x float64, y float64) bool {
	hitRange := g.config.Arena.PlayerRadius + g.config.Arena.KnifeRadius

	for _, player := range g.store.PlayersInSlotOrder() {
		if player.ID == knife.ShooterID {
			continue
		}

		if distance(x, y, player.X, player.Y) > hitRange {
			continue
		}

		g.publish(protocol.KnifeHit{
			KnifeID:     knife.ID,
			HitPlayerID: player.ID,
			ShooterID:   knife.ShooterID,
		})

		// The shooter may have despawned while the knife was in flight; the
		// hit still lands, only the score update is skipped.
		if shooter, ok := g.store.Player(knife.ShooterID); ok {
			shooter.Points++
			g.publish(protocol.PointsUpdate{
				PlayerID: shooter.ID,
				Points:   shooter.Points,
			})
		} else {
			log.Debug().
				Str("knife", knife.ID).
				Str("shooter", knife.ShooterID).
				Msg("hit by despawned shooter, score skipped")
		}

		return true
	}

	return false
}
