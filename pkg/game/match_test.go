package game

import (
	"testing"

	"github.com/knifearena/knifearena/pkg/protocol"

	opt "github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/require"
)

func TestCountdownStartsWhenBothSlotsFill(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.Equal(t, MatchIdle, g.State())
	collect(sub)

	require.NoError(t, g.Spawn("b", SlotBottom))
	require.Equal(t, MatchCountingDown, g.State())
	require.Equal(t, 30, g.TimeRemaining())

	timer, ok := findOp(collect(sub), protocol.GameTimerUpdateOp)
	require.True(t, ok)
	require.Equal(t, 30, timer.(protocol.GameTimerUpdate).Seconds)
}

func TestSpawnChangesRejectedDuringCountdown(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))
	collect(sub)

	// A third party cannot take a slot.
	require.ErrorIs(t, g.Spawn("c", SlotTop), ErrMatchInProgress)

	// Even the occupant cannot toggle out mid-match.
	require.ErrorIs(t, g.Spawn("a", SlotTop), ErrMatchInProgress)

	require.Equal(t, "a", g.store.Occupant(SlotTop).Value)
	require.Equal(t, "b", g.store.Occupant(SlotBottom).Value)
	require.Empty(t, collect(sub))
}

func TestCountdownRunsOutAndEndsOnce(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))
	collect(sub)

	ctx := g.match.ctx
	for i := 0; i < 35; i++ {
		g.countdownTick(ctx)
	}

	messages := collect(sub)
	require.Equal(t, 1, countOp(messages, protocol.GameEndOp))
	require.Equal(t, MatchEnded, g.State())

	// The clock decremented by exactly one per tick down to zero.
	seconds := make([]int, 0, 30)
	for _, message := range messages {
		if timer, ok := message.(protocol.GameTimerUpdate); ok {
			seconds = append(seconds, timer.Seconds)
		}
	}
	require.Len(t, seconds, 30)
	require.Equal(t, 29, seconds[0])
	require.Equal(t, 0, seconds[len(seconds)-1])
}

func TestDisconnectDuringCountdownEndsWholeMatch(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))
	collect(sub)

	// Only one player leaves, but the whole match ends.
	g.Disconnect("b")

	messages := collect(sub)

	end, ok := findOp(messages, protocol.GameEndOp)
	require.True(t, ok)
	require.Equal(t, map[string]int{"a": 0, "b": 0}, end.(protocol.GameEnd).Scores)

	slots, ok := findOp(messages, protocol.SpawnSlotsUpdateOp)
	require.True(t, ok)
	require.Nil(t, slots.(protocol.SpawnSlotsUpdate).Top)
	require.Nil(t, slots.(protocol.SpawnSlotsUpdate).Bottom)

	left, ok := findOp(messages, protocol.PlayerLeftOp)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"a", "b"}, left.(protocol.PlayerLeft).IDs)

	knives, ok := findOp(messages, protocol.KnivesUpdateOp)
	require.True(t, ok)
	require.Empty(t, knives.(protocol.KnivesUpdate).Knives)

	require.Equal(t, 0, g.store.NumPlayers())
	require.Equal(t, MatchEnded, g.State())
}

func TestDisconnectOutsideMatchJustRemoves(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	collect(sub)

	g.Disconnect("a")

	messages := collect(sub)
	_, ok := findOp(messages, protocol.GameEndOp)
	require.False(t, ok)

	left, ok := findOp(messages, protocol.PlayerLeftOp)
	require.True(t, ok)
	require.Equal(t, []string{"a"}, left.(protocol.PlayerLeft).IDs)
	require.True(t, opt.IsNone(g.store.Occupant(SlotTop)))

	// A connection that never spawned leaves no trace.
	g.Disconnect("spectator")
	require.Empty(t, collect(sub))
}

func TestStaleCountdownTickIsNoop(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))
	collect(sub)

	stale := g.match.ctx

	g.Disconnect("a")
	collect(sub)

	// The ended match canceled its countdown; a tick from the old clock
	// cannot fire again.
	require.Error(t, stale.Err())
	require.True(t, g.countdownTick(stale))
	require.Empty(t, collect(sub))
}

func TestEndedSnapshotServedThenClearedOnNextSpawn(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))
	g.Disconnect("b")
	collect(sub)

	// Late joiners during Ended receive the frozen snapshot.
	end, ok := findOp(g.JoinState(), protocol.GameEndOp)
	require.True(t, ok)
	require.Equal(t, map[string]int{"a": 0, "b": 0}, end.(protocol.GameEnd).Scores)

	// The next successful spawn returns to Idle and clears it.
	require.NoError(t, g.Spawn("c", SlotTop))
	require.Equal(t, MatchIdle, g.State())

	_, ok = findOp(g.JoinState(), protocol.GameEndOp)
	require.False(t, ok)
}

func TestRematchStartsFreshCountdown(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))
	first := g.match.ctx
	g.Disconnect("a")
	collect(sub)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))

	require.Equal(t, MatchCountingDown, g.State())
	require.Equal(t, 30, g.TimeRemaining())
	require.Error(t, first.Err())
	require.NotEqual(t, first, g.match.ctx)

	timer, ok := findOp(collect(sub), protocol.GameTimerUpdateOp)
	require.True(t, ok)
	require.Equal(t, 30, timer.(protocol.GameTimerUpdate).Seconds)
}

func TestJoinStateReportsTrueRemainingTime(t *testing.T) {
	g, sub := newTestGame(t)

	require.NoError(t, g.Spawn("a", SlotTop))
	require.NoError(t, g.Spawn("b", SlotBottom))
	collect(sub)

	ctx := g.match.ctx
	for i := 0; i < 5; i++ {
		g.countdownTick(ctx)
	}

	timer, ok := findOp(g.JoinState(), protocol.GameTimerUpdateOp)
	require.True(t, ok)
	require.Equal(t, 25, timer.(protocol.GameTimerUpdate).Seconds)
}
