package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerState_itTiming(t *testing.T) {
	start := time.UnixMilli(1_000_000)
	p := NewPlayerState("a", 0, 0, "#fff", "goose", "A", false)

	p.SetAsIt(start)
	require.NotNil(t, p.CurrentItStart)
	assert.Equal(t, start.UnixMilli(), *p.CurrentItStart)

	// setting again does not restart the span
	p.SetAsIt(start.Add(time.Second))
	assert.Equal(t, start.UnixMilli(), *p.CurrentItStart)

	assert.InDelta(t, 3.0, p.ItTime(start.Add(3*time.Second)), 1e-9)
	assert.InDelta(t, constants.ItTimeLimit-3.0, p.TimeRemaining(start.Add(3*time.Second)), 1e-9)

	p.ClearIt(start.Add(4 * time.Second))
	assert.False(t, p.IsIt)
	assert.Nil(t, p.CurrentItStart)
	assert.InDelta(t, 4.0, p.TotalItTime, 1e-9)

	// not "it": time does not accumulate
	assert.InDelta(t, 4.0, p.ItTime(start.Add(time.Hour)), 1e-9)
}

func TestPlayerState_TimeRemaining_clampsToZero(t *testing.T) {
	start := time.UnixMilli(0)
	p := NewPlayerState("a", 0, 0, "", "", "", false)
	p.SetAsIt(start)

	last := p.TimeRemaining(start)
	for i := 1; i <= 30; i++ {
		now := start.Add(time.Duration(i) * time.Second)
		remaining := p.TimeRemaining(now)
		assert.LessOrEqual(t, remaining, last)
		assert.GreaterOrEqual(t, remaining, 0.0)
		last = remaining
	}
	assert.Equal(t, 0.0, last)
	assert.True(t, p.IsExpired(start.Add(30*time.Second)))
}

func TestPlayerState_defaults(t *testing.T) {
	p := NewPlayerState("1700000000123", 1, 2, "", "", "", true)
	assert.Equal(t, "Player123", p.Name)
	assert.Equal(t, "goose", p.DuckType)
	assert.Equal(t, DirectionRight, p.Direction)
	assert.True(t, p.IsIt)
	assert.Nil(t, p.CurrentItStart)
}

func TestPlayerState_UpdatePositionAndAnimation(t *testing.T) {
	p := NewPlayerState("a", 10, 10, "", "", "", false)

	p.UpdatePosition(5, 10)
	assert.True(t, p.IsMoving)
	assert.Equal(t, DirectionLeft, p.Direction)

	p.UpdateAnimation(100 * time.Millisecond)
	assert.Equal(t, 0, p.AnimationFrame)
	p.UpdateAnimation(100 * time.Millisecond)
	assert.Equal(t, 1, p.AnimationFrame)

	p.UpdatePosition(5, 10)
	assert.False(t, p.IsMoving)
	assert.Equal(t, DirectionLeft, p.Direction)
	p.UpdateAnimation(16 * time.Millisecond)
	assert.Equal(t, constants.IdleAnimationFrame, p.AnimationFrame)
}

func TestGameState_orderAndCopy(t *testing.T) {
	g := NewGameState()
	g.AddPlayer(NewPlayerState("c", 0, 0, "", "", "", false))
	g.AddPlayer(NewPlayerState("a", 0, 0, "", "", "", false))
	g.AddPlayer(NewPlayerState("b", 0, 0, "", "", "", false))
	g.AddPlayer(NewPlayerState("a", 9, 9, "", "", "", false))

	assert.Equal(t, []string{"c", "a", "b"}, g.PlayerIDs())
	a, ok := g.GetPlayer("a")
	require.True(t, ok)
	assert.Equal(t, 9.0, a.Position.X)

	g.RemovePlayer("a")
	g.RemovePlayer("missing")
	assert.Equal(t, []string{"c", "b"}, g.PlayerIDs())

	c := g.Copy()
	cp, _ := c.GetPlayer("c")
	cp.Position.X = 100
	orig, _ := g.GetPlayer("c")
	assert.Equal(t, 0.0, orig.Position.X)
}

func TestGameState_JSON(t *testing.T) {
	g := NewGameState()
	g.Phase = MatchPhaseRunning
	g.AddPlayer(NewPlayerState("b", 1, 2, "", "", "B", true))
	g.AddPlayer(NewPlayerState("a", 3, 4, "", "", "A", false))
	g.AddDeathMarker(DeathMarker{X: 5, Y: 6, CreatedAt: 7})

	b, err := json.Marshal(g)
	require.NoError(t, err)

	got := &GameState{}
	require.NoError(t, json.Unmarshal(b, got))
	assert.Equal(t, MatchPhaseRunning, got.Phase)
	assert.Equal(t, []string{"b", "a"}, got.PlayerIDs())
	assert.Len(t, got.DeathMarkers, 1)
}
