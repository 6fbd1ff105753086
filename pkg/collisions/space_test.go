package collisions

import (
	"testing"

	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/kinematic"
	"github.com/stretchr/testify/assert"
)

func TestSpace_Candidates(t *testing.T) {
	s := NewSpace()
	s.Upsert("it", kinematic.Vector{X: 300, Y: 300})
	s.Upsert("near", kinematic.Vector{X: 350, Y: 320})
	s.Upsert("far", kinematic.Vector{X: 900, Y: 600})

	got := s.Candidates("it")
	assert.True(t, got["near"])
	assert.False(t, got["far"])
	assert.False(t, got["it"])

	s.Upsert("far", kinematic.Vector{X: 320, Y: 300})
	assert.True(t, s.Candidates("it")["far"])

	s.Remove("near")
	assert.False(t, s.Candidates("it")["near"])

	// just under one sprite width apart across a cell boundary
	s.Upsert("edge", kinematic.Vector{X: 50.5, Y: 300})
	s.Upsert("it", kinematic.Vector{X: 150.4, Y: 300})
	assert.True(t, s.Candidates("it")["edge"])

	s.Clear()
	assert.Empty(t, s.Candidates("it"))
}

func TestCovers(t *testing.T) {
	assert.True(t, Covers(kinematic.Vector{X: 10, Y: 10}))
	assert.False(t, Covers(kinematic.Vector{X: 0, Y: 10}))
	assert.False(t, Covers(kinematic.Vector{X: -1, Y: 10}))
	assert.False(t, Covers(kinematic.Vector{X: constants.ArenaWidth, Y: 0}))
}

func TestClampToArena(t *testing.T) {
	got := ClampToArena(kinematic.Vector{X: -20, Y: 5000})
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, constants.ArenaHeight-constants.PlayerSize-constants.ArenaBottomMargin, got.Y)

	got = ClampToArena(kinematic.Vector{X: 5000, Y: 0})
	assert.Equal(t, constants.ArenaWidth-constants.PlayerSize, got.X)
	assert.Equal(t, constants.ArenaTopMargin, got.Y)
}

func TestSpace_IndexesOnlyParticipants(t *testing.T) {
	s := NewSpace()
	assert.Empty(t, s.space.Objects())

	s.Upsert("a", kinematic.Vector{X: 0, Y: constants.ArenaTopMargin})
	s.Upsert("b", kinematic.Vector{X: 40, Y: constants.ArenaTopMargin})
	assert.Len(t, s.space.Objects(), 2)
	assert.Equal(t, map[string]bool{"b": true}, s.Candidates("a"))

	s.Clear()
	assert.Empty(t, s.space.Objects())
}
