package collisions

import (
	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/kinematic"
	"github.com/solarlune/resolv"
)

const (
	TagPlayer string = "player"

	// CellSize is the resolv cell size; half a sprite keeps the grid small
	CellSize int = int(constants.PlayerSize / 2)

	// padding grows each indexed sprite so that sprites closer than one
	// sprite width always share a cell, resolv bounds being inclusive
	padding float64 = 1
)

// Space is a broad-phase index of participant sprites over the arena.
// It answers which participants could possibly be within tag range of
// another; the exact distance test is left to the caller.
type Space struct {
	space   *resolv.Space
	objects map[string]*resolv.Object
	owners  map[*resolv.Object]string
}

// NewSpace creates an empty index covering the arena.
func NewSpace() *Space {
	return &Space{
		space:   resolv.NewSpace(int(constants.ArenaWidth), int(constants.ArenaHeight), CellSize, CellSize),
		objects: make(map[string]*resolv.Object),
		owners:  make(map[*resolv.Object]string),
	}
}

// Upsert places the participant sprite at the given top-left position.
func (s *Space) Upsert(id string, position kinematic.Vector) {
	obj, ok := s.objects[id]
	if !ok {
		size := constants.PlayerSize + 2*padding
		obj = resolv.NewObject(position.X-padding, position.Y-padding, size, size, TagPlayer)
		s.objects[id] = obj
		s.owners[obj] = id
		s.space.Add(obj)
		return
	}
	obj.Position.X = position.X - padding
	obj.Position.Y = position.Y - padding
	obj.Update()
}

// Remove drops the participant from the index.
func (s *Space) Remove(id string) {
	obj, ok := s.objects[id]
	if !ok {
		return
	}
	s.space.Remove(obj)
	delete(s.objects, id)
	delete(s.owners, obj)
}

// Clear drops every participant.
func (s *Space) Clear() {
	for id := range s.objects {
		s.Remove(id)
	}
}

// Candidates returns the ids of participants whose sprites share a cell
// with the given participant's sprite.
func (s *Space) Candidates(id string) map[string]bool {
	candidates := make(map[string]bool)
	obj, ok := s.objects[id]
	if !ok {
		return candidates
	}
	collision := obj.Check(0, 0, TagPlayer)
	if collision == nil {
		return candidates
	}
	for _, other := range collision.Objects {
		if owner, ok := s.owners[other]; ok && owner != id {
			candidates[owner] = true
		}
	}
	return candidates
}

// Covers returns true if a sprite at the given position lies completely
// inside the indexed area, so that Candidates is complete for it.
func Covers(position kinematic.Vector) bool {
	return position.X-padding >= 0 && position.Y-padding >= 0 &&
		position.X+constants.PlayerSize+padding <= constants.ArenaWidth &&
		position.Y+constants.PlayerSize+padding <= constants.ArenaHeight
}

// ClampToArena limits a sprite position to the playable area.
func ClampToArena(position kinematic.Vector) kinematic.Vector {
	return kinematic.Vector{
		X: kinematic.Clamp(position.X, 0, constants.ArenaWidth-constants.PlayerSize),
		Y: kinematic.Clamp(position.Y, constants.ArenaTopMargin, constants.ArenaHeight-constants.PlayerSize-constants.ArenaBottomMargin),
	}
}
