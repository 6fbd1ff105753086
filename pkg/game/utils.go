package game

import (
	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/game/types"
	"github.com/cbodonnell/ducktag/pkg/messages"
)

func PlayerStateFromJoin(ev *messages.Join) *types.PlayerState {
	return types.NewPlayerState(ev.ID, ev.X, ev.Y, ev.Color, ev.DuckType, ev.Name, ev.IsIt)
}

func JoinFromState(state *types.PlayerState) *messages.Join {
	return &messages.Join{
		ID:       state.ID,
		X:        state.Position.X,
		Y:        state.Position.Y,
		Color:    state.Color,
		DuckType: state.DuckType,
		Name:     state.Name,
		IsIt:     state.IsIt,
	}
}

// PlayerStateFromFullState builds a participant from a peer snapshot,
// filling in the locomotion defaults for fields the peer left out.
func PlayerStateFromFullState(ev *messages.FullState) *types.PlayerState {
	state := types.NewPlayerState(ev.ID, ev.X, ev.Y, ev.Color, ev.DuckType, ev.Name, ev.IsIt)
	state.TotalItTime = ev.TotalItTime
	state.CurrentItStart = copyInt64(ev.CurrentItStart)
	state.GameStartTime = copyInt64(ev.GameStartTime)
	if ev.Direction != "" {
		state.Direction = ev.Direction
	}
	state.AnimationFrame = constants.IdleAnimationFrame
	if ev.AnimationFrame != nil {
		state.AnimationFrame = *ev.AnimationFrame
	}
	state.IsMoving = ev.IsMoving
	return state
}

func FullStateFromState(state *types.PlayerState) *messages.FullState {
	frame := state.AnimationFrame
	return &messages.FullState{
		ID:             state.ID,
		X:              state.Position.X,
		Y:              state.Position.Y,
		Color:          state.Color,
		DuckType:       state.DuckType,
		Name:           state.Name,
		IsIt:           state.IsIt,
		TotalItTime:    state.TotalItTime,
		CurrentItStart: copyInt64(state.CurrentItStart),
		GameStartTime:  copyInt64(state.GameStartTime),
		Direction:      state.Direction,
		AnimationFrame: &frame,
		IsMoving:       state.IsMoving,
	}
}

// MoveFromState builds a move carrying every locomotion field of the participant.
func MoveFromState(state *types.PlayerState) *messages.Move {
	direction := state.Direction
	frame := state.AnimationFrame
	moving := state.IsMoving
	return &messages.Move{
		ID:             state.ID,
		X:              state.Position.X,
		Y:              state.Position.Y,
		Direction:      &direction,
		AnimationFrame: &frame,
		IsMoving:       &moving,
	}
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
