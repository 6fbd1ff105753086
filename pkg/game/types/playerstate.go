package types

import (
	"time"

	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/kinematic"
)

type PlayerState struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DuckType string `json:"duckType"`
	Color    string `json:"color"`

	Position       kinematic.Vector `json:"position"`
	Direction      Direction        `json:"direction"`
	IsMoving       bool             `json:"isMoving"`
	AnimationFrame int              `json:"animationFrame"`
	animationTime  time.Duration

	IsIt bool `json:"isIt"`
	// TotalItTime is the accumulated time spent as "it" in seconds, excluding the current span
	TotalItTime float64 `json:"totalItTime"`
	// CurrentItStart is when the current "it" span began in milliseconds, nil when not "it"
	CurrentItStart *int64 `json:"currentItStart"`
	// GameStartTime is when the current match started in milliseconds
	GameStartTime *int64 `json:"gameStartTime"`
}

// NewPlayerState creates a participant with join-time defaults.
// An empty name is replaced by one derived from the id.
func NewPlayerState(id string, x float64, y float64, color string, duckType string, name string, isIt bool) *PlayerState {
	if name == "" {
		name = defaultName(id)
	}
	if duckType == "" {
		duckType = constants.DuckTypes[0]
	}
	return &PlayerState{
		ID:        id,
		Name:      name,
		DuckType:  duckType,
		Color:     color,
		Position:  kinematic.Vector{X: x, Y: y},
		Direction: DirectionRight,
		IsIt:      isIt,
	}
}

func defaultName(id string) string {
	suffix := id
	if len(suffix) > 3 {
		suffix = suffix[len(suffix)-3:]
	}
	return "Player" + suffix
}

// Center returns the center point of the participant sprite.
func (p *PlayerState) Center() kinematic.Vector {
	return kinematic.Vector{
		X: p.Position.X + constants.PlayerSize/2,
		Y: p.Position.Y + constants.PlayerSize/2,
	}
}

// DistanceTo returns the distance between the centers of two participants.
func (p *PlayerState) DistanceTo(other *PlayerState) float64 {
	return kinematic.Distance(p.Center(), other.Center())
}

// SetGameStart records the match start and clears all "it" timing.
func (p *PlayerState) SetGameStart(now time.Time) {
	start := now.UnixMilli()
	p.GameStartTime = &start
	p.IsIt = false
	p.TotalItTime = 0
	p.CurrentItStart = nil
}

// SetAsIt makes the participant "it", starting a new span.
// It is a no-op if the participant is already "it".
func (p *PlayerState) SetAsIt(now time.Time) {
	if p.IsIt {
		return
	}
	start := now.UnixMilli()
	p.IsIt = true
	p.CurrentItStart = &start
}

// ClearIt removes the "it" role, folding the current span into TotalItTime.
func (p *PlayerState) ClearIt(now time.Time) {
	if p.IsIt && p.CurrentItStart != nil {
		p.TotalItTime += elapsedSeconds(*p.CurrentItStart, now)
		p.CurrentItStart = nil
	}
	p.IsIt = false
}

// ResetTiming restores the join-time defaults of all per-match fields.
func (p *PlayerState) ResetTiming() {
	p.IsIt = false
	p.TotalItTime = 0
	p.CurrentItStart = nil
	p.GameStartTime = nil
}

// ItTime returns the cumulative seconds spent as "it" at the given time.
func (p *PlayerState) ItTime(now time.Time) float64 {
	total := p.TotalItTime
	if p.IsIt && p.CurrentItStart != nil {
		total += elapsedSeconds(*p.CurrentItStart, now)
	}
	return total
}

// TimeRemaining returns the seconds left before elimination, never negative.
func (p *PlayerState) TimeRemaining(now time.Time) float64 {
	remaining := constants.ItTimeLimit - p.ItTime(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired returns true once the participant has no time remaining.
func (p *PlayerState) IsExpired(now time.Time) bool {
	return p.TimeRemaining(now) <= 0
}

// UpdatePosition moves the participant and derives the locomotion state from the delta.
func (p *PlayerState) UpdatePosition(x float64, y float64) {
	p.IsMoving = x != p.Position.X || y != p.Position.Y
	if x > p.Position.X {
		p.Direction = DirectionRight
	} else if x < p.Position.X {
		p.Direction = DirectionLeft
	}
	p.Position.X = x
	p.Position.Y = y
}

// UpdateAnimation advances the walking cycle while moving and
// shows the idle pose otherwise.
func (p *PlayerState) UpdateAnimation(deltaTime time.Duration) {
	if !p.IsMoving {
		p.AnimationFrame = constants.IdleAnimationFrame
		p.animationTime = 0
		return
	}
	if p.AnimationFrame == constants.IdleAnimationFrame {
		p.AnimationFrame = 0
	}
	p.animationTime += deltaTime
	if p.animationTime >= constants.AnimationFrameDuration {
		p.AnimationFrame = (p.AnimationFrame + 1) % 2
		p.animationTime = 0
	}
}

// Copy returns a deep copy of the participant.
func (p *PlayerState) Copy() *PlayerState {
	c := *p
	if p.CurrentItStart != nil {
		v := *p.CurrentItStart
		c.CurrentItStart = &v
	}
	if p.GameStartTime != nil {
		v := *p.GameStartTime
		c.GameStartTime = &v
	}
	return &c
}

func elapsedSeconds(startMilli int64, now time.Time) float64 {
	return float64(now.UnixMilli()-startMilli) / 1000
}
