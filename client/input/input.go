// Package input provides the directional controls that drive the local participant.
package input

import (
	"sync"

	"github.com/cbodonnell/ducktag/pkg/game/types"
	"github.com/cbodonnell/ducktag/pkg/kinematic"
)

// Keys are the directional controls held during one tick.
type Keys struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

// Vector returns the raw input direction with each axis in {-1, 0, 1}.
func (k Keys) Vector() kinematic.Vector {
	v := kinematic.Vector{}
	if k.Up {
		v.Y--
	}
	if k.Down {
		v.Y++
	}
	if k.Left {
		v.X--
	}
	if k.Right {
		v.X++
	}
	return v
}

// Input is polled once per tick by the local controller.
type Input interface {
	// Read returns the controls for this tick given the current replica view.
	Read(view *types.GameState, selfID string) Keys
}

// StaticInput holds whatever keys were last set, for scripted play and tests.
type StaticInput struct {
	lock sync.Mutex
	keys Keys
}

func NewStaticInput() *StaticInput {
	return &StaticInput{}
}

func (i *StaticInput) Set(keys Keys) {
	i.lock.Lock()
	defer i.lock.Unlock()
	i.keys = keys
}

func (i *StaticInput) Read(_ *types.GameState, _ string) Keys {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.keys
}
