package state

import (
	"context"

	gametypes "github.com/cbodonnell/ducktag/pkg/game/types"
)

// StateManager provides shared access to the last published replica view.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns a copy of the current game state.
	Get(ctx context.Context) (*gametypes.GameState, error)
	// Set sets the current game state.
	Set(ctx context.Context, gameState *gametypes.GameState) error
}
