package constants

import "time"

const (
	// PlayerSize is the width and height of a participant sprite
	PlayerSize float64 = 100.0
	// PlayerSpeed is the distance a participant moves per tick
	PlayerSpeed float64 = 5.0

	// ArenaWidth is the width of the play field
	ArenaWidth float64 = 1200.0
	// ArenaHeight is the height of the play field
	ArenaHeight float64 = 800.0
	// ArenaTopMargin is reserved for the HUD at the top of the play field
	ArenaTopMargin float64 = 100.0
	// ArenaBottomMargin is reserved at the bottom of the play field
	ArenaBottomMargin float64 = 50.0

	// SpawnMinX is the left edge of the spawn area
	SpawnMinX float64 = 100.0
	// SpawnMinY is the top edge of the spawn area
	SpawnMinY float64 = 200.0
	// SpawnWidth is the width of the spawn area
	SpawnWidth float64 = ArenaWidth - PlayerSize - 200.0
	// SpawnHeight is the height of the spawn area
	SpawnHeight float64 = ArenaHeight - PlayerSize - 300.0

	// TagRadius is the maximum center distance at which "it" tags another participant
	TagRadius float64 = PlayerSize

	// ItTimeLimit is how long a participant may be "it" in total before elimination
	ItTimeLimit float64 = 20.0 // seconds

	// MinPlayers is the quorum required to start a match
	MinPlayers int = 3

	// RestartDelay is how long the winner is shown before the match resets to the lobby
	RestartDelay time.Duration = 5 * time.Second

	// AnimationFrameDuration is how long each walking frame is shown
	AnimationFrameDuration time.Duration = 200 * time.Millisecond
	// IdleAnimationFrame is the standing pose
	IdleAnimationFrame int = 2

	// TickInterval is the simulation cadence (60 ticks per second)
	TickInterval time.Duration = time.Second / 60
)

// DuckTypes are the cosmetic variants a participant may pick.
var DuckTypes = []string{"goose", "duck", "mallard"}

// Colors are the cosmetic tints assigned at join.
var Colors = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7", "#DDA0DD", "#98D8C8"}
