package input

import (
	"math"
	"math/rand"
	"time"

	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/game/types"
	"github.com/cbodonnell/ducktag/pkg/kinematic"
)

const (
	// BotFleeRadius is how close "it" must be before a bot runs away
	BotFleeRadius float64 = 3 * constants.PlayerSize
	// BotWanderTicks is how many ticks a bot keeps a random heading
	BotWanderTicks int = 45
)

// BotInput steers a participant without a human: "it" chases the nearest
// participant, everyone else flees from "it" when it comes close and
// wanders otherwise. Bots stand still outside a running match.
type BotInput struct {
	rand       *rand.Rand
	wander     Keys
	wanderLeft int
}

// NewBotInput creates a bot; a nil source is seeded from the clock.
func NewBotInput(r *rand.Rand) *BotInput {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &BotInput{rand: r}
}

func (b *BotInput) Read(view *types.GameState, selfID string) Keys {
	if view == nil || view.Phase != types.MatchPhaseRunning {
		return Keys{}
	}
	self, ok := view.GetPlayer(selfID)
	if !ok {
		return Keys{}
	}

	if self.IsIt {
		if target := nearest(view, self, func(p *types.PlayerState) bool { return !p.IsIt }); target != nil {
			return toward(self.Center(), target.Center())
		}
		return Keys{}
	}

	it := nearest(view, self, func(p *types.PlayerState) bool { return p.IsIt })
	if it != nil && self.DistanceTo(it) < BotFleeRadius {
		return away(self.Center(), it.Center())
	}
	return b.wanderKeys()
}

func (b *BotInput) wanderKeys() Keys {
	if b.wanderLeft <= 0 {
		b.wander = Keys{
			Up:    b.rand.Intn(3) == 0,
			Down:  b.rand.Intn(3) == 0,
			Left:  b.rand.Intn(3) == 0,
			Right: b.rand.Intn(3) == 0,
		}
		b.wanderLeft = BotWanderTicks
	}
	b.wanderLeft--
	return b.wander
}

func nearest(view *types.GameState, self *types.PlayerState, match func(*types.PlayerState) bool) *types.PlayerState {
	var best *types.PlayerState
	bestDistance := math.Inf(1)
	for _, p := range view.Players() {
		if p.ID == self.ID || !match(p) {
			continue
		}
		if d := self.DistanceTo(p); d < bestDistance {
			best = p
			bestDistance = d
		}
	}
	return best
}

func toward(from kinematic.Vector, to kinematic.Vector) Keys {
	dx := to.X - from.X
	dy := to.Y - from.Y
	return Keys{
		Left:  dx < -constants.PlayerSpeed,
		Right: dx > constants.PlayerSpeed,
		Up:    dy < -constants.PlayerSpeed,
		Down:  dy > constants.PlayerSpeed,
	}
}

func away(from kinematic.Vector, threat kinematic.Vector) Keys {
	dx := from.X - threat.X
	dy := from.Y - threat.Y
	return Keys{
		Left:  dx < 0,
		Right: dx >= 0,
		Up:    dy < 0,
		Down:  dy >= 0,
	}
}
