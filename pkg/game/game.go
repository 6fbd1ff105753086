package game

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/cbodonnell/ducktag/pkg/clock"
	"github.com/cbodonnell/ducktag/pkg/collisions"
	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/game/types"
	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/messages"
)

// Replica is one participant's full copy of the shared game state.
//
// Every event, whether generated locally or received from a peer, goes
// through the same transition logic. Operations return the events that
// this replica must broadcast as a consequence; the replica never
// performs I/O itself. A Replica is not safe for concurrent use.
type Replica struct {
	localID string
	alive   bool

	gameState *types.GameState
	space     *collisions.Space
	resets    []time.Time

	clock  clock.Clock
	rand   *rand.Rand
	logger *log.Logger
}

// NewReplicaOptions contains options for creating a new Replica.
type NewReplicaOptions struct {
	// Clock defaults to the system clock
	Clock clock.Clock
	// Rand drives successor selection; defaults to a time seeded source
	Rand *rand.Rand
	// Logger defaults to the package default logger
	Logger *log.Logger
}

func NewReplica(opts NewReplicaOptions) *Replica {
	if opts.Clock == nil {
		opts.Clock = clock.SystemClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Replica{
		alive:     true,
		gameState: types.NewGameState(),
		space:     collisions.NewSpace(),
		clock:     opts.Clock,
		rand:      opts.Rand,
		logger:    opts.Logger,
	}
}

// SetLocalID records the identity of this replica's own participant.
// The identity can only be set once.
func (r *Replica) SetLocalID(id string) error {
	if id == "" {
		return fmt.Errorf("local id must not be empty")
	}
	if r.localID != "" && r.localID != id {
		return fmt.Errorf("local id already set to %s", r.localID)
	}
	r.localID = id
	return nil
}

func (r *Replica) LocalID() string {
	return r.localID
}

// IsAlive returns false between the local participant's death and the next match start or reset.
func (r *Replica) IsAlive() bool {
	return r.alive
}

func (r *Replica) Phase() types.MatchPhase {
	return r.gameState.Phase
}

// Player returns a copy of the participant with the given id.
func (r *Replica) Player(id string) (*types.PlayerState, bool) {
	p, ok := r.gameState.GetPlayer(id)
	if !ok {
		return nil, false
	}
	return p.Copy(), true
}

// LocalPlayer returns a copy of this replica's own participant.
func (r *Replica) LocalPlayer() (*types.PlayerState, bool) {
	if r.localID == "" {
		return nil, false
	}
	return r.Player(r.localID)
}

func (r *Replica) PlayerCount() int {
	return r.gameState.PlayerCount()
}

// Snapshot returns a deep copy of the replica's view.
func (r *Replica) Snapshot() *types.GameState {
	snapshot := r.gameState.Copy()
	snapshot.Timestamp = r.clock.Now().UnixMilli()
	return snapshot
}

// Apply dispatches an event to its handler and returns the events to broadcast.
func (r *Replica) Apply(event messages.Event) []messages.Event {
	switch ev := event.(type) {
	case *messages.Join:
		return r.Join(ev)
	case *messages.FullState:
		r.FullState(ev)
	case *messages.StartMatch:
		r.StartMatch(ev.HostID)
	case *messages.Move:
		r.Move(ev)
	case *messages.Tag:
		r.Tag(ev.NewIt, ev.OldIt, ev.Timestamp)
	case *messages.Leave:
		r.Leave(ev.ID)
	case *messages.Death:
		return r.Death(ev)
	case *messages.DeclareWin:
		r.DeclareWin(ev.WinnerID)
	default:
		r.logger.Error("Unhandled event type: %T", event)
	}
	return nil
}

// Join inserts the participant, overwriting any existing entry with the same id.
// A remote join is answered with a snapshot of the local participant.
func (r *Replica) Join(ev *messages.Join) []messages.Event {
	r.addPlayer(PlayerStateFromJoin(ev))
	r.logger.Debug("Participant %s joined as %s", ev.ID, ev.Name)

	if ev.ID == r.localID || r.localID == "" {
		return nil
	}
	self, ok := r.gameState.GetPlayer(r.localID)
	if !ok {
		return nil
	}
	return []messages.Event{FullStateFromState(self)}
}

// FullState inserts or overwrites a peer from its snapshot.
// Snapshots about the local participant are ignored.
func (r *Replica) FullState(ev *messages.FullState) {
	if ev.ID == r.localID {
		return
	}
	r.addPlayer(PlayerStateFromFullState(ev))
	r.logger.Debug("Received snapshot of participant %s", ev.ID)
}

// Leave removes the participant; unknown ids are ignored.
func (r *Replica) Leave(id string) {
	if !r.gameState.HasPlayer(id) {
		return
	}
	r.removePlayer(id)
	r.logger.Debug("Participant %s left", id)
}

// Move overwrites the position and any locomotion fields present on the event.
// Moves for unknown participants are dropped.
func (r *Replica) Move(ev *messages.Move) {
	p, ok := r.gameState.GetPlayer(ev.ID)
	if !ok {
		r.logger.Trace("Dropping move for unknown participant %s", ev.ID)
		return
	}
	p.UpdatePosition(ev.X, ev.Y)
	if ev.Direction != nil && *ev.Direction != "" {
		p.Direction = *ev.Direction
	}
	if ev.AnimationFrame != nil {
		p.AnimationFrame = *ev.AnimationFrame
	}
	if ev.IsMoving != nil {
		p.IsMoving = *ev.IsMoving
	}
	r.space.Upsert(p.ID, p.Position)
}

// StartMatch moves the replica into a running match with hostID as "it".
// Quorum is not checked on receipt.
func (r *Replica) StartMatch(hostID string) {
	now := r.clock.Now()
	r.gameState.Phase = types.MatchPhaseRunning
	r.gameState.WinnerID = ""
	r.gameState.WinnerName = nil
	r.gameState.ClearDeathMarkers()
	r.alive = true
	for _, p := range r.gameState.Players() {
		p.SetGameStart(now)
	}
	if host, ok := r.gameState.GetPlayer(hostID); ok {
		host.SetAsIt(now)
	}
	r.logger.Info("Match started by %s with %d participants", hostID, r.gameState.PlayerCount())
}

// Tag transfers the "it" role from oldIt to newIt. Either side may be unknown.
// The timestamp is informational; the local clock measures the span.
func (r *Replica) Tag(newIt string, oldIt string, timestamp int64) {
	now := r.clock.Now()
	if p, ok := r.gameState.GetPlayer(oldIt); ok {
		p.ClearIt(now)
	}
	if p, ok := r.gameState.GetPlayer(newIt); ok {
		p.SetAsIt(now)
	}
	r.logger.Debug("Tag %s -> %s (sent at %d)", oldIt, newIt, timestamp)
}

// Death records a marker and removes the participant, then checks for a
// winner. When the death is this replica's own, a successor is chosen for
// the "it" role.
func (r *Replica) Death(ev *messages.Death) []messages.Event {
	now := r.clock.Now()
	r.gameState.AddDeathMarker(types.DeathMarker{X: ev.X, Y: ev.Y, CreatedAt: now.UnixMilli()})
	r.removePlayer(ev.ID)
	if ev.ID == r.localID {
		r.alive = false
	}
	r.logger.Info("Participant %s died", ev.ID)

	remaining := r.gameState.PlayerIDs()
	if r.gameState.Phase == types.MatchPhaseRunning {
		switch len(remaining) {
		case 1:
			win := &messages.DeclareWin{WinnerID: remaining[0]}
			r.DeclareWin(win.WinnerID)
			return []messages.Event{win}
		case 0:
			r.endMatch()
			return nil
		}
	}

	if ev.ID != r.localID || !ev.WasIt || len(remaining) == 0 {
		return nil
	}
	successor := remaining[r.rand.Intn(len(remaining))]
	tag := &messages.Tag{NewIt: successor, OldIt: ev.ID, Timestamp: now.UnixMilli()}
	r.Tag(tag.NewIt, tag.OldIt, tag.Timestamp)
	return []messages.Event{tag}
}

// DeclareWin ends the match and schedules a reset after the restart delay.
// Every declaration schedules its own reset.
func (r *Replica) DeclareWin(winnerID string) {
	now := r.clock.Now()
	r.gameState.Phase = types.MatchPhaseWon
	r.gameState.WinnerID = winnerID
	r.gameState.WinnerName = nil
	if winner, ok := r.gameState.GetPlayer(winnerID); ok {
		name := winner.Name
		r.gameState.WinnerName = &name
	}
	r.resets = append(r.resets, now.Add(constants.RestartDelay))
	r.logger.Info("Participant %s won the match", winnerID)
}

// Advance fires every scheduled reset that is due at now and reports
// whether at least one fired.
func (r *Replica) Advance(now time.Time) bool {
	fired := false
	pending := r.resets[:0]
	for _, at := range r.resets {
		if now.Before(at) {
			pending = append(pending, at)
			continue
		}
		fired = true
	}
	r.resets = pending
	if fired {
		r.reset()
	}
	return fired
}

// PendingResets returns the number of scheduled resets that have not fired.
func (r *Replica) PendingResets() int {
	return len(r.resets)
}

// Animate advances every participant's walking animation.
func (r *Replica) Animate(deltaTime time.Duration) {
	for _, p := range r.gameState.Players() {
		p.UpdateAnimation(deltaTime)
	}
}

// Host returns the lowest participant id, or an empty string with no participants.
func (r *Replica) Host() string {
	ids := r.gameState.PlayerIDs()
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	return ids[0]
}

func (r *Replica) IsHost() bool {
	return r.localID != "" && r.Host() == r.localID
}

// CanStart returns true if this replica may author a match start.
func (r *Replica) CanStart() bool {
	return r.gameState.Phase == types.MatchPhaseLobby &&
		r.IsHost() &&
		r.gameState.PlayerCount() >= constants.MinPlayers
}

// ItTime returns the cumulative "it" seconds of a participant at now.
func (r *Replica) ItTime(id string, now time.Time) (float64, bool) {
	p, ok := r.gameState.GetPlayer(id)
	if !ok {
		return 0, false
	}
	return p.ItTime(now), true
}

// TimeRemaining returns the seconds a participant has left as "it" at now.
func (r *Replica) TimeRemaining(id string, now time.Time) (float64, bool) {
	p, ok := r.gameState.GetPlayer(id)
	if !ok {
		return 0, false
	}
	return p.TimeRemaining(now), true
}

// CheckProximity tags the first non-"it" participant, in enumeration order,
// whose center is within tag range of the local participant. It does
// nothing unless the local participant is "it" in a running match.
func (r *Replica) CheckProximity(now time.Time) []messages.Event {
	if r.gameState.Phase != types.MatchPhaseRunning {
		return nil
	}
	self, ok := r.gameState.GetPlayer(r.localID)
	if !ok || !self.IsIt {
		return nil
	}

	candidates := r.space.Candidates(self.ID)
	selfCovered := collisions.Covers(self.Position)
	for _, other := range r.gameState.Players() {
		if other.ID == self.ID || other.IsIt {
			continue
		}
		if selfCovered && collisions.Covers(other.Position) && !candidates[other.ID] {
			continue
		}
		if self.DistanceTo(other) >= constants.TagRadius {
			continue
		}

		self.ClearIt(now)
		other.SetAsIt(now)
		r.logger.Debug("Tagged participant %s", other.ID)
		return []messages.Event{&messages.Tag{NewIt: other.ID, OldIt: self.ID, Timestamp: now.UnixMilli()}}
	}
	return nil
}

func (r *Replica) addPlayer(p *types.PlayerState) {
	r.gameState.AddPlayer(p)
	r.space.Upsert(p.ID, p.Position)
}

func (r *Replica) removePlayer(id string) {
	r.gameState.RemovePlayer(id)
	r.space.Remove(id)
}

// endMatch returns to the lobby when nobody is left in a running match.
func (r *Replica) endMatch() {
	now := r.clock.Now()
	r.gameState.Phase = types.MatchPhaseLobby
	for _, p := range r.gameState.Players() {
		p.ClearIt(now)
	}
	r.logger.Info("Match ended with no participants left")
}

// reset returns the replica to the lobby with every per-match field at its join-time default.
func (r *Replica) reset() {
	r.gameState.Phase = types.MatchPhaseLobby
	r.gameState.WinnerID = ""
	r.gameState.WinnerName = nil
	r.gameState.ClearDeathMarkers()
	r.alive = true
	for _, p := range r.gameState.Players() {
		p.ResetTiming()
	}
	r.logger.Info("Match reset, back to lobby")
}
