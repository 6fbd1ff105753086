package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/cbodonnell/ducktag/client/input"
	"github.com/cbodonnell/ducktag/pkg/clock"
	"github.com/cbodonnell/ducktag/pkg/collisions"
	"github.com/cbodonnell/ducktag/pkg/game"
	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/game/types"
	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/messages"
	"github.com/cbodonnell/ducktag/pkg/queue"
	"github.com/cbodonnell/ducktag/pkg/repositories/models"
	"github.com/cbodonnell/ducktag/pkg/state"
	"github.com/google/uuid"
)

// Sender broadcasts events to every other replica.
type Sender interface {
	Send(event messages.Event)
}

// Profile is the cosmetic identity chosen before joining.
type Profile struct {
	Name     string
	DuckType string
}

type ConnectionEventType int

const (
	ConnectionEventOpened ConnectionEventType = iota
	ConnectionEventClosed
	ConnectionEventErrored
)

func (t ConnectionEventType) String() string {
	switch t {
	case ConnectionEventOpened:
		return "opened"
	case ConnectionEventClosed:
		return "closed"
	case ConnectionEventErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ConnectionEvent is a transport lifecycle change delivered to the tick.
type ConnectionEvent struct {
	Type ConnectionEventType
	Err  error
}

// Game is the local controller. It owns the Replica and is the only
// goroutine that mutates it: transport callbacks and inbound events are
// queued and drained at the start of each tick.
type Game struct {
	replica         *game.Replica
	sender          Sender
	eventQueue      queue.Queue
	connectionQueue queue.Queue
	input           input.Input
	clock           clock.Clock
	rand            *rand.Rand
	stateManager    state.StateManager
	resultChan      chan<- *models.MatchResult
	profile         Profile
	autoStart       bool
	logger          *log.Logger

	joined    bool
	connected bool
	wasMoving bool
	lastTick  time.Time
	lastPhase types.MatchPhase
	// matchParticipants is the participant count when the current match started
	matchParticipants int
}

type NewGameOptions struct {
	Replica *game.Replica
	Sender  Sender
	// EventQueue receives decoded events from the transport
	EventQueue queue.Queue
	// ConnectionQueue receives ConnectionEvents from the transport callbacks
	ConnectionQueue queue.Queue
	Input           input.Input
	Clock           clock.Clock
	Rand            *rand.Rand
	// StateManager is optional; when set a snapshot is published every tick
	StateManager state.StateManager
	// ResultChan is optional; when set a result is sent every time a match is won
	ResultChan chan<- *models.MatchResult
	Profile    Profile
	// AutoStart starts a match as soon as this replica is the host of a full lobby
	AutoStart bool
	Logger    *log.Logger
}

func NewGame(opts NewGameOptions) (*Game, error) {
	if opts.Sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if opts.EventQueue == nil {
		return nil, fmt.Errorf("event queue is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.SystemClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Replica == nil {
		opts.Replica = game.NewReplica(game.NewReplicaOptions{
			Clock:  opts.Clock,
			Rand:   opts.Rand,
			Logger: opts.Logger,
		})
	}
	if opts.ConnectionQueue == nil {
		opts.ConnectionQueue = queue.NewInMemoryQueue(16)
	}
	if opts.Input == nil {
		opts.Input = input.NewStaticInput()
	}

	return &Game{
		replica:         opts.Replica,
		sender:          opts.Sender,
		eventQueue:      opts.EventQueue,
		connectionQueue: opts.ConnectionQueue,
		input:           opts.Input,
		clock:           opts.Clock,
		rand:            opts.Rand,
		stateManager:    opts.StateManager,
		resultChan:      opts.ResultChan,
		profile:         opts.Profile,
		autoStart:       opts.AutoStart,
		logger:          opts.Logger,
		lastPhase:       opts.Replica.Phase(),
	}, nil
}

// Replica exposes the underlying state machine for read access.
func (g *Game) Replica() *game.Replica {
	return g.replica
}

// OnOpen implements network.ConnectionHandler.
func (g *Game) OnOpen() {
	g.enqueueConnectionEvent(ConnectionEvent{Type: ConnectionEventOpened})
}

// OnClose implements network.ConnectionHandler.
func (g *Game) OnClose() {
	g.enqueueConnectionEvent(ConnectionEvent{Type: ConnectionEventClosed})
}

// OnError implements network.ConnectionHandler.
func (g *Game) OnError(err error) {
	g.enqueueConnectionEvent(ConnectionEvent{Type: ConnectionEventErrored, Err: err})
}

func (g *Game) enqueueConnectionEvent(ev ConnectionEvent) {
	if err := g.connectionQueue.Enqueue(ev); err != nil {
		g.logger.Error("Failed to enqueue connection event %s: %v", ev.Type, err)
	}
}

// Join creates the local participant and announces it.
// Joining again re-announces the existing identity.
func (g *Game) Join(profile Profile) error {
	g.profile = profile
	if g.joined {
		g.rejoin()
		return nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate participant id: %v", err)
	}
	if err := g.replica.SetLocalID(id.String()); err != nil {
		return fmt.Errorf("failed to set local id: %v", err)
	}

	join := g.newJoin(id.String())
	g.replica.Join(join)
	g.sender.Send(join)
	g.joined = true
	g.logger.Info("Joined as %s (%s)", join.Name, join.ID)
	return nil
}

// rejoin re-applies and re-announces the local participant with its existing identity.
func (g *Game) rejoin() {
	join := g.newJoin(g.replica.LocalID())
	g.replica.Join(join)
	g.sender.Send(join)
	g.wasMoving = false
	g.logger.Info("Rejoined as %s", join.ID)
}

func (g *Game) newJoin(id string) *messages.Join {
	duckType := g.profile.DuckType
	if duckType == "" {
		duckType = constants.DuckTypes[g.rand.Intn(len(constants.DuckTypes))]
	}
	return &messages.Join{
		ID:       id,
		X:        g.rand.Float64()*constants.SpawnWidth + constants.SpawnMinX,
		Y:        g.rand.Float64()*constants.SpawnHeight + constants.SpawnMinY,
		Color:    constants.Colors[g.rand.Intn(len(constants.Colors))],
		DuckType: duckType,
		Name:     g.profile.Name,
	}
}

// RequestStart starts a match if this replica is the host of a full lobby.
func (g *Game) RequestStart() bool {
	if !g.replica.CanStart() {
		return false
	}
	start := &messages.StartMatch{HostID: g.replica.LocalID()}
	g.sender.Send(start)
	g.replica.StartMatch(start.HostID)
	return true
}

// Leave announces that the local participant is going away.
func (g *Game) Leave() {
	if !g.joined {
		return
	}
	g.sender.Send(&messages.Leave{ID: g.replica.LocalID()})
	g.logger.Info("Left the game")
}

// Run drives Update at the tick interval until ctx is cancelled, then leaves.
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.Leave()
			return
		case <-ticker.C:
			if err := g.Update(g.clock.Now()); err != nil {
				g.logger.Error("Failed to update game: %v", err)
			}
		}
	}
}

// Update runs one tick.
func (g *Game) Update(now time.Time) error {
	if err := g.processConnectionEvents(); err != nil {
		return err
	}
	wasIt := g.localIsIt()
	if err := g.processEvents(); err != nil {
		return err
	}
	// a participant tagged during this drain waits a tick before tagging back
	becameIt := !wasIt && g.localIsIt()

	g.bookkeeping(now)
	g.checkExpiry(now)
	g.move()
	if g.replica.Phase() == types.MatchPhaseRunning && !becameIt {
		g.broadcast(g.replica.CheckProximity(now))
	}
	if g.autoStart && g.RequestStart() {
		g.logger.Info("Started match with %d participants", g.replica.PlayerCount())
	}

	g.observePhase(now)
	g.publishState()
	return nil
}

func (g *Game) processConnectionEvents() error {
	items, err := g.connectionQueue.ReadAllMessages()
	if err != nil {
		return fmt.Errorf("failed to read connection events: %v", err)
	}
	for _, item := range items {
		ev, ok := item.(ConnectionEvent)
		if !ok {
			g.logger.Error("Unexpected connection event type: %T", item)
			continue
		}
		switch ev.Type {
		case ConnectionEventOpened:
			g.connected = true
			if err := g.Join(g.profile); err != nil {
				return err
			}
		case ConnectionEventClosed:
			g.connected = false
			g.logger.Warn("Disconnected from relay")
		case ConnectionEventErrored:
			g.connected = false
			g.logger.Error("Relay connection error: %v", ev.Err)
		}
	}
	return nil
}

func (g *Game) processEvents() error {
	items, err := g.eventQueue.ReadAllMessages()
	if err != nil {
		return fmt.Errorf("failed to read events: %v", err)
	}
	for _, item := range items {
		event, ok := item.(messages.Event)
		if !ok {
			g.logger.Error("Unexpected event type: %T", item)
			continue
		}
		g.broadcast(g.replica.Apply(event))
	}
	return nil
}

func (g *Game) bookkeeping(now time.Time) {
	var delta time.Duration
	if !g.lastTick.IsZero() {
		delta = now.Sub(g.lastTick)
	}
	g.lastTick = now

	if g.replica.Advance(now) && g.joined {
		if _, ok := g.replica.LocalPlayer(); !ok {
			g.rejoin()
		}
	}
	g.replica.Animate(delta)
}

func (g *Game) checkExpiry(now time.Time) {
	if !g.replica.IsAlive() || g.replica.Phase() != types.MatchPhaseRunning {
		return
	}
	self, ok := g.replica.LocalPlayer()
	if !ok || !self.IsExpired(now) {
		return
	}

	center := self.Center()
	death := &messages.Death{ID: self.ID, X: center.X, Y: center.Y, WasIt: self.IsIt}
	g.sender.Send(death)
	g.broadcast(g.replica.Death(death))
	g.logger.Info("Ran out of time")
}

func (g *Game) move() {
	if !g.replica.IsAlive() || g.replica.Phase() != types.MatchPhaseRunning {
		if g.wasMoving {
			g.stop()
		}
		return
	}
	self, ok := g.replica.LocalPlayer()
	if !ok {
		return
	}

	direction := g.input.Read(g.replica.Snapshot(), self.ID).Vector()
	target := self.Position
	if !direction.IsZero() {
		target = collisions.ClampToArena(self.Position.Add(direction.Normalize().Scale(constants.PlayerSpeed)))
	}
	moved := target != self.Position
	if !moved && !g.wasMoving {
		return
	}

	g.replica.Move(&messages.Move{ID: self.ID, X: target.X, Y: target.Y})
	updated, _ := g.replica.LocalPlayer()
	g.sender.Send(game.MoveFromState(updated))
	g.wasMoving = moved
}

// stop broadcasts the idle state of a participant that was moving when the match stopped.
func (g *Game) stop() {
	g.wasMoving = false
	self, ok := g.replica.LocalPlayer()
	if !ok {
		return
	}
	g.replica.Move(&messages.Move{ID: self.ID, X: self.Position.X, Y: self.Position.Y})
	updated, _ := g.replica.LocalPlayer()
	g.sender.Send(game.MoveFromState(updated))
}

func (g *Game) localIsIt() bool {
	self, ok := g.replica.LocalPlayer()
	return ok && self.IsIt
}

// observePhase reacts to phase transitions made during this tick.
func (g *Game) observePhase(now time.Time) {
	phase := g.replica.Phase()
	if phase == g.lastPhase {
		return
	}
	if phase == types.MatchPhaseRunning {
		g.matchParticipants = g.replica.PlayerCount()
	}
	if phase == types.MatchPhaseWon {
		g.reportResult(now)
	}
	g.lastPhase = phase
}

func (g *Game) reportResult(now time.Time) {
	if g.resultChan == nil {
		return
	}
	snapshot := g.replica.Snapshot()
	result := &models.MatchResult{
		ReplicaID:    g.replica.LocalID(),
		WinnerID:     snapshot.WinnerID,
		EndedAt:      now.UnixMilli(),
		Participants: g.matchParticipants,
		Deaths:       len(snapshot.DeathMarkers),
	}
	if result.Participants == 0 {
		result.Participants = snapshot.PlayerCount() + result.Deaths
	}
	if snapshot.WinnerName != nil {
		result.WinnerName = *snapshot.WinnerName
	}
	if winner, ok := snapshot.GetPlayer(snapshot.WinnerID); ok {
		result.WinnerItTime = winner.ItTime(now)
		if winner.GameStartTime != nil {
			result.StartedAt = *winner.GameStartTime
		}
	}

	select {
	case g.resultChan <- result:
	default:
		g.logger.Warn("Dropping result of match won by %s", result.WinnerID)
	}
}

func (g *Game) publishState() {
	if g.stateManager == nil {
		return
	}
	if err := g.stateManager.Set(context.Background(), g.replica.Snapshot()); err != nil {
		g.logger.Error("Failed to publish game state: %v", err)
	}
}

func (g *Game) broadcast(events []messages.Event) {
	for _, event := range events {
		g.sender.Send(event)
	}
}

// Connected reports whether the transport is currently open.
func (g *Game) Connected() bool {
	return g.connected
}
