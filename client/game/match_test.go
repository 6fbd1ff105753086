package game

import (
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/cbodonnell/ducktag/pkg/clock"
	"github.com/cbodonnell/ducktag/pkg/game"
	"github.com/cbodonnell/ducktag/pkg/game/constants"
	"github.com/cbodonnell/ducktag/pkg/game/types"
	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/messages"
	"github.com/cbodonnell/ducktag/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wire fans every sent event out to all other controllers through the
// wire codec, the way the relay does. Delivery is synchronous: a receiver
// later in the tick order sees the event in the same tick.
type wire struct {
	t      *testing.T
	nodes  []*wireNode
	clock  *clock.FakeClock
	counts map[messages.MessageType]int
}

type wireNode struct {
	game   *Game
	events *queue.InMemoryQueue
	sender *wireSender
}

type wireSender struct {
	wire *wire
	from int
}

func (s *wireSender) Send(event messages.Event) {
	b, err := messages.SerializeEvent(event)
	require.NoError(s.wire.t, err)
	s.wire.counts[event.Type()]++
	for i, node := range s.wire.nodes {
		if i == s.from {
			continue
		}
		decoded, err := messages.DeserializeEvent(b)
		require.NoError(s.wire.t, err)
		require.NoError(s.wire.t, node.events.Enqueue(decoded))
	}
}

func newWire(t *testing.T, size int) *wire {
	t.Helper()
	w := &wire{
		t:      t,
		clock:  clock.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)),
		counts: make(map[messages.MessageType]int),
	}
	for i := 0; i < size; i++ {
		node := &wireNode{
			events: queue.NewInMemoryQueue(0),
			sender: &wireSender{wire: w, from: i},
		}
		g, err := NewGame(NewGameOptions{
			Sender:     node.sender,
			EventQueue: node.events,
			Clock:      w.clock,
			Rand:       rand.New(rand.NewSource(int64(i + 1))),
			Profile:    Profile{Name: fmt.Sprintf("Duck %d", i), DuckType: "duck"},
			Logger:     log.New(io.Discard, "", 0, log.LogLevelError),
		})
		require.NoError(t, err)
		node.game = g
		w.nodes = append(w.nodes, node)
	}
	return w
}

func (w *wire) tick() {
	w.clock.Advance(constants.TickInterval)
	for _, node := range w.nodes {
		require.NoError(w.t, node.game.Update(w.clock.Now()))
	}
}

// runUntil ticks until done holds and returns the simulated time it took,
// failing once limit has passed.
func (w *wire) runUntil(limit time.Duration, done func() bool) time.Duration {
	w.t.Helper()
	start := w.clock.Now()
	for !done() {
		elapsed := w.clock.Now().Sub(start)
		require.LessOrEqual(w.t, elapsed, limit, "condition not reached in time")
		w.tick()
	}
	return w.clock.Now().Sub(start)
}

func (w *wire) all(match func(*game.Replica) bool) func() bool {
	return func() bool {
		for _, node := range w.nodes {
			if !match(node.game.Replica()) {
				return false
			}
		}
		return true
	}
}

// place moves a participant without walking there and announces the move.
func (w *wire) place(i int, x float64, y float64) {
	r := w.nodes[i].game.Replica()
	r.Move(&messages.Move{ID: r.LocalID(), X: x, Y: y})
	self, ok := r.LocalPlayer()
	require.True(w.t, ok)
	w.nodes[i].sender.Send(game.MoveFromState(self))
}

func TestGame_MatchAcrossReplicas(t *testing.T) {
	w := newWire(t, constants.MinPlayers)
	itLimit := time.Duration(constants.ItTimeLimit) * time.Second

	for _, node := range w.nodes {
		node.game.OnOpen()
	}
	w.runUntil(time.Second, w.all(func(r *game.Replica) bool { return r.PlayerCount() == constants.MinPlayers }))

	host := -1
	for i, node := range w.nodes {
		if node.game.Replica().IsHost() {
			require.Equal(t, -1, host, "exactly one host")
			host = i
		}
	}
	require.NotEqual(t, -1, host)
	adjacent := (host + 1) % len(w.nodes)
	distant := (host + 2) % len(w.nodes)

	w.place(host, 300, 300)
	w.place(adjacent, 350, 300)
	w.place(distant, 1000, 500)
	w.tick()

	require.True(t, w.nodes[host].game.RequestStart())
	for i, node := range w.nodes {
		if i != host {
			assert.False(t, node.game.RequestStart(), "only the host starts")
		}
	}
	w.runUntil(time.Second, w.all(func(r *game.Replica) bool { return r.Phase() == types.MatchPhaseRunning }))

	// the adjacent pair trade the role back and forth until one runs out of time
	firstDeath := w.runUntil(4*itLimit, func() bool { return w.counts[messages.MessageTypeDeath] > 0 })
	assert.GreaterOrEqual(t, firstDeath, itLimit, "nobody expires before spending the whole limit as it")
	assert.Greater(t, w.counts[messages.MessageTypeTag], 100, "tag and tag back")

	w.runUntil(2*itLimit, w.all(func(r *game.Replica) bool { return r.Phase() == types.MatchPhaseWon }))
	winner := w.nodes[0].game.Replica().Snapshot().WinnerID
	require.NotEmpty(t, winner)
	for _, node := range w.nodes {
		snapshot := node.game.Replica().Snapshot()
		assert.Equal(t, winner, snapshot.WinnerID)
		assert.Len(t, snapshot.DeathMarkers, constants.MinPlayers-1)
	}
	assert.GreaterOrEqual(t, w.counts[messages.MessageTypeDeath], constants.MinPlayers-1)
	assert.Positive(t, w.counts[messages.MessageTypeDeclareWin])

	w.runUntil(constants.RestartDelay+time.Second, w.all(func(r *game.Replica) bool {
		return r.Phase() == types.MatchPhaseLobby && r.IsAlive() &&
			r.PlayerCount() == constants.MinPlayers && r.PendingResets() == 0
	}))
	for _, node := range w.nodes {
		snapshot := node.game.Replica().Snapshot()
		assert.Empty(t, snapshot.DeathMarkers)
		assert.Empty(t, snapshot.WinnerID)
	}
	assert.True(t, w.nodes[host].game.Replica().CanStart(), "a new match can start")
}
