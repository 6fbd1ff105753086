package types

import "encoding/json"

// GameState is one replica's complete view of the shared game.
// Participants are kept in insertion order, which is the enumeration
// order used for proximity checks and win detection.
type GameState struct {
	// Timestamp is the time at which the game state was last updated
	Timestamp int64
	// Phase is the replica-local match phase
	Phase MatchPhase
	// DeathMarkers are decorative markers accumulated during the match
	DeathMarkers []DeathMarker
	// WinnerID is the declared winner while the phase is MatchPhaseWon
	WinnerID string
	// WinnerName is the winner's display name if the winner was known locally
	WinnerName *string

	players map[string]*PlayerState
	order   []string
}

func NewGameState() *GameState {
	return &GameState{
		Phase:   MatchPhaseLobby,
		players: make(map[string]*PlayerState),
	}
}

// AddPlayer inserts or overwrites a participant.
// Overwriting keeps the participant's original enumeration position.
func (g *GameState) AddPlayer(state *PlayerState) {
	if _, ok := g.players[state.ID]; !ok {
		g.order = append(g.order, state.ID)
	}
	g.players[state.ID] = state
}

// RemovePlayer removes a participant; it is a no-op for unknown ids.
func (g *GameState) RemovePlayer(id string) {
	if _, ok := g.players[id]; !ok {
		return
	}
	delete(g.players, id)
	for i, v := range g.order {
		if v == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *GameState) GetPlayer(id string) (*PlayerState, bool) {
	p, ok := g.players[id]
	return p, ok
}

func (g *GameState) HasPlayer(id string) bool {
	_, ok := g.players[id]
	return ok
}

func (g *GameState) PlayerCount() int {
	return len(g.order)
}

// PlayerIDs returns the participant ids in enumeration order.
func (g *GameState) PlayerIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Players returns the participants in enumeration order.
func (g *GameState) Players() []*PlayerState {
	players := make([]*PlayerState, 0, len(g.order))
	for _, id := range g.order {
		players = append(players, g.players[id])
	}
	return players
}

func (g *GameState) AddDeathMarker(marker DeathMarker) {
	g.DeathMarkers = append(g.DeathMarkers, marker)
}

func (g *GameState) ClearDeathMarkers() {
	g.DeathMarkers = nil
}

// Copy returns a deep copy of the game state.
func (g *GameState) Copy() *GameState {
	c := &GameState{
		Timestamp: g.Timestamp,
		Phase:     g.Phase,
		WinnerID:  g.WinnerID,
		players:   make(map[string]*PlayerState, len(g.players)),
		order:     make([]string, len(g.order)),
	}
	if g.WinnerName != nil {
		name := *g.WinnerName
		c.WinnerName = &name
	}
	if g.DeathMarkers != nil {
		c.DeathMarkers = make([]DeathMarker, len(g.DeathMarkers))
		copy(c.DeathMarkers, g.DeathMarkers)
	}
	copy(c.order, g.order)
	for id, p := range g.players {
		c.players[id] = p.Copy()
	}
	return c
}

type gameStateJSON struct {
	Timestamp    int64          `json:"timestamp"`
	Phase        MatchPhase     `json:"phase"`
	Players      []*PlayerState `json:"players"`
	DeathMarkers []DeathMarker  `json:"deathMarkers"`
	WinnerID     string         `json:"winnerId,omitempty"`
	WinnerName   *string        `json:"winnerName,omitempty"`
}

func (g *GameState) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameStateJSON{
		Timestamp:    g.Timestamp,
		Phase:        g.Phase,
		Players:      g.Players(),
		DeathMarkers: g.DeathMarkers,
		WinnerID:     g.WinnerID,
		WinnerName:   g.WinnerName,
	})
}

func (g *GameState) UnmarshalJSON(b []byte) error {
	aux := gameStateJSON{}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*g = *NewGameState()
	g.Timestamp = aux.Timestamp
	g.Phase = aux.Phase
	g.DeathMarkers = aux.DeathMarkers
	g.WinnerID = aux.WinnerID
	g.WinnerName = aux.WinnerName
	for _, p := range aux.Players {
		g.AddPlayer(p)
	}
	return nil
}
