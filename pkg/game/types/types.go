package types

import "fmt"

// MatchPhase is the replica-local phase of the match.
type MatchPhase uint8

const (
	MatchPhaseLobby MatchPhase = iota
	MatchPhaseRunning
	MatchPhaseWon
)

func (p MatchPhase) String() string {
	switch p {
	case MatchPhaseLobby:
		return "lobby"
	case MatchPhaseRunning:
		return "running"
	case MatchPhaseWon:
		return "won"
	default:
		return "unknown"
	}
}

func (p MatchPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *MatchPhase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "lobby":
		*p = MatchPhaseLobby
	case "running":
		*p = MatchPhaseRunning
	case "won":
		*p = MatchPhaseWon
	default:
		return fmt.Errorf("unknown match phase: %s", string(b))
	}
	return nil
}

// Direction is the way a participant sprite faces.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// DeathMarker is a decorative marker left where a participant was eliminated.
type DeathMarker struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// CreatedAt is the wall clock time of the death in milliseconds
	CreatedAt int64 `json:"createdAt"`
}
