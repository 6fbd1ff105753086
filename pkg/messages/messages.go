package messages

import "github.com/cbodonnell/ducktag/pkg/game/types"

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 4096
)

type MessageType string

// Message types. The names match the browser client so both can share a relay.
const (
	MessageTypeJoin       MessageType = "playerJoin"
	MessageTypeFullState  MessageType = "playerData"
	MessageTypeStartMatch MessageType = "gameStart"
	MessageTypeMove       MessageType = "playerMove"
	MessageTypeTag        MessageType = "playerTag"
	MessageTypeLeave      MessageType = "playerLeave"
	MessageTypeDeath      MessageType = "playerDeath"
	MessageTypeDeclareWin MessageType = "gameWinner"
)

// Event is one replicated game event. The concrete types below form a closed set.
type Event interface {
	Type() MessageType
}

// Join announces a new participant.
type Join struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
	DuckType string  `json:"duckType"`
	Name     string  `json:"name"`
	IsIt     bool    `json:"isIt"`
}

// FullState is the snapshot a replica sends about itself when it sees a new joiner.
type FullState struct {
	ID             string          `json:"id"`
	X              float64         `json:"x"`
	Y              float64         `json:"y"`
	Color          string          `json:"color"`
	DuckType       string          `json:"duckType"`
	Name           string          `json:"name"`
	IsIt           bool            `json:"isIt"`
	TotalItTime    float64         `json:"totalItTime"`
	CurrentItStart *int64          `json:"currentItStart"`
	GameStartTime  *int64          `json:"gameStartTime"`
	Direction      types.Direction `json:"direction,omitempty"`
	AnimationFrame *int            `json:"animationFrame,omitempty"`
	IsMoving       bool            `json:"isMoving"`
}

// StartMatch moves every replica from the lobby into a running match.
type StartMatch struct {
	HostID string `json:"hostId"`
}

// Move replicates a participant's position and optional locomotion fields.
type Move struct {
	ID             string           `json:"id"`
	X              float64          `json:"x"`
	Y              float64          `json:"y"`
	Direction      *types.Direction `json:"direction,omitempty"`
	AnimationFrame *int             `json:"animationFrame,omitempty"`
	IsMoving       *bool            `json:"isMoving,omitempty"`
}

// Tag transfers the "it" role.
type Tag struct {
	NewIt string `json:"newIt"`
	OldIt string `json:"oldIt"`
	// Timestamp is the author's wall clock in milliseconds. It is informational only.
	Timestamp int64 `json:"timestamp"`
}

// Leave removes a participant.
type Leave struct {
	ID string `json:"id"`
}

// Death eliminates a participant whose "it" time ran out.
type Death struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	WasIt bool    `json:"wasIt"`
}

// DeclareWin ends the match naming the sole survivor.
type DeclareWin struct {
	WinnerID string `json:"winnerId"`
}

func (*Join) Type() MessageType       { return MessageTypeJoin }
func (*FullState) Type() MessageType  { return MessageTypeFullState }
func (*StartMatch) Type() MessageType { return MessageTypeStartMatch }
func (*Move) Type() MessageType       { return MessageTypeMove }
func (*Tag) Type() MessageType        { return MessageTypeTag }
func (*Leave) Type() MessageType      { return MessageTypeLeave }
func (*Death) Type() MessageType      { return MessageTypeDeath }
func (*DeclareWin) Type() MessageType { return MessageTypeDeclareWin }
