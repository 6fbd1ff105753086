package messages

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for messages that cannot be decoded or lack required fields.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType is returned for well-formed messages of an unrecognized type.
	ErrUnknownType = errors.New("unknown message type")
)

// requiredFields lists the fields each message type must carry.
// Cosmetic fields are optional and fall back to defaults.
var requiredFields = map[MessageType][]string{
	MessageTypeJoin:       {"id", "x", "y", "isIt"},
	MessageTypeFullState:  {"id", "x", "y", "isIt"},
	MessageTypeStartMatch: {"hostId"},
	MessageTypeMove:       {"id", "x", "y"},
	MessageTypeTag:        {"newIt", "oldIt"},
	MessageTypeLeave:      {"id"},
	MessageTypeDeath:      {"id", "x", "y", "wasIt"},
	MessageTypeDeclareWin: {"winnerId"},
}

// idFields must be non-empty strings when present.
var idFields = []string{"id", "hostId", "newIt", "oldIt", "winnerId"}

// SerializeEvent encodes an event as a single-line JSON object with a "type" discriminator.
func SerializeEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("failed to serialize event: nil event")
	}
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %v", e.Type(), err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("failed to serialize %s event: not an object", e.Type())
	}
	typeField, err := json.Marshal(e.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event type: %v", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(body)+len(typeField)+10))
	buf.WriteString(`{"type":`)
	buf.Write(typeField)
	if len(body) > 2 {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

// DeserializeEvent decodes one message into its concrete event type.
// Any error wraps ErrMalformed or ErrUnknownType.
func DeserializeEvent(b []byte) (Event, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	typeRaw, ok := raw["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	var messageType MessageType
	if err := json.Unmarshal(typeRaw, &messageType); err != nil {
		return nil, fmt.Errorf("%w: invalid type: %v", ErrMalformed, err)
	}

	e := newEvent(messageType)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, messageType)
	}

	for _, field := range requiredFields[messageType] {
		v, ok := raw[field]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("%w: %s message missing field %s", ErrMalformed, messageType, field)
		}
	}
	for _, field := range idFields {
		v, ok := raw[field]
		if !ok {
			continue
		}
		var id string
		if err := json.Unmarshal(v, &id); err != nil || id == "" {
			return nil, fmt.Errorf("%w: %s message has invalid %s", ErrMalformed, messageType, field)
		}
	}

	if err := json.Unmarshal(b, e); err != nil {
		return nil, fmt.Errorf("%w: %s message: %v", ErrMalformed, messageType, err)
	}

	return e, nil
}

func newEvent(t MessageType) Event {
	switch t {
	case MessageTypeJoin:
		return &Join{}
	case MessageTypeFullState:
		return &FullState{}
	case MessageTypeStartMatch:
		return &StartMatch{}
	case MessageTypeMove:
		return &Move{}
	case MessageTypeTag:
		return &Tag{}
	case MessageTypeLeave:
		return &Leave{}
	case MessageTypeDeath:
		return &Death{}
	case MessageTypeDeclareWin:
		return &DeclareWin{}
	default:
		return nil
	}
}
