// Package protocol is the wire codec: tagged JSON envelopes for client
// actions and server state pushes. Decoding is strict; an unknown tag
// or a missing field fails the whole message, nothing partial.
package protocol

import (
	"encoding/json"
	"fmt"

	"pokerlite/server/engine"
)

// Envelope type tags.
const (
	TypePlayerAction   = "playerAction"
	TypeStartRound     = "startRound"
	TypeStateUpdate    = "stateUpdate"
	TypeActionRejected = "actionRejected"
	TypeWelcome        = "welcome"
)

// ClientMessage is the envelope for client -> server traffic.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type actionData struct {
	Action string `json:"action"`
	Amount *int   `json:"amount,omitempty"`
}

// Command is a fully decoded client message.
type Command struct {
	Type   string
	Action engine.Action // set iff Type == TypePlayerAction
}

// DecodeCommand parses raw bytes into a Command.
func DecodeCommand(raw []byte) (Command, error) {
	var env ClientMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return Command{}, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeStartRound:
		return Command{Type: TypeStartRound}, nil
	case TypePlayerAction:
		var d actionData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return Command{}, fmt.Errorf("decode action: %w", err)
		}
		act, err := parseAction(d)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypePlayerAction, Action: act}, nil
	default:
		return Command{}, fmt.Errorf("unknown message type %q", env.Type)
	}
}

func parseAction(d actionData) (engine.Action, error) {
	switch kind := engine.ActionKind(d.Action); kind {
	case engine.Fold, engine.Check:
		return engine.Action{Kind: kind}, nil
	case engine.Raise, engine.Call:
		if d.Amount == nil {
			return engine.Action{}, fmt.Errorf("action %q requires amount", d.Action)
		}
		if *d.Amount < 0 {
			return engine.Action{}, fmt.Errorf("amount must be non-negative, got %d", *d.Amount)
		}
		return engine.Action{Kind: kind, Amount: *d.Amount}, nil
	default:
		return engine.Action{}, fmt.Errorf("unknown action %q", d.Action)
	}
}

// ServerMessage is the envelope for server -> client traffic.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StatePayload carries a state snapshot plus an optional note.
type StatePayload struct {
	GameState engine.GameState `json:"gameState"`
	Message   string           `json:"message,omitempty"`
}

// RejectionPayload tells the offending sender why an action was
// discarded. It is never broadcast.
type RejectionPayload struct {
	Reason string `json:"reason"`
}

// WelcomePayload hands a fresh connection its id.
type WelcomePayload struct {
	ClientID string `json:"clientId"`
}

// EncodeState serializes a snapshot once for fan-out.
func EncodeState(state engine.GameState, message string) ([]byte, error) {
	return json.Marshal(ServerMessage{
		Type: TypeStateUpdate,
		Data: StatePayload{GameState: state, Message: message},
	})
}

func EncodeRejection(reason string) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: TypeActionRejected, Data: RejectionPayload{Reason: reason}})
}

func EncodeWelcome(clientID string) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: TypeWelcome, Data: WelcomePayload{ClientID: clientID}})
}
