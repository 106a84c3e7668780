// Package protocol defines the JSON wire format spoken between trivia
// clients and the match server: discrete text frames, each a tagged
// envelope of the form {"type": <string>, "payload": <object>}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the outer frame for every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Server -> client message types.
const (
	TypeJoined           = "joined"
	TypeGameModes        = "game_modes"
	TypeRoomState        = "room_state"
	TypeModeSelected     = "mode_selected"
	TypeRoundStarted     = "round_started"
	TypeAnswerReceived   = "answer_received"
	TypeAnswerReveal     = "answer_reveal"
	TypeRoundEnded       = "round_ended"
	TypeGameEnded        = "game_ended"
	TypeAudioModeSet     = "audio_mode_set"
	TypeGameStateChanged = "game_state_changed"
	TypeNoMoreSongs      = "no_more_songs"
	TypeError            = "error"
)

// Client -> server command types.
const (
	TypeJoin           = "join"
	TypeSelectGameMode = "select_game_mode"
	TypeStartGame      = "start_game"
	TypeSubmitAnswer   = "submit_answer"
	TypeNextRound      = "next_round"
	TypeSetAudioMode   = "set_audio_mode"
)

// Error codes carried by "error" envelopes.
const (
	ErrCodeInvalidJoin   = "INVALID_JOIN"
	ErrCodeNotHost       = "NOT_HOST"
	ErrCodeNoActiveRound = "NO_ACTIVE_ROUND"
)

var ErrMissingType = errors.New("envelope has no type")

// Decode parses a raw text frame into an envelope. A frame that is not
// valid JSON, or that carries no type tag, yields an error; callers are
// expected to drop such frames without surfacing them further. Frames
// with an unrecognized type decode successfully — dispatch decides what
// to do with them.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}

// Encode builds a wire frame from a type tag and payload value.
func Encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
