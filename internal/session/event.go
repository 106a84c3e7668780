package session

import (
	"encoding/json"
	"fmt"

	"github.com/tcregan1/TempoTrivia/internal/protocol"
)

// Event is the closed union of everything that can advance a session:
// one variant per inbound message type, the one-second tick, the local
// optimistic submit, and channel teardown. Adding a message kind means
// adding a variant here and an arm in Reduce; unrecognized wire types
// funnel into Unknown, which reduces to a no-op.
type Event interface{ isEvent() }

type Joined struct {
	PlayerID string
	HostID   string
	RoomCode string
}

type ModesListed struct{ Modes []GameMode }

type RoomUpdated struct {
	Players      []Player
	HostID       string
	SelectedMode string
}

type ModeSelected struct{ Mode string }

type RoundStarted struct {
	Song     SongRef
	Duration int
}

type AnswerGraded struct{ Result AnswerResult }

type AnswerRevealed struct {
	Title          string
	Artist         string
	ArtistImageURL string
}

type RoundEnded struct {
	Leaderboard  []LeaderboardEntry
	CurrentRound int
	TotalRounds  int
}

type GameEnded struct{ Leaderboard []LeaderboardEntry }

type AudioModeSet struct{ HostOnly bool }

// PhaseForced is the authority's escape hatch: game_state_changed sets
// the phase directly.
type PhaseForced struct{ Phase Phase }

// Unknown is any decodable frame whose type this client does not know.
type Unknown struct{ Type string }

// Tick is one second of wall clock.
type Tick struct{}

// AnswerSubmitted records a locally accepted submission before any
// server verdict exists.
type AnswerSubmitted struct {
	Artist string
	Title  string
}

// ChannelClosed freezes the session; no transitions follow it.
type ChannelClosed struct{}

func (Joined) isEvent()          {}
func (ModesListed) isEvent()     {}
func (RoomUpdated) isEvent()     {}
func (ModeSelected) isEvent()    {}
func (RoundStarted) isEvent()    {}
func (AnswerGraded) isEvent()    {}
func (AnswerRevealed) isEvent()  {}
func (RoundEnded) isEvent()      {}
func (GameEnded) isEvent()       {}
func (AudioModeSet) isEvent()    {}
func (PhaseForced) isEvent()     {}
func (Unknown) isEvent()         {}
func (Tick) isEvent()            {}
func (AnswerSubmitted) isEvent() {}
func (ChannelClosed) isEvent()   {}

// FromEnvelope translates a decoded wire envelope into a session
// event. A payload that fails to unmarshal yields an error and the
// frame is dropped; a type with no mapping yields Unknown.
func FromEnvelope(env protocol.Envelope) (Event, error) {
	switch env.Type {
	case protocol.TypeJoined:
		var p protocol.JoinedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return Joined{PlayerID: p.PlayerID, HostID: p.HostID, RoomCode: p.RoomCode}, nil

	case protocol.TypeGameModes:
		var p protocol.GameModesPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		modes := make([]GameMode, len(p.Name))
		for i, name := range p.Name {
			modes[i].Name = name
			if i < len(p.Description) {
				modes[i].Description = p.Description[i]
			}
		}
		return ModesListed{Modes: modes}, nil

	case protocol.TypeRoomState:
		var p protocol.RoomStatePayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		players := make([]Player, len(p.Players))
		for i, pl := range p.Players {
			players[i] = Player{ID: pl.ID, Name: pl.Name, Score: pl.Score}
		}
		return RoomUpdated{Players: players, HostID: p.HostID, SelectedMode: p.SelectedMode}, nil

	case protocol.TypeModeSelected:
		var p protocol.ModeSelectedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return ModeSelected{Mode: p.SelectedMode}, nil

	case protocol.TypeRoundStarted:
		var p protocol.RoundStartedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return RoundStarted{
			Song:     SongRef{URL: p.SongData.URL, Title: p.SongData.Title, Artist: p.SongData.Artist},
			Duration: p.Duration,
		}, nil

	case protocol.TypeAnswerReceived:
		var p protocol.AnswerReceivedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return AnswerGraded{Result: AnswerResult{
			ArtistCorrect: p.Result.ArtistCorrect,
			TitleCorrect:  p.Result.TitleCorrect,
			BothCorrect:   p.Result.BothCorrect,
			ScoreAwarded:  p.ScoreAwarded,
			ArtistGuess:   p.Artist,
			TitleGuess:    p.Title,
		}}, nil

	case protocol.TypeAnswerReveal:
		var p protocol.AnswerRevealPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return AnswerRevealed{Title: p.Title, Artist: p.Artist, ArtistImageURL: p.ArtistImageURL}, nil

	case protocol.TypeRoundEnded:
		var p protocol.RoundEndedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return RoundEnded{
			Leaderboard:  toLeaderboard(p.Leaderboard),
			CurrentRound: p.CurrentRound,
			TotalRounds:  p.TotalRounds,
		}, nil

	case protocol.TypeGameEnded:
		var p protocol.GameEndedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return GameEnded{Leaderboard: toLeaderboard(p.FinalLeaderboard)}, nil

	case protocol.TypeAudioModeSet:
		var p protocol.AudioModeSetPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return AudioModeSet{HostOnly: p.HostOnlyAudio}, nil

	case protocol.TypeGameStateChanged:
		var p protocol.GameStateChangedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		phase, ok := parseWirePhase(p.NewState)
		if !ok {
			return Unknown{Type: env.Type}, nil
		}
		return PhaseForced{Phase: phase}, nil

	default:
		return Unknown{Type: env.Type}, nil
	}
}

func unmarshal(env protocol.Envelope, dst any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}

func toLeaderboard(entries []protocol.LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{Name: e.Name, Score: e.Score}
	}
	return out
}

// parseWirePhase maps the server's state names onto local phases. The
// server never announces reveal as a state of its own; reveal presence
// is signaled by answer_reveal.
func parseWirePhase(s string) (Phase, bool) {
	switch s {
	case "lobby":
		return PhaseLobby, true
	case "playing":
		return PhasePlaying, true
	case "leaderboard":
		return PhaseLeaderboard, true
	case "ended":
		return PhaseEnded, true
	default:
		return "", false
	}
}
