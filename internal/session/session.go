// Package session holds the client-side state machine for one trivia
// match: a single immutable State advanced by a pure reducer, one
// event at a time.
//
// The reducer trusts arrival order. The transport is a single ordered
// WebSocket and the server writes round-scoped messages from one
// goroutine per room, so no round-correlation id exists on the wire;
// in-order delivery is a hard precondition of this package.
package session

// Phase is the top-level state of the match as this client sees it.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhasePlaying       Phase = "playing"
	PhaseRevealPending Phase = "reveal_pending"
	PhaseLeaderboard   Phase = "leaderboard"
	PhaseEnded         Phase = "ended"
)

// RevealDuration is the fixed reveal countdown, in seconds.
const RevealDuration = 5

// Player is a roster entry in server-provided order.
type Player struct {
	ID    string
	Name  string
	Score int
}

// GameMode is one selectable playlist, paired name/description.
type GameMode struct {
	Name        string
	Description string
}

// SongRef is the opaque playback handle for the active round.
type SongRef struct {
	URL    string
	Title  string
	Artist string
}

// Round is the active round's data. TimeRemaining decays locally on
// ticks and is reset only by a round_started message.
type Round struct {
	Song          SongRef
	Duration      int
	TimeRemaining Countdown
}

// Reveal is present exactly while the correct answer is being shown.
type Reveal struct {
	Title          string
	Artist         string
	ArtistImageURL string
	Remaining      Countdown
}

// AnswerResult is the graded verdict for this client's submission.
// Nil means no verdict has arrived yet, which is distinct from a
// verdict with a zero score.
type AnswerResult struct {
	ArtistCorrect bool
	TitleCorrect  bool
	BothCorrect   bool
	ScoreAwarded  int
	ArtistGuess   string
	TitleGuess    string
}

// Guess is the optimistic local snapshot of a submitted answer.
type Guess struct {
	Artist string
	Title  string
}

// LeaderboardEntry is one row of a server-sorted leaderboard.
type LeaderboardEntry struct {
	Name  string
	Score int
}

// State is the full projected view of the match. Values are replaced
// wholesale by the reducer, never mutated in place, so a State handed
// out as a snapshot stays valid forever.
type State struct {
	RoomCode   string
	MyPlayerID string
	HostID     string
	Phase      Phase

	Players       []Player
	Modes         []GameMode
	SelectedMode  string
	HostOnlyAudio bool

	Round  *Round
	Reveal *Reveal
	Result *AnswerResult

	Submitted bool
	LastGuess *Guess

	Leaderboard  []LeaderboardEntry
	CurrentRound int
	TotalRounds  int

	// Closed is set when the transport channel is gone; the state is
	// frozen from then on.
	Closed bool
}

// NewState returns the initial lobby state for a fresh engine instance.
func NewState(roomCode string) State {
	return State{RoomCode: roomCode, Phase: PhaseLobby}
}

// IsHost reports whether this client currently holds host privilege.
// Evaluated live against HostID, never cached.
func (s State) IsHost() bool {
	return s.MyPlayerID != "" && s.MyPlayerID == s.HostID
}

// terminal reports whether the machine accepts no further transitions.
func (s State) terminal() bool {
	return s.Phase == PhaseEnded || s.Closed
}
