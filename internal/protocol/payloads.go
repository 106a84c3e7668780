package protocol

// PlayerInfo is a roster entry as the server reports it. Order is
// server-chosen and meaningful; clients must not re-sort it.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost,omitempty"`
}

// LeaderboardEntry is one row of an interim or final leaderboard,
// already sorted by the server.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SongData is the playback handle for the active round. URL may be
// empty when host-only audio routing is active and the recipient is
// not the host.
type SongData struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// AnswerCheck is the server's per-field grading verdict.
type AnswerCheck struct {
	ArtistCorrect bool `json:"artist_correct"`
	TitleCorrect  bool `json:"title_correct"`
	BothCorrect   bool `json:"both_correct"`
}

// Server -> client payloads.

type JoinedPayload struct {
	PlayerID string `json:"playerId"`
	HostID   string `json:"hostId"`
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
}

// GameModesPayload pairs mode names and descriptions by index.
type GameModesPayload struct {
	Name        []string `json:"name"`
	Description []string `json:"description"`
}

type RoomStatePayload struct {
	RoomCode     string       `json:"roomCode"`
	HostID       string       `json:"hostId"`
	Players      []PlayerInfo `json:"players"`
	SelectedMode string       `json:"selectedMode"`
}

type ModeSelectedPayload struct {
	SelectedMode string `json:"selectedMode"`
}

type RoundStartedPayload struct {
	SongData SongData `json:"songData"`
	Duration int      `json:"duration"`
	IsHost   bool     `json:"isHost,omitempty"`
}

type AnswerReceivedPayload struct {
	Artist       string      `json:"artist"`
	Title        string      `json:"title"`
	Result       AnswerCheck `json:"result"`
	ScoreAwarded int         `json:"scoreAwarded"`
}

type AnswerRevealPayload struct {
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	ArtistImageURL string `json:"artistImageUrl,omitempty"`
}

type RoundEndedPayload struct {
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	CurrentRound int                `json:"currentRound"`
	TotalRounds  int                `json:"totalRounds"`
}

type GameEndedPayload struct {
	FinalLeaderboard []LeaderboardEntry `json:"finalLeaderboard"`
}

type AudioModeSetPayload struct {
	HostOnlyAudio bool `json:"hostOnlyAudio"`
}

type GameStateChangedPayload struct {
	NewState string `json:"newState"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Client -> server payloads.

type JoinPayload struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
}

type SelectGameModePayload struct {
	RoomCode string `json:"roomCode"`
	Mode     string `json:"mode"`
}

type StartGamePayload struct {
	RoomCode string       `json:"roomCode"`
	Players  []PlayerInfo `json:"players"`
	GameMode string       `json:"gameMode"`
}

type SubmitAnswerPayload struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

type NextRoundPayload struct{}

type SetAudioModePayload struct {
	HostOnly bool `json:"hostOnly"`
}
