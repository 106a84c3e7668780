package session

import "strings"

// Host-gated command checks. These are UX guards evaluated against the
// live HostID at emission time; the server re-validates on its side.

// CanSelectMode reports whether a select_game_mode command may be sent.
func (s State) CanSelectMode(mode string) bool {
	return s.IsHost() && mode != "" && !s.terminal()
}

// CanStartMatch reports whether a start_game command may be sent. A
// match cannot start without a selected mode.
func (s State) CanStartMatch() bool {
	return s.IsHost() && s.SelectedMode != "" && s.Phase == PhaseLobby
}

// CanAdvanceRound reports whether a next_round command may be sent.
func (s State) CanAdvanceRound() bool {
	return s.IsHost() && s.Phase == PhaseLeaderboard
}

// CanSetAudioMode reports whether a set_audio_mode command may be sent.
func (s State) CanSetAudioMode() bool {
	return s.IsHost() && !s.terminal()
}

// CanSubmit reports whether a submit_answer command may be sent for the
// given guesses: collecting sub-state of an active round, nothing
// submitted yet, and both fields non-blank after trimming.
func (s State) CanSubmit(artist, title string) bool {
	return s.Phase == PhasePlaying &&
		s.Reveal == nil &&
		!s.Submitted &&
		strings.TrimSpace(artist) != "" &&
		strings.TrimSpace(title) != ""
}
