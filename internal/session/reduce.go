package session

// Reduce applies one event to a state and returns the next state. It
// is pure: no I/O, no clock, no errors. Events that do not satisfy
// their precondition leave the state unchanged.
func Reduce(s State, ev Event) State {
	// Ended is terminal and a closed channel freezes the session;
	// only the close marker itself still lands.
	if s.terminal() {
		if _, ok := ev.(ChannelClosed); ok {
			s.Closed = true
		}
		return s
	}

	switch e := ev.(type) {
	case Joined:
		s.MyPlayerID = e.PlayerID
		s.HostID = e.HostID
		if e.RoomCode != "" {
			s.RoomCode = e.RoomCode
		}

	case ModesListed:
		s.Modes = e.Modes

	case RoomUpdated:
		s.Players = e.Players
		s.HostID = e.HostID
		s.SelectedMode = e.SelectedMode

	case ModeSelected:
		s.SelectedMode = e.Mode

	case RoundStarted:
		s.Round = &Round{
			Song:          e.Song,
			Duration:      e.Duration,
			TimeRemaining: Countdown(e.Duration),
		}
		s.Reveal = nil
		s.Result = nil
		s.Submitted = false
		s.LastGuess = nil
		s.Phase = PhasePlaying

	case AnswerGraded:
		if s.Phase != PhasePlaying && s.Phase != PhaseRevealPending {
			break
		}
		result := e.Result
		s.Result = &result
		s.Submitted = true
		s.LastGuess = &Guess{Artist: result.ArtistGuess, Title: result.TitleGuess}

	case AnswerRevealed:
		if s.Phase != PhasePlaying {
			break
		}
		s.Reveal = &Reveal{
			Title:          e.Title,
			Artist:         e.Artist,
			ArtistImageURL: e.ArtistImageURL,
			Remaining:      Countdown(RevealDuration),
		}
		s.Phase = PhaseRevealPending

	case RoundEnded:
		s.Reveal = nil
		s.Result = nil
		s.Leaderboard = e.Leaderboard
		s.CurrentRound = e.CurrentRound
		s.TotalRounds = e.TotalRounds
		s.Phase = PhaseLeaderboard

	case GameEnded:
		s.Leaderboard = e.Leaderboard
		s.Phase = PhaseEnded

	case AudioModeSet:
		s.HostOnlyAudio = e.HostOnly

	case PhaseForced:
		s.Phase = e.Phase
		// Reveal presence must always equal the reveal sub-state.
		if e.Phase != PhaseRevealPending {
			s.Reveal = nil
		}

	case Tick:
		switch s.Phase {
		case PhasePlaying:
			if s.Round != nil {
				round := *s.Round
				round.TimeRemaining = round.TimeRemaining.Tick()
				s.Round = &round
			}
		case PhaseRevealPending:
			if s.Reveal != nil {
				reveal := *s.Reveal
				reveal.Remaining = reveal.Remaining.Tick()
				s.Reveal = &reveal
			}
		}

	case AnswerSubmitted:
		s.Submitted = true
		s.LastGuess = &Guess{Artist: e.Artist, Title: e.Title}

	case ChannelClosed:
		s.Closed = true

	case Unknown:
		// Forward compatibility: decodable but unhandled types are
		// deliberate no-ops.
	}

	return s
}
