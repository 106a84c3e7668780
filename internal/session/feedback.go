package session

// Outcome is the categorical verdict shown to the player after a
// round's grading.
type Outcome string

const (
	// OutcomeNotSubmitted: the player never locked in a guess.
	OutcomeNotSubmitted Outcome = "not_submitted"
	// OutcomeWaiting: a guess was submitted but no verdict has
	// arrived. Distinct from a graded zero-score result.
	OutcomeWaiting      Outcome = "waiting"
	OutcomeBothCorrect  Outcome = "both_correct"
	OutcomeArtistOnly   Outcome = "artist_only"
	OutcomeTitleOnly    Outcome = "title_only"
	OutcomeIncorrect    Outcome = "incorrect"
)

// Feedback is the human-facing summary derived from a graded result.
type Feedback struct {
	Outcome     Outcome
	Score       int
	ArtistGuess string
	TitleGuess  string
}

// ProjectFeedback classifies the current answer state. BothCorrect
// wins outright; either single field correct is a partial naming the
// matched field; otherwise incorrect.
func ProjectFeedback(s State) Feedback {
	if !s.Submitted {
		return Feedback{Outcome: OutcomeNotSubmitted}
	}
	if s.Result == nil {
		fb := Feedback{Outcome: OutcomeWaiting}
		if s.LastGuess != nil {
			fb.ArtistGuess = s.LastGuess.Artist
			fb.TitleGuess = s.LastGuess.Title
		}
		return fb
	}

	r := s.Result
	fb := Feedback{
		Score:       r.ScoreAwarded,
		ArtistGuess: r.ArtistGuess,
		TitleGuess:  r.TitleGuess,
	}
	switch {
	case r.BothCorrect:
		fb.Outcome = OutcomeBothCorrect
	case r.ArtistCorrect:
		fb.Outcome = OutcomeArtistOnly
	case r.TitleCorrect:
		fb.Outcome = OutcomeTitleOnly
	default:
		fb.Outcome = OutcomeIncorrect
	}
	return fb
}
