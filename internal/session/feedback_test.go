package session

import "testing"

func TestProjectFeedback(t *testing.T) {
	graded := func(r AnswerResult) State {
		return apply(NewState("ABC123"),
			startedRound("a.mp3", 30),
			AnswerGraded{Result: r},
		)
	}

	cases := []struct {
		name      string
		state     State
		want      Outcome
		wantScore int
	}{
		{
			name:  "nothing submitted",
			state: apply(NewState("ABC123"), startedRound("a.mp3", 30)),
			want:  OutcomeNotSubmitted,
		},
		{
			name: "submitted, verdict pending",
			state: apply(NewState("ABC123"),
				startedRound("a.mp3", 30),
				AnswerSubmitted{Artist: "a", Title: "t"},
			),
			want: OutcomeWaiting,
		},
		{
			name:      "both correct wins",
			state:     graded(AnswerResult{ArtistCorrect: true, TitleCorrect: true, BothCorrect: true, ScoreAwarded: 950}),
			want:      OutcomeBothCorrect,
			wantScore: 950,
		},
		{
			name:      "artist only partial",
			state:     graded(AnswerResult{ArtistCorrect: true, ScoreAwarded: 5}),
			want:      OutcomeArtistOnly,
			wantScore: 5,
		},
		{
			name:      "title only partial",
			state:     graded(AnswerResult{TitleCorrect: true, ScoreAwarded: 420}),
			want:      OutcomeTitleOnly,
			wantScore: 420,
		},
		{
			name:  "zero score is a graded incorrect, not waiting",
			state: graded(AnswerResult{ScoreAwarded: 0}),
			want:  OutcomeIncorrect,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fb := ProjectFeedback(tc.state)
			if fb.Outcome != tc.want {
				t.Errorf("outcome = %v, want %v", fb.Outcome, tc.want)
			}
			if fb.Score != tc.wantScore {
				t.Errorf("score = %d, want %d", fb.Score, tc.wantScore)
			}
		})
	}
}

func TestGradedResultSnapshotsGuess(t *testing.T) {
	s := apply(NewState("ABC123"),
		startedRound("a.mp3", 30),
		AnswerGraded{Result: AnswerResult{
			ArtistCorrect: true,
			ScoreAwarded:  5,
			ArtistGuess:   "Queen",
			TitleGuess:    "Pressure",
		}},
	)
	fb := ProjectFeedback(s)
	if fb.ArtistGuess != "Queen" || fb.TitleGuess != "Pressure" {
		t.Errorf("guess not surfaced: %+v", fb)
	}
	if !s.Submitted || s.LastGuess == nil {
		t.Error("graded result must imply a submitted guess")
	}
}
