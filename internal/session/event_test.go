package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tcregan1/TempoTrivia/internal/protocol"
)

func decodeEvent(t *testing.T, raw string) Event {
	t.Helper()
	env, err := protocol.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ev, err := FromEnvelope(env)
	if err != nil {
		t.Fatalf("FromEnvelope: %v", err)
	}
	return ev
}

func TestFromEnvelope(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "joined",
			raw:  `{"type":"joined","payload":{"playerId":"p1","hostId":"p1","roomCode":"ABC123","nickname":"Ann"}}`,
			want: Joined{PlayerID: "p1", HostID: "p1", RoomCode: "ABC123"},
		},
		{
			name: "game_modes pairs by index",
			raw:  `{"type":"game_modes","payload":{"name":["Rock","Pop"],"description":["Guitars"]}}`,
			want: ModesListed{Modes: []GameMode{{Name: "Rock", Description: "Guitars"}, {Name: "Pop"}}},
		},
		{
			name: "room_state",
			raw:  `{"type":"room_state","payload":{"roomCode":"ABC123","hostId":"p1","players":[{"id":"p1","name":"Ann","score":3}],"selectedMode":"Rock"}}`,
			want: RoomUpdated{Players: []Player{{ID: "p1", Name: "Ann", Score: 3}}, HostID: "p1", SelectedMode: "Rock"},
		},
		{
			name: "round_started",
			raw:  `{"type":"round_started","payload":{"songData":{"url":"a.mp3","title":"X","artist":"Y"},"duration":30}}`,
			want: RoundStarted{Song: SongRef{URL: "a.mp3", Title: "X", Artist: "Y"}, Duration: 30},
		},
		{
			name: "answer_received with snake_case result",
			raw:  `{"type":"answer_received","payload":{"artist":"Queen","title":"Pressure","result":{"artist_correct":true,"title_correct":false,"both_correct":false},"scoreAwarded":5}}`,
			want: AnswerGraded{Result: AnswerResult{
				ArtistCorrect: true,
				ScoreAwarded:  5,
				ArtistGuess:   "Queen",
				TitleGuess:    "Pressure",
			}},
		},
		{
			name: "game_state_changed",
			raw:  `{"type":"game_state_changed","payload":{"newState":"playing"}}`,
			want: PhaseForced{Phase: PhasePlaying},
		},
		{
			name: "game_state_changed with bogus state is a no-op",
			raw:  `{"type":"game_state_changed","payload":{"newState":"intermission"}}`,
			want: Unknown{Type: "game_state_changed"},
		},
		{
			name: "unknown type",
			raw:  `{"type":"confetti","payload":{}}`,
			want: Unknown{Type: "confetti"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeEvent(t, tc.raw)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("event (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromEnvelopeBadPayload(t *testing.T) {
	env, err := protocol.Decode([]byte(`{"type":"round_started","payload":{"duration":"soon"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := FromEnvelope(env); err == nil {
		t.Error("malformed payload accepted")
	}
}
