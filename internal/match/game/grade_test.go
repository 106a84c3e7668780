package game

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Under Pressure (Remastered 2011)", "under pressure"},
		{"Bohemian Rhapsody - Remaster", "bohemian rhapsody"},
		{"Smells Like Teen Spirit - 1991 Mix", "smells like teen spirit"},
		{"Don't Stop Me Now", "dont stop me now"},
		{"  Hey   Jude [Live]  ", "hey jude"},
		{"AC/DC", "acdc"},
	}
	for _, tc := range cases {
		if got := normalize(tc.in); got != tc.want {
			t.Errorf("normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		name          string
		guess, target string
		want          bool
	}{
		{"exact", "Queen", "Queen", true},
		{"case and punctuation", "dont stop me now", "Don't Stop Me Now", true},
		{"remaster suffix ignored", "Under Pressure", "Under Pressure (Remastered 2011)", true},
		{"small typo passes", "Bohemian Rapsody", "Bohemian Rhapsody", true},
		{"wrong song", "Radio Ga Ga", "Under Pressure", false},
		{"empty guess", "", "Queen", false},
		{"whitespace guess", "   ", "Queen", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matches(tc.guess, tc.target); got != tc.want {
				t.Errorf("matches(%q, %q) = %v, want %v", tc.guess, tc.target, got, tc.want)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	if r := ratio("abc", "abc"); r != 1.0 {
		t.Errorf("ratio of identical strings = %v, want 1.0", r)
	}
	if r := ratio("abc", "xyz"); r != 0 {
		t.Errorf("ratio of disjoint strings = %v, want 0", r)
	}
	// "abcd" vs "bcde": common block "bcd" of length 3 over 8 chars.
	if r := ratio("abcd", "bcde"); r != 0.75 {
		t.Errorf("ratio(abcd, bcde) = %v, want 0.75", r)
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name           string
		artist, title  bool
		elapsedSeconds float64
		want           int
	}{
		{"instant full match", true, true, 0, 1000},
		{"full match after 12s", true, true, 12, 880},
		{"full match floors at 100", true, true, 300, 100},
		{"partial match", false, true, 10, 400},
		{"partial floors at 50", true, false, 300, 50},
		{"incorrect scores zero", false, false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := score(tc.artist, tc.title, tc.elapsedSeconds); got != tc.want {
				t.Errorf("score = %d, want %d", got, tc.want)
			}
		})
	}
}
