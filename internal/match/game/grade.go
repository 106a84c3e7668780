package game

import (
	"regexp"
	"strings"
)

// similarityThreshold is the minimum fuzzy-match ratio for a guess to
// count as correct.
const similarityThreshold = 0.80

var (
	parenRe    = regexp.MustCompile(`\([^)]*\)`)
	bracketRe  = regexp.MustCompile(`\[[^\]]*\]`)
	remasterRe = regexp.MustCompile(`(?i)\s*-\s*remaster(ed)?.*`)
	yearTailRe = regexp.MustCompile(`\s*-\s*\d{4}.*`)
	punctRe    = regexp.MustCompile(`[^\w\s]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// normalize strips the noise that keeps honest guesses from matching
// catalog titles: parenthetical qualifiers, remaster suffixes, year
// tails, punctuation, and case.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = parenRe.ReplaceAllString(s, "")
	s = bracketRe.ReplaceAllString(s, "")
	s = remasterRe.ReplaceAllString(s, "")
	s = yearTailRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// matches reports whether a guess is close enough to the target after
// normalization.
func matches(guess, target string) bool {
	g, t := normalize(guess), normalize(target)
	if g == "" || t == "" {
		return false
	}
	if g == t {
		return true
	}
	return ratio(g, t) >= similarityThreshold
}

// ratio is the classic sequence-matcher similarity: twice the total
// length of all common blocks over the combined length.
func ratio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	m := commonBlocks([]byte(a), []byte(b))
	return 2 * float64(m) / float64(len(a)+len(b))
}

// commonBlocks sums the matched characters by recursively splitting
// around the longest common substring.
func commonBlocks(a, b []byte) int {
	ai, bi, size := longestCommon(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += commonBlocks(a[:ai], b[:bi])
	total += commonBlocks(a[ai+size:], b[bi+size:])
	return total
}

func longestCommon(a, b []byte) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] tracks the run ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// score converts grading results and answer speed into points. A full
// match starts at 1000, a partial at 500; every elapsed second shaves
// 10 points, floored at 100 and 50 respectively.
func score(artistCorrect, titleCorrect bool, elapsedSeconds float64) int {
	var base, floor int
	switch {
	case artistCorrect && titleCorrect:
		base, floor = 1000, 100
	case artistCorrect || titleCorrect:
		base, floor = 500, 50
	default:
		return 0
	}
	pts := base - int(elapsedSeconds*10)
	if pts < floor {
		pts = floor
	}
	return pts
}
