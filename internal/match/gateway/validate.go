package gateway

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tcregan1/TempoTrivia/internal/protocol"
)

const roomCodeLength = 6

var errFirstFrameNotJoin = errors.New("first frame must be a join")

// validateJoin enforces the join contract: a 6-character alphanumeric
// room code and a nickname of at least 2 characters after trimming.
func validateJoin(join protocol.JoinPayload) error {
	code := strings.TrimSpace(join.RoomCode)
	if len(code) != roomCodeLength {
		return fmt.Errorf("room code must be %d characters", roomCodeLength)
	}
	for _, r := range code {
		if !isAlnum(r) {
			return errors.New("room code must be alphanumeric")
		}
	}
	nick := strings.TrimSpace(join.Nickname)
	if utf8.RuneCountInString(nick) < 2 {
		return errors.New("nickname must be at least 2 characters")
	}
	return nil
}

func isAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}
