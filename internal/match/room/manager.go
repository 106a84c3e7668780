// Package room tracks the server-side state of active trivia rooms:
// which players are in them, who holds the host crown, which song is
// in play, and which connections receive each broadcast.
package room

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tcregan1/TempoTrivia/internal/protocol"
	"github.com/tcregan1/TempoTrivia/internal/songs"
)

var ErrRoomNotFound = errors.New("room not found")

// GameState names the server's view of a room's lifecycle.
const (
	StateLobby       = "lobby"
	StatePlaying     = "playing"
	StateLeaderboard = "leaderboard"
	StateEnded       = "ended"
)

// Player is one participant. Order of the room's player slice is join
// order and is what clients render.
type Player struct {
	ID    string
	Name  string
	Score int
}

// Room is the mutable in-memory state for one active room. Access goes
// through the Manager's lock.
type Room struct {
	Code          string
	Players       []*Player
	HostID        string
	SelectedMode  string
	HostOnlyAudio bool

	State          string
	RoundNumber    int
	TotalRounds    int
	CurrentSong    *songs.Song
	PlayedSongIDs  []int64
	RoundStartedAt time.Time

	conns map[*Conn]struct{}
}

// Departure describes the result of removing a connection.
type Departure struct {
	RoomCode    string
	PlayerID    string
	HostChanged bool
	RoomEmpty   bool
}

// Publisher receives a copy of every broadcast frame, keyed by room
// code. Used for the external match event feed; may be nil.
type Publisher interface {
	Publish(roomCode string, frame []byte)
}

// Manager owns all rooms and their connections.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	publisher   Publisher
	totalRounds int
}

// NewManager creates an empty room registry. publisher may be nil.
func NewManager(totalRounds int, publisher Publisher) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		publisher:   publisher,
		totalRounds: totalRounds,
	}
}

// Normalize canonicalizes a room code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (m *Manager) ensure(code string) *Room {
	code = Normalize(code)
	r, ok := m.rooms[code]
	if !ok {
		r = &Room{
			Code:        code,
			State:       StateLobby,
			TotalRounds: m.totalRounds,
			conns:       make(map[*Conn]struct{}),
		}
		m.rooms[code] = r
		log.Info().Str("room", code).Msg("room created")
	}
	return r
}

// AddPlayer registers a player and their connection, creating the room
// on first join. The first player in becomes host. Returns the room's
// host id after the join.
func (m *Manager) AddPlayer(code, playerID, name string, conn *Conn) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.ensure(code)
	r.Players = append(r.Players, &Player{ID: playerID, Name: name})
	if r.HostID == "" {
		r.HostID = playerID
	}
	conn.PlayerID = playerID
	conn.RoomCode = r.Code
	r.conns[conn] = struct{}{}

	log.Info().
		Str("room", r.Code).
		Str("player_id", playerID).
		Str("name", name).
		Int("players", len(r.Players)).
		Msg("player joined")
	return r.HostID
}

// RemoveConn drops a connection and its player. Host privilege passes
// to the eldest remaining player; empty rooms are reaped.
func (m *Manager) RemoveConn(conn *Conn) (Departure, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[conn.RoomCode]
	if !ok {
		return Departure{}, false
	}
	if _, ok := r.conns[conn]; !ok {
		return Departure{}, false
	}
	delete(r.conns, conn)
	conn.shutdown()

	dep := Departure{RoomCode: r.Code, PlayerID: conn.PlayerID}
	for i, p := range r.Players {
		if p.ID == conn.PlayerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}
	if r.HostID == conn.PlayerID {
		dep.HostChanged = true
		if len(r.Players) > 0 {
			r.HostID = r.Players[0].ID
		} else {
			r.HostID = ""
		}
	}
	if len(r.conns) == 0 {
		delete(m.rooms, r.Code)
		dep.RoomEmpty = true
		log.Info().Str("room", r.Code).Msg("room reaped")
	}

	log.Info().
		Str("room", r.Code).
		Str("player_id", dep.PlayerID).
		Bool("host_changed", dep.HostChanged).
		Msg("player left")
	return dep, true
}

// WithRoom runs fn with the room under the manager's write lock. fn
// must not call back into the manager.
func (m *Manager) WithRoom(code string, fn func(*Room) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[Normalize(code)]
	if !ok {
		return ErrRoomNotFound
	}
	return fn(r)
}

// Broadcast encodes the message once and fans it out to every
// connection in the room, minus any excluded players. Connections that
// cannot keep up are dropped.
func (m *Manager) Broadcast(code, msgType string, payload any, exclude ...string) error {
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	m.mu.RLock()
	r, ok := m.rooms[Normalize(code)]
	if !ok {
		m.mu.RUnlock()
		return ErrRoomNotFound
	}
	targets := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		if _, excluded := skip[c.PlayerID]; excluded {
			continue
		}
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	var dead []*Conn
	for _, c := range targets {
		if !c.Enqueue(frame) {
			log.Warn().
				Str("room", code).
				Str("player_id", c.PlayerID).
				Msg("send buffer full, dropping connection")
			dead = append(dead, c)
		}
	}
	m.reap(dead)

	if m.publisher != nil {
		m.publisher.Publish(Normalize(code), frame)
	}

	log.Debug().
		Str("room", code).
		Str("type", msgType).
		Int("connections", len(targets)-len(dead)).
		Msg("broadcast")
	return nil
}

// SendToPlayer delivers one message to a single player's connection.
func (m *Manager) SendToPlayer(code, playerID, msgType string, payload any) error {
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}

	m.mu.RLock()
	r, ok := m.rooms[Normalize(code)]
	if !ok {
		m.mu.RUnlock()
		return ErrRoomNotFound
	}
	var target *Conn
	for c := range r.conns {
		if c.PlayerID == playerID {
			target = c
			break
		}
	}
	m.mu.RUnlock()

	if target == nil {
		return nil
	}
	if !target.Enqueue(frame) {
		m.reap([]*Conn{target})
	}
	return nil
}

// reap removes dead connections and announces the new roster to each
// affected room, so a host reassignment triggered mid-broadcast is
// never silent. The announcement can itself reap, but every pass
// shrinks the room, so it terminates.
func (m *Manager) reap(dead []*Conn) {
	affected := make(map[string]struct{})
	for _, c := range dead {
		if dep, ok := m.RemoveConn(c); ok && !dep.RoomEmpty {
			affected[dep.RoomCode] = struct{}{}
		}
	}
	for code := range affected {
		m.Broadcast(code, protocol.TypeRoomState, m.RoomStatePayload(code))
	}
}

// RoomStatePayload builds the roster snapshot broadcast after every
// membership or mode change.
func (m *Manager) RoomStatePayload(code string) protocol.RoomStatePayload {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code = Normalize(code)
	r, ok := m.rooms[code]
	if !ok {
		return protocol.RoomStatePayload{RoomCode: code, Players: []protocol.PlayerInfo{}}
	}
	players := make([]protocol.PlayerInfo, len(r.Players))
	for i, p := range r.Players {
		players[i] = protocol.PlayerInfo{
			ID:     p.ID,
			Name:   p.Name,
			Score:  p.Score,
			IsHost: p.ID == r.HostID,
		}
	}
	return protocol.RoomStatePayload{
		RoomCode:     r.Code,
		HostID:       r.HostID,
		Players:      players,
		SelectedMode: r.SelectedMode,
	}
}

// HostID returns the room's current host, or empty when the room is
// unknown.
func (m *Manager) HostID(code string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rooms[Normalize(code)]; ok {
		return r.HostID
	}
	return ""
}

// AddScore credits points to a player.
func (m *Manager) AddScore(code, playerID string, points int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[Normalize(code)]
	if !ok {
		return
	}
	for _, p := range r.Players {
		if p.ID == playerID {
			p.Score += points
			return
		}
	}
}

// Leaderboard returns the room's players sorted by descending score.
func (m *Manager) Leaderboard(code string) []protocol.LeaderboardEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[Normalize(code)]
	if !ok {
		return nil
	}
	entries := make([]protocol.LeaderboardEntry, len(r.Players))
	for i, p := range r.Players {
		entries[i] = protocol.LeaderboardEntry{Name: p.Name, Score: p.Score}
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Score > entries[j-1].Score; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}
