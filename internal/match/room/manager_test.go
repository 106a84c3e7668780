package room

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tcregan1/TempoTrivia/internal/protocol"
)

func testConn() *Conn {
	return NewConn(nil, DefaultConnConfig())
}

func drain(t *testing.T, c *Conn) protocol.Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		env, err := protocol.Decode(frame)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		return env
	default:
		t.Fatal("no frame queued")
	}
	return protocol.Envelope{}
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	m := NewManager(10, nil)

	ann := testConn()
	bob := testConn()
	if host := m.AddPlayer("abc123", "p1", "Ann", ann); host != "p1" {
		t.Errorf("host after first join = %q, want p1", host)
	}
	if host := m.AddPlayer("ABC123", "p2", "Bob", bob); host != "p1" {
		t.Errorf("host after second join = %q, want p1", host)
	}

	got := m.RoomStatePayload("abc123")
	want := protocol.RoomStatePayload{
		RoomCode: "ABC123",
		HostID:   "p1",
		Players: []protocol.PlayerInfo{
			{ID: "p1", Name: "Ann", IsHost: true},
			{ID: "p2", Name: "Bob"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("room state (-want +got):\n%s", diff)
	}
}

func TestHostReassignmentOnDisconnect(t *testing.T) {
	m := NewManager(10, nil)

	ann := testConn()
	bob := testConn()
	cal := testConn()
	m.AddPlayer("ABC123", "p1", "Ann", ann)
	m.AddPlayer("ABC123", "p2", "Bob", bob)
	m.AddPlayer("ABC123", "p3", "Cal", cal)

	dep, ok := m.RemoveConn(ann)
	if !ok {
		t.Fatal("RemoveConn reported unknown connection")
	}
	if !dep.HostChanged {
		t.Error("host departure not flagged")
	}
	if host := m.HostID("ABC123"); host != "p2" {
		t.Errorf("host after departure = %q, want eldest remaining p2", host)
	}

	// Non-host departures leave the crown alone.
	dep, _ = m.RemoveConn(cal)
	if dep.HostChanged {
		t.Error("non-host departure flagged as host change")
	}

	dep, _ = m.RemoveConn(bob)
	if !dep.RoomEmpty {
		t.Error("last departure did not reap the room")
	}
	if _, ok := m.RemoveConn(bob); ok {
		t.Error("double remove accepted")
	}
}

func TestBroadcastExcludesAndFansOut(t *testing.T) {
	m := NewManager(10, nil)

	ann := testConn()
	bob := testConn()
	m.AddPlayer("ABC123", "p1", "Ann", ann)
	m.AddPlayer("ABC123", "p2", "Bob", bob)

	err := m.Broadcast("ABC123", protocol.TypeRoomState, m.RoomStatePayload("ABC123"), "p2")
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	env := drain(t, ann)
	if env.Type != protocol.TypeRoomState {
		t.Errorf("broadcast type = %q, want room_state", env.Type)
	}
	select {
	case <-bob.send:
		t.Error("excluded player received broadcast")
	default:
	}
}

func TestBroadcastDropsSaturatedConnections(t *testing.T) {
	m := NewManager(10, nil)

	cfg := DefaultConnConfig()
	cfg.SendBuffer = 1
	slow := NewConn(nil, cfg)
	m.AddPlayer("ABC123", "p1", "Ann", slow)
	m.AddPlayer("ABC123", "p2", "Bob", testConn())

	payload := protocol.AudioModeSetPayload{HostOnlyAudio: true}
	m.Broadcast("ABC123", protocol.TypeAudioModeSet, payload)
	// Buffer is now full; the next broadcast evicts the slow connection.
	m.Broadcast("ABC123", protocol.TypeAudioModeSet, payload)

	state := m.RoomStatePayload("ABC123")
	if len(state.Players) != 1 || state.Players[0].ID != "p2" {
		t.Errorf("saturated connection not evicted, players = %+v", state.Players)
	}
}

func TestSendToPlayerTargetsOneConnection(t *testing.T) {
	m := NewManager(10, nil)

	ann := testConn()
	bob := testConn()
	m.AddPlayer("ABC123", "p1", "Ann", ann)
	m.AddPlayer("ABC123", "p2", "Bob", bob)

	err := m.SendToPlayer("ABC123", "p2", protocol.TypeError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeNotHost,
		Message: "only the host can start the game",
	})
	if err != nil {
		t.Fatalf("SendToPlayer: %v", err)
	}

	env := drain(t, bob)
	if env.Type != protocol.TypeError {
		t.Errorf("targeted send type = %q, want error", env.Type)
	}
	select {
	case <-ann.send:
		t.Error("targeted send leaked to another player")
	default:
	}
}

func TestBroadcastSafeAgainstConcurrentRemove(t *testing.T) {
	// Broadcast snapshots its targets outside the lock, so a
	// connection may be removed, and its send channel closed, between
	// the snapshot and the enqueue. That interleaving must degrade to
	// a dropped frame, never a panic.
	m := NewManager(10, nil)

	cfg := DefaultConnConfig()
	cfg.SendBuffer = 1
	conns := make([]*Conn, 0, 16)
	for i := 0; i < 16; i++ {
		c := NewConn(nil, cfg)
		m.AddPlayer("ABC123", fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), c)
		conns = append(conns, c)
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := protocol.AudioModeSetPayload{HostOnlyAudio: true}
			for i := 0; i < 200; i++ {
				m.Broadcast("ABC123", protocol.TypeAudioModeSet, payload)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, c := range conns {
			m.RemoveConn(c)
		}
	}()
	wg.Wait()
}

func TestEnqueueAfterShutdownReportsDead(t *testing.T) {
	c := testConn()
	c.shutdown()
	if c.Enqueue([]byte("x")) {
		t.Error("Enqueue accepted a frame after shutdown")
	}
	c.shutdown()
}

func TestReapAnnouncesHostReassignment(t *testing.T) {
	m := NewManager(10, nil)

	cfg := DefaultConnConfig()
	cfg.SendBuffer = 1
	host := NewConn(nil, cfg)
	guest := testConn()
	m.AddPlayer("ABC123", "p1", "Ann", host)
	m.AddPlayer("ABC123", "p2", "Bob", guest)

	// Saturate the host's buffer so the next broadcast evicts it.
	host.Enqueue([]byte(`{"type":"noop"}`))
	m.Broadcast("ABC123", protocol.TypeAudioModeSet, protocol.AudioModeSetPayload{HostOnlyAudio: true})

	env := drain(t, guest)
	if env.Type != protocol.TypeAudioModeSet {
		t.Fatalf("first frame = %q, want audio_mode_set", env.Type)
	}

	// The eviction reassigned the host; survivors must hear about it.
	env = drain(t, guest)
	if env.Type != protocol.TypeRoomState {
		t.Fatalf("second frame = %q, want room_state after reap", env.Type)
	}
	var state protocol.RoomStatePayload
	if err := json.Unmarshal(env.Payload, &state); err != nil {
		t.Fatalf("room_state payload: %v", err)
	}
	if state.HostID != "p2" {
		t.Errorf("announced host = %q, want reassigned p2", state.HostID)
	}
	if len(state.Players) != 1 || state.Players[0].ID != "p2" {
		t.Errorf("announced roster = %+v, want only p2", state.Players)
	}
}

func TestLeaderboardSortsByScore(t *testing.T) {
	m := NewManager(10, nil)
	m.AddPlayer("ABC123", "p1", "Ann", testConn())
	m.AddPlayer("ABC123", "p2", "Bob", testConn())
	m.AddPlayer("ABC123", "p3", "Cal", testConn())
	m.AddScore("ABC123", "p2", 900)
	m.AddScore("ABC123", "p3", 450)

	got := m.Leaderboard("ABC123")
	want := []protocol.LeaderboardEntry{
		{Name: "Bob", Score: 900},
		{Name: "Cal", Score: 450},
		{Name: "Ann", Score: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("leaderboard (-want +got):\n%s", diff)
	}
}
