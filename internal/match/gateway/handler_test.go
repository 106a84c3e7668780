package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tcregan1/TempoTrivia/internal/match/room"
	"github.com/tcregan1/TempoTrivia/internal/protocol"
)

type stubGame struct {
	started   chan string
	processed chan string
}

func newStubGame() *stubGame {
	return &stubGame{started: make(chan string, 8), processed: make(chan string, 8)}
}

func (s *stubGame) ListModes(ctx context.Context) (protocol.GameModesPayload, error) {
	return protocol.GameModesPayload{Name: []string{"Rock"}, Description: []string{"Guitars"}}, nil
}

func (s *stubGame) StartRound(ctx context.Context, code string) error {
	s.started <- code
	return nil
}

func (s *stubGame) ProcessAnswer(ctx context.Context, code, playerID, artist, title string) error {
	s.processed <- playerID
	return nil
}

func startGateway(t *testing.T) (*httptest.Server, *stubGame) {
	t.Helper()
	game := newStubGame()
	cfg := DefaultConfig()
	cfg.CheckOrigin = func(*http.Request) bool { return true }
	h := NewHandler(room.NewManager(10, nil), game, cfg)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, game
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendFrame(t *testing.T, ws *websocket.Conn, msgType string, payload any) {
	t.Helper()
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readFrame(t *testing.T, ws *websocket.Conn) protocol.Envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func readUntil(t *testing.T, ws *websocket.Conn, msgType string) protocol.Envelope {
	t.Helper()
	for i := 0; i < 10; i++ {
		env := readFrame(t, ws)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("never received %s", msgType)
	return protocol.Envelope{}
}

func join(t *testing.T, ws *websocket.Conn, code, nick string) protocol.JoinedPayload {
	t.Helper()
	sendFrame(t, ws, protocol.TypeJoin, protocol.JoinPayload{RoomCode: code, Nickname: nick})
	env := readUntil(t, ws, protocol.TypeJoined)
	var joined protocol.JoinedPayload
	if err := json.Unmarshal(env.Payload, &joined); err != nil {
		t.Fatalf("joined payload: %v", err)
	}
	return joined
}

func TestJoinHandshake(t *testing.T) {
	srv, _ := startGateway(t)
	ws := dial(t, srv)

	sendFrame(t, ws, protocol.TypeJoin, protocol.JoinPayload{RoomCode: "abc123", Nickname: "Ann"})

	env := readFrame(t, ws)
	if env.Type != protocol.TypeGameModes {
		t.Fatalf("first frame = %q, want game_modes", env.Type)
	}

	env = readFrame(t, ws)
	if env.Type != protocol.TypeJoined {
		t.Fatalf("second frame = %q, want joined", env.Type)
	}
	var joined protocol.JoinedPayload
	json.Unmarshal(env.Payload, &joined)
	if joined.RoomCode != "ABC123" {
		t.Errorf("room code = %q, want normalized ABC123", joined.RoomCode)
	}
	if joined.HostID != joined.PlayerID {
		t.Error("first joiner is not host")
	}

	env = readFrame(t, ws)
	if env.Type != protocol.TypeRoomState {
		t.Fatalf("third frame = %q, want room_state", env.Type)
	}
}

func TestInvalidJoinIsRejected(t *testing.T) {
	srv, _ := startGateway(t)
	ws := dial(t, srv)

	sendFrame(t, ws, protocol.TypeJoin, protocol.JoinPayload{RoomCode: "nope", Nickname: "Ann"})

	env := readFrame(t, ws)
	if env.Type != protocol.TypeError {
		t.Fatalf("frame = %q, want error", env.Type)
	}
	var p protocol.ErrorPayload
	json.Unmarshal(env.Payload, &p)
	if p.Code != protocol.ErrCodeInvalidJoin {
		t.Errorf("error code = %q, want %q", p.Code, protocol.ErrCodeInvalidJoin)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("connection stayed open after rejected join")
	}
}

func TestNonHostStartIsRefused(t *testing.T) {
	srv, game := startGateway(t)

	host := dial(t, srv)
	join(t, host, "ABC123", "Ann")

	guest := dial(t, srv)
	join(t, guest, "ABC123", "Bob")

	sendFrame(t, guest, protocol.TypeStartGame, protocol.StartGamePayload{RoomCode: "ABC123"})
	env := readUntil(t, guest, protocol.TypeError)
	var p protocol.ErrorPayload
	json.Unmarshal(env.Payload, &p)
	if p.Code != protocol.ErrCodeNotHost {
		t.Errorf("error code = %q, want %q", p.Code, protocol.ErrCodeNotHost)
	}
	select {
	case code := <-game.started:
		t.Errorf("non-host start reached the game service for %s", code)
	default:
	}

	sendFrame(t, host, protocol.TypeStartGame, protocol.StartGamePayload{RoomCode: "ABC123"})
	select {
	case code := <-game.started:
		if code != "ABC123" {
			t.Errorf("started room = %q", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("host start never reached the game service")
	}
}

func TestStartGameAnnouncesPlayingState(t *testing.T) {
	srv, game := startGateway(t)

	host := dial(t, srv)
	join(t, host, "ABC123", "Ann")
	guest := dial(t, srv)
	join(t, guest, "ABC123", "Bob")

	sendFrame(t, host, protocol.TypeStartGame, protocol.StartGamePayload{RoomCode: "ABC123"})

	for _, ws := range []*websocket.Conn{host, guest} {
		env := readUntil(t, ws, protocol.TypeGameStateChanged)
		var p protocol.GameStateChangedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			t.Fatalf("game_state_changed payload: %v", err)
		}
		if p.NewState != "playing" {
			t.Errorf("newState = %q, want playing", p.NewState)
		}
	}
	select {
	case <-game.started:
	case <-time.After(2 * time.Second):
		t.Fatal("start_game never reached the game service")
	}
}

func TestSubmitAnswerRoutesToGame(t *testing.T) {
	srv, game := startGateway(t)
	ws := dial(t, srv)
	joined := join(t, ws, "ABC123", "Ann")

	sendFrame(t, ws, protocol.TypeSubmitAnswer, protocol.SubmitAnswerPayload{Artist: "Queen", Title: "Under Pressure"})
	select {
	case playerID := <-game.processed:
		if playerID != joined.PlayerID {
			t.Errorf("answer attributed to %q, want %q", playerID, joined.PlayerID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("submit_answer never reached the game service")
	}
}
