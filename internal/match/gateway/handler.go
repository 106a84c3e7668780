// Package gateway terminates player WebSocket connections and routes
// their commands to the room registry and the game service.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tcregan1/TempoTrivia/internal/match/room"
	"github.com/tcregan1/TempoTrivia/internal/protocol"
)

// GameService is the slice of the game engine the gateway drives.
type GameService interface {
	ListModes(ctx context.Context) (protocol.GameModesPayload, error)
	StartRound(ctx context.Context, code string) error
	ProcessAnswer(ctx context.Context, code, playerID, artist, title string) error
}

// Config holds gateway tuning.
type Config struct {
	Conn room.ConnConfig
	// CheckOrigin overrides the upgrader's origin policy; nil accepts
	// the default same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns gateway defaults.
func DefaultConfig() Config {
	return Config{Conn: room.DefaultConnConfig()}
}

// Handler owns the /ws endpoint.
type Handler struct {
	rooms    *room.Manager
	game     GameService
	cfg      Config
	upgrader websocket.Upgrader
}

// NewHandler wires the gateway.
func NewHandler(rooms *room.Manager, game GameService, cfg Config) *Handler {
	return &Handler{
		rooms: rooms,
		game:  game,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// RegisterRoutes attaches the gateway's endpoints to a mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// HandleWS upgrades the connection and runs its read loop. The first
// frame must be a valid join; everything after is a room command.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := room.NewConn(ws, h.cfg.Conn)

	join, err := h.awaitJoin(conn)
	if err != nil {
		log.Debug().Err(err).Msg("join rejected")
		h.rejectJoin(ws, err.Error())
		ws.Close()
		return
	}

	playerID := newPlayerID()
	roomCode := room.Normalize(join.RoomCode)
	hostID := h.rooms.AddPlayer(roomCode, playerID, strings.TrimSpace(join.Nickname), conn)
	go conn.WritePump()

	modes, err := h.game.ListModes(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list game modes")
	} else {
		h.sendTo(conn, protocol.TypeGameModes, modes)
	}
	h.sendTo(conn, protocol.TypeJoined, protocol.JoinedPayload{
		PlayerID: playerID,
		HostID:   hostID,
		RoomCode: roomCode,
		Nickname: strings.TrimSpace(join.Nickname),
	})
	h.rooms.Broadcast(roomCode, protocol.TypeRoomState, h.rooms.RoomStatePayload(roomCode))

	h.readLoop(conn, roomCode, playerID)

	if dep, ok := h.rooms.RemoveConn(conn); ok && !dep.RoomEmpty {
		h.rooms.Broadcast(roomCode, protocol.TypeRoomState, h.rooms.RoomStatePayload(roomCode))
	}
}

func (h *Handler) readLoop(conn *room.Conn, roomCode, playerID string) {
	ctx := context.Background()
	for {
		data, err := conn.ReadFrame()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("player_id", playerID).Msg("connection dropped")
			}
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			log.Debug().Err(err).Str("player_id", playerID).Msg("dropping malformed frame")
			continue
		}
		h.dispatch(ctx, env, roomCode, playerID)
	}
}

func (h *Handler) dispatch(ctx context.Context, env protocol.Envelope, roomCode, playerID string) {
	switch env.Type {
	case protocol.TypeSelectGameMode:
		var p protocol.SelectGameModePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if !h.requireHost(roomCode, playerID, "only the host can select the game mode") {
			return
		}
		h.rooms.WithRoom(roomCode, func(r *room.Room) error {
			r.SelectedMode = p.Mode
			return nil
		})
		h.rooms.Broadcast(roomCode, protocol.TypeModeSelected, protocol.ModeSelectedPayload{SelectedMode: p.Mode})
		h.rooms.Broadcast(roomCode, protocol.TypeRoomState, h.rooms.RoomStatePayload(roomCode))

	case protocol.TypeStartGame:
		if !h.requireHost(roomCode, playerID, "only the host can start the game") {
			return
		}
		// Announced ahead of round_started so clients flip to playing
		// before the first song arrives.
		h.rooms.Broadcast(roomCode, protocol.TypeGameStateChanged, protocol.GameStateChangedPayload{
			NewState: room.StatePlaying,
		})
		if err := h.game.StartRound(ctx, roomCode); err != nil {
			log.Error().Err(err).Str("room", roomCode).Msg("failed to start round")
		}

	case protocol.TypeNextRound:
		if !h.requireHost(roomCode, playerID, "only the host can start rounds") {
			return
		}
		if err := h.game.StartRound(ctx, roomCode); err != nil {
			log.Error().Err(err).Str("room", roomCode).Msg("failed to start round")
		}

	case protocol.TypeSubmitAnswer:
		var p protocol.SubmitAnswerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if err := h.game.ProcessAnswer(ctx, roomCode, playerID, p.Artist, p.Title); err != nil {
			log.Error().Err(err).Str("room", roomCode).Msg("failed to grade answer")
		}

	case protocol.TypeSetAudioMode:
		var p protocol.SetAudioModePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if !h.requireHost(roomCode, playerID, "only the host can change audio routing") {
			return
		}
		h.rooms.WithRoom(roomCode, func(r *room.Room) error {
			r.HostOnlyAudio = p.HostOnly
			return nil
		})
		h.rooms.Broadcast(roomCode, protocol.TypeAudioModeSet, protocol.AudioModeSetPayload{HostOnlyAudio: p.HostOnly})

	default:
		log.Debug().Str("type", env.Type).Msg("skipping unknown command")
	}
}

func (h *Handler) requireHost(roomCode, playerID, msg string) bool {
	if h.rooms.HostID(roomCode) == playerID {
		return true
	}
	h.rooms.SendToPlayer(roomCode, playerID, protocol.TypeError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeNotHost,
		Message: msg,
	})
	return false
}

// awaitJoin reads and validates the mandatory first frame.
func (h *Handler) awaitJoin(conn *room.Conn) (protocol.JoinPayload, error) {
	data, err := conn.ReadFrame()
	if err != nil {
		return protocol.JoinPayload{}, err
	}
	env, err := protocol.Decode(data)
	if err != nil {
		return protocol.JoinPayload{}, err
	}
	if env.Type != protocol.TypeJoin {
		return protocol.JoinPayload{}, errFirstFrameNotJoin
	}
	var join protocol.JoinPayload
	if err := json.Unmarshal(env.Payload, &join); err != nil {
		return protocol.JoinPayload{}, err
	}
	if err := validateJoin(join); err != nil {
		return protocol.JoinPayload{}, err
	}
	return join, nil
}

// rejectJoin writes the error envelope directly; the connection never
// gets a write pump.
func (h *Handler) rejectJoin(ws *websocket.Conn, msg string) {
	frame, err := protocol.Encode(protocol.TypeError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeInvalidJoin,
		Message: msg,
	})
	if err != nil {
		return
	}
	ws.WriteMessage(websocket.TextMessage, frame)
}

func (h *Handler) sendTo(conn *room.Conn, msgType string, payload any) {
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to encode frame")
		return
	}
	conn.Enqueue(frame)
}

func newPlayerID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
