// Package client runs the session engine for one trivia match: it owns
// the WebSocket to the match server, a one-second tick source, and the
// session store, serializing all three onto a single event loop. The
// presentation layer sees only immutable state snapshots and feeds
// intents back through the engine's methods.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/tcregan1/TempoTrivia/internal/protocol"
	"github.com/tcregan1/TempoTrivia/internal/session"
)

// Config holds engine configuration for one match session.
type Config struct {
	// ServerURL is the WebSocket endpoint, e.g. ws://localhost:8080/ws.
	ServerURL string
	RoomCode  string
	Nickname  string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// OnState receives an immutable snapshot after every applied
	// event. Called from the engine loop; keep it fast.
	OnState func(session.State)
}

// DefaultConfig returns engine defaults for the given connection
// parameters.
func DefaultConfig(serverURL, roomCode, nickname string) Config {
	return Config{
		ServerURL:        serverURL,
		RoomCode:         strings.ToUpper(strings.TrimSpace(roomCode)),
		Nickname:         strings.TrimSpace(nickname),
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Engine drives one match session. One instance manages exactly one
// match; after the channel closes the instance is spent.
type Engine struct {
	cfg   Config
	clock clockwork.Clock

	conn    *websocket.Conn
	intents chan intent
	done    chan struct{}

	state session.State
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithClock substitutes the tick source; tests pass a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// New creates an engine; Run establishes the connection.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		intents: make(chan intent, 16),
		done:    make(chan struct{}),
		state:   session.NewState(cfg.RoomCode),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type intent interface{ isIntent() }

type selectModeIntent struct{ mode string }
type startMatchIntent struct{}
type submitAnswerIntent struct{ artist, title string }
type nextRoundIntent struct{}
type setAudioModeIntent struct{ hostOnly bool }

func (selectModeIntent) isIntent()   {}
func (startMatchIntent) isIntent()   {}
func (submitAnswerIntent) isIntent() {}
func (nextRoundIntent) isIntent()    {}
func (setAudioModeIntent) isIntent() {}

// SelectMode asks the server to select a game mode (host only).
func (e *Engine) SelectMode(mode string) { e.post(selectModeIntent{mode: mode}) }

// StartMatch asks the server to start the match (host only).
func (e *Engine) StartMatch() { e.post(startMatchIntent{}) }

// SubmitAnswer submits a guess for the active round.
func (e *Engine) SubmitAnswer(artist, title string) {
	e.post(submitAnswerIntent{artist: artist, title: title})
}

// NextRound asks the server to advance past the leaderboard (host only).
func (e *Engine) NextRound() { e.post(nextRoundIntent{}) }

// SetAudioMode toggles host-only audio routing (host only).
func (e *Engine) SetAudioMode(hostOnly bool) { e.post(setAudioModeIntent{hostOnly: hostOnly}) }

func (e *Engine) post(in intent) {
	select {
	case e.intents <- in:
	case <-e.done:
		// Engine is gone; the intent dies quietly, like any other
		// refused local command.
	}
}

// Run dials the server, joins the room, and processes events until the
// context is canceled or the channel closes. It always leaves the
// store frozen in its final state.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	dialer := websocket.Dialer{HandshakeTimeout: e.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, e.cfg.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", e.cfg.ServerURL, err)
	}
	e.conn = conn
	defer conn.Close()

	if err := e.send(protocol.TypeJoin, protocol.JoinPayload{
		RoomCode: e.cfg.RoomCode,
		Nickname: e.cfg.Nickname,
	}); err != nil {
		return err
	}

	log.Info().
		Str("room", e.cfg.RoomCode).
		Str("nickname", e.cfg.Nickname).
		Msg("joined match channel")

	frames := make(chan []byte, 16)
	go e.readPump(frames)

	e.publish()

	var ticker clockwork.Ticker
	var tickCh <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		// The tick source runs only while a phase that owns a
		// countdown is active.
		if e.wantsTicks() && ticker == nil {
			ticker = e.clock.NewTicker(time.Second)
			tickCh = ticker.Chan()
		} else if !e.wantsTicks() && ticker != nil {
			ticker.Stop()
			ticker = nil
			tickCh = nil
		}

		select {
		case <-ctx.Done():
			e.apply(session.ChannelClosed{})
			return ctx.Err()

		case raw, ok := <-frames:
			if !ok {
				e.apply(session.ChannelClosed{})
				log.Info().Str("room", e.cfg.RoomCode).Msg("match channel closed")
				return nil
			}
			e.handleFrame(raw)

		case <-tickCh:
			e.apply(session.Tick{})

		case in := <-e.intents:
			e.handleIntent(in)
		}
	}
}

func (e *Engine) readPump(frames chan<- []byte) {
	defer close(frames)
	for {
		_, data, err := e.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("room", e.cfg.RoomCode).Msg("unexpected channel close")
			}
			return
		}
		// Run stops draining frames once it returns; exit instead of
		// blocking forever on a full buffer.
		select {
		case frames <- data:
		case <-e.done:
			return
		}
	}
}

func (e *Engine) handleFrame(raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		log.Debug().Err(err).Msg("dropping malformed frame")
		return
	}
	ev, err := session.FromEnvelope(env)
	if err != nil {
		log.Debug().Err(err).Str("type", env.Type).Msg("dropping undecodable payload")
		return
	}
	e.apply(ev)
}

func (e *Engine) handleIntent(in intent) {
	st := e.state
	switch i := in.(type) {
	case selectModeIntent:
		if !st.CanSelectMode(i.mode) {
			log.Debug().Str("mode", i.mode).Msg("select_game_mode refused locally")
			return
		}
		e.emit(protocol.TypeSelectGameMode, protocol.SelectGameModePayload{
			RoomCode: st.RoomCode,
			Mode:     i.mode,
		})

	case startMatchIntent:
		if !st.CanStartMatch() {
			log.Debug().Msg("start_game refused locally")
			return
		}
		players := make([]protocol.PlayerInfo, len(st.Players))
		for idx, p := range st.Players {
			players[idx] = protocol.PlayerInfo{
				ID:     p.ID,
				Name:   p.Name,
				Score:  p.Score,
				IsHost: p.ID == st.HostID,
			}
		}
		e.emit(protocol.TypeStartGame, protocol.StartGamePayload{
			RoomCode: st.RoomCode,
			Players:  players,
			GameMode: st.SelectedMode,
		})

	case submitAnswerIntent:
		artist := strings.TrimSpace(i.artist)
		title := strings.TrimSpace(i.title)
		if !st.CanSubmit(artist, title) {
			log.Debug().Msg("submit_answer refused locally")
			return
		}
		e.emit(protocol.TypeSubmitAnswer, protocol.SubmitAnswerPayload{
			Artist: artist,
			Title:  title,
		})
		// Optimistic: record the guess now; grading arrives whenever
		// the server gets to it.
		e.apply(session.AnswerSubmitted{Artist: artist, Title: title})

	case nextRoundIntent:
		if !st.CanAdvanceRound() {
			log.Debug().Msg("next_round refused locally")
			return
		}
		e.emit(protocol.TypeNextRound, protocol.NextRoundPayload{})

	case setAudioModeIntent:
		if !st.CanSetAudioMode() {
			log.Debug().Msg("set_audio_mode refused locally")
			return
		}
		e.emit(protocol.TypeSetAudioMode, protocol.SetAudioModePayload{HostOnly: i.hostOnly})
	}
}

func (e *Engine) emit(msgType string, payload any) {
	if err := e.send(msgType, payload); err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to send command")
	}
}

func (e *Engine) send(msgType string, payload any) error {
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}
	e.conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout))
	if err := e.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	return nil
}

func (e *Engine) apply(ev session.Event) {
	e.state = session.Reduce(e.state, ev)
	e.publish()
}

func (e *Engine) publish() {
	if e.cfg.OnState != nil {
		e.cfg.OnState(e.state)
	}
}

func (e *Engine) wantsTicks() bool {
	return e.state.Phase == session.PhasePlaying || e.state.Phase == session.PhaseRevealPending
}
