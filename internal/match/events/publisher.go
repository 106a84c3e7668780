// Package events mirrors every frame broadcast to a room onto a NATS
// JetStream feed, so spectator views and analytics can follow matches
// without holding a player connection.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Config holds the JetStream feed settings.
type Config struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
	PublishWait   time.Duration
}

// DefaultConfig returns feed defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		StreamName:    "MATCH_EVENTS",
		SubjectPrefix: "match.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		MaxAge:        24 * time.Hour,
		PublishWait:   5 * time.Second,
	}
}

// Publisher relays broadcast frames to JetStream, one subject per room.
type Publisher struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	cfg Config
}

// NewPublisher connects to NATS and ensures the match event stream
// exists.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &Publisher{nc: nc, js: js, cfg: cfg}
	if err := p.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.cfg.StreamName,
		Description: "Per-room trivia match event feed",
		Subjects:    []string{fmt.Sprintf("%s.>", p.cfg.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.cfg.MaxAge,
		Storage:     jetstream.FileStorage,
	}

	if _, err := p.js.Stream(ctx, p.cfg.StreamName); err != nil {
		if _, err := p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", p.cfg.StreamName).Msg("created JetStream stream")
	}
	return nil
}

// Publish relays one broadcast frame. It never blocks the caller's
// broadcast path; delivery failures are logged and dropped.
func (p *Publisher) Publish(roomCode string, frame []byte) {
	subject := fmt.Sprintf("%s.%s", p.cfg.SubjectPrefix, roomCode)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.PublishWait)
		defer cancel()
		if _, err := p.js.Publish(ctx, subject, frame); err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("dropping match event")
		}
	}()
}

// Close tears down the NATS connection.
func (p *Publisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
