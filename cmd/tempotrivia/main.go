package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tcregan1/TempoTrivia/internal/client"
	"github.com/tcregan1/TempoTrivia/internal/session"
)

func main() {
	serverURL := flag.String("server", getEnv("TEMPOTRIVIA_SERVER", "ws://localhost:8080/ws"), "match server WebSocket URL")
	roomCode := flag.String("room", "", "6-character room code")
	nickname := flag.String("nick", "", "player nickname")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *roomCode == "" || *nickname == "" {
		fmt.Fprintln(os.Stderr, "usage: tempotrivia -room CODE -nick NAME [-server URL]")
		os.Exit(2)
	}

	cfg := client.DefaultConfig(*serverURL, *roomCode, *nickname)
	cfg.OnState = renderState
	engine := client.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	go readCommands(engine, cancel)

	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("session ended with error")
	}
}

// readCommands turns stdin lines into engine intents.
//
//	mode <name>        select a game mode (host)
//	start              start the match (host)
//	answer <artist> / <title>
//	next               advance past the leaderboard (host)
//	audio on|off       toggle host-only audio (host)
//	quit
func readCommands(engine *client.Engine, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
		case "mode":
			engine.SelectMode(strings.TrimSpace(rest))
		case "start":
			engine.StartMatch()
		case "answer":
			artist, title, ok := strings.Cut(rest, "/")
			if !ok {
				fmt.Println("usage: answer <artist> / <title>")
				continue
			}
			engine.SubmitAnswer(strings.TrimSpace(artist), strings.TrimSpace(title))
		case "next":
			engine.NextRound()
		case "audio":
			switch strings.TrimSpace(rest) {
			case "on":
				engine.SetAudioMode(true)
			case "off":
				engine.SetAudioMode(false)
			default:
				fmt.Println("usage: audio on|off")
			}
		case "quit", "exit":
			cancel()
			return
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
	cancel()
}

// renderState prints a one-line summary after every state change.
func renderState(st session.State) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", st.Phase)
	if st.RoomCode != "" {
		fmt.Fprintf(&b, " room=%s", st.RoomCode)
	}
	if st.IsHost() {
		b.WriteString(" (host)")
	}

	switch st.Phase {
	case session.PhaseLobby:
		fmt.Fprintf(&b, " players=%d", len(st.Players))
		if st.SelectedMode != "" {
			fmt.Fprintf(&b, " mode=%s", st.SelectedMode)
		}
	case session.PhasePlaying:
		if st.Round != nil {
			fmt.Fprintf(&b, " time=%ds", st.Round.TimeRemaining.Seconds())
		}
		b.WriteString(" " + describeFeedback(st))
	case session.PhaseRevealPending:
		if st.Reveal != nil {
			fmt.Fprintf(&b, " answer=%q by %s (%ds)",
				st.Reveal.Title, st.Reveal.Artist, st.Reveal.Remaining.Seconds())
		}
	case session.PhaseLeaderboard:
		fmt.Fprintf(&b, " round %d/%d", st.CurrentRound, st.TotalRounds)
		for i, e := range st.Leaderboard {
			fmt.Fprintf(&b, " %d.%s:%d", i+1, e.Name, e.Score)
		}
	case session.PhaseEnded:
		b.WriteString(" final:")
		for i, e := range st.Leaderboard {
			fmt.Fprintf(&b, " %d.%s:%d", i+1, e.Name, e.Score)
		}
	}
	if st.Closed {
		b.WriteString(" [disconnected]")
	}
	fmt.Println(b.String())
}

func describeFeedback(st session.State) string {
	fb := session.ProjectFeedback(st)
	switch fb.Outcome {
	case session.OutcomeNotSubmitted:
		return "guess: (none)"
	case session.OutcomeWaiting:
		return fmt.Sprintf("guess: %s / %s (grading...)", fb.ArtistGuess, fb.TitleGuess)
	case session.OutcomeBothCorrect:
		return fmt.Sprintf("both correct! +%d", fb.Score)
	case session.OutcomeArtistOnly:
		return fmt.Sprintf("artist correct +%d", fb.Score)
	case session.OutcomeTitleOnly:
		return fmt.Sprintf("title correct +%d", fb.Score)
	default:
		return "incorrect"
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
