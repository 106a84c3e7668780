// Package game runs the authoritative round lifecycle: drawing songs,
// timing rounds and reveals, grading guesses, and settling scores.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/tcregan1/TempoTrivia/internal/match/room"
	"github.com/tcregan1/TempoTrivia/internal/protocol"
	"github.com/tcregan1/TempoTrivia/internal/songs"
)

const (
	// RoundDuration is how long players may guess before the answer is
	// revealed.
	RoundDuration = 30 * time.Second
	// RevealDelay is how long the revealed answer stays on screen
	// before the leaderboard.
	RevealDelay = 5 * time.Second
)

// SongStore supplies playlists and random song draws.
type SongStore interface {
	ListPlaylists(ctx context.Context) ([]songs.Playlist, error)
	RandomSongExcluding(ctx context.Context, playlist string, exclude []int64) (songs.Song, error)
}

// PreviewResolver fetches a playable preview URL for a track when the
// catalog row does not carry one.
type PreviewResolver interface {
	PreviewURL(ctx context.Context, trackID int64) (string, error)
}

// Service owns round progression for all rooms.
type Service struct {
	rooms    *room.Manager
	store    SongStore
	previews PreviewResolver
	clock    clockwork.Clock
}

// NewService wires the round engine. previews may be nil when the
// catalog always carries preview URLs.
func NewService(rooms *room.Manager, store SongStore, previews PreviewResolver, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{rooms: rooms, store: store, previews: previews, clock: clock}
}

// ListModes returns the playlists offered as game modes, shaped for the
// game_modes message.
func (s *Service) ListModes(ctx context.Context) (protocol.GameModesPayload, error) {
	playlists, err := s.store.ListPlaylists(ctx)
	if err != nil {
		return protocol.GameModesPayload{}, fmt.Errorf("list playlists: %w", err)
	}
	var out protocol.GameModesPayload
	for _, p := range playlists {
		out.Name = append(out.Name, p.Name)
		out.Description = append(out.Description, p.Description)
	}
	return out, nil
}

// StartRound draws the next song, announces it, and arms the round
// timer. It ends the game instead when all rounds have been played or the song
// pool is exhausted.
func (s *Service) StartRound(ctx context.Context, code string) error {
	var (
		mode     string
		exclude  []int64
		roundNum int
		hostOnly bool
		hostID   string
	)
	err := s.rooms.WithRoom(code, func(r *room.Room) error {
		if r.RoundNumber >= r.TotalRounds {
			return errAllRoundsPlayed
		}
		mode = r.SelectedMode
		exclude = append([]int64(nil), r.PlayedSongIDs...)
		roundNum = r.RoundNumber + 1
		hostOnly = r.HostOnlyAudio
		hostID = r.HostID
		return nil
	})
	if errors.Is(err, errAllRoundsPlayed) {
		return s.endGame(code)
	}
	if err != nil {
		return err
	}

	song, err := s.store.RandomSongExcluding(ctx, mode, exclude)
	if errors.Is(err, songs.ErrNoSongs) {
		log.Info().Str("room", code).Str("mode", mode).Msg("song pool exhausted")
		s.rooms.Broadcast(code, protocol.TypeNoMoreSongs, struct{}{})
		return s.endGame(code)
	}
	if err != nil {
		return fmt.Errorf("draw song: %w", err)
	}
	if song.PreviewURL == "" && s.previews != nil {
		url, err := s.previews.PreviewURL(ctx, song.DeezerTrackID)
		if err != nil {
			return fmt.Errorf("resolve preview for track %d: %w", song.DeezerTrackID, err)
		}
		song.PreviewURL = url
	}

	err = s.rooms.WithRoom(code, func(r *room.Room) error {
		r.State = room.StatePlaying
		r.RoundNumber = roundNum
		r.CurrentSong = &song
		r.PlayedSongIDs = append(r.PlayedSongIDs, song.ID)
		r.RoundStartedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("room", code).
		Int("round", roundNum).
		Int64("song_id", song.ID).
		Bool("host_only_audio", hostOnly).
		Msg("round started")

	full := protocol.RoundStartedPayload{
		SongData: protocol.SongData{URL: song.PreviewURL, Title: song.Title, Artist: song.Artist},
		Duration: int(RoundDuration / time.Second),
	}
	if hostOnly {
		// Only the host's device plays audio; everyone else gets the
		// round envelope without a stream URL.
		muted := full
		muted.SongData.URL = ""
		if err := s.rooms.Broadcast(code, protocol.TypeRoundStarted, muted, hostID); err != nil {
			return err
		}
		hosted := full
		hosted.IsHost = true
		if err := s.rooms.SendToPlayer(code, hostID, protocol.TypeRoundStarted, hosted); err != nil {
			return err
		}
	} else {
		if err := s.rooms.Broadcast(code, protocol.TypeRoundStarted, full); err != nil {
			return err
		}
	}

	go s.runRoundTimer(code, roundNum)
	return nil
}

var errAllRoundsPlayed = errors.New("all rounds played")

// runRoundTimer reveals the answer when the guessing window closes and
// settles the round after the reveal delay. A newer round in the same
// room supersedes it.
func (s *Service) runRoundTimer(code string, roundNum int) {
	<-s.clock.After(RoundDuration)
	if !s.roundStillCurrent(code, roundNum) {
		return
	}
	s.revealAnswer(code)

	<-s.clock.After(RevealDelay)
	if !s.roundStillCurrent(code, roundNum) {
		return
	}
	s.endRound(code, roundNum)
}

func (s *Service) roundStillCurrent(code string, roundNum int) bool {
	current := false
	s.rooms.WithRoom(code, func(r *room.Room) error {
		current = r.RoundNumber == roundNum && r.State == room.StatePlaying
		return nil
	})
	return current
}

func (s *Service) revealAnswer(code string) {
	var payload protocol.AnswerRevealPayload
	err := s.rooms.WithRoom(code, func(r *room.Room) error {
		if r.CurrentSong == nil {
			return errors.New("no current song")
		}
		payload = protocol.AnswerRevealPayload{
			Title:          r.CurrentSong.Title,
			Artist:         r.CurrentSong.Artist,
			ArtistImageURL: r.CurrentSong.ArtistImageURL,
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("room", code).Msg("skipping answer reveal")
		return
	}
	s.rooms.Broadcast(code, protocol.TypeAnswerReveal, payload)
}

func (s *Service) endRound(code string, roundNum int) {
	var total int
	err := s.rooms.WithRoom(code, func(r *room.Room) error {
		r.State = room.StateLeaderboard
		r.CurrentSong = nil
		total = r.TotalRounds
		return nil
	})
	if err != nil {
		return
	}

	s.rooms.Broadcast(code, protocol.TypeRoundEnded, protocol.RoundEndedPayload{
		Leaderboard:  s.rooms.Leaderboard(code),
		CurrentRound: roundNum,
		TotalRounds:  total,
	})

	if roundNum >= total {
		s.endGame(code)
	}
}

func (s *Service) endGame(code string) error {
	err := s.rooms.WithRoom(code, func(r *room.Room) error {
		r.State = room.StateEnded
		r.CurrentSong = nil
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("room", code).Msg("game ended")
	return s.rooms.Broadcast(code, protocol.TypeGameEnded, protocol.GameEndedPayload{
		FinalLeaderboard: s.rooms.Leaderboard(code),
	})
}

// ProcessAnswer grades one player's guess against the active round and
// reports the verdict back to them alone.
func (s *Service) ProcessAnswer(ctx context.Context, code, playerID, artist, title string) error {
	var (
		song    songs.Song
		elapsed time.Duration
	)
	err := s.rooms.WithRoom(code, func(r *room.Room) error {
		if r.State != room.StatePlaying || r.CurrentSong == nil {
			return errNoActiveRound
		}
		song = *r.CurrentSong
		elapsed = s.clock.Now().Sub(r.RoundStartedAt)
		return nil
	})
	if errors.Is(err, errNoActiveRound) {
		return s.rooms.SendToPlayer(code, playerID, protocol.TypeError, protocol.ErrorPayload{
			Code:    protocol.ErrCodeNoActiveRound,
			Message: "no round is currently active",
		})
	}
	if err != nil {
		return err
	}

	artistOK := matches(artist, song.Artist)
	titleOK := matches(title, song.Title)
	awarded := score(artistOK, titleOK, elapsed.Seconds())
	if awarded > 0 {
		s.rooms.AddScore(code, playerID, awarded)
	}

	log.Debug().
		Str("room", code).
		Str("player_id", playerID).
		Bool("artist_correct", artistOK).
		Bool("title_correct", titleOK).
		Int("score", awarded).
		Msg("answer graded")

	return s.rooms.SendToPlayer(code, playerID, protocol.TypeAnswerReceived, protocol.AnswerReceivedPayload{
		Artist: artist,
		Title:  title,
		Result: protocol.AnswerCheck{
			ArtistCorrect: artistOK,
			TitleCorrect:  titleOK,
			BothCorrect:   artistOK && titleOK,
		},
		ScoreAwarded: awarded,
	})
}

var errNoActiveRound = errors.New("no active round")
