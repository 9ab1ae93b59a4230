package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"scrim-tracker/internal/constants"
	"scrim-tracker/internal/domain"
	"scrim-tracker/internal/replay"
	"scrim-tracker/internal/repository"
	"scrim-tracker/internal/state"
)

type GameService struct {
	games     GameStore
	replays   ReplayStore
	players   PlayerStore
	matches   MatchStore
	matchSvc  *MatchService
	cache     EntityCache
	replayDir string
	logger    zerolog.Logger
}

func NewGameService(games GameStore, replays ReplayStore, players PlayerStore, matches MatchStore, matchSvc *MatchService, cache EntityCache, replayDir string, logger zerolog.Logger) *GameService {
	return &GameService{
		games:     games,
		replays:   replays,
		players:   players,
		matches:   matches,
		matchSvc:  matchSvc,
		cache:     cache,
		replayDir: replayDir,
		logger:    logger,
	}
}

// SubmitDeck records a roster player's deck code for this game. Submitting
// again before confirmation replaces the code and resets the confirmation.
func (s *GameService) SubmitDeck(ctx context.Context, gameID, playerID uuid.UUID, deckCode string, actor state.Actor) (*domain.Game, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state.GameStatus(g) != domain.GameCreated {
		return nil, ErrIllegalTransition
	}
	if !onRoster(g, playerID) {
		return nil, ErrUnknownPlayer
	}

	now := time.Now().UTC()
	snap := state.AppendGameSnapshot(g, actor, func(snap *domain.GameStateSnapshot) {
		ensureDeckMaps(snap)
		snap.PlayerDeckCodes[playerID] = deckCode
		snap.PlayerDeckSubmittedAt[playerID] = now
		snap.PlayerDeckConfirmed[playerID] = false
		delete(snap.PlayerDeckConfirmedAt, playerID)
	})
	if err := s.persistGameSnapshot(ctx, g, snap); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("game_id", gameID.String()).
		Str("player_id", playerID.String()).
		Msg("deck submitted")
	return g, nil
}

func (s *GameService) ConfirmDeck(ctx context.Context, gameID, playerID uuid.UUID, actor state.Actor) (*domain.Game, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state.GameStatus(g) != domain.GameCreated {
		return nil, ErrIllegalTransition
	}
	if !onRoster(g, playerID) {
		return nil, ErrUnknownPlayer
	}
	cur := state.CurrentGameSnapshot(g)
	if cur == nil || cur.PlayerDeckCodes[playerID] == "" {
		return nil, ErrDeckNotSubmitted
	}

	now := time.Now().UTC()
	snap := state.AppendGameSnapshot(g, actor, func(snap *domain.GameStateSnapshot) {
		ensureDeckMaps(snap)
		snap.PlayerDeckConfirmed[playerID] = true
		snap.PlayerDeckConfirmedAt[playerID] = now
	})
	if err := s.persistGameSnapshot(ctx, g, snap); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("game_id", gameID.String()).
		Str("player_id", playerID.String()).
		Bool("ready", state.GameReadyToStart(g)).
		Msg("deck confirmed")
	return g, nil
}

func (s *GameService) StartGame(ctx context.Context, gameID uuid.UUID, actor state.Actor) (*domain.Game, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !state.CanTransitionGame(g, domain.GameInProgress) {
		return nil, ErrIllegalTransition
	}
	if !state.GameReadyToStart(g) {
		return nil, ErrGameNotReady
	}
	if !state.TryTransitionGame(g, domain.GameInProgress, actor, "") {
		return nil, ErrIllegalTransition
	}
	if err := s.persistGameSnapshot(ctx, g, state.CurrentGameSnapshot(g)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("game_id", gameID.String()).Msg("game started")
	return g, nil
}

// CreateNextGame opens the next game of an in-progress match on the given
// map. The previous game must have reached a terminal state.
func (s *GameService) CreateNextGame(ctx context.Context, matchID, mapID uuid.UUID, actor state.Actor) (*domain.Game, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if state.MatchStatus(m) != domain.MatchInProgress {
		return nil, ErrIllegalTransition
	}

	games, err := s.games.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	if len(games) >= m.BestOf {
		return nil, ErrIllegalTransition
	}
	if len(games) > 0 {
		last := &games[len(games)-1]
		switch state.GameStatus(last) {
		case domain.GameCompleted, domain.GameCancelled, domain.GameForfeited:
		default:
			return nil, ErrIllegalTransition
		}
	}

	gameNumber := len(games) + 1
	g := state.NewGame(m, mapID, gameNumber, actor)
	res := repository.DualWrite(
		func() error { return s.games.Create(ctx, g) },
		func() error { return s.cache.Set(ctx, "game", g.ID.String(), g, constants.GameCacheTTL) },
	)
	if err := res.Primary(); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	if res.CacheErr != nil {
		s.logger.Warn().Err(res.CacheErr).Str("game_id", g.ID.String()).Msg("cache write failed")
	}

	snap := state.AppendMatchSnapshot(m, actor, func(snap *domain.MatchStateSnapshot) {
		snap.CurrentGameNumber = gameNumber
		id := mapID
		snap.CurrentMapID = &id
	})
	if err := s.matches.AppendSnapshot(ctx, snap, m.UpdatedAt); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to record current game on match")
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("game_id", g.ID.String()).
		Int("game_number", gameNumber).
		Msg("next game created")
	return g, nil
}

// UploadReplay parses an uploaded .rpl3 file, stores it on disk under a
// generated name and records it against the game. Once every roster player is
// covered by at least one replay, the game's winner is determined from the
// replays and the game completes, which may in turn complete the match.
func (s *GameService) UploadReplay(ctx context.Context, gameID uuid.UUID, originalFilename string, data []byte, actor state.Actor) (*domain.Replay, error) {
	if int64(len(data)) > constants.MaxReplayUploadBytes {
		return nil, ErrReplayTooLarge
	}

	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state.GameStatus(g) != domain.GameInProgress {
		return nil, ErrIllegalTransition
	}

	rep, err := replay.Parse(data, originalFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to parse replay: %w", err)
	}
	rep.GameID = g.ID
	rep.MatchID = g.MatchID

	fileID, err := gonanoid.New(constants.ReplayFileIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate replay file id: %w", err)
	}
	if err := os.MkdirAll(s.replayDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create replay directory: %w", err)
	}
	rep.FilePath = filepath.Join(s.replayDir, fileID+".rpl3")
	if err := os.WriteFile(rep.FilePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store replay file: %w", err)
	}

	res := repository.DualWrite(
		func() error { return s.replays.Create(ctx, rep) },
		func() error { return s.cache.Set(ctx, "replay", rep.ID.String(), rep, constants.ReplayCacheTTL) },
	)
	if err := res.Primary(); err != nil {
		return nil, fmt.Errorf("failed to persist replay: %w", err)
	}
	if res.CacheErr != nil {
		s.logger.Warn().Err(res.CacheErr).Str("replay_id", rep.ID.String()).Msg("cache write failed")
	}

	s.logger.Info().
		Str("game_id", gameID.String()).
		Str("replay_id", rep.ID.String()).
		Str("victory_code", rep.VictoryCode).
		Int("player_count", len(rep.Players)).
		Msg("replay uploaded")

	if err := s.tryCompleteGame(ctx, g, actor); err != nil {
		return nil, err
	}
	return rep, nil
}

// tryCompleteGame completes the game when every roster player has a replay
// and the replays agree on a winner. An exact victory tie is surfaced to the
// caller; an incomplete replay set is not an error, the game keeps waiting.
func (s *GameService) tryCompleteGame(ctx context.Context, g *domain.Game, actor state.Actor) error {
	var (
		replays []domain.Replay
		players []domain.Player
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		replays, err = s.replays.ListByGame(egCtx, g.ID)
		return err
	})
	eg.Go(func() error {
		roster := append(append([]uuid.UUID(nil), g.Team1PlayerIDs...), g.Team2PlayerIDs...)
		var err error
		players, err = s.players.GetMany(egCtx, roster)
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to load replay context: %w", err)
	}

	if !AreAllReplaysSubmitted(g, replays, players) {
		return nil
	}

	m, err := s.matches.Get(ctx, g.MatchID)
	if err != nil {
		return err
	}

	winnerNumber, err := DetermineWinner(g, replays, players)
	if err != nil {
		return err
	}
	winnerID := m.Team1ID
	if winnerNumber == 2 {
		winnerID = m.Team2ID
	}

	if !state.TryTransitionGame(g, domain.GameCompleted, actor, "", state.WithGameWinner(winnerID)) {
		return ErrIllegalTransition
	}
	if err := s.persistGameSnapshot(ctx, g, state.CurrentGameSnapshot(g)); err != nil {
		return err
	}

	s.logger.Info().
		Str("game_id", g.ID.String()).
		Str("winner_id", winnerID.String()).
		Msg("game completed from replays")

	return s.matchSvc.HandleGameCompleted(ctx, g.MatchID, actor)
}

func (s *GameService) GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	return s.games.Get(ctx, id)
}

func (s *GameService) persistGameSnapshot(ctx context.Context, g *domain.Game, snap *domain.GameStateSnapshot) error {
	res := repository.DualWrite(
		func() error { return s.games.AppendSnapshot(ctx, snap, g.UpdatedAt) },
		func() error { return s.cache.Set(ctx, "game", g.ID.String(), g, constants.GameCacheTTL) },
	)
	if err := res.Primary(); err != nil {
		s.logger.Error().Err(err).Str("game_id", g.ID.String()).Msg("failed to persist game snapshot")
		return fmt.Errorf("failed to persist game snapshot: %w", err)
	}
	if res.CacheErr != nil {
		s.logger.Warn().Err(res.CacheErr).Str("game_id", g.ID.String()).Msg("cache write failed")
	}
	return nil
}

func onRoster(g *domain.Game, playerID uuid.UUID) bool {
	for _, ids := range [][]uuid.UUID{g.Team1PlayerIDs, g.Team2PlayerIDs} {
		for _, id := range ids {
			if id == playerID {
				return true
			}
		}
	}
	return false
}

func ensureDeckMaps(snap *domain.GameStateSnapshot) {
	if snap.PlayerDeckCodes == nil {
		snap.PlayerDeckCodes = make(map[uuid.UUID]string)
	}
	if snap.PlayerDeckSubmittedAt == nil {
		snap.PlayerDeckSubmittedAt = make(map[uuid.UUID]time.Time)
	}
	if snap.PlayerDeckConfirmed == nil {
		snap.PlayerDeckConfirmed = make(map[uuid.UUID]bool)
	}
	if snap.PlayerDeckConfirmedAt == nil {
		snap.PlayerDeckConfirmedAt = make(map[uuid.UUID]time.Time)
	}
}
