package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scrim-tracker/internal/constants"
	"scrim-tracker/internal/domain"
	"scrim-tracker/internal/rating"
	"scrim-tracker/internal/repository"
	"scrim-tracker/internal/state"
)

type MatchService struct {
	matches      MatchStore
	games        GameStore
	participants ParticipantStore
	encounters   EncounterStore
	teams        TeamStatsStore
	cache        EntityCache
	locker       *rating.TeamLocker
	logger       zerolog.Logger
}

func NewMatchService(matches MatchStore, games GameStore, participants ParticipantStore, encounters EncounterStore, teams TeamStatsStore, cache EntityCache, locker *rating.TeamLocker, logger zerolog.Logger) *MatchService {
	return &MatchService{
		matches:      matches,
		games:        games,
		participants: participants,
		encounters:   encounters,
		teams:        teams,
		cache:        cache,
		locker:       locker,
		logger:       logger,
	}
}

type CreateMatchParams struct {
	Team1ID          uuid.UUID
	Team2ID          uuid.UUID
	Team1PlayerIDs   []uuid.UUID
	Team2PlayerIDs   []uuid.UUID
	TeamSize         domain.TeamSize
	BestOf           int
	PlayToCompletion bool
	ParentID         *uuid.UUID
	ParentType       *domain.ParentType
	AvailableMaps    []string
	Actor            state.Actor
}

func (s *MatchService) CreateMatch(ctx context.Context, params CreateMatchParams) (*domain.Match, error) {
	if !params.TeamSize.Valid() {
		return nil, ErrInvalidTeamSize
	}
	if len(params.Team1PlayerIDs) != params.TeamSize.PlayersPerTeam() ||
		len(params.Team2PlayerIDs) != params.TeamSize.PlayersPerTeam() {
		return nil, fmt.Errorf("%w: rosters must have %d players", ErrInvalidTeamSize, params.TeamSize.PlayersPerTeam())
	}
	if params.BestOf == 0 {
		params.BestOf = constants.DefaultBestOf
	}
	if params.BestOf < 1 || params.BestOf > constants.MaxBestOf || params.BestOf%2 == 0 {
		return nil, ErrInvalidBestOf
	}
	if (params.ParentID == nil) != (params.ParentType == nil) {
		return nil, ErrInvalidParent
	}

	m := state.NewMatch(params.Team1ID, params.Team2ID,
		params.Team1PlayerIDs, params.Team2PlayerIDs,
		params.TeamSize, params.BestOf, params.PlayToCompletion,
		params.AvailableMaps, params.Actor)
	m.ParentID = params.ParentID
	m.ParentType = params.ParentType

	res := repository.DualWrite(
		func() error { return s.matches.Create(ctx, m) },
		func() error { return s.cacheMatch(ctx, m) },
	)
	if err := res.Primary(); err != nil {
		s.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to persist match")
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	s.warnOnCacheFailure(res, "match", m.ID)

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("team_size", m.TeamSize.String()).
		Int("best_of", m.BestOf).
		Msg("match created")
	return m, nil
}

// SubmitMapBans records one team's map bans in a new snapshot. Bans can be
// resubmitted until confirmed.
func (s *MatchService) SubmitMapBans(ctx context.Context, matchID, teamID uuid.UUID, bans []string, actor state.Actor) (*domain.Match, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := requireBanPhase(m); err != nil {
		return nil, err
	}

	teamNumber, err := teamNumberOf(m, teamID)
	if err != nil {
		return nil, err
	}

	snap := state.AppendMatchSnapshot(m, actor, func(snap *domain.MatchStateSnapshot) {
		if teamNumber == 1 {
			snap.Team1MapBans = append([]string(nil), bans...)
			snap.Team1BansSubmitted = true
			snap.Team1BansConfirmed = false
		} else {
			snap.Team2MapBans = append([]string(nil), bans...)
			snap.Team2BansSubmitted = true
			snap.Team2BansConfirmed = false
		}
	})
	if err := s.persistMatchSnapshot(ctx, m, snap); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Int("team_number", teamNumber).
		Int("ban_count", len(bans)).
		Msg("map bans submitted")
	return m, nil
}

// ConfirmMapBans locks a team's submitted bans in. When both teams have
// confirmed, the final map pool is computed from the available maps minus
// every ban.
func (s *MatchService) ConfirmMapBans(ctx context.Context, matchID, teamID uuid.UUID, actor state.Actor) (*domain.Match, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := requireBanPhase(m); err != nil {
		return nil, err
	}

	teamNumber, err := teamNumberOf(m, teamID)
	if err != nil {
		return nil, err
	}
	cur := state.CurrentMatchSnapshot(m)
	if (teamNumber == 1 && !cur.Team1BansSubmitted) || (teamNumber == 2 && !cur.Team2BansSubmitted) {
		return nil, ErrBansNotSubmitted
	}

	snap := state.AppendMatchSnapshot(m, actor, func(snap *domain.MatchStateSnapshot) {
		if teamNumber == 1 {
			snap.Team1BansConfirmed = true
		} else {
			snap.Team2BansConfirmed = true
		}
		if snap.Team1BansConfirmed && snap.Team2BansConfirmed {
			snap.FinalMapPool = finalMapPool(snap.AvailableMaps, snap.Team1MapBans, snap.Team2MapBans)
		}
	})
	if err := s.persistMatchSnapshot(ctx, m, snap); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Int("team_number", teamNumber).
		Bool("pool_finalized", len(snap.FinalMapPool) > 0).
		Msg("map bans confirmed")
	return m, nil
}

// StartMatch moves a ready match into play: participants and symmetric
// opponent encounters are recorded, the match transitions to in-progress and
// the first game is created on the given map.
func (s *MatchService) StartMatch(ctx context.Context, matchID, firstMapID uuid.UUID, actor state.Actor) (*domain.Match, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !state.CanTransitionMatch(m, domain.MatchInProgress) {
		return nil, ErrIllegalTransition
	}
	if !state.MatchReadyToStart(m) {
		return nil, ErrMatchNotReady
	}

	now := time.Now().UTC()
	participants := []domain.MatchParticipant{
		{ID: uuid.New(), MatchID: m.ID, TeamID: m.Team1ID, TeamNumber: 1, PlayerIDs: m.Team1PlayerIDs, JoinedAt: now, UpdatedAt: now},
		{ID: uuid.New(), MatchID: m.ID, TeamID: m.Team2ID, TeamNumber: 2, PlayerIDs: m.Team2PlayerIDs, JoinedAt: now, UpdatedAt: now},
	}
	if err := s.participants.CreateBatch(ctx, participants); err != nil {
		return nil, fmt.Errorf("failed to create participants: %w", err)
	}

	// Symmetric rows, one per team with the other as opponent. Both stay
	// won=false until the match resolves.
	encounters := []domain.TeamOpponentEncounter{
		{ID: uuid.New(), TeamID: m.Team1ID, OpponentID: m.Team2ID, MatchID: m.ID, TeamSize: m.TeamSize, EncounteredAt: now},
		{ID: uuid.New(), TeamID: m.Team2ID, OpponentID: m.Team1ID, MatchID: m.ID, TeamSize: m.TeamSize, EncounteredAt: now},
	}
	if err := s.encounters.CreateBatch(ctx, encounters); err != nil {
		return nil, fmt.Errorf("failed to create encounters: %w", err)
	}

	if !state.TryTransitionMatch(m, domain.MatchInProgress, actor, "", func(snap *domain.MatchStateSnapshot) {
		snap.CurrentGameNumber = 1
		mapID := firstMapID
		snap.CurrentMapID = &mapID
	}) {
		return nil, ErrIllegalTransition
	}
	if err := s.persistMatchSnapshot(ctx, m, state.CurrentMatchSnapshot(m)); err != nil {
		return nil, err
	}

	g := state.NewGame(m, firstMapID, 1, actor)
	res := repository.DualWrite(
		func() error { return s.games.Create(ctx, g) },
		func() error { return s.cache.Set(ctx, "game", g.ID.String(), g, constants.GameCacheTTL) },
	)
	if err := res.Primary(); err != nil {
		return nil, fmt.Errorf("failed to create first game: %w", err)
	}
	s.warnOnCacheFailure(res, "game", g.ID)
	m.Games = append(m.Games, *g)

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("game_id", g.ID.String()).
		Msg("match started")
	return m, nil
}

func (s *MatchService) CancelMatch(ctx context.Context, matchID uuid.UUID, reason string, actor state.Actor) (*domain.Match, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !state.TryTransitionMatch(m, domain.MatchCancelled, actor, reason) {
		return nil, ErrIllegalTransition
	}
	if err := s.persistMatchSnapshot(ctx, m, state.CurrentMatchSnapshot(m)); err != nil {
		return nil, err
	}

	s.cancelOpenGames(ctx, m, reason, actor)

	s.logger.Info().Str("match_id", matchID.String()).Str("reason", reason).Msg("match cancelled")
	return m, nil
}

// ForfeitMatch forfeits the match for one team and mirrors the forfeit onto
// every open game. The opposing team is recorded as the winner on the
// participant and encounter rows; ratings are only moved by played results.
func (s *MatchService) ForfeitMatch(ctx context.Context, matchID, forfeitingTeamID uuid.UUID, reason string, actor state.Actor) (*domain.Match, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	teamNumber, err := teamNumberOf(m, forfeitingTeamID)
	if err != nil {
		return nil, err
	}
	winnerID := m.Team1ID
	if teamNumber == 1 {
		winnerID = m.Team2ID
	}

	if !state.TryTransitionMatch(m, domain.MatchForfeited, actor, reason,
		state.WithForfeitedTeam(forfeitingTeamID), state.WithMatchWinner(winnerID)) {
		return nil, ErrIllegalTransition
	}
	matchSnap := state.CurrentMatchSnapshot(m)
	if err := s.persistMatchSnapshot(ctx, m, matchSnap); err != nil {
		return nil, err
	}

	games, err := s.games.ListByMatch(ctx, m.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to load games for forfeit mirroring")
	}
	for i := range games {
		g := &games[i]
		// Only an in-progress game can mirror the forfeit; a game that never
		// started is cancelled instead.
		if !state.ForfeitGame(g, matchSnap, actor) &&
			!state.TryTransitionGame(g, domain.GameCancelled, actor, reason) {
			continue
		}
		if err := s.games.AppendSnapshot(ctx, state.CurrentGameSnapshot(g), g.UpdatedAt); err != nil {
			s.logger.Warn().Err(err).Str("game_id", g.ID.String()).Msg("failed to close game after forfeit")
		}
	}

	if err := s.participants.SetWinner(ctx, m.ID, winnerID, time.Now().UTC()); err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to mark participants after forfeit")
	}
	if err := s.encounters.SetWonForMatch(ctx, m.ID, winnerID); err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to mark encounters after forfeit")
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("forfeited_team_id", forfeitingTeamID.String()).
		Msg("match forfeited")
	return m, nil
}

// HandleGameCompleted checks whether a freshly completed game decides the
// match and, if so, completes the match and settles ratings.
func (s *MatchService) HandleGameCompleted(ctx context.Context, matchID uuid.UUID, actor state.Actor) error {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if state.MatchStatus(m) != domain.MatchInProgress {
		return nil
	}

	games, err := s.games.ListByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to load games: %w", err)
	}

	team1Wins, team2Wins, completed := 0, 0, 0
	for i := range games {
		snap := state.CurrentGameSnapshot(&games[i])
		if snap == nil || snap.CompletedAt == nil {
			continue
		}
		completed++
		if snap.WinnerID == nil {
			continue
		}
		switch *snap.WinnerID {
		case m.Team1ID:
			team1Wins++
		case m.Team2ID:
			team2Wins++
		}
	}

	winsNeeded := m.BestOf/2 + 1
	decided := team1Wins >= winsNeeded || team2Wins >= winsNeeded
	if m.PlayToCompletion {
		decided = completed >= m.BestOf && team1Wins != team2Wins
	}
	if !decided {
		return nil
	}

	winnerID := m.Team1ID
	if team2Wins > team1Wins {
		winnerID = m.Team2ID
	}
	return s.completeMatch(ctx, m, winnerID, fmt.Sprintf("%d-%d", team1Wins, team2Wins), actor)
}

func (s *MatchService) completeMatch(ctx context.Context, m *domain.Match, winnerID uuid.UUID, finalScore string, actor state.Actor) error {
	if !state.TryTransitionMatch(m, domain.MatchCompleted, actor, "",
		state.WithMatchWinner(winnerID), state.WithFinalScore(finalScore)) {
		return ErrIllegalTransition
	}
	if err := s.persistMatchSnapshot(ctx, m, state.CurrentMatchSnapshot(m)); err != nil {
		return err
	}

	// The match result is durable from here on. Everything below is
	// statistics bookkeeping: failures are logged, never propagated.
	now := time.Now().UTC()
	if err := s.participants.SetWinner(ctx, m.ID, winnerID, now); err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to mark winning participants")
	}
	if err := s.encounters.SetWonForMatch(ctx, m.ID, winnerID); err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to mark encounter outcomes")
	}
	s.settleRatings(ctx, m, winnerID, now)

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("winner_id", winnerID.String()).
		Str("final_score", finalScore).
		Msg("match completed")
	return nil
}

// settleRatings runs the Elo update and variety recomputation for both teams
// under the per-team locks so concurrent completions sharing a team cannot
// interleave their read-modify-write cycles.
func (s *MatchService) settleRatings(ctx context.Context, m *domain.Match, winnerID uuid.UUID, now time.Time) {
	loserID := m.Team1ID
	if winnerID == m.Team1ID {
		loserID = m.Team2ID
	}

	unlock := s.locker.Lock(winnerID, loserID)
	defer unlock()

	winnerStats, err := s.teams.GetOrCreateStats(ctx, winnerID, m.TeamSize)
	if err != nil {
		s.logger.Warn().Err(err).Str("team_id", winnerID.String()).Msg("failed to load winner stats")
		return
	}
	loserStats, err := s.teams.GetOrCreateStats(ctx, loserID, m.TeamSize)
	if err != nil {
		s.logger.Warn().Err(err).Str("team_id", loserID.String()).Msg("failed to load loser stats")
		return
	}

	rating.ApplyResult(winnerStats, loserStats, now)

	if err := s.teams.UpdateStats(ctx, winnerStats); err != nil {
		s.logger.Warn().Err(err).Str("team_id", winnerID.String()).Msg("failed to persist winner stats")
	}
	if err := s.teams.UpdateStats(ctx, loserStats); err != nil {
		s.logger.Warn().Err(err).Str("team_id", loserID.String()).Msg("failed to persist loser stats")
	}

	for _, teamID := range []uuid.UUID{winnerID, loserID} {
		s.recomputeVariety(ctx, teamID, m.TeamSize, now)
	}

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Float64("winner_rating", winnerStats.CurrentRating).
		Float64("loser_rating", loserStats.CurrentRating).
		Msg("ratings settled")
}

func (s *MatchService) recomputeVariety(ctx context.Context, teamID uuid.UUID, size domain.TeamSize, now time.Time) {
	encounters, err := s.encounters.ListRecent(ctx, teamID, size, rating.EncounterWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("team_id", teamID.String()).Msg("failed to load encounters for variety")
		return
	}
	variety, err := s.teams.GetOrCreateVariety(ctx, teamID, size)
	if err != nil {
		s.logger.Warn().Err(err).Str("team_id", teamID.String()).Msg("failed to load variety stats")
		return
	}

	rating.RecomputeVariety(variety, encounters, now)

	if err := s.teams.UpdateVariety(ctx, variety); err != nil {
		s.logger.Warn().Err(err).Str("team_id", teamID.String()).Msg("failed to persist variety stats")
	}
}

func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	m, err := s.matches.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	games, err := s.games.ListByMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Games = games
	return m, nil
}

// TeamOverview bundles a team's rating record for one team size with the
// variety-adjusted effective rating.
type TeamOverview struct {
	Stats           *domain.TeamStats
	Variety         *domain.TeamVarietyStats
	EffectiveRating float64
}

func (s *MatchService) GetTeamOverview(ctx context.Context, teamID uuid.UUID, size domain.TeamSize) (*TeamOverview, error) {
	if !size.Valid() {
		return nil, ErrInvalidTeamSize
	}
	stats, err := s.teams.GetOrCreateStats(ctx, teamID, size)
	if err != nil {
		return nil, err
	}
	variety, err := s.teams.GetOrCreateVariety(ctx, teamID, size)
	if err != nil {
		return nil, err
	}
	return &TeamOverview{
		Stats:           stats,
		Variety:         variety,
		EffectiveRating: rating.EffectiveRating(stats.CurrentRating, variety.VarietyEntropy, variety.VarietyBonus),
	}, nil
}

func (s *MatchService) cancelOpenGames(ctx context.Context, m *domain.Match, reason string, actor state.Actor) {
	games, err := s.games.ListByMatch(ctx, m.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to load games for cancellation")
		return
	}
	for i := range games {
		g := &games[i]
		if !state.TryTransitionGame(g, domain.GameCancelled, actor, reason) {
			continue
		}
		if err := s.games.AppendSnapshot(ctx, state.CurrentGameSnapshot(g), g.UpdatedAt); err != nil {
			s.logger.Warn().Err(err).Str("game_id", g.ID.String()).Msg("failed to persist game cancellation")
		}
	}
}

func (s *MatchService) persistMatchSnapshot(ctx context.Context, m *domain.Match, snap *domain.MatchStateSnapshot) error {
	res := repository.DualWrite(
		func() error { return s.matches.AppendSnapshot(ctx, snap, m.UpdatedAt) },
		func() error { return s.cacheMatch(ctx, m) },
	)
	if err := res.Primary(); err != nil {
		s.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to persist match snapshot")
		return fmt.Errorf("failed to persist match snapshot: %w", err)
	}
	s.warnOnCacheFailure(res, "match", m.ID)
	return nil
}

func (s *MatchService) cacheMatch(ctx context.Context, m *domain.Match) error {
	return s.cache.Set(ctx, "match", m.ID.String(), m, constants.MatchCacheTTL)
}

func (s *MatchService) warnOnCacheFailure(res repository.WriteResult, entityType string, id uuid.UUID) {
	if res.CacheErr != nil {
		s.logger.Warn().Err(res.CacheErr).Str(entityType+"_id", id.String()).Msg("cache write failed")
	}
}

// requireBanPhase rejects ban operations once the match has left Created,
// distinguishing an already-ended match from one that merely started.
func requireBanPhase(m *domain.Match) error {
	switch state.MatchStatus(m) {
	case domain.MatchCreated:
		return nil
	case domain.MatchInProgress:
		return ErrIllegalTransition
	default:
		return ErrMatchAlreadyEnded
	}
}

func teamNumberOf(m *domain.Match, teamID uuid.UUID) (int, error) {
	switch teamID {
	case m.Team1ID:
		return 1, nil
	case m.Team2ID:
		return 2, nil
	default:
		return 0, ErrUnknownTeam
	}
}

func finalMapPool(available, team1Bans, team2Bans []string) []string {
	banned := make(map[string]bool, len(team1Bans)+len(team2Bans))
	for _, b := range team1Bans {
		banned[b] = true
	}
	for _, b := range team2Bans {
		banned[b] = true
	}
	pool := make([]string, 0, len(available))
	for _, name := range available {
		if !banned[name] {
			pool = append(pool, name)
		}
	}
	return pool
}
