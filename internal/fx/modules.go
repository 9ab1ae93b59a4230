package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"scrim-tracker/internal/cache"
	"scrim-tracker/internal/config"
	"scrim-tracker/internal/database"
	"scrim-tracker/internal/logger"
	"scrim-tracker/internal/rating"
	"scrim-tracker/internal/repository"
	"scrim-tracker/internal/server"
	"scrim-tracker/internal/service"
)

// provideGameService exists because the game service takes the replay
// directory as a plain string pulled out of the config.
func provideGameService(
	games service.GameStore,
	replays service.ReplayStore,
	players service.PlayerStore,
	matches service.MatchStore,
	matchSvc *service.MatchService,
	c service.EntityCache,
	cfg *config.Config,
	log zerolog.Logger,
) *service.GameService {
	return service.NewGameService(games, replays, players, matches, matchSvc, c, cfg.ReplayDir, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(cache.New),
	// repos
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewReplayRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewTeamRepository),
	fx.Provide(repository.NewEncounterRepository),
	fx.Provide(repository.NewParticipantRepository),
	// store interface bindings
	fx.Provide(
		func(r *repository.MatchRepository) service.MatchStore { return r },
		func(r *repository.GameRepository) service.GameStore { return r },
		func(r *repository.ReplayRepository) service.ReplayStore { return r },
		func(r *repository.PlayerRepository) service.PlayerStore { return r },
		func(r *repository.TeamRepository) service.TeamStatsStore { return r },
		func(r *repository.EncounterRepository) service.EncounterStore { return r },
		func(r *repository.ParticipantRepository) service.ParticipantStore { return r },
		func(c *cache.Client) service.EntityCache { return c },
	),
	// svc
	fx.Provide(rating.NewTeamLocker),
	fx.Provide(service.NewMatchService),
	fx.Provide(provideGameService),
	// server
	fx.Provide(server.NewTrackerServer),
)
