package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"scrim-tracker/internal/domain"
)

type ReplayRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewReplayRepository(db *sqlx.DB, logger zerolog.Logger) *ReplayRepository {
	return &ReplayRepository{db: db, logger: logger}
}

type replayRow struct {
	ID                  uuid.UUID `db:"id"`
	GameID              uuid.UUID `db:"game_id"`
	MatchID             uuid.UUID `db:"match_id"`
	GameMode            string    `db:"game_mode"`
	Map                 string    `db:"map"`
	AllowObservers      string    `db:"allow_observers"`
	ObserverDelay       string    `db:"observer_delay"`
	Seed                string    `db:"seed"`
	Private             string    `db:"private"`
	ServerName          string    `db:"server_name"`
	Version             string    `db:"version"`
	UniqueSessionID     string    `db:"unique_session_id"`
	ModList             string    `db:"mod_list"`
	ModTagList          string    `db:"mod_tag_list"`
	EnvironmentSettings string    `db:"environment_settings"`
	GameType            string    `db:"game_type"`
	InitMoney           string    `db:"init_money"`
	TimeLimit           string    `db:"time_limit"`
	ScoreLimit          string    `db:"score_limit"`
	CombatRule          string    `db:"combat_rule"`
	IncomeRate          string    `db:"income_rate"`
	Upkeep              string    `db:"upkeep"`
	OriginalFilename    string    `db:"original_filename"`
	FilePath            string    `db:"file_path"`
	FileSizeBytes       int64     `db:"file_size_bytes"`
	VictoryCode         string    `db:"victory_code"`
	DurationSeconds     int       `db:"duration_seconds"`
	CreatedAt           time.Time `db:"created_at"`
}

type replayPlayerRow struct {
	ID                uuid.UUID `db:"id"`
	ReplayID          uuid.UUID `db:"replay_id"`
	PlayerUserID      string    `db:"player_user_id"`
	PlayerName        string    `db:"player_name"`
	PlayerElo         string    `db:"player_elo"`
	PlayerLevel       string    `db:"player_level"`
	PlayerAlliance    string    `db:"player_alliance"`
	PlayerScoreLimit  string    `db:"player_score_limit"`
	PlayerIncomeRate  string    `db:"player_income_rate"`
	PlayerAvatar      string    `db:"player_avatar"`
	PlayerReady       string    `db:"player_ready"`
	PlayerDeckContent string    `db:"player_deck_content"`
	PlayerDeckName    string    `db:"player_deck_name"`
	CreatedAt         time.Time `db:"created_at"`
}

// Create persists a replay together with its players in one transaction.
// Replays are write-once: there is no update path.
func (r *ReplayRepository) Create(ctx context.Context, rep *domain.Replay) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO replays (id, game_id, match_id, game_mode, map, allow_observers,
			observer_delay, seed, private, server_name, version, unique_session_id,
			mod_list, mod_tag_list, environment_settings, game_type, init_money,
			time_limit, score_limit, combat_rule, income_rate, upkeep,
			original_filename, file_path, file_size_bytes, victory_code, duration_seconds, created_at)
		VALUES (:id, :game_id, :match_id, :game_mode, :map, :allow_observers,
			:observer_delay, :seed, :private, :server_name, :version, :unique_session_id,
			:mod_list, :mod_tag_list, :environment_settings, :game_type, :init_money,
			:time_limit, :score_limit, :combat_rule, :income_rate, :upkeep,
			:original_filename, :file_path, :file_size_bytes, :victory_code, :duration_seconds, :created_at)`,
		replayToRow(rep)); err != nil {
		return fmt.Errorf("failed to insert replay: %w", err)
	}

	for i := range rep.Players {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO replay_players (id, replay_id, player_user_id, player_name, player_elo,
				player_level, player_alliance, player_score_limit, player_income_rate,
				player_avatar, player_ready, player_deck_content, player_deck_name, created_at)
			VALUES (:id, :replay_id, :player_user_id, :player_name, :player_elo,
				:player_level, :player_alliance, :player_score_limit, :player_income_rate,
				:player_avatar, :player_ready, :player_deck_content, :player_deck_name, :created_at)`,
			replayPlayerToRow(&rep.Players[i])); err != nil {
			return fmt.Errorf("failed to insert replay player: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replay insert: %w", err)
	}

	r.logger.Debug().
		Str("replay_id", rep.ID.String()).
		Str("game_id", rep.GameID.String()).
		Int("player_count", len(rep.Players)).
		Msg("replay stored")
	return nil
}

func (r *ReplayRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Replay, error) {
	var rows []replayRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM replays WHERE game_id = ? ORDER BY created_at, id`, gameID); err != nil {
		return nil, fmt.Errorf("failed to list replays: %w", err)
	}

	replays := make([]domain.Replay, 0, len(rows))
	for i := range rows {
		var playerRows []replayPlayerRow
		if err := r.db.SelectContext(ctx, &playerRows, `
			SELECT * FROM replay_players WHERE replay_id = ? ORDER BY created_at, id`, rows[i].ID); err != nil {
			return nil, fmt.Errorf("failed to list replay players: %w", err)
		}
		replays = append(replays, *replayFromRow(&rows[i], playerRows))
	}
	return replays, nil
}

func (r *ReplayRepository) CountByGame(ctx context.Context, gameID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM replays WHERE game_id = ?`, gameID); err != nil {
		return 0, fmt.Errorf("failed to count replays: %w", err)
	}
	return count, nil
}

func replayToRow(rep *domain.Replay) *replayRow {
	return &replayRow{
		ID:                  rep.ID,
		GameID:              rep.GameID,
		MatchID:             rep.MatchID,
		GameMode:            rep.GameMode,
		Map:                 rep.Map,
		AllowObservers:      rep.AllowObservers,
		ObserverDelay:       rep.ObserverDelay,
		Seed:                rep.Seed,
		Private:             rep.Private,
		ServerName:          rep.ServerName,
		Version:             rep.Version,
		UniqueSessionID:     rep.UniqueSessionID,
		ModList:             rep.ModList,
		ModTagList:          rep.ModTagList,
		EnvironmentSettings: rep.EnvironmentSettings,
		GameType:            rep.GameType,
		InitMoney:           rep.InitMoney,
		TimeLimit:           rep.TimeLimit,
		ScoreLimit:          rep.ScoreLimit,
		CombatRule:          rep.CombatRule,
		IncomeRate:          rep.IncomeRate,
		Upkeep:              rep.Upkeep,
		OriginalFilename:    rep.OriginalFilename,
		FilePath:            rep.FilePath,
		FileSizeBytes:       rep.FileSizeBytes,
		VictoryCode:         rep.VictoryCode,
		DurationSeconds:     rep.DurationSeconds,
		CreatedAt:           rep.CreatedAt,
	}
}

func replayFromRow(row *replayRow, playerRows []replayPlayerRow) *domain.Replay {
	rep := &domain.Replay{
		ID:                  row.ID,
		GameID:              row.GameID,
		MatchID:             row.MatchID,
		GameMode:            row.GameMode,
		Map:                 row.Map,
		AllowObservers:      row.AllowObservers,
		ObserverDelay:       row.ObserverDelay,
		Seed:                row.Seed,
		Private:             row.Private,
		ServerName:          row.ServerName,
		Version:             row.Version,
		UniqueSessionID:     row.UniqueSessionID,
		ModList:             row.ModList,
		ModTagList:          row.ModTagList,
		EnvironmentSettings: row.EnvironmentSettings,
		GameType:            row.GameType,
		InitMoney:           row.InitMoney,
		TimeLimit:           row.TimeLimit,
		ScoreLimit:          row.ScoreLimit,
		CombatRule:          row.CombatRule,
		IncomeRate:          row.IncomeRate,
		Upkeep:              row.Upkeep,
		OriginalFilename:    row.OriginalFilename,
		FilePath:            row.FilePath,
		FileSizeBytes:       row.FileSizeBytes,
		VictoryCode:         row.VictoryCode,
		DurationSeconds:     row.DurationSeconds,
		CreatedAt:           row.CreatedAt,
	}
	for i := range playerRows {
		rep.Players = append(rep.Players, *replayPlayerFromRow(&playerRows[i]))
	}
	return rep
}

func replayPlayerToRow(p *domain.ReplayPlayer) *replayPlayerRow {
	return &replayPlayerRow{
		ID:                p.ID,
		ReplayID:          p.ReplayID,
		PlayerUserID:      p.PlayerUserID,
		PlayerName:        p.PlayerName,
		PlayerElo:         p.PlayerElo,
		PlayerLevel:       p.PlayerLevel,
		PlayerAlliance:    p.PlayerAlliance,
		PlayerScoreLimit:  p.PlayerScoreLimit,
		PlayerIncomeRate:  p.PlayerIncomeRate,
		PlayerAvatar:      p.PlayerAvatar,
		PlayerReady:       p.PlayerReady,
		PlayerDeckContent: p.PlayerDeckContent,
		PlayerDeckName:    p.PlayerDeckName,
		CreatedAt:         p.CreatedAt,
	}
}

func replayPlayerFromRow(row *replayPlayerRow) *domain.ReplayPlayer {
	return &domain.ReplayPlayer{
		ID:                row.ID,
		ReplayID:          row.ReplayID,
		PlayerUserID:      row.PlayerUserID,
		PlayerName:        row.PlayerName,
		PlayerElo:         row.PlayerElo,
		PlayerLevel:       row.PlayerLevel,
		PlayerAlliance:    row.PlayerAlliance,
		PlayerScoreLimit:  row.PlayerScoreLimit,
		PlayerIncomeRate:  row.PlayerIncomeRate,
		PlayerAvatar:      row.PlayerAvatar,
		PlayerReady:       row.PlayerReady,
		PlayerDeckContent: row.PlayerDeckContent,
		PlayerDeckName:    row.PlayerDeckName,
		CreatedAt:         row.CreatedAt,
	}
}
