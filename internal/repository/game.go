package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"scrim-tracker/internal/domain"
)

type GameRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewGameRepository(db *sqlx.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{db: db, logger: logger}
}

type gameRow struct {
	ID             uuid.UUID `db:"id"`
	MatchID        uuid.UUID `db:"match_id"`
	MapID          uuid.UUID `db:"map_id"`
	TeamSize       int       `db:"team_size"`
	GameNumber     int       `db:"game_number"`
	Team1PlayerIDs string    `db:"team1_player_ids"`
	Team2PlayerIDs string    `db:"team2_player_ids"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type gameSnapshotRow struct {
	ID                    uuid.UUID  `db:"id"`
	GameID                uuid.UUID  `db:"game_id"`
	MatchID               uuid.UUID  `db:"match_id"`
	Timestamp             time.Time  `db:"timestamp"`
	TriggeredByUserID     uuid.UUID  `db:"triggered_by_user_id"`
	TriggeredByUserName   string     `db:"triggered_by_user_name"`
	AdditionalData        string     `db:"additional_data"`
	StartedAt             *time.Time `db:"started_at"`
	CompletedAt           *time.Time `db:"completed_at"`
	CancelledAt           *time.Time `db:"cancelled_at"`
	ForfeitedAt           *time.Time `db:"forfeited_at"`
	WinnerID              *uuid.UUID `db:"winner_id"`
	CancelledByUserID     *uuid.UUID `db:"cancelled_by_user_id"`
	ForfeitedByUserID     *uuid.UUID `db:"forfeited_by_user_id"`
	ForfeitedTeamID       *uuid.UUID `db:"forfeited_team_id"`
	CancellationReason    string     `db:"cancellation_reason"`
	ForfeitReason         string     `db:"forfeit_reason"`
	PlayerDeckCodes       string     `db:"player_deck_codes"`
	PlayerDeckSubmittedAt string     `db:"player_deck_submitted_at"`
	PlayerDeckConfirmed   string     `db:"player_deck_confirmed"`
	PlayerDeckConfirmedAt string     `db:"player_deck_confirmed_at"`
	MapID                 uuid.UUID  `db:"map_id"`
	TeamSize              int        `db:"team_size"`
	Team1PlayerIDs        string     `db:"team1_player_ids"`
	Team2PlayerIDs        string     `db:"team2_player_ids"`
	GameNumber            int        `db:"game_number"`
}

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	row, err := gameToRow(g)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO games (id, match_id, map_id, team_size, game_number,
			team1_player_ids, team2_player_ids, created_at, updated_at)
		VALUES (:id, :match_id, :map_id, :team_size, :game_number,
			:team1_player_ids, :team2_player_ids, :created_at, :updated_at)`,
		row); err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	for i := range g.StateHistory {
		if err := insertGameSnapshot(ctx, tx, &g.StateHistory[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game insert: %w", err)
	}

	r.logger.Debug().Str("game_id", g.ID.String()).Int("game_number", g.GameNumber).Msg("game created")
	return nil
}

func (r *GameRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	var row gameRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM games WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	var snapRows []gameSnapshotRow
	if err := r.db.SelectContext(ctx, &snapRows, `
		SELECT * FROM game_state_snapshots WHERE game_id = ? ORDER BY timestamp, id`, id); err != nil {
		return nil, fmt.Errorf("failed to load game snapshots: %w", err)
	}

	return gameFromRow(&row, snapRows)
}

func (r *GameRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]domain.Game, error) {
	var rows []gameRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM games WHERE match_id = ? ORDER BY game_number`, matchID); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	games := make([]domain.Game, 0, len(rows))
	for i := range rows {
		var snapRows []gameSnapshotRow
		if err := r.db.SelectContext(ctx, &snapRows, `
			SELECT * FROM game_state_snapshots WHERE game_id = ? ORDER BY timestamp, id`, rows[i].ID); err != nil {
			return nil, fmt.Errorf("failed to load game snapshots: %w", err)
		}
		g, err := gameFromRow(&rows[i], snapRows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, nil
}

func (r *GameRepository) AppendSnapshot(ctx context.Context, snap *domain.GameStateSnapshot, updatedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertGameSnapshot(ctx, tx, snap); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE games SET updated_at = ? WHERE id = ?`, updatedAt, snap.GameID); err != nil {
		return fmt.Errorf("failed to touch game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot append: %w", err)
	}
	return nil
}

func insertGameSnapshot(ctx context.Context, tx *sqlx.Tx, snap *domain.GameStateSnapshot) error {
	row, err := gameSnapshotToRow(snap)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO game_state_snapshots (id, game_id, match_id, timestamp, triggered_by_user_id,
			triggered_by_user_name, additional_data, started_at, completed_at, cancelled_at,
			forfeited_at, winner_id, cancelled_by_user_id, forfeited_by_user_id, forfeited_team_id,
			cancellation_reason, forfeit_reason, player_deck_codes, player_deck_submitted_at,
			player_deck_confirmed, player_deck_confirmed_at, map_id, team_size,
			team1_player_ids, team2_player_ids, game_number)
		VALUES (:id, :game_id, :match_id, :timestamp, :triggered_by_user_id,
			:triggered_by_user_name, :additional_data, :started_at, :completed_at, :cancelled_at,
			:forfeited_at, :winner_id, :cancelled_by_user_id, :forfeited_by_user_id, :forfeited_team_id,
			:cancellation_reason, :forfeit_reason, :player_deck_codes, :player_deck_submitted_at,
			:player_deck_confirmed, :player_deck_confirmed_at, :map_id, :team_size,
			:team1_player_ids, :team2_player_ids, :game_number)`,
		row); err != nil {
		return fmt.Errorf("failed to insert game snapshot: %w", err)
	}
	return nil
}

func gameToRow(g *domain.Game) (*gameRow, error) {
	team1, err := toJSON(g.Team1PlayerIDs)
	if err != nil {
		return nil, err
	}
	team2, err := toJSON(g.Team2PlayerIDs)
	if err != nil {
		return nil, err
	}
	return &gameRow{
		ID:             g.ID,
		MatchID:        g.MatchID,
		MapID:          g.MapID,
		TeamSize:       int(g.TeamSize),
		GameNumber:     g.GameNumber,
		Team1PlayerIDs: team1,
		Team2PlayerIDs: team2,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}, nil
}

func gameFromRow(row *gameRow, snapRows []gameSnapshotRow) (*domain.Game, error) {
	g := &domain.Game{
		ID:         row.ID,
		MatchID:    row.MatchID,
		MapID:      row.MapID,
		TeamSize:   domain.TeamSize(row.TeamSize),
		GameNumber: row.GameNumber,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := fromJSON(row.Team1PlayerIDs, &g.Team1PlayerIDs); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Team2PlayerIDs, &g.Team2PlayerIDs); err != nil {
		return nil, err
	}

	g.StateHistory = make([]domain.GameStateSnapshot, 0, len(snapRows))
	for i := range snapRows {
		snap, err := gameSnapshotFromRow(&snapRows[i])
		if err != nil {
			return nil, err
		}
		g.StateHistory = append(g.StateHistory, *snap)
	}
	return g, nil
}

func gameSnapshotToRow(s *domain.GameStateSnapshot) (*gameSnapshotRow, error) {
	additional, err := toJSON(s.AdditionalData)
	if err != nil {
		return nil, err
	}
	deckCodes, err := toJSON(s.PlayerDeckCodes)
	if err != nil {
		return nil, err
	}
	deckSubmitted, err := toJSON(s.PlayerDeckSubmittedAt)
	if err != nil {
		return nil, err
	}
	deckConfirmed, err := toJSON(s.PlayerDeckConfirmed)
	if err != nil {
		return nil, err
	}
	deckConfirmedAt, err := toJSON(s.PlayerDeckConfirmedAt)
	if err != nil {
		return nil, err
	}
	team1, err := toJSON(s.Team1PlayerIDs)
	if err != nil {
		return nil, err
	}
	team2, err := toJSON(s.Team2PlayerIDs)
	if err != nil {
		return nil, err
	}
	return &gameSnapshotRow{
		ID:                    s.ID,
		GameID:                s.GameID,
		MatchID:               s.MatchID,
		Timestamp:             s.Timestamp,
		TriggeredByUserID:     s.TriggeredByUserID,
		TriggeredByUserName:   s.TriggeredByUserName,
		AdditionalData:        additional,
		StartedAt:             s.StartedAt,
		CompletedAt:           s.CompletedAt,
		CancelledAt:           s.CancelledAt,
		ForfeitedAt:           s.ForfeitedAt,
		WinnerID:              s.WinnerID,
		CancelledByUserID:     s.CancelledByUserID,
		ForfeitedByUserID:     s.ForfeitedByUserID,
		ForfeitedTeamID:       s.ForfeitedTeamID,
		CancellationReason:    s.CancellationReason,
		ForfeitReason:         s.ForfeitReason,
		PlayerDeckCodes:       deckCodes,
		PlayerDeckSubmittedAt: deckSubmitted,
		PlayerDeckConfirmed:   deckConfirmed,
		PlayerDeckConfirmedAt: deckConfirmedAt,
		MapID:                 s.MapID,
		TeamSize:              int(s.TeamSize),
		Team1PlayerIDs:        team1,
		Team2PlayerIDs:        team2,
		GameNumber:            s.GameNumber,
	}, nil
}

func gameSnapshotFromRow(row *gameSnapshotRow) (*domain.GameStateSnapshot, error) {
	s := &domain.GameStateSnapshot{
		ID:                  row.ID,
		GameID:              row.GameID,
		MatchID:             row.MatchID,
		Timestamp:           row.Timestamp,
		TriggeredByUserID:   row.TriggeredByUserID,
		TriggeredByUserName: row.TriggeredByUserName,
		StartedAt:           row.StartedAt,
		CompletedAt:         row.CompletedAt,
		CancelledAt:         row.CancelledAt,
		ForfeitedAt:         row.ForfeitedAt,
		WinnerID:            row.WinnerID,
		CancelledByUserID:   row.CancelledByUserID,
		ForfeitedByUserID:   row.ForfeitedByUserID,
		ForfeitedTeamID:     row.ForfeitedTeamID,
		CancellationReason:  row.CancellationReason,
		ForfeitReason:       row.ForfeitReason,
		MapID:               row.MapID,
		TeamSize:            domain.TeamSize(row.TeamSize),
		GameNumber:          row.GameNumber,
	}
	if err := fromJSON(row.AdditionalData, &s.AdditionalData); err != nil {
		return nil, err
	}
	if err := fromJSON(row.PlayerDeckCodes, &s.PlayerDeckCodes); err != nil {
		return nil, err
	}
	if err := fromJSON(row.PlayerDeckSubmittedAt, &s.PlayerDeckSubmittedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(row.PlayerDeckConfirmed, &s.PlayerDeckConfirmed); err != nil {
		return nil, err
	}
	if err := fromJSON(row.PlayerDeckConfirmedAt, &s.PlayerDeckConfirmedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Team1PlayerIDs, &s.Team1PlayerIDs); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Team2PlayerIDs, &s.Team2PlayerIDs); err != nil {
		return nil, err
	}
	return s, nil
}
