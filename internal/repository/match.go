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

var ErrNotFound = errors.New("entity not found")

type MatchRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewMatchRepository(db *sqlx.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: db, logger: logger}
}

type matchRow struct {
	ID               uuid.UUID  `db:"id"`
	Team1ID          uuid.UUID  `db:"team1_id"`
	Team2ID          uuid.UUID  `db:"team2_id"`
	Team1PlayerIDs   string     `db:"team1_player_ids"`
	Team2PlayerIDs   string     `db:"team2_player_ids"`
	TeamSize         int        `db:"team_size"`
	BestOf           int        `db:"best_of"`
	PlayToCompletion bool       `db:"play_to_completion"`
	ParentID         *uuid.UUID `db:"parent_id"`
	ParentType       *string    `db:"parent_type"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

type matchSnapshotRow struct {
	ID                  uuid.UUID  `db:"id"`
	MatchID             uuid.UUID  `db:"match_id"`
	Timestamp           time.Time  `db:"timestamp"`
	TriggeredByUserID   uuid.UUID  `db:"triggered_by_user_id"`
	TriggeredByUserName string     `db:"triggered_by_user_name"`
	AdditionalData      string     `db:"additional_data"`
	StartedAt           *time.Time `db:"started_at"`
	CompletedAt         *time.Time `db:"completed_at"`
	CancelledAt         *time.Time `db:"cancelled_at"`
	ForfeitedAt         *time.Time `db:"forfeited_at"`
	WinnerID            *uuid.UUID `db:"winner_id"`
	CancelledByUserID   *uuid.UUID `db:"cancelled_by_user_id"`
	ForfeitedByUserID   *uuid.UUID `db:"forfeited_by_user_id"`
	ForfeitedTeamID     *uuid.UUID `db:"forfeited_team_id"`
	CancellationReason  string     `db:"cancellation_reason"`
	ForfeitReason       string     `db:"forfeit_reason"`
	CurrentGameNumber   int        `db:"current_game_number"`
	CurrentMapID        *uuid.UUID `db:"current_map_id"`
	FinalScore          string     `db:"final_score"`
	AvailableMaps       string     `db:"available_maps"`
	FinalMapPool        string     `db:"final_map_pool"`
	Team1MapBans        string     `db:"team1_map_bans"`
	Team2MapBans        string     `db:"team2_map_bans"`
	Team1BansSubmitted  bool       `db:"team1_bans_submitted"`
	Team2BansSubmitted  bool       `db:"team2_bans_submitted"`
	Team1BansConfirmed  bool       `db:"team1_bans_confirmed"`
	Team2BansConfirmed  bool       `db:"team2_bans_confirmed"`
}

func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	row, err := matchToRow(m)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO matches (id, team1_id, team2_id, team1_player_ids, team2_player_ids,
			team_size, best_of, play_to_completion, parent_id, parent_type, created_at, updated_at)
		VALUES (:id, :team1_id, :team2_id, :team1_player_ids, :team2_player_ids,
			:team_size, :best_of, :play_to_completion, :parent_id, :parent_type, :created_at, :updated_at)`,
		row); err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	for i := range m.StateHistory {
		if err := insertMatchSnapshot(ctx, tx, &m.StateHistory[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match insert: %w", err)
	}

	r.logger.Debug().Str("match_id", m.ID.String()).Msg("match created")
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	var row matchRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM matches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	var snapRows []matchSnapshotRow
	if err := r.db.SelectContext(ctx, &snapRows, `
		SELECT * FROM match_state_snapshots WHERE match_id = ? ORDER BY timestamp, id`, id); err != nil {
		return nil, fmt.Errorf("failed to load match snapshots: %w", err)
	}

	return matchFromRow(&row, snapRows)
}

// AppendSnapshot persists one new snapshot. Snapshots are append-only: this
// is the only write path for them and it never updates an existing row.
func (r *MatchRepository) AppendSnapshot(ctx context.Context, snap *domain.MatchStateSnapshot, updatedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMatchSnapshot(ctx, tx, snap); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE matches SET updated_at = ? WHERE id = ?`, updatedAt, snap.MatchID); err != nil {
		return fmt.Errorf("failed to touch match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot append: %w", err)
	}
	return nil
}

func insertMatchSnapshot(ctx context.Context, tx *sqlx.Tx, snap *domain.MatchStateSnapshot) error {
	row, err := matchSnapshotToRow(snap)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO match_state_snapshots (id, match_id, timestamp, triggered_by_user_id,
			triggered_by_user_name, additional_data, started_at, completed_at, cancelled_at,
			forfeited_at, winner_id, cancelled_by_user_id, forfeited_by_user_id, forfeited_team_id,
			cancellation_reason, forfeit_reason, current_game_number, current_map_id, final_score,
			available_maps, final_map_pool, team1_map_bans, team2_map_bans,
			team1_bans_submitted, team2_bans_submitted, team1_bans_confirmed, team2_bans_confirmed)
		VALUES (:id, :match_id, :timestamp, :triggered_by_user_id,
			:triggered_by_user_name, :additional_data, :started_at, :completed_at, :cancelled_at,
			:forfeited_at, :winner_id, :cancelled_by_user_id, :forfeited_by_user_id, :forfeited_team_id,
			:cancellation_reason, :forfeit_reason, :current_game_number, :current_map_id, :final_score,
			:available_maps, :final_map_pool, :team1_map_bans, :team2_map_bans,
			:team1_bans_submitted, :team2_bans_submitted, :team1_bans_confirmed, :team2_bans_confirmed)`,
		row); err != nil {
		return fmt.Errorf("failed to insert match snapshot: %w", err)
	}
	return nil
}

func matchToRow(m *domain.Match) (*matchRow, error) {
	team1, err := toJSON(m.Team1PlayerIDs)
	if err != nil {
		return nil, err
	}
	team2, err := toJSON(m.Team2PlayerIDs)
	if err != nil {
		return nil, err
	}
	var parentType *string
	if m.ParentType != nil {
		s := string(*m.ParentType)
		parentType = &s
	}
	return &matchRow{
		ID:               m.ID,
		Team1ID:          m.Team1ID,
		Team2ID:          m.Team2ID,
		Team1PlayerIDs:   team1,
		Team2PlayerIDs:   team2,
		TeamSize:         int(m.TeamSize),
		BestOf:           m.BestOf,
		PlayToCompletion: m.PlayToCompletion,
		ParentID:         m.ParentID,
		ParentType:       parentType,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

func matchFromRow(row *matchRow, snapRows []matchSnapshotRow) (*domain.Match, error) {
	m := &domain.Match{
		ID:               row.ID,
		Team1ID:          row.Team1ID,
		Team2ID:          row.Team2ID,
		TeamSize:         domain.TeamSize(row.TeamSize),
		BestOf:           row.BestOf,
		PlayToCompletion: row.PlayToCompletion,
		ParentID:         row.ParentID,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.ParentType != nil {
		pt := domain.ParentType(*row.ParentType)
		m.ParentType = &pt
	}
	if err := fromJSON(row.Team1PlayerIDs, &m.Team1PlayerIDs); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Team2PlayerIDs, &m.Team2PlayerIDs); err != nil {
		return nil, err
	}

	m.StateHistory = make([]domain.MatchStateSnapshot, 0, len(snapRows))
	for i := range snapRows {
		snap, err := matchSnapshotFromRow(&snapRows[i])
		if err != nil {
			return nil, err
		}
		m.StateHistory = append(m.StateHistory, *snap)
	}
	return m, nil
}

func matchSnapshotToRow(s *domain.MatchStateSnapshot) (*matchSnapshotRow, error) {
	additional, err := toJSON(s.AdditionalData)
	if err != nil {
		return nil, err
	}
	available, err := toJSON(s.AvailableMaps)
	if err != nil {
		return nil, err
	}
	finalPool, err := toJSON(s.FinalMapPool)
	if err != nil {
		return nil, err
	}
	team1Bans, err := toJSON(s.Team1MapBans)
	if err != nil {
		return nil, err
	}
	team2Bans, err := toJSON(s.Team2MapBans)
	if err != nil {
		return nil, err
	}
	return &matchSnapshotRow{
		ID:                  s.ID,
		MatchID:             s.MatchID,
		Timestamp:           s.Timestamp,
		TriggeredByUserID:   s.TriggeredByUserID,
		TriggeredByUserName: s.TriggeredByUserName,
		AdditionalData:      additional,
		StartedAt:           s.StartedAt,
		CompletedAt:         s.CompletedAt,
		CancelledAt:         s.CancelledAt,
		ForfeitedAt:         s.ForfeitedAt,
		WinnerID:            s.WinnerID,
		CancelledByUserID:   s.CancelledByUserID,
		ForfeitedByUserID:   s.ForfeitedByUserID,
		ForfeitedTeamID:     s.ForfeitedTeamID,
		CancellationReason:  s.CancellationReason,
		ForfeitReason:       s.ForfeitReason,
		CurrentGameNumber:   s.CurrentGameNumber,
		CurrentMapID:        s.CurrentMapID,
		FinalScore:          s.FinalScore,
		AvailableMaps:       available,
		FinalMapPool:        finalPool,
		Team1MapBans:        team1Bans,
		Team2MapBans:        team2Bans,
		Team1BansSubmitted:  s.Team1BansSubmitted,
		Team2BansSubmitted:  s.Team2BansSubmitted,
		Team1BansConfirmed:  s.Team1BansConfirmed,
		Team2BansConfirmed:  s.Team2BansConfirmed,
	}, nil
}

func matchSnapshotFromRow(row *matchSnapshotRow) (*domain.MatchStateSnapshot, error) {
	s := &domain.MatchStateSnapshot{
		ID:                  row.ID,
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
		CurrentGameNumber:   row.CurrentGameNumber,
		CurrentMapID:        row.CurrentMapID,
		FinalScore:          row.FinalScore,
		Team1BansSubmitted:  row.Team1BansSubmitted,
		Team2BansSubmitted:  row.Team2BansSubmitted,
		Team1BansConfirmed:  row.Team1BansConfirmed,
		Team2BansConfirmed:  row.Team2BansConfirmed,
	}
	if err := fromJSON(row.AdditionalData, &s.AdditionalData); err != nil {
		return nil, err
	}
	if err := fromJSON(row.AvailableMaps, &s.AvailableMaps); err != nil {
		return nil, err
	}
	if err := fromJSON(row.FinalMapPool, &s.FinalMapPool); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Team1MapBans, &s.Team1MapBans); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Team2MapBans, &s.Team2MapBans); err != nil {
		return nil, err
	}
	return s, nil
}
