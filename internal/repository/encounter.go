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

type EncounterRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewEncounterRepository(db *sqlx.DB, logger zerolog.Logger) *EncounterRepository {
	return &EncounterRepository{db: db, logger: logger}
}

type encounterRow struct {
	ID            uuid.UUID `db:"id"`
	TeamID        uuid.UUID `db:"team_id"`
	OpponentID    uuid.UUID `db:"opponent_id"`
	MatchID       uuid.UUID `db:"match_id"`
	TeamSize      int       `db:"team_size"`
	EncounteredAt time.Time `db:"encountered_at"`
	Won           bool      `db:"won"`
}

// CreateBatch inserts the symmetric encounter rows for a match, one per team
// with the other as opponent.
func (r *EncounterRepository) CreateBatch(ctx context.Context, encounters []domain.TeamOpponentEncounter) error {
	if len(encounters) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range encounters {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO team_opponent_encounters (id, team_id, opponent_id, match_id,
				team_size, encountered_at, won)
			VALUES (:id, :team_id, :opponent_id, :match_id, :team_size, :encountered_at, :won)`,
			encounterToRow(&encounters[i])); err != nil {
			return fmt.Errorf("failed to insert encounter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit encounter insert: %w", err)
	}
	return nil
}

// ListRecent returns the newest encounters first for a (team, size) pair.
func (r *EncounterRepository) ListRecent(ctx context.Context, teamID uuid.UUID, size domain.TeamSize, limit int) ([]domain.TeamOpponentEncounter, error) {
	var rows []encounterRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM team_opponent_encounters
		WHERE team_id = ? AND team_size = ?
		ORDER BY encountered_at DESC, id LIMIT ?`, teamID, int(size), limit); err != nil {
		return nil, fmt.Errorf("failed to list encounters: %w", err)
	}

	encounters := make([]domain.TeamOpponentEncounter, 0, len(rows))
	for i := range rows {
		encounters = append(encounters, *encounterFromRow(&rows[i]))
	}
	return encounters, nil
}

// SetWonForMatch marks the winner's encounter row for a match. The loser's
// row keeps won=false from creation.
func (r *EncounterRepository) SetWonForMatch(ctx context.Context, matchID, winnerTeamID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE team_opponent_encounters SET won = (team_id = ?) WHERE match_id = ?`,
		winnerTeamID, matchID); err != nil {
		return fmt.Errorf("failed to set encounter outcomes: %w", err)
	}
	return nil
}

func encounterToRow(e *domain.TeamOpponentEncounter) *encounterRow {
	return &encounterRow{
		ID:            e.ID,
		TeamID:        e.TeamID,
		OpponentID:    e.OpponentID,
		MatchID:       e.MatchID,
		TeamSize:      int(e.TeamSize),
		EncounteredAt: e.EncounteredAt,
		Won:           e.Won,
	}
}

func encounterFromRow(row *encounterRow) *domain.TeamOpponentEncounter {
	return &domain.TeamOpponentEncounter{
		ID:            row.ID,
		TeamID:        row.TeamID,
		OpponentID:    row.OpponentID,
		MatchID:       row.MatchID,
		TeamSize:      domain.TeamSize(row.TeamSize),
		EncounteredAt: row.EncounteredAt,
		Won:           row.Won,
	}
}
