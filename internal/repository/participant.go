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

type ParticipantRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewParticipantRepository(db *sqlx.DB, logger zerolog.Logger) *ParticipantRepository {
	return &ParticipantRepository{db: db, logger: logger}
}

type participantRow struct {
	ID         uuid.UUID `db:"id"`
	MatchID    uuid.UUID `db:"match_id"`
	TeamID     uuid.UUID `db:"team_id"`
	TeamNumber int       `db:"team_number"`
	PlayerIDs  string    `db:"player_ids"`
	JoinedAt   time.Time `db:"joined_at"`
	IsWinner   bool      `db:"is_winner"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *ParticipantRepository) CreateBatch(ctx context.Context, participants []domain.MatchParticipant) error {
	if len(participants) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range participants {
		row, err := participantToRow(&participants[i])
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO match_participants (id, match_id, team_id, team_number,
				player_ids, joined_at, is_winner, updated_at)
			VALUES (:id, :match_id, :team_id, :team_number, :player_ids, :joined_at, :is_winner, :updated_at)`,
			row); err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit participant insert: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]domain.MatchParticipant, error) {
	var rows []participantRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM match_participants WHERE match_id = ? ORDER BY team_number`, matchID); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	participants := make([]domain.MatchParticipant, 0, len(rows))
	for i := range rows {
		p, err := participantFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, nil
}

// SetWinner flips is_winner for every participant of the match based on the
// winning team.
func (r *ParticipantRepository) SetWinner(ctx context.Context, matchID, winnerTeamID uuid.UUID, updatedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE match_participants SET is_winner = (team_id = ?), updated_at = ? WHERE match_id = ?`,
		winnerTeamID, updatedAt, matchID); err != nil {
		return fmt.Errorf("failed to set match winner on participants: %w", err)
	}
	return nil
}

func participantToRow(p *domain.MatchParticipant) (*participantRow, error) {
	playerIDs, err := toJSON(p.PlayerIDs)
	if err != nil {
		return nil, err
	}
	return &participantRow{
		ID:         p.ID,
		MatchID:    p.MatchID,
		TeamID:     p.TeamID,
		TeamNumber: p.TeamNumber,
		PlayerIDs:  playerIDs,
		JoinedAt:   p.JoinedAt,
		IsWinner:   p.IsWinner,
		UpdatedAt:  p.UpdatedAt,
	}, nil
}

func participantFromRow(row *participantRow) (*domain.MatchParticipant, error) {
	p := &domain.MatchParticipant{
		ID:         row.ID,
		MatchID:    row.MatchID,
		TeamID:     row.TeamID,
		TeamNumber: row.TeamNumber,
		JoinedAt:   row.JoinedAt,
		IsWinner:   row.IsWinner,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := fromJSON(row.PlayerIDs, &p.PlayerIDs); err != nil {
		return nil, err
	}
	return p, nil
}
