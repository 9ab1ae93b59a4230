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

type PlayerRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewPlayerRepository(db *sqlx.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: db, logger: logger}
}

type playerRow struct {
	ID                    uuid.UUID `db:"id"`
	Name                  string    `db:"name"`
	GameUsername          string    `db:"game_username"`
	PreviousGameUsernames string    `db:"previous_game_usernames"`
	PlatformIDs           string    `db:"platform_ids"`
	PreviousPlatformIDs   string    `db:"previous_platform_ids"`
	TeamIDs               string    `db:"team_ids"`
	LastActive            time.Time `db:"last_active"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	row, err := playerToRow(p)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, `
		INSERT INTO players (id, name, game_username, previous_game_usernames,
			platform_ids, previous_platform_ids, team_ids, last_active, created_at, updated_at)
		VALUES (:id, :name, :game_username, :previous_game_usernames,
			:platform_ids, :previous_platform_ids, :team_ids, :last_active, :created_at, :updated_at)`,
		row); err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) Update(ctx context.Context, p *domain.Player) error {
	row, err := playerToRow(p)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, `
		UPDATE players SET name = :name, game_username = :game_username,
			previous_game_usernames = :previous_game_usernames, platform_ids = :platform_ids,
			previous_platform_ids = :previous_platform_ids, team_ids = :team_ids,
			last_active = :last_active, updated_at = :updated_at
		WHERE id = :id`,
		row); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	var row playerRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM players WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return playerFromRow(&row)
}

// GetMany loads the given players, erroring if any id is unknown.
func (r *PlayerRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, inArgs, err := sqlx.In(`SELECT * FROM players WHERE id IN (?)`, args)
	if err != nil {
		return nil, fmt.Errorf("failed to build player query: %w", err)
	}

	var rows []playerRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	if len(rows) != len(ids) {
		return nil, fmt.Errorf("expected %d players, found %d: %w", len(ids), len(rows), ErrNotFound)
	}

	players := make([]domain.Player, 0, len(rows))
	for i := range rows {
		p, err := playerFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, nil
}

func playerToRow(p *domain.Player) (*playerRow, error) {
	prevNames, err := toJSON(p.PreviousGameUsernames)
	if err != nil {
		return nil, err
	}
	platformIDs, err := toJSON(p.PlatformIDs)
	if err != nil {
		return nil, err
	}
	prevPlatformIDs, err := toJSON(p.PreviousPlatformIDs)
	if err != nil {
		return nil, err
	}
	teamIDs, err := toJSON(p.TeamIDs)
	if err != nil {
		return nil, err
	}
	return &playerRow{
		ID:                    p.ID,
		Name:                  p.Name,
		GameUsername:          p.GameUsername,
		PreviousGameUsernames: prevNames,
		PlatformIDs:           platformIDs,
		PreviousPlatformIDs:   prevPlatformIDs,
		TeamIDs:               teamIDs,
		LastActive:            p.LastActive,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}, nil
}

func playerFromRow(row *playerRow) (*domain.Player, error) {
	p := &domain.Player{
		ID:           row.ID,
		Name:         row.Name,
		GameUsername: row.GameUsername,
		LastActive:   row.LastActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if err := fromJSON(row.PreviousGameUsernames, &p.PreviousGameUsernames); err != nil {
		return nil, err
	}
	if err := fromJSON(row.PlatformIDs, &p.PlatformIDs); err != nil {
		return nil, err
	}
	if err := fromJSON(row.PreviousPlatformIDs, &p.PreviousPlatformIDs); err != nil {
		return nil, err
	}
	if err := fromJSON(row.TeamIDs, &p.TeamIDs); err != nil {
		return nil, err
	}
	return p, nil
}
