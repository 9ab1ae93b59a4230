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
	"scrim-tracker/internal/rating"
)

type TeamRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewTeamRepository(db *sqlx.DB, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{db: db, logger: logger}
}

type teamRow struct {
	ID         uuid.UUID  `db:"id"`
	Name       string     `db:"name"`
	Tag        string     `db:"tag"`
	CaptainID  uuid.UUID  `db:"captain_id"`
	TeamSize   int        `db:"team_size"`
	LastActive time.Time  `db:"last_active"`
	IsArchived bool       `db:"is_archived"`
	ArchivedAt *time.Time `db:"archived_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

type teamStatsRow struct {
	ID            uuid.UUID `db:"id"`
	TeamID        uuid.UUID `db:"team_id"`
	TeamSize      int       `db:"team_size"`
	Wins          int       `db:"wins"`
	Losses        int       `db:"losses"`
	InitialRating float64   `db:"initial_rating"`
	CurrentRating float64   `db:"current_rating"`
	HighestRating float64   `db:"highest_rating"`
	CurrentStreak int       `db:"current_streak"`
	LongestStreak int       `db:"longest_streak"`
	LastMatchAt   time.Time `db:"last_match_at"`
	LastUpdated   time.Time `db:"last_updated"`
}

type teamVarietyRow struct {
	ID              uuid.UUID `db:"id"`
	TeamID          uuid.UUID `db:"team_id"`
	TeamSize        int       `db:"team_size"`
	VarietyEntropy  float64   `db:"variety_entropy"`
	VarietyBonus    float64   `db:"variety_bonus"`
	TotalOpponents  int       `db:"total_opponents"`
	UniqueOpponents int       `db:"unique_opponents"`
	LastCalculated  time.Time `db:"last_calculated"`
	LastUpdated     time.Time `db:"last_updated"`
}

func (r *TeamRepository) Create(ctx context.Context, t *domain.Team) error {
	if _, err := r.db.NamedExecContext(ctx, `
		INSERT INTO teams (id, name, tag, captain_id, team_size, last_active,
			is_archived, archived_at, created_at, updated_at)
		VALUES (:id, :name, :tag, :captain_id, :team_size, :last_active,
			:is_archived, :archived_at, :created_at, :updated_at)`,
		teamToRow(t)); err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

// Get loads a team with its per-size stats and variety records in the fixed
// slots indexed by team-size ordinal.
func (r *TeamRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	var row teamRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM teams WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	t := teamFromRow(&row)

	var statsRows []teamStatsRow
	if err := r.db.SelectContext(ctx, &statsRows, `SELECT * FROM team_stats WHERE team_id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to load team stats: %w", err)
	}
	for i := range statsRows {
		s := teamStatsFromRow(&statsRows[i])
		if s.TeamSize.Valid() {
			t.Stats[s.TeamSize] = s
		}
	}

	var varietyRows []teamVarietyRow
	if err := r.db.SelectContext(ctx, &varietyRows, `SELECT * FROM team_variety_stats WHERE team_id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to load team variety stats: %w", err)
	}
	for i := range varietyRows {
		v := teamVarietyFromRow(&varietyRows[i])
		if v.TeamSize.Valid() {
			t.VarietyStats[v.TeamSize] = v
		}
	}

	return t, nil
}

// GetOrCreateStats returns the stats record for (team, size), creating it
// with the initial rating on first use.
func (r *TeamRepository) GetOrCreateStats(ctx context.Context, teamID uuid.UUID, size domain.TeamSize) (*domain.TeamStats, error) {
	var row teamStatsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM team_stats WHERE team_id = ? AND team_size = ?`, teamID, int(size))
	if err == nil {
		return teamStatsFromRow(&row), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load team stats: %w", err)
	}

	now := time.Now().UTC()
	stats := &domain.TeamStats{
		ID:            uuid.New(),
		TeamID:        teamID,
		TeamSize:      size,
		InitialRating: rating.InitialRating,
		CurrentRating: rating.InitialRating,
		HighestRating: rating.InitialRating,
		LastMatchAt:   now,
		LastUpdated:   now,
	}
	if _, err := r.db.NamedExecContext(ctx, `
		INSERT INTO team_stats (id, team_id, team_size, wins, losses, initial_rating,
			current_rating, highest_rating, current_streak, longest_streak, last_match_at, last_updated)
		VALUES (:id, :team_id, :team_size, :wins, :losses, :initial_rating,
			:current_rating, :highest_rating, :current_streak, :longest_streak, :last_match_at, :last_updated)`,
		teamStatsToRow(stats)); err != nil {
		return nil, fmt.Errorf("failed to create team stats: %w", err)
	}

	r.logger.Debug().
		Str("team_id", teamID.String()).
		Str("team_size", size.String()).
		Msg("team stats record created")
	return stats, nil
}

func (r *TeamRepository) UpdateStats(ctx context.Context, stats *domain.TeamStats) error {
	if _, err := r.db.NamedExecContext(ctx, `
		UPDATE team_stats SET wins = :wins, losses = :losses, current_rating = :current_rating,
			highest_rating = :highest_rating, current_streak = :current_streak,
			longest_streak = :longest_streak, last_match_at = :last_match_at, last_updated = :last_updated
		WHERE id = :id`,
		teamStatsToRow(stats)); err != nil {
		return fmt.Errorf("failed to update team stats: %w", err)
	}
	return nil
}

func (r *TeamRepository) GetOrCreateVariety(ctx context.Context, teamID uuid.UUID, size domain.TeamSize) (*domain.TeamVarietyStats, error) {
	var row teamVarietyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM team_variety_stats WHERE team_id = ? AND team_size = ?`, teamID, int(size))
	if err == nil {
		return teamVarietyFromRow(&row), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load team variety stats: %w", err)
	}

	now := time.Now().UTC()
	variety := &domain.TeamVarietyStats{
		ID:             uuid.New(),
		TeamID:         teamID,
		TeamSize:       size,
		LastCalculated: now,
		LastUpdated:    now,
	}
	if _, err := r.db.NamedExecContext(ctx, `
		INSERT INTO team_variety_stats (id, team_id, team_size, variety_entropy, variety_bonus,
			total_opponents, unique_opponents, last_calculated, last_updated)
		VALUES (:id, :team_id, :team_size, :variety_entropy, :variety_bonus,
			:total_opponents, :unique_opponents, :last_calculated, :last_updated)`,
		teamVarietyToRow(variety)); err != nil {
		return nil, fmt.Errorf("failed to create team variety stats: %w", err)
	}
	return variety, nil
}

func (r *TeamRepository) UpdateVariety(ctx context.Context, v *domain.TeamVarietyStats) error {
	if _, err := r.db.NamedExecContext(ctx, `
		UPDATE team_variety_stats SET variety_entropy = :variety_entropy, variety_bonus = :variety_bonus,
			total_opponents = :total_opponents, unique_opponents = :unique_opponents,
			last_calculated = :last_calculated, last_updated = :last_updated
		WHERE id = :id`,
		teamVarietyToRow(v)); err != nil {
		return fmt.Errorf("failed to update team variety stats: %w", err)
	}
	return nil
}

func teamToRow(t *domain.Team) *teamRow {
	return &teamRow{
		ID:         t.ID,
		Name:       t.Name,
		Tag:        t.Tag,
		CaptainID:  t.CaptainID,
		TeamSize:   int(t.TeamSize),
		LastActive: t.LastActive,
		IsArchived: t.IsArchived,
		ArchivedAt: t.ArchivedAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func teamFromRow(row *teamRow) *domain.Team {
	return &domain.Team{
		ID:         row.ID,
		Name:       row.Name,
		Tag:        row.Tag,
		CaptainID:  row.CaptainID,
		TeamSize:   domain.TeamSize(row.TeamSize),
		LastActive: row.LastActive,
		IsArchived: row.IsArchived,
		ArchivedAt: row.ArchivedAt,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func teamStatsToRow(s *domain.TeamStats) *teamStatsRow {
	return &teamStatsRow{
		ID:            s.ID,
		TeamID:        s.TeamID,
		TeamSize:      int(s.TeamSize),
		Wins:          s.Wins,
		Losses:        s.Losses,
		InitialRating: s.InitialRating,
		CurrentRating: s.CurrentRating,
		HighestRating: s.HighestRating,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		LastMatchAt:   s.LastMatchAt,
		LastUpdated:   s.LastUpdated,
	}
}

func teamStatsFromRow(row *teamStatsRow) *domain.TeamStats {
	return &domain.TeamStats{
		ID:            row.ID,
		TeamID:        row.TeamID,
		TeamSize:      domain.TeamSize(row.TeamSize),
		Wins:          row.Wins,
		Losses:        row.Losses,
		InitialRating: row.InitialRating,
		CurrentRating: row.CurrentRating,
		HighestRating: row.HighestRating,
		CurrentStreak: row.CurrentStreak,
		LongestStreak: row.LongestStreak,
		LastMatchAt:   row.LastMatchAt,
		LastUpdated:   row.LastUpdated,
	}
}

func teamVarietyToRow(v *domain.TeamVarietyStats) *teamVarietyRow {
	return &teamVarietyRow{
		ID:              v.ID,
		TeamID:          v.TeamID,
		TeamSize:        int(v.TeamSize),
		VarietyEntropy:  v.VarietyEntropy,
		VarietyBonus:    v.VarietyBonus,
		TotalOpponents:  v.TotalOpponents,
		UniqueOpponents: v.UniqueOpponents,
		LastCalculated:  v.LastCalculated,
		LastUpdated:     v.LastUpdated,
	}
}

func teamVarietyFromRow(row *teamVarietyRow) *domain.TeamVarietyStats {
	return &domain.TeamVarietyStats{
		ID:              row.ID,
		TeamID:          row.TeamID,
		TeamSize:        domain.TeamSize(row.TeamSize),
		VarietyEntropy:  row.VarietyEntropy,
		VarietyBonus:    row.VarietyBonus,
		TotalOpponents:  row.TotalOpponents,
		UniqueOpponents: row.UniqueOpponents,
		LastCalculated:  row.LastCalculated,
		LastUpdated:     row.LastUpdated,
	}
}
