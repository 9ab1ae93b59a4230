package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scrim-tracker/internal/domain"
)

// The services depend on these narrow store interfaces rather than concrete
// repositories, so each operation receives exactly the persistence surface it
// needs and tests can substitute fakes.

type MatchStore interface {
	Create(ctx context.Context, m *domain.Match) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	AppendSnapshot(ctx context.Context, snap *domain.MatchStateSnapshot, updatedAt time.Time) error
}

type GameStore interface {
	Create(ctx context.Context, g *domain.Game) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]domain.Game, error)
	AppendSnapshot(ctx context.Context, snap *domain.GameStateSnapshot, updatedAt time.Time) error
}

type ReplayStore interface {
	Create(ctx context.Context, r *domain.Replay) error
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Replay, error)
}

type PlayerStore interface {
	GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Player, error)
}

type TeamStatsStore interface {
	GetOrCreateStats(ctx context.Context, teamID uuid.UUID, size domain.TeamSize) (*domain.TeamStats, error)
	UpdateStats(ctx context.Context, stats *domain.TeamStats) error
	GetOrCreateVariety(ctx context.Context, teamID uuid.UUID, size domain.TeamSize) (*domain.TeamVarietyStats, error)
	UpdateVariety(ctx context.Context, v *domain.TeamVarietyStats) error
}

type EncounterStore interface {
	CreateBatch(ctx context.Context, encounters []domain.TeamOpponentEncounter) error
	ListRecent(ctx context.Context, teamID uuid.UUID, size domain.TeamSize, limit int) ([]domain.TeamOpponentEncounter, error)
	SetWonForMatch(ctx context.Context, matchID, winnerTeamID uuid.UUID) error
}

type ParticipantStore interface {
	CreateBatch(ctx context.Context, participants []domain.MatchParticipant) error
	SetWinner(ctx context.Context, matchID, winnerTeamID uuid.UUID, updatedAt time.Time) error
}

// EntityCache is the secondary store of the dual-write scheme.
type EntityCache interface {
	Set(ctx context.Context, entityType, id string, v any, ttl time.Duration) error
}
