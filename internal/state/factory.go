package state

import (
	"time"

	"github.com/google/uuid"

	"scrim-tracker/internal/domain"
)

// NewMatch builds a match in Created state with its initial snapshot.
// AvailableMaps seeds the ban phase; the final pool is set once both teams'
// bans are confirmed.
func NewMatch(team1ID, team2ID uuid.UUID, team1Players, team2Players []uuid.UUID, teamSize domain.TeamSize, bestOf int, playToCompletion bool, availableMaps []string, actor Actor) *domain.Match {
	now := time.Now().UTC()
	m := &domain.Match{
		ID:               uuid.New(),
		Team1ID:          team1ID,
		Team2ID:          team2ID,
		Team1PlayerIDs:   append([]uuid.UUID(nil), team1Players...),
		Team2PlayerIDs:   append([]uuid.UUID(nil), team2Players...),
		TeamSize:         teamSize,
		BestOf:           bestOf,
		PlayToCompletion: playToCompletion,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.StateHistory = []domain.MatchStateSnapshot{{
		ID:                  uuid.New(),
		MatchID:             m.ID,
		Timestamp:           now,
		TriggeredByUserID:   actor.UserID,
		TriggeredByUserName: actor.UserName,
		AdditionalData:      map[string]string{},
		CurrentGameNumber:   0,
		AvailableMaps:       append([]string(nil), availableMaps...),
	}}
	return m
}

// NewGame builds a game in Created state, denormalizing the parent match's
// map, team size and rosters into the initial snapshot.
func NewGame(m *domain.Match, mapID uuid.UUID, gameNumber int, actor Actor) *domain.Game {
	now := time.Now().UTC()
	g := &domain.Game{
		ID:             uuid.New(),
		MatchID:        m.ID,
		MapID:          mapID,
		TeamSize:       m.TeamSize,
		GameNumber:     gameNumber,
		Team1PlayerIDs: append([]uuid.UUID(nil), m.Team1PlayerIDs...),
		Team2PlayerIDs: append([]uuid.UUID(nil), m.Team2PlayerIDs...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	g.StateHistory = []domain.GameStateSnapshot{{
		ID:                    uuid.New(),
		GameID:                g.ID,
		MatchID:               m.ID,
		Timestamp:             now,
		TriggeredByUserID:     actor.UserID,
		TriggeredByUserName:   actor.UserName,
		AdditionalData:        map[string]string{},
		PlayerDeckCodes:       map[uuid.UUID]string{},
		PlayerDeckSubmittedAt: map[uuid.UUID]time.Time{},
		PlayerDeckConfirmed:   map[uuid.UUID]bool{},
		PlayerDeckConfirmedAt: map[uuid.UUID]time.Time{},
		MapID:                 mapID,
		TeamSize:              m.TeamSize,
		Team1PlayerIDs:        append([]uuid.UUID(nil), m.Team1PlayerIDs...),
		Team2PlayerIDs:        append([]uuid.UUID(nil), m.Team2PlayerIDs...),
		GameNumber:            gameNumber,
	}}
	return g
}
