package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"scrim-tracker/internal/domain"
	"scrim-tracker/internal/rating"
	"scrim-tracker/internal/repository"
)

// In-memory fakes for the store interfaces. They hand back the stored
// pointers so state appended through a service call is visible to the next
// load, the way a real repository round-trip would be.

type fakeMatchStore struct {
	matches   map[uuid.UUID]*domain.Match
	createErr error
	appendErr error
	appended  []*domain.MatchStateSnapshot
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[uuid.UUID]*domain.Match)}
}

func (f *fakeMatchStore) Create(_ context.Context, m *domain.Match) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.matches[m.ID] = m
	return nil
}

func (f *fakeMatchStore) Get(_ context.Context, id uuid.UUID) (*domain.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeMatchStore) AppendSnapshot(_ context.Context, snap *domain.MatchStateSnapshot, _ time.Time) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, snap)
	return nil
}

type fakeGameStore struct {
	games     map[uuid.UUID]*domain.Game
	createErr error
	appendErr error
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: make(map[uuid.UUID]*domain.Game)}
}

func (f *fakeGameStore) Create(_ context.Context, g *domain.Game) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.games[g.ID] = g
	return nil
}

func (f *fakeGameStore) Get(_ context.Context, id uuid.UUID) (*domain.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return g, nil
}

func (f *fakeGameStore) ListByMatch(_ context.Context, matchID uuid.UUID) ([]domain.Game, error) {
	var out []domain.Game
	for _, g := range f.games {
		if g.MatchID == matchID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}

func (f *fakeGameStore) AppendSnapshot(_ context.Context, snap *domain.GameStateSnapshot, _ time.Time) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	// mirror the append onto the stored game so ListByMatch sees it
	if g, ok := f.games[snap.GameID]; ok {
		cur := g.StateHistory[len(g.StateHistory)-1]
		if cur.ID != snap.ID {
			g.StateHistory = append(g.StateHistory, *snap)
		}
	}
	return nil
}

type fakeReplayStore struct {
	replays []domain.Replay
}

func (f *fakeReplayStore) Create(_ context.Context, r *domain.Replay) error {
	f.replays = append(f.replays, *r)
	return nil
}

func (f *fakeReplayStore) ListByGame(_ context.Context, gameID uuid.UUID) ([]domain.Replay, error) {
	var out []domain.Replay
	for _, r := range f.replays {
		if r.GameID == gameID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePlayerStore struct {
	players []domain.Player
}

func (f *fakePlayerStore) GetMany(_ context.Context, ids []uuid.UUID) ([]domain.Player, error) {
	var out []domain.Player
	for _, id := range ids {
		for _, p := range f.players {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	if len(out) != len(ids) {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

type statsKey struct {
	teamID uuid.UUID
	size   domain.TeamSize
}

type fakeTeamStore struct {
	stats   map[statsKey]*domain.TeamStats
	variety map[statsKey]*domain.TeamVarietyStats
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{
		stats:   make(map[statsKey]*domain.TeamStats),
		variety: make(map[statsKey]*domain.TeamVarietyStats),
	}
}

func (f *fakeTeamStore) GetOrCreateStats(_ context.Context, teamID uuid.UUID, size domain.TeamSize) (*domain.TeamStats, error) {
	k := statsKey{teamID, size}
	if s, ok := f.stats[k]; ok {
		return s, nil
	}
	s := &domain.TeamStats{
		ID:            uuid.New(),
		TeamID:        teamID,
		TeamSize:      size,
		InitialRating: rating.InitialRating,
		CurrentRating: rating.InitialRating,
		HighestRating: rating.InitialRating,
	}
	f.stats[k] = s
	return s, nil
}

func (f *fakeTeamStore) UpdateStats(_ context.Context, stats *domain.TeamStats) error {
	f.stats[statsKey{stats.TeamID, stats.TeamSize}] = stats
	return nil
}

func (f *fakeTeamStore) GetOrCreateVariety(_ context.Context, teamID uuid.UUID, size domain.TeamSize) (*domain.TeamVarietyStats, error) {
	k := statsKey{teamID, size}
	if v, ok := f.variety[k]; ok {
		return v, nil
	}
	v := &domain.TeamVarietyStats{ID: uuid.New(), TeamID: teamID, TeamSize: size}
	f.variety[k] = v
	return v, nil
}

func (f *fakeTeamStore) UpdateVariety(_ context.Context, v *domain.TeamVarietyStats) error {
	f.variety[statsKey{v.TeamID, v.TeamSize}] = v
	return nil
}

type fakeEncounterStore struct {
	rows []domain.TeamOpponentEncounter
}

func (f *fakeEncounterStore) CreateBatch(_ context.Context, encounters []domain.TeamOpponentEncounter) error {
	f.rows = append(f.rows, encounters...)
	return nil
}

func (f *fakeEncounterStore) ListRecent(_ context.Context, teamID uuid.UUID, size domain.TeamSize, limit int) ([]domain.TeamOpponentEncounter, error) {
	var out []domain.TeamOpponentEncounter
	for _, e := range f.rows {
		if e.TeamID == teamID && e.TeamSize == size {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeEncounterStore) SetWonForMatch(_ context.Context, matchID, winnerTeamID uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].MatchID == matchID {
			f.rows[i].Won = f.rows[i].TeamID == winnerTeamID
		}
	}
	return nil
}

type fakeParticipantStore struct {
	rows         []domain.MatchParticipant
	setWinnerErr error
}

func (f *fakeParticipantStore) CreateBatch(_ context.Context, participants []domain.MatchParticipant) error {
	f.rows = append(f.rows, participants...)
	return nil
}

func (f *fakeParticipantStore) SetWinner(_ context.Context, matchID, winnerTeamID uuid.UUID, _ time.Time) error {
	if f.setWinnerErr != nil {
		return f.setWinnerErr
	}
	for i := range f.rows {
		if f.rows[i].MatchID == matchID {
			f.rows[i].IsWinner = f.rows[i].TeamID == winnerTeamID
		}
	}
	return nil
}

type fakeCache struct {
	sets   map[string]any
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{sets: make(map[string]any)}
}

func (f *fakeCache) Set(_ context.Context, entityType, id string, v any, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets[entityType+":"+id] = v
	return nil
}
