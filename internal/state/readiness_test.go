package state

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrim-tracker/internal/domain"
)

func TestMatchReadyToStart(t *testing.T) {
	m := newTestMatch(t)
	assert.False(t, MatchReadyToStart(m))

	AppendMatchSnapshot(m, testActor, func(s *domain.MatchStateSnapshot) {
		s.Team1MapBans = []string{"alpha"}
		s.Team1BansSubmitted = true
		s.Team2MapBans = []string{"bravo"}
		s.Team2BansSubmitted = true
	})
	assert.False(t, MatchReadyToStart(m), "submitted but unconfirmed bans are not ready")

	AppendMatchSnapshot(m, testActor, func(s *domain.MatchStateSnapshot) {
		s.Team1BansConfirmed = true
	})
	assert.False(t, MatchReadyToStart(m))

	AppendMatchSnapshot(m, testActor, func(s *domain.MatchStateSnapshot) {
		s.Team2BansConfirmed = true
	})
	assert.True(t, MatchReadyToStart(m))
}

func TestGameReadyToStart(t *testing.T) {
	m := NewMatch(uuid.New(), uuid.New(),
		[]uuid.UUID{uuid.New(), uuid.New()}, []uuid.UUID{uuid.New(), uuid.New()},
		domain.TwoVTwo, 3, false, nil, testActor)
	g := NewGame(m, uuid.New(), 1, testActor)

	assert.False(t, GameReadyToStart(g))

	all := append(append([]uuid.UUID{}, m.Team1PlayerIDs...), m.Team2PlayerIDs...)
	for _, id := range all[:3] {
		playerID := id
		AppendGameSnapshot(g, testActor, func(s *domain.GameStateSnapshot) {
			s.PlayerDeckCodes[playerID] = "deck-" + playerID.String()[:8]
			s.PlayerDeckSubmittedAt[playerID] = time.Now().UTC()
			s.PlayerDeckConfirmed[playerID] = true
			s.PlayerDeckConfirmedAt[playerID] = time.Now().UTC()
		})
	}
	assert.False(t, GameReadyToStart(g), "one player still missing a deck")

	last := all[3]
	AppendGameSnapshot(g, testActor, func(s *domain.GameStateSnapshot) {
		s.PlayerDeckCodes[last] = "deck-final"
		s.PlayerDeckSubmittedAt[last] = time.Now().UTC()
	})
	assert.False(t, GameReadyToStart(g), "submitted but unconfirmed deck is not ready")

	AppendGameSnapshot(g, testActor, func(s *domain.GameStateSnapshot) {
		s.PlayerDeckConfirmed[last] = true
		s.PlayerDeckConfirmedAt[last] = time.Now().UTC()
	})
	assert.True(t, GameReadyToStart(g))
}

func TestDeckStateIsPerGame(t *testing.T) {
	m := NewMatch(uuid.New(), uuid.New(),
		[]uuid.UUID{uuid.New()}, []uuid.UUID{uuid.New()},
		domain.OneVOne, 3, false, nil, testActor)
	g1 := NewGame(m, uuid.New(), 1, testActor)

	for _, id := range append(append([]uuid.UUID{}, m.Team1PlayerIDs...), m.Team2PlayerIDs...) {
		playerID := id
		AppendGameSnapshot(g1, testActor, func(s *domain.GameStateSnapshot) {
			s.PlayerDeckCodes[playerID] = "deck"
			s.PlayerDeckConfirmed[playerID] = true
		})
	}
	require.True(t, GameReadyToStart(g1))

	g2 := NewGame(m, uuid.New(), 2, testActor)
	assert.False(t, GameReadyToStart(g2), "deck codes never carry over between games")
	assert.Empty(t, CurrentGameSnapshot(g2).PlayerDeckCodes)
}
