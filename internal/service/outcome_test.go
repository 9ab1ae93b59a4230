package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrim-tracker/internal/domain"
)

func rosterGame() (*domain.Game, []domain.Player) {
	p1, p2 := uuid.New(), uuid.New()
	g := &domain.Game{
		ID:             uuid.New(),
		Team1PlayerIDs: []uuid.UUID{p1},
		Team2PlayerIDs: []uuid.UUID{p2},
	}
	players := []domain.Player{
		{ID: p1, GameUsername: "alpha", PlatformIDs: map[string]string{domain.PlatformEugen: "e1"}},
		{ID: p2, GameUsername: "beta", PlatformIDs: map[string]string{domain.PlatformEugen: "e2"}},
	}
	return g, players
}

func replayWith(victory string, records ...domain.ReplayPlayer) domain.Replay {
	return domain.Replay{ID: uuid.New(), VictoryCode: victory, Players: records}
}

func TestDetermineWinnerNoReplays(t *testing.T) {
	g, players := rosterGame()
	_, err := DetermineWinner(g, nil, players)
	assert.ErrorIs(t, err, ErrNoReplays)
}

func TestDetermineWinnerCountsPerspectives(t *testing.T) {
	g, players := rosterGame()

	// Victory "4" is a win for alliance 0 and a loss for alliance 1, so only
	// the team-1 player contributes a victory.
	replays := []domain.Replay{replayWith("4",
		domain.ReplayPlayer{PlayerUserID: "e1", PlayerAlliance: "0"},
		domain.ReplayPlayer{PlayerUserID: "e2", PlayerAlliance: "1"},
	)}

	winner, err := DetermineWinner(g, replays, players)
	require.NoError(t, err)
	assert.Equal(t, 1, winner)
}

func TestDetermineWinnerAllianceFlip(t *testing.T) {
	g, players := rosterGame()

	// Same code, but the team-2 player sits on alliance 0 this time.
	replays := []domain.Replay{replayWith("6",
		domain.ReplayPlayer{PlayerUserID: "e2", PlayerAlliance: "0"},
		domain.ReplayPlayer{PlayerUserID: "e1", PlayerAlliance: "1"},
	)}

	winner, err := DetermineWinner(g, replays, players)
	require.NoError(t, err)
	assert.Equal(t, 2, winner)
}

func TestDetermineWinnerTieIsAmbiguous(t *testing.T) {
	g, players := rosterGame()

	replays := []domain.Replay{
		replayWith("4", domain.ReplayPlayer{PlayerUserID: "e1", PlayerAlliance: "0"}),
		replayWith("4", domain.ReplayPlayer{PlayerUserID: "e2", PlayerAlliance: "0"}),
	}

	_, err := DetermineWinner(g, replays, players)
	assert.ErrorIs(t, err, ErrAmbiguousOutcome)
}

func TestDetermineWinnerIgnoresUnmatchedRecords(t *testing.T) {
	g, players := rosterGame()

	replays := []domain.Replay{replayWith("4",
		domain.ReplayPlayer{PlayerUserID: "stranger", PlayerAlliance: "0"},
		domain.ReplayPlayer{PlayerUserID: "e1", PlayerAlliance: "0"},
	)}

	winner, err := DetermineWinner(g, replays, players)
	require.NoError(t, err)
	assert.Equal(t, 1, winner)
}

func TestAreAllReplaysSubmitted(t *testing.T) {
	g, players := rosterGame()

	partial := []domain.Replay{replayWith("",
		domain.ReplayPlayer{PlayerUserID: "e1", PlayerAlliance: "0"},
	)}
	assert.False(t, AreAllReplaysSubmitted(g, partial, players))

	full := []domain.Replay{replayWith("",
		domain.ReplayPlayer{PlayerUserID: "e1", PlayerAlliance: "0"},
		domain.ReplayPlayer{PlayerName: "beta", PlayerAlliance: "1"},
	)}
	assert.True(t, AreAllReplaysSubmitted(g, full, players))
}
