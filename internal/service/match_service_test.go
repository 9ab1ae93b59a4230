package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrim-tracker/internal/domain"
	"scrim-tracker/internal/rating"
	"scrim-tracker/internal/state"
)

type matchFixture struct {
	svc          *MatchService
	matches      *fakeMatchStore
	games        *fakeGameStore
	participants *fakeParticipantStore
	encounters   *fakeEncounterStore
	teams        *fakeTeamStore
	cache        *fakeCache
}

func newMatchFixture() *matchFixture {
	f := &matchFixture{
		matches:      newFakeMatchStore(),
		games:        newFakeGameStore(),
		participants: &fakeParticipantStore{},
		encounters:   &fakeEncounterStore{},
		teams:        newFakeTeamStore(),
		cache:        newFakeCache(),
	}
	f.svc = NewMatchService(f.matches, f.games, f.participants, f.encounters, f.teams, f.cache, rating.NewTeamLocker(), zerolog.Nop())
	return f
}

var testActor = state.Actor{UserID: uuid.New(), UserName: "referee"}

func validParams() CreateMatchParams {
	return CreateMatchParams{
		Team1ID:        uuid.New(),
		Team2ID:        uuid.New(),
		Team1PlayerIDs: []uuid.UUID{uuid.New()},
		Team2PlayerIDs: []uuid.UUID{uuid.New()},
		TeamSize:       domain.OneVOne,
		BestOf:         3,
		AvailableMaps:  []string{"alpha", "bravo", "charlie", "delta", "echo"},
		Actor:          testActor,
	}
}

func TestCreateMatchValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateMatchParams)
		wantErr error
	}{
		{
			name:    "team size out of range",
			mutate:  func(p *CreateMatchParams) { p.TeamSize = domain.TeamSize(9) },
			wantErr: ErrInvalidTeamSize,
		},
		{
			name:    "roster smaller than team size",
			mutate:  func(p *CreateMatchParams) { p.TeamSize = domain.TwoVTwo },
			wantErr: ErrInvalidTeamSize,
		},
		{
			name:    "even best-of",
			mutate:  func(p *CreateMatchParams) { p.BestOf = 4 },
			wantErr: ErrInvalidBestOf,
		},
		{
			name:    "best-of above the cap",
			mutate:  func(p *CreateMatchParams) { p.BestOf = 9 },
			wantErr: ErrInvalidBestOf,
		},
		{
			name: "parent id without parent type",
			mutate: func(p *CreateMatchParams) {
				id := uuid.New()
				p.ParentID = &id
			},
			wantErr: ErrInvalidParent,
		},
		{
			name: "parent type without parent id",
			mutate: func(p *CreateMatchParams) {
				pt := domain.ParentTournament
				p.ParentType = &pt
			},
			wantErr: ErrInvalidParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMatchFixture()
			params := validParams()
			tt.mutate(&params)
			_, err := f.svc.CreateMatch(context.Background(), params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.matches.matches)
		})
	}
}

func TestCreateMatchDefaultsBestOf(t *testing.T) {
	f := newMatchFixture()
	params := validParams()
	params.BestOf = 0

	m, err := f.svc.CreateMatch(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, m.BestOf)
	assert.Equal(t, domain.MatchCreated, state.MatchStatus(m))
	assert.Contains(t, f.cache.sets, "match:"+m.ID.String())
}

func TestCreateMatchSurvivesCacheFailure(t *testing.T) {
	f := newMatchFixture()
	f.cache.setErr = errors.New("redis down")

	m, err := f.svc.CreateMatch(context.Background(), validParams())
	require.NoError(t, err)
	assert.NotNil(t, f.matches.matches[m.ID])
}

func TestSubmitMapBansUnknownTeam(t *testing.T) {
	f := newMatchFixture()
	m, err := f.svc.CreateMatch(context.Background(), validParams())
	require.NoError(t, err)

	_, err = f.svc.SubmitMapBans(context.Background(), m.ID, uuid.New(), []string{"alpha"}, testActor)
	assert.ErrorIs(t, err, ErrUnknownTeam)
}

func TestConfirmMapBansBeforeSubmission(t *testing.T) {
	f := newMatchFixture()
	m, err := f.svc.CreateMatch(context.Background(), validParams())
	require.NoError(t, err)

	_, err = f.svc.ConfirmMapBans(context.Background(), m.ID, m.Team1ID, testActor)
	assert.ErrorIs(t, err, ErrBansNotSubmitted)
}

func TestBanFlowFinalizesPool(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	m, err := f.svc.CreateMatch(ctx, validParams())
	require.NoError(t, err)

	_, err = f.svc.SubmitMapBans(ctx, m.ID, m.Team1ID, []string{"alpha", "bravo"}, testActor)
	require.NoError(t, err)
	_, err = f.svc.SubmitMapBans(ctx, m.ID, m.Team2ID, []string{"bravo", "charlie"}, testActor)
	require.NoError(t, err)

	_, err = f.svc.ConfirmMapBans(ctx, m.ID, m.Team1ID, testActor)
	require.NoError(t, err)
	snap := state.CurrentMatchSnapshot(m)
	assert.Empty(t, snap.FinalMapPool, "pool must wait for both confirmations")
	assert.False(t, state.MatchReadyToStart(m))

	_, err = f.svc.ConfirmMapBans(ctx, m.ID, m.Team2ID, testActor)
	require.NoError(t, err)
	snap = state.CurrentMatchSnapshot(m)
	assert.ElementsMatch(t, []string{"delta", "echo"}, snap.FinalMapPool)
	assert.True(t, state.MatchReadyToStart(m))
}

func TestResubmitBansResetsConfirmation(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	m, err := f.svc.CreateMatch(ctx, validParams())
	require.NoError(t, err)

	_, err = f.svc.SubmitMapBans(ctx, m.ID, m.Team1ID, []string{"alpha"}, testActor)
	require.NoError(t, err)
	_, err = f.svc.ConfirmMapBans(ctx, m.ID, m.Team1ID, testActor)
	require.NoError(t, err)

	_, err = f.svc.SubmitMapBans(ctx, m.ID, m.Team1ID, []string{"bravo"}, testActor)
	require.NoError(t, err)
	snap := state.CurrentMatchSnapshot(m)
	assert.True(t, snap.Team1BansSubmitted)
	assert.False(t, snap.Team1BansConfirmed)
}

func TestSubmitMapBansAfterMatchEnded(t *testing.T) {
	f := newMatchFixture()
	m, err := f.svc.CreateMatch(context.Background(), validParams())
	require.NoError(t, err)
	_, err = f.svc.CancelMatch(context.Background(), m.ID, "", testActor)
	require.NoError(t, err)

	_, err = f.svc.SubmitMapBans(context.Background(), m.ID, m.Team1ID, []string{"alpha"}, testActor)
	assert.ErrorIs(t, err, ErrMatchAlreadyEnded)
}

func TestStartMatchNotReady(t *testing.T) {
	f := newMatchFixture()
	m, err := f.svc.CreateMatch(context.Background(), validParams())
	require.NoError(t, err)

	_, err = f.svc.StartMatch(context.Background(), m.ID, uuid.New(), testActor)
	assert.ErrorIs(t, err, ErrMatchNotReady)
	assert.Empty(t, f.participants.rows)
	assert.Empty(t, f.encounters.rows)
}

func banAndConfirm(t *testing.T, f *matchFixture, m *domain.Match) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SubmitMapBans(ctx, m.ID, m.Team1ID, []string{"alpha"}, testActor)
	require.NoError(t, err)
	_, err = f.svc.SubmitMapBans(ctx, m.ID, m.Team2ID, []string{"bravo"}, testActor)
	require.NoError(t, err)
	_, err = f.svc.ConfirmMapBans(ctx, m.ID, m.Team1ID, testActor)
	require.NoError(t, err)
	_, err = f.svc.ConfirmMapBans(ctx, m.ID, m.Team2ID, testActor)
	require.NoError(t, err)
}

func startedMatch(t *testing.T, f *matchFixture) (*domain.Match, uuid.UUID) {
	t.Helper()
	m, err := f.svc.CreateMatch(context.Background(), validParams())
	require.NoError(t, err)
	banAndConfirm(t, f, m)
	mapID := uuid.New()
	m, err = f.svc.StartMatch(context.Background(), m.ID, mapID, testActor)
	require.NoError(t, err)
	return m, mapID
}

func TestStartMatchCreatesParticipantsEncountersAndFirstGame(t *testing.T) {
	f := newMatchFixture()
	m, mapID := startedMatch(t, f)

	assert.Equal(t, domain.MatchInProgress, state.MatchStatus(m))
	snap := state.CurrentMatchSnapshot(m)
	assert.Equal(t, 1, snap.CurrentGameNumber)
	require.NotNil(t, snap.CurrentMapID)
	assert.Equal(t, mapID, *snap.CurrentMapID)

	require.Len(t, f.participants.rows, 2)
	assert.Equal(t, m.Team1ID, f.participants.rows[0].TeamID)
	assert.Equal(t, m.Team2ID, f.participants.rows[1].TeamID)

	require.Len(t, f.encounters.rows, 2)
	assert.Equal(t, f.encounters.rows[0].TeamID, f.encounters.rows[1].OpponentID)
	assert.Equal(t, f.encounters.rows[1].TeamID, f.encounters.rows[0].OpponentID)
	assert.False(t, f.encounters.rows[0].Won)
	assert.False(t, f.encounters.rows[1].Won)

	games, err := f.games.ListByMatch(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 1, games[0].GameNumber)
	assert.Equal(t, mapID, games[0].MapID)
	assert.Equal(t, domain.GameCreated, state.GameStatus(&games[0]))
}

func TestStartMatchTwiceRejected(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)

	_, err := f.svc.StartMatch(context.Background(), m.ID, uuid.New(), testActor)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCancelMatchCancelsOpenGames(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)

	m, err := f.svc.CancelMatch(context.Background(), m.ID, "teams agreed", testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchCancelled, state.MatchStatus(m))
	assert.Equal(t, "teams agreed", state.CurrentMatchSnapshot(m).CancellationReason)

	games, err := f.games.ListByMatch(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, domain.GameCancelled, state.GameStatus(&games[0]))
}

func TestForfeitMatchMirrorsGamesAndSkipsRatings(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)

	g, err := f.games.Get(context.Background(), mustOnlyGameID(t, f, m))
	require.NoError(t, err)
	require.True(t, state.TryTransitionGame(g, domain.GameInProgress, testActor, ""))

	m, err = f.svc.ForfeitMatch(context.Background(), m.ID, m.Team2ID, "no-show", testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchForfeited, state.MatchStatus(m))

	matchSnap := state.CurrentMatchSnapshot(m)
	require.NotNil(t, matchSnap.ForfeitedTeamID)
	assert.Equal(t, m.Team2ID, *matchSnap.ForfeitedTeamID)
	require.NotNil(t, matchSnap.WinnerID)
	assert.Equal(t, m.Team1ID, *matchSnap.WinnerID)

	games, err := f.games.ListByMatch(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, domain.GameForfeited, state.GameStatus(&games[0]))
	gameSnap := state.CurrentGameSnapshot(&games[0])
	assert.Equal(t, matchSnap.ForfeitedAt, gameSnap.ForfeitedAt)
	assert.Equal(t, "no-show", gameSnap.ForfeitReason)

	for _, p := range f.participants.rows {
		assert.Equal(t, p.TeamID == m.Team1ID, p.IsWinner)
	}
	for _, e := range f.encounters.rows {
		assert.Equal(t, e.TeamID == m.Team1ID, e.Won)
	}
	assert.Empty(t, f.teams.stats, "a forfeit must not move ratings")
}

func TestForfeitMatchCancelsUnstartedGames(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)

	m, err := f.svc.ForfeitMatch(context.Background(), m.ID, m.Team1ID, "walkover", testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchForfeited, state.MatchStatus(m))

	// Game one never started, so it cannot mirror the forfeit.
	games, err := f.games.ListByMatch(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, domain.GameCancelled, state.GameStatus(&games[0]))
	assert.Equal(t, "walkover", state.CurrentGameSnapshot(&games[0]).CancellationReason)
}

func TestForfeitMatchUnknownTeam(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)

	_, err := f.svc.ForfeitMatch(context.Background(), m.ID, uuid.New(), "", testActor)
	assert.ErrorIs(t, err, ErrUnknownTeam)
}

func completeGameFor(t *testing.T, f *matchFixture, m *domain.Match, winnerID uuid.UUID, gameNumber int) {
	t.Helper()
	g := state.NewGame(m, uuid.New(), gameNumber, testActor)
	require.True(t, state.TryTransitionGame(g, domain.GameInProgress, testActor, ""))
	require.True(t, state.TryTransitionGame(g, domain.GameCompleted, testActor, "", state.WithGameWinner(winnerID)))
	require.NoError(t, f.games.Create(context.Background(), g))
}

func TestHandleGameCompletedNotDecidedYet(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)
	delete(f.games.games, mustOnlyGameID(t, f, m))

	completeGameFor(t, f, m, m.Team1ID, 1)
	completeGameFor(t, f, m, m.Team2ID, 2)

	require.NoError(t, f.svc.HandleGameCompleted(context.Background(), m.ID, testActor))
	assert.Equal(t, domain.MatchInProgress, state.MatchStatus(m))
	assert.Empty(t, f.teams.stats)
}

func TestHandleGameCompletedCompletesAtMajority(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)
	delete(f.games.games, mustOnlyGameID(t, f, m))

	completeGameFor(t, f, m, m.Team1ID, 1)
	completeGameFor(t, f, m, m.Team1ID, 2)

	require.NoError(t, f.svc.HandleGameCompleted(context.Background(), m.ID, testActor))
	assert.Equal(t, domain.MatchCompleted, state.MatchStatus(m))

	snap := state.CurrentMatchSnapshot(m)
	require.NotNil(t, snap.WinnerID)
	assert.Equal(t, m.Team1ID, *snap.WinnerID)
	assert.Equal(t, "2-0", snap.FinalScore)

	winnerStats := f.teams.stats[statsKey{m.Team1ID, m.TeamSize}]
	loserStats := f.teams.stats[statsKey{m.Team2ID, m.TeamSize}]
	require.NotNil(t, winnerStats)
	require.NotNil(t, loserStats)
	assert.Greater(t, winnerStats.CurrentRating, rating.InitialRating)
	assert.Less(t, loserStats.CurrentRating, rating.InitialRating)
	assert.Equal(t, 1, winnerStats.Wins)
	assert.Equal(t, 1, loserStats.Losses)

	for _, e := range f.encounters.rows {
		assert.Equal(t, e.TeamID == m.Team1ID, e.Won)
	}
	require.NotNil(t, f.teams.variety[statsKey{m.Team1ID, m.TeamSize}])
	require.NotNil(t, f.teams.variety[statsKey{m.Team2ID, m.TeamSize}])
}

func TestHandleGameCompletedPlayToCompletionWaitsForAllGames(t *testing.T) {
	f := newMatchFixture()
	params := validParams()
	params.PlayToCompletion = true
	m, err := f.svc.CreateMatch(context.Background(), params)
	require.NoError(t, err)
	banAndConfirm(t, f, m)
	m, err = f.svc.StartMatch(context.Background(), m.ID, uuid.New(), testActor)
	require.NoError(t, err)
	delete(f.games.games, mustOnlyGameID(t, f, m))

	completeGameFor(t, f, m, m.Team1ID, 1)
	completeGameFor(t, f, m, m.Team1ID, 2)

	require.NoError(t, f.svc.HandleGameCompleted(context.Background(), m.ID, testActor))
	assert.Equal(t, domain.MatchInProgress, state.MatchStatus(m), "two wins of three games played, third still owed")

	completeGameFor(t, f, m, m.Team2ID, 3)
	require.NoError(t, f.svc.HandleGameCompleted(context.Background(), m.ID, testActor))
	assert.Equal(t, domain.MatchCompleted, state.MatchStatus(m))
	assert.Equal(t, "2-1", state.CurrentMatchSnapshot(m).FinalScore)
}

func TestCompleteMatchSwallowsStatisticsFailures(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)
	delete(f.games.games, mustOnlyGameID(t, f, m))
	f.participants.setWinnerErr = errors.New("participants table locked")

	completeGameFor(t, f, m, m.Team1ID, 1)
	completeGameFor(t, f, m, m.Team1ID, 2)

	require.NoError(t, f.svc.HandleGameCompleted(context.Background(), m.ID, testActor))
	assert.Equal(t, domain.MatchCompleted, state.MatchStatus(m))
}

func TestHandleGameCompletedIgnoresEndedMatch(t *testing.T) {
	f := newMatchFixture()
	m, _ := startedMatch(t, f)

	_, err := f.svc.CancelMatch(context.Background(), m.ID, "", testActor)
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleGameCompleted(context.Background(), m.ID, testActor))
	assert.Equal(t, domain.MatchCancelled, state.MatchStatus(m))
}

func mustOnlyGameID(t *testing.T, f *matchFixture, m *domain.Match) uuid.UUID {
	t.Helper()
	games, err := f.games.ListByMatch(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	return games[0].ID
}
