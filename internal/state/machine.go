package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/copystructure"

	"scrim-tracker/internal/domain"
)

// Actor identifies who triggered a transition. Stamped on every snapshot.
type Actor struct {
	UserID   uuid.UUID
	UserName string
}

var matchTransitions = map[domain.MatchStatus][]domain.MatchStatus{
	domain.MatchCreated:    {domain.MatchInProgress, domain.MatchCancelled},
	domain.MatchInProgress: {domain.MatchCompleted, domain.MatchCancelled, domain.MatchForfeited},
	domain.MatchCompleted:  {},
	domain.MatchCancelled:  {},
	domain.MatchForfeited:  {},
}

var gameTransitions = map[domain.GameStatus][]domain.GameStatus{
	domain.GameCreated:    {domain.GameInProgress, domain.GameCancelled},
	domain.GameInProgress: {domain.GameCompleted, domain.GameCancelled, domain.GameForfeited},
	domain.GameCompleted:  {},
	domain.GameCancelled:  {},
	domain.GameForfeited:  {},
}

// CanTransitionMatch reports whether the match's current derived status
// admits the target. The table is the sole admission gate.
func CanTransitionMatch(m *domain.Match, target domain.MatchStatus) bool {
	for _, t := range matchTransitions[MatchStatus(m)] {
		if t == target {
			return true
		}
	}
	return false
}

func CanTransitionGame(g *domain.Game, target domain.GameStatus) bool {
	for _, t := range gameTransitions[GameStatus(g)] {
		if t == target {
			return true
		}
	}
	return false
}

// MatchOption mutates the cloned snapshot before it is appended, for fields
// specific to one transition such as the winner or the forfeiting team.
type MatchOption func(*domain.MatchStateSnapshot)

func WithMatchWinner(teamID uuid.UUID) MatchOption {
	return func(s *domain.MatchStateSnapshot) {
		id := teamID
		s.WinnerID = &id
	}
}

func WithForfeitedTeam(teamID uuid.UUID) MatchOption {
	return func(s *domain.MatchStateSnapshot) {
		id := teamID
		s.ForfeitedTeamID = &id
	}
}

func WithFinalScore(score string) MatchOption {
	return func(s *domain.MatchStateSnapshot) {
		s.FinalScore = score
	}
}

// TryTransitionMatch appends a new snapshot moving the match to target.
// The latest snapshot is deep-cloned so collection fields never alias between
// history entries, the transition timestamp and actor are stamped, and the
// clone is appended. An illegal transition returns false with no mutation.
func TryTransitionMatch(m *domain.Match, target domain.MatchStatus, actor Actor, reason string, opts ...MatchOption) bool {
	if !CanTransitionMatch(m, target) {
		return false
	}

	snap := cloneMatchSnapshot(CurrentMatchSnapshot(m))
	now := time.Now().UTC()
	snap.ID = uuid.New()
	snap.MatchID = m.ID
	snap.Timestamp = now
	snap.TriggeredByUserID = actor.UserID
	snap.TriggeredByUserName = actor.UserName

	switch target {
	case domain.MatchInProgress:
		snap.StartedAt = &now
	case domain.MatchCompleted:
		snap.CompletedAt = &now
	case domain.MatchCancelled:
		snap.CancelledAt = &now
		id := actor.UserID
		snap.CancelledByUserID = &id
		snap.CancellationReason = reason
	case domain.MatchForfeited:
		snap.ForfeitedAt = &now
		id := actor.UserID
		snap.ForfeitedByUserID = &id
		snap.ForfeitReason = reason
	}

	for _, opt := range opts {
		opt(&snap)
	}

	m.StateHistory = append(m.StateHistory, snap)
	m.UpdatedAt = now
	return true
}

type GameOption func(*domain.GameStateSnapshot)

func WithGameWinner(teamID uuid.UUID) GameOption {
	return func(s *domain.GameStateSnapshot) {
		id := teamID
		s.WinnerID = &id
	}
}

// TryTransitionGame appends a new snapshot moving the game to target.
// GameForfeited is not reachable here: games are only forfeited together with
// their match, through ForfeitGame.
func TryTransitionGame(g *domain.Game, target domain.GameStatus, actor Actor, reason string, opts ...GameOption) bool {
	if target == domain.GameForfeited {
		return false
	}
	if !CanTransitionGame(g, target) {
		return false
	}

	snap := cloneGameSnapshot(CurrentGameSnapshot(g))
	now := time.Now().UTC()
	snap.ID = uuid.New()
	snap.GameID = g.ID
	snap.MatchID = g.MatchID
	snap.Timestamp = now
	snap.TriggeredByUserID = actor.UserID
	snap.TriggeredByUserName = actor.UserName

	switch target {
	case domain.GameInProgress:
		snap.StartedAt = &now
	case domain.GameCompleted:
		snap.CompletedAt = &now
	case domain.GameCancelled:
		snap.CancelledAt = &now
		id := actor.UserID
		snap.CancelledByUserID = &id
		snap.CancellationReason = reason
	}

	for _, opt := range opts {
		opt(&snap)
	}

	g.StateHistory = append(g.StateHistory, snap)
	g.UpdatedAt = now
	return true
}

// ForfeitGame is the only way a game reaches Forfeited. It copies the forfeit
// fields out of the match's forfeit snapshot so the game's audit trail always
// mirrors the match's.
func ForfeitGame(g *domain.Game, matchSnap *domain.MatchStateSnapshot, actor Actor) bool {
	if matchSnap == nil || matchSnap.ForfeitedAt == nil {
		return false
	}
	if !CanTransitionGame(g, domain.GameForfeited) {
		return false
	}

	snap := cloneGameSnapshot(CurrentGameSnapshot(g))
	now := time.Now().UTC()
	snap.ID = uuid.New()
	snap.GameID = g.ID
	snap.MatchID = g.MatchID
	snap.Timestamp = now
	snap.TriggeredByUserID = actor.UserID
	snap.TriggeredByUserName = actor.UserName

	forfeitedAt := *matchSnap.ForfeitedAt
	snap.ForfeitedAt = &forfeitedAt
	if matchSnap.ForfeitedByUserID != nil {
		id := *matchSnap.ForfeitedByUserID
		snap.ForfeitedByUserID = &id
	}
	if matchSnap.ForfeitedTeamID != nil {
		id := *matchSnap.ForfeitedTeamID
		snap.ForfeitedTeamID = &id
	}
	snap.ForfeitReason = matchSnap.ForfeitReason

	g.StateHistory = append(g.StateHistory, snap)
	g.UpdatedAt = now
	return true
}

// AppendMatchSnapshot records a non-lifecycle update such as map-ban progress.
// The status the latest snapshot derives to is unchanged by mutate.
func AppendMatchSnapshot(m *domain.Match, actor Actor, mutate func(*domain.MatchStateSnapshot)) *domain.MatchStateSnapshot {
	snap := cloneMatchSnapshot(CurrentMatchSnapshot(m))
	now := time.Now().UTC()
	snap.ID = uuid.New()
	snap.MatchID = m.ID
	snap.Timestamp = now
	snap.TriggeredByUserID = actor.UserID
	snap.TriggeredByUserName = actor.UserName
	if mutate != nil {
		mutate(&snap)
	}
	m.StateHistory = append(m.StateHistory, snap)
	m.UpdatedAt = now
	return CurrentMatchSnapshot(m)
}

// AppendGameSnapshot records a non-lifecycle update such as deck submission.
func AppendGameSnapshot(g *domain.Game, actor Actor, mutate func(*domain.GameStateSnapshot)) *domain.GameStateSnapshot {
	snap := cloneGameSnapshot(CurrentGameSnapshot(g))
	now := time.Now().UTC()
	snap.ID = uuid.New()
	snap.GameID = g.ID
	snap.MatchID = g.MatchID
	snap.Timestamp = now
	snap.TriggeredByUserID = actor.UserID
	snap.TriggeredByUserName = actor.UserName
	if mutate != nil {
		mutate(&snap)
	}
	g.StateHistory = append(g.StateHistory, snap)
	g.UpdatedAt = now
	return CurrentGameSnapshot(g)
}

func cloneMatchSnapshot(s *domain.MatchStateSnapshot) domain.MatchStateSnapshot {
	if s == nil {
		return domain.MatchStateSnapshot{}
	}
	c, err := copystructure.Copy(*s)
	if err != nil {
		// snapshots are plain data; Copy cannot fail on them
		return *s
	}
	return c.(domain.MatchStateSnapshot)
}

func cloneGameSnapshot(s *domain.GameStateSnapshot) domain.GameStateSnapshot {
	if s == nil {
		return domain.GameStateSnapshot{}
	}
	c, err := copystructure.Copy(*s)
	if err != nil {
		return *s
	}
	return c.(domain.GameStateSnapshot)
}
