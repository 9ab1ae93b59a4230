package state

import (
	"scrim-tracker/internal/domain"
)

// CurrentMatchSnapshot returns the latest snapshot, or nil for a match with
// an empty history.
func CurrentMatchSnapshot(m *domain.Match) *domain.MatchStateSnapshot {
	if len(m.StateHistory) == 0 {
		return nil
	}
	return &m.StateHistory[len(m.StateHistory)-1]
}

func CurrentGameSnapshot(g *domain.Game) *domain.GameStateSnapshot {
	if len(g.StateHistory) == 0 {
		return nil
	}
	return &g.StateHistory[len(g.StateHistory)-1]
}

// DeriveMatchStatus folds a single snapshot into a status. Terminal fields
// are checked in fixed priority order: completed beats cancelled beats
// forfeited beats started. Absence of all four means Created.
func DeriveMatchStatus(s *domain.MatchStateSnapshot) domain.MatchStatus {
	switch {
	case s == nil:
		return domain.MatchCreated
	case s.CompletedAt != nil:
		return domain.MatchCompleted
	case s.CancelledAt != nil:
		return domain.MatchCancelled
	case s.ForfeitedAt != nil:
		return domain.MatchForfeited
	case s.StartedAt != nil:
		return domain.MatchInProgress
	default:
		return domain.MatchCreated
	}
}

func DeriveGameStatus(s *domain.GameStateSnapshot) domain.GameStatus {
	switch {
	case s == nil:
		return domain.GameCreated
	case s.CompletedAt != nil:
		return domain.GameCompleted
	case s.CancelledAt != nil:
		return domain.GameCancelled
	case s.ForfeitedAt != nil:
		return domain.GameForfeited
	case s.StartedAt != nil:
		return domain.GameInProgress
	default:
		return domain.GameCreated
	}
}

// MatchStatus derives the match's current status from its latest snapshot.
func MatchStatus(m *domain.Match) domain.MatchStatus {
	return DeriveMatchStatus(CurrentMatchSnapshot(m))
}

func GameStatus(g *domain.Game) domain.GameStatus {
	return DeriveGameStatus(CurrentGameSnapshot(g))
}
