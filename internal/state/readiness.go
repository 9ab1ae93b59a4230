package state

import (
	"github.com/google/uuid"

	"scrim-tracker/internal/domain"
)

// MatchReadyToStart reports whether both teams have submitted and confirmed
// their map bans. This gate sits outside the transition table: a match that
// fails it simply is not started by the orchestration layer.
func MatchReadyToStart(m *domain.Match) bool {
	s := CurrentMatchSnapshot(m)
	if s == nil {
		return false
	}
	return s.Team1BansSubmitted && s.Team2BansSubmitted &&
		s.Team1BansConfirmed && s.Team2BansConfirmed
}

// GameReadyToStart reports whether every roster player on both teams has
// submitted and confirmed a deck code in this game's current snapshot. Deck
// codes are per-game and never carry over from an earlier game in the match.
func GameReadyToStart(g *domain.Game) bool {
	s := CurrentGameSnapshot(g)
	if s == nil {
		return false
	}
	for _, ids := range [][]uuid.UUID{g.Team1PlayerIDs, g.Team2PlayerIDs} {
		for _, id := range ids {
			if s.PlayerDeckCodes[id] == "" {
				return false
			}
			if !s.PlayerDeckConfirmed[id] {
				return false
			}
		}
	}
	return true
}
