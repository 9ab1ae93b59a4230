package service

import (
	"github.com/google/uuid"

	"scrim-tracker/internal/domain"
	"scrim-tracker/internal/identity"
	"scrim-tracker/internal/replay"
)

// DetermineWinner aggregates per-replay victory readings into a winning team
// number (1 or 2). For every replay player, the first roster player the
// identity resolver matches claims the record; a Victory reading from that
// player's perspective counts for their team. The strictly higher count wins
// and an exact tie is reported, never broken by default.
func DetermineWinner(g *domain.Game, replays []domain.Replay, players []domain.Player) (int, error) {
	if len(replays) == 0 {
		return 0, ErrNoReplays
	}

	team1 := make(map[uuid.UUID]bool, len(g.Team1PlayerIDs))
	for _, id := range g.Team1PlayerIDs {
		team1[id] = true
	}
	team2 := make(map[uuid.UUID]bool, len(g.Team2PlayerIDs))
	for _, id := range g.Team2PlayerIDs {
		team2[id] = true
	}

	var team1Victories, team2Victories int
	for ri := range replays {
		rep := &replays[ri]
		for pi := range rep.Players {
			rp := &rep.Players[pi]
			for pj := range players {
				p := &players[pj]
				if !identity.Matches(p, rp) {
					continue
				}
				if replay.InterpretVictoryCode(rep.VictoryCode, rp.PlayerAlliance) == replay.Victory {
					switch {
					case team1[p.ID]:
						team1Victories++
					case team2[p.ID]:
						team2Victories++
					}
				}
				break
			}
		}
	}

	switch {
	case team1Victories > team2Victories:
		return 1, nil
	case team2Victories > team1Victories:
		return 2, nil
	default:
		return 0, ErrAmbiguousOutcome
	}
}

// AreAllReplaysSubmitted reports whether every roster player on both teams is
// matched by at least one replay player across the game's replays.
func AreAllReplaysSubmitted(g *domain.Game, replays []domain.Replay, players []domain.Player) bool {
	byID := make(map[uuid.UUID]*domain.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	roster := append(append([]uuid.UUID(nil), g.Team1PlayerIDs...), g.Team2PlayerIDs...)
	for _, id := range roster {
		p, ok := byID[id]
		if !ok {
			return false
		}
		if !playerHasReplay(p, replays) {
			return false
		}
	}
	return true
}

func playerHasReplay(p *domain.Player, replays []domain.Replay) bool {
	for ri := range replays {
		for pi := range replays[ri].Players {
			if identity.Matches(p, &replays[ri].Players[pi]) {
				return true
			}
		}
	}
	return false
}
