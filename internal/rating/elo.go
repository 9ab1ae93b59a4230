package rating

import (
	"math"
	"time"

	"scrim-tracker/internal/domain"
)

// InitialRating seeds a team's first stats record for a team size.
const InitialRating = 1000.0

// KFactor returns the rating volatility for a team by matches played.
// New teams converge fast, established teams stay stable.
func KFactor(matchesPlayed int) float64 {
	if matchesPlayed < 10 {
		return 40.0
	}
	if matchesPlayed < 20 {
		return 32.0
	}
	return 24.0
}

// ExpectedScore is the classic Elo win expectancy for a against b.
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// ApplyResult updates both teams' stats records for one completed match.
// Expected scores and K factors are read before either rating moves so the
// update is symmetric. Streaks are signed: a result against the streak's
// direction resets it to plus or minus one, never to zero.
func ApplyResult(winner, loser *domain.TeamStats, completedAt time.Time) {
	expectedWinner := ExpectedScore(winner.CurrentRating, loser.CurrentRating)
	expectedLoser := 1.0 - expectedWinner

	kWinner := KFactor(winner.MatchesPlayed())
	kLoser := KFactor(loser.MatchesPlayed())

	winner.CurrentRating += kWinner * (1.0 - expectedWinner)
	loser.CurrentRating += kLoser * (0.0 - expectedLoser)

	winner.Wins++
	loser.Losses++

	winner.CurrentStreak = max(0, winner.CurrentStreak) + 1
	loser.CurrentStreak = min(0, loser.CurrentStreak) - 1

	if s := abs(winner.CurrentStreak); s > winner.LongestStreak {
		winner.LongestStreak = s
	}
	if s := abs(loser.CurrentStreak); s > loser.LongestStreak {
		loser.LongestStreak = s
	}

	if winner.CurrentRating > winner.HighestRating {
		winner.HighestRating = winner.CurrentRating
	}

	winner.LastMatchAt = completedAt
	loser.LastMatchAt = completedAt
	winner.LastUpdated = completedAt
	loser.LastUpdated = completedAt
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
