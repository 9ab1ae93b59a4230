package rating

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"scrim-tracker/internal/domain"
)

// EncounterWindow bounds how many recent encounters feed the variety
// computation.
const EncounterWindow = 100

// Entropy returns the Shannon entropy of the opponent distribution,
// normalized by ln(unique) into [0,1]. A single unique opponent yields 0.
func Entropy(encounters []domain.TeamOpponentEncounter) float64 {
	counts := map[string]int{}
	for _, e := range encounters {
		counts[e.OpponentID.String()]++
	}
	unique := len(counts)
	if unique <= 1 {
		return 0
	}

	total := float64(len(encounters))
	p := make([]float64, 0, unique)
	for _, c := range counts {
		p = append(p, float64(c)/total)
	}
	return stat.Entropy(p) / math.Log(float64(unique))
}

// Bonus rewards opponent breadth and penalizes repeat pairings beyond the
// unique set. Always within [0,1].
func Bonus(totalEncounters, uniqueOpponents int) float64 {
	breadth := math.Min(float64(uniqueOpponents)*0.1, 1.0)
	repeats := math.Max(0, float64(totalEncounters-uniqueOpponents)) * 0.05
	return math.Max(0, breadth-repeats)
}

// EffectiveRating layers the variety score on top of the base rating.
// Variety never lowers a rating; it adds at most 10% of the base.
func EffectiveRating(currentRating, entropy, bonus float64) float64 {
	return currentRating + (0.7*entropy+0.3*bonus)*0.1*currentRating
}

// RecomputeVariety rebuilds a team's variety record from its most recent
// encounters. Callers pass encounters newest first; only the window is used.
func RecomputeVariety(v *domain.TeamVarietyStats, encounters []domain.TeamOpponentEncounter, now time.Time) {
	if len(encounters) > EncounterWindow {
		encounters = encounters[:EncounterWindow]
	}

	unique := map[string]struct{}{}
	for _, e := range encounters {
		unique[e.OpponentID.String()] = struct{}{}
	}

	v.TotalOpponents = len(encounters)
	v.UniqueOpponents = len(unique)
	v.VarietyEntropy = Entropy(encounters)
	v.VarietyBonus = Bonus(v.TotalOpponents, v.UniqueOpponents)
	v.LastCalculated = now
	v.LastUpdated = now
}
