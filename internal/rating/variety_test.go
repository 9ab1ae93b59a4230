package rating

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"scrim-tracker/internal/domain"
)

func encountersAgainst(opponents ...uuid.UUID) []domain.TeamOpponentEncounter {
	out := make([]domain.TeamOpponentEncounter, len(opponents))
	for i, op := range opponents {
		out[i] = domain.TeamOpponentEncounter{ID: uuid.New(), OpponentID: op}
	}
	return out
}

func TestEntropySingleOpponentIsZero(t *testing.T) {
	op := uuid.New()
	assert.Zero(t, Entropy(encountersAgainst(op, op, op, op)))
	assert.Zero(t, Entropy(nil))
}

func TestEntropyUniformDistributionIsOne(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	e := Entropy(encountersAgainst(a, b, c, d))
	assert.InDelta(t, 1.0, e, 1e-9)
}

func TestEntropyIncreasesTowardUniform(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	concentrated := Entropy(encountersAgainst(a, a, a, b))
	balanced := Entropy(encountersAgainst(a, a, b, b))
	assert.Greater(t, balanced, concentrated)
	assert.InDelta(t, 1.0, balanced, 1e-9)
}

func TestBonusBounds(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		unique int
		want   float64
	}{
		{"no encounters", 0, 0, 0},
		{"one unique", 1, 1, 0.1},
		{"five unique no repeats", 5, 5, 0.5},
		{"breadth caps at one", 20, 20, 1.0},
		{"repeats penalized", 10, 5, 0.25},
		{"heavy farming floors at zero", 100, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bonus(tt.total, tt.unique)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestEffectiveRatingNeverLowers(t *testing.T) {
	base := 1200.0
	assert.Equal(t, base, EffectiveRating(base, 0, 0))
	assert.InDelta(t, base*1.1, EffectiveRating(base, 1, 1), 1e-9, "full variety adds exactly 10%")
	assert.Greater(t, EffectiveRating(base, 0.5, 0.2), base)
}

func TestRecomputeVariety(t *testing.T) {
	now := time.Now().UTC()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	encounters := encountersAgainst(a, b, c, a, b, a)

	var v domain.TeamVarietyStats
	RecomputeVariety(&v, encounters, now)

	assert.Equal(t, 6, v.TotalOpponents)
	assert.Equal(t, 3, v.UniqueOpponents)
	assert.Greater(t, v.VarietyEntropy, 0.0)
	assert.LessOrEqual(t, v.VarietyEntropy, 1.0)
	assert.InDelta(t, Bonus(6, 3), v.VarietyBonus, 1e-9)
	assert.Equal(t, now, v.LastCalculated)

	// same encounter set recomputes to identical numbers
	prev := v
	RecomputeVariety(&v, encounters, now)
	assert.Equal(t, prev, v)
}

func TestRecomputeVarietyWindow(t *testing.T) {
	now := time.Now().UTC()
	recent := uuid.New()
	old := uuid.New()

	var encounters []domain.TeamOpponentEncounter
	for i := 0; i < EncounterWindow; i++ {
		encounters = append(encounters, domain.TeamOpponentEncounter{ID: uuid.New(), OpponentID: recent})
	}
	encounters = append(encounters, domain.TeamOpponentEncounter{ID: uuid.New(), OpponentID: old})

	var v domain.TeamVarietyStats
	RecomputeVariety(&v, encounters, now)

	assert.Equal(t, EncounterWindow, v.TotalOpponents)
	assert.Equal(t, 1, v.UniqueOpponents, "encounters beyond the window are ignored")
	assert.Zero(t, v.VarietyEntropy)
}
