package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team owns one stats record and one variety record per team size. Team size
// is a small closed enum, so both live in fixed-size arrays indexed by its
// ordinal; a nil slot means the team has not played that size yet.
type Team struct {
	ID        uuid.UUID
	Name      string
	Tag       string
	CaptainID uuid.UUID
	TeamSize  TeamSize

	Stats        [NumTeamSizes]*TeamStats
	VarietyStats [NumTeamSizes]*TeamVarietyStats

	LastActive time.Time
	IsArchived bool
	ArchivedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TeamStats struct {
	ID       uuid.UUID
	TeamID   uuid.UUID
	TeamSize TeamSize

	Wins   int
	Losses int

	InitialRating float64
	CurrentRating float64
	HighestRating float64

	// Signed: positive counts consecutive wins, negative consecutive losses.
	CurrentStreak int
	LongestStreak int

	LastMatchAt time.Time
	LastUpdated time.Time
}

func (s *TeamStats) MatchesPlayed() int {
	return s.Wins + s.Losses
}

func (s *TeamStats) WinRate() float64 {
	total := s.MatchesPlayed()
	if total == 0 {
		return 0
	}
	return float64(s.Wins) / float64(total)
}

type TeamVarietyStats struct {
	ID       uuid.UUID
	TeamID   uuid.UUID
	TeamSize TeamSize

	VarietyEntropy  float64
	VarietyBonus    float64
	TotalOpponents  int
	UniqueOpponents int

	LastCalculated time.Time
	LastUpdated    time.Time
}

// TeamOpponentEncounter is one row per (team, opponent, match) triple. The
// most recent rows per team feed the variety computation.
type TeamOpponentEncounter struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	OpponentID uuid.UUID
	MatchID    uuid.UUID
	TeamSize   TeamSize

	EncounteredAt time.Time
	Won           bool
}

type MatchParticipant struct {
	ID         uuid.UUID
	MatchID    uuid.UUID
	TeamID     uuid.UUID
	TeamNumber int
	PlayerIDs  []uuid.UUID

	JoinedAt  time.Time
	IsWinner  bool
	UpdatedAt time.Time
}
