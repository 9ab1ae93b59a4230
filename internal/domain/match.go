package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TeamSize int

const (
	OneVOne TeamSize = iota
	TwoVTwo
	ThreeVThree
	FourVFour

	NumTeamSizes = 4
)

func (ts TeamSize) PlayersPerTeam() int {
	return int(ts) + 1
}

func (ts TeamSize) String() string {
	n := ts.PlayersPerTeam()
	return fmt.Sprintf("%dv%d", n, n)
}

func (ts TeamSize) Valid() bool {
	return ts >= OneVOne && ts <= FourVFour
}

type MatchStatus string

const (
	MatchCreated    MatchStatus = "created"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"
	MatchForfeited  MatchStatus = "forfeited"
)

// ParentType records which kind of entity owns a match. A match with neither
// ParentID nor ParentType is a standalone (casual) match.
type ParentType string

const (
	ParentScrimmage  ParentType = "scrimmage"
	ParentTournament ParentType = "tournament"
)

type Match struct {
	ID             uuid.UUID
	Team1ID        uuid.UUID
	Team2ID        uuid.UUID
	Team1PlayerIDs []uuid.UUID
	Team2PlayerIDs []uuid.UUID
	TeamSize       TeamSize
	BestOf         int
	PlayToCompletion bool

	ParentID   *uuid.UUID
	ParentType *ParentType

	// Ordered oldest-first. Current state is always the last element.
	StateHistory []MatchStateSnapshot
	Games        []Game

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchStateSnapshot is an immutable record of everything needed to
// reconstruct match state at one instant. Snapshots hold only IDs and copied
// values, never references to live entities, so history stays valid no matter
// what happens to the match afterwards.
type MatchStateSnapshot struct {
	ID      uuid.UUID
	MatchID uuid.UUID

	Timestamp           time.Time
	TriggeredByUserID   uuid.UUID
	TriggeredByUserName string
	AdditionalData      map[string]string

	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	ForfeitedAt *time.Time

	WinnerID           *uuid.UUID
	CancelledByUserID  *uuid.UUID
	ForfeitedByUserID  *uuid.UUID
	ForfeitedTeamID    *uuid.UUID
	CancellationReason string
	ForfeitReason      string

	CurrentGameNumber int
	CurrentMapID      *uuid.UUID
	FinalScore        string

	AvailableMaps []string
	FinalMapPool  []string
	Team1MapBans  []string
	Team2MapBans  []string

	Team1BansSubmitted bool
	Team2BansSubmitted bool
	Team1BansConfirmed bool
	Team2BansConfirmed bool
}
