package domain

import (
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GameCreated    GameStatus = "created"
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
	GameCancelled  GameStatus = "cancelled"
	GameForfeited  GameStatus = "forfeited"
)

type Game struct {
	ID      uuid.UUID
	MatchID uuid.UUID
	MapID   uuid.UUID

	TeamSize   TeamSize
	GameNumber int // 1-based position in the match
	Team1PlayerIDs []uuid.UUID
	Team2PlayerIDs []uuid.UUID

	// Ordered oldest-first, mirroring the match snapshot pattern.
	StateHistory []GameStateSnapshot

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GameStateSnapshot denormalizes the parent match's ID, map, team size and
// player lists into every snapshot so archived rows never need a join back to
// a live Game or Match.
//
// Deck codes are game-specific: players submit new codes before each game, so
// submission state lives here rather than on the match snapshot.
//
// The forfeit fields mirror the match's forfeit fields. Forfeiting a game
// always forfeits the entire match; a game is never forfeited on its own, and
// these fields are only ever copies made by the match-forfeit path.
type GameStateSnapshot struct {
	ID      uuid.UUID
	GameID  uuid.UUID
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

	PlayerDeckCodes       map[uuid.UUID]string
	PlayerDeckSubmittedAt map[uuid.UUID]time.Time
	PlayerDeckConfirmed   map[uuid.UUID]bool
	PlayerDeckConfirmedAt map[uuid.UUID]time.Time

	MapID          uuid.UUID
	TeamSize       TeamSize
	Team1PlayerIDs []uuid.UUID
	Team2PlayerIDs []uuid.UUID
	GameNumber     int
}
