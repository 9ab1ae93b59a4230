package domain

import (
	"time"

	"github.com/google/uuid"
)

// Platform keys for Player.PlatformIDs / PreviousPlatformIDs.
const (
	PlatformEugen = "EugenSystems"
	PlatformSteam = "Steam"
)

type Player struct {
	ID   uuid.UUID
	Name string

	// In-game username as seen in submitted replays, plus every previous one.
	GameUsername          string
	PreviousGameUsernames []string

	// Current platform IDs keyed by platform name, and the full history of
	// IDs a player has ever used per platform.
	PlatformIDs         map[string]string
	PreviousPlatformIDs map[string][]string

	TeamIDs    []uuid.UUID
	LastActive time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
