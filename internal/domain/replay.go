package domain

import (
	"time"

	"github.com/google/uuid"
)

// Replay is a parsed .rpl3 artifact linked to exactly one game and match.
// The victory code and duration come from a result block that is physically
// separate from the metadata block inside the file; both stay zero when the
// block is absent.
type Replay struct {
	ID      uuid.UUID
	GameID  uuid.UUID
	MatchID uuid.UUID

	GameMode            string
	Map                 string
	AllowObservers      string
	ObserverDelay       string
	Seed                string
	Private             string
	ServerName          string
	Version             string
	UniqueSessionID     string
	ModList             string
	ModTagList          string
	EnvironmentSettings string
	GameType            string
	InitMoney           string
	TimeLimit           string
	ScoreLimit          string
	CombatRule          string
	IncomeRate          string
	Upkeep              string

	OriginalFilename string
	FilePath         string
	FileSizeBytes    int64

	VictoryCode     string // "0"-"2" defeat, "4"-"6" victory for alliance 0
	DurationSeconds int

	Players []ReplayPlayer

	CreatedAt time.Time
}

// ReplayPlayer is one per-player record inside a replay. Alliance is "0" or
// "1" and decides how the replay's victory code reads from this player's
// perspective.
type ReplayPlayer struct {
	ID       uuid.UUID
	ReplayID uuid.UUID

	PlayerUserID     string // Eugen Systems user ID
	PlayerName       string
	PlayerElo        string
	PlayerLevel      string
	PlayerAlliance   string
	PlayerScoreLimit string
	PlayerIncomeRate string
	PlayerAvatar     string
	PlayerReady      string
	PlayerDeckContent string
	PlayerDeckName    string

	CreatedAt time.Time
}
