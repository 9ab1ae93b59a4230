package constants

import "time"

const (
	MatchCacheTTL  = 10 * time.Minute
	GameCacheTTL   = 10 * time.Minute
	ReplayCacheTTL = 60 * time.Minute
	PlayerCacheTTL = 20 * time.Minute
	TeamCacheTTL   = 20 * time.Minute
)

const (
	DatabaseTimeout = 5 * time.Second
	CacheTimeout    = 2 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// Uploaded replay files are renamed to <id>.rpl3; the id length matches
	// the upstream lobby session ids.
	ReplayFileIDLength = 21

	MaxReplayUploadBytes = 32 << 20
)

const (
	DefaultBestOf = 1
	MaxBestOf     = 7
)
