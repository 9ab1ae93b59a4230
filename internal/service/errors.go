package service

import "errors"

var (
	// ErrAmbiguousOutcome means the replays produced an exact victory-count
	// tie. Ties are never broken automatically; they need a human call.
	ErrAmbiguousOutcome = errors.New("replay victory counts are tied")

	ErrNoReplays          = errors.New("no replays submitted for game")
	ErrReplaysIncomplete  = errors.New("not every player has submitted a replay")
	ErrIllegalTransition  = errors.New("illegal lifecycle transition")
	ErrMatchNotReady      = errors.New("match is not ready to start")
	ErrGameNotReady       = errors.New("game is not ready to start")
	ErrUnknownTeam        = errors.New("team is not part of this match")
	ErrUnknownPlayer      = errors.New("player is not on either roster")
	ErrInvalidTeamSize    = errors.New("invalid team size")
	ErrInvalidBestOf      = errors.New("best-of must be an odd number within limits")
	ErrInvalidParent      = errors.New("parent id and parent type must both be set or both be absent")
	ErrBansNotSubmitted   = errors.New("map bans have not been submitted")
	ErrDeckNotSubmitted   = errors.New("deck code has not been submitted")
	ErrMatchAlreadyEnded  = errors.New("match is in a terminal state")
	ErrReplayTooLarge     = errors.New("replay file exceeds the upload limit")
)
