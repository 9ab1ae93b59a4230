package identity

import (
	"net/url"
	"strconv"
	"strings"

	"scrim-tracker/internal/domain"
)

const steamAvatarSegment = "SteamGamerPicture"

// Matches reports whether a replay-reported player record belongs to a roster
// player. Rules are checked in order and the first hit wins:
//
//  1. the replay's platform user ID equals the player's current or any
//     historical Eugen Systems ID
//  2. a Steam ID extracted from the replay avatar URL equals the player's
//     current or any historical Steam ID
//  3. the replay's player name equals the player's current or any previous
//     in-game username
//
// A player matching no rule against any replay is treated as not having
// submitted a replay, not as an error.
func Matches(player *domain.Player, rp *domain.ReplayPlayer) bool {
	if rp.PlayerUserID != "" {
		if player.PlatformIDs[domain.PlatformEugen] == rp.PlayerUserID {
			return true
		}
		for _, id := range player.PreviousPlatformIDs[domain.PlatformEugen] {
			if id == rp.PlayerUserID {
				return true
			}
		}
	}

	if steamID, ok := ExtractSteamID(rp.PlayerAvatar); ok {
		if player.PlatformIDs[domain.PlatformSteam] == steamID {
			return true
		}
		for _, id := range player.PreviousPlatformIDs[domain.PlatformSteam] {
			if id == steamID {
				return true
			}
		}
	}

	if rp.PlayerName != "" {
		if player.GameUsername == rp.PlayerName {
			return true
		}
		for _, name := range player.PreviousGameUsernames {
			if name == rp.PlayerName {
				return true
			}
		}
	}

	return false
}

// ExtractSteamID pulls a numeric Steam ID out of an avatar URL whose
// second-to-last path segment is SteamGamerPicture (case-insensitive) and
// whose last segment is an integer.
func ExtractSteamID(avatarURL string) (string, bool) {
	if avatarURL == "" {
		return "", false
	}
	u, err := url.Parse(avatarURL)
	if err != nil {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", false
	}
	last := segments[len(segments)-1]
	penultimate := segments[len(segments)-2]

	if !strings.EqualFold(penultimate, steamAvatarSegment) {
		return "", false
	}
	if _, err := strconv.ParseInt(last, 10, 64); err != nil {
		return "", false
	}
	return last, true
}
