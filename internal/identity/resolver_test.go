package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scrim-tracker/internal/domain"
)

func TestExtractSteamID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"valid", "https://cdn.example.com/avatars/SteamGamerPicture/76561198000000001", "76561198000000001", true},
		{"case insensitive segment", "https://cdn.example.com/steamgamerpicture/123456", "123456", true},
		{"trailing slash", "https://cdn.example.com/SteamGamerPicture/987654/", "987654", true},
		{"wrong segment", "https://cdn.example.com/avatars/EugenPicture/123", "", false},
		{"non numeric id", "https://cdn.example.com/SteamGamerPicture/notanumber", "", false},
		{"too short", "https://cdn.example.com/123", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSteamID(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches(t *testing.T) {
	player := &domain.Player{
		GameUsername:          "wabbit",
		PreviousGameUsernames: []string{"oldwabbit"},
		PlatformIDs: map[string]string{
			domain.PlatformEugen: "eugen-current",
			domain.PlatformSteam: "76561198000000001",
		},
		PreviousPlatformIDs: map[string][]string{
			domain.PlatformEugen: {"eugen-old"},
			domain.PlatformSteam: {"76561198000000002"},
		},
	}

	tests := []struct {
		name string
		rp   domain.ReplayPlayer
		want bool
	}{
		{"current eugen id", domain.ReplayPlayer{PlayerUserID: "eugen-current"}, true},
		{"historical eugen id", domain.ReplayPlayer{PlayerUserID: "eugen-old"}, true},
		{"unknown eugen id falls through to name", domain.ReplayPlayer{PlayerUserID: "someone-else", PlayerName: "wabbit"}, true},
		{"current steam id via avatar", domain.ReplayPlayer{PlayerAvatar: "https://cdn.example.com/SteamGamerPicture/76561198000000001"}, true},
		{"historical steam id via avatar", domain.ReplayPlayer{PlayerAvatar: "https://cdn.example.com/SteamGamerPicture/76561198000000002"}, true},
		{"foreign steam id", domain.ReplayPlayer{PlayerAvatar: "https://cdn.example.com/SteamGamerPicture/111"}, false},
		{"current username", domain.ReplayPlayer{PlayerName: "wabbit"}, true},
		{"previous username", domain.ReplayPlayer{PlayerName: "oldwabbit"}, true},
		{"unknown everything", domain.ReplayPlayer{PlayerUserID: "nope", PlayerName: "stranger"}, false},
		{"all empty", domain.ReplayPlayer{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(player, &tt.rp))
		})
	}
}

func TestMatchesWithSparsePlayer(t *testing.T) {
	player := &domain.Player{GameUsername: "solo"}

	assert.True(t, Matches(player, &domain.ReplayPlayer{PlayerName: "solo"}))
	assert.False(t, Matches(player, &domain.ReplayPlayer{PlayerUserID: "solo"}),
		"username never matches against platform ids")
	assert.False(t, Matches(player, &domain.ReplayPlayer{PlayerName: ""}))
}
