package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"scrim-tracker/internal/domain"
)

var (
	ErrNoJSONFound       = errors.New("no json metadata marker found in replay")
	ErrInvalidJSON       = errors.New("invalid json in replay metadata")
	ErrMissingGameSection = errors.New("replay metadata has no game section")
)

const (
	jsonMarker   = `{"game":`
	endDelimiter = "star"
	playerPrefix = "player_"
)

var (
	backslashRuns = regexp.MustCompile(`\\+`)
	resultBlock   = regexp.MustCompile(`\{"Duration":"(\d+)","Victory":"(\d+)"\}`)
)

// Parse decodes the raw bytes of a .rpl3 file into a Replay with its
// ReplayPlayers. The metadata JSON sits between the game marker and the first
// "star" token after it, double-escaped; the duration/victory result block
// lives elsewhere in the file and may be absent entirely.
func Parse(data []byte, originalFilename string) (*domain.Replay, error) {
	text := string(data)

	start := strings.Index(text, jsonMarker)
	if start < 0 {
		return nil, ErrNoJSONFound
	}

	slice := text[start:]
	if end := strings.Index(slice, endDelimiter); end >= 0 {
		slice = slice[:end]
	}

	slice = backslashRuns.ReplaceAllString(slice, `\`)
	slice = strings.ReplaceAll(slice, `\"`, `"`)
	slice = strings.TrimSpace(slice)

	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(slice), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	gameRaw, ok := root["game"]
	if !ok {
		return nil, ErrMissingGameSection
	}
	game, err := decodeSection(gameRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	now := time.Now().UTC()
	r := &domain.Replay{
		ID:                  uuid.New(),
		GameMode:            stringField(game, "GameMode"),
		Map:                 stringField(game, "Map"),
		AllowObservers:      stringField(game, "AllowObservers"),
		ObserverDelay:       stringField(game, "ObserverDelay"),
		Seed:                stringField(game, "Seed"),
		Private:             stringField(game, "Private"),
		ServerName:          stringField(game, "ServerName"),
		Version:             stringField(game, "Version"),
		UniqueSessionID:     stringField(game, "UniqueSessionId"),
		ModList:             stringField(game, "ModList"),
		ModTagList:          stringField(game, "ModTagList"),
		EnvironmentSettings: stringField(game, "EnvironmentSettings"),
		GameType:            stringField(game, "GameType"),
		InitMoney:           stringField(game, "InitMoney"),
		TimeLimit:           stringField(game, "TimeLimit"),
		ScoreLimit:          stringField(game, "ScoreLimit"),
		CombatRule:          stringField(game, "CombatRule"),
		IncomeRate:          stringField(game, "IncomeRate"),
		Upkeep:              stringField(game, "Upkeep"),
		OriginalFilename:    originalFilename,
		FileSizeBytes:       int64(len(data)),
		CreatedAt:           now,
	}

	// The result block is written by the game after the metadata and is
	// scanned over the whole file, not the metadata slice. Absence leaves
	// both fields unset.
	if m := resultBlock.FindStringSubmatch(text); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			r.DurationSeconds = d
		}
		r.VictoryCode = m[2]
	}

	// Deterministic player order: walk player_1, player_2, ... as far as the
	// keys go, then sweep any remaining player_* keys.
	seen := map[string]bool{}
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s%d", playerPrefix, i)
		raw, ok := root[key]
		if !ok {
			break
		}
		seen[key] = true
		if p, err := decodePlayer(raw, r.ID, now); err == nil {
			r.Players = append(r.Players, p)
		}
	}
	for key, raw := range root {
		if seen[key] || !strings.HasPrefix(key, playerPrefix) {
			continue
		}
		if p, err := decodePlayer(raw, r.ID, now); err == nil {
			r.Players = append(r.Players, p)
		}
	}

	return r, nil
}

func decodePlayer(raw json.RawMessage, replayID uuid.UUID, now time.Time) (domain.ReplayPlayer, error) {
	section, err := decodeSection(raw)
	if err != nil {
		return domain.ReplayPlayer{}, err
	}
	return domain.ReplayPlayer{
		ID:                uuid.New(),
		ReplayID:          replayID,
		PlayerUserID:      stringField(section, "PlayerUserId"),
		PlayerName:        stringField(section, "PlayerName"),
		PlayerElo:         stringField(section, "PlayerElo"),
		PlayerLevel:       stringField(section, "PlayerLevel"),
		PlayerAlliance:    stringField(section, "PlayerAlliance"),
		PlayerScoreLimit:  stringField(section, "PlayerScoreLimit"),
		PlayerIncomeRate:  stringField(section, "PlayerIncomeRate"),
		PlayerAvatar:      stringField(section, "PlayerAvatar"),
		PlayerReady:       stringField(section, "PlayerReady"),
		PlayerDeckContent: stringField(section, "PlayerDeckContent"),
		PlayerDeckName:    stringField(section, "PlayerDeckName"),
		CreatedAt:         now,
	}, nil
}

func decodeSection(raw json.RawMessage) (map[string]any, error) {
	var section map[string]any
	if err := json.Unmarshal(raw, &section); err != nil {
		return nil, err
	}
	return section, nil
}

// stringField extracts an optional string, rendering non-string scalars the
// game occasionally writes (numbers, booleans) as their text form. Missing
// fields come back empty.
func stringField(section map[string]any, key string) string {
	v, ok := section[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
