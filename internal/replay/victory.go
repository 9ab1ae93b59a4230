package replay

// Outcome is a match result from one player's perspective.
type Outcome string

const (
	Victory Outcome = "Victory"
	Defeat  Outcome = "Defeat"
	Draw    Outcome = "Draw"
	Unknown Outcome = "Unknown"
)

// InterpretVictoryCode reads a replay victory code from the viewpoint of one
// alliance. Codes 4-6 mean alliance 0 won, 0-2 mean alliance 0 lost, anything
// else is a draw; the reading flips for alliance "1". An empty code is
// Unknown, which is not the same as Draw.
func InterpretVictoryCode(code, alliance string) Outcome {
	if code == "" {
		return Unknown
	}

	var result Outcome
	switch code {
	case "4", "5", "6":
		result = Victory
	case "0", "1", "2":
		result = Defeat
	default:
		return Draw
	}

	if alliance == "1" {
		if result == Victory {
			return Defeat
		}
		return Victory
	}
	return result
}
