package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretVictoryCode(t *testing.T) {
	tests := []struct {
		code     string
		alliance string
		want     Outcome
	}{
		{"4", "0", Victory},
		{"5", "0", Victory},
		{"6", "0", Victory},
		{"0", "0", Defeat},
		{"1", "0", Defeat},
		{"2", "0", Defeat},
		{"4", "1", Defeat},
		{"6", "1", Defeat},
		{"0", "1", Victory},
		{"2", "1", Victory},
		{"3", "0", Draw},
		{"3", "1", Draw},
		{"7", "0", Draw},
		{"", "0", Unknown},
		{"", "1", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.alliance, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpretVictoryCode(tt.code, tt.alliance))
		})
	}
}
