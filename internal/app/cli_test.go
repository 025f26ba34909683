package app

import (
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/rouletteai/roulette-client/internal/errors"
)

func TestOutcomeFlagError(t *testing.T) {
	cmd := &cobra.Command{Use: "spin"}

	tests := []struct {
		name           string
		err            error
		wantValidation bool
	}{
		{"negative outcome", fmt.Errorf("unknown shorthand flag: '1' in -1"), true},
		{"negative two digits", fmt.Errorf("unknown shorthand flag: '1' in -12"), true},
		{"real unknown flag", fmt.Errorf("unknown shorthand flag: 'x' in -x"), false},
		{"unknown long flag", fmt.Errorf("unknown flag: --nope"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutcomeFlagError(cmd, tt.err)
			assert.Equal(t, tt.wantValidation, errors.IsValidation(got))
			if !tt.wantValidation {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}
