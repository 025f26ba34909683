package app

import (
	"regexp"

	"github.com/spf13/cobra"

	"github.com/rouletteai/roulette-client/internal/wheel"
)

// negativeNumberFlag matches pflag's error for an argument such as "-1",
// which it reads as a shorthand flag.
var negativeNumberFlag = regexp.MustCompile(`unknown shorthand flag: '\d' in (-\d+)$`)

// OutcomeFlagError is a cobra flag error func for commands taking outcomes
// as arguments. A negative number is reported as an invalid outcome instead
// of an unknown flag.
func OutcomeFlagError(_ *cobra.Command, err error) error {
	if m := negativeNumberFlag.FindStringSubmatch(err.Error()); m != nil {
		if _, perr := wheel.ParseOutcome(m[1]); perr != nil {
			return perr
		}
	}
	return err
}
