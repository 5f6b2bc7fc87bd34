package auth

import "fmt"

// Policy decides what happens when the positive session check fails after
// an otherwise clean login.
type Policy string

const (
	// PolicyStrict fails the login.
	PolicyStrict Policy = "strict"
	// PolicyLenientURL accepts the login when the browser is no longer on
	// a login or challenge URL.
	PolicyLenientURL Policy = "lenient"
)

// ParsePolicy parses a policy name. Empty means strict.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return PolicyStrict, nil
	case "lenient", "lenient-url":
		return PolicyLenientURL, nil
	}
	return "", fmt.Errorf("unknown auth policy %q (use strict or lenient)", s)
}

// Strategy decides how challenge solvers are run.
type Strategy string

const (
	// StrategyRace runs every available solver at once; the first token wins.
	StrategyRace Strategy = "race"
	// StrategySequential runs solvers one after another in priority order.
	StrategySequential Strategy = "sequential"
)

// ParseStrategy parses a strategy name. Empty means race.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "race":
		return StrategyRace, nil
	case "sequential":
		return StrategySequential, nil
	}
	return "", fmt.Errorf("unknown challenge strategy %q (use race or sequential)", s)
}
