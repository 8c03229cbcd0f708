package models

import (
	"fmt"
	"strings"
)

// UnitSystem selects the provider's measurement units
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// ParseUnitSystem parses a unit selector value, case-insensitively
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch UnitSystem(strings.ToLower(strings.TrimSpace(s))) {
	case Metric:
		return Metric, nil
	case Imperial:
		return Imperial, nil
	}
	return "", fmt.Errorf("unknown unit system %q", s)
}

// Valid reports whether u is one of the supported systems
func (u UnitSystem) Valid() bool {
	return u == Metric || u == Imperial
}
