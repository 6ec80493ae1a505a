package models

import (
	"strings"

	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// Defines the type of option
type OptionType int

const (
	OptionTypeCall OptionType = iota + 1
	OptionTypePut
)

// ParseOptionType converts a case-insensitive token ("call", "Put") to an OptionType
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return OptionTypeCall, nil
	case "put":
		return OptionTypePut, nil
	default:
		return 0, apperrors.InvalidInputf("option type must be Call or Put, got %q", s)
	}
}

func (t OptionType) String() string {
	switch t {
	case OptionTypeCall:
		return "Call"
	case OptionTypePut:
		return "Put"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the declared option types
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

func (t OptionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, apperrors.InvalidInputf("cannot marshal option type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *OptionType) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Defines the market position of a leg
type Direction int

const (
	DirectionLong Direction = iota + 1
	DirectionShort
)

// ParseDirection converts a case-insensitive token ("long", "Short") to a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return DirectionLong, nil
	case "short":
		return DirectionShort, nil
	default:
		return 0, apperrors.InvalidInputf("direction must be Long or Short, got %q", s)
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "Long"
	case DirectionShort:
		return "Short"
	default:
		return "Unknown"
	}
}

// Valid reports whether d is one of the declared directions
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Sign is +1 for long positions and -1 for short ones
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Opposite returns the other side of the market
func (d Direction) Opposite() Direction {
	if d == DirectionShort {
		return DirectionLong
	}
	return DirectionShort
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, apperrors.InvalidInputf("cannot marshal direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Defines when an option may be exercised
type ExerciseStyle int

const (
	ExerciseStyleAmerican ExerciseStyle = iota + 1
	ExerciseStyleEuropean
)

// ParseExerciseStyle converts a case-insensitive token ("american", "European") to an ExerciseStyle
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "american":
		return ExerciseStyleAmerican, nil
	case "european":
		return ExerciseStyleEuropean, nil
	default:
		return 0, apperrors.InvalidInputf("exercise style must be American or European, got %q", s)
	}
}

func (s ExerciseStyle) String() string {
	switch s {
	case ExerciseStyleAmerican:
		return "American"
	case ExerciseStyleEuropean:
		return "European"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the declared exercise styles
func (s ExerciseStyle) Valid() bool {
	return s == ExerciseStyleAmerican || s == ExerciseStyleEuropean
}

func (s ExerciseStyle) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, apperrors.InvalidInputf("cannot marshal exercise style %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *ExerciseStyle) UnmarshalText(text []byte) error {
	parsed, err := ParseExerciseStyle(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// OptionParameters are the inputs of a single pricing call.
// Rates and volatility are decimals (5% is 0.05), time is in years.
type OptionParameters struct {
	Strike       float64 `json:"strike"`
	Spot         float64 `json:"spot"`
	RiskFreeRate float64 `json:"riskFreeRate"`
	TimeToExpiry float64 `json:"timeToExpiry"`
	ImpliedVol   float64 `json:"impliedVol"`
	CarryRate    float64 `json:"carryRate"`
}

// Validate checks the preconditions shared by every pricing model
func (p OptionParameters) Validate() error {
	if p.Strike <= 0 {
		return apperrors.InvalidInputf("strike must be positive, got %g", p.Strike)
	}
	if p.Spot <= 0 {
		return apperrors.InvalidInputf("spot must be positive, got %g", p.Spot)
	}
	if p.TimeToExpiry <= 0 {
		return apperrors.InvalidInputf("time to expiry must be positive, got %g", p.TimeToExpiry)
	}
	if p.ImpliedVol <= 0 {
		return apperrors.InvalidInputf("implied volatility must be positive, got %g", p.ImpliedVol)
	}
	if p.RiskFreeRate < 0 {
		return apperrors.InvalidInputf("risk-free rate must not be negative, got %g", p.RiskFreeRate)
	}
	if p.CarryRate < 0 {
		return apperrors.InvalidInputf("carry rate must not be negative, got %g", p.CarryRate)
	}
	return nil
}

// LatticeConfig controls the size and exercise style of a binomial tree
type LatticeConfig struct {
	Steps int           `json:"steps"`
	Style ExerciseStyle `json:"style"`
	// MaxSteps caps Steps; zero means DefaultMaxLatticeSteps
	MaxSteps int `json:"-"`
}

const (
	// DefaultLatticeSteps is the tree depth used when none is configured
	DefaultLatticeSteps = 300
	// DefaultMaxLatticeSteps bounds the O(N²) backward induction
	DefaultMaxLatticeSteps = 10000
)

// DefaultLatticeConfig returns a 300-step American tree
func DefaultLatticeConfig() LatticeConfig {
	return LatticeConfig{
		Steps:    DefaultLatticeSteps,
		Style:    ExerciseStyleAmerican,
		MaxSteps: DefaultMaxLatticeSteps,
	}
}

// StepLimit returns the largest tree depth the config accepts
func (c LatticeConfig) StepLimit() int {
	if c.MaxSteps > 0 {
		return c.MaxSteps
	}
	return DefaultMaxLatticeSteps
}

// ValidateSteps checks 1 ≤ Steps ≤ StepLimit
func (c LatticeConfig) ValidateSteps() error {
	if c.Steps < 1 {
		return apperrors.InvalidInputf("lattice steps must be at least 1, got %d", c.Steps)
	}
	if limit := c.StepLimit(); c.Steps > limit {
		return apperrors.InvalidInputf("lattice steps must be at most %d, got %d", limit, c.Steps)
	}
	return nil
}

// MarshalCSV writes the type as its display name in chain files
func (t OptionType) MarshalCSV() (string, error) {
	b, err := t.MarshalText()
	return string(b), err
}

// UnmarshalCSV accepts "call"/"put" in any case
func (t *OptionType) UnmarshalCSV(field string) error {
	return t.UnmarshalText([]byte(field))
}
