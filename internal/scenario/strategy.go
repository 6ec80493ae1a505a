package scenario

import (
	"fmt"
	"strings"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// Kind identifies how a strategy was assembled, which drives its surface labels
type Kind int

const (
	KindCustom Kind = iota
	KindSingle
	KindStraddle
	KindButterfly
	KindIronButterfly
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindStraddle:
		return "straddle"
	case KindButterfly:
		return "butterfly"
	case KindIronButterfly:
		return "iron-butterfly"
	default:
		return "custom"
	}
}

// ParseKind converts a kind name such as "iron-butterfly" to a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "custom":
		return KindCustom, nil
	case "single":
		return KindSingle, nil
	case "straddle":
		return KindStraddle, nil
	case "butterfly":
		return KindButterfly, nil
	case "iron-butterfly":
		return KindIronButterfly, nil
	default:
		return KindCustom, apperrors.InvalidInputf("unknown strategy kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Leg is one option position inside a strategy
type Leg struct {
	Type       models.OptionType `json:"type"`
	Direction  models.Direction  `json:"direction"`
	Multiplier int               `json:"multiplier"`
	Strike     float64           `json:"strike"`
	EntryPrice float64           `json:"entryPrice"`
	ImpliedVol float64           `json:"impliedVol"`
}

// Validate checks the leg in isolation
func (l Leg) Validate() error {
	if !l.Type.Valid() {
		return apperrors.InvalidInputf("leg option type must be Call or Put, got %d", int(l.Type))
	}
	if !l.Direction.Valid() {
		return apperrors.InvalidInputf("leg direction must be Long or Short, got %d", int(l.Direction))
	}
	if l.Multiplier < 1 {
		return apperrors.Validationf("leg multiplier must be at least 1, got %d", l.Multiplier)
	}
	if l.Strike <= 0 {
		return apperrors.InvalidInputf("leg strike must be positive, got %g", l.Strike)
	}
	if l.EntryPrice < 0 {
		return apperrors.InvalidInputf("leg entry price must not be negative, got %g", l.EntryPrice)
	}
	if l.ImpliedVol <= 0 {
		return apperrors.InvalidInputf("leg implied vol must be positive, got %g", l.ImpliedVol)
	}
	return nil
}

// Strategy is a named set of legs priced against one market state
type Strategy struct {
	Name      string           `json:"name"`
	Kind      Kind             `json:"kind"`
	Direction models.Direction `json:"direction,omitempty"`
	Legs      []Leg            `json:"legs"`
}

// Validate checks that the strategy has legs, that each of them is valid and
// that the legs have the shape their Kind requires. Custom strategies only get
// the leg checks.
func (s Strategy) Validate() error {
	if len(s.Legs) == 0 {
		return apperrors.Validationf("strategy %q has no legs", s.Name)
	}
	for i, leg := range s.Legs {
		if err := leg.Validate(); err != nil {
			return apperrors.Wrapf(err, "leg %d", i)
		}
	}

	switch s.Kind {
	case KindSingle:
		return s.expectLegs(1)
	case KindStraddle:
		return s.validateStraddle()
	case KindButterfly:
		return s.validateButterfly()
	case KindIronButterfly:
		return s.validateIronButterfly()
	}
	return nil
}

func (s Strategy) expectLegs(n int) error {
	if len(s.Legs) != n {
		return apperrors.Validationf("%s needs %d legs, got %d", s.Kind, n, len(s.Legs))
	}
	return nil
}

func (s Strategy) validateStraddle() error {
	if err := s.expectLegs(2); err != nil {
		return err
	}
	call, put := s.Legs[0], s.Legs[1]
	if call.Type != models.OptionTypeCall || put.Type != models.OptionTypePut {
		return apperrors.Validationf("straddle legs must be a call then a put")
	}
	if call.Direction != put.Direction {
		return apperrors.Validationf("straddle legs must share a direction")
	}
	if call.Strike != put.Strike {
		return apperrors.Validationf("straddle legs must share a strike, got call %g and put %g", call.Strike, put.Strike)
	}
	return nil
}

func (s Strategy) validateButterfly() error {
	if err := s.expectLegs(3); err != nil {
		return err
	}
	low, atm, high := s.Legs[0], s.Legs[1], s.Legs[2]
	if low.Type != atm.Type || atm.Type != high.Type {
		return apperrors.Validationf("butterfly legs must share an option type")
	}
	if low.Direction != high.Direction || atm.Direction != low.Direction.Opposite() {
		return apperrors.Validationf("butterfly body must be held opposite the wings")
	}
	if low.Multiplier != high.Multiplier || atm.Multiplier != 2*low.Multiplier {
		return apperrors.Validationf("butterfly quantities must be 1:2:1, got %d:%d:%d", low.Multiplier, atm.Multiplier, high.Multiplier)
	}
	if !(low.Strike < atm.Strike && atm.Strike < high.Strike) {
		return apperrors.Validationf("butterfly strikes must satisfy low < atm < high, got %g, %g, %g", low.Strike, atm.Strike, high.Strike)
	}
	return nil
}

func (s Strategy) validateIronButterfly() error {
	if err := s.expectLegs(4); err != nil {
		return err
	}
	lowPut, atmPut, atmCall, highCall := s.Legs[0], s.Legs[1], s.Legs[2], s.Legs[3]
	if lowPut.Type != models.OptionTypePut || atmPut.Type != models.OptionTypePut ||
		atmCall.Type != models.OptionTypeCall || highCall.Type != models.OptionTypeCall {
		return apperrors.Validationf("iron butterfly legs must be put, put, call, call")
	}
	wings, body := lowPut.Direction, atmPut.Direction
	if highCall.Direction != wings || atmCall.Direction != body || body != wings.Opposite() {
		return apperrors.Validationf("iron butterfly body must be held opposite the wings")
	}
	if atmPut.Strike != atmCall.Strike {
		return apperrors.Validationf("iron butterfly body must share a strike, got put %g and call %g", atmPut.Strike, atmCall.Strike)
	}
	if !(lowPut.Strike < atmPut.Strike && atmCall.Strike < highCall.Strike) {
		return apperrors.Validationf("iron butterfly strikes must satisfy low < atm < high, got %g, %g, %g", lowPut.Strike, atmPut.Strike, highCall.Strike)
	}
	return nil
}

// Quote is the observed state of one contract used to build a leg
type Quote struct {
	Strike     float64 `json:"strike"`
	EntryPrice float64 `json:"entryPrice"`
	ImpliedVol float64 `json:"impliedVol"`
}

func (q Quote) leg(optionType models.OptionType, direction models.Direction, multiplier int) Leg {
	return Leg{
		Type:       optionType,
		Direction:  direction,
		Multiplier: multiplier,
		Strike:     q.Strike,
		EntryPrice: q.EntryPrice,
		ImpliedVol: q.ImpliedVol,
	}
}

func checkEnums(optionType models.OptionType, direction models.Direction) error {
	if !optionType.Valid() {
		return apperrors.InvalidInputf("option type must be Call or Put, got %d", int(optionType))
	}
	if !direction.Valid() {
		return apperrors.InvalidInputf("direction must be Long or Short, got %d", int(direction))
	}
	return nil
}

// Single is one long or short option
func Single(optionType models.OptionType, direction models.Direction, quote Quote) (Strategy, error) {
	if err := checkEnums(optionType, direction); err != nil {
		return Strategy{}, err
	}
	s := Strategy{
		Name:      fmt.Sprintf("%s %s", direction, optionType),
		Kind:      KindSingle,
		Direction: direction,
		Legs:      []Leg{quote.leg(optionType, direction, 1)},
	}
	return validated(s)
}

// Straddle is a call and a put on the same strike, both bought or both sold
func Straddle(direction models.Direction, call, put Quote, callQuantity, putQuantity int) (Strategy, error) {
	if err := checkEnums(models.OptionTypeCall, direction); err != nil {
		return Strategy{}, err
	}
	s := Strategy{
		Name:      fmt.Sprintf("%s Straddle", direction),
		Kind:      KindStraddle,
		Direction: direction,
		Legs: []Leg{
			call.leg(models.OptionTypeCall, direction, callQuantity),
			put.leg(models.OptionTypePut, direction, putQuantity),
		},
	}
	return validated(s)
}

// VerticalButterfly holds the wings in direction and twice the body in the opposite direction.
// Strikes must satisfy low < atm < high.
func VerticalButterfly(direction models.Direction, optionType models.OptionType, low, atm, high Quote) (Strategy, error) {
	if err := checkEnums(optionType, direction); err != nil {
		return Strategy{}, err
	}
	s := Strategy{
		Name:      fmt.Sprintf("%s %s Butterfly", direction, optionType),
		Kind:      KindButterfly,
		Direction: direction,
		Legs: []Leg{
			low.leg(optionType, direction, 1),
			atm.leg(optionType, direction.Opposite(), 2),
			high.leg(optionType, direction, 1),
		},
	}
	return validated(s)
}

// IronButterfly sells the at-the-money straddle and buys the out-of-the-money
// put and call wings. The reverse form flips every leg.
// Strikes must satisfy lowPut < atmPut == atmCall < highCall.
func IronButterfly(reverse bool, lowPut, atmPut, atmCall, highCall Quote) (Strategy, error) {
	wings, body := models.DirectionLong, models.DirectionShort
	name := "Iron Butterfly"
	if reverse {
		wings, body = body, wings
		name = "Reverse Iron Butterfly"
	}

	s := Strategy{
		Name:      name,
		Kind:      KindIronButterfly,
		Direction: body,
		Legs: []Leg{
			lowPut.leg(models.OptionTypePut, wings, 1),
			atmPut.leg(models.OptionTypePut, body, 1),
			atmCall.leg(models.OptionTypeCall, body, 1),
			highCall.leg(models.OptionTypeCall, wings, 1),
		},
	}
	return validated(s)
}

func validated(s Strategy) (Strategy, error) {
	if err := s.Validate(); err != nil {
		return Strategy{}, err
	}
	return s, nil
}
