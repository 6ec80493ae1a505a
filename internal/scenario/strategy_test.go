package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

func TestSingle(t *testing.T) {
	s, err := Single(models.OptionTypePut, models.DirectionShort, Quote{Strike: 100, EntryPrice: 4, ImpliedVol: 0.3})
	require.NoError(t, err)

	assert.Equal(t, "Short Put", s.Name)
	assert.Equal(t, KindSingle, s.Kind)
	require.Len(t, s.Legs, 1)
	assert.Equal(t, models.DirectionShort, s.Legs[0].Direction)
	assert.Equal(t, 1, s.Legs[0].Multiplier)

	_, err = Single(models.OptionType(0), models.DirectionLong, Quote{Strike: 100, EntryPrice: 4, ImpliedVol: 0.3})
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestStraddle(t *testing.T) {
	call := Quote{Strike: 650, EntryPrice: 20, ImpliedVol: 0.25}
	put := Quote{Strike: 650, EntryPrice: 60, ImpliedVol: 0.27}

	s, err := Straddle(models.DirectionLong, call, put, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "Long Straddle", s.Name)
	assert.Equal(t, models.OptionTypeCall, s.Legs[0].Type)
	assert.Equal(t, models.OptionTypePut, s.Legs[1].Type)
	assert.Equal(t, 3, s.Legs[1].Multiplier)

	t.Run("strikes must match", func(t *testing.T) {
		other := put
		other.Strike = 640
		_, err := Straddle(models.DirectionLong, call, other, 1, 1)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("quantities must be positive", func(t *testing.T) {
		_, err := Straddle(models.DirectionLong, call, put, 0, 1)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestVerticalButterfly(t *testing.T) {
	low := Quote{Strike: 550, EntryPrice: 30, ImpliedVol: 0.26}
	atm := Quote{Strike: 565, EntryPrice: 22, ImpliedVol: 0.25}
	high := Quote{Strike: 580, EntryPrice: 15, ImpliedVol: 0.24}

	s, err := VerticalButterfly(models.DirectionShort, models.OptionTypePut, low, atm, high)
	require.NoError(t, err)
	assert.Equal(t, "Short Put Butterfly", s.Name)

	directions := []models.Direction{s.Legs[0].Direction, s.Legs[1].Direction, s.Legs[2].Direction}
	assert.Equal(t, []models.Direction{models.DirectionShort, models.DirectionLong, models.DirectionShort}, directions)
	assert.Equal(t, 2, s.Legs[1].Multiplier)

	tests := []struct {
		name           string
		low, atm, high float64
	}{
		{"atm below low", 565, 550, 580},
		{"high below atm", 550, 580, 565},
		{"equal wings", 550, 550, 580},
		{"equal body", 550, 580, 580},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, a, h := low, atm, high
			l.Strike, a.Strike, h.Strike = tt.low, tt.atm, tt.high
			_, err := VerticalButterfly(models.DirectionLong, models.OptionTypeCall, l, a, h)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestIronButterfly(t *testing.T) {
	lowPut := Quote{Strike: 550, EntryPrice: 8, ImpliedVol: 0.28}
	atmPut := Quote{Strike: 565, EntryPrice: 15, ImpliedVol: 0.25}
	atmCall := Quote{Strike: 565, EntryPrice: 16, ImpliedVol: 0.24}
	highCall := Quote{Strike: 580, EntryPrice: 9, ImpliedVol: 0.22}

	standard, err := IronButterfly(false, lowPut, atmPut, atmCall, highCall)
	require.NoError(t, err)
	assert.Equal(t, "Iron Butterfly", standard.Name)

	reverse, err := IronButterfly(true, lowPut, atmPut, atmCall, highCall)
	require.NoError(t, err)
	assert.Equal(t, "Reverse Iron Butterfly", reverse.Name)

	types := []models.OptionType{models.OptionTypePut, models.OptionTypePut, models.OptionTypeCall, models.OptionTypeCall}
	for i := range standard.Legs {
		assert.Equal(t, types[i], standard.Legs[i].Type)
		assert.Equal(t, standard.Legs[i].Direction.Opposite(), reverse.Legs[i].Direction)
	}
	assert.Equal(t, models.DirectionLong, standard.Legs[0].Direction)
	assert.Equal(t, models.DirectionShort, standard.Legs[1].Direction)

	t.Run("body strikes must match", func(t *testing.T) {
		other := atmCall
		other.Strike = 570
		_, err := IronButterfly(false, lowPut, atmPut, other, highCall)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("wings must be outside the body", func(t *testing.T) {
		other := highCall
		other.Strike = 560
		_, err := IronButterfly(false, lowPut, atmPut, atmCall, other)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestLeg_Validate(t *testing.T) {
	valid := testLeg(models.DirectionLong)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name      string
		mutate    func(l *Leg)
		wantValid bool
	}{
		{"unknown type", func(l *Leg) { l.Type = 9 }, false},
		{"unknown direction", func(l *Leg) { l.Direction = 0 }, false},
		{"zero strike", func(l *Leg) { l.Strike = 0 }, false},
		{"negative entry", func(l *Leg) { l.EntryPrice = -1 }, false},
		{"zero vol", func(l *Leg) { l.ImpliedVol = 0 }, false},
		{"zero multiplier", func(l *Leg) { l.Multiplier = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leg := valid
			tt.mutate(&leg)
			err := leg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.wantValid, apperrors.IsValidation(err))
			assert.Equal(t, !tt.wantValid, apperrors.IsInvalidInput(err))
		})
	}
}

func TestStrategy_ValidateShape(t *testing.T) {
	low := Quote{Strike: 90, EntryPrice: 12, ImpliedVol: 0.25}
	atm := Quote{Strike: 100, EntryPrice: 5, ImpliedVol: 0.25}
	high := Quote{Strike: 110, EntryPrice: 2, ImpliedVol: 0.25}

	butterfly, err := VerticalButterfly(models.DirectionLong, models.OptionTypeCall, low, atm, high)
	require.NoError(t, err)
	iron, err := IronButterfly(false, low, atm, atm, high)
	require.NoError(t, err)
	straddle, err := Straddle(models.DirectionShort, atm, atm, 1, 1)
	require.NoError(t, err)

	withLegs := func(s Strategy, mutate func(legs []Leg)) Strategy {
		legs := append([]Leg(nil), s.Legs...)
		mutate(legs)
		s.Legs = legs
		return s
	}

	tests := []struct {
		name     string
		strategy Strategy
	}{
		{"butterfly strikes descending", withLegs(butterfly, func(l []Leg) { l[0].Strike, l[2].Strike = 110, 90 })},
		{"butterfly body same direction as wings", withLegs(butterfly, func(l []Leg) { l[1].Direction = models.DirectionLong })},
		{"butterfly body not doubled", withLegs(butterfly, func(l []Leg) { l[1].Multiplier = 1 })},
		{"butterfly mixed types", withLegs(butterfly, func(l []Leg) { l[2].Type = models.OptionTypePut })},
		{"butterfly missing wing", Strategy{Name: "x", Kind: KindButterfly, Legs: butterfly.Legs[:2]}},
		{"iron butterfly split body", withLegs(iron, func(l []Leg) { l[2].Strike = 105 })},
		{"iron butterfly wing inside body", withLegs(iron, func(l []Leg) { l[3].Strike = 95 })},
		{"iron butterfly wings opposite", withLegs(iron, func(l []Leg) { l[3].Direction = models.DirectionShort })},
		{"straddle split strike", withLegs(straddle, func(l []Leg) { l[1].Strike = 95 })},
		{"straddle mixed directions", withLegs(straddle, func(l []Leg) { l[1].Direction = models.DirectionLong })},
		{"single with two legs", Strategy{Name: "x", Kind: KindSingle, Legs: straddle.Legs}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.strategy.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}

	t.Run("custom strategies only check legs", func(t *testing.T) {
		custom := withLegs(butterfly, func(l []Leg) { l[0].Strike, l[2].Strike = 110, 90 })
		custom.Kind = KindCustom
		assert.NoError(t, custom.Validate())
	})
}
