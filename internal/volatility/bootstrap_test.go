package volatility

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

func newTestBootstrap(t *testing.T, config Config) *Bootstrap {
	t.Helper()
	b, err := NewBootstrap(config, metrics.NewRecorder(prometheus.NewRegistry()))
	require.NoError(t, err)
	return b
}

func TestBootstrap_TwoExpirations(t *testing.T) {
	b := newTestBootstrap(t, DefaultConfig())

	points, err := b.Interpolate([]int{30, 60}, []float64{0.20, 0.22})
	require.NoError(t, err)
	require.Len(t, points, 2)

	vol45 := math.Exp(0.5 * (math.Log(0.20) + math.Log(0.22)))
	assert.Equal(t, 15, points[0].Day)
	assert.InDelta(t, 0.20, points[0].ImpliedVol, 1e-12)
	assert.Equal(t, 45, points[1].Day)
	assert.InDelta(t, vol45, points[1].ImpliedVol, 1e-12)

	curve, err := b.Forward([]models.ExpirationVol{{Day: 30, ImpliedVol: 0.20}, {Day: 60, ImpliedVol: 0.22}})
	require.NoError(t, err)
	require.Len(t, curve, 1)

	expected := math.Sqrt((vol45*vol45*45 - 0.20*0.20*15) / (45 - 15))
	assert.InDelta(t, expected, curve[30], 1e-9)
	assert.Zero(t, curve.DataQualityIssues())
}

func TestBootstrap_TargetDays(t *testing.T) {
	b := newTestBootstrap(t, Config{CutoffDays: 3, ForwardPeriod: 10})

	assert.Equal(t, []int{10, 17, 40, 100}, b.TargetDays([]int{7, 30, 90, 180}))
	assert.Nil(t, b.TargetDays(nil))
}

func TestBootstrap_ConsecutiveForwards(t *testing.T) {
	b := newTestBootstrap(t, DefaultConfig())
	series := []models.ExpirationVol{
		{Day: 1, ImpliedVol: 0.90},
		{Day: 7, ImpliedVol: 0.18},
		{Day: 30, ImpliedVol: 0.20},
		{Day: 90, ImpliedVol: 0.24},
		{Day: 180, ImpliedVol: 0.25},
	}

	curve, err := b.Forward(series)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 30, 90}, curve.Days())

	points, err := b.Interpolate([]int{7, 30, 90, 180}, []float64{0.18, 0.20, 0.24, 0.25})
	require.NoError(t, err)
	for i, day := range []int{7, 30, 90} {
		t1, t2 := points[i], points[i+1]
		assert.InDelta(t, ForwardVol(float64(t1.Day), t1.ImpliedVol, float64(t2.Day), t2.ImpliedVol), curve[day], 1e-12)
	}
}

func TestBootstrap_InvertedCurve(t *testing.T) {
	b := newTestBootstrap(t, DefaultConfig())

	curve, err := b.Forward([]models.ExpirationVol{{Day: 30, ImpliedVol: 0.50}, {Day: 60, ImpliedVol: 0.10}})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(curve[30]))
	assert.Equal(t, 1, curve.DataQualityIssues())
}

func TestBootstrap_ForwardPair(t *testing.T) {
	b := newTestBootstrap(t, DefaultConfig())

	call := []models.ExpirationVol{{Day: 30, ImpliedVol: 0.20}, {Day: 60, ImpliedVol: 0.22}, {Day: 90, ImpliedVol: 0.23}}
	put := []models.ExpirationVol{{Day: 30, ImpliedVol: 0.25}, {Day: 60, ImpliedVol: 0.24}, {Day: 90, ImpliedVol: 0.26}}

	callCurve, putCurve, err := b.ForwardPair(call, put)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 60}, callCurve.Days())
	assert.Equal(t, []int{30, 60}, putCurve.Days())

	_, _, err = b.ForwardPair(call, put[:1])
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestBootstrap_DropsUnusableVols(t *testing.T) {
	b := newTestBootstrap(t, DefaultConfig())

	curve, err := b.Forward([]models.ExpirationVol{
		{Day: 30, ImpliedVol: 0.20},
		{Day: 45, ImpliedVol: math.NaN()},
		{Day: 60, ImpliedVol: 0.22},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{30}, curve.Days())
}

func TestForwardVol(t *testing.T) {
	assert.True(t, math.IsNaN(ForwardVol(30, 0.2, 30, 0.2)))
	assert.True(t, math.IsNaN(ForwardVol(15, 0.4, 45, 0.1)))
	// flat term structure has a flat forward
	assert.InDelta(t, 0.2, ForwardVol(15, 0.2, 45, 0.2), 1e-15)
}

func TestBootstrap_InvalidInput(t *testing.T) {
	b := newTestBootstrap(t, DefaultConfig())

	tests := []struct {
		name string
		days []int
		vols []float64
	}{
		{"single point", []int{30}, []float64{0.2}},
		{"length mismatch", []int{30, 60}, []float64{0.2}},
		{"not increasing", []int{60, 30}, []float64{0.2, 0.2}},
		{"duplicate day", []int{30, 30}, []float64{0.2, 0.2}},
		{"zero vol", []int{30, 60}, []float64{0, 0.2}},
		{"nan vol", []int{30, 60}, []float64{math.NaN(), 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Interpolate(tt.days, tt.vols)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidInput(err))
		})
	}

	_, err := NewBootstrap(Config{CutoffDays: 3, ForwardPeriod: 0}, nil)
	assert.True(t, apperrors.IsInvalidInput(err))
}
