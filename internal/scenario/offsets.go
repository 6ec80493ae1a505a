package scenario

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// centre of the 9-point axis
const midpoint = models.GridSize / 2

// SpotOffsets returns spot + step·spot·(i-4) for i = 0..8
func SpotOffsets(spot, step float64) ([models.GridSize]float64, error) {
	if spot <= 0 {
		return [models.GridSize]float64{}, apperrors.InvalidInputf("spot must be positive, got %g", spot)
	}
	return offsets(spot, step)
}

// VolOffsets returns vol + step·vol·(i-4) for i = 0..8, ascending
func VolOffsets(vol, step float64) ([models.GridSize]float64, error) {
	if vol <= 0 {
		return [models.GridSize]float64{}, apperrors.InvalidInputf("implied vol must be positive, got %g", vol)
	}
	return offsets(vol, step)
}

func offsets(center, step float64) ([models.GridSize]float64, error) {
	var out [models.GridSize]float64
	if step < 0 {
		return out, apperrors.InvalidInputf("offset step must not be negative, got %g", step)
	}

	size := step * center
	values := make([]float64, 0, models.GridSize)
	for i := -midpoint; i <= midpoint; i++ {
		values = append(values, center+size*float64(i))
	}
	if len(values) != models.GridSize {
		return out, apperrors.InternalInvariantf("offset axis has %d points, want %d", len(values), models.GridSize)
	}

	copy(out[:], values)
	return out, nil
}

// SpotLabels formats spot offsets to two decimals
func SpotLabels(spots [models.GridSize]float64) [models.GridSize]string {
	var labels [models.GridSize]string
	for i, s := range spots {
		labels[i] = decimal.NewFromFloat(s).StringFixed(2)
	}
	return labels
}

// VolLabels formats vol offsets as percentages with one decimal
func VolLabels(vols [models.GridSize]float64) [models.GridSize]string {
	var labels [models.GridSize]string
	for i, v := range vols {
		labels[i] = decimal.NewFromFloat(v).Shift(2).StringFixed(1) + "%"
	}
	return labels
}

// JoinVolLabels merges the per-leg vol labels row by row with " / "
func JoinVolLabels(perLeg [][models.GridSize]string) [models.GridSize]string {
	var joined [models.GridSize]string
	for row := range joined {
		parts := make([]string, len(perLeg))
		for i, labels := range perLeg {
			parts[i] = labels[row]
		}
		joined[row] = strings.Join(parts, " / ")
	}
	return joined
}
