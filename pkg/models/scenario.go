package models

// GridSize is the number of offsets on each axis of a scenario grid
const GridSize = 9

// ScenarioGrid holds PnL values for 9 implied-vol offsets (rows) by 9 spot offsets
// (columns), both ascending.
type ScenarioGrid [GridSize][GridSize]float64

// Flatten returns the 81 cells in row-major order
func (g ScenarioGrid) Flatten() []float64 {
	cells := make([]float64, 0, GridSize*GridSize)
	for _, row := range g {
		cells = append(cells, row[:]...)
	}
	return cells
}

// Add returns the element-wise sum of g and o
func (g ScenarioGrid) Add(o ScenarioGrid) ScenarioGrid {
	var out ScenarioGrid
	for i := range g {
		for j := range g[i] {
			out[i][j] = g[i][j] + o[i][j]
		}
	}
	return out
}

// Scale multiplies every cell by factor
func (g ScenarioGrid) Scale(factor float64) ScenarioGrid {
	var out ScenarioGrid
	for i := range g {
		for j := range g[i] {
			out[i][j] = g[i][j] * factor
		}
	}
	return out
}

// Negate flips the sign of every cell
func (g ScenarioGrid) Negate() ScenarioGrid {
	return g.Scale(-1)
}
