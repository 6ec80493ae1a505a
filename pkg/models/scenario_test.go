package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScenarioGrid(t *testing.T) {
	var g ScenarioGrid
	for i := range g {
		for j := range g[i] {
			g[i][j] = float64(i*GridSize + j)
		}
	}

	flat := g.Flatten()
	assert.Len(t, flat, 81)
	assert.Equal(t, 0.0, flat[0])
	assert.Equal(t, 10.0, flat[10])
	assert.Equal(t, 80.0, flat[80])

	doubled := g.Scale(2)
	assert.Equal(t, doubled, g.Add(g))
	assert.Equal(t, ScenarioGrid{}, g.Add(g.Negate()))
}

func TestGreeks_AddScale(t *testing.T) {
	g := Greeks{Delta: 0.5, Gamma: 0.02, Vega: 0.3, Theta: -0.01, Rho: 0.4, Vanna: 0.1, Charm: -0.002, Volga: 0.05}

	sum := g.Add(g.Scale(-1))
	assert.Equal(t, Greeks{}, sum)

	tripled := g.Scale(3)
	assert.InDelta(t, 1.5, tripled.Delta, 1e-12)
	assert.InDelta(t, -0.03, tripled.Theta, 1e-12)
	assert.InDelta(t, 0.15, tripled.Volga, 1e-12)
}
