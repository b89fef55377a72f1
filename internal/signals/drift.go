// Package signals moves host-owned economy variables over time so that
// prices wander between trades.
package signals

import (
	"log/slog"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/caravan-market/internal/economy"
)

// minValue keeps a drifting multiplier from reaching 0, which the pricing
// engine would read as unset.
const minValue = 0.05

// Source is one drifting variable.
type Source struct {
	Var       int     // variable key
	Amplitude float64 // maximum deviation from 1
	Frequency float64 // noise units per tick
}

// Drift writes smooth noise around 1 into a set of variables.
type Drift struct {
	noise   opensimplex.Noise
	vars    economy.VariableStore
	sources []Source
}

// NewDrift creates a drift over vars. Sources with a non-positive key are
// skipped. The same seed always produces the same values.
func NewDrift(seed int64, vars economy.VariableStore, sources []Source) *Drift {
	d := &Drift{noise: opensimplex.New(seed), vars: vars}
	for _, s := range sources {
		if s.Var <= 0 {
			slog.Warn("skipping drift source without a variable", "amplitude", s.Amplitude)
			continue
		}
		d.sources = append(d.sources, s)
	}
	return d
}

// Len is the number of active sources.
func (d *Drift) Len() int { return len(d.sources) }

// Value is the drifted value of a source at a tick.
func (d *Drift) Value(s Source, tick uint64) float64 {
	n := octaveNoise(d.noise, float64(tick)*s.Frequency, float64(s.Var), 2, 1, 0.5)
	n = math.Max(-1, math.Min(1, n))
	v := 1 + math.Abs(s.Amplitude)*n
	if math.IsNaN(v) {
		return 1
	}
	return math.Max(minValue, v)
}

// Apply writes every source's value for the tick into the store.
func (d *Drift) Apply(tick uint64) {
	for _, s := range d.sources {
		d.vars.SetValue(s.Var, d.Value(s, tick))
	}
	slog.Debug("signals drifted", "tick", tick, "sources", len(d.sources))
}

// octaveNoise layers frequencies of 2D noise; the result stays in [-1, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
