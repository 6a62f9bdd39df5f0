// Package meta derives coarse strategic signals from Stellaris save text.
// The output is a handful of proxy features for downstream decision
// systems, not a parse of the save grammar.
package meta

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gonum/stat"

	"github.com/stratai/stellaris-meta/pkg/steam"
)

// economy weighting constants; global sums, no per-empire attribution
const (
	energyWeight    = 0.35
	alloyWeight     = 0.65
	enemyMultiplier = 1.15
)

const popsPerPlanetCap = 40

const popsPerPlanetSupport = 28

var (
	popsPattern    = regexp.MustCompile(`\bnum_pops\s*=\s*(\d+)`)
	planetsPattern = regexp.MustCompile(`\bnum_planets\s*=\s*(\d+)`)
	alloysPattern  = regexp.MustCompile(`\balloys\s*=\s*(-?\d+(?:\.\d+)?)`)
	energyPattern  = regexp.MustCompile(`\benergy\s*=\s*(-?\d+(?:\.\d+)?)`)
)

// Signals is the flat extraction result. Flags holds the boolean detector
// outcomes keyed by detector name.
type Signals struct {
	Flags map[string]bool

	PopGrowthPressure      float64
	PlanetCapacityPressure float64
	AlloyDensity           float64
	OurTotalEconomy        float64
	EnemyTotalEconomy      float64

	SeriesStats *SeriesStats
	SteamMeta   *steam.Meta
}

// MarshalJSON flattens the detector flags into the top-level object. Maps
// encode with sorted keys, which is the output contract.
func (s Signals) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"pop_growth_pressure":      s.PopGrowthPressure,
		"planet_capacity_pressure": s.PlanetCapacityPressure,
		"alloy_density":            s.AlloyDensity,
		"our_total_economy":        s.OurTotalEconomy,
		"enemy_total_economy":      s.EnemyTotalEconomy,
	}

	for key, val := range s.Flags {
		out[key] = val
	}

	if s.SeriesStats != nil {
		out["series_stats"] = s.SeriesStats
	}

	if s.SteamMeta != nil {
		out["steam_meta_signals"] = s.SteamMeta
	}

	return json.Marshal(out)
}

// SeriesSummary describes one extracted numeric series.
type SeriesSummary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// SeriesStats carries optional per-series summaries for diagnostics.
type SeriesStats struct {
	Pops    SeriesSummary `json:"pops"`
	Planets SeriesSummary `json:"planets"`
	Alloys  SeriesSummary `json:"alloys"`
	Energy  SeriesSummary `json:"energy"`
}

// Totals are the summed numeric series feeding the derived fields.
type Totals struct {
	Pops    int
	Planets int
	Alloys  float64
	Energy  float64
}

type Extractor struct {
	table DetectorTable
}

func NewExtractor(table DetectorTable) *Extractor {
	return &Extractor{table: table}
}

// Extract runs the detector table and the numeric aggregation over text.
// There is no failure mode: missing patterns degrade to zero sums and the
// derived fields bottom out at their floors.
func (e *Extractor) Extract(text string, withStats bool) Signals {
	lower := strings.ToLower(text)

	out := Signals{
		Flags: make(map[string]bool, len(e.table)),
	}

	for _, d := range e.table {
		matched := false
		for _, p := range d.Patterns {
			if p.MatchString(lower) {
				matched = true
				break
			}
		}
		out.Flags[d.Key] = matched
	}

	pops := findSeries(popsPattern, lower)
	planets := findSeries(planetsPattern, lower)
	alloys := findSeries(alloysPattern, lower)
	energy := findSeries(energyPattern, lower)

	totals := Totals{
		Pops:    int(sum(pops)),
		Planets: int(sum(planets)),
		Alloys:  sum(alloys),
		Energy:  sum(energy),
	}

	out.PopGrowthPressure = ratio(float64(totals.Pops), math.Max(1, float64(totals.Planets*popsPerPlanetCap)))

	supportable := 1.0
	if totals.Pops > 0 {
		supportable = math.Max(1, float64(totals.Pops)/popsPerPlanetSupport)
	}
	out.PlanetCapacityPressure = ratio(float64(totals.Planets), supportable)

	out.AlloyDensity = ratio(totals.Alloys, math.Max(1, totals.Energy+totals.Alloys))

	out.OurTotalEconomy = math.Max(1, totals.Energy*energyWeight+totals.Alloys*alloyWeight)
	out.EnemyTotalEconomy = math.Max(1, out.OurTotalEconomy*enemyMultiplier)

	if withStats {
		out.SeriesStats = &SeriesStats{
			Pops:    summarize(pops),
			Planets: summarize(planets),
			Alloys:  summarize(alloys),
			Energy:  summarize(energy),
		}
	}

	return out
}

// ratio clamps num/den to [0, 1]; a non-positive denominator yields 0.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}

	return math.Max(0, math.Min(1, num/den))
}

func findSeries(pattern *regexp.Regexp, lower string) []float64 {
	matches := pattern.FindAllStringSubmatch(lower, -1)
	if len(matches) == 0 {
		return nil
	}

	vals := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			// pattern admits only numeric text
			continue
		}
		vals = append(vals, v)
	}

	return vals
}

func sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}

	return total
}

func summarize(vals []float64) SeriesSummary {
	if len(vals) == 0 {
		return SeriesSummary{}
	}

	mean, std := stat.MeanStdDev(vals, nil)
	if math.IsNaN(std) { // single observation
		std = 0
	}

	return SeriesSummary{
		Count:  len(vals),
		Sum:    sum(vals),
		Mean:   mean,
		StdDev: std,
	}
}
