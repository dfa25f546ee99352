package growth

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"kisanrakshak/models"

	"gopkg.in/yaml.v3"
)

//go:embed benchmarks.yaml
var benchmarksYAML []byte

// Assessment statuses
const (
	StatusBehind  = "behind"
	StatusOnTrack = "on_track"
	StatusAhead   = "ahead"
	StatusUnknown = "unknown"
)

// Point is the expected height band at a day after sowing
type Point struct {
	Day   int     `yaml:"day"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Stage string  `yaml:"stage"`
}

type cropBenchmark struct {
	Aliases []string `yaml:"aliases"`
	Points  []Point  `yaml:"points"`
}

// Benchmarks holds growth curves per crop
type Benchmarks struct {
	curves  map[string][]Point
	aliases map[string]string
}

// Load parses the embedded benchmark table
func Load() (*Benchmarks, error) {
	return Parse(benchmarksYAML)
}

// Parse builds benchmarks from YAML. Points are sorted by day.
func Parse(data []byte) (*Benchmarks, error) {
	var doc struct {
		Crops map[string]cropBenchmark `yaml:"crops"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse growth benchmarks: %w", err)
	}

	b := &Benchmarks{
		curves:  make(map[string][]Point, len(doc.Crops)),
		aliases: make(map[string]string),
	}
	for name, crop := range doc.Crops {
		if len(crop.Points) == 0 {
			return nil, fmt.Errorf("crop %q has no benchmark points", name)
		}
		points := append([]Point(nil), crop.Points...)
		sort.Slice(points, func(i, j int) bool { return points[i].Day < points[j].Day })
		for _, p := range points {
			if p.Min > p.Max {
				return nil, fmt.Errorf("crop %q day %d: min %.1f exceeds max %.1f", name, p.Day, p.Min, p.Max)
			}
		}
		key := strings.ToLower(name)
		b.curves[key] = points
		b.aliases[key] = key
		for _, alias := range crop.Aliases {
			b.aliases[strings.ToLower(alias)] = key
		}
	}
	return b, nil
}

// Crops lists the crops with benchmarks, sorted
func (b *Benchmarks) Crops() []string {
	out := make([]string, 0, len(b.curves))
	for name := range b.curves {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (b *Benchmarks) resolve(crop string) ([]Point, bool) {
	key, ok := b.aliases[strings.ToLower(strings.TrimSpace(crop))]
	if !ok {
		return nil, false
	}
	return b.curves[key], true
}

// Assess compares a measured height with the benchmark band at daysAfterSowing.
// The band is linearly interpolated between benchmark points and clamped to the
// first and last points outside the table's range.
func (b *Benchmarks) Assess(crop string, daysAfterSowing int, heightCM float64) models.GrowthAssessment {
	a := models.GrowthAssessment{DaysAfterSowing: daysAfterSowing, Status: StatusUnknown}
	points, ok := b.resolve(crop)
	if !ok {
		return a
	}

	lo, hi, stage := band(points, daysAfterSowing)
	a.ExpectedMinCM = round1(lo)
	a.ExpectedMaxCM = round1(hi)
	a.Stage = stage

	switch {
	case heightCM < a.ExpectedMinCM:
		a.Status = StatusBehind
	case heightCM > a.ExpectedMaxCM:
		a.Status = StatusAhead
	default:
		a.Status = StatusOnTrack
	}
	return a
}

func band(points []Point, day int) (float64, float64, string) {
	first, last := points[0], points[len(points)-1]
	if day <= first.Day {
		return first.Min, first.Max, first.Stage
	}
	if day >= last.Day {
		return last.Min, last.Max, last.Stage
	}
	for i := 1; i < len(points); i++ {
		next := points[i]
		if day > next.Day {
			continue
		}
		prev := points[i-1]
		if day == next.Day {
			return next.Min, next.Max, next.Stage
		}
		frac := float64(day-prev.Day) / float64(next.Day-prev.Day)
		lo := prev.Min + frac*(next.Min-prev.Min)
		hi := prev.Max + frac*(next.Max-prev.Max)
		return lo, hi, prev.Stage
	}
	return last.Min, last.Max, last.Stage
}

func round1(v float64) float64 {
	if v < 0 {
		return -round1(-v)
	}
	return float64(int64(v*10+0.5)) / 10
}
