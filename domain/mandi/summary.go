package mandi

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoRecords is returned when there is nothing to summarize
var ErrNoRecords = errors.New("no price records")

// Trend directions
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// stableSlopeFraction is the daily move, relative to the mean price, below
// which a trend is reported as stable.
const stableSlopeFraction = 0.01

// DailyPoint is the median modal price across markets on one arrival date
type DailyPoint struct {
	Date        time.Time `json:"date"`
	MedianModal float64   `json:"median_modal"`
	Markets     int       `json:"markets"`
}

// Summary describes the modal price distribution and its direction over time
type Summary struct {
	Count       int          `json:"count"`
	MinModal    float64      `json:"min_modal"`
	MaxModal    float64      `json:"max_modal"`
	MeanModal   float64      `json:"mean_modal"`
	MedianModal float64      `json:"median_modal"`
	LatestDate  time.Time    `json:"latest_date"`
	Series      []DailyPoint `json:"series"`
	SlopePerDay float64      `json:"slope_per_day"`
	Trend       string       `json:"trend"`
}

// Summarize computes price statistics and a least-squares trend over the
// per-day median series.
func Summarize(records []Record) (*Summary, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	modals := make(stats.Float64Data, 0, len(records))
	byDay := make(map[time.Time][]float64)
	for _, r := range records {
		modals = append(modals, r.ModalPrice)
		day := r.ArrivalDate.Truncate(24 * time.Hour)
		byDay[day] = append(byDay[day], r.ModalPrice)
	}

	s := &Summary{Count: len(records)}
	var err error
	if s.MinModal, err = modals.Min(); err != nil {
		return nil, err
	}
	if s.MaxModal, err = modals.Max(); err != nil {
		return nil, err
	}
	if s.MeanModal, err = modals.Mean(); err != nil {
		return nil, err
	}
	if s.MedianModal, err = modals.Median(); err != nil {
		return nil, err
	}
	s.MeanModal = round2(s.MeanModal)
	s.MedianModal = round2(s.MedianModal)

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	s.Series = make([]DailyPoint, 0, len(days))
	for _, d := range days {
		median, err := stats.Median(byDay[d])
		if err != nil {
			return nil, err
		}
		s.Series = append(s.Series, DailyPoint{Date: d, MedianModal: round2(median), Markets: len(byDay[d])})
	}
	s.LatestDate = days[len(days)-1]

	s.SlopePerDay, s.Trend = trend(s.Series, s.MeanModal)
	return s, nil
}

func trend(series []DailyPoint, mean float64) (float64, string) {
	if len(series) < 2 {
		return 0, TrendStable
	}
	origin := series[0].Date
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = p.Date.Sub(origin).Hours() / 24
		ys[i] = p.MedianModal
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) {
		return 0, TrendStable
	}
	beta = round2(beta)
	switch {
	case math.Abs(beta) < stableSlopeFraction*mean:
		return beta, TrendStable
	case beta > 0:
		return beta, TrendRising
	default:
		return beta, TrendFalling
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
