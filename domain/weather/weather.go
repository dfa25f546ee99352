package weather

import (
	"fmt"
	"math"
	"time"
)

// Alert thresholds applied to daily summaries
const (
	HeavyRainMM   = 50.0
	HeatC         = 40.0
	FrostC        = 2.0
	StrongWindMS  = 10.0
	dateKeyLayout = "2006-01-02"
)

// Location identifies where a forecast applies. Either Name or Lat/Lon is set on queries.
type Location struct {
	Name    string   `json:"name,omitempty"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// CacheKey identifies the location for response caching
func (l Location) CacheKey() string {
	if l.Lat != nil && l.Lon != nil {
		return fmt.Sprintf("%.3f,%.3f", *l.Lat, *l.Lon)
	}
	return l.Name
}

// Point is one forecast step
type Point struct {
	Time        time.Time `json:"time"`
	TempC       float64   `json:"temp_c"`
	TempMinC    float64   `json:"temp_min_c"`
	TempMaxC    float64   `json:"temp_max_c"`
	Humidity    float64   `json:"humidity"`
	RainMM      float64   `json:"rain_mm"`
	WindMS      float64   `json:"wind_ms"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
}

// Forecast is the raw step forecast for a location
type Forecast struct {
	Location      Location `json:"location"`
	UTCOffsetSecs int      `json:"utc_offset_secs"`
	Points        []Point  `json:"points"`
}

// DailySummary aggregates forecast steps falling on one local date
type DailySummary struct {
	Date        string  `json:"date"`
	MinTempC    float64 `json:"min_temp_c"`
	MaxTempC    float64 `json:"max_temp_c"`
	AvgHumidity float64 `json:"avg_humidity"`
	TotalRainMM float64 `json:"total_rain_mm"`
	MaxWindMS   float64 `json:"max_wind_ms"`
	Condition   string  `json:"condition"`
}

// Summarize groups points by local date (using the forecast's UTC offset) in
// chronological order. The dominant condition is the most frequent one for the
// day; ties go to the condition seen first.
func Summarize(f *Forecast) []DailySummary {
	if f == nil || len(f.Points) == 0 {
		return nil
	}
	zone := time.FixedZone("local", f.UTCOffsetSecs)

	type acc struct {
		summary     DailySummary
		humiditySum float64
		steps       int
		condCount   map[string]int
		condOrder   []string
	}

	var order []string
	days := make(map[string]*acc)
	for _, p := range f.Points {
		key := p.Time.In(zone).Format(dateKeyLayout)
		a, ok := days[key]
		if !ok {
			a = &acc{
				summary: DailySummary{
					Date:     key,
					MinTempC: math.Inf(1),
					MaxTempC: math.Inf(-1),
				},
				condCount: make(map[string]int),
			}
			days[key] = a
			order = append(order, key)
		}
		low, high := p.TempMinC, p.TempMaxC
		if low == 0 && high == 0 {
			low, high = p.TempC, p.TempC
		}
		a.summary.MinTempC = math.Min(a.summary.MinTempC, low)
		a.summary.MaxTempC = math.Max(a.summary.MaxTempC, high)
		a.summary.TotalRainMM += p.RainMM
		a.summary.MaxWindMS = math.Max(a.summary.MaxWindMS, p.WindMS)
		a.humiditySum += p.Humidity
		a.steps++
		if p.Condition != "" {
			if a.condCount[p.Condition] == 0 {
				a.condOrder = append(a.condOrder, p.Condition)
			}
			a.condCount[p.Condition]++
		}
	}

	out := make([]DailySummary, 0, len(order))
	for _, key := range order {
		a := days[key]
		a.summary.AvgHumidity = round1(a.humiditySum / float64(a.steps))
		a.summary.TotalRainMM = round1(a.summary.TotalRainMM)
		best := 0
		for _, cond := range a.condOrder {
			if a.condCount[cond] > best {
				best = a.condCount[cond]
				a.summary.Condition = cond
			}
		}
		out = append(out, a.summary)
	}
	return out
}

// Alert is a deterministic weather warning relevant to field work
type Alert struct {
	Date    string `json:"date"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Alerts flags heavy rain, heat, frost and strong wind days
func Alerts(days []DailySummary) []Alert {
	var alerts []Alert
	for _, d := range days {
		if d.TotalRainMM >= HeavyRainMM {
			alerts = append(alerts, Alert{d.Date, "heavy_rain",
				fmt.Sprintf("Heavy rain expected (%.0f mm). Ensure field drainage and postpone spraying and fertilizer application.", d.TotalRainMM)})
		}
		if d.MaxTempC >= HeatC {
			alerts = append(alerts, Alert{d.Date, "heat",
				fmt.Sprintf("Heat stress likely (up to %.0f°C). Irrigate in the early morning or evening.", d.MaxTempC)})
		}
		if d.MinTempC <= FrostC {
			alerts = append(alerts, Alert{d.Date, "frost",
				fmt.Sprintf("Frost risk (down to %.0f°C). Give light irrigation and cover nursery beds.", d.MinTempC)})
		}
		if d.MaxWindMS >= StrongWindMS {
			alerts = append(alerts, Alert{d.Date, "wind",
				fmt.Sprintf("Strong winds (%.0f m/s). Avoid spraying and stake tall crops.", d.MaxWindMS)})
		}
	}
	return alerts
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
