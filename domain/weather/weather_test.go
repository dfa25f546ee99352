package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2025, 10, day, hour, 0, 0, 0, time.UTC)
}

func TestSummarizeGroupsByLocalDate(t *testing.T) {
	f := &Forecast{
		UTCOffsetSecs: 19800, // IST
		Points: []Point{
			{Time: at(1, 3), TempMinC: 24, TempMaxC: 30, Humidity: 80, RainMM: 2, WindMS: 3, Condition: "Rain"},
			{Time: at(1, 9), TempMinC: 26, TempMaxC: 34, Humidity: 60, RainMM: 0, WindMS: 5, Condition: "Clouds"},
			{Time: at(1, 12), TempMinC: 25, TempMaxC: 33, Humidity: 70, RainMM: 1.25, WindMS: 4, Condition: "Rain"},
			// 20:00 UTC is 01:30 IST the next day
			{Time: at(1, 20), TempMinC: 22, TempMaxC: 23, Humidity: 90, RainMM: 0, WindMS: 2, Condition: "Clear"},
		},
	}

	days := Summarize(f)
	require.Len(t, days, 2)

	d := days[0]
	assert.Equal(t, "2025-10-01", d.Date)
	assert.Equal(t, 24.0, d.MinTempC)
	assert.Equal(t, 34.0, d.MaxTempC)
	assert.Equal(t, 70.0, d.AvgHumidity)
	assert.Equal(t, 3.3, d.TotalRainMM)
	assert.Equal(t, 5.0, d.MaxWindMS)
	assert.Equal(t, "Rain", d.Condition)

	assert.Equal(t, "2025-10-02", days[1].Date)
	assert.Equal(t, "Clear", days[1].Condition)
}

func TestSummarizeConditionTieGoesToFirstSeen(t *testing.T) {
	f := &Forecast{Points: []Point{
		{Time: at(1, 0), TempC: 20, Condition: "Clouds"},
		{Time: at(1, 3), TempC: 21, Condition: "Clear"},
	}}
	days := Summarize(f)
	require.Len(t, days, 1)
	assert.Equal(t, "Clouds", days[0].Condition)
	assert.Equal(t, 20.0, days[0].MinTempC)
	assert.Equal(t, 21.0, days[0].MaxTempC)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Nil(t, Summarize(nil))
	assert.Nil(t, Summarize(&Forecast{}))
}

func TestAlerts(t *testing.T) {
	alerts := Alerts([]DailySummary{
		{Date: "2025-10-01", MinTempC: 25, MaxTempC: 41, TotalRainMM: 0, MaxWindMS: 3},
		{Date: "2025-10-02", MinTempC: 1, MaxTempC: 15, TotalRainMM: 60, MaxWindMS: 12},
		{Date: "2025-10-03", MinTempC: 20, MaxTempC: 30, TotalRainMM: 10, MaxWindMS: 4},
	})

	var kinds []string
	for _, a := range alerts {
		kinds = append(kinds, a.Date+":"+a.Kind)
	}
	assert.Equal(t, []string{
		"2025-10-01:heat",
		"2025-10-02:heavy_rain",
		"2025-10-02:frost",
		"2025-10-02:wind",
	}, kinds)
}

func TestLocationCacheKey(t *testing.T) {
	lat, lon := 18.52043, 73.85674
	assert.Equal(t, "18.520,73.857", Location{Lat: &lat, Lon: &lon}.CacheKey())
	assert.Equal(t, "Pune", Location{Name: "Pune"}.CacheKey())
}
