package mandi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}

func TestSortRecordsDateThenModalPrice(t *testing.T) {
	records := []Record{
		{Market: "A", ArrivalDate: day(1), ModalPrice: 3000},
		{Market: "B", ArrivalDate: day(3), ModalPrice: 1500},
		{Market: "C", ArrivalDate: day(3), ModalPrice: 2500},
		{Market: "D", ArrivalDate: day(2), ModalPrice: 9000},
		{Market: "E", ArrivalDate: day(3), ModalPrice: 2500},
	}

	SortRecords(records)

	var order []string
	for _, r := range records {
		order = append(order, r.Market)
	}
	// C and E tie on both keys and keep input order
	assert.Equal(t, []string{"C", "E", "B", "D", "A"}, order)
}

func TestBestMarketsUsesLatestDateOnly(t *testing.T) {
	records := []Record{
		{Market: "Lasalgaon", District: "Nashik", State: "Maharashtra", ArrivalDate: day(5), ModalPrice: 2100},
		{Market: "Pimpalgaon", District: "Nashik", State: "Maharashtra", ArrivalDate: day(5), ModalPrice: 2300},
		{Market: "Lasalgaon", District: "Nashik", State: "Maharashtra", ArrivalDate: day(5), ModalPrice: 2400, Variety: "Red"},
		{Market: "Pune", District: "Pune", State: "Maharashtra", ArrivalDate: day(4), ModalPrice: 5000},
	}

	best := BestMarkets(records, 5)
	require.Len(t, best, 2)
	assert.Equal(t, "Lasalgaon", best[0].Market)
	assert.Equal(t, 2400.0, best[0].ModalPrice)
	assert.Equal(t, "Red", best[0].Variety)
	assert.Equal(t, "Pimpalgaon", best[1].Market)

	assert.Len(t, BestMarkets(records, 1), 1)
	assert.Nil(t, BestMarkets(nil, 3))
}

func TestSummarizeRisingTrend(t *testing.T) {
	records := []Record{
		{ArrivalDate: day(1), ModalPrice: 1000},
		{ArrivalDate: day(1), ModalPrice: 1200},
		{ArrivalDate: day(2), ModalPrice: 1300},
		{ArrivalDate: day(3), ModalPrice: 1500},
	}

	s, err := Summarize(records)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1000.0, s.MinModal)
	assert.Equal(t, 1500.0, s.MaxModal)
	assert.Equal(t, 1250.0, s.MeanModal)
	assert.Equal(t, 1250.0, s.MedianModal)
	require.Len(t, s.Series, 3)
	assert.Equal(t, 1100.0, s.Series[0].MedianModal)
	assert.Equal(t, 2, s.Series[0].Markets)
	assert.Equal(t, day(3), s.LatestDate)
	assert.InDelta(t, 200.0, s.SlopePerDay, 0.01)
	assert.Equal(t, TrendRising, s.Trend)
}

func TestSummarizeStableAndFalling(t *testing.T) {
	stable, err := Summarize([]Record{
		{ArrivalDate: day(1), ModalPrice: 2000},
		{ArrivalDate: day(2), ModalPrice: 2005},
		{ArrivalDate: day(3), ModalPrice: 2002},
	})
	require.NoError(t, err)
	assert.Equal(t, TrendStable, stable.Trend)

	falling, err := Summarize([]Record{
		{ArrivalDate: day(1), ModalPrice: 3000},
		{ArrivalDate: day(2), ModalPrice: 2500},
		{ArrivalDate: day(4), ModalPrice: 2000},
	})
	require.NoError(t, err)
	assert.Equal(t, TrendFalling, falling.Trend)
	assert.Less(t, falling.SlopePerDay, 0.0)
}

func TestSummarizeSingleDayIsStable(t *testing.T) {
	s, err := Summarize([]Record{{ArrivalDate: day(1), ModalPrice: 100}})
	require.NoError(t, err)
	assert.Equal(t, TrendStable, s.Trend)
	assert.Zero(t, s.SlopePerDay)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestQueryNormalizeAndCacheKey(t *testing.T) {
	q := Query{Commodity: " Onion ", State: "Maharashtra"}.Normalize()
	assert.Equal(t, "Onion", q.Commodity)
	assert.Equal(t, 100, q.Limit)
	assert.Equal(t, 1000, Query{Limit: 5000}.Normalize().Limit)

	assert.Equal(t,
		Query{Commodity: "onion", State: "MAHARASHTRA"}.CacheKey(),
		Query{Commodity: " Onion", State: "Maharashtra", Limit: 100}.CacheKey())
}
