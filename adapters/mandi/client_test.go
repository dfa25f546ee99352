package mandi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"kisanrakshak/domain/mandi"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePayload = `{
  "total": 5,
  "records": [
    {"state": "Maharashtra", "district": "Nashik", "market": "Lasalgaon", "commodity": "Onion", "variety": "Red", "grade": "FAQ",
     "arrival_date": "14/10/2026", "min_price": "1800", "max_price": "2600", "modal_price": "2300"},
    {"state": "Maharashtra", "district": "Nashik", "market": "Pimpalgaon", "commodity": "Onion", "variety": "Red", "grade": "FAQ",
     "arrival_date": "15/10/2026", "min_price": "1900", "max_price": "2700", "modal_price": "2,450"},
    {"state": "Maharashtra", "district": "Pune", "market": "Pune", "commodity": "Onion", "variety": "Red", "grade": "FAQ",
     "arrival_date": "15/10/2026", "min_price": "NA", "max_price": "2900", "modal_price": 2600},
    {"state": "Maharashtra", "district": "Pune", "market": "Manchar", "commodity": "Onion", "variety": "Red", "grade": "FAQ",
     "arrival_date": "not a date", "min_price": "1000", "max_price": "2000", "modal_price": "1500"},
    {"state": "Maharashtra", "district": "Pune", "market": "Junnar", "commodity": "Onion", "variety": "Red", "grade": "FAQ",
     "arrival_date": "15/10/2026", "min_price": "1000", "max_price": "2000", "modal_price": ""}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.MandiConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		ResourceID: "res-1",
		CacheTTL:   time.Minute,
	}, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

func TestParseRecords(t *testing.T) {
	records, total, dropped, err := ParseRecords([]byte(samplePayload))
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 2, dropped)
	require.Len(t, records, 3)

	assert.Equal(t, 2450.0, records[1].ModalPrice)
	assert.Equal(t, 2600.0, records[2].MinPrice, "unparseable min falls back to modal")
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), records[0].ArrivalDate)
}

func TestParseRecordsRejectsMalformed(t *testing.T) {
	_, _, _, err := ParseRecords([]byte(`not json`))
	assert.Error(t, err)
	_, _, _, err = ParseRecords([]byte(`{"message": "invalid key"}`))
	assert.Error(t, err)
}

func TestFetchSortsAndCaches(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/resource/res-1", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "Onion", r.URL.Query().Get("filters[commodity]"))
		assert.Equal(t, "Maharashtra", r.URL.Query().Get("filters[state]"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	})

	q := mandi.Query{Commodity: " Onion ", State: "Maharashtra"}
	res, err := c.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "Pune", res.Records[0].Market)
	assert.Equal(t, "Pimpalgaon", res.Records[1].Market)
	assert.Equal(t, "Lasalgaon", res.Records[2].Market)

	again, err := c.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := c.Fetch(context.Background(), mandi.Query{})
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	_, err = c.Fetch(context.Background(), mandi.Query{Commodity: "Onion"})
	assert.True(t, errors.Is(err, errors.CodeExternalService))
}
