package mandi

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the arrival date format used by the price API
const DateLayout = "02/01/2006"

// Query selects price records. Empty fields are not filtered on.
type Query struct {
	Commodity string `json:"commodity"`
	State     string `json:"state"`
	District  string `json:"district"`
	Market    string `json:"market"`
	Limit     int    `json:"limit"`
}

// Normalize trims fields and applies the default limit
func (q Query) Normalize() Query {
	q.Commodity = strings.TrimSpace(q.Commodity)
	q.State = strings.TrimSpace(q.State)
	q.District = strings.TrimSpace(q.District)
	q.Market = strings.TrimSpace(q.Market)
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}
	return q
}

// CacheKey identifies the query for response caching
func (q Query) CacheKey() string {
	q = q.Normalize()
	return strings.ToLower(strings.Join([]string{q.Commodity, q.State, q.District, q.Market}, "|")) +
		"|" + strconv.Itoa(q.Limit)
}

// Record is one market's price report for a commodity on a date. Prices are in ₹/quintal.
type Record struct {
	State       string    `json:"state"`
	District    string    `json:"district"`
	Market      string    `json:"market"`
	Commodity   string    `json:"commodity"`
	Variety     string    `json:"variety"`
	Grade       string    `json:"grade"`
	ArrivalDate time.Time `json:"arrival_date"`
	MinPrice    float64   `json:"min_price"`
	MaxPrice    float64   `json:"max_price"`
	ModalPrice  float64   `json:"modal_price"`
}

// FetchResult is a page of parsed, ranked records
type FetchResult struct {
	Query   Query     `json:"query"`
	Records []Record  `json:"records"`
	Total   int       `json:"total"`
	Dropped int       `json:"dropped"`
	Cached  bool      `json:"cached"`
	Fetched time.Time `json:"fetched_at"`
}
