package mandi

import (
	"sort"
	"strings"
)

// SortRecords orders records newest arrival first, breaking ties by higher
// modal price. Records equal on both keys keep their input order.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		di, dj := records[i].ArrivalDate, records[j].ArrivalDate
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return records[i].ModalPrice > records[j].ModalPrice
	})
}

// MarketPrice is a market's best modal price on the latest arrival date
type MarketPrice struct {
	Market     string  `json:"market"`
	District   string  `json:"district"`
	State      string  `json:"state"`
	Variety    string  `json:"variety"`
	ModalPrice float64 `json:"modal_price"`
}

// BestMarkets returns up to n markets with the highest modal price among
// records from the most recent arrival date. Each market appears once.
func BestMarkets(records []Record, n int) []MarketPrice {
	if len(records) == 0 || n <= 0 {
		return nil
	}

	latest := records[0].ArrivalDate
	for _, r := range records[1:] {
		if r.ArrivalDate.After(latest) {
			latest = r.ArrivalDate
		}
	}

	best := make(map[string]MarketPrice)
	for _, r := range records {
		if !r.ArrivalDate.Equal(latest) {
			continue
		}
		key := strings.ToLower(r.State + "|" + r.District + "|" + r.Market)
		if cur, ok := best[key]; ok && cur.ModalPrice >= r.ModalPrice {
			continue
		}
		best[key] = MarketPrice{
			Market:     r.Market,
			District:   r.District,
			State:      r.State,
			Variety:    r.Variety,
			ModalPrice: r.ModalPrice,
		}
	}

	out := make([]MarketPrice, 0, len(best))
	for _, mp := range best {
		out = append(out, mp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModalPrice != out[j].ModalPrice {
			return out[i].ModalPrice > out[j].ModalPrice
		}
		return out[i].Market < out[j].Market
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
