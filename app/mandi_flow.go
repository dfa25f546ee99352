package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"kisanrakshak/adapters/excel"
	"kisanrakshak/ai"
	"kisanrakshak/domain/mandi"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
)

const bestMarketCount = 5

// PriceReport is a ranked set of mandi prices with their summary
type PriceReport struct {
	Query       mandi.Query         `json:"query"`
	Records     []mandi.Record      `json:"records"`
	Summary     *mandi.Summary      `json:"summary,omitempty"`
	BestMarkets []mandi.MarketPrice `json:"best_markets"`
	Total       int                 `json:"total"`
	Dropped     int                 `json:"dropped"`
	Cached      bool                `json:"cached"`
}

// PriceAdviceResult pairs the market data with the model's recommendation
type PriceAdviceResult struct {
	Report     *PriceReport         `json:"report"`
	Advice     *models.MarketAdvice `json:"advice"`
	AdviceHTML string               `json:"advice_html"`
}

// Prices fetches price records in source order and ranks markets.
// An empty result has no summary.
func (s *FlowService) Prices(ctx context.Context, q mandi.Query) (*PriceReport, error) {
	res, err := s.prices.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	records := res.Records

	report := &PriceReport{
		Query:       res.Query,
		Records:     records,
		BestMarkets: mandi.BestMarkets(records, bestMarketCount),
		Total:       res.Total,
		Dropped:     res.Dropped,
		Cached:      res.Cached,
	}
	if len(records) > 0 {
		summary, err := mandi.Summarize(records)
		if err != nil {
			return nil, errors.Wrap(err, "failed to summarize prices")
		}
		report.Summary = summary
	}
	return report, nil
}

// ExportPrices writes the price report as an xlsx workbook
func (s *FlowService) ExportPrices(ctx context.Context, q mandi.Query, w io.Writer) error {
	report, err := s.Prices(ctx, q)
	if err != nil {
		return err
	}
	if err := excel.WritePrices(w, report.Records, report.Summary); err != nil {
		return errors.Wrap(err, "failed to write price workbook")
	}
	return nil
}

// PriceAdvice recommends whether to sell now given recent mandi prices
func (s *FlowService) PriceAdvice(ctx context.Context, userID uuid.UUID, req *models.PriceAdviceRequest) (*PriceAdviceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report, err := s.Prices(ctx, mandi.Query{
		Commodity: req.Commodity,
		State:     req.State,
		District:  req.District,
		Limit:     500,
	})
	if err != nil {
		return nil, err
	}
	if report.Summary == nil {
		return nil, errors.NotFound(fmt.Sprintf("price records for %s", req.Commodity))
	}

	advice, err := s.market.GetJSONResponseFromPrompt(ctx, ai.Call{
		UserID: userID,
		Prompt: ai.PromptPriceAdvice,
		Replacements: map[string]string{
			"COMMODITY":    req.Commodity,
			"STATE":        orDash(req.State),
			"DISTRICT":     orDash(req.District),
			"QUANTITY":     formatAmount(req.Quantity),
			"SUMMARY":      describeSummary(report.Summary),
			"BEST_MARKETS": describeMarkets(report.BestMarkets),
			"LANGUAGE":     models.LanguageName(req.Language),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "price advice failed")
	}
	if advice.BestMarket == "" && len(report.BestMarkets) > 0 {
		advice.BestMarket = report.BestMarkets[0].Market
	}

	return &PriceAdviceResult{
		Report:     report,
		Advice:     advice,
		AdviceHTML: ai.RenderMarkdown(advice.Reasoning),
	}, nil
}

func describeSummary(s *mandi.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- records: %d, latest arrival: %s\n", s.Count, s.LatestDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "- modal min/median/mean/max: %.0f / %.0f / %.0f / %.0f\n", s.MinModal, s.MedianModal, s.MeanModal, s.MaxModal)
	fmt.Fprintf(&b, "- trend: %s (%.2f Rs/quintal per day)\n", s.Trend, s.SlopePerDay)
	b.WriteString("- daily medians:")
	for _, p := range s.Series {
		fmt.Fprintf(&b, " %s=%.0f", p.Date.Format("01-02"), p.MedianModal)
	}
	return b.String()
}

func describeMarkets(markets []mandi.MarketPrice) string {
	if len(markets) == 0 {
		return "none"
	}
	lines := make([]string, len(markets))
	for i, m := range markets {
		lines[i] = fmt.Sprintf("%d. %s (%s, %s): %.0f", i+1, m.Market, m.District, m.State, m.ModalPrice)
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
