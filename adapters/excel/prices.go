package excel

import (
	"fmt"
	"io"

	"kisanrakshak/domain/mandi"

	"github.com/xuri/excelize/v2"
)

const (
	pricesSheet  = "Prices"
	summarySheet = "Summary"
)

var priceHeader = []interface{}{
	"Arrival Date", "State", "District", "Market", "Commodity", "Variety", "Grade",
	"Min Price (Rs/qtl)", "Max Price (Rs/qtl)", "Modal Price (Rs/qtl)",
}

// WritePrices writes the records, in their given order, and an optional
// summary to an xlsx workbook.
func WritePrices(w io.Writer, records []mandi.Record, summary *mandi.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", pricesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := f.SetSheetRow(pricesSheet, "A1", &priceHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.ArrivalDate.Format(mandi.DateLayout), r.State, r.District, r.Market, r.Commodity,
			r.Variety, r.Grade, r.MinPrice, r.MaxPrice, r.ModalPrice,
		}
		if err := f.SetSheetRow(pricesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(pricesSheet, "A", "J", 16); err != nil {
		return err
	}
	if err := f.SetPanes(pricesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if summary != nil {
		if err := writeSummary(f, summary); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s *mandi.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Records", s.Count},
		{"Latest Arrival", s.LatestDate.Format(mandi.DateLayout)},
		{"Min Modal", s.MinModal},
		{"Max Modal", s.MaxModal},
		{"Mean Modal", s.MeanModal},
		{"Median Modal", s.MedianModal},
		{"Slope (Rs/day)", s.SlopePerDay},
		{"Trend", s.Trend},
		{},
		{"Date", "Median Modal", "Markets"},
	}
	for _, p := range s.Series {
		rows = append(rows, []interface{}{p.Date.Format(mandi.DateLayout), p.MedianModal, p.Markets})
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "C", 18)
}
