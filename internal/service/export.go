package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// csvDateLayout matches the human-readable date column of exported reports.
const csvDateLayout = "2 Jan 2006"

// ReportCSV renders the report rows as CSV. encoding/csv quotes and
// ""-escapes fields as needed, so embedded commas and quotes in product names
// are always safe.
func (s *Service) ReportCSV(start, end time.Time) ([]byte, error) {
	report, err := s.Report(start, end)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", "Product", "Category", "Quantity", "Price", "Total", "Profit"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range report.Rows {
		record := []string{
			row.Date.Format(csvDateLayout),
			row.ProductName,
			row.CategoryName,
			strconv.Itoa(row.Quantity),
			formatAmount(row.Price),
			formatAmount(row.Total),
			formatAmount(row.Profit),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportJSON renders the full report, aggregates included, as a
// pretty-printed JSON blob suitable for download.
func (s *Service) ReportJSON(start, end time.Time) ([]byte, error) {
	report, err := s.Report(start, end)
	if err != nil {
		return nil, err
	}
	blob, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return blob, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
