package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopkit/shopd/internal/store"
)

// DashboardSummary is the read-only view model behind the dashboard page.
// The four revenue scalars are naive price*quantity sums over every sale in
// the period, including sales whose product has since been deleted. The
// report engine excludes those; the discrepancy is the documented behavior of
// the system and must not be "fixed" here.
type DashboardSummary struct {
	TodaySales   float64      `json:"todaySales"`
	WeeklySales  float64      `json:"weeklySales"`
	MonthlySales float64      `json:"monthlySales"`
	YearlySales  float64      `json:"yearlySales"`
	RecentSales  []RecentSale `json:"recentSales"`
	LowStock     []store.Product `json:"lowStock"`
}

// RecentSale is one row of the dashboard's latest-sales table.
type RecentSale struct {
	Date           time.Time `json:"date"`
	ProductName    string    `json:"productName"`
	Quantity       int       `json:"quantity"`
	Price          float64   `json:"price"`
	CustomerMobile string    `json:"customerMobile"`
}

// recentSalesLimit bounds the dashboard's latest-sales table.
const recentSalesLimit = 5

// Report is the date-ranged sales report with per-sale rows and aggregate
// totals.
type Report struct {
	Start         time.Time   `json:"start"`
	End           time.Time   `json:"end"`
	TotalSales    float64     `json:"totalSales"`
	TotalCost     float64     `json:"totalCost"`
	TotalExpenses float64     `json:"totalExpenses"`
	Profit        float64     `json:"profit"`
	ItemsSold     int         `json:"itemsSold"`
	Rows          []ReportRow `json:"rows"`
}

// ReportRow is one sale projected against the current product catalog.
type ReportRow struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	ProductID    string    `json:"productId"`
	ProductName  string    `json:"productName"`
	Category     string    `json:"category"`
	CategoryName string    `json:"categoryName"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Total        float64   `json:"total"`
	Cost         float64   `json:"cost"`
	Profit       float64   `json:"profit"`
}

// Dashboard assembles the summary view for the current instant.
func (s *Service) Dashboard() (*DashboardSummary, error) {
	now := s.now()

	summary := &DashboardSummary{}
	for _, period := range []struct {
		r   store.TimeRange
		dst *float64
	}{
		{store.Today(now), &summary.TodaySales},
		{store.ThisWeek(now), &summary.WeeklySales},
		{store.ThisMonth(now), &summary.MonthlySales},
		{store.ThisYear(now), &summary.YearlySales},
	} {
		sales, err := s.ledger.SalesInRange(period.r)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch sales for dashboard: %w", err)
		}
		*period.dst = totalSalesAmount(sales)
	}

	recent, err := s.recentSales()
	if err != nil {
		return nil, err
	}
	summary.RecentSales = recent

	low, err := s.LowStock()
	if err != nil {
		return nil, err
	}
	summary.LowStock = low

	return summary, nil
}

// Report builds the per-sale report over [start, end] calendar dates. Rows
// are sorted newest first; sales whose product no longer exists are dropped.
func (s *Service) Report(start, end time.Time) (*Report, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("report start %s is after end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	r := store.Between(start, end)

	profit, err := s.ledger.Profit(r)
	if err != nil {
		return nil, fmt.Errorf("failed to compute profit: %w", err)
	}
	sales, err := s.ledger.SalesInRange(r)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales for report: %w", err)
	}
	products, err := s.ledger.Products()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products for report: %w", err)
	}
	byID := make(map[string]store.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	report := &Report{
		Start:         r.Start,
		End:           r.End,
		TotalSales:    profit.TotalSales,
		TotalCost:     profit.TotalCost,
		TotalExpenses: profit.TotalExpenses,
		Profit:        profit.Profit,
		Rows:          make([]ReportRow, 0, len(sales)),
	}
	for _, sale := range sales {
		// Items sold counts every sale in range, orphaned or not.
		report.ItemsSold += sale.Quantity

		product, ok := byID[sale.ProductID]
		if !ok {
			continue
		}
		total := sale.Price * float64(sale.Quantity)
		cost := product.PurchasePrice * float64(sale.Quantity)
		report.Rows = append(report.Rows, ReportRow{
			ID:           sale.ID,
			Date:         sale.Date,
			ProductID:    sale.ProductID,
			ProductName:  product.Name,
			Category:     product.Category,
			CategoryName: s.categoryName(product.Category),
			Quantity:     sale.Quantity,
			Price:        sale.Price,
			Total:        total,
			Cost:         cost,
			Profit:       total - cost,
		})
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].Date.After(report.Rows[j].Date)
	})
	return report, nil
}

// recentSales returns the latest sales, newest first, with product names
// resolved against the current catalog.
func (s *Service) recentSales() ([]RecentSale, error) {
	sales, err := s.ledger.Sales()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent sales: %w", err)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].Date.After(sales[j].Date)
	})
	if len(sales) > recentSalesLimit {
		sales = sales[:recentSalesLimit]
	}

	products, err := s.ledger.Products()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products for recent sales: %w", err)
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	recent := make([]RecentSale, 0, len(sales))
	for _, sale := range sales {
		name, ok := names[sale.ProductID]
		if !ok {
			name = "Unknown Product"
		}
		recent = append(recent, RecentSale{
			Date:           sale.Date,
			ProductName:    name,
			Quantity:       sale.Quantity,
			Price:          sale.Price,
			CustomerMobile: sale.CustomerMobile,
		})
	}
	return recent, nil
}

func totalSalesAmount(sales []store.Sale) float64 {
	var total float64
	for _, s := range sales {
		total += s.Price * float64(s.Quantity)
	}
	return total
}
