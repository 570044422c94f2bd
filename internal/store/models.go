package store

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Product is one inventory record. JSON field names match the persisted
// collection layout, which predates this codebase.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Quality       string  `json:"quality"`
	Stock         int     `json:"stock"`
	SellingPrice  float64 `json:"sellingPrice"`
	PurchasePrice float64 `json:"purchasePrice"`
}

// Sale references a product by ID. Price is the per-unit price actually
// charged, which may differ from the product's listed selling price.
type Sale struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"productId"`
	Quantity       int       `json:"quantity"`
	Price          float64   `json:"price"`
	CustomerMobile string    `json:"customerMobile"`
	Date           time.Time `json:"date"`
}

// Expense is an append-only cost record.
type Expense struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
}

// Settings is the single shop-wide configuration record.
type Settings struct {
	TaxRate         float64 `json:"taxRate"`
	Currency        string  `json:"currency"`
	BusinessName    string  `json:"businessName"`
	BusinessAddress string  `json:"businessAddress"`
	BusinessPhone   string  `json:"businessPhone"`
	BusinessEmail   string  `json:"businessEmail"`
}

// DefaultSettings returns the record used when no settings have been saved.
func DefaultSettings() Settings {
	return Settings{
		TaxRate:         18,
		Currency:        "₹",
		BusinessName:    "Vaibhav Furnishing",
		BusinessAddress: "123 Main Street, City, State, 123456",
		BusinessPhone:   "+91 9876543210",
		BusinessEmail:   "info@vaibhavfurnishing.com",
	}
}

// ProfitSummary is the result of a profit calculation over a date range.
// Cost is recomputed from the current purchase price of each referenced
// product, not snapshotted at sale time.
type ProfitSummary struct {
	TotalSales    float64 `json:"totalSales"`
	TotalCost     float64 `json:"totalCost"`
	TotalExpenses float64 `json:"totalExpenses"`
	Profit        float64 `json:"profit"`
}

// Stored collections predate strict typing: numeric fields may arrive as JSON
// numbers or as strings, and dates in a handful of timestamp layouts. The
// custom decoders below coerce every variant, defaulting to zero on anything
// unparseable, so a single sloppy record never poisons a whole collection.

func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		Stock         json.RawMessage `json:"stock"`
		SellingPrice  json.RawMessage `json:"sellingPrice"`
		PurchasePrice json.RawMessage `json:"purchasePrice"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Stock = coerceInt(aux.Stock)
	p.SellingPrice = coerceFloat(aux.SellingPrice)
	p.PurchasePrice = coerceFloat(aux.PurchasePrice)
	return nil
}

func (s *Sale) UnmarshalJSON(data []byte) error {
	type alias Sale
	aux := struct {
		*alias
		Quantity json.RawMessage `json:"quantity"`
		Price    json.RawMessage `json:"price"`
		Date     json.RawMessage `json:"date"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Quantity = coerceInt(aux.Quantity)
	s.Price = coerceFloat(aux.Price)
	s.Date = coerceTime(aux.Date)
	return nil
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	type alias Expense
	aux := struct {
		*alias
		Amount json.RawMessage `json:"amount"`
		Date   json.RawMessage `json:"date"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Amount = coerceFloat(aux.Amount)
	e.Date = coerceTime(aux.Date)
	return nil
}

func coerceFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n
		}
	}
	return 0
}

func coerceInt(raw json.RawMessage) int {
	return int(coerceFloat(raw))
}

// timeLayouts are tried in order when decoding a date value.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

func coerceTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
