package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lederrors "github.com/shopkit/shopd/internal/errors"
	"github.com/shopkit/shopd/internal/storage"
)

// KV implements Ledger over a storage.Driver. A single mutex serializes every
// operation: the read-modify-write cycle is only safe when no second writer
// can interleave, which the original single-tab runtime guaranteed for free
// and an HTTP server does not.
type KV struct {
	mu     sync.Mutex
	drv    storage.Driver
	logger *slog.Logger
	now    func() time.Time
}

var _ Ledger = (*KV)(nil)

// NewKV creates a ledger backed by drv.
func NewKV(drv storage.Driver, logger *slog.Logger) *KV {
	return &KV{
		drv:    drv,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
}

// Products returns all products.
func (kv *KV) Products() ([]Product, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return readCollection[Product](kv, storage.KeyProducts)
}

// ProductByID retrieves a single product by its unique identifier.
func (kv *KV) ProductByID(id string) (*Product, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.productByID(id)
}

// AddProduct assigns a fresh ID and appends the product.
func (kv *KV) AddProduct(p Product) (*Product, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	products, err := readCollection[Product](kv, storage.KeyProducts)
	if err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	products = append(products, p)
	if err := writeCollection(kv, storage.KeyProducts, products); err != nil {
		return nil, fmt.Errorf("failed to add product: %w", err)
	}
	return &p, nil
}

// UpdateProduct replaces the product with the given ID, preserving the ID.
func (kv *KV) UpdateProduct(id string, p Product) (*Product, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.updateProduct(id, p)
}

// DeleteProduct removes a product by its ID.
func (kv *KV) DeleteProduct(id string) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	products, err := readCollection[Product](kv, storage.KeyProducts)
	if err != nil {
		return false, err
	}
	kept := products[:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(products) {
		return false, nil
	}
	if err := writeCollection(kv, storage.KeyProducts, kept); err != nil {
		return false, fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return true, nil
}

// DecrementStock subtracts quantity from the product's stock.
func (kv *KV) DecrementStock(id string, quantity int) (*Product, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.decrementStock(id, quantity)
}

// LowStockProducts returns products whose stock is at or below threshold.
func (kv *KV) LowStockProducts(threshold int) ([]Product, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	products, err := readCollection[Product](kv, storage.KeyProducts)
	if err != nil {
		return nil, err
	}
	low := make([]Product, 0)
	for _, p := range products {
		if p.Stock <= threshold {
			low = append(low, p)
		}
	}
	return low, nil
}

// Sales returns all sales.
func (kv *KV) Sales() ([]Sale, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return readCollection[Sale](kv, storage.KeySales)
}

// SaleByID retrieves a single sale by its unique identifier.
func (kv *KV) SaleByID(id string) (*Sale, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	sales, err := readCollection[Sale](kv, storage.KeySales)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		if sales[i].ID == id {
			return &sales[i], nil
		}
	}
	return nil, lederrors.ErrSaleNotFound
}

// AddSale records a sale and decrements the referenced product's stock as one
// unit of work. The decrement is applied first; if it fails, nothing is
// written. The mutex guarantees no other operation observes the intermediate
// state.
func (kv *KV) AddSale(s Sale) (*Sale, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	sales, err := readCollection[Sale](kv, storage.KeySales)
	if err != nil {
		return nil, err
	}

	s.ID = uuid.NewString()
	if s.Date.IsZero() {
		s.Date = kv.now()
	}

	if _, err := kv.decrementStock(s.ProductID, s.Quantity); err != nil {
		return nil, err
	}

	sales = append(sales, s)
	if err := writeCollection(kv, storage.KeySales, sales); err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	return &s, nil
}

// DeleteSale removes a sale by its ID. Stock is deliberately not restored;
// returns and corrections are recorded as separate inventory adjustments.
func (kv *KV) DeleteSale(id string) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	sales, err := readCollection[Sale](kv, storage.KeySales)
	if err != nil {
		return false, err
	}
	kept := sales[:0]
	for _, s := range sales {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(sales) {
		return false, nil
	}
	if err := writeCollection(kv, storage.KeySales, kept); err != nil {
		return false, fmt.Errorf("failed to delete sale %s: %w", id, err)
	}
	return true, nil
}

// SalesInRange returns sales whose date falls inside r, bounds included.
func (kv *KV) SalesInRange(r TimeRange) ([]Sale, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.salesInRange(r)
}

// Expenses returns all expenses.
func (kv *KV) Expenses() ([]Expense, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return readCollection[Expense](kv, storage.KeyExpenses)
}

// AddExpense appends an expense, assigning an ID and defaulting the date.
func (kv *KV) AddExpense(e Expense) (*Expense, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	expenses, err := readCollection[Expense](kv, storage.KeyExpenses)
	if err != nil {
		return nil, err
	}
	e.ID = uuid.NewString()
	if e.Date.IsZero() {
		e.Date = kv.now()
	}
	expenses = append(expenses, e)
	if err := writeCollection(kv, storage.KeyExpenses, expenses); err != nil {
		return nil, fmt.Errorf("failed to add expense: %w", err)
	}
	return &e, nil
}

// ExpensesInRange returns expenses whose date falls inside r.
func (kv *KV) ExpensesInRange(r TimeRange) ([]Expense, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.expensesInRange(r)
}

// Profit computes revenue, cost and expense totals over r. Sales referencing
// a deleted product are skipped entirely, so they contribute to neither side.
// Cost uses the product's current purchase price, not a snapshot.
func (kv *KV) Profit(r TimeRange) (*ProfitSummary, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	sales, err := kv.salesInRange(r)
	if err != nil {
		return nil, err
	}
	expenses, err := kv.expensesInRange(r)
	if err != nil {
		return nil, err
	}
	products, err := readCollection[Product](kv, storage.KeyProducts)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var summary ProfitSummary
	for _, s := range sales {
		p, ok := byID[s.ProductID]
		if !ok {
			continue
		}
		summary.TotalSales += s.Price * float64(s.Quantity)
		summary.TotalCost += p.PurchasePrice * float64(s.Quantity)
	}
	for _, e := range expenses {
		summary.TotalExpenses += e.Amount
	}
	summary.Profit = summary.TotalSales - summary.TotalCost - summary.TotalExpenses
	return &summary, nil
}

// Settings returns the saved settings record, or the defaults when absent or
// unreadable.
func (kv *KV) Settings() (*Settings, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	raw, ok, err := kv.drv.Get(storage.KeySettings)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	defaults := DefaultSettings()
	if !ok {
		return &defaults, nil
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		kv.logger.Warn("Settings record is corrupt, using defaults", "error", err)
		return &defaults, nil
	}
	return &s, nil
}

// SaveSettings replaces the settings record.
func (kv *KV) SaveSettings(s Settings) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := kv.drv.Set(storage.KeySettings, raw); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ClearAll resets every collection to empty. Settings survive.
func (kv *KV) ClearAll() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	for _, key := range storage.CollectionKeys {
		if err := kv.drv.Set(key, []byte("[]")); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

// --- internals; callers hold kv.mu ---

func (kv *KV) productByID(id string) (*Product, error) {
	products, err := readCollection[Product](kv, storage.KeyProducts)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, lederrors.ErrProductNotFound
}

func (kv *KV) updateProduct(id string, p Product) (*Product, error) {
	products, err := readCollection[Product](kv, storage.KeyProducts)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			p.ID = id
			products[i] = p
			if err := writeCollection(kv, storage.KeyProducts, products); err != nil {
				return nil, fmt.Errorf("failed to update product %s: %w", id, err)
			}
			return &p, nil
		}
	}
	return nil, lederrors.ErrProductNotFound
}

func (kv *KV) decrementStock(id string, quantity int) (*Product, error) {
	product, err := kv.productByID(id)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("product %s has %d in stock, requested %d: %w",
			id, product.Stock, quantity, lederrors.ErrInsufficientStock)
	}
	product.Stock -= quantity
	return kv.updateProduct(id, *product)
}

func (kv *KV) salesInRange(r TimeRange) ([]Sale, error) {
	sales, err := readCollection[Sale](kv, storage.KeySales)
	if err != nil {
		return nil, err
	}
	matched := make([]Sale, 0)
	for _, s := range sales {
		if r.Contains(s.Date) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (kv *KV) expensesInRange(r TimeRange) ([]Expense, error) {
	expenses, err := readCollection[Expense](kv, storage.KeyExpenses)
	if err != nil {
		return nil, err
	}
	matched := make([]Expense, 0)
	for _, e := range expenses {
		if r.Contains(e.Date) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// readCollection decodes the stored array under key. A missing key yields an
// empty slice; a corrupt value is reset to an empty array and logged, never
// surfaced to the caller.
func readCollection[T any](kv *KV, key string) ([]T, error) {
	raw, ok, err := kv.drv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		kv.logger.Error("Collection is corrupt, resetting to empty", "key", key, "error", err)
		if resetErr := kv.drv.Set(key, []byte("[]")); resetErr != nil {
			return nil, fmt.Errorf("failed to reset corrupt %s: %w", key, resetErr)
		}
		return []T{}, nil
	}
	return items, nil
}

func writeCollection[T any](kv *KV, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.drv.Set(key, raw)
}
