// Package store implements the entity repository over the embedded key-value
// storage. Every operation re-reads the full collection, mutates it and writes
// it back whole; nothing is cached between calls.
package store

// Ledger is the repository contract for the three persisted collections plus
// the settings record. It abstracts the underlying storage, allowing for
// different implementations (e.g., in-memory, key-value file).
type Ledger interface {
	// Products returns all products. A corrupt collection is reset to empty
	// and an empty slice returned.
	Products() ([]Product, error)

	// ProductByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	ProductByID(id string) (*Product, error)

	// AddProduct assigns a fresh ID and appends the product.
	AddProduct(p Product) (*Product, error)

	// UpdateProduct replaces the product with the given ID, preserving the ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateProduct(id string, p Product) (*Product, error)

	// DeleteProduct removes a product by its ID. The boolean reports whether
	// anything was removed.
	DeleteProduct(id string) (bool, error)

	// DecrementStock subtracts quantity from the product's stock.
	// Returns ErrInsufficientStock when the product holds less than quantity;
	// no mutation is persisted in that case.
	DecrementStock(id string, quantity int) (*Product, error)

	// LowStockProducts returns products whose stock is at or below threshold,
	// in insertion order.
	LowStockProducts(threshold int) ([]Product, error)

	// Sales returns all sales.
	Sales() ([]Sale, error)

	// SaleByID retrieves a single sale by its unique identifier.
	// Returns ErrSaleNotFound if no sale exists with the given ID.
	SaleByID(id string) (*Sale, error)

	// AddSale records a sale and decrements the referenced product's stock as
	// one unit of work: if the decrement fails the sale is not persisted.
	// A zero Date is defaulted to now.
	AddSale(s Sale) (*Sale, error)

	// DeleteSale removes a sale by its ID. Stock is deliberately NOT restored.
	DeleteSale(id string) (bool, error)

	// SalesInRange returns sales whose date falls inside r, bounds included.
	SalesInRange(r TimeRange) ([]Sale, error)

	// Expenses returns all expenses.
	Expenses() ([]Expense, error)

	// AddExpense appends an expense. Expenses are append-only.
	AddExpense(e Expense) (*Expense, error)

	// ExpensesInRange returns expenses whose date falls inside r.
	ExpensesInRange(r TimeRange) ([]Expense, error)

	// Profit computes revenue, cost and expense totals over r. Sales whose
	// product no longer exists contribute to neither revenue nor cost.
	Profit(r TimeRange) (*ProfitSummary, error)

	// Settings returns the saved settings record, or the defaults when none
	// has been saved yet.
	Settings() (*Settings, error)

	// SaveSettings replaces the settings record.
	SaveSettings(s Settings) error

	// ClearAll resets every collection to empty. Settings survive.
	ClearAll() error
}
