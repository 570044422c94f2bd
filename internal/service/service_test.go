package service

import (
	"errors"
	"testing"

	lederrors "github.com/shopkit/shopd/internal/errors"
	"github.com/shopkit/shopd/internal/store"
	"github.com/shopkit/shopd/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLedger is a canned-response implementation of the store.Ledger interface
type mockLedger struct {
	products []store.Product
	product  *store.Product
	sales    []store.Sale
	sale     *store.Sale
	expenses []store.Expense
	expense  *store.Expense
	profit   *store.ProfitSummary
	settings *store.Settings
	removed  bool
	err      error
}

func (m *mockLedger) Products() ([]store.Product, error) { return m.products, m.err }
func (m *mockLedger) ProductByID(_ string) (*store.Product, error) {
	return m.product, m.err
}
func (m *mockLedger) AddProduct(_ store.Product) (*store.Product, error) {
	return m.product, m.err
}
func (m *mockLedger) UpdateProduct(_ string, _ store.Product) (*store.Product, error) {
	return m.product, m.err
}
func (m *mockLedger) DeleteProduct(_ string) (bool, error) { return m.removed, m.err }
func (m *mockLedger) DecrementStock(_ string, _ int) (*store.Product, error) {
	return m.product, m.err
}
func (m *mockLedger) LowStockProducts(_ int) ([]store.Product, error) {
	return m.products, m.err
}
func (m *mockLedger) Sales() ([]store.Sale, error) { return m.sales, m.err }
func (m *mockLedger) SaleByID(_ string) (*store.Sale, error) { return m.sale, m.err }
func (m *mockLedger) AddSale(_ store.Sale) (*store.Sale, error) {
	return m.sale, m.err
}
func (m *mockLedger) DeleteSale(_ string) (bool, error) { return m.removed, m.err }

// SalesInRange filters the canned sales so period partition logic is exercised.
func (m *mockLedger) SalesInRange(r store.TimeRange) ([]store.Sale, error) {
	if m.err != nil {
		return nil, m.err
	}
	matched := make([]store.Sale, 0)
	for _, s := range m.sales {
		if r.Contains(s.Date) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}
func (m *mockLedger) Expenses() ([]store.Expense, error) { return m.expenses, m.err }
func (m *mockLedger) AddExpense(_ store.Expense) (*store.Expense, error) {
	return m.expense, m.err
}
func (m *mockLedger) ExpensesInRange(_ store.TimeRange) ([]store.Expense, error) {
	return m.expenses, m.err
}
func (m *mockLedger) Profit(_ store.TimeRange) (*store.ProfitSummary, error) {
	return m.profit, m.err
}
func (m *mockLedger) Settings() (*store.Settings, error) { return m.settings, m.err }
func (m *mockLedger) SaveSettings(_ store.Settings) error { return m.err }
func (m *mockLedger) ClearAll() error                     { return m.err }

func testShopConfig() config.ShopConfig {
	return config.ShopConfig{
		Name:              "Test Shop",
		Currency:          "₹",
		LowStockThreshold: 5,
		Categories: []config.CategoryConfig{
			{ID: "carpets", Name: "Carpets"},
			{ID: "cushions", Name: "Cushions"},
			{ID: "curtains", Name: "Curtains"},
		},
	}
}

func Test_Service_Product(t *testing.T) {
	testCases := []struct {
		name        string
		ledger      *mockLedger
		expectError error
	}{
		{
			name:   "Success - product found",
			ledger: &mockLedger{product: &store.Product{ID: "1", Name: "Rug"}},
		},
		{
			name:        "Error - product not found",
			ledger:      &mockLedger{err: lederrors.ErrProductNotFound},
			expectError: lederrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := NewService(tc.ledger, testShopConfig())
			// when
			found, err := svc.Product("1")
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Rug", found.Name)
		})
	}
}

func Test_Service_DeleteProduct(t *testing.T) {
	testCases := []struct {
		name        string
		ledger      *mockLedger
		expectError error
	}{
		{
			name:   "Success - product deleted",
			ledger: &mockLedger{removed: true},
		},
		{
			name:        "Error - nothing removed maps to not found",
			ledger:      &mockLedger{removed: false},
			expectError: lederrors.ErrProductNotFound,
		},
		{
			name:        "Error - ledger failure",
			ledger:      &mockLedger{err: errors.New("storage unavailable")},
			expectError: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.ledger, testShopConfig())
			err := svc.DeleteProduct("1")
			switch {
			case tc.expectError != nil:
				assert.ErrorIs(t, err, tc.expectError)
			case tc.ledger.err != nil:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_Service_DeleteSale(t *testing.T) {
	testCases := []struct {
		name        string
		ledger      *mockLedger
		expectError error
	}{
		{
			name:   "Success - sale deleted",
			ledger: &mockLedger{removed: true},
		},
		{
			name:        "Error - nothing removed maps to not found",
			ledger:      &mockLedger{removed: false},
			expectError: lederrors.ErrSaleNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.ledger, testShopConfig())
			err := svc.DeleteSale("1")
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_Service_RecordSale_PassesInsufficientStockThrough(t *testing.T) {
	svc := NewService(&mockLedger{err: lederrors.ErrInsufficientStock}, testShopConfig())

	recorded, err := svc.RecordSale(SaleCreateDto{ProductID: "1", Quantity: 5, Price: 10, CustomerMobile: "9876543210"})

	assert.ErrorIs(t, err, lederrors.ErrInsufficientStock)
	assert.Nil(t, recorded)
}

func Test_Service_UpdateSettings(t *testing.T) {
	svc := NewService(&mockLedger{}, testShopConfig())

	updated, err := svc.UpdateSettings(SettingsDto{TaxRate: 12, Currency: "$", BusinessName: "Corner Shop"})

	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", updated.BusinessName)
	assert.InDelta(t, 12.0, updated.TaxRate, 1e-9)
}

func Test_Service_CategoryName(t *testing.T) {
	svc := NewService(&mockLedger{}, testShopConfig())

	assert.Equal(t, "Carpets", svc.categoryName("carpets"))
	// unknown IDs pass through unchanged
	assert.Equal(t, "furniture", svc.categoryName("furniture"))
}
