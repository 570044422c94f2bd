package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	lederrors "github.com/shopkit/shopd/internal/errors"
	"github.com/shopkit/shopd/internal/storage"
	"github.com/shopkit/shopd/internal/storage/memdriver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) (*KV, storage.Driver) {
	t.Helper()
	drv := memdriver.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewKV(drv, logger), drv
}

func mustAddProduct(t *testing.T, kv *KV, p Product) *Product {
	t.Helper()
	added, err := kv.AddProduct(p)
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)
	return added
}

func Test_KV_AddProduct(t *testing.T) {
	// given
	kv, _ := newTestKV(t)

	// when
	added := mustAddProduct(t, kv, Product{Name: "Rug", Category: "carpets", Stock: 10, SellingPrice: 100, PurchasePrice: 50})

	// then
	products, err := kv.Products()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, added.ID, products[0].ID)
	assert.Equal(t, "Rug", products[0].Name)
}

func Test_KV_ProductByID(t *testing.T) {
	kv, _ := newTestKV(t)
	added := mustAddProduct(t, kv, Product{Name: "Rug", Stock: 3})

	testCases := []struct {
		name        string
		id          string
		expectError error
	}{
		{name: "Success - product found", id: added.ID},
		{name: "Error - product not found", id: "nope", expectError: lederrors.ErrProductNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			found, err := kv.ProductByID(tc.id)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, added.ID, found.ID)
		})
	}
}

func Test_KV_UpdateProduct_NotFound(t *testing.T) {
	kv, _ := newTestKV(t)

	updated, err := kv.UpdateProduct("missing", Product{Name: "Rug"})

	assert.ErrorIs(t, err, lederrors.ErrProductNotFound)
	assert.Nil(t, updated)
}

func Test_KV_UpdateProduct_PreservesID(t *testing.T) {
	kv, _ := newTestKV(t)
	added := mustAddProduct(t, kv, Product{Name: "Rug", Stock: 10})

	updated, err := kv.UpdateProduct(added.ID, Product{ID: "attacker-controlled", Name: "Better Rug", Stock: 12})

	require.NoError(t, err)
	assert.Equal(t, added.ID, updated.ID)
	assert.Equal(t, "Better Rug", updated.Name)
	assert.Equal(t, 12, updated.Stock)
}

func Test_KV_DeleteProduct(t *testing.T) {
	kv, _ := newTestKV(t)
	added := mustAddProduct(t, kv, Product{Name: "Rug"})

	removed, err := kv.DeleteProduct(added.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = kv.DeleteProduct(added.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func Test_KV_AddSale_DecrementsStock(t *testing.T) {
	kv, _ := newTestKV(t)
	product := mustAddProduct(t, kv, Product{Name: "Rug", Stock: 10, SellingPrice: 100, PurchasePrice: 50})

	sale, err := kv.AddSale(Sale{ProductID: product.ID, Quantity: 3, Price: 100, CustomerMobile: "9876543210"})

	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.False(t, sale.Date.IsZero())

	after, err := kv.ProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, after.Stock)
}

func Test_KV_AddSale_InsufficientStock(t *testing.T) {
	kv, _ := newTestKV(t)
	product := mustAddProduct(t, kv, Product{Name: "Rug", Stock: 2})

	sale, err := kv.AddSale(Sale{ProductID: product.ID, Quantity: 3, Price: 100})

	// then: the sale is rejected and nothing was persisted
	assert.ErrorIs(t, err, lederrors.ErrInsufficientStock)
	assert.Nil(t, sale)

	sales, err := kv.Sales()
	require.NoError(t, err)
	assert.Empty(t, sales)

	after, err := kv.ProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Stock)
}

func Test_KV_AddSale_UnknownProduct(t *testing.T) {
	kv, _ := newTestKV(t)

	sale, err := kv.AddSale(Sale{ProductID: "ghost", Quantity: 1, Price: 10})

	assert.ErrorIs(t, err, lederrors.ErrProductNotFound)
	assert.Nil(t, sale)
}

func Test_KV_DeleteSale_DoesNotRestoreStock(t *testing.T) {
	kv, _ := newTestKV(t)
	product := mustAddProduct(t, kv, Product{Name: "Rug", Stock: 10})
	sale, err := kv.AddSale(Sale{ProductID: product.ID, Quantity: 4, Price: 100})
	require.NoError(t, err)

	removed, err := kv.DeleteSale(sale.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	// then: the record is gone but stock stays decremented
	sales, err := kv.Sales()
	require.NoError(t, err)
	assert.Empty(t, sales)

	after, err := kv.ProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, after.Stock)
}

func Test_KV_DeleteSale_NotFound(t *testing.T) {
	kv, _ := newTestKV(t)

	removed, err := kv.DeleteSale("missing")

	require.NoError(t, err)
	assert.False(t, removed)
}

func Test_KV_LowStockProducts(t *testing.T) {
	kv, _ := newTestKV(t)
	atThreshold := mustAddProduct(t, kv, Product{Name: "At threshold", Stock: 5})
	mustAddProduct(t, kv, Product{Name: "Above threshold", Stock: 6})
	empty := mustAddProduct(t, kv, Product{Name: "Out of stock", Stock: 0})

	low, err := kv.LowStockProducts(5)

	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, atThreshold.ID, low[0].ID)
	assert.Equal(t, empty.ID, low[1].ID)
}

func Test_KV_Profit(t *testing.T) {
	kv, _ := newTestKV(t)
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }

	rug := mustAddProduct(t, kv, Product{Name: "Rug", Stock: 10, SellingPrice: 100, PurchasePrice: 50})
	_, err := kv.AddSale(Sale{ProductID: rug.ID, Quantity: 3, Price: 100})
	require.NoError(t, err)
	_, err = kv.AddExpense(Expense{Amount: 40, Description: "electricity"})
	require.NoError(t, err)

	summary, err := kv.Profit(Today(now))

	require.NoError(t, err)
	assert.InDelta(t, 300.0, summary.TotalSales, 1e-9)
	assert.InDelta(t, 150.0, summary.TotalCost, 1e-9)
	assert.InDelta(t, 40.0, summary.TotalExpenses, 1e-9)
	assert.InDelta(t, 110.0, summary.Profit, 1e-9)
}

func Test_KV_Profit_SkipsOrphanedSales(t *testing.T) {
	kv, _ := newTestKV(t)
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }

	rug := mustAddProduct(t, kv, Product{Name: "Rug", Stock: 10, SellingPrice: 100, PurchasePrice: 50})
	_, err := kv.AddSale(Sale{ProductID: rug.ID, Quantity: 3, Price: 100})
	require.NoError(t, err)

	removed, err := kv.DeleteProduct(rug.ID)
	require.NoError(t, err)
	require.True(t, removed)

	summary, err := kv.Profit(Today(now))

	// then: the orphaned sale contributes to neither revenue nor cost
	require.NoError(t, err)
	assert.Zero(t, summary.TotalSales)
	assert.Zero(t, summary.TotalCost)
	assert.Zero(t, summary.Profit)
}

func Test_KV_CorruptCollection_SelfHeals(t *testing.T) {
	kv, drv := newTestKV(t)
	require.NoError(t, drv.Set(storage.KeyProducts, []byte("{not json")))

	products, err := kv.Products()

	require.NoError(t, err)
	assert.Empty(t, products)

	// then: the stored value was reset to an empty array
	raw, ok, err := drv.Get(storage.KeyProducts)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, "[]", string(raw))
}

func Test_KV_NullCollection_SelfHeals(t *testing.T) {
	kv, drv := newTestKV(t)
	require.NoError(t, drv.Set(storage.KeySales, []byte("null")))

	sales, err := kv.Sales()

	require.NoError(t, err)
	assert.Empty(t, sales)
}

func Test_KV_CoercedRecordsSurvive(t *testing.T) {
	// given: a hand-written record with string numbers and a plain date
	kv, drv := newTestKV(t)
	blob, err := json.Marshal([]map[string]any{{
		"id":             "legacy-1",
		"productId":      "p1",
		"quantity":       "2",
		"price":          "99.5",
		"customerMobile": "9876543210",
		"date":           "2025-03-10",
	}})
	require.NoError(t, err)
	require.NoError(t, drv.Set(storage.KeySales, blob))

	sales, err := kv.Sales()

	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 2, sales[0].Quantity)
	assert.InDelta(t, 99.5, sales[0].Price, 1e-9)
	assert.Equal(t, 2025, sales[0].Date.Year())
}

func Test_KV_Settings_DefaultsWhenAbsent(t *testing.T) {
	kv, _ := newTestKV(t)

	settings, err := kv.Settings()

	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), *settings)
}

func Test_KV_SaveSettings_RoundTrip(t *testing.T) {
	kv, _ := newTestKV(t)
	custom := Settings{TaxRate: 12, Currency: "$", BusinessName: "Corner Shop"}

	require.NoError(t, kv.SaveSettings(custom))

	settings, err := kv.Settings()
	require.NoError(t, err)
	assert.Equal(t, custom, *settings)
}

func Test_KV_ClearAll_PreservesSettings(t *testing.T) {
	kv, _ := newTestKV(t)
	mustAddProduct(t, kv, Product{Name: "Rug", Stock: 1})
	require.NoError(t, kv.SaveSettings(Settings{BusinessName: "Corner Shop", Currency: "$"}))

	require.NoError(t, kv.ClearAll())

	products, err := kv.Products()
	require.NoError(t, err)
	assert.Empty(t, products)

	settings, err := kv.Settings()
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", settings.BusinessName)
}
