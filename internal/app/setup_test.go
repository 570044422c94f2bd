package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopkit/shopd/internal/config"
	"github.com/shopkit/shopd/internal/storage"
	"github.com/shopkit/shopd/internal/storage/memdriver"
	"github.com/shopkit/shopd/internal/store"
	pkgconfig "github.com/shopkit/shopd/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full round trip against the in-memory driver: create a product, sell it,
// check stock and the dashboard through the HTTP surface alone.
func Test_App_SaleRoundTrip(t *testing.T) {
	drv := memdriver.New()
	require.NoError(t, storage.EnsureKeys(drv, storage.CollectionKeys...))

	cfg := &config.Config{
		Shop: pkgconfig.ShopConfig{
			LowStockThreshold: 5,
			Categories:        []pkgconfig.CategoryConfig{{ID: "carpets", Name: "Carpets"}},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := SetupHttpHandler(SetupDependencies(drv, cfg, logger))

	// create a product
	rr := doRequest(t, handler, http.MethodPost, "/api/v1/products",
		`{"name":"Rug","category":"carpets","quality":"premium","stock":10,"sellingPrice":100,"purchasePrice":50}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created store.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// sell three units
	rr = doRequest(t, handler, http.MethodPost, "/api/v1/sales",
		`{"productId":"`+created.ID+`","quantity":3,"price":100,"customerMobile":"9876543210"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	// stock went down
	rr = doRequest(t, handler, http.MethodGet, "/api/v1/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var after store.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &after))
	assert.Equal(t, 7, after.Stock)

	// overselling the remaining stock is rejected
	rr = doRequest(t, handler, http.MethodPost, "/api/v1/sales",
		`{"productId":"`+created.ID+`","quantity":8,"price":100,"customerMobile":"9876543210"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// the dashboard reflects the one successful sale
	rr = doRequest(t, handler, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"todaySales":300`)
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
