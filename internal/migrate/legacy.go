// Package migrate imports data persisted under the old prefixed key scheme
// into the current collections. The import is one-shot and non-destructive:
// it only fills collections that are still empty and never touches the legacy
// keys themselves.
package migrate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopkit/shopd/internal/storage"
	"github.com/shopkit/shopd/internal/store"
)

// Legacy storage keys of the predecessor system.
const (
	legacyProductsKey = "vaibhav_furnishing_products"
	legacySalesKey    = "vaibhav_furnishing_sales"
	legacySettingsKey = "vaibhav_furnishing_settings"
)

// legacyProduct mirrors the old product record. Stock lived in "quantity" and
// the purchase cost in "costPrice"; image, description and minPrice have no
// equivalent and are dropped.
type legacyProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	SellingPrice float64 `json:"sellingPrice"`
	CostPrice    float64 `json:"costPrice"`
	Quantity     int     `json:"quantity"`
}

// legacySale mirrors the old sale record, which embedded the whole product
// and split the customer into a nested object.
type legacySale struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Product struct {
		ID string `json:"id"`
	} `json:"product"`
	Quantity   int     `json:"quantity"`
	FinalPrice float64 `json:"finalPrice"`
	Customer   struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"customer"`
}

// Run imports legacy products, sales and settings. Each collection is
// imported independently; a malformed legacy blob skips that collection with
// a warning instead of failing the whole import.
func Run(drv storage.Driver, logger *slog.Logger) error {
	logger = logger.With("component", "migrate")

	if err := importProducts(drv, logger); err != nil {
		return err
	}
	if err := importSales(drv, logger); err != nil {
		return err
	}
	if err := importSettings(drv, logger); err != nil {
		return err
	}
	return nil
}

func importProducts(drv storage.Driver, logger *slog.Logger) error {
	legacy, ok, err := readLegacy[legacyProduct](drv, logger, legacyProductsKey)
	if err != nil || !ok {
		return err
	}
	empty, err := collectionEmpty(drv, storage.KeyProducts)
	if err != nil {
		return err
	}
	if !empty {
		logger.Info("Products collection is not empty, skipping legacy import")
		return nil
	}

	products := make([]store.Product, 0, len(legacy))
	for _, p := range legacy {
		products = append(products, store.Product{
			ID:            p.ID,
			Name:          p.Name,
			Category:      p.Category,
			Stock:         p.Quantity,
			SellingPrice:  p.SellingPrice,
			PurchasePrice: p.CostPrice,
		})
	}
	if err := writeCollection(drv, storage.KeyProducts, products); err != nil {
		return err
	}
	logger.Info("Imported legacy products", "count", len(products))
	return nil
}

func importSales(drv storage.Driver, logger *slog.Logger) error {
	legacy, ok, err := readLegacy[legacySale](drv, logger, legacySalesKey)
	if err != nil || !ok {
		return err
	}
	empty, err := collectionEmpty(drv, storage.KeySales)
	if err != nil {
		return err
	}
	if !empty {
		logger.Info("Sales collection is not empty, skipping legacy import")
		return nil
	}

	sales := make([]store.Sale, 0, len(legacy))
	for _, s := range legacy {
		date, err := time.Parse(time.RFC3339, s.Date)
		if err != nil {
			date = time.Time{}
		}
		sales = append(sales, store.Sale{
			ID:             s.ID,
			ProductID:      s.Product.ID,
			Quantity:       s.Quantity,
			Price:          s.FinalPrice,
			CustomerMobile: s.Customer.Phone,
			Date:           date,
		})
	}
	if err := writeCollection(drv, storage.KeySales, sales); err != nil {
		return err
	}
	logger.Info("Imported legacy sales", "count", len(sales))
	return nil
}

func importSettings(drv storage.Driver, logger *slog.Logger) error {
	blob, found, err := drv.Get(legacySettingsKey)
	if err != nil {
		return fmt.Errorf("failed to read legacy settings: %w", err)
	}
	if !found {
		return nil
	}
	if _, already, err := drv.Get(storage.KeySettings); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	} else if already {
		logger.Info("Settings already present, skipping legacy import")
		return nil
	}

	// The legacy settings record has the same shape as the current one.
	var settings store.Settings
	if err := json.Unmarshal(blob, &settings); err != nil {
		logger.Warn("Legacy settings are malformed, skipping", "error", err)
		return nil
	}
	out, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := drv.Set(storage.KeySettings, out); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	logger.Info("Imported legacy settings")
	return nil
}

// readLegacy loads and decodes a legacy collection. The second return is
// false when the key is absent or its contents cannot be decoded.
func readLegacy[T any](drv storage.Driver, logger *slog.Logger, key string) ([]T, bool, error) {
	blob, found, err := drv.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read legacy key %s: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	var records []T
	if err := json.Unmarshal(blob, &records); err != nil {
		logger.Warn("Legacy collection is malformed, skipping", "key", key, "error", err)
		return nil, false, nil
	}
	return records, true, nil
}

func collectionEmpty(drv storage.Driver, key string) (bool, error) {
	blob, found, err := drv.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return true, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(blob, &records); err != nil {
		return false, nil
	}
	return len(records) == 0, nil
}

func writeCollection[T any](drv storage.Driver, key string, records []T) error {
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := drv.Set(key, blob); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
