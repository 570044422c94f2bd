// Package service provides the business logic between the REST transport and
// the ledger: input validation shapes, sale recording, aggregation views and
// report export.
package service

import (
	"fmt"
	"time"

	lederrors "github.com/shopkit/shopd/internal/errors"
	"github.com/shopkit/shopd/internal/store"
	"github.com/shopkit/shopd/pkg/config"
)

// ShopService defines the operations exposed to the transport layer.
type ShopService interface {
	Products() ([]store.Product, error)
	Product(id string) (*store.Product, error)
	CreateProduct(dto ProductCreateDto) (*store.Product, error)
	UpdateProduct(id string, dto ProductCreateDto) (*store.Product, error)
	DeleteProduct(id string) error
	LowStock() ([]store.Product, error)

	Sales() ([]store.Sale, error)
	// RecordSale persists the sale and decrements stock atomically.
	// Returns ErrInsufficientStock when the product cannot cover the quantity.
	RecordSale(dto SaleCreateDto) (*store.Sale, error)
	DeleteSale(id string) error

	Expenses() ([]store.Expense, error)
	AddExpense(dto ExpenseCreateDto) (*store.Expense, error)

	Dashboard() (*DashboardSummary, error)
	Report(start, end time.Time) (*Report, error)
	ReportCSV(start, end time.Time) ([]byte, error)
	ReportJSON(start, end time.Time) ([]byte, error)

	Settings() (*store.Settings, error)
	UpdateSettings(dto SettingsDto) (*store.Settings, error)
}

// Service implements ShopService over a store.Ledger.
type Service struct {
	ledger     store.Ledger
	shop       config.ShopConfig
	categories map[string]string
	now        func() time.Time
}

var _ ShopService = (*Service)(nil)

// NewService creates a new instance of ShopService with the provided ledger
// and shop configuration.
func NewService(ledger store.Ledger, shop config.ShopConfig) *Service {
	categories := make(map[string]string, len(shop.Categories))
	for _, c := range shop.Categories {
		categories[c.ID] = c.Name
	}
	return &Service{
		ledger:     ledger,
		shop:       shop,
		categories: categories,
		now:        time.Now,
	}
}

// ProductCreateDto carries validated product input for both create and update.
type ProductCreateDto struct {
	Name          string  `json:"name"          validate:"required,max=100"`
	Category      string  `json:"category"      validate:"required"`
	Quality       string  `json:"quality"       validate:"required"`
	Stock         int     `json:"stock"         validate:"min=0"`
	SellingPrice  float64 `json:"sellingPrice"  validate:"required,gt=0"`
	PurchasePrice float64 `json:"purchasePrice" validate:"required,gt=0"`
}

// SaleCreateDto carries validated sale input. Date is optional and defaults
// to the current time.
type SaleCreateDto struct {
	ProductID      string     `json:"productId"      validate:"required"`
	Quantity       int        `json:"quantity"       validate:"required,gt=0"`
	Price          float64    `json:"price"          validate:"required,gt=0"`
	CustomerMobile string     `json:"customerMobile" validate:"required,len=10,numeric"`
	Date           *time.Time `json:"date,omitempty"`
}

// ExpenseCreateDto carries validated expense input.
type ExpenseCreateDto struct {
	Amount      float64    `json:"amount"                validate:"required,gt=0"`
	Description string     `json:"description,omitempty" validate:"max=200"`
	Date        *time.Time `json:"date,omitempty"`
}

// SettingsDto carries the full settings record for replacement.
type SettingsDto struct {
	TaxRate         float64 `json:"taxRate"         validate:"min=0,max=100"`
	Currency        string  `json:"currency"        validate:"required"`
	BusinessName    string  `json:"businessName"    validate:"required,max=100"`
	BusinessAddress string  `json:"businessAddress" validate:"max=200"`
	BusinessPhone   string  `json:"businessPhone"   validate:"max=20"`
	BusinessEmail   string  `json:"businessEmail"   validate:"omitempty,email"`
}

func (s *Service) Products() ([]store.Product, error) {
	products, err := s.ledger.Products()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

func (s *Service) Product(id string) (*store.Product, error) {
	product, err := s.ledger.ProductByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return product, nil
}

func (s *Service) CreateProduct(dto ProductCreateDto) (*store.Product, error) {
	created, err := s.ledger.AddProduct(store.Product{
		Name:          dto.Name,
		Category:      dto.Category,
		Quality:       dto.Quality,
		Stock:         dto.Stock,
		SellingPrice:  dto.SellingPrice,
		PurchasePrice: dto.PurchasePrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateProduct(id string, dto ProductCreateDto) (*store.Product, error) {
	updated, err := s.ledger.UpdateProduct(id, store.Product{
		Name:          dto.Name,
		Category:      dto.Category,
		Quality:       dto.Quality,
		Stock:         dto.Stock,
		SellingPrice:  dto.SellingPrice,
		PurchasePrice: dto.PurchasePrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return updated, nil
}

func (s *Service) DeleteProduct(id string) error {
	removed, err := s.ledger.DeleteProduct(id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if !removed {
		return lederrors.ErrProductNotFound
	}
	return nil
}

func (s *Service) LowStock() ([]store.Product, error) {
	low, err := s.ledger.LowStockProducts(s.shop.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch low stock products: %w", err)
	}
	return low, nil
}

func (s *Service) Sales() ([]store.Sale, error) {
	sales, err := s.ledger.Sales()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}
	return sales, nil
}

func (s *Service) RecordSale(dto SaleCreateDto) (*store.Sale, error) {
	sale := store.Sale{
		ProductID:      dto.ProductID,
		Quantity:       dto.Quantity,
		Price:          dto.Price,
		CustomerMobile: dto.CustomerMobile,
	}
	if dto.Date != nil {
		sale.Date = *dto.Date
	}
	recorded, err := s.ledger.AddSale(sale)
	if err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	return recorded, nil
}

func (s *Service) DeleteSale(id string) error {
	removed, err := s.ledger.DeleteSale(id)
	if err != nil {
		return fmt.Errorf("failed to delete sale %s: %w", id, err)
	}
	if !removed {
		return lederrors.ErrSaleNotFound
	}
	return nil
}

func (s *Service) Expenses() ([]store.Expense, error) {
	expenses, err := s.ledger.Expenses()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expenses: %w", err)
	}
	return expenses, nil
}

func (s *Service) AddExpense(dto ExpenseCreateDto) (*store.Expense, error) {
	expense := store.Expense{
		Amount:      dto.Amount,
		Description: dto.Description,
	}
	if dto.Date != nil {
		expense.Date = *dto.Date
	}
	added, err := s.ledger.AddExpense(expense)
	if err != nil {
		return nil, fmt.Errorf("failed to add expense: %w", err)
	}
	return added, nil
}

func (s *Service) Settings() (*store.Settings, error) {
	settings, err := s.ledger.Settings()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

func (s *Service) UpdateSettings(dto SettingsDto) (*store.Settings, error) {
	settings := store.Settings{
		TaxRate:         dto.TaxRate,
		Currency:        dto.Currency,
		BusinessName:    dto.BusinessName,
		BusinessAddress: dto.BusinessAddress,
		BusinessPhone:   dto.BusinessPhone,
		BusinessEmail:   dto.BusinessEmail,
	}
	if err := s.ledger.SaveSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return &settings, nil
}

// categoryName resolves a category ID to its display name. Unknown IDs pass
// through unchanged.
func (s *Service) categoryName(id string) string {
	if name, ok := s.categories[id]; ok {
		return name
	}
	return id
}
