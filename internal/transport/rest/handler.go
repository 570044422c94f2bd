// Package rest provides the HTTP surface of the shop ledger.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	lederrors "github.com/shopkit/shopd/internal/errors"
	"github.com/shopkit/shopd/internal/service"
	"github.com/shopkit/shopd/pkg/web"
)

type Handler struct {
	service  service.ShopService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the ledger API with the provided service.
func NewHandler(service service.ShopService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the shop ledger.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/low-stock", h.LowStock)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindProduct)
				r.Put("/", h.UpdateProduct)
				r.Delete("/", h.DeleteProduct)
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.RecordSale)
			r.Delete("/{id}", h.DeleteSale)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.AddExpense)
		})

		r.Get("/dashboard", h.Dashboard)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.Report)
			r.Get("/export.csv", h.ExportCSV)
			r.Get("/export.json", h.ExportJSON)
		})

		r.Get("/settings", h.Settings)
		r.Put("/settings", h.UpdateSettings)
	})

	r.Get("/healthz", h.HealthCheck)
}

// ListProducts returns the full product catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	products, err := h.service.Products()
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, products)
}

// FindProduct retrieves a product by its ID.
func (h *Handler) FindProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.service.Product(id)
	if err != nil {
		if errors.Is(err, lederrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CreateProduct handles the creation of a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ProductCreateDto
	if !h.decodeValid(w, r, mLogger, &dto) {
		return
	}
	created, err := h.service.CreateProduct(dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateProduct replaces an existing product's details.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.ProductCreateDto
	if !h.decodeValid(w, r, mLogger, &dto) {
		return
	}
	updated, err := h.service.UpdateProduct(id, dto)
	if err != nil {
		if errors.Is(err, lederrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProduct deletes a product by its ID.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(id); err != nil {
		if errors.Is(err, lederrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// LowStock returns products at or below the configured stock threshold.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	low, err := h.service.LowStock()
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving low stock products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch low stock products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, low)
}

// ListSales returns every recorded sale.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sales, err := h.service.Sales()
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving sales", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch sales")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sales)
}

// RecordSale records a sale and decrements the product's stock. Insufficient
// stock is a conflict, not a server error: the client asked for more than the
// shop holds.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.SaleCreateDto
	if !h.decodeValid(w, r, mLogger, &dto) {
		return
	}
	recorded, err := h.service.RecordSale(dto)
	if err != nil {
		switch {
		case errors.Is(err, lederrors.ErrProductNotFound):
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", dto.ProductID))
		case errors.Is(err, lederrors.ErrInsufficientStock):
			mLogger.WarnContext(r.Context(), "Sale rejected: insufficient stock", "productID", dto.ProductID, "quantity", dto.Quantity)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Insufficient stock for product %s", dto.ProductID))
		default:
			mLogger.ErrorContext(r.Context(), "Error recording sale", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to record sale")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Sale recorded", "ID", recorded.ID, "productID", recorded.ProductID, "quantity", recorded.Quantity)
	web.RespondJSON(w, mLogger, http.StatusCreated, recorded)
}

// DeleteSale removes a sale record. Stock is not restored.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeleteSale(id); err != nil {
		if errors.Is(err, lederrors.ErrSaleNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Sale with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting sale", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete sale with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sale deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListExpenses returns every recorded expense.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	expenses, err := h.service.Expenses()
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving expenses", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch expenses")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, expenses)
}

// AddExpense appends an expense record.
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ExpenseCreateDto
	if !h.decodeValid(w, r, mLogger, &dto) {
		return
	}
	added, err := h.service.AddExpense(dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error adding expense", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to add expense")
		return
	}
	mLogger.InfoContext(r.Context(), "Expense added", "ID", added.ID, "amount", added.Amount)
	web.RespondJSON(w, mLogger, http.StatusCreated, added)
}

// Dashboard returns the dashboard summary view.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	summary, err := h.service.Dashboard()
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error building dashboard", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, summary)
}

// Report returns the date-ranged sales report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	start, end, ok := h.parseRange(w, r, mLogger)
	if !ok {
		return
	}
	report, err := h.service.Report(start, end)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error generating report", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, report)
}

// ExportCSV returns the report as a downloadable CSV file.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	start, end, ok := h.parseRange(w, r, mLogger)
	if !ok {
		return
	}
	blob, err := h.service.ReportCSV(start, end)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error exporting CSV report", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to export report")
		return
	}
	filename := fmt.Sprintf("sales_report_%s_to_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
	web.RespondFile(w, mLogger, "text/csv; charset=utf-8", filename, blob)
}

// ExportJSON returns the report as a downloadable JSON file.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	start, end, ok := h.parseRange(w, r, mLogger)
	if !ok {
		return
	}
	blob, err := h.service.ReportJSON(start, end)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error exporting JSON report", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to export report")
		return
	}
	filename := fmt.Sprintf("sales_report_%s_to_%s.json", start.Format("2006-01-02"), end.Format("2006-01-02"))
	web.RespondFile(w, mLogger, "application/json", filename, blob)
}

// Settings returns the shop settings record.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	settings, err := h.service.Settings()
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving settings", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, settings)
}

// UpdateSettings replaces the shop settings record.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.SettingsDto
	if !h.decodeValid(w, r, mLogger, &dto) {
		return
	}
	updated, err := h.service.UpdateSettings(dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error updating settings", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	mLogger.InfoContext(r.Context(), "Settings updated")
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeValid decodes the request body into dto and validates it, writing the
// error response itself when either step fails.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parseRange extracts the start/end date query parameters of report endpoints.
func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (start, end time.Time, ok bool) {
	start, ok = web.ParseDate(r, w, mLogger, "start")
	if !ok {
		return
	}
	end, ok = web.ParseDate(r, w, mLogger, "end")
	if !ok {
		return
	}
	if end.Before(start) {
		web.RespondError(w, mLogger, http.StatusBadRequest, "start date cannot be after end date")
		return start, end, false
	}
	return start, end, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
