// Package rest provides HTTP handlers for catalog operations.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	cerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// defaultLimit is applied when the list request omits the limit parameter.
const defaultLimit = 20

// ReadyChecker reports whether the service's dependencies are reachable.
type ReadyChecker func(ctx context.Context) error

type Handler struct {
	service  service.CatalogService
	validate *validator.Validate
	ready    ReadyChecker
	logger   *slog.Logger
}

// StockAdjustDto carries the signed stock delta for an inventory adjustment.
type StockAdjustDto struct {
	Quantity int32 `json:"quantity"`
}

// productResponse wraps a product together with the source of the read.
type productResponse struct {
	Product *service.ProductDto `json:"product"`
	Source  service.Source      `json:"source,omitempty"`
}

// listResponse wraps a product list together with the source of the read.
type listResponse struct {
	Products []service.ProductDto `json:"products"`
	Source   service.Source       `json:"source"`
}

// NewHandler creates a new instance of the catalog HTTP API with the provided service.
func NewHandler(service service.CatalogService, ready ReadyChecker, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		ready:    ready,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
			r.Patch("/inventory", h.AdjustStock)
		})
	})

	r.Get("/health", h.HealthCheck)
	r.Get("/health/live", h.HealthCheck)
	r.Get("/health/ready", h.ReadyCheck)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, source, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to retrieve product with ID %d", id))
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "source", source)
	web.RespondJSON(w, mLogger, http.StatusOK, productResponse{Product: found, Source: source})
}

// FindAll retrieves a filtered, paginated list of products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseValidateRange(r, w, mLogger, "limit", defaultLimit, service.MinLimit, service.MaxLimit)
	if !ok {
		return
	}
	offset, ok := web.ParseValidateGte(r, w, mLogger, "offset", 0, 0)
	if !ok {
		return
	}
	query := service.ListQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Limit:    limit,
		Offset:   offset,
	}
	mLogger.DebugContext(r.Context(), "Received request to find products", "limit", limit, "offset", offset,
		"category", query.Category, "search", query.Search)
	list, source, err := h.service.FindAll(r.Context(), query)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list), "source", source)
	web.RespondJSON(w, mLogger, http.StatusOK, listResponse{Products: list, Source: source})
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var productCreateDto service.ProductCreateDto
	if !h.decodeAndValidate(w, r, mLogger, &productCreateDto) {
		return
	}

	newProduct, err := h.service.Create(r.Context(), productCreateDto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", newProduct.ID, "Name", newProduct.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, productResponse{Product: newProduct})
}

// Update handles a partial update of an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	var productUpdateDto service.ProductUpdateDto
	if !h.decodeAndValidate(w, r, mLogger, &productUpdateDto) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, productUpdateDto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to update product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, productResponse{Product: updated})
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to delete product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// AdjustStock applies a signed stock delta to a product's inventory.
// Positive quantity adds stock, negative quantity removes stock.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var stockAdjustDto StockAdjustDto
	if err := json.NewDecoder(r.Body).Decode(&stockAdjustDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to adjust stock", "ID", id, "delta", stockAdjustDto.Quantity)

	adjusted, err := h.service.AdjustStock(r.Context(), id, stockAdjustDto.Quantity)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to adjust stock for product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Stock adjusted successfully", "ID", adjusted.ID, "NewStock", adjusted.Stock)
	web.RespondJSON(w, mLogger, http.StatusOK, adjusted)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadyCheck verifies that the database and cache are reachable.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := h.ready(r.Context()); err != nil {
		mLogger.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Service not ready")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"status": "ready"})
}

// decodeAndValidate decodes the request body into dto and validates it.
// On failure it writes the error response and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			// If the error is a validation error, we can extract field-specific errors.
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				// fieldErr.Tag() returns "required", "max", etc.
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		// If it's not a validation error, we can return a generic error.
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service errors onto HTTP status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, cerrors.ErrProductNotFound):
		mLogger.WarnContext(r.Context(), "Product not found", "error", err)
		web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
	case errors.Is(err, cerrors.ErrInsufficientStock):
		mLogger.WarnContext(r.Context(), "Insufficient stock", "error", err)
		web.RespondError(w, mLogger, http.StatusConflict, "Insufficient stock")
	case errors.Is(err, cerrors.ErrNoFieldsToUpdate):
		mLogger.WarnContext(r.Context(), "No fields to update", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, cerrors.ErrInvalidFilter):
		mLogger.WarnContext(r.Context(), "Invalid list filter", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid list filter")
	case errors.Is(err, cerrors.ErrStoreUnavailable):
		mLogger.ErrorContext(r.Context(), "Store unavailable", "error", err)
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Service is temporarily unavailable")
	default:
		mLogger.ErrorContext(r.Context(), fallback, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fallback)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", web.GetRequestID(r.Context()))
}
