// Package service provides the implementation of catalog business logic:
// the cache-aside read path and the invalidate-on-write mutation path.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/catalog/internal/cache"
	cerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
)

// Source reports where a read was served from.
type Source string

const (
	SourceCache Source = "cache"
	SourceStore Source = "store"
)

// List pagination contract.
const (
	MinLimit = 1
	MaxLimit = 100
)

// CatalogService defines the methods for managing the product catalog.
// It abstracts the underlying business logic and data access.
type CatalogService interface {
	// Create adds a new product to the catalog.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// FindByID retrieves a single product by its unique identifier,
	// reporting whether it was served from the cache or the store.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, Source, error)

	// FindAll returns products matching the query, newest first,
	// reporting whether the result was served from the cache or the store.
	// Returns ErrInvalidFilter if limit or offset are out of range.
	FindAll(ctx context.Context, query ListQuery) ([]ProductDto, Source, error)

	// Update modifies the supplied fields of an existing product.
	// Returns ErrNoFieldsToUpdate if the update is empty and
	// ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, product ProductUpdateDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// AdjustStock applies a signed stock delta atomically.
	// Returns ErrProductNotFound if the product does not exist and
	// ErrInsufficientStock if the adjustment would drive stock below zero.
	AdjustStock(ctx context.Context, id int64, delta int32) (*StockDto, error)
}

// Service implements CatalogService. It owns no long-lived state itself;
// it is a stateless coordinator over the store and the cache and is safe
// for concurrent use.
type Service struct {
	repository  store.ProductStore
	cache       cache.Cache
	invalidator *cache.Invalidator
	ttl         time.Duration
	logger      *slog.Logger
}

// NewService creates a new instance of CatalogService with the provided
// repository, cache and cache entry TTL.
func NewService(repo store.ProductStore, c cache.Cache, invalidator *cache.Invalidator, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repository:  repo,
		cache:       c,
		invalidator: invalidator,
		ttl:         ttl,
		logger:      logger.With("component", "catalog_service"),
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name        string  `json:"name"        validate:"required,max=255"`
	Description string  `json:"description"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Stock       int32   `json:"stock"       validate:"gte=0"`
	Category    string  `json:"category"    validate:"max=100"`
}

// ProductUpdateDto represents a partial update; nil fields are left untouched.
type ProductUpdateDto struct {
	Name        *string  `json:"name,omitempty"        validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"       validate:"omitempty,gte=0"`
	Stock       *int32   `json:"stock,omitempty"       validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty"    validate:"omitempty,max=100"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int32     `json:"stock"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockDto is the result of a stock adjustment.
type StockDto struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int32  `json:"stock"`
}

// ListQuery describes a filtered, paginated catalog listing request.
type ListQuery struct {
	Category string
	Search   string
	Limit    int32
	Offset   int32
}

// Create creates a new product and returns it as a ProductDto.
// Nothing is cached yet, so there is no cache interaction.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	created, err := s.repository.Create(ctx, store.CreateParams{
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Category:    product.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toDto(created), nil
}

// FindByID retrieves a product by its ID, checking the point cache entry first.
// Cache failures degrade silently to an uncached store read.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, Source, error) {
	key := cache.ProductKey(id)
	var cached ProductDto
	if s.cacheLookup(ctx, key, &cached) {
		return &cached, SourceCache, nil
	}

	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	dto := toDto(product)
	s.cachePopulate(ctx, key, dto)
	return dto, SourceStore, nil
}

// FindAll retrieves products matching the query, checking the list cache entry first.
// Returns ErrInvalidFilter if limit or offset are out of range.
func (s *Service) FindAll(ctx context.Context, query ListQuery) ([]ProductDto, Source, error) {
	if query.Limit < MinLimit || query.Limit > MaxLimit {
		return nil, "", fmt.Errorf("limit %d out of range [%d, %d]: %w", query.Limit, MinLimit, MaxLimit, cerrors.ErrInvalidFilter)
	}
	if query.Offset < 0 {
		return nil, "", fmt.Errorf("offset %d must not be negative: %w", query.Offset, cerrors.ErrInvalidFilter)
	}

	filter := store.ListFilter{
		Category: query.Category,
		Search:   query.Search,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	key := cache.ListKey(filter)
	var cached []ProductDto
	if s.cacheLookup(ctx, key, &cached) {
		return cached, SourceCache, nil
	}

	products, err := s.repository.FindAll(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	s.cachePopulate(ctx, key, productDTOs)
	return productDTOs, SourceStore, nil
}

// Update modifies an existing product's details and invalidates its cache
// entries before returning the updated product.
// Returns ErrNoFieldsToUpdate if no fields were supplied.
func (s *Service) Update(ctx context.Context, id int64, product ProductUpdateDto) (*ProductDto, error) {
	params := store.UpdateParams{
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Category:    product.Category,
	}
	if params.IsEmpty() {
		return nil, cerrors.ErrNoFieldsToUpdate
	}
	updated, err := s.repository.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	s.invalidator.Invalidate(ctx, id)
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID and invalidates its cache entries.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx, id)
	return nil
}

// AdjustStock applies a signed stock delta atomically against the store and
// invalidates the product's cache entries before returning the new stock value.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int32) (*StockDto, error) {
	product, err := s.repository.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock for product with ID %d: %w", id, err)
	}
	// List payloads embed stock, so the sweep covers them as well as the point entry.
	s.invalidator.Invalidate(ctx, id)
	return &StockDto{ID: product.ID, Name: product.Name, Stock: product.Stock}, nil
}

// cacheLookup fills dest from the cache entry under key.
// Returns false on a miss, a cache failure or a corrupt entry; failures are
// logged and never propagated, degrading the read to the store.
func (s *Service) cacheLookup(ctx context.Context, key string, dest any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "Cache read failed, falling back to store", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.WarnContext(ctx, "Corrupt cache entry ignored", "key", key, "error", err)
		return false
	}
	return true
}

// cachePopulate stores value under key with the configured TTL, best-effort.
func (s *Service) cachePopulate(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "Failed to populate cache entry", "key", key, "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Category:    product.Category,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
