// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"
)

// Product is a catalog row as persisted in the database.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int32     `json:"stock"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateParams holds the caller-supplied fields for a new product.
type CreateParams struct {
	Name        string
	Description string
	Price       float64
	Stock       int32
	Category    string
}

// UpdateParams holds a partial update; nil fields are left untouched.
type UpdateParams struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int32
	Category    *string
}

// IsEmpty reports whether the update carries no fields.
func (p UpdateParams) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Stock == nil && p.Category == nil
}

// ListFilter describes a filtered, paginated catalog listing.
// Category is matched exactly; Search is a case-insensitive substring
// match against name and description. Both are optional.
type ListFilter struct {
	Category string
	Search   string
	Limit    int32
	Offset   int32
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// Create adds a new product to the catalog.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, params CreateParams) (*Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindAll returns products matching the filter, newest first.
	// Returns an empty slice if no products match.
	FindAll(ctx context.Context, filter ListFilter) ([]Product, error)

	// Update modifies the supplied fields of an existing product in a single statement.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, params UpdateParams) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// AdjustStock applies a signed stock delta as one atomic conditional update.
	// Returns ErrProductNotFound if the product does not exist and
	// ErrInsufficientStock if the adjustment would drive stock below zero.
	AdjustStock(ctx context.Context, id int64, delta int32) (*Product, error)
}
