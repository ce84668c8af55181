package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// productColumns is the select list shared by every statement returning a full row.
const productColumns = "id, name, description, price, stock, category, created_at, updated_at"

// PgStore implements ProductStore using PostgreSQL as the data store.
// Every operation runs under queryTimeout, so a busy pool surfaces as
// ErrStoreUnavailable once the deadline fires instead of queuing indefinitely.
type PgStore struct {
	db           *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool, queryTimeout time.Duration) *PgStore {
	return &PgStore{
		db:           dbp,
		queryTimeout: queryTimeout,
	}
}

// withTimeout bounds one logical operation, pool checkout included.
func (p *PgStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.queryTimeout)
}

// Create adds a new product to the catalog.
// Returns an error if the product cannot be created.
func (p *PgStore) Create(ctx context.Context, params CreateParams) (*Product, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	row := p.db.QueryRow(ctx,
		`INSERT INTO products (name, description, price, stock, category)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+productColumns,
		params.Name, params.Description, params.Price, params.Stock, params.Category,
	)
	product, err := scanProduct(row)
	if err != nil {
		return nil, wrapDbErr("failed to create product", err)
	}
	return product, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	row := p.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cerrors.ErrProductNotFound
		}
		return nil, wrapDbErr("failed to find product by ID", err)
	}
	return product, nil
}

// FindAll retrieves products matching the filter, newest first, with pagination.
// Predicates are composed positionally; user input never enters the statement text.
func (p *PgStore) FindAll(ctx context.Context, filter ListFilter) ([]Product, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + productColumns + ` FROM products`)
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	args = append(args, filter.Limit)
	b.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)))
	args = append(args, filter.Offset)
	b.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := p.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, wrapDbErr("failed to find products", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price,
			&product.Stock, &product.Category, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, wrapDbErr("failed to scan product row", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDbErr("failed to read product rows", err)
	}
	return products, nil
}

// Update modifies only the supplied fields plus updated_at in one statement.
// Returns ErrProductNotFound if no row matched.
func (p *PgStore) Update(ctx context.Context, id int64, params UpdateParams) (*Product, error) {
	if params.IsEmpty() {
		return nil, cerrors.ErrNoFieldsToUpdate
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	sets := make([]string, 0, 6)
	args := make([]any, 0, 6)
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Name != nil {
		addSet("name", *params.Name)
	}
	if params.Description != nil {
		addSet("description", *params.Description)
	}
	if params.Price != nil {
		addSet("price", *params.Price)
	}
	if params.Stock != nil {
		addSet("stock", *params.Stock)
	}
	if params.Category != nil {
		addSet("category", *params.Category)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), productColumns)

	product, err := scanProduct(p.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cerrors.ErrProductNotFound
		}
		return nil, wrapDbErr("failed to update product", err)
	}
	return product, nil
}

// DeleteByID removes a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	ct, err := p.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapDbErr("failed to delete product by ID", err)
	}
	if ct.RowsAffected() == 0 {
		return cerrors.ErrProductNotFound
	}
	return nil
}

// AdjustStock applies a signed stock delta as a single atomic conditional update,
// so the non-negativity check and the write are indivisible at the storage layer.
// A zero-row result is disambiguated with a secondary existence check.
func (p *PgStore) AdjustStock(ctx context.Context, id int64, delta int32) (*Product, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	row := p.db.QueryRow(ctx,
		`UPDATE products
		 SET stock = stock + $1, updated_at = NOW()
		 WHERE id = $2 AND stock + $1 >= 0
		 RETURNING `+productColumns,
		delta, id,
	)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if qErr := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); qErr != nil {
				return nil, wrapDbErr("failed to check product existence", qErr)
			}
			if !exists {
				return nil, cerrors.ErrProductNotFound
			}
			return nil, cerrors.ErrInsufficientStock
		}
		return nil, wrapDbErr("failed to adjust product stock", err)
	}
	return product, nil
}

// scanProduct scans a single row into a Product.
func scanProduct(row pgx.Row) (*Product, error) {
	var product Product
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.Category, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// wrapDbErr wraps a database error, mapping timeouts and connection failures
// to ErrStoreUnavailable so callers can distinguish availability from logic errors.
func wrapDbErr(msg string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &connErr) {
		return fmt.Errorf("%s: %v: %w", msg, err, cerrors.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
