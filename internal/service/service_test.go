package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/catalog/internal/cache"
	cerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface
type mockProductStore struct {
	product  *store.Product
	products []store.Product
	err      error
}

func (m *mockProductStore) Create(_ context.Context, _ store.CreateParams) (*store.Product, error) {
	return m.product, m.err
}

func (m *mockProductStore) FindByID(_ context.Context, _ int64) (*store.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *mockProductStore) FindAll(_ context.Context, _ store.ListFilter) ([]store.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockProductStore) Update(_ context.Context, _ int64, _ store.UpdateParams) (*store.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *mockProductStore) DeleteByID(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockProductStore) AdjustStock(_ context.Context, _ int64, _ int32) (*store.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

// fakeCache is an in-memory Cache that records deletions and can be forced to fail.
type fakeCache struct {
	entries  map[string][]byte
	getErr   error
	setErr   error
	delErr   error
	sweepErr error
	deleted  []string
	swept    []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	value, ok := f.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	for _, key := range keys {
		delete(f.entries, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if f.sweepErr != nil {
		return f.sweepErr
	}
	f.swept = append(f.swept, prefix)
	for key := range f.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(f.entries, key)
		}
	}
	return nil
}

func newTestService(repo store.ProductStore, c cache.Cache) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, c, cache.NewInvalidator(c, logger), 5*time.Minute, logger)
}

func testProduct() *store.Product {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &store.Product{
		ID:          1,
		Name:        "Widget",
		Description: "A widget",
		Price:       9.99,
		Stock:       10,
		Category:    "tools",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func Test_CatalogService_FindByID(t *testing.T) {
	product := testProduct()
	cachedDto := ProductDto{ID: 2, Name: "Cached", Price: 1.5}
	cachedPayload, _ := json.Marshal(cachedDto)

	testCases := []struct {
		name           string
		mockStore      *mockProductStore
		prepareCache   func(*fakeCache)
		productID      int64
		expected       *ProductDto
		expectedSource Source
		expectError    error
	}{
		{
			name:           "Success - cache miss, served from store",
			mockStore:      &mockProductStore{product: product},
			productID:      1,
			expected:       toDto(product),
			expectedSource: SourceStore,
		},
		{
			name:      "Success - cache hit",
			mockStore: &mockProductStore{},
			prepareCache: func(f *fakeCache) {
				f.entries[cache.ProductKey(2)] = cachedPayload
			},
			productID:      2,
			expected:       &cachedDto,
			expectedSource: SourceCache,
		},
		{
			name:      "Success - cache unreachable degrades to store",
			mockStore: &mockProductStore{product: product},
			prepareCache: func(f *fakeCache) {
				f.getErr = errors.New("connection refused")
			},
			productID:      1,
			expected:       toDto(product),
			expectedSource: SourceStore,
		},
		{
			name:      "Success - corrupt cache entry degrades to store",
			mockStore: &mockProductStore{product: product},
			prepareCache: func(f *fakeCache) {
				f.entries[cache.ProductKey(1)] = []byte("{not json")
			},
			productID:      1,
			expected:       toDto(product),
			expectedSource: SourceStore,
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockProductStore{err: cerrors.ErrProductNotFound},
			productID:   99,
			expectError: cerrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			fc := newFakeCache()
			if tc.prepareCache != nil {
				tc.prepareCache(fc)
			}
			svc := newTestService(tc.mockStore, fc)
			// when
			found, source, err := svc.FindByID(context.Background(), tc.productID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
			assert.Equal(t, tc.expectedSource, source)
		})
	}
}

func Test_CatalogService_FindByID_PopulatesCache(t *testing.T) {
	// given
	product := testProduct()
	fc := newFakeCache()
	svc := newTestService(&mockProductStore{product: product}, fc)
	// when: first read misses the cache, second must hit it with identical data
	first, firstSource, err := svc.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	second, secondSource, err := svc.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	// then
	assert.Equal(t, SourceStore, firstSource)
	assert.Equal(t, SourceCache, secondSource)
	assert.Equal(t, first, second)
}

func Test_CatalogService_FindByID_CachePopulateFailureIsSilent(t *testing.T) {
	// given
	product := testProduct()
	fc := newFakeCache()
	fc.setErr = errors.New("connection refused")
	svc := newTestService(&mockProductStore{product: product}, fc)
	// when
	found, source, err := svc.FindByID(context.Background(), product.ID)
	// then
	require.NoError(t, err)
	assert.Equal(t, SourceStore, source)
	assert.Equal(t, toDto(product), found)
}

func Test_CatalogService_FindAll(t *testing.T) {
	product := testProduct()

	testCases := []struct {
		name           string
		mockStore      *mockProductStore
		prepareCache   func(*fakeCache)
		query          ListQuery
		expectedCount  int
		expectedSource Source
		expectError    error
	}{
		{
			name:           "Success - products found",
			mockStore:      &mockProductStore{products: []store.Product{*product}},
			query:          ListQuery{Limit: 20},
			expectedCount:  1,
			expectedSource: SourceStore,
		},
		{
			name:           "Success - empty catalog returns empty slice",
			mockStore:      &mockProductStore{products: []store.Product{}},
			query:          ListQuery{Limit: 100},
			expectedCount:  0,
			expectedSource: SourceStore,
		},
		{
			name:      "Success - cache hit",
			mockStore: &mockProductStore{},
			prepareCache: func(f *fakeCache) {
				payload, _ := json.Marshal([]ProductDto{*toDto(product)})
				f.entries[cache.ListKey(store.ListFilter{Category: "tools", Limit: 20})] = payload
			},
			query:          ListQuery{Category: "tools", Limit: 20},
			expectedCount:  1,
			expectedSource: SourceCache,
		},
		{
			name:        "Error - limit below range",
			mockStore:   &mockProductStore{},
			query:       ListQuery{Limit: 0},
			expectError: cerrors.ErrInvalidFilter,
		},
		{
			name:        "Error - limit above range",
			mockStore:   &mockProductStore{},
			query:       ListQuery{Limit: 101},
			expectError: cerrors.ErrInvalidFilter,
		},
		{
			name:        "Error - negative offset",
			mockStore:   &mockProductStore{},
			query:       ListQuery{Limit: 20, Offset: -1},
			expectError: cerrors.ErrInvalidFilter,
		},
		{
			name:        "Error - store failure",
			mockStore:   &mockProductStore{err: errors.New("store error")},
			query:       ListQuery{Limit: 20},
			expectError: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			fc := newFakeCache()
			if tc.prepareCache != nil {
				tc.prepareCache(fc)
			}
			svc := newTestService(tc.mockStore, fc)
			// when
			list, source, err := svc.FindAll(context.Background(), tc.query)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			if tc.mockStore.err != nil {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, list, tc.expectedCount)
			assert.Equal(t, tc.expectedSource, source)
		})
	}
}

func Test_CatalogService_FindAll_DistinctQueriesCacheSeparately(t *testing.T) {
	// given
	fc := newFakeCache()
	svc := newTestService(&mockProductStore{products: []store.Product{*testProduct()}}, fc)
	// when
	_, _, err := svc.FindAll(context.Background(), ListQuery{Category: "tools", Limit: 20})
	require.NoError(t, err)
	_, _, err = svc.FindAll(context.Background(), ListQuery{Category: "toys", Limit: 20})
	require.NoError(t, err)
	// then
	assert.Len(t, fc.entries, 2)
}

func Test_CatalogService_Create(t *testing.T) {
	product := testProduct()
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		input       ProductCreateDto
		expected    *ProductDto
		expectError bool
	}{
		{
			name:      "Success - product created",
			mockStore: &mockProductStore{product: product},
			input:     ProductCreateDto{Name: "Widget", Price: 9.99, Stock: 10, Category: "tools"},
			expected:  toDto(product),
		},
		{
			name:        "Error - store failure",
			mockStore:   &mockProductStore{err: errors.New("store error")},
			input:       ProductCreateDto{Name: "Widget"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			fc := newFakeCache()
			svc := newTestService(tc.mockStore, fc)
			// when
			created, err := svc.Create(context.Background(), tc.input)
			// then
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, created)
			assert.Empty(t, fc.entries, "create must not touch the cache")
		})
	}
}

func Test_CatalogService_Update(t *testing.T) {
	product := testProduct()
	newName := "Gadget"

	t.Run("Success - update invalidates point and list caches", func(t *testing.T) {
		// given
		fc := newFakeCache()
		fc.entries[cache.ProductKey(product.ID)] = []byte(`{}`)
		fc.entries[cache.ListKey(store.ListFilter{Limit: 20})] = []byte(`[]`)
		svc := newTestService(&mockProductStore{product: product}, fc)
		// when
		updated, err := svc.Update(context.Background(), product.ID, ProductUpdateDto{Name: &newName})
		// then
		require.NoError(t, err)
		assert.Equal(t, toDto(product), updated)
		assert.Contains(t, fc.deleted, cache.ProductKey(product.ID))
		assert.Contains(t, fc.swept, cache.ListKeyPrefix())
		assert.Empty(t, fc.entries)
	})

	t.Run("Error - no fields to update", func(t *testing.T) {
		// given
		fc := newFakeCache()
		svc := newTestService(&mockProductStore{product: product}, fc)
		// when
		updated, err := svc.Update(context.Background(), product.ID, ProductUpdateDto{})
		// then
		assert.ErrorIs(t, err, cerrors.ErrNoFieldsToUpdate)
		assert.Nil(t, updated)
		assert.Empty(t, fc.deleted, "failed update must not invalidate")
	})

	t.Run("Error - product not found", func(t *testing.T) {
		// given
		fc := newFakeCache()
		svc := newTestService(&mockProductStore{err: cerrors.ErrProductNotFound}, fc)
		// when
		updated, err := svc.Update(context.Background(), 99, ProductUpdateDto{Name: &newName})
		// then
		assert.ErrorIs(t, err, cerrors.ErrProductNotFound)
		assert.Nil(t, updated)
		assert.Empty(t, fc.deleted, "failed update must not invalidate")
	})
}

func Test_CatalogService_DeleteByID(t *testing.T) {
	t.Run("Success - delete invalidates point and list caches", func(t *testing.T) {
		// given
		fc := newFakeCache()
		svc := newTestService(&mockProductStore{}, fc)
		// when
		err := svc.DeleteByID(context.Background(), 1)
		// then
		require.NoError(t, err)
		assert.Contains(t, fc.deleted, cache.ProductKey(1))
		assert.Contains(t, fc.swept, cache.ListKeyPrefix())
	})

	t.Run("Error - product not found", func(t *testing.T) {
		// given
		fc := newFakeCache()
		svc := newTestService(&mockProductStore{err: cerrors.ErrProductNotFound}, fc)
		// when
		err := svc.DeleteByID(context.Background(), 99)
		// then
		assert.ErrorIs(t, err, cerrors.ErrProductNotFound)
		assert.Empty(t, fc.deleted, "failed delete must not invalidate")
	})
}

func Test_CatalogService_AdjustStock(t *testing.T) {
	product := testProduct()

	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		delta       int32
		expected    *StockDto
		expectError error
	}{
		{
			name:      "Success - stock adjusted",
			mockStore: &mockProductStore{product: product},
			delta:     -5,
			expected:  &StockDto{ID: product.ID, Name: product.Name, Stock: product.Stock},
		},
		{
			name:        "Error - insufficient stock",
			mockStore:   &mockProductStore{err: cerrors.ErrInsufficientStock},
			delta:       -100,
			expectError: cerrors.ErrInsufficientStock,
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockProductStore{err: cerrors.ErrProductNotFound},
			delta:       1,
			expectError: cerrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			fc := newFakeCache()
			svc := newTestService(tc.mockStore, fc)
			// when
			adjusted, err := svc.AdjustStock(context.Background(), product.ID, tc.delta)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, adjusted)
				assert.Empty(t, fc.deleted, "failed adjustment must not invalidate")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, adjusted)
			assert.Contains(t, fc.deleted, cache.ProductKey(product.ID))
			assert.Contains(t, fc.swept, cache.ListKeyPrefix())
		})
	}
}

func Test_CatalogService_AdjustStock_InvalidationFailureIsSwallowed(t *testing.T) {
	// given
	product := testProduct()
	fc := newFakeCache()
	fc.delErr = errors.New("connection refused")
	fc.sweepErr = errors.New("connection refused")
	svc := newTestService(&mockProductStore{product: product}, fc)
	// when
	adjusted, err := svc.AdjustStock(context.Background(), product.ID, -1)
	// then: the mutation succeeded against the store, so the caller must see success
	require.NoError(t, err)
	assert.Equal(t, product.Stock, adjusted.Stock)
}
