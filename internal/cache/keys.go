package cache

import (
	"fmt"
	"net/url"

	"github.com/abgdnv/catalog/internal/store"
)

// Point and list entries live in textually disjoint namespaces so a prefix
// sweep over list keys can never match a point key.
const (
	pointKeyPrefix = "product:"
	listKeyPrefix  = "products:list:"
)

// ProductKey derives the point cache key for a product id.
func ProductKey(id int64) string {
	return fmt.Sprintf("%s%d", pointKeyPrefix, id)
}

// ListKey derives the cache key for a list query from the ordered filter tuple,
// so distinct query shapes never collide. The free-form fields are escaped so
// a value containing the separator cannot shift a component boundary.
func ListKey(filter store.ListFilter) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", listKeyPrefix,
		url.QueryEscape(filter.Category), url.QueryEscape(filter.Search), filter.Limit, filter.Offset)
}

// ListKeyPrefix returns the namespace prefix shared by all list cache keys.
func ListKeyPrefix() string {
	return listKeyPrefix
}
