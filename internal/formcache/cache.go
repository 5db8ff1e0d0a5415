package formcache

import (
	"context"
	"fmt"

	"github.com/listforge/listforge-be/internal/domain"
)

// Cache stores detected form metadata per directory so repeat submissions
// skip redundant detection work. Implementations must be safe for
// concurrent use; writes are last-writer-wins per directory.
type Cache interface {
	Get(ctx context.Context, directoryID int64) (*domain.FormCacheEntry, bool, error)
	Put(ctx context.Context, directoryID int64, entry *domain.FormCacheEntry) error
	Invalidate(ctx context.Context, directoryID int64) error
}

// Key returns the cache key for a directory's form metadata.
func Key(directoryID int64) string {
	return fmt.Sprintf("directory:form:%d", directoryID)
}
