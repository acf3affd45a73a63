package catalog

import (
	"context"

	"github.com/Clark-Hu/room-catalog/internal/domain"
)

// ListFilter selects a window of public designs ordered by creation time.
type ListFilter struct {
	Shape  *domain.Shape
	Offset int64
	Limit  int
}

// ListResult carries one page of designs plus the total predicate match count.
type ListResult struct {
	Designs []domain.Design
	Total   int64
}

// DesignStore is the persistence contract the catalog depends on. Every
// implementation only ever returns designs with IsPublic set from the list
// methods; single-record reads return the record regardless of visibility so
// the guard can tell missing from private.
type DesignStore interface {
	ListPublic(ctx context.Context, filter ListFilter) (ListResult, error)
	ListPopular(ctx context.Context, limit int) ([]domain.Design, error)
	// GetByID returns domain.ErrNotFound for unknown ids. Ratings are loaded.
	GetByID(ctx context.Context, id string) (domain.Design, error)
	// UpsertRating runs check against the current document, applies the
	// upsert and persists the recomputed summary as one atomic write.
	UpsertRating(ctx context.Context, id string, entry domain.RatingEntry, check func(domain.Design) error) (domain.RatingSummary, error)
}

// UserDirectory resolves user ids owned by the authentication collaborator.
// Unknown ids are absent from the returned map.
type UserDirectory interface {
	ProfilesByID(ctx context.Context, ids []string) (map[string]domain.UserProfile, error)
}

// FurnitureCatalog resolves placement item references.
type FurnitureCatalog interface {
	Get(ctx context.Context, ref string) (*domain.FurnitureItem, error)
}
