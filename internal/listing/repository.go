package listing

import (
	"context"

	"github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
)

type Repository interface {
	// Create persists the listing, its extension record and its initial images as one unit and
	// credits the category's listing count.
	Create(ctx context.Context, listing *model.Listing) error
	// FindByID loads the listing with its extension and ordered images; nil when absent.
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	FindAll(ctx context.Context, filters *dto.ListingFilters) ([]model.Listing, int, error)
	// Update writes base fields and the extension. prevCategoryID moves the listing count when
	// the category changed. A non-nil change is applied in the same transaction with a
	// compare-and-set on its From status.
	Update(ctx context.Context, listing *model.Listing, prevCategoryID string, change *model.StatusChange) error
	// Transition applies change with a compare-and-set on change.From and appends the audit event.
	Transition(ctx context.Context, change *model.StatusChange) error
	History(ctx context.Context, listingID string) ([]model.StatusEvent, error)
	IncrementViews(ctx context.Context, id string) error
	// Purge physically removes the listing; extension, images and events cascade.
	Purge(ctx context.Context, id string) error
}

// CategoryReader is the slice of the category store the listing core depends on.
type CategoryReader interface {
	FindByID(ctx context.Context, id string) (*model.Category, error)
}

// Indexer mirrors listings into the read-side search index: APPROVED listings are indexed,
// anything else is removed.
type Indexer interface {
	Sync(ctx context.Context, listing *model.Listing) error
	Remove(ctx context.Context, id string) error
}

// StatusChanger serializes status changes per listing and emits their side effects.
type StatusChanger interface {
	Change(ctx context.Context, id string, to model.ListingStatus, actor model.Actor, reason *string) (*model.Listing, error)
	// Guard runs fn while holding the listing's moderation lock.
	Guard(ctx context.Context, id string, fn func() error) error
	// Announce emits notification and search side effects for a committed change.
	Announce(ctx context.Context, listing *model.Listing, change *model.StatusChange)
}
