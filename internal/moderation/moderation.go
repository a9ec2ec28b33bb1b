// Package moderation drives the listing status machine and the category suggestion review. It
// owns the per-listing serialization of status changes and their notification side effects.
package moderation

import (
	"context"
	"time"

	categorydto "github.com/fekuna/marine-listing-service/internal/category/dto"
	listingdto "github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
)

type UseCase interface {
	ApproveListing(ctx context.Context, actor model.Actor, id string) (*model.Listing, error)
	RejectListing(ctx context.Context, actor model.Actor, id, reason string) (*model.Listing, error)
	// RemoveListing soft-deletes as an administrator. Unlike the owner path it is not idempotent.
	RemoveListing(ctx context.Context, actor model.Actor, id string, reason *string) (*model.Listing, error)
	ListingHistory(ctx context.Context, actor model.Actor, id string) ([]model.StatusEvent, error)
	PendingListings(ctx context.Context, actor model.Actor, page, pageSize int) (*listingdto.ListingPage, error)
	ReviewSuggestion(ctx context.Context, input *categorydto.ResolveSuggestionInput) (*categorydto.Resolution, error)
}

// Locker is a short-lived mutual exclusion keyed by string, satisfied by the redis client.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}
