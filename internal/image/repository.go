package image

import (
	"context"
	"io"

	"github.com/fekuna/marine-listing-service/internal/model"
)

type Repository interface {
	// FindByListing returns the listing's images ordered by position.
	FindByListing(ctx context.Context, listingID string) ([]model.ListingImage, error)
	// Append places images after the current last position, in order, until the listing holds
	// limit images. It returns the images that were persisted. A non-nil change is applied in
	// the same transaction, with a compare-and-set on its From status, only when at least one
	// image is persisted.
	Append(ctx context.Context, listingID string, images []model.ListingImage, limit int, change *model.StatusChange) ([]model.ListingImage, error)
	// Reorder assigns positions 0..n-1 following order, which must be a permutation of the
	// current image ids (see ValidateOrder).
	Reorder(ctx context.Context, listingID string, order []string) error
	// Remove deletes one image and closes the gap it leaves in the ordering.
	Remove(ctx context.Context, listingID, imageID string) error
}

type ListingReader interface {
	FindByID(ctx context.Context, id string) (*model.Listing, error)
}

// Uploader is the image-storage collaborator: it stores a binary and returns a stable URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}
