package listing

import (
	"context"

	"github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
)

type UseCase interface {
	CreateListing(ctx context.Context, input *dto.CreateListingInput) (*model.Listing, error)
	UpdateListing(ctx context.Context, input *dto.UpdateListingInput) (*model.Listing, error)
	DeleteListing(ctx context.Context, actor model.Actor, id string) error
	GetListing(ctx context.Context, input *dto.GetListingInput) (*model.Listing, error)
	ListByCategory(ctx context.Context, input *dto.ListByCategoryInput) (*dto.ListingPage, error)
	ListByOwner(ctx context.Context, input *dto.ListByOwnerInput) (*dto.ListingPage, error)
	PurgeListing(ctx context.Context, actor model.Actor, id string) error
	Verticals() []dto.VerticalInfo
}
