package image

import (
	"context"

	"github.com/fekuna/marine-listing-service/internal/image/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
)

type UseCase interface {
	AttachImages(ctx context.Context, input *dto.AttachImagesInput) ([]model.ListingImage, error)
	UploadImages(ctx context.Context, input *dto.UploadImagesInput) ([]model.ListingImage, error)
	ReorderImages(ctx context.Context, input *dto.ReorderImagesInput) error
	RemoveImage(ctx context.Context, actor model.Actor, listingID, imageID string) error
	ListImages(ctx context.Context, actor model.Actor, listingID string) ([]model.ListingImage, error)
}
