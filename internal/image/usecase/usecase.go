package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/image"
	"github.com/fekuna/marine-listing-service/internal/image/dto"
	"github.com/fekuna/marine-listing-service/internal/listing"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNoStorage = errors.New("image storage is not configured")

type imageUseCase struct {
	repo      image.Repository
	listings  image.ListingReader
	changer   listing.StatusChanger
	uploader  image.Uploader
	maxImages int
	validate  *validator.Validate
	logger    logger.ZapLogger
}

// NewImageUseCase builds the attachment manager. uploader may be nil when binary uploads are
// not offered.
func NewImageUseCase(
	repo image.Repository,
	listings image.ListingReader,
	changer listing.StatusChanger,
	uploader image.Uploader,
	maxImages int,
	log logger.ZapLogger,
) image.UseCase {
	return &imageUseCase{
		repo:      repo,
		listings:  listings,
		changer:   changer,
		uploader:  uploader,
		maxImages: maxImages,
		validate:  validator.New(),
		logger:    log,
	}
}

func (uc *imageUseCase) AttachImages(ctx context.Context, input *dto.AttachImagesInput) ([]model.ListingImage, error) {
	l, err := uc.editable(ctx, input.Actor, input.ListingID)
	if err != nil {
		return nil, err
	}
	if len(input.URLs) == 0 {
		return nil, apperror.Validation("images", "at least one image is required")
	}
	for i, u := range input.URLs {
		if err := uc.validate.Var(u, "required,url,max=2048"); err != nil {
			return nil, apperror.Validation(fmt.Sprintf("images[%d]", i), "must be an absolute URL")
		}
	}
	return uc.attach(ctx, input.Actor, l, input.URLs)
}

func (uc *imageUseCase) UploadImages(ctx context.Context, input *dto.UploadImagesInput) ([]model.ListingImage, error) {
	if uc.uploader == nil {
		return nil, errNoStorage
	}
	l, err := uc.editable(ctx, input.Actor, input.ListingID)
	if err != nil {
		return nil, err
	}
	if len(input.Files) == 0 {
		return nil, apperror.Validation("images", "at least one image is required")
	}

	current, err := uc.repo.FindByListing(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	room := uc.maxImages - len(current)
	if room <= 0 {
		return nil, &apperror.TooManyImagesError{Limit: uc.maxImages, Requested: len(input.Files)}
	}

	// binaries past the cap are never sent to storage
	files := input.Files
	if len(files) > room {
		files = files[:room]
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		u, err := uc.uploader.Upload(ctx, f.Reader)
		if err != nil {
			uc.logger.Error("image upload failed", zap.String("listing_id", l.ID), zap.String("file", f.Name), zap.Error(err))
			return nil, err
		}
		urls = append(urls, u)
	}

	images, err := uc.attach(ctx, input.Actor, l, urls)
	if err != nil {
		return images, err
	}
	if len(input.Files) > len(images) {
		return images, &apperror.TooManyImagesError{Limit: uc.maxImages, Requested: len(input.Files), Accepted: len(images)}
	}
	return images, nil
}

func (uc *imageUseCase) attach(ctx context.Context, actor model.Actor, l *model.Listing, urls []string) ([]model.ListingImage, error) {
	now := time.Now()
	batch := make([]model.ListingImage, len(urls))
	for i, u := range urls {
		batch[i] = model.ListingImage{
			ID:        uuid.New().String(),
			ListingID: l.ID,
			URL:       u,
			CreatedAt: now,
		}
	}

	var (
		persisted []model.ListingImage
		change    *model.StatusChange
	)
	err := uc.changer.Guard(ctx, l.ID, func() error {
		// new pictures are new content: approved listings go back to review with them
		if l.Status == model.ListingApproved {
			change = &model.StatusChange{
				ListingID: l.ID,
				From:      model.ListingApproved,
				To:        model.ListingPending,
				ActorID:   actor.UserID,
				At:        now,
			}
		}
		var err error
		persisted, err = uc.repo.Append(ctx, l.ID, batch, uc.maxImages, change)
		return err
	})
	if err != nil {
		return nil, err
	}
	if persisted == nil {
		persisted = []model.ListingImage{}
	}

	if change != nil && len(persisted) > 0 {
		l.Status = model.ListingPending
		l.RejectionReason = nil
		l.UpdatedAt = now
		uc.logger.Info("listing returned to review after image attach", zap.String("listing_id", l.ID))
		uc.changer.Announce(ctx, l, change)
	}

	if len(persisted) < len(urls) {
		uc.logger.Warn("image batch exceeded listing cap",
			zap.String("listing_id", l.ID),
			zap.Int("requested", len(urls)),
			zap.Int("accepted", len(persisted)),
		)
		return persisted, &apperror.TooManyImagesError{Limit: uc.maxImages, Requested: len(urls), Accepted: len(persisted)}
	}
	return persisted, nil
}

func (uc *imageUseCase) ReorderImages(ctx context.Context, input *dto.ReorderImagesInput) error {
	if _, err := uc.editable(ctx, input.Actor, input.ListingID); err != nil {
		return err
	}
	return uc.repo.Reorder(ctx, input.ListingID, input.Order)
}

func (uc *imageUseCase) RemoveImage(ctx context.Context, actor model.Actor, listingID, imageID string) error {
	if _, err := uc.editable(ctx, actor, listingID); err != nil {
		return err
	}
	return uc.repo.Remove(ctx, listingID, imageID)
}

func (uc *imageUseCase) ListImages(ctx context.Context, actor model.Actor, listingID string) ([]model.ListingImage, error) {
	l, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil || (l.Status != model.ListingApproved && !actor.CanManage(l.OwnerID)) ||
		(l.Status == model.ListingDeleted && !actor.IsAdmin) {
		return nil, apperror.NotFound("listing", listingID)
	}
	images, err := uc.repo.FindByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []model.ListingImage{}
	}
	return images, nil
}

// editable loads a listing the actor may change images on.
func (uc *imageUseCase) editable(ctx context.Context, actor model.Actor, listingID string) (*model.Listing, error) {
	l, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperror.NotFound("listing", listingID)
	}
	if !actor.CanManage(l.OwnerID) {
		return nil, &apperror.NotOwnerError{ListingID: listingID, UserID: actor.UserID}
	}
	if l.Status == model.ListingDeleted {
		return nil, &apperror.InvalidTransitionError{Entity: "listing", ID: listingID, From: string(l.Status), To: "edited"}
	}
	return l, nil
}
