package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/listing"
	"github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/fekuna/marine-listing-service/internal/vertical"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 10000
	maxLocationLength    = 200
	defaultPageSize      = 20
	maxPageSize          = 100
)

type Options struct {
	MaxImages int
}

type listingUseCase struct {
	repo       listing.Repository
	categories listing.CategoryReader
	registry   *vertical.Registry
	changer    listing.StatusChanger
	indexer    listing.Indexer
	validate   *validator.Validate
	opts       Options
	logger     logger.ZapLogger
}

// NewListingUseCase builds the listing core. indexer may be nil.
func NewListingUseCase(
	repo listing.Repository,
	categories listing.CategoryReader,
	registry *vertical.Registry,
	changer listing.StatusChanger,
	indexer listing.Indexer,
	opts Options,
	log logger.ZapLogger,
) listing.UseCase {
	return &listingUseCase{
		repo:       repo,
		categories: categories,
		registry:   registry,
		changer:    changer,
		indexer:    indexer,
		validate:   validator.New(),
		opts:       opts,
		logger:     log,
	}
}

func (uc *listingUseCase) CreateListing(ctx context.Context, input *dto.CreateListingInput) (*model.Listing, error) {
	if input.Actor.IsAnonymous() {
		return nil, &apperror.NotAuthorizedError{Action: "create listings"}
	}

	title, err := validText("title", input.Title, maxTitleLength, true)
	if err != nil {
		return nil, err
	}
	description, err := validText("description", input.Description, maxDescriptionLength, false)
	if err != nil {
		return nil, err
	}
	currency := input.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	if err := validPrice(input.Price, currency); err != nil {
		return nil, err
	}
	location, err := validText("location", input.Location, maxLocationLength, false)
	if err != nil {
		return nil, err
	}

	ext, err := uc.registry.Decode(input.Vertical, input.Extension)
	if err != nil {
		return nil, err
	}
	if ext, err = uc.registry.Prepare(input.Vertical, ext); err != nil {
		return nil, err
	}
	if err := uc.registry.CheckPricing(input.Vertical, input.Price != nil, ext); err != nil {
		return nil, err
	}

	if err := uc.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	urls := input.Images
	if len(urls) > uc.opts.MaxImages {
		urls = urls[:uc.opts.MaxImages]
	}
	for i, u := range urls {
		if err := uc.validate.Var(u, "required,url,max=2048"); err != nil {
			return nil, apperror.Validation(fmt.Sprintf("images[%d]", i), "must be an absolute URL")
		}
	}

	now := time.Now()
	l := &model.Listing{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:     input.Actor.UserID,
		Vertical:    input.Vertical,
		Title:       title,
		Description: description,
		Price:       input.Price,
		Currency:    currency,
		Location:    location,
		CategoryID:  input.CategoryID,
		Status:      model.ListingPending,
		Extension:   ext,
	}
	ext.Base().ID = uuid.New().String()
	ext.Base().ListingID = l.ID

	l.Images = make([]model.ListingImage, len(urls))
	for i, u := range urls {
		l.Images[i] = model.ListingImage{
			ID:        uuid.New().String(),
			ListingID: l.ID,
			URL:       u,
			Position:  i,
			CreatedAt: now,
		}
	}

	if err := uc.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	uc.logger.Info("listing created",
		zap.String("listing_id", l.ID),
		zap.String("vertical", string(l.Vertical)),
		zap.String("owner_id", l.OwnerID),
		zap.Int("images", len(l.Images)),
	)
	return l, nil
}

func (uc *listingUseCase) UpdateListing(ctx context.Context, input *dto.UpdateListingInput) (*model.Listing, error) {
	l, err := uc.find(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !input.Actor.CanManage(l.OwnerID) {
		return nil, &apperror.NotOwnerError{ListingID: l.ID, UserID: input.Actor.UserID}
	}
	if l.Status == model.ListingDeleted {
		return nil, &apperror.InvalidTransitionError{Entity: "listing", ID: l.ID, From: string(l.Status), To: "edited"}
	}
	if input.Vertical != nil && *input.Vertical != l.Vertical {
		return nil, apperror.Validation("vertical", "cannot change; delete the listing and create a new one")
	}

	changed := false
	if input.Title != nil {
		title, err := validText("title", *input.Title, maxTitleLength, true)
		if err != nil {
			return nil, err
		}
		changed = changed || title != l.Title
		l.Title = title
	}
	if input.Description != nil {
		description, err := validText("description", *input.Description, maxDescriptionLength, false)
		if err != nil {
			return nil, err
		}
		changed = changed || description != l.Description
		l.Description = description
	}
	if input.ClearPrice {
		changed = changed || l.Price != nil
		l.Price = nil
	} else if input.Price != nil {
		changed = changed || l.Price == nil || !l.Price.Equal(*input.Price)
		l.Price = input.Price
	}
	if input.Currency != nil {
		changed = changed || *input.Currency != l.Currency
		l.Currency = *input.Currency
	}
	if err := validPrice(l.Price, l.Currency); err != nil {
		return nil, err
	}
	if input.Location != nil {
		location, err := validText("location", *input.Location, maxLocationLength, false)
		if err != nil {
			return nil, err
		}
		changed = changed || location != l.Location
		l.Location = location
	}

	if len(input.Extension) > 0 {
		ext, err := uc.registry.Decode(l.Vertical, input.Extension)
		if err != nil {
			return nil, err
		}
		if ext, err = uc.registry.Prepare(l.Vertical, ext); err != nil {
			return nil, err
		}
		*ext.Base() = *l.Extension.Base()
		stored := uc.registry.Project(l.Extension)
		changed = changed || !reflect.DeepEqual(ext, stored)
		l.Extension = ext
	}
	if err := uc.registry.CheckPricing(l.Vertical, l.Price != nil, l.Extension); err != nil {
		return nil, err
	}

	prevCategoryID := l.CategoryID
	if input.CategoryID != nil && *input.CategoryID != l.CategoryID {
		if err := uc.checkCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		l.CategoryID = *input.CategoryID
		changed = true
	}

	if !changed {
		return l, nil
	}

	now := time.Now()
	l.UpdatedAt = now
	var change *model.StatusChange
	err = uc.changer.Guard(ctx, l.ID, func() error {
		// moderation may have moved the listing since it was read
		current, err := uc.repo.FindByID(ctx, l.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperror.NotFound("listing", l.ID)
		}
		if current.Status == model.ListingDeleted {
			return &apperror.InvalidTransitionError{Entity: "listing", ID: l.ID, From: string(current.Status), To: "edited"}
		}
		l.Status = current.Status
		l.RejectionReason = current.RejectionReason

		// approved content must not change silently in the public index
		if l.Status == model.ListingApproved || l.Status == model.ListingRejected {
			change = &model.StatusChange{
				ListingID: l.ID,
				From:      l.Status,
				To:        model.ListingPending,
				ActorID:   input.Actor.UserID,
				At:        now,
			}
			l.Status = model.ListingPending
			l.RejectionReason = nil
		}
		return uc.repo.Update(ctx, l, prevCategoryID, change)
	})
	if err != nil {
		return nil, err
	}
	if change != nil {
		uc.changer.Announce(ctx, l, change)
	}

	uc.logger.Info("listing updated", zap.String("listing_id", l.ID), zap.String("status", string(l.Status)))
	return l, nil
}

func (uc *listingUseCase) DeleteListing(ctx context.Context, actor model.Actor, id string) error {
	l, err := uc.find(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(l.OwnerID) {
		return &apperror.NotOwnerError{ListingID: l.ID, UserID: actor.UserID}
	}
	if l.Status == model.ListingDeleted {
		return nil
	}

	_, err = uc.changer.Change(ctx, id, model.ListingDeleted, actor, nil)
	var ite *apperror.InvalidTransitionError
	if errors.As(err, &ite) && ite.From == string(model.ListingDeleted) {
		return nil
	}
	return err
}

func (uc *listingUseCase) GetListing(ctx context.Context, input *dto.GetListingInput) (*model.Listing, error) {
	l, err := uc.find(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !visible(input.Actor, l) {
		return nil, apperror.NotFound("listing", input.ID)
	}
	if !input.IncludeExtension {
		l.Extension = nil
	}

	if l.Status == model.ListingApproved && !input.Actor.CanManage(l.OwnerID) {
		go func(id string) {
			if err := uc.repo.IncrementViews(context.Background(), id); err != nil {
				uc.logger.Warn("failed to count listing view", zap.String("listing_id", id), zap.Error(err))
			}
		}(l.ID)
	}
	return l, nil
}

func (uc *listingUseCase) ListByCategory(ctx context.Context, input *dto.ListByCategoryInput) (*dto.ListingPage, error) {
	if strings.TrimSpace(input.CategoryID) == "" {
		return nil, apperror.Validation("category_id", "is required")
	}
	cat, err := uc.categories.FindByID(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.NotFound("category", input.CategoryID)
	}
	return uc.page(ctx, input.Actor, &dto.ListingFilters{
		CategoryID: input.CategoryID,
		Statuses:   input.Statuses,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
}

func (uc *listingUseCase) ListByOwner(ctx context.Context, input *dto.ListByOwnerInput) (*dto.ListingPage, error) {
	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = input.Actor.UserID
	}
	if ownerID == "" {
		return nil, apperror.Validation("owner_id", "is required")
	}
	return uc.page(ctx, input.Actor, &dto.ListingFilters{
		OwnerID:  ownerID,
		Statuses: input.Statuses,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

func (uc *listingUseCase) PurgeListing(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsAdmin {
		return &apperror.NotAuthorizedError{Action: "purge listings"}
	}
	if err := uc.repo.Purge(ctx, id); err != nil {
		return err
	}
	if uc.indexer != nil {
		go func() {
			if err := uc.indexer.Remove(context.Background(), id); err != nil {
				uc.logger.Error("failed to remove purged listing from search", zap.String("listing_id", id), zap.Error(err))
			}
		}()
	}
	uc.logger.Info("listing purged", zap.String("listing_id", id), zap.String("actor", actor.UserID))
	return nil
}

func (uc *listingUseCase) Verticals() []dto.VerticalInfo {
	specs := uc.registry.All()
	out := make([]dto.VerticalInfo, len(specs))
	for i, s := range specs {
		out[i] = dto.VerticalInfo{Vertical: s.Vertical, Pricing: string(s.Pricing), Required: s.Required}
	}
	return out
}

func (uc *listingUseCase) page(ctx context.Context, actor model.Actor, filters *dto.ListingFilters) (*dto.ListingPage, error) {
	for _, s := range filters.Statuses {
		if !s.Valid() {
			return nil, apperror.Validation("status", "must be one of PENDING, APPROVED, REJECTED, DELETED")
		}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}

	result := &dto.ListingPage{Items: []model.Listing{}, Page: filters.Page, PageSize: filters.PageSize}
	if !actor.IsAdmin {
		statuses, ok := visibleStatuses(actor, filters.Statuses)
		if !ok {
			return result, nil
		}
		filters.Statuses = statuses
		filters.ViewerID = actor.UserID
	}

	items, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	if items != nil {
		result.Items = items
	}
	result.Total = total
	return result, nil
}

// visibleStatuses narrows a status filter to what a non-admin may read. DELETED is never
// visible; anything but APPROVED needs a signed-in viewer and is further limited to their
// own listings by the repository.
func visibleStatuses(actor model.Actor, requested []model.ListingStatus) ([]model.ListingStatus, bool) {
	allowed := []model.ListingStatus{model.ListingApproved}
	if !actor.IsAnonymous() {
		allowed = []model.ListingStatus{model.ListingPending, model.ListingApproved, model.ListingRejected}
	}
	if len(requested) == 0 {
		return allowed, true
	}
	var out []model.ListingStatus
	for _, s := range requested {
		for _, a := range allowed {
			if s == a {
				out = append(out, s)
				break
			}
		}
	}
	return out, len(out) > 0
}

func visible(actor model.Actor, l *model.Listing) bool {
	switch {
	case actor.IsAdmin:
		return true
	case l.Status == model.ListingDeleted:
		return false
	case l.Status == model.ListingApproved:
		return true
	default:
		return actor.CanManage(l.OwnerID)
	}
}

func (uc *listingUseCase) find(ctx context.Context, id string) (*model.Listing, error) {
	l, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperror.NotFound("listing", id)
	}
	return l, nil
}

func (uc *listingUseCase) checkCategory(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.Validation("category_id", "is required")
	}
	cat, err := uc.categories.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return apperror.Validation("category_id", "category does not exist")
	}
	if !cat.IsActive {
		return apperror.Validation("category_id", "category is disabled")
	}
	return nil
}

func validText(field, raw string, max int, required bool) (string, error) {
	s := strings.TrimSpace(raw)
	if required && s == "" {
		return "", apperror.Validation(field, "is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", apperror.Validation(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return s, nil
}

func validPrice(price *decimal.Decimal, currency model.Currency) error {
	if price != nil && price.IsNegative() {
		return apperror.Validation("price", "must not be negative")
	}
	if !currency.Valid() {
		return apperror.Validation("currency", "must be one of TRY, EUR, USD, GBP")
	}
	return nil
}
