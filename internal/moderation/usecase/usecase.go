package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/category"
	categorydto "github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/listing"
	listingdto "github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/moderation"
	"github.com/fekuna/marine-listing-service/internal/notification"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/fekuna/marine-listing-service/internal/vertical"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type moderationUseCase struct {
	listings   listing.Repository
	changer    listing.StatusChanger
	registry   *vertical.Registry
	categories category.UseCase
	notifier   notification.Notifier
	logger     logger.ZapLogger
}

func NewModerationUseCase(
	listings listing.Repository,
	changer listing.StatusChanger,
	registry *vertical.Registry,
	categories category.UseCase,
	notifier notification.Notifier,
	log logger.ZapLogger,
) moderation.UseCase {
	return &moderationUseCase{
		listings:   listings,
		changer:    changer,
		registry:   registry,
		categories: categories,
		notifier:   notifier,
		logger:     log,
	}
}

func (uc *moderationUseCase) ApproveListing(ctx context.Context, actor model.Actor, id string) (*model.Listing, error) {
	if !actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "approve listings"}
	}
	l, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	// re-checked against the current vertical rules
	if l.Status == model.ListingPending {
		if errs := uc.registry.Validate(l.Extension); len(errs) > 0 {
			return nil, errs[0]
		}
	}
	return uc.changer.Change(ctx, id, model.ListingApproved, actor, nil)
}

func (uc *moderationUseCase) RejectListing(ctx context.Context, actor model.Actor, id, reason string) (*model.Listing, error) {
	if !actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "reject listings"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("reason", "is required")
	}
	return uc.changer.Change(ctx, id, model.ListingRejected, actor, &reason)
}

func (uc *moderationUseCase) RemoveListing(ctx context.Context, actor model.Actor, id string, reason *string) (*model.Listing, error) {
	if !actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "remove listings"}
	}
	if reason != nil {
		if r := strings.TrimSpace(*reason); r != "" {
			reason = &r
		} else {
			reason = nil
		}
	}
	return uc.changer.Change(ctx, id, model.ListingDeleted, actor, reason)
}

func (uc *moderationUseCase) ListingHistory(ctx context.Context, actor model.Actor, id string) ([]model.StatusEvent, error) {
	l, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(l.OwnerID) {
		return nil, &apperror.NotOwnerError{ListingID: id, UserID: actor.UserID}
	}
	events, err := uc.listings.History(ctx, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.StatusEvent{}
	}
	return events, nil
}

func (uc *moderationUseCase) PendingListings(ctx context.Context, actor model.Actor, page, pageSize int) (*listingdto.ListingPage, error) {
	if !actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "review listings"}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := uc.listings.FindAll(ctx, &listingdto.ListingFilters{
		Statuses: []model.ListingStatus{model.ListingPending},
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Listing{}
	}
	return &listingdto.ListingPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (uc *moderationUseCase) ReviewSuggestion(ctx context.Context, input *categorydto.ResolveSuggestionInput) (*categorydto.Resolution, error) {
	res, err := uc.categories.ResolveSuggestion(ctx, input)
	if err != nil {
		return nil, err
	}

	s := res.Suggestion
	payload := map[string]any{
		"suggestion_id": s.ID,
		"name":          s.Name,
		"status":        string(s.Status),
	}
	if s.RejectionReason != nil {
		payload["reason"] = *s.RejectionReason
	}
	if res.Category != nil {
		payload["category_id"] = res.Category.ID
		payload["category_name"] = res.Category.Name
		payload["category_slug"] = res.Category.Slug
	}
	uc.notifier.Notify(ctx, s.UserID, notification.SuggestionEvent(s.Status), payload)

	uc.logger.Info("category suggestion reviewed",
		zap.String("suggestion_id", s.ID),
		zap.String("outcome", string(s.Status)),
	)
	return res, nil
}

func (uc *moderationUseCase) find(ctx context.Context, id string) (*model.Listing, error) {
	l, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperror.NotFound("listing", id)
	}
	return l, nil
}
