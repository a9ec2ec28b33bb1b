package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/category"
	"github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	maxNameLength   = 120
	defaultPageSize = 20
	maxPageSize     = 100
)

type categoryUseCase struct {
	repo   category.Repository
	cache  category.TreeCache
	logger logger.ZapLogger
}

// NewCategoryUseCase builds the category store. cache may be nil.
func NewCategoryUseCase(repo category.Repository, cache category.TreeCache, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateRootCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if !input.Actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "create categories"}
	}
	return uc.create(ctx, nil, input)
}

func (uc *categoryUseCase) CreateChildCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if !input.Actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "create categories"}
	}
	if input.ParentID == nil || strings.TrimSpace(*input.ParentID) == "" {
		return nil, apperror.Validation("parent_id", "is required")
	}
	parent, err := uc.activeParent(ctx, *input.ParentID)
	if err != nil {
		return nil, err
	}
	return uc.create(ctx, &parent.ID, input)
}

func (uc *categoryUseCase) create(ctx context.Context, parentID *string, input *dto.CreateCategoryInput) (*model.Category, error) {
	name, err := validName(input.Name)
	if err != nil {
		return nil, err
	}
	s, err := resolveSlug(input.Slug, name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ParentID:    parentID,
		Name:        name,
		Slug:        s,
		Description: trimmed(input.Description),
		IconURL:     trimmed(input.IconURL),
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	uc.invalidate(ctx)

	uc.logger.Info("category created", zap.String("category_id", cat.ID), zap.String("slug", cat.Slug))
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.NotFound("category", id)
	}
	return cat, nil
}

func (uc *categoryUseCase) GetTree(ctx context.Context, input *dto.TreeInput) (*category.Tree, error) {
	categories, err := uc.loadForest(ctx, input.IncludeInactive)
	if err != nil {
		return nil, err
	}
	tree := category.NewTree(categories)
	if input.RootID == "" {
		return tree, nil
	}
	sub, ok := tree.Subtree(input.RootID)
	if !ok {
		return nil, apperror.NotFound("category", input.RootID)
	}
	return sub, nil
}

func (uc *categoryUseCase) loadForest(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	if !includeInactive && uc.cache != nil {
		if cats, ok := uc.cache.Get(ctx); ok {
			return cats, nil
		}
	}
	cats, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{IncludeInactive: includeInactive})
	if err != nil {
		return nil, err
	}
	if !includeInactive && uc.cache != nil {
		uc.cache.Set(ctx, cats)
	}
	return cats, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	if !input.Actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "edit categories"}
	}
	cat, err := uc.GetCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validName(*input.Name)
		if err != nil {
			return nil, err
		}
		cat.Name = name
	}
	if input.Description != nil {
		cat.Description = trimmed(input.Description)
	}
	if input.IconURL != nil {
		cat.IconURL = trimmed(input.IconURL)
	}
	if input.MoveParent {
		if err := uc.checkMove(ctx, cat, input.ParentID); err != nil {
			return nil, err
		}
		cat.ParentID = input.ParentID
	}
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	uc.invalidate(ctx)
	return cat, nil
}

// checkMove rejects a new parent that is missing, disabled, or inside cat's own subtree.
func (uc *categoryUseCase) checkMove(ctx context.Context, cat *model.Category, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == cat.ID {
		return apperror.Validation("parent_id", "a category cannot be its own parent")
	}
	if _, err := uc.activeParent(ctx, *parentID); err != nil {
		return err
	}
	all, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{IncludeInactive: true})
	if err != nil {
		return err
	}
	if category.NewTree(all).IsAncestor(cat.ID, *parentID) {
		return apperror.Validation("parent_id", "a category cannot move under its own descendant")
	}
	return nil
}

func (uc *categoryUseCase) DisableCategory(ctx context.Context, actor model.Actor, id string) (*model.Category, error) {
	if !actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "disable categories"}
	}
	cat, err := uc.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cat.IsActive {
		return cat, nil
	}

	children, err := uc.repo.CountActiveChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	if children > 0 {
		return nil, apperror.Validation("id", fmt.Sprintf("category has %d active child categories", children))
	}
	if cat.ListingCount > 0 {
		return nil, apperror.Validation("id", fmt.Sprintf("category still holds %d listings, merge it instead", cat.ListingCount))
	}

	cat.IsActive = false
	cat.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	uc.invalidate(ctx)
	return cat, nil
}

func (uc *categoryUseCase) MergeCategory(ctx context.Context, input *dto.MergeCategoryInput) (*model.Category, error) {
	if !input.Actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "merge categories"}
	}
	if input.SourceID == input.TargetID {
		return nil, apperror.Validation("target_id", "must differ from the merged category")
	}
	if _, err := uc.GetCategory(ctx, input.SourceID); err != nil {
		return nil, err
	}
	if _, err := uc.activeTarget(ctx, input.TargetID, "target_id"); err != nil {
		return nil, err
	}

	all, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	if category.NewTree(all).IsAncestor(input.SourceID, input.TargetID) {
		return nil, apperror.Validation("target_id", "cannot merge a category into its own descendant")
	}

	if err := uc.repo.Merge(ctx, input.SourceID, input.TargetID); err != nil {
		return nil, err
	}
	uc.invalidate(ctx)

	uc.logger.Info("category merged",
		zap.String("source_id", input.SourceID),
		zap.String("target_id", input.TargetID),
		zap.String("actor", input.Actor.UserID),
	)
	return uc.GetCategory(ctx, input.TargetID)
}

func (uc *categoryUseCase) SuggestCategory(ctx context.Context, input *dto.SuggestCategoryInput) (*model.CategorySuggestion, error) {
	if input.UserID == "" {
		return nil, &apperror.NotAuthorizedError{Action: "suggest categories"}
	}
	name, err := validName(input.Name)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if input.ParentID != nil && *input.ParentID != "" {
		parent, err := uc.activeParent(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ID
	}

	s := &model.CategorySuggestion{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		Name:        name,
		Description: trimmed(input.Description),
		ParentID:    parentID,
		Reason:      trimmed(input.Reason),
		Status:      model.SuggestionPending,
		CreatedAt:   time.Now(),
	}
	if err := uc.repo.CreateSuggestion(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *categoryUseCase) ListSuggestions(ctx context.Context, actor model.Actor, filters *dto.SuggestionFilters) (*dto.SuggestionPage, error) {
	if !actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "review category suggestions"}
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperror.Validation("status", "must be one of PENDING, APPROVED, REJECTED, MERGED")
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

	items, total, err := uc.repo.FindSuggestions(ctx, filters)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.CategorySuggestion{}
	}
	return &dto.SuggestionPage{Items: items, Total: total, Page: filters.Page, PageSize: filters.PageSize}, nil
}

func (uc *categoryUseCase) ResolveSuggestion(ctx context.Context, input *dto.ResolveSuggestionInput) (*dto.Resolution, error) {
	if !input.Actor.IsAdmin {
		return nil, &apperror.NotAuthorizedError{Action: "resolve category suggestions"}
	}
	s, err := uc.repo.FindSuggestionByID(ctx, input.SuggestionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperror.NotFound("category suggestion", input.SuggestionID)
	}
	if !s.Status.CanTransitionTo(input.Outcome) {
		if s.Status != model.SuggestionPending {
			return nil, &apperror.AlreadyResolvedError{SuggestionID: s.ID, Status: string(s.Status)}
		}
		return nil, apperror.Validation("outcome", "must be one of APPROVED, REJECTED, MERGED")
	}

	now := time.Now()
	reviewer := input.Actor.UserID
	s.Status = input.Outcome
	s.ReviewedBy = &reviewer
	s.ReviewedAt = &now

	res := &dto.Resolution{Suggestion: s}
	var created *model.Category

	switch input.Outcome {
	case model.SuggestionApproved:
		created, err = uc.categoryFromSuggestion(ctx, s, input.Slug, now)
		if err != nil {
			return nil, err
		}
		s.CreatedCategoryID = &created.ID
		res.Category = created

	case model.SuggestionRejected:
		reason := strings.TrimSpace(input.RejectionReason)
		if reason == "" {
			return nil, apperror.Validation("rejection_reason", "is required")
		}
		s.RejectionReason = &reason

	case model.SuggestionMerged:
		if input.MergeTargetID == "" {
			return nil, apperror.Validation("merge_target_id", "is required")
		}
		target, err := uc.activeTarget(ctx, input.MergeTargetID, "merge_target_id")
		if err != nil {
			return nil, err
		}
		s.MergedIntoID = &target.ID
		res.Category = target
	}

	if err := uc.repo.ResolveSuggestion(ctx, s, created); err != nil {
		return nil, err
	}
	if created != nil {
		uc.invalidate(ctx)
	}

	uc.logger.Info("category suggestion resolved",
		zap.String("suggestion_id", s.ID),
		zap.String("outcome", string(s.Status)),
		zap.String("actor", reviewer),
	)
	return res, nil
}

func (uc *categoryUseCase) categoryFromSuggestion(ctx context.Context, s *model.CategorySuggestion, slugOverride string, now time.Time) (*model.Category, error) {
	var parentID *string
	if s.ParentID != nil {
		parent, err := uc.activeParent(ctx, *s.ParentID)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ID
	}
	sl, err := resolveSlug(slugOverride, s.Name)
	if err != nil {
		return nil, err
	}
	return &model.Category{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ParentID:    parentID,
		Name:        s.Name,
		Slug:        sl,
		Description: s.Description,
		IsActive:    true,
	}, nil
}

// activeParent loads a category that new children may attach to.
func (uc *categoryUseCase) activeParent(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, &apperror.ParentNotFoundError{ParentID: id}
	}
	if !cat.IsActive {
		return nil, apperror.Validation("parent_id", "category is disabled")
	}
	return cat, nil
}

// activeTarget loads the live category a merge folds into.
func (uc *categoryUseCase) activeTarget(ctx context.Context, id, field string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.NotFound("category", id)
	}
	if !cat.IsActive {
		return nil, apperror.Validation(field, "category is disabled")
	}
	return cat, nil
}

func (uc *categoryUseCase) invalidate(ctx context.Context) {
	if uc.cache != nil {
		uc.cache.Invalidate(ctx)
	}
}

func validName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.Validation("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperror.Validation("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return name, nil
}

func resolveSlug(raw, name string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		s = slug.Make(name)
	}
	if !slug.IsSlug(s) {
		return "", apperror.Validation("slug", "must contain only lowercase letters, digits and single hyphens")
	}
	return s, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
