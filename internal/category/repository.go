package category

import (
	"context"

	"github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	CountActiveChildren(ctx context.Context, id string) (int, error)
	// Merge moves every listing and child category of source under target and disables source,
	// all in one transaction.
	Merge(ctx context.Context, sourceID, targetID string) error

	CreateSuggestion(ctx context.Context, s *model.CategorySuggestion) error
	FindSuggestionByID(ctx context.Context, id string) (*model.CategorySuggestion, error)
	FindSuggestions(ctx context.Context, filters *dto.SuggestionFilters) ([]model.CategorySuggestion, int, error)
	// ResolveSuggestion flips a PENDING suggestion to s.Status and, when created is non-nil,
	// inserts that category in the same transaction. A suggestion that already left PENDING
	// yields AlreadyResolvedError and nothing is written.
	ResolveSuggestion(ctx context.Context, s *model.CategorySuggestion, created *model.Category) error
}

// TreeCache holds the flattened category forest between writes.
type TreeCache interface {
	Get(ctx context.Context) ([]model.Category, bool)
	Set(ctx context.Context, categories []model.Category)
	Invalidate(ctx context.Context)
}
