package category

import (
	"context"

	"github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
)

type UseCase interface {
	CreateRootCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	CreateChildCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetTree(ctx context.Context, input *dto.TreeInput) (*Tree, error)
	UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error)
	DisableCategory(ctx context.Context, actor model.Actor, id string) (*model.Category, error)
	MergeCategory(ctx context.Context, input *dto.MergeCategoryInput) (*model.Category, error)

	SuggestCategory(ctx context.Context, input *dto.SuggestCategoryInput) (*model.CategorySuggestion, error)
	ListSuggestions(ctx context.Context, actor model.Actor, filters *dto.SuggestionFilters) (*dto.SuggestionPage, error)
	ResolveSuggestion(ctx context.Context, input *dto.ResolveSuggestionInput) (*dto.Resolution, error)
}
