package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/category"
	"github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/fekuna/marine-listing-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = model.Actor{UserID: "admin-1", IsAdmin: true}
	user  = model.Actor{UserID: "user-1"}
)

func newUseCase(t *testing.T) (category.UseCase, *testutil.CategoryStore) {
	t.Helper()
	store := testutil.NewCategoryStore()
	return NewCategoryUseCase(store, nil, logger.NewNop()), store
}

func createRoot(t *testing.T, uc category.UseCase, name string) *model.Category {
	t.Helper()
	c, err := uc.CreateRootCategory(context.Background(), &dto.CreateCategoryInput{Actor: admin, Name: name})
	require.NoError(t, err)
	return c
}

func TestCreateRootDerivesSlug(t *testing.T) {
	uc, _ := newUseCase(t)

	c := createRoot(t, uc, "Deniz Araçları")
	assert.Equal(t, "deniz-araclari", c.Slug)
	assert.Nil(t, c.ParentID)
	assert.True(t, c.IsActive)
	assert.Zero(t, c.ListingCount)
}

func TestCreateRequiresAdmin(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.CreateRootCategory(context.Background(), &dto.CreateCategoryInput{Actor: user, Name: "Parts"})
	var nae *apperror.NotAuthorizedError
	assert.True(t, errors.As(err, &nae))
}

func TestSlugIsUniqueAcrossTheWholeTree(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	parts := createRoot(t, uc, "Parts")
	yachts := createRoot(t, uc, "Yachts")

	_, err := uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &parts.ID, Name: "Yacht Parts", Slug: "yacht-parts"})
	require.NoError(t, err)

	_, err = uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &yachts.ID, Name: "Spare Parts", Slug: "yacht-parts"})
	var dup *apperror.DuplicateSlugError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "yacht-parts", dup.Slug)
}

func TestCreateRejectsMalformedSlug(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.CreateRootCategory(context.Background(), &dto.CreateCategoryInput{Actor: admin, Name: "Parts", Slug: "spare parts!"})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "slug", ve.Field)
}

func TestChildUnderDisabledParentIsRejected(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	parent := createRoot(t, uc, "Old")
	_, err := uc.DisableCategory(ctx, admin, parent.ID)
	require.NoError(t, err)

	_, err = uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &parent.ID, Name: "New"})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "parent_id", ve.Field)
}

func TestChildUnderMissingParentIsRejected(t *testing.T) {
	ctx := context.Background()
	uc, store := newUseCase(t)
	missing := "no-such-parent"

	_, err := uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &missing, Name: "Orphan"})
	var pnf *apperror.ParentNotFoundError
	require.True(t, errors.As(err, &pnf), "got %v", err)
	assert.Equal(t, missing, pnf.ParentID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, store.Categories())
}

func TestGetTreeHidesInactiveUnlessAsked(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	sea := createRoot(t, uc, "Deniz Araçları")
	motor, err := uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &sea.ID, Name: "Motor Teknesi"})
	require.NoError(t, err)
	_, err = uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &sea.ID, Name: "Yelkenli"})
	require.NoError(t, err)
	_, err = uc.DisableCategory(ctx, admin, motor.ID)
	require.NoError(t, err)

	tree, err := uc.GetTree(ctx, &dto.TreeInput{})
	require.NoError(t, err)
	var visible []string
	for _, c := range tree.Walk() {
		visible = append(visible, c.Name)
	}
	assert.Equal(t, []string{"Deniz Araçları", "Yelkenli"}, visible)

	tree, err = uc.GetTree(ctx, &dto.TreeInput{IncludeInactive: true, RootID: sea.ID})
	require.NoError(t, err)
	assert.Len(t, tree.Nested()[0].Children, 2)

	_, err = uc.GetTree(ctx, &dto.TreeInput{RootID: "missing"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestDisableRejectsCategoryWithActiveChildren(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	sea := createRoot(t, uc, "Sea")
	_, err := uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &sea.ID, Name: "Gulet"})
	require.NoError(t, err)

	_, err = uc.DisableCategory(ctx, admin, sea.ID)
	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestUpdateCannotMoveUnderOwnDescendant(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	sea := createRoot(t, uc, "Sea")
	sail, err := uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &sea.ID, Name: "Sail"})
	require.NoError(t, err)

	_, err = uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{Actor: admin, ID: sea.ID, MoveParent: true, ParentID: &sail.ID})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "parent_id", ve.Field)

	moved, err := uc.UpdateCategory(ctx, &dto.UpdateCategoryInput{Actor: admin, ID: sail.ID, MoveParent: true})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestMergeMovesChildrenAndDisablesSource(t *testing.T) {
	ctx := context.Background()
	uc, store := newUseCase(t)
	source := createRoot(t, uc, "Boats")
	target := createRoot(t, uc, "Vessels")
	child, err := uc.CreateChildCategory(ctx, &dto.CreateCategoryInput{Actor: admin, ParentID: &source.ID, Name: "Rib"})
	require.NoError(t, err)

	merged, err := uc.MergeCategory(ctx, &dto.MergeCategoryInput{Actor: admin, SourceID: source.ID, TargetID: target.ID})
	require.NoError(t, err)
	assert.Equal(t, target.ID, merged.ID)

	got, err := store.FindByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, *got.ParentID)
	got, err = store.FindByID(ctx, source.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func suggest(t *testing.T, uc category.UseCase, name string, parentID *string) *model.CategorySuggestion {
	t.Helper()
	s, err := uc.SuggestCategory(context.Background(), &dto.SuggestCategoryInput{UserID: user.UserID, Name: name, ParentID: parentID})
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionPending, s.Status)
	return s
}

func TestApprovedSuggestionCreatesExactlyOneCategory(t *testing.T) {
	ctx := context.Background()
	uc, store := newUseCase(t)
	sea := createRoot(t, uc, "Deniz Araçları")
	s := suggest(t, uc, "Jet Ski", &sea.ID)

	res, err := uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: admin, SuggestionID: s.ID, Outcome: model.SuggestionApproved})
	require.NoError(t, err)
	require.NotNil(t, res.Category)
	assert.Equal(t, "jet-ski", res.Category.Slug)
	assert.Equal(t, sea.ID, *res.Category.ParentID)
	assert.Equal(t, res.Category.ID, *res.Suggestion.CreatedCategoryID)
	assert.Len(t, store.Categories(), 2)

	_, err = uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: admin, SuggestionID: s.ID, Outcome: model.SuggestionApproved})
	var already *apperror.AlreadyResolvedError
	require.True(t, errors.As(err, &already))
	var ite *apperror.InvalidTransitionError
	assert.True(t, errors.As(err, &ite))
	assert.Len(t, store.Categories(), 2)
}

func TestMergedSuggestionCreatesNoCategory(t *testing.T) {
	ctx := context.Background()
	uc, store := newUseCase(t)
	sea := createRoot(t, uc, "Deniz Araçları")
	s := suggest(t, uc, "Motor Boats", nil)

	_, err := uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: admin, SuggestionID: s.ID, Outcome: model.SuggestionMerged})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "merge_target_id", ve.Field)

	res, err := uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{
		Actor: admin, SuggestionID: s.ID, Outcome: model.SuggestionMerged, MergeTargetID: sea.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, sea.ID, *res.Suggestion.MergedIntoID)
	assert.Nil(t, res.Suggestion.CreatedCategoryID)
	assert.Len(t, store.Categories(), 1)
}

func TestRejectedSuggestionRequiresReason(t *testing.T) {
	ctx := context.Background()
	uc, store := newUseCase(t)
	s := suggest(t, uc, "Jet Ski", nil)

	_, err := uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: admin, SuggestionID: s.ID, Outcome: model.SuggestionRejected, RejectionReason: "  "})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "rejection_reason", ve.Field)

	stored, err := store.FindSuggestionByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionPending, stored.Status)
}

func TestResolveSuggestionValidatesOutcome(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	s := suggest(t, uc, "Jet Ski", nil)

	_, err := uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: admin, SuggestionID: s.ID, Outcome: model.SuggestionPending})
	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: user, SuggestionID: s.ID, Outcome: model.SuggestionApproved})
	var nae *apperror.NotAuthorizedError
	assert.True(t, errors.As(err, &nae))

	_, err = uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: admin, SuggestionID: "nope", Outcome: model.SuggestionApproved})
	assert.True(t, apperror.IsNotFound(err))
}

func TestListSuggestionsFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)
	first := suggest(t, uc, "Jet Ski", nil)
	suggest(t, uc, "Kayak", nil)
	_, err := uc.ResolveSuggestion(ctx, &dto.ResolveSuggestionInput{Actor: admin, SuggestionID: first.ID, Outcome: model.SuggestionRejected, RejectionReason: "duplicate"})
	require.NoError(t, err)

	page, err := uc.ListSuggestions(ctx, admin, &dto.SuggestionFilters{Status: model.SuggestionPending})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Kayak", page.Items[0].Name)
	assert.Equal(t, defaultPageSize, page.PageSize)

	_, err = uc.ListSuggestions(ctx, admin, &dto.SuggestionFilters{Status: "LOST"})
	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSuggestRequiresSignedInUser(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.SuggestCategory(context.Background(), &dto.SuggestCategoryInput{Name: "Jet Ski"})
	var nae *apperror.NotAuthorizedError
	assert.True(t, errors.As(err, &nae))
}
