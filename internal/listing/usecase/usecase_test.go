package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/listing"
	"github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/moderation"
	"github.com/fekuna/marine-listing-service/internal/notification"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/fekuna/marine-listing-service/internal/testutil"
	"github.com/fekuna/marine-listing-service/internal/vertical"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = model.Actor{UserID: "owner-1"}
	stranger = model.Actor{UserID: "user-2"}
	admin    = model.Actor{UserID: "admin-1", IsAdmin: true}
	public   = model.Actor{}
)

type fixture struct {
	uc         listing.UseCase
	listings   *testutil.ListingStore
	categories *testutil.CategoryStore
	changer    *moderation.Transitioner
	notifier   *testutil.Notifier
	indexer    *testutil.Indexer
	categoryID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		categories: testutil.NewCategoryStore(),
		notifier:   &testutil.Notifier{},
		indexer:    &testutil.Indexer{},
		categoryID: "cat-yachts",
	}
	f.listings = testutil.NewListingStore(f.categories)
	require.NoError(t, f.categories.Create(context.Background(), &model.Category{
		BaseModel: model.BaseModel{ID: f.categoryID},
		Name:      "Yachts",
		Slug:      "yachts",
		IsActive:  true,
	}))

	log := logger.NewNop()
	f.changer = moderation.NewTransitioner(f.listings, &testutil.Locker{}, f.notifier, f.indexer, time.Second, log)
	f.uc = NewListingUseCase(f.listings, f.categories, vertical.New(), f.changer, f.indexer, Options{MaxImages: 15}, log)
	return f
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) createYacht(t *testing.T) *model.Listing {
	t.Helper()
	l, err := f.uc.CreateListing(context.Background(), &dto.CreateListingInput{
		Actor:      owner,
		Vertical:   model.VerticalYacht,
		Title:      "  Azimut 55 Fly  ",
		Price:      price("850000"),
		Currency:   model.CurrencyEUR,
		Location:   "Bodrum",
		CategoryID: f.categoryID,
		Extension:  json.RawMessage(`{"yacht_type":"Motor-Yacht","make":"Azimut","length_m":16.7,"beam_m":4.6,"cabin_count":3}`),
		Images:     []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) approve(t *testing.T, id string) {
	t.Helper()
	_, err := f.changer.Change(context.Background(), id, model.ListingApproved, admin, nil)
	require.NoError(t, err)
}

func TestCreateYachtRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := f.createYacht(t)
	assert.Equal(t, model.ListingPending, created.Status)
	assert.Equal(t, "Azimut 55 Fly", created.Title)
	assert.Equal(t, owner.UserID, created.OwnerID)

	got, err := f.uc.GetListing(ctx, &dto.GetListingInput{Actor: owner, ID: created.ID, IncludeExtension: true})
	require.NoError(t, err)
	y, ok := got.Extension.(*model.YachtExtension)
	require.True(t, ok)
	assert.Equal(t, "motor-yacht", y.YachtType)
	assert.Equal(t, 16.7, y.LengthM)
	assert.Equal(t, created.ID, y.ListingID)
	require.Len(t, got.Images, 2)
	assert.Equal(t, 0, got.Images[0].Position)
	assert.Equal(t, 1, got.Images[1].Position)

	cat, err := f.categories.FindByID(ctx, f.categoryID)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.ListingCount)

	got, err = f.uc.GetListing(ctx, &dto.GetListingInput{Actor: owner, ID: created.ID})
	require.NoError(t, err)
	assert.Nil(t, got.Extension)
}

func TestCreateDefaultsCurrency(t *testing.T) {
	f := newFixture(t)

	l, err := f.uc.CreateListing(context.Background(), &dto.CreateListingInput{
		Actor:      owner,
		Vertical:   model.VerticalPart,
		Title:      "Volvo Penta impeller",
		Price:      price("45.90"),
		CategoryID: f.categoryID,
		Extension:  json.RawMessage(`{"part_type":"impeller","condition":"new"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCurrency, l.Currency)
}

func TestCreateInsuranceWithPremiumPercentage(t *testing.T) {
	f := newFixture(t)
	input := func(premium string) *dto.CreateListingInput {
		return &dto.CreateListingInput{
			Actor:      owner,
			Vertical:   model.VerticalInsurance,
			Title:      "Hull cover",
			CategoryID: f.categoryID,
			Extension:  json.RawMessage(`{"company_name":"Acme","insurance_type":"hull","premium_percentage":` + premium + `}`),
		}
	}

	l, err := f.uc.CreateListing(context.Background(), input("15"))
	require.NoError(t, err)
	assert.Nil(t, l.Price)
	ins := l.Extension.(*model.InsuranceExtension)
	assert.Equal(t, model.PremiumPercentage, ins.PremiumMode)

	_, err = f.uc.CreateListing(context.Background(), input("150"))
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "premium_percentage", ve.Field)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.categories.Create(context.Background(), &model.Category{
		BaseModel: model.BaseModel{ID: "cat-off"}, Name: "Off", Slug: "off",
	}))

	base := func() *dto.CreateListingInput {
		return &dto.CreateListingInput{
			Actor:      owner,
			Vertical:   model.VerticalYacht,
			Title:      "Gulet",
			Price:      price("100"),
			CategoryID: f.categoryID,
			Extension:  json.RawMessage(`{"yacht_type":"gulet","length_m":24}`),
		}
	}

	tests := []struct {
		name   string
		mutate func(*dto.CreateListingInput)
		field  string
	}{
		{"missing title", func(in *dto.CreateListingInput) { in.Title = "   " }, "title"},
		{"negative price", func(in *dto.CreateListingInput) { in.Price = price("-1") }, "price"},
		{"unknown currency", func(in *dto.CreateListingInput) { in.Currency = "JPY" }, "currency"},
		{"flat pricing needs a price", func(in *dto.CreateListingInput) { in.Price = nil }, "price"},
		{"unknown vertical", func(in *dto.CreateListingInput) { in.Vertical = "submarine" }, "vertical"},
		{"extension shape", func(in *dto.CreateListingInput) { in.Extension = json.RawMessage(`{"length_m":24}`) }, "yacht_type"},
		{"missing category", func(in *dto.CreateListingInput) { in.CategoryID = "" }, "category_id"},
		{"unknown category", func(in *dto.CreateListingInput) { in.CategoryID = "nope" }, "category_id"},
		{"disabled category", func(in *dto.CreateListingInput) { in.CategoryID = "cat-off" }, "category_id"},
		{"relative image url", func(in *dto.CreateListingInput) { in.Images = []string{"/a.jpg"} }, "images[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(in)
			_, err := f.uc.CreateListing(context.Background(), in)
			var ve *apperror.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			f.assertNothingStored(t)
		})
	}

	_, err := f.uc.CreateListing(context.Background(), &dto.CreateListingInput{Actor: public})
	var nae *apperror.NotAuthorizedError
	assert.True(t, errors.As(err, &nae))
}

func (f *fixture) assertNothingStored(t *testing.T) {
	t.Helper()
	_, total, err := f.listings.FindAll(context.Background(), &dto.ListingFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
	cat, err := f.categories.FindByID(context.Background(), f.categoryID)
	require.NoError(t, err)
	assert.Zero(t, cat.ListingCount)
}

func TestCreateStoresNothingWhenTheWriteFails(t *testing.T) {
	f := newFixture(t)
	f.listings.CreateErr = &apperror.TransientStorageError{Op: "insert yacht extension", Err: errors.New("connection reset")}

	_, err := f.uc.CreateListing(context.Background(), &dto.CreateListingInput{
		Actor:      owner,
		Vertical:   model.VerticalYacht,
		Title:      "Gulet",
		Price:      price("100"),
		CategoryID: f.categoryID,
		Extension:  json.RawMessage(`{"yacht_type":"gulet","length_m":24}`),
		Images:     []string{"https://cdn.example.com/a.jpg"},
	})
	assert.True(t, apperror.IsTransient(err))
	f.assertNothingStored(t)
	assert.Empty(t, f.notifier.Events())
}

func TestCreateCapsInitialImages(t *testing.T) {
	f := newFixture(t)
	urls := make([]string, 20)
	for i := range urls {
		urls[i] = "https://cdn.example.com/" + string(rune('a'+i)) + ".jpg"
	}

	l, err := f.uc.CreateListing(context.Background(), &dto.CreateListingInput{
		Actor:      owner,
		Vertical:   model.VerticalYacht,
		Title:      "Gulet",
		Price:      price("100"),
		CategoryID: f.categoryID,
		Extension:  json.RawMessage(`{"yacht_type":"gulet","length_m":24}`),
		Images:     urls,
	})
	require.NoError(t, err)
	assert.Len(t, l.Images, 15)
}

func TestEditingApprovedListingReturnsItToReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)
	f.approve(t, l.ID)

	title := "Azimut 55 Fly, new engines"
	updated, err := f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, model.ListingPending, updated.Status)

	history, err := f.listings.History(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ListingApproved, history[1].FromStatus)
	assert.Equal(t, model.ListingPending, history[1].ToStatus)

	events := f.notifier.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, notification.EventListingPending, events[len(events)-1].EventType)
}

func TestEditingPendingListingStaysPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)

	ext := json.RawMessage(`{"yacht_type":"motor-yacht","make":"Azimut","length_m":16.7,"beam_m":4.6,"cabin_count":4}`)
	updated, err := f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Extension: ext})
	require.NoError(t, err)
	assert.Equal(t, model.ListingPending, updated.Status)
	assert.Equal(t, 4, updated.Extension.(*model.YachtExtension).CabinCount)

	history, err := f.listings.History(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpdateWithoutChangesKeepsApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)
	f.approve(t, l.ID)

	same := "Azimut 55 Fly"
	updated, err := f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Title: &same})
	require.NoError(t, err)
	assert.Equal(t, model.ListingApproved, updated.Status)
}

func TestResendingSameCrewDateKeepsApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	crew := json.RawMessage(`{"position":"captain","experience_years":12,"available_from":"2026-05-01T00:00:00Z"}`)
	l, err := f.uc.CreateListing(ctx, &dto.CreateListingInput{
		Actor:      owner,
		Vertical:   model.VerticalCrew,
		Title:      "Licensed captain",
		CategoryID: f.categoryID,
		Extension:  crew,
	})
	require.NoError(t, err)
	f.approve(t, l.ID)

	// the database hands the date back in the server's zone
	stored, err := f.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	ext := stored.Extension.(*model.CrewExtension)
	local := ext.AvailableFrom.In(time.FixedZone("TRT", 3*60*60))
	ext.AvailableFrom = &local
	require.NoError(t, f.listings.Update(ctx, stored, stored.CategoryID, nil))

	updated, err := f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Extension: crew})
	require.NoError(t, err)
	assert.Equal(t, model.ListingApproved, updated.Status)

	later := json.RawMessage(`{"position":"captain","experience_years":12,"available_from":"2026-06-01T00:00:00Z"}`)
	updated, err = f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Extension: later})
	require.NoError(t, err)
	assert.Equal(t, model.ListingPending, updated.Status)
}

func TestUpdateMovesCategoryCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.categories.Create(ctx, &model.Category{
		BaseModel: model.BaseModel{ID: "cat-sail"}, Name: "Sail", Slug: "sail", IsActive: true,
	}))
	l := f.createYacht(t)

	target := "cat-sail"
	_, err := f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, CategoryID: &target})
	require.NoError(t, err)

	from, _ := f.categories.FindByID(ctx, f.categoryID)
	to, _ := f.categories.FindByID(ctx, target)
	assert.Equal(t, 0, from.ListingCount)
	assert.Equal(t, 1, to.ListingCount)
}

// approvedAfterRead simulates a moderator approving the listing right after the owner's first read.
type approvedAfterRead struct {
	*testutil.ListingStore
	reads int
}

func (s *approvedAfterRead) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	l, err := s.ListingStore.FindByID(ctx, id)
	s.reads++
	if s.reads == 1 && l != nil {
		s.SetStatus(id, model.ListingApproved)
	}
	return l, err
}

func TestUpdateUsesStatusSeenUnderLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)

	repo := &approvedAfterRead{ListingStore: f.listings}
	uc := NewListingUseCase(repo, f.categories, vertical.New(), f.changer, f.indexer, Options{MaxImages: 15}, logger.NewNop())

	title := "Azimut 55 Fly, new engines"
	updated, err := uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, model.ListingPending, updated.Status)

	history, err := f.listings.History(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ListingApproved, history[0].FromStatus)
	assert.Equal(t, model.ListingPending, history[0].ToStatus)
}

func TestUpdateRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)
	title := "Mine now"

	_, err := f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: stranger, ID: l.ID, Title: &title})
	var noe *apperror.NotOwnerError
	assert.True(t, errors.As(err, &noe))

	v := model.VerticalPart
	_, err = f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Vertical: &v})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "vertical", ve.Field)

	_, err = f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, ClearPrice: true})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "price", ve.Field)

	require.NoError(t, f.uc.DeleteListing(ctx, owner, l.ID))
	_, err = f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: l.ID, Title: &title})
	var ite *apperror.InvalidTransitionError
	assert.True(t, errors.As(err, &ite))

	_, err = f.uc.UpdateListing(ctx, &dto.UpdateListingInput{Actor: owner, ID: "missing", Title: &title})
	assert.True(t, apperror.IsNotFound(err))
}

func TestOwnerDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)

	assert.ErrorAs(t, f.uc.DeleteListing(ctx, stranger, l.ID), new(*apperror.NotOwnerError))

	require.NoError(t, f.uc.DeleteListing(ctx, owner, l.ID))
	require.NoError(t, f.uc.DeleteListing(ctx, owner, l.ID))

	history, err := f.listings.History(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	cat, _ := f.categories.FindByID(ctx, f.categoryID)
	assert.Equal(t, 0, cat.ListingCount)
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pending := f.createYacht(t)
	approved := f.createYacht(t)
	f.approve(t, approved.ID)
	deleted := f.createYacht(t)
	require.NoError(t, f.uc.DeleteListing(ctx, owner, deleted.ID))

	tests := []struct {
		name  string
		actor model.Actor
		id    string
		found bool
	}{
		{"public reads approved", public, approved.ID, true},
		{"public cannot read pending", public, pending.ID, false},
		{"stranger cannot read pending", stranger, pending.ID, false},
		{"owner reads pending", owner, pending.ID, true},
		{"owner cannot read deleted", owner, deleted.ID, false},
		{"admin reads deleted", admin, deleted.ID, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.GetListing(ctx, &dto.GetListingInput{Actor: tt.actor, ID: tt.id})
			if tt.found {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperror.IsNotFound(err), "got %v", err)
			}
		})
	}

	page, err := f.uc.ListByCategory(ctx, &dto.ListByCategoryInput{Actor: public, CategoryID: f.categoryID})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, approved.ID, page.Items[0].ID)

	page, err = f.uc.ListByOwner(ctx, &dto.ListByOwnerInput{Actor: owner})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = f.uc.ListByOwner(ctx, &dto.ListByOwnerInput{Actor: stranger, OwnerID: owner.UserID, Statuses: []model.ListingStatus{model.ListingPending}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	page, err = f.uc.ListByOwner(ctx, &dto.ListByOwnerInput{Actor: admin, OwnerID: owner.UserID})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	_, err = f.uc.ListByCategory(ctx, &dto.ListByCategoryInput{Actor: public, CategoryID: "nope"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestPublicViewsAreCounted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)
	f.approve(t, l.ID)

	_, err := f.uc.GetListing(ctx, &dto.GetListingInput{Actor: owner, ID: l.ID})
	require.NoError(t, err)
	_, err = f.uc.GetListing(ctx, &dto.GetListingInput{Actor: public, ID: l.ID})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return f.listings.Views(l.ID) == 1 }, time.Second, 10*time.Millisecond)
}

func TestPurgeIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.createYacht(t)

	assert.ErrorAs(t, f.uc.PurgeListing(ctx, owner, l.ID), new(*apperror.NotAuthorizedError))
	require.NoError(t, f.uc.PurgeListing(ctx, admin, l.ID))

	got, err := f.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, apperror.IsNotFound(f.uc.PurgeListing(ctx, admin, l.ID)))
}

func TestVerticalsAdvertisesEveryVertical(t *testing.T) {
	f := newFixture(t)

	infos := f.uc.Verticals()
	assert.Len(t, infos, 10)
	for _, info := range infos {
		assert.NotEmpty(t, info.Pricing)
	}
}
