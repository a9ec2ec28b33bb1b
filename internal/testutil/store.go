// Package testutil holds in-memory stand-ins for the postgres repositories and the outbound
// collaborators, shared by the usecase tests.
package testutil

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	categorydto "github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/image"
	listingdto "github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/google/uuid"
)

// CategoryStore implements category.Repository over maps, enforcing the same slug uniqueness
// and suggestion compare-and-set the postgres schema does.
type CategoryStore struct {
	mu          sync.Mutex
	categories  map[string]model.Category
	suggestions map[string]model.CategorySuggestion
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{
		categories:  map[string]model.Category{},
		suggestions: map[string]model.CategorySuggestion{},
	}
}

func (s *CategoryStore) Create(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(c)
}

func (s *CategoryStore) insert(c *model.Category) error {
	for _, existing := range s.categories {
		if existing.Slug == c.Slug {
			return &apperror.DuplicateSlugError{Slug: c.Slug}
		}
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *CategoryStore) FindByID(_ context.Context, id string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *CategoryStore) FindAll(_ context.Context, f *categorydto.CategoryFilters) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Category
	for _, c := range s.categories {
		if !f.IncludeInactive && !c.IsActive {
			continue
		}
		if f.ParentID != nil {
			if *f.ParentID == "" && c.ParentID != nil {
				continue
			}
			if *f.ParentID != "" && (c.ParentID == nil || *c.ParentID != *f.ParentID) {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CategoryStore) Update(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.categories[c.ID]
	if !ok {
		return apperror.NotFound("category", c.ID)
	}
	c.ListingCount = current.ListingCount
	s.categories[c.ID] = *c
	return nil
}

func (s *CategoryStore) CountActiveChildren(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.categories {
		if c.IsActive && c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

// Merge moves child categories and the listing count. Listings held in a ListingStore are not
// re-pointed; tests that need that wire it through the ListingStore directly.
func (s *CategoryStore) Merge(_ context.Context, sourceID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	source, ok := s.categories[sourceID]
	if !ok {
		return apperror.NotFound("category", sourceID)
	}
	target, ok := s.categories[targetID]
	if !ok {
		return apperror.NotFound("category", targetID)
	}
	for id, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == sourceID {
			c.ParentID = &target.ID
			s.categories[id] = c
		}
	}
	target.ListingCount += source.ListingCount
	source.ListingCount = 0
	source.IsActive = false
	s.categories[targetID] = target
	s.categories[sourceID] = source
	return nil
}

func (s *CategoryStore) CreateSuggestion(_ context.Context, sg *model.CategorySuggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions[sg.ID] = *sg
	return nil
}

func (s *CategoryStore) FindSuggestionByID(_ context.Context, id string) (*model.CategorySuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.suggestions[id]
	if !ok {
		return nil, nil
	}
	return &sg, nil
}

func (s *CategoryStore) FindSuggestions(_ context.Context, f *categorydto.SuggestionFilters) ([]model.CategorySuggestion, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.CategorySuggestion
	for _, sg := range s.suggestions {
		if f.Status == "" || sg.Status == f.Status {
			all = append(all, sg)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginate(all, f.Page, f.PageSize), len(all), nil
}

func (s *CategoryStore) ResolveSuggestion(_ context.Context, sg *model.CategorySuggestion, created *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.suggestions[sg.ID]
	if !ok {
		return apperror.NotFound("category suggestion", sg.ID)
	}
	if current.Status != model.SuggestionPending {
		return &apperror.AlreadyResolvedError{SuggestionID: sg.ID, Status: string(current.Status)}
	}
	if created != nil {
		if err := s.insert(created); err != nil {
			return err
		}
	}
	s.suggestions[sg.ID] = *sg
	return nil
}

// Categories returns a snapshot of every stored category.
func (s *CategoryStore) Categories() []model.Category {
	out, _ := s.FindAll(context.Background(), &categorydto.CategoryFilters{IncludeInactive: true})
	return out
}

func (s *CategoryStore) adjustCount(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[id]; ok {
		c.ListingCount += delta
		s.categories[id] = c
	}
}

// ListingStore implements listing.Repository and image.Repository over maps. Status writes use
// the same compare-and-set as the postgres repository.
type ListingStore struct {
	// CreateErr and AppendErr make the matching write fail without persisting anything.
	CreateErr error
	AppendErr error

	mu         sync.Mutex
	listings   map[string]*model.Listing
	events     map[string][]model.StatusEvent
	categories *CategoryStore
	views      map[string]int
}

var _ image.Repository = (*ListingStore)(nil)

// NewListingStore keeps categories' listing counts in step when categories is non-nil.
func NewListingStore(categories *CategoryStore) *ListingStore {
	return &ListingStore{
		listings:   map[string]*model.Listing{},
		events:     map[string][]model.StatusEvent{},
		categories: categories,
		views:      map[string]int{},
	}
}

func (s *ListingStore) Create(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.listings[l.ID] = cloneListing(l)
	s.count(l.CategoryID, 1)
	return nil
}

func (s *ListingStore) FindByID(_ context.Context, id string) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	return cloneListing(l), nil
}

func (s *ListingStore) FindAll(_ context.Context, f *listingdto.ListingFilters) ([]model.Listing, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Listing
	for _, l := range s.listings {
		if f.CategoryID != "" && l.CategoryID != f.CategoryID {
			continue
		}
		if f.OwnerID != "" && l.OwnerID != f.OwnerID {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, l.Status) {
			continue
		}
		if f.ViewerID != "" && l.Status != model.ListingApproved && l.OwnerID != f.ViewerID {
			continue
		}
		c := cloneListing(l)
		c.Extension = nil
		c.Images = nil
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, f.Page, f.PageSize), len(all), nil
}

func (s *ListingStore) Update(_ context.Context, l *model.Listing, prevCategoryID string, change *model.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.listings[l.ID]
	if !ok {
		return apperror.NotFound("listing", l.ID)
	}
	expected := l.Status
	if change != nil {
		expected = change.From
	}
	if current.Status != expected {
		return &apperror.InvalidTransitionError{Entity: "listing", ID: l.ID, From: string(current.Status), To: string(l.Status)}
	}

	next := cloneListing(l)
	next.Images = current.Images
	next.ViewCount = current.ViewCount
	s.listings[l.ID] = next
	if prevCategoryID != l.CategoryID {
		s.count(prevCategoryID, -1)
		s.count(l.CategoryID, 1)
	}
	if change != nil {
		s.events[l.ID] = append(s.events[l.ID], *change.Event(uuid.New().String()))
	}
	return nil
}

func (s *ListingStore) Transition(_ context.Context, change *model.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.listings[change.ListingID]
	if !ok {
		return apperror.NotFound("listing", change.ListingID)
	}
	if current.Status != change.From {
		return &apperror.InvalidTransitionError{Entity: "listing", ID: change.ListingID, From: string(current.Status), To: string(change.To)}
	}

	current.Status = change.To
	current.UpdatedAt = change.At
	switch change.To {
	case model.ListingRejected:
		current.RejectionReason = change.Reason
	case model.ListingDeleted:
		s.count(current.CategoryID, -1)
	default:
		current.RejectionReason = nil
	}
	s.events[change.ListingID] = append(s.events[change.ListingID], *change.Event(uuid.New().String()))
	return nil
}

func (s *ListingStore) History(_ context.Context, listingID string) ([]model.StatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StatusEvent(nil), s.events[listingID]...), nil
}

func (s *ListingStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.listings[id]; ok && l.Status == model.ListingApproved {
		l.ViewCount++
		s.views[id]++
	}
	return nil
}

func (s *ListingStore) Purge(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return apperror.NotFound("listing", id)
	}
	if l.Status != model.ListingDeleted {
		s.count(l.CategoryID, -1)
	}
	delete(s.listings, id)
	delete(s.events, id)
	return nil
}

func (s *ListingStore) FindByListing(_ context.Context, listingID string) ([]model.ListingImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, nil
	}
	return append([]model.ListingImage(nil), l.Images...), nil
}

func (s *ListingStore) Append(_ context.Context, listingID string, images []model.ListingImage, limit int, change *model.StatusChange) ([]model.ListingImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, apperror.NotFound("listing", listingID)
	}
	if s.AppendErr != nil {
		return nil, s.AppendErr
	}
	room := limit - len(l.Images)
	if room <= 0 || len(images) == 0 {
		return []model.ListingImage{}, nil
	}
	if len(images) > room {
		images = images[:room]
	}
	if change != nil {
		if l.Status != change.From {
			return nil, &apperror.InvalidTransitionError{Entity: "listing", ID: listingID, From: string(l.Status), To: string(change.To)}
		}
		l.Status = change.To
		l.RejectionReason = nil
		l.UpdatedAt = change.At
		s.events[listingID] = append(s.events[listingID], *change.Event(uuid.New().String()))
	}
	persisted := make([]model.ListingImage, len(images))
	for i, img := range images {
		img.ListingID = listingID
		img.Position = len(l.Images)
		l.Images = append(l.Images, img)
		persisted[i] = img
	}
	return persisted, nil
}

func (s *ListingStore) Reorder(_ context.Context, listingID string, order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return apperror.NotFound("listing", listingID)
	}
	if err := image.ValidateOrder(l.Images, order); err != nil {
		return err
	}
	byID := make(map[string]model.ListingImage, len(l.Images))
	for _, img := range l.Images {
		byID[img.ID] = img
	}
	reordered := make([]model.ListingImage, len(order))
	for i, id := range order {
		img := byID[id]
		img.Position = i
		reordered[i] = img
	}
	l.Images = reordered
	return nil
}

func (s *ListingStore) Remove(_ context.Context, listingID, imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return apperror.NotFound("listing", listingID)
	}
	kept := l.Images[:0:0]
	found := false
	for _, img := range l.Images {
		if img.ID == imageID {
			found = true
			continue
		}
		img.Position = len(kept)
		kept = append(kept, img)
	}
	if !found {
		return apperror.NotFound("image", imageID)
	}
	l.Images = kept
	return nil
}

// Views reports how many views were counted for id.
func (s *ListingStore) Views(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[id]
}

// SetStatus forces a status without an audit event, for arranging fixtures.
func (s *ListingStore) SetStatus(id string, status model.ListingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.listings[id]; ok {
		l.Status = status
		l.UpdatedAt = time.Now()
	}
}

func (s *ListingStore) count(categoryID string, delta int) {
	if s.categories != nil && categoryID != "" {
		s.categories.adjustCount(categoryID, delta)
	}
}

func hasStatus(set []model.ListingStatus, s model.ListingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func cloneListing(l *model.Listing) *model.Listing {
	c := *l
	c.Images = append([]model.ListingImage(nil), l.Images...)
	if l.Extension != nil {
		v := reflect.ValueOf(l.Extension).Elem()
		cp := reflect.New(v.Type())
		cp.Elem().Set(v)
		c.Extension = cp.Interface().(model.Extension)
	}
	return &c
}

func paginate[T any](items []T, page, size int) []T {
	if size <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
