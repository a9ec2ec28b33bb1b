package indexer

import (
	"context"
	"time"

	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/search"
	"github.com/shopspring/decimal"
)

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "owner_id":    {"type": "keyword"},
      "vertical":    {"type": "keyword"},
      "category_id": {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "location":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "price":       {"type": "scaled_float", "scaling_factor": 100},
      "currency":    {"type": "keyword"},
      "extension":   {"type": "object", "dynamic": true},
      "cover_url":   {"type": "keyword", "index": false},
      "created_at":  {"type": "date"},
      "updated_at":  {"type": "date"}
    }
  }
}`

// Document is the search-side projection of an APPROVED listing.
type Document struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	Vertical    model.Vertical   `json:"vertical"`
	CategoryID  string           `json:"category_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Currency    model.Currency   `json:"currency"`
	Extension   model.Extension  `json:"extension,omitempty"`
	CoverURL    string           `json:"cover_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ElasticIndexer struct {
	client *search.Client
	index  string
}

func NewElasticIndexer(client *search.Client, index string) *ElasticIndexer {
	return &ElasticIndexer{client: client, index: index}
}

func (i *ElasticIndexer) EnsureIndex(ctx context.Context) error {
	return i.client.CreateIndex(ctx, i.index, mapping)
}

// Sync indexes an APPROVED listing and removes anything else from the index.
func (i *ElasticIndexer) Sync(ctx context.Context, l *model.Listing) error {
	if l.Status != model.ListingApproved {
		return i.Remove(ctx, l.ID)
	}
	return i.client.Index(ctx, i.index, l.ID, NewDocument(l))
}

func (i *ElasticIndexer) Remove(ctx context.Context, id string) error {
	return i.client.Delete(ctx, i.index, id)
}

func NewDocument(l *model.Listing) *Document {
	doc := &Document{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Vertical:    l.Vertical,
		CategoryID:  l.CategoryID,
		Title:       l.Title,
		Description: l.Description,
		Location:    l.Location,
		Price:       l.Price,
		Currency:    l.Currency,
		Extension:   l.Extension,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if len(l.Images) > 0 {
		doc.CoverURL = l.Images[0].URL
	}
	return doc
}
