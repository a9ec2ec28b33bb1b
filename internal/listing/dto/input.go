package dto

import (
	"encoding/json"

	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateListingInput struct {
	Actor       model.Actor
	Vertical    model.Vertical
	Title       string
	Description string
	Price       *decimal.Decimal
	Currency    model.Currency
	Location    string
	CategoryID  string
	Extension   json.RawMessage
	Images      []string
}

// UpdateListingInput is a patch: nil fields are left unchanged.
type UpdateListingInput struct {
	Actor       model.Actor
	ID          string
	Vertical    *model.Vertical // Only accepted when equal to the current vertical
	Title       *string
	Description *string
	Price       *decimal.Decimal
	ClearPrice  bool
	Currency    *model.Currency
	Location    *string
	CategoryID  *string
	Extension   json.RawMessage // Full replacement of the extension record
}

type GetListingInput struct {
	Actor            model.Actor
	ID               string
	IncludeExtension bool
}

type ListByCategoryInput struct {
	Actor      model.Actor
	CategoryID string
	Statuses   []model.ListingStatus
	Page       int
	PageSize   int
}

type ListByOwnerInput struct {
	Actor    model.Actor
	OwnerID  string
	Statuses []model.ListingStatus
	Page     int
	PageSize int
}
