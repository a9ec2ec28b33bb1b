package dto

import "github.com/fekuna/marine-listing-service/internal/model"

type ListingFilters struct {
	CategoryID string
	OwnerID    string
	Statuses   []model.ListingStatus // Empty means any status
	// ViewerID restricts non-APPROVED rows to those owned by the viewer.
	ViewerID string
	Page     int
	PageSize int
}

type ListingPage struct {
	Items    []model.Listing `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// VerticalInfo describes one vertical to clients building listing forms.
type VerticalInfo struct {
	Vertical model.Vertical `json:"vertical"`
	Pricing  string         `json:"pricing_model"`
	Required []string       `json:"required_fields"`
}
