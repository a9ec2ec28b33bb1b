package dto

import "github.com/fekuna/marine-listing-service/internal/model"

type CategoryFilters struct {
	ParentID        *string // Nil means ignore, Empty string means root categories
	IncludeInactive bool
}

type TreeInput struct {
	RootID          string // Empty means the whole forest
	IncludeInactive bool
}

type SuggestionFilters struct {
	Status   model.SuggestionStatus // Empty means any
	Page     int
	PageSize int
}

// TreeNode is the nested wire shape of a category subtree.
type TreeNode struct {
	ID           string     `json:"id"`
	ParentID     *string    `json:"parent_id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description,omitempty"`
	IconURL      *string    `json:"icon_url,omitempty"`
	ListingCount int        `json:"listing_count"`
	IsActive     bool       `json:"is_active"`
	Children     []TreeNode `json:"children,omitempty"`
}

type SuggestionPage struct {
	Items    []model.CategorySuggestion `json:"items"`
	Total    int                        `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
}
