package model

import "time"

type Category struct {
	BaseModel
	ParentID     *string    `db:"parent_id" json:"parent_id"` // Nullable, nil means root
	Name         string     `db:"name" json:"name"`
	Slug         string     `db:"slug" json:"slug"`
	Description  *string    `db:"description" json:"description,omitempty"`
	IconURL      *string    `db:"icon_url" json:"icon_url,omitempty"`
	ListingCount int        `db:"listing_count" json:"listing_count"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	Children     []Category `db:"-" json:"children,omitempty"`
}

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "PENDING"
	SuggestionApproved SuggestionStatus = "APPROVED"
	SuggestionRejected SuggestionStatus = "REJECTED"
	SuggestionMerged   SuggestionStatus = "MERGED"
)

func (s SuggestionStatus) Valid() bool {
	switch s {
	case SuggestionPending, SuggestionApproved, SuggestionRejected, SuggestionMerged:
		return true
	}
	return false
}

// CanTransitionTo encodes the suggestion state machine: PENDING is the only non-terminal state.
func (s SuggestionStatus) CanTransitionTo(to SuggestionStatus) bool {
	return s == SuggestionPending && to != SuggestionPending && to.Valid()
}

type CategorySuggestion struct {
	ID                string           `db:"id" json:"id"`
	UserID            string           `db:"user_id" json:"user_id"`
	Name              string           `db:"name" json:"name"`
	Description       *string          `db:"description" json:"description,omitempty"`
	ParentID          *string          `db:"parent_id" json:"parent_id"`
	Reason            *string          `db:"reason" json:"reason,omitempty"`
	Status            SuggestionStatus `db:"status" json:"status"`
	RejectionReason   *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	MergedIntoID      *string          `db:"merged_into_id" json:"merged_into_id,omitempty"`
	CreatedCategoryID *string          `db:"created_category_id" json:"created_category_id,omitempty"`
	ReviewedBy        *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	ReviewedAt        *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
}
