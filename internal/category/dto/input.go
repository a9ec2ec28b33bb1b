package dto

import "github.com/fekuna/marine-listing-service/internal/model"

type CreateCategoryInput struct {
	Actor       model.Actor
	ParentID    *string // Nil creates a root
	Name        string
	Slug        string // Derived from Name when empty
	Description *string
	IconURL     *string
}

type UpdateCategoryInput struct {
	Actor       model.Actor
	ID          string
	Name        *string
	Description *string
	IconURL     *string
	// MoveParent set means ParentID is applied; a nil ParentID then moves the category to root.
	MoveParent bool
	ParentID   *string
}

type MergeCategoryInput struct {
	Actor    model.Actor
	SourceID string
	TargetID string
}

type SuggestCategoryInput struct {
	UserID      string
	Name        string
	ParentID    *string
	Description *string
	Reason      *string
}

type ResolveSuggestionInput struct {
	Actor           model.Actor
	SuggestionID    string
	Outcome         model.SuggestionStatus
	RejectionReason string
	MergeTargetID   string
	Slug            string // Optional override for APPROVED; derived from the proposed name otherwise
}

// Resolution is the outcome of resolving a suggestion: the resolved suggestion and, for APPROVED
// and MERGED, the category it now points at.
type Resolution struct {
	Suggestion *model.CategorySuggestion `json:"suggestion"`
	Category   *model.Category           `json:"category,omitempty"`
}
