package httpx

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		wantBody func(t *testing.T, b ErrorBody)
	}{
		{
			name:   "validation carries field",
			err:    apperror.Validation("title", "is required"),
			status: http.StatusBadRequest,
			code:   "validation_failed",
			wantBody: func(t *testing.T, b ErrorBody) {
				assert.Equal(t, "title", b.Field)
				assert.Equal(t, "is required", b.Constraint)
			},
		},
		{
			name:   "wrapped not found",
			err:    fmt.Errorf("get listing: %w", apperror.NotFound("listing", "l-1")),
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{name: "missing parent", err: &apperror.ParentNotFoundError{ParentID: "c-9"}, status: http.StatusNotFound, code: "not_found"},
		{name: "not owner", err: &apperror.NotOwnerError{ListingID: "l", UserID: "u"}, status: http.StatusForbidden, code: "not_owner"},
		{name: "not admin", err: &apperror.NotAuthorizedError{Action: "approve listing"}, status: http.StatusForbidden, code: "not_authorized"},
		{name: "duplicate slug", err: &apperror.DuplicateSlugError{Slug: "yacht-parts"}, status: http.StatusConflict, code: "duplicate_slug"},
		{
			name:   "already resolved wins over its transition cause",
			err:    &apperror.AlreadyResolvedError{SuggestionID: "s", Status: "REJECTED"},
			status: http.StatusConflict,
			code:   "already_resolved",
		},
		{name: "transition", err: &apperror.InvalidTransitionError{Entity: "listing", From: "DELETED", To: "APPROVED"}, status: http.StatusConflict, code: "invalid_transition"},
		{
			name:   "too many images reports accepted",
			err:    &apperror.TooManyImagesError{Limit: 15, Requested: 16, Accepted: 15},
			status: http.StatusBadRequest,
			code:   "too_many_images",
			wantBody: func(t *testing.T, b ErrorBody) {
				if assert.NotNil(t, b.Accepted) {
					assert.Equal(t, 15, *b.Accepted)
				}
			},
		},
		{name: "incomplete order", err: &apperror.IncompleteOrderError{Expected: 3, Got: 2}, status: http.StatusBadRequest, code: "incomplete_order"},
		{
			name:   "transient hides detail",
			err:    &apperror.TransientStorageError{Op: "insert listing", Err: driver.ErrBadConn},
			status: http.StatusServiceUnavailable,
			code:   "try_again",
			wantBody: func(t *testing.T, b ErrorBody) {
				assert.NotContains(t, b.Error, "insert listing")
			},
		},
		{name: "unknown", err: errors.New("pq: relation does not exist"), status: http.StatusInternalServerError, code: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			if tt.wantBody != nil {
				tt.wantBody(t, body)
			}
		})
	}
}
