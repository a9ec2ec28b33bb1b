package image

import (
	"errors"
	"testing"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestValidateOrder(t *testing.T) {
	current := []model.ListingImage{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		name    string
		order   []string
		wantErr bool
	}{
		{"permutation", []string{"c", "a", "b"}, false},
		{"same order", []string{"a", "b", "c"}, false},
		{"missing image", []string{"a", "b"}, true},
		{"extra image", []string{"a", "b", "c", "d"}, true},
		{"unknown image", []string{"a", "b", "x"}, true},
		{"duplicate image", []string{"a", "a", "b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrder(current, tt.order)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ioe *apperror.IncompleteOrderError
			assert.True(t, errors.As(err, &ioe), "got %v", err)
			assert.Equal(t, 3, ioe.Expected)
		})
	}

	assert.NoError(t, ValidateOrder(nil, nil))
}
