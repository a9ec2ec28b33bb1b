package image

import (
	"fmt"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/model"
)

// ValidateOrder checks that order lists every current image exactly once.
func ValidateOrder(current []model.ListingImage, order []string) error {
	if len(order) != len(current) {
		return &apperror.IncompleteOrderError{Expected: len(current), Got: len(order), Reason: "image count differs"}
	}
	known := make(map[string]bool, len(current))
	for _, img := range current {
		known[img.ID] = false
	}
	for _, id := range order {
		seen, ok := known[id]
		if !ok {
			return &apperror.IncompleteOrderError{Expected: len(current), Got: len(order), Reason: fmt.Sprintf("unknown image %q", id)}
		}
		if seen {
			return &apperror.IncompleteOrderError{Expected: len(current), Got: len(order), Reason: fmt.Sprintf("image %q listed twice", id)}
		}
		known[id] = true
	}
	return nil
}
