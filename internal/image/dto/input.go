package dto

import (
	"io"

	"github.com/fekuna/marine-listing-service/internal/model"
)

type AttachImagesInput struct {
	Actor     model.Actor
	ListingID string
	URLs      []string
}

type File struct {
	Name   string
	Reader io.Reader
}

type UploadImagesInput struct {
	Actor     model.Actor
	ListingID string
	Files     []File
}

type ReorderImagesInput struct {
	Actor     model.Actor
	ListingID string
	Order     []string // Image ids in their new display order
}
