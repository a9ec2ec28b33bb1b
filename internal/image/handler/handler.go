package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/fekuna/marine-listing-service/internal/auth"
	"github.com/fekuna/marine-listing-service/internal/image"
	"github.com/fekuna/marine-listing-service/internal/image/dto"
	"github.com/fekuna/marine-listing-service/internal/pkg/httpx"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	maxFileSize   = 10 << 20
	maxUploadSize = 16 * maxFileSize
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type ImageHandler struct {
	uc     image.UseCase
	logger logger.ZapLogger
}

func NewImageHandler(uc image.UseCase, log logger.ZapLogger) *ImageHandler {
	return &ImageHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the image routes. The multipart upload route only exists when binary storage
// is configured.
func (h *ImageHandler) Register(r gin.IRouter, withUpload bool) {
	r.GET("/listings/:id/images", h.ListImages)
	r.POST("/listings/:id/images", auth.RequireUser(), h.AttachImages)
	r.PUT("/listings/:id/images/order", auth.RequireUser(), h.ReorderImages)
	r.DELETE("/listings/:id/images/:imageId", auth.RequireUser(), h.RemoveImage)
	if withUpload {
		r.POST("/listings/:id/images/upload", auth.RequireUser(), h.UploadImages)
	}
}

type attachRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

type reorderRequest struct {
	Order []string `json:"order" binding:"required"`
}

func (h *ImageHandler) ListImages(c *gin.Context) {
	images, err := h.uc.ListImages(c.Request.Context(), auth.GetActor(c), c.Param("id"))
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h *ImageHandler) AttachImages(c *gin.Context) {
	var req attachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	images, err := h.uc.AttachImages(c.Request.Context(), &dto.AttachImagesInput{
		Actor:     auth.GetActor(c),
		ListingID: c.Param("id"),
		URLs:      req.URLs,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"images": images})
}

func (h *ImageHandler) UploadImages(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		httpx.BadRequest(c, fmt.Errorf("no files provided or upload too large"))
		return
	}

	headers := form.File["images"]
	files := make([]dto.File, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range headers {
		if fh.Size > maxFileSize {
			httpx.BadRequest(c, fmt.Errorf("%s is larger than 10MB", fh.Filename))
			return
		}
		f, err := fh.Open()
		if err != nil {
			httpx.BadRequest(c, fmt.Errorf("cannot read %s", fh.Filename))
			return
		}
		opened = append(opened, f)

		// sniff the real type from the first 512 bytes, then rewind for the upload
		buffer := make([]byte, 512)
		n, err := f.Read(buffer)
		if err != nil && err != io.EOF {
			httpx.BadRequest(c, fmt.Errorf("cannot read %s", fh.Filename))
			return
		}
		if !allowedTypes[http.DetectContentType(buffer[:n])] {
			httpx.BadRequest(c, fmt.Errorf("%s: unsupported file type, use JPG, PNG, WEBP or GIF", fh.Filename))
			return
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			httpx.BadRequest(c, fmt.Errorf("cannot read %s", fh.Filename))
			return
		}
		files = append(files, dto.File{Name: fh.Filename, Reader: f})
	}

	images, err := h.uc.UploadImages(c.Request.Context(), &dto.UploadImagesInput{
		Actor:     auth.GetActor(c),
		ListingID: c.Param("id"),
		Files:     files,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"images": images})
}

func (h *ImageHandler) ReorderImages(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	err := h.uc.ReorderImages(c.Request.Context(), &dto.ReorderImagesInput{
		Actor:     auth.GetActor(c),
		ListingID: c.Param("id"),
		Order:     req.Order,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ImageHandler) RemoveImage(c *gin.Context) {
	if err := h.uc.RemoveImage(c.Request.Context(), auth.GetActor(c), c.Param("id"), c.Param("imageId")); err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
