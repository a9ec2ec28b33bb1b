package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fekuna/marine-listing-service/internal/auth"
	"github.com/fekuna/marine-listing-service/internal/listing"
	"github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/httpx"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ListingHandler struct {
	uc     listing.UseCase
	logger logger.ZapLogger
}

func NewListingHandler(uc listing.UseCase, log logger.ZapLogger) *ListingHandler {
	return &ListingHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ListingHandler) Register(r gin.IRouter) {
	r.GET("/verticals", h.Verticals)

	r.GET("/listings/:id", h.GetListing)
	r.POST("/listings", auth.RequireUser(), h.CreateListing)
	r.PATCH("/listings/:id", auth.RequireUser(), h.UpdateListing)
	r.DELETE("/listings/:id", auth.RequireUser(), h.DeleteListing)
	r.DELETE("/admin/listings/:id", auth.RequireAdmin(), h.PurgeListing)

	r.GET("/categories/:id/listings", h.ListByCategory)
	r.GET("/users/:id/listings", h.ListByOwner)
	r.GET("/me/listings", auth.RequireUser(), h.ListMine)
}

type createListingRequest struct {
	Vertical    model.Vertical   `json:"vertical" binding:"required"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Currency    model.Currency   `json:"currency"`
	Location    string           `json:"location"`
	CategoryID  string           `json:"category_id"`
	Extension   json.RawMessage  `json:"extension"`
	Images      []string         `json:"images"`
}

type updateListingRequest struct {
	Vertical    *model.Vertical  `json:"vertical"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ClearPrice  bool             `json:"clear_price"`
	Currency    *model.Currency  `json:"currency"`
	Location    *string          `json:"location"`
	CategoryID  *string          `json:"category_id"`
	Extension   json.RawMessage  `json:"extension"`
}

func (h *ListingHandler) Verticals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"verticals": h.uc.Verticals()})
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	l, err := h.uc.CreateListing(c.Request.Context(), &dto.CreateListingInput{
		Actor:       auth.GetActor(c),
		Vertical:    req.Vertical,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Location:    req.Location,
		CategoryID:  req.CategoryID,
		Extension:   req.Extension,
		Images:      req.Images,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *ListingHandler) GetListing(c *gin.Context) {
	l, err := h.uc.GetListing(c.Request.Context(), &dto.GetListingInput{
		Actor:            auth.GetActor(c),
		ID:               c.Param("id"),
		IncludeExtension: c.DefaultQuery("include_extension", "true") != "false",
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	l, err := h.uc.UpdateListing(c.Request.Context(), &dto.UpdateListingInput{
		Actor:       auth.GetActor(c),
		ID:          c.Param("id"),
		Vertical:    req.Vertical,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ClearPrice:  req.ClearPrice,
		Currency:    req.Currency,
		Location:    req.Location,
		CategoryID:  req.CategoryID,
		Extension:   req.Extension,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
	if err := h.uc.DeleteListing(c.Request.Context(), auth.GetActor(c), c.Param("id")); err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ListingHandler) PurgeListing(c *gin.Context) {
	if err := h.uc.PurgeListing(c.Request.Context(), auth.GetActor(c), c.Param("id")); err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ListingHandler) ListByCategory(c *gin.Context) {
	page, size := httpx.Page(c)
	result, err := h.uc.ListByCategory(c.Request.Context(), &dto.ListByCategoryInput{
		Actor:      auth.GetActor(c),
		CategoryID: c.Param("id"),
		Statuses:   statuses(c),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ListingHandler) ListByOwner(c *gin.Context) {
	h.listOwned(c, c.Param("id"))
}

func (h *ListingHandler) ListMine(c *gin.Context) {
	h.listOwned(c, auth.GetActor(c).UserID)
}

func (h *ListingHandler) listOwned(c *gin.Context, ownerID string) {
	page, size := httpx.Page(c)
	result, err := h.uc.ListByOwner(c.Request.Context(), &dto.ListByOwnerInput{
		Actor:    auth.GetActor(c),
		OwnerID:  ownerID,
		Statuses: statuses(c),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func statuses(c *gin.Context) []model.ListingStatus {
	raw := httpx.QueryList(c, "status")
	out := make([]model.ListingStatus, len(raw))
	for i, s := range raw {
		out[i] = model.ListingStatus(s)
	}
	return out
}
