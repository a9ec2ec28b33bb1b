package handler

import (
	"net/http"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/auth"
	"github.com/fekuna/marine-listing-service/internal/category"
	"github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/httpx"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the category routes. suggestLimit, when set, guards suggestion submission.
func (h *CategoryHandler) Register(r gin.IRouter, suggestLimit gin.HandlerFunc) {
	r.GET("/categories", h.GetTree)
	r.GET("/categories/:id", h.GetCategory)

	suggest := []gin.HandlerFunc{auth.RequireUser()}
	if suggestLimit != nil {
		suggest = append(suggest, suggestLimit)
	}
	r.POST("/category-suggestions", append(suggest, h.SuggestCategory)...)

	admin := r.Group("/admin", auth.RequireAdmin())
	admin.POST("/categories", h.CreateCategory)
	admin.PATCH("/categories/:id", h.UpdateCategory)
	admin.POST("/categories/:id/disable", h.DisableCategory)
	admin.POST("/categories/:id/merge", h.MergeCategory)
	admin.GET("/category-suggestions", h.ListSuggestions)
}

type createCategoryRequest struct {
	ParentID    *string `json:"parent_id"`
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	IconURL     *string `json:"icon_url"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IconURL     *string `json:"icon_url"`
	MoveParent  bool    `json:"move_parent"`
	ParentID    *string `json:"parent_id"`
}

type mergeCategoryRequest struct {
	TargetID string `json:"target_id" binding:"required"`
}

type suggestCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	ParentID    *string `json:"parent_id"`
	Description *string `json:"description"`
	Reason      *string `json:"reason"`
}

// flatNode is one entry of the pre-order tree listing.
type flatNode struct {
	Depth    int            `json:"depth"`
	Category model.Category `json:"category"`
}

func (h *CategoryHandler) GetTree(c *gin.Context) {
	actor := auth.GetActor(c)
	tree, err := h.uc.GetTree(c.Request.Context(), &dto.TreeInput{
		RootID:          c.Query("root_id"),
		IncludeInactive: actor.IsAdmin && c.Query("include_inactive") == "true",
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}

	if c.Query("flat") == "true" {
		nodes := []flatNode{}
		for depth, cat := range tree.Walk() {
			nodes = append(nodes, flatNode{Depth: depth, Category: cat})
		}
		c.JSON(http.StatusOK, gin.H{"categories": nodes})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree.Nested()})
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	cat, err := h.uc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	if !cat.IsActive && !auth.GetActor(c).IsAdmin {
		httpx.AbortWithError(c, h.logger, apperror.NotFound("category", cat.ID))
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	input := &dto.CreateCategoryInput{
		Actor:       auth.GetActor(c),
		ParentID:    req.ParentID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		IconURL:     req.IconURL,
	}

	var (
		cat *model.Category
		err error
	)
	if req.ParentID != nil && *req.ParentID != "" {
		cat, err = h.uc.CreateChildCategory(c.Request.Context(), input)
	} else {
		cat, err = h.uc.CreateRootCategory(c.Request.Context(), input)
	}
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	cat, err := h.uc.UpdateCategory(c.Request.Context(), &dto.UpdateCategoryInput{
		Actor:       auth.GetActor(c),
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		MoveParent:  req.MoveParent,
		ParentID:    req.ParentID,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) DisableCategory(c *gin.Context) {
	cat, err := h.uc.DisableCategory(c.Request.Context(), auth.GetActor(c), c.Param("id"))
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) MergeCategory(c *gin.Context) {
	var req mergeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	cat, err := h.uc.MergeCategory(c.Request.Context(), &dto.MergeCategoryInput{
		Actor:    auth.GetActor(c),
		SourceID: c.Param("id"),
		TargetID: req.TargetID,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) SuggestCategory(c *gin.Context) {
	var req suggestCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	s, err := h.uc.SuggestCategory(c.Request.Context(), &dto.SuggestCategoryInput{
		UserID:      auth.GetActor(c).UserID,
		Name:        req.Name,
		ParentID:    req.ParentID,
		Description: req.Description,
		Reason:      req.Reason,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *CategoryHandler) ListSuggestions(c *gin.Context) {
	page, size := httpx.Page(c)
	result, err := h.uc.ListSuggestions(c.Request.Context(), auth.GetActor(c), &dto.SuggestionFilters{
		Status:   model.SuggestionStatus(c.Query("status")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
