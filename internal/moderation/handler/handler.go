package handler

import (
	"net/http"

	"github.com/fekuna/marine-listing-service/internal/auth"
	categorydto "github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/moderation"
	"github.com/fekuna/marine-listing-service/internal/pkg/httpx"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	uc     moderation.UseCase
	logger logger.ZapLogger
}

func NewModerationHandler(uc moderation.UseCase, log logger.ZapLogger) *ModerationHandler {
	return &ModerationHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ModerationHandler) Register(r gin.IRouter) {
	r.GET("/listings/:id/history", auth.RequireUser(), h.ListingHistory)

	admin := r.Group("/admin", auth.RequireAdmin())
	admin.GET("/listings/pending", h.PendingListings)
	admin.POST("/listings/:id/approve", h.ApproveListing)
	admin.POST("/listings/:id/reject", h.RejectListing)
	admin.POST("/listings/:id/remove", h.RemoveListing)
	admin.POST("/category-suggestions/:id/resolve", h.ResolveSuggestion)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type removeRequest struct {
	Reason *string `json:"reason"`
}

type resolveRequest struct {
	Outcome         model.SuggestionStatus `json:"outcome" binding:"required,oneof=APPROVED REJECTED MERGED"`
	RejectionReason string                 `json:"rejection_reason"`
	MergeTargetID   string                 `json:"merge_target_id"`
	Slug            string                 `json:"slug"`
}

func (h *ModerationHandler) ApproveListing(c *gin.Context) {
	l, err := h.uc.ApproveListing(c.Request.Context(), auth.GetActor(c), c.Param("id"))
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ModerationHandler) RejectListing(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	l, err := h.uc.RejectListing(c.Request.Context(), auth.GetActor(c), c.Param("id"), req.Reason)
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ModerationHandler) RemoveListing(c *gin.Context) {
	var req removeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, err)
			return
		}
	}
	l, err := h.uc.RemoveListing(c.Request.Context(), auth.GetActor(c), c.Param("id"), req.Reason)
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ModerationHandler) ListingHistory(c *gin.Context) {
	events, err := h.uc.ListingHistory(c.Request.Context(), auth.GetActor(c), c.Param("id"))
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *ModerationHandler) PendingListings(c *gin.Context) {
	page, size := httpx.Page(c)
	result, err := h.uc.PendingListings(c.Request.Context(), auth.GetActor(c), page, size)
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ModerationHandler) ResolveSuggestion(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	res, err := h.uc.ReviewSuggestion(c.Request.Context(), &categorydto.ResolveSuggestionInput{
		Actor:           auth.GetActor(c),
		SuggestionID:    c.Param("id"),
		Outcome:         req.Outcome,
		RejectionReason: req.RejectionReason,
		MergeTargetID:   req.MergeTargetID,
		Slug:            req.Slug,
	})
	if err != nil {
		httpx.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
