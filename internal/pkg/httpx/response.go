package httpx

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorBody struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Field      string `json:"field,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Accepted   *int   `json:"accepted,omitempty"`
}

func ErrorResponse(code, msg string) ErrorBody {
	return ErrorBody{Error: msg, Code: code}
}

// StatusFor maps an application error to its HTTP status and response body.
// Unknown errors become a generic 500 without internal detail.
func StatusFor(err error) (int, ErrorBody) {
	var (
		validation   *apperror.ValidationError
		notFound     *apperror.NotFoundError
		notOwner     *apperror.NotOwnerError
		notAuth      *apperror.NotAuthorizedError
		dupSlug      *apperror.DuplicateSlugError
		resolved     *apperror.AlreadyResolvedError
		transition   *apperror.InvalidTransitionError
		tooMany      *apperror.TooManyImagesError
		incomplete   *apperror.IncompleteOrderError
		transientErr *apperror.TransientStorageError
	)

	switch {
	case errors.As(err, &validation):
		body := ErrorResponse("validation_failed", validation.Error())
		body.Field = validation.Field
		body.Constraint = validation.Constraint
		return http.StatusBadRequest, body
	case errors.As(err, &tooMany):
		body := ErrorResponse("too_many_images", tooMany.Error())
		body.Accepted = &tooMany.Accepted
		return http.StatusBadRequest, body
	case errors.As(err, &incomplete):
		return http.StatusBadRequest, ErrorResponse("incomplete_order", incomplete.Error())
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse("not_found", notFound.Error())
	case errors.As(err, &notOwner):
		return http.StatusForbidden, ErrorResponse("not_owner", "only the listing owner may do this")
	case errors.As(err, &notAuth):
		return http.StatusForbidden, ErrorResponse("not_authorized", notAuth.Error())
	case errors.As(err, &dupSlug):
		return http.StatusConflict, ErrorResponse("duplicate_slug", dupSlug.Error())
	case errors.As(err, &resolved):
		return http.StatusConflict, ErrorResponse("already_resolved", resolved.Error())
	case errors.As(err, &transition):
		return http.StatusConflict, ErrorResponse("invalid_transition", transition.Error())
	case errors.As(err, &transientErr):
		return http.StatusServiceUnavailable, ErrorResponse("try_again", "temporary failure, please try again")
	}
	return http.StatusInternalServerError, ErrorResponse("internal", "internal server error")
}

// AbortWithError writes the mapped error response. Server-side failures are logged.
func AbortWithError(c *gin.Context, log logger.ZapLogger, err error) {
	status, body := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest reports a malformed request body or query.
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse("bad_request", err.Error()))
}

// Page reads the page and page_size query parameters. Missing or malformed values become zero
// and are defaulted by the usecase.
func Page(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page"))
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	return page, pageSize
}

// QueryList reads a repeatable, comma separated query parameter.
func QueryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
