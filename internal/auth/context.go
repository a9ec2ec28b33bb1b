package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/httpx"
	"github.com/gin-gonic/gin"
)

// Identity is authenticated upstream (gateway or session service). This service only trusts
// the forwarded headers.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"

	RoleAdmin = "admin"

	actorKey = "actor"
)

type ctxKey struct{}

// Middleware reads the forwarded identity into the request. Missing headers mean an anonymous reader.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.Actor{
			UserID:  strings.TrimSpace(c.GetHeader(HeaderUserID)),
			IsAdmin: strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderRole)), RoleAdmin),
		}
		if actor.UserID == "" {
			actor.IsAdmin = false
		}
		c.Set(actorKey, actor)
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireUser rejects anonymous callers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetActor(c).IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpx.ErrorResponse("unauthenticated", "missing user identity"))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpx.ErrorResponse("unauthenticated", "missing user identity"))
			return
		}
		if !actor.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, httpx.ErrorResponse("not_authorized", "administrator role required"))
			return
		}
		c.Next()
	}
}

func GetActor(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFromContext is used by code below the transport layer, e.g. request-scoped logging.
func ActorFromContext(ctx context.Context) model.Actor {
	actor, _ := ctx.Value(ctxKey{}).(model.Actor)
	return actor
}
