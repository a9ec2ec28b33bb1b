package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(guard gin.HandlerFunc, seen *model.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	handlers := []gin.HandlerFunc{}
	if guard != nil {
		handlers = append(handlers, guard)
	}
	handlers = append(handlers, func(c *gin.Context) {
		*seen = GetActor(c)
		if ActorFromContext(c.Request.Context()) != *seen {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/x", handlers...)
	return r
}

func do(r *gin.Engine, headers map[string]string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestMiddlewareReadsForwardedIdentity(t *testing.T) {
	var seen model.Actor
	r := newRouter(nil, &seen)

	assert.Equal(t, http.StatusNoContent, do(r, nil))
	assert.True(t, seen.IsAnonymous())

	assert.Equal(t, http.StatusNoContent, do(r, map[string]string{HeaderUserID: "u-1", HeaderRole: "Admin"}))
	assert.Equal(t, model.Actor{UserID: "u-1", IsAdmin: true}, seen)

	// a role without a user id is ignored
	assert.Equal(t, http.StatusNoContent, do(r, map[string]string{HeaderRole: "admin"}))
	assert.Equal(t, model.Actor{}, seen)
}

func TestGuards(t *testing.T) {
	var seen model.Actor

	user := newRouter(RequireUser(), &seen)
	assert.Equal(t, http.StatusUnauthorized, do(user, nil))
	assert.Equal(t, http.StatusNoContent, do(user, map[string]string{HeaderUserID: "u-1"}))

	admin := newRouter(RequireAdmin(), &seen)
	assert.Equal(t, http.StatusUnauthorized, do(admin, nil))
	assert.Equal(t, http.StatusForbidden, do(admin, map[string]string{HeaderUserID: "u-1"}))
	assert.Equal(t, http.StatusNoContent, do(admin, map[string]string{HeaderUserID: "u-1", HeaderRole: "admin"}))
}
