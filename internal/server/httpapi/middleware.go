package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/auth"
	"github.com/dmitrijs2005/mymee/internal/shared"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

const (
	requestIDHeader = "X-Request-ID"
	sessionKey      = "session"
)

// accessLog tags every request with an id and logs its outcome.
func accessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id, _ = shared.MakeRandHexString(8)
		}
		c.Header(requestIDHeader, id)

		c.Next()

		logger.Info(c.Request.Context(), "request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// corsPolicy applies the configured origins through go-chi/cors. A "*"
// entry allows any origin but never with credentials.
func corsPolicy(origins []string) gin.HandlerFunc {
	allowed := make([]string, 0, len(origins))
	credentials := true
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			credentials = false
		}
		allowed = append(allowed, o)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: credentials,
		MaxAge:           300,
	})

	return func(c *gin.Context) {
		passed := false
		co.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			passed = true
		})).ServeHTTP(c.Writer, c.Request)

		// preflight was answered by the policy
		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireSession rejects requests without a valid bearer token.
func (h *Handler) requireSession(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	sess, err := auth.ParseToken(strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix)), h.jwtSecret)
	if err != nil {
		if !errors.Is(err, common.ErrTokenExpired) {
			h.logger.Debug(c.Request.Context(), "bad session token", "error", err)
		}
		h.fail(c, err)
		return
	}

	c.Set(sessionKey, sess)
	c.Next()
}

// session is only valid behind requireSession.
func session(c *gin.Context) *auth.Session {
	return c.MustGet(sessionKey).(*auth.Session)
}
