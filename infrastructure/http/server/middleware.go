package server

import (
	"dm-lab/auth"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// accessLog writes one slog line per request.
func accessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id, ok := auth.IdentityFrom(c.Request.Context()); ok {
			attrs = append(attrs, "user_id", id.UserID)
		}
		if c.Writer.Status() >= 500 {
			log.Error("HTTP request", attrs...)
			return
		}
		log.Debug("HTTP request", attrs...)
	}
}

// authenticate verifies the credential, mirrors the profile and stores the identity in the request context.
func (r *Router) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := r.verifier.Verify(auth.TokenFromRequest(c.Request))
		if err != nil {
			r.writeError(c, err)
			return
		}
		r.directory.Remember(id.Summary())
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
