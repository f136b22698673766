package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"wpm/internal/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns handler panics into 500s instead of dropped connections.
// Panics caused by the client hanging up mid-write are not worth a stack
// trace, so those just abort.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(error); ok {
			if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
				c.Abort()
				return
			}
		}

		log.Error("Panic in %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, recovered, debug.Stack())
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
