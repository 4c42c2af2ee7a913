package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"frontdesk/internal/metrics"
	"frontdesk/internal/pkg/response"
)

// ErrorLogger recovers handler panics and logs every request that ended in
// a 5xx or carried gin errors. Upstream rejections (4xx) are not logged.
func ErrorLogger(loggerf func(format string, args ...any)) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				metrics.HandlerPanicsTotal.Inc()
				logFailure(loggerf, c, start, "panic", fmt.Sprint(recovered))
				loggerf("stack request_id=%s\n%s", requestID(c), debug.Stack())

				response.Error(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				c.Abort()
				return
			}

			for _, err := range c.Errors {
				logFailure(loggerf, c, start, fmt.Sprintf("gin_%d", err.Type), err.Error())
			}
			if len(c.Errors) == 0 && c.Writer.Status() >= http.StatusInternalServerError {
				logFailure(loggerf, c, start, "http_error", http.StatusText(c.Writer.Status()))
			}
		}()

		c.Next()
	}
}

func logFailure(loggerf func(format string, args ...any), c *gin.Context, start time.Time, kind, message string) {
	loggerf(
		"request_failed kind=%s status=%d method=%s route=%s staff_id=%d request_id=%s latency=%s error=%q",
		kind,
		c.Writer.Status(),
		c.Request.Method,
		c.FullPath(),
		c.GetInt64("user_id"),
		requestID(c),
		time.Since(start),
		message,
	)
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return c.Writer.Header().Get("X-Request-ID")
}
