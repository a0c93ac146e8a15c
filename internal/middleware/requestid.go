package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khajiev13/lab-tutor-sub001/internal/platform/ctxutil"
)

// RequestID tags every request with an id (client-supplied or generated) and
// echoes it back so failures in the pipeline can be matched to log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		td := &ctxutil.TraceData{RequestID: id, TraceID: c.GetHeader("X-Trace-ID")}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
