package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing. A well-formed
// X-Trace-ID from the client is continued.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := TraceID(c.GetHeader(TraceIDHeader))
		if _, err := uuid.Parse(string(traceID)); err != nil {
			traceID = ""
		}
		parentID := SpanID(c.GetHeader(SpanIDHeader))
		if _, err := uuid.Parse(string(parentID)); err != nil {
			parentID = ""
		}

		ctx := WithTrace(c.Request.Context(), traceID, parentID)
		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceIDHeader, string(span.TraceID))
		c.Header(SpanIDHeader, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		}
		tracer.End(span, err)
	}
}
