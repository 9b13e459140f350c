/*
Package tracing records spans for the stages of the formfill pipeline and
for API requests.

Spans form a tree per trace: the trace and parent span travel in the
context. Finished spans are buffered and written to the zap logger by a
collector goroutine; successful spans log at debug, failed ones at warn.

# Usage

	tracer := tracing.New("formfill", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "extract")
	span.SetTag("url", url)
	err := work(ctx)
	tracer.End(span, err)

# Trace Format

Traces propagate over HTTP with X-Trace-ID and X-Span-ID headers. Both must
be UUIDs or they are ignored.
*/
package tracing
