package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

// GinMiddleware puts a request-scoped logger on the request context and logs
// each request once it completes. Requests to skipPaths (scrapes, health
// checks) keep the request ID but are not logged.
func GinMiddleware(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		Debug(ctx).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Msg("Request started")

		c.Next()

		status := c.Writer.Status()
		event := Info(ctx)
		switch {
		case status >= http.StatusInternalServerError:
			event = Error(ctx)
		case status >= http.StatusBadRequest:
			event = Warn(ctx)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	}
}

// WebSocketContext creates the long-lived context of one websocket connection.
// It is detached from r so it survives the upgrade handler returning.
func WebSocketContext(r *http.Request) context.Context {
	requestID := r.URL.Query().Get("request_id")
	if requestID == "" {
		requestID = r.Header.Get(RequestIDHeader)
	}
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	return WithRequestID(context.Background(), requestID)
}
