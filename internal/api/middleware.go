package api

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"hr-ingest/internal/logging"
)

const (
	requestIDKey      = "request-id"
	requestContextKey = "requestContext"
)

// RecoveryMiddleware turns handler panics into 500 responses instead of
// killing the server.
func RecoveryMiddleware(logger *logging.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if rvr := recover(); rvr != nil {
				logger.WithFields(map[string]interface{}{
					"panic":       rvr,
					"method":      string(ctx.Method()),
					"url":         ctx.URI().String(),
					"remote_addr": ctx.RemoteAddr().String(),
					"stack_trace": string(debug.Stack()),
				}).Error("Recovered from panic")

				ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
			}
		}()

		next(ctx)
	}
}

// RequestIDMiddleware tags every request with a uuid and stashes a context
// carrying it for downstream handlers.
func RequestIDMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		requestID, ok := ctx.UserValue(requestIDKey).(string)
		if !ok {
			requestID = uuid.New().String()
			ctx.SetUserValue(requestIDKey, requestID)
		}

		requestCtx := logging.CreateContextWithRequestID(context.Background(), requestID)
		ctx.SetUserValue(requestContextKey, requestCtx)
		ctx.Response.Header.Set("X-Request-ID", requestID)

		next(ctx)
	}
}

// LoggingMiddleware logs every completed request with its request id.
func LoggingMiddleware(logger *logging.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		begin := time.Now()
		next(ctx)

		requestID, _ := ctx.UserValue(requestIDKey).(string)
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     string(ctx.Method()),
			"url":        ctx.URI().String(),
			"status":     ctx.Response.StatusCode(),
			"latency":    time.Since(begin).String(),
		}).Info("Completed request")
	}
}

// requestContext recovers the per-request context set by RequestIDMiddleware.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if requestCtx, ok := ctx.UserValue(requestContextKey).(context.Context); ok {
		return requestCtx
	}
	return context.Background()
}
