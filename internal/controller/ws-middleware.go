package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sharetube/roomtracks/pkg/ctxlogger"
	"github.com/sharetube/roomtracks/pkg/wsrouter"
)

func (c controller) wsRequestIdMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[json.RawMessage]) wsrouter.HandlerFunc[json.RawMessage] {
		return func(ctx context.Context, payload json.RawMessage) (any, error) {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", uuid.NewString()))
			return next(ctx, payload)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[json.RawMessage]) wsrouter.HandlerFunc[json.RawMessage] {
		return func(ctx context.Context, payload json.RawMessage) (any, error) {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "message received", "payload", string(payload))

			start := time.Now()
			resp, err := next(ctx, payload)

			if err != nil {
				c.logger.InfoContext(ctx, "message failed",
					"processing_time_us", time.Since(start).Microseconds(),
					"error", err,
				)
			} else {
				c.logger.InfoContext(ctx, "message handled",
					"processing_time_us", time.Since(start).Microseconds(),
				)
			}

			return resp, err
		}
	}
}
