package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sharetube/roomtracks/pkg/ctxlogger"
	"github.com/sharetube/roomtracks/pkg/wsrouter"
)

const maxRPCBodySize = 1 << 20

// serveRPC answers one message per request with the response payload only.
// Requests that act on a tab carry it in the St-Tab-Id header.
func (c controller) serveRPC(w http.ResponseWriter, r *http.Request) {
	var msg wsrouter.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRPCBodySize)).Decode(&msg); err != nil {
		c.logger.InfoContext(r.Context(), "failed to read rpc request", "error", err)
		c.writeJSON(w, http.StatusBadRequest, c.encodeError(r.Context(), &wsrouter.PayloadError{Err: err}))
		return
	}

	ctx := r.Context()
	if tabID := c.getHeader(r, "Tab-Id"); tabID != "" {
		ctx = ctxlogger.AppendCtx(ctx, slog.String("tab_id", tabID))
		ctx = context.WithValue(ctx, tabIDCtxKey, tabID)
	}

	resp, err := c.wsmux.Dispatch(ctx, msg)

	status := http.StatusOK
	switch {
	case errors.Is(err, wsrouter.ErrUnknownMessageType):
		status = http.StatusNotFound
	case errors.Is(err, wsrouter.ErrInvalidPayload):
		status = http.StatusBadRequest
	case err != nil:
		status = http.StatusUnprocessableEntity
		if e, ok := resp.(ErrorResponse); ok && e.Error == errorCodeInternal {
			status = http.StatusInternalServerError
		}
	}

	c.writeJSON(w, status, resp)
}
