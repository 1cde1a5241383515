package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sharetube/roomtracks/internal/nowplaying"
	"github.com/sharetube/roomtracks/internal/repository/connection"
	"github.com/sharetube/roomtracks/internal/repository/connection/inmemory"
	"github.com/sharetube/roomtracks/pkg/ctxlogger"
)

// serveWS upgrades a page or frame context of a browser tab.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	tabID, err := c.getQueryParam(r, "tab_id")
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to get query param", "error", err)
		c.writeJSON(w, http.StatusBadRequest, c.encodeError(r.Context(), ErrMissingTabID))
		return
	}

	role := r.URL.Query().Get("role")
	if role == "" {
		role = connection.RolePage
	}
	if !connection.IsValidRole(role) {
		c.logger.DebugContext(r.Context(), "invalid role", "role", role)
		c.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_role"})
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("tab_id", tabID))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("role", role))
	ctx = context.WithValue(ctx, tabIDCtxKey, tabID)

	conn, err := c.connections.Add(ws, tabID, role)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to register connection", "error", err)
		ws.Close()
		return
	}
	defer c.disconnect(ctx, conn)

	switch role {
	case connection.RoleFrame:
		src := nowplaying.NewPushSource()
		c.reconciler.Attach(tabID, src)
		c.relay.Track(tabID)
		ctx = context.WithValue(ctx, linkSourceCtxKey, src)
	case connection.RolePage:
		c.relay.Recover(ctx, tabID)
	}

	c.logger.InfoContext(ctx, "connection opened", "conn_id", conn.ID)
	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "conn_id", conn.ID, "reason", err)
	}
}

// disconnect drops the tab's now-playing state once its last frame is gone.
func (c controller) disconnect(ctx context.Context, conn *inmemory.Conn) {
	remaining, err := c.connections.Remove(conn)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to remove connection", "error", err)
		return
	}

	if conn.Role == connection.RoleFrame && remaining == 0 {
		c.reconciler.OnContextDestroyed(conn.TabID)
		c.relay.Forget(context.WithoutCancel(ctx), conn.TabID)
	}
}
