package controller

import (
	"context"

	"github.com/sharetube/roomtracks/internal/nowplaying"
)

type contextKey int

const (
	tabIDCtxKey contextKey = iota
	linkSourceCtxKey
)

func (c controller) getTabIDFromCtx(ctx context.Context) string {
	tabID, ok := ctx.Value(tabIDCtxKey).(string)
	if !ok {
		return ""
	}

	return tabID
}

// getLinkSourceFromCtx returns the push source of the frame connection
// serving the request, if any.
func (c controller) getLinkSourceFromCtx(ctx context.Context) *nowplaying.PushSource {
	src, _ := ctx.Value(linkSourceCtxKey).(*nowplaying.PushSource)
	return src
}
