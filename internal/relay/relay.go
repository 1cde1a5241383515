// Package relay carries the now-playing link of an embedded player frame to
// the page hosting it.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/repository/connection"
	"github.com/sharetube/roomtracks/internal/repository/room"
)

const (
	MessageLinkUpdate  = "YTLINK_UPDATE"
	MessageLinkRequest = "YTLINK_REQUEST"

	DefaultPollInterval = 1500 * time.Millisecond
)

type iPusher interface {
	Push(ctx context.Context, tabID, role, messageType string, payload any) error
}

type iMirror interface {
	SetLink(context.Context, *room.SetLinkParams) error
	GetLink(context.Context, string) (domain.Link, error)
	RemoveLink(context.Context, string) error
}

type RequestPayload struct {
	Reason string `json:"reason"`
}

// Relay caches the last link of every known context. A nil entry marks a
// context that is known but has not published yet.
type Relay struct {
	mu       sync.RWMutex
	links    map[string]*domain.Link
	pusher   iPusher
	mirror   iMirror
	onForget func(contextID string)
	logger   *slog.Logger
}

// New returns a relay. mirror may be nil.
func New(pusher iPusher, mirror iMirror, logger *slog.Logger) *Relay {
	return &Relay{
		links:  make(map[string]*domain.Link),
		pusher: pusher,
		mirror: mirror,
		logger: logger,
	}
}

// Track registers a context so that it is force-polled before it publishes.
func (r *Relay) Track(contextID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[contextID]; !ok {
		r.links[contextID] = nil
	}
}

// Publish stores link and pushes it to the page side of the context. Delivery
// and mirror failures are logged only.
func (r *Relay) Publish(ctx context.Context, contextID string, link domain.Link) {
	r.mu.Lock()
	r.links[contextID] = &link
	r.mu.Unlock()

	if r.mirror != nil {
		if err := r.mirror.SetLink(ctx, &room.SetLinkParams{
			ContextID: contextID,
			Link:      link,
		}); err != nil {
			r.logger.DebugContext(ctx, "failed to mirror link", "context_id", contextID, "error", err)
		}
	}

	if err := r.pusher.Push(ctx, contextID, connection.RolePage, MessageLinkUpdate, link); err != nil {
		r.logger.DebugContext(ctx, "link update not delivered", "context_id", contextID, "error", err)
	}
}

// Query returns the cached link without reading anything new.
func (r *Relay) Query(contextID string) (domain.Link, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link := r.links[contextID]
	if link == nil {
		return domain.Link{}, false
	}

	return *link, true
}

// OnForget registers fn to run whenever a context is forgotten.
func (r *Relay) OnForget(fn func(contextID string)) {
	r.mu.Lock()
	r.onForget = fn
	r.mu.Unlock()
}

func (r *Relay) Forget(ctx context.Context, contextID string) {
	r.mu.Lock()
	delete(r.links, contextID)
	onForget := r.onForget
	r.mu.Unlock()

	if onForget != nil {
		onForget(contextID)
	}

	if r.mirror != nil {
		if err := r.mirror.RemoveLink(ctx, contextID); err != nil {
			r.logger.DebugContext(ctx, "failed to remove mirrored link", "context_id", contextID, "error", err)
		}
	}
}

// ForcePoll asks the frame side of the context to publish again. A context
// nobody listens on is forgotten.
func (r *Relay) ForcePoll(ctx context.Context, contextID string) error {
	err := r.pusher.Push(ctx, contextID, connection.RoleFrame, MessageLinkRequest, RequestPayload{Reason: "force-poll"})
	if err == nil {
		return nil
	}

	if errors.Is(err, connection.ErrNotFound) {
		r.logger.DebugContext(ctx, "forgetting context without recipient", "context_id", contextID)
		r.Forget(ctx, contextID)
		return nil
	}

	return err
}

// Recover loads the mirrored link of a context into the cache.
func (r *Relay) Recover(ctx context.Context, contextID string) (domain.Link, bool) {
	if r.mirror == nil {
		return domain.Link{}, false
	}

	link, err := r.mirror.GetLink(ctx, contextID)
	if err != nil {
		if !errors.Is(err, room.ErrLinkNotFound) {
			r.logger.DebugContext(ctx, "failed to recover link", "context_id", contextID, "error", err)
		}
		return domain.Link{}, false
	}

	r.mu.Lock()
	if r.links[contextID] == nil {
		r.links[contextID] = &link
	}
	r.mu.Unlock()

	return link, true
}

func (r *Relay) contextIDs() []string {
	r.mu.RLock()
	ids := maps.Keys(r.links)
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Run force-polls every known context until ctx is done.
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, contextID := range r.contextIDs() {
				if err := r.ForcePoll(ctx, contextID); err != nil {
					r.logger.DebugContext(ctx, "force poll failed", "context_id", contextID, "error", err)
				}
			}
		}
	}
}
