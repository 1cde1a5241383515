package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/nowplaying"
	"github.com/sharetube/roomtracks/internal/repository/connection"
	roomredis "github.com/sharetube/roomtracks/internal/repository/room/redis"
)

type push struct {
	tabID       string
	role        string
	messageType string
	payload     any
}

type fakePusher struct {
	mu        sync.Mutex
	pushes    []push
	listening map[string]bool
}

func (p *fakePusher) Push(_ context.Context, tabID, role, messageType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.listening[tabID+"/"+role] {
		return connection.ErrNotFound
	}
	p.pushes = append(p.pushes, push{tabID, role, messageType, payload})
	return nil
}

func (p *fakePusher) count(messageType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, push := range p.pushes {
		if push.messageType == messageType {
			n++
		}
	}
	return n
}

func newMirror(t *testing.T) iMirror {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return roomredis.NewRepo(rc, time.Minute, slog.Default())
}

func TestPublishAndQuery(t *testing.T) {
	p := &fakePusher{listening: map[string]bool{"tab1/page": true}}
	r := New(p, nil, slog.Default())
	ctx := context.Background()

	_, ok := r.Query("tab1")
	assert.False(t, ok)

	link := domain.Link{ID: "abc", Href: "https://www.youtube.com/watch?v=abc", Reason: "poll"}
	r.Publish(ctx, "tab1", link)

	got, ok := r.Query("tab1")
	require.True(t, ok)
	assert.Equal(t, link, got)
	require.Equal(t, 1, p.count(MessageLinkUpdate))
	assert.Equal(t, connection.RolePage, p.pushes[0].role)
}

func TestPublishWithoutListenerIsNotFatal(t *testing.T) {
	r := New(&fakePusher{}, nil, slog.Default())

	r.Publish(context.Background(), "tab1", domain.Link{ID: "abc"})

	got, ok := r.Query("tab1")
	require.True(t, ok)
	assert.Equal(t, "abc", got.ID)
}

func TestForcePollForgetsMissingRecipient(t *testing.T) {
	p := &fakePusher{listening: map[string]bool{"tab1/frame": true}}
	r := New(p, nil, slog.Default())
	ctx := context.Background()

	r.Publish(ctx, "tab1", domain.Link{ID: "a"})
	r.Publish(ctx, "tab2", domain.Link{ID: "b"})

	require.NoError(t, r.ForcePoll(ctx, "tab1"))
	require.NoError(t, r.ForcePoll(ctx, "tab2"))

	_, ok := r.Query("tab1")
	assert.True(t, ok)
	_, ok = r.Query("tab2")
	assert.False(t, ok)
	assert.Equal(t, 1, p.count(MessageLinkRequest))
}

type failingPusher struct{}

func (failingPusher) Push(context.Context, string, string, string, any) error {
	return errors.New("closed")
}

func TestForcePollKeepsContextOnOtherErrors(t *testing.T) {
	r := New(failingPusher{}, nil, slog.Default())
	ctx := context.Background()
	r.Publish(ctx, "tab1", domain.Link{ID: "a"})

	assert.Error(t, r.ForcePoll(ctx, "tab1"))
	_, ok := r.Query("tab1")
	assert.True(t, ok)
}

func TestRunPollsTrackedContexts(t *testing.T) {
	p := &fakePusher{listening: map[string]bool{"tab1/frame": true}}
	r := New(p, nil, slog.Default())
	r.Track("tab1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.count(MessageLinkRequest) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	_, ok := r.Query("tab1")
	assert.False(t, ok)
}

func TestMirrorRecoverAndForget(t *testing.T) {
	mirror := newMirror(t)
	ctx := context.Background()

	first := New(&fakePusher{}, mirror, slog.Default())
	first.Publish(ctx, "tab1", domain.Link{ID: "abc", Reason: "poll"})

	restarted := New(&fakePusher{}, mirror, slog.Default())
	_, ok := restarted.Query("tab1")
	require.False(t, ok)

	link, ok := restarted.Recover(ctx, "tab1")
	require.True(t, ok)
	assert.Equal(t, "abc", link.ID)

	got, ok := restarted.Query("tab1")
	require.True(t, ok)
	assert.Equal(t, "abc", got.ID)

	restarted.Forget(ctx, "tab1")
	_, ok = restarted.Recover(ctx, "tab1")
	assert.False(t, ok)
}

func TestForgottenContextRepublishesSameLink(t *testing.T) {
	p := &fakePusher{listening: map[string]bool{"tab1/page": true}}
	r := New(p, newMirror(t), slog.Default())
	reconciler := nowplaying.NewReconciler(func(snapshot nowplaying.Snapshot) {
		r.Publish(context.Background(), snapshot.ContextID, snapshot.Link())
	}, slog.Default())
	r.OnForget(reconciler.OnContextDestroyed)
	ctx := context.Background()

	c := nowplaying.Candidate{VideoID: "abc", Title: "Song", Reason: "iframe"}
	_, emitted := reconciler.Observe("tab1", c)
	require.True(t, emitted)
	_, ok := r.Query("tab1")
	require.True(t, ok)

	// no frame listens on tab1
	require.NoError(t, r.ForcePoll(ctx, "tab1"))
	_, ok = r.Query("tab1")
	require.False(t, ok)
	_, ok = reconciler.Current("tab1")
	assert.False(t, ok, "session is dropped with the context")

	_, emitted = reconciler.Observe("tab1", c)
	assert.True(t, emitted)
	got, ok := r.Query("tab1")
	require.True(t, ok)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, 2, p.count(MessageLinkUpdate))
}
