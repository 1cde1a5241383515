package nowplaying

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) notify(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestReconcilerPushSource(t *testing.T) {
	rec := &recorder{}
	r := NewReconciler(rec.notify, slog.Default())
	src := NewPushSource()

	r.Attach("tab1", src)
	src.Push(Candidate{VideoID: "abc", Title: "Song"})
	src.Push(Candidate{VideoID: "abc", Title: "Song"})
	src.Push(Candidate{VideoID: "abc", Channel: "Artist"})

	require.Equal(t, 2, rec.len())
	assert.Equal(t, "Artist", rec.snaps[1].Channel)

	snap, ok := r.Current("tab1")
	require.True(t, ok)
	assert.Equal(t, "Song", snap.Title)
}

func TestReconcilerContextsAreIndependent(t *testing.T) {
	rec := &recorder{}
	r := NewReconciler(rec.notify, slog.Default())

	_, changed := r.Observe("tab1", Candidate{VideoID: "abc"})
	assert.True(t, changed)
	_, changed = r.Observe("tab2", Candidate{VideoID: "abc"})
	assert.True(t, changed)
	assert.Equal(t, 2, rec.len())
}

func TestReconcilerOnContextDestroyed(t *testing.T) {
	rec := &recorder{}
	r := NewReconciler(rec.notify, slog.Default())
	src := NewPushSource()

	r.Attach("tab1", src)
	src.Push(Candidate{VideoID: "abc"})
	r.OnContextDestroyed("tab1")

	src.Push(Candidate{VideoID: "xyz"})
	assert.Equal(t, 1, rec.len())

	_, ok := r.Current("tab1")
	assert.False(t, ok)

	// a fresh session starts over
	_, changed := r.Observe("tab1", Candidate{VideoID: "abc"})
	assert.True(t, changed)
}

func TestPushSourceUnsubscribe(t *testing.T) {
	src := NewPushSource()
	calls := 0
	unsub := src.Subscribe(func(Candidate) { calls++ })

	src.Push(Candidate{})
	unsub()
	src.Push(Candidate{})

	assert.Equal(t, 1, calls)
}
