package nowplaying

import (
	"log/slog"
	"sync"
)

// Notifier receives every snapshot change.
type Notifier func(Snapshot)

type attachment struct {
	session *Session
	unsubs  []func()
}

// Reconciler owns one Session per context.
type Reconciler struct {
	mu       sync.Mutex
	contexts map[string]*attachment
	notify   Notifier
	logger   *slog.Logger
}

func NewReconciler(notify Notifier, logger *slog.Logger) *Reconciler {
	if notify == nil {
		notify = func(Snapshot) {}
	}

	return &Reconciler{
		contexts: make(map[string]*attachment),
		notify:   notify,
		logger:   logger,
	}
}

func (r *Reconciler) attachmentFor(contextID string) *attachment {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.contexts[contextID]
	if !ok {
		a = &attachment{session: NewSession(contextID)}
		r.contexts[contextID] = a
	}

	return a
}

// Attach feeds every candidate of src into the context's session.
func (r *Reconciler) Attach(contextID string, src Source) {
	a := r.attachmentFor(contextID)

	unsub := src.Subscribe(func(c Candidate) {
		r.mu.Lock()
		live := r.contexts[contextID] == a
		r.mu.Unlock()
		if !live {
			return
		}

		r.observe(a.session, c)
	})

	r.mu.Lock()
	if r.contexts[contextID] != a {
		r.mu.Unlock()
		unsub()
		return
	}
	a.unsubs = append(a.unsubs, unsub)
	r.mu.Unlock()
}

// Observe handles a candidate that did not come from an attached source.
func (r *Reconciler) Observe(contextID string, c Candidate) (Snapshot, bool) {
	return r.observe(r.attachmentFor(contextID).session, c)
}

func (r *Reconciler) observe(session *Session, c Candidate) (Snapshot, bool) {
	snapshot, changed := session.Observe(c)
	if !changed {
		return snapshot, false
	}

	r.logger.Debug("now playing changed",
		"context_id", snapshot.ContextID,
		"video_id", snapshot.VideoID,
		"source", snapshot.Source,
	)
	r.notify(snapshot)

	return snapshot, true
}

func (r *Reconciler) Current(contextID string) (Snapshot, bool) {
	r.mu.Lock()
	a, ok := r.contexts[contextID]
	r.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}

	return a.session.Current()
}

// OnContextDestroyed detaches the context's sources and drops its session.
func (r *Reconciler) OnContextDestroyed(contextID string) {
	r.mu.Lock()
	a, ok := r.contexts[contextID]
	delete(r.contexts, contextID)
	r.mu.Unlock()
	if !ok {
		return
	}

	for _, unsub := range a.unsubs {
		unsub()
	}
}
