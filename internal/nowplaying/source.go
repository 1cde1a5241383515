package nowplaying

import "sync"

// Source delivers candidates to subscribers until they unsubscribe.
type Source interface {
	Subscribe(func(Candidate)) (unsubscribe func())
}

// PushSource forwards candidates handed to Push. It backs event driven inputs
// such as relayed frame messages and navigation hooks.
type PushSource struct {
	mu   sync.RWMutex
	subs map[int]func(Candidate)
	next int
}

func NewPushSource() *PushSource {
	return &PushSource{subs: make(map[int]func(Candidate))}
}

func (p *PushSource) Push(c Candidate) {
	p.mu.RLock()
	subs := make([]func(Candidate), 0, len(p.subs))
	for _, cb := range p.subs {
		subs = append(subs, cb)
	}
	p.mu.RUnlock()

	for _, cb := range subs {
		cb(c)
	}
}

func (p *PushSource) Subscribe(cb func(Candidate)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs[id] = cb
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}
