package runner

import "FlipScout/internal/model"

// Subscribe registers a progress observer. The returned cancel func
// must be called to release the subscription.
func (r *Runner) Subscribe() (<-chan model.Progress, func()) {
	ch := make(chan model.Progress, 8)
	r.mu.Lock()
	r.observers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.observers[ch]; ok {
			delete(r.observers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// LastProgress returns the most recently published milestone.
func (r *Runner) LastProgress() model.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// publish fans a milestone out to all observers. Slow observers drop
// updates rather than stalling the pipeline.
func (r *Runner) publish(p model.Progress) {
	r.mu.Lock()
	r.last = p
	for ch := range r.observers {
		select {
		case ch <- p:
		default:
		}
	}
	r.mu.Unlock()
}
