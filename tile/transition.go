package tile

import "time"

// easeIn is the cubic ease-in used for fade-in opacity.
func easeIn(t float64) float64 {
	return t * t * t
}

// Alpha returns the fade-in opacity in [0, 1] for the given renderer at
// the given time. The first call for a renderer id latches the start
// time; separate renderers animate independently. A zero transition
// duration disables fading entirely.
func (t *Tile) Alpha(rendererID string, now time.Time) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.transition == 0 {
		return 1
	}
	if t.transitionStarts == nil {
		t.transitionStarts = make(map[string]transitionStart)
	}
	ts, ok := t.transitionStarts[rendererID]
	if !ok {
		ts = transitionStart{start: now}
		t.transitionStarts[rendererID] = ts
	} else if ts.done {
		return 1
	}

	delta := now.Sub(ts.start) + frameBudget
	if delta >= t.transition {
		return 1
	}
	return easeIn(float64(delta) / float64(t.transition))
}

// InTransition reports whether the tile is still fading in for the given
// renderer. A tile the renderer has not drawn yet counts as in transition.
func (t *Tile) InTransition(rendererID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.transition == 0 {
		return false
	}
	ts, ok := t.transitionStarts[rendererID]
	return !ok || !ts.done
}

// EndTransition forces the fade-in for the given renderer to completion.
func (t *Tile) EndTransition(rendererID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.transition == 0 {
		return
	}
	if t.transitionStarts == nil {
		t.transitionStarts = make(map[string]transitionStart)
	}
	t.transitionStarts[rendererID] = transitionStart{done: true}
}
