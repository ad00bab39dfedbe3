package diagram

import (
	"sync"

	"github.com/matzehuels/nnviz/pkg/layout"
)

// Hover holds the idle/hovering state for one client. The zero value is idle
// and safe for concurrent use.
type Hover struct {
	mu     sync.Mutex
	id     string
	active bool
}

// Enter moves to hovering id. It reports whether the state changed.
func (h *Hover) Enter(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active && h.id == id {
		return false
	}
	h.id, h.active = id, true
	return true
}

// Leave returns to idle. It reports whether a node was hovered.
func (h *Hover) Leave() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	was := h.active
	h.id, h.active = "", false
	return was
}

// Current returns the hovered node, if any.
func (h *Hover) Current() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id, h.active
}

// Move updates the state from a pointer position: entering the node under p,
// or leaving when p hits nothing. It returns the hovered id after the move.
func (h *Hover) Move(s *Scene, p layout.Point) (string, bool) {
	if id, ok := s.HitTest(p); ok {
		h.Enter(id)
		return id, true
	}
	h.Leave()
	return "", false
}
