// Package session holds the per-client renderer context of the nnviz server.
//
// A [Session] remembers which preset a client selected, the content hash of
// its last successful render and the node it is hovering. It never stores
// the description text itself: the browser owns the editor contents and
// sends them with every render request.
//
// Backends:
//   - [MemoryStore]: single-process servers and tests
//   - [FileStore]: sessions that survive a restart of a local server
//   - [RedisStore]: multi-instance deployments sharing one Redis
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(presets.Default, session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

// Session is the renderer context of one client.
type Session struct {
	ID        string    `json:"id"`
	Preset    string    `json:"preset"`
	LastHash  string    `json:"last_hash,omitempty"`
	Hover     string    `json:"hover,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session with a random UUID that selects preset.
func New(preset string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Preset:    preset,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the session's lifetime to ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// SelectPreset switches the selected preset. The previous render and hover
// no longer apply and are cleared.
func (s *Session) SelectPreset(key string) {
	s.Preset = key
	s.LastHash = ""
	s.Hover = ""
}

// Rendered records a successful render. Hover is cleared because the node
// under the pointer may no longer exist.
func (s *Session) Rendered(hash string) {
	s.LastHash = hash
	s.Hover = ""
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op when the backend
	// expires entries itself).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
