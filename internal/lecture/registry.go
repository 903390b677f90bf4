package lecture

import "sync"

// Registry is the process-wide map from session key to live lecture session.
// It is created once at startup and injected into the connection layer; it
// carries no ambient global state so tests can run isolated registries.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Put registers a session under its key. A collision is unreachable with
// generated keys and reported as an error rather than silently replacing a
// live lecture.
func (r *Registry) Put(key string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[key]; exists {
		return ErrDuplicateKey
	}
	r.sessions[key] = s
	return nil
}

// Get returns the live session for a key.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[key]
	return s, ok
}

// Remove drops a key from the registry. Removing an absent key is a no-op so
// the presenter's cleanup path may run more than once. Removal only prevents
// new joins; students already inside the session keep their direct reference.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, key)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
