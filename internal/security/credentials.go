// Package security provides centralized credential management, log redaction
// and request rate limiting.
package security

import (
	"sync"
)

// CredentialStore holds the secrets loaded at runtime so the log redactor
// can mask them: the bot token, the gateway credentials, the database DSN
// and every rewards-service session token ("hoyolab.token.<account id>").
// All methods are safe for concurrent use.
type CredentialStore struct {
	mu       sync.RWMutex
	creds    map[string]string
	watchers []func()
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		creds: make(map[string]string),
	}
}

// Set stores a credential, replacing any previous value under name. An empty
// value removes the credential, as an unregistered account has no token.
func (s *CredentialStore) Set(name, value string) {
	if value == "" {
		s.Delete(name)
		return
	}

	s.mu.Lock()
	if s.creds[name] == value {
		s.mu.Unlock()
		return
	}
	s.creds[name] = value
	watchers := s.watchers
	s.mu.Unlock()
	notify(watchers)
}

// Get returns the credential value and true, or "" and false if not found.
func (s *CredentialStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.creds[name]
	return v, ok
}

// Values returns all credential values in no particular order.
func (s *CredentialStore) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]string, 0, len(s.creds))
	for _, v := range s.creds {
		values = append(values, v)
	}
	return values
}

// Delete removes a credential. A missing name is a no-op.
func (s *CredentialStore) Delete(name string) {
	s.mu.Lock()
	_, existed := s.creds[name]
	delete(s.creds, name)
	watchers := s.watchers
	s.mu.Unlock()
	if existed {
		notify(watchers)
	}
}

// OnChange registers fn to be called after every effective change.
// Callbacks run outside the store lock and may read the store.
func (s *CredentialStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func notify(watchers []func()) {
	for _, fn := range watchers {
		fn()
	}
}
