// Package workflow holds in-progress two-round document generation
// sessions.
//
// Phase 1 stores everything the server already resolved (site,
// template, merged guidelines, project info) under a fresh session id
// and asks the caller to go explore the codebase. Phase 2 claims the
// session by id, merges the caller's findings, and the session is
// gone — sessions are strictly single-use.
//
// Expiry is lazy: a session past the TTL is treated as absent on the
// next lookup and evicted at that point. No background timer exists,
// which keeps expiry deterministic under an injected clock.
package workflow

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docforge/docforge/internal/backend"
	"github.com/docforge/docforge/internal/classify"
	"github.com/docforge/docforge/internal/guidelines"
)

// ErrExpired reports a continuation that referenced a session which
// does not exist, was already used, or aged past the TTL.
var ErrExpired = errors.New("workflow: session missing or expired")

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Session is one in-progress document generation awaiting caller
// findings.
type Session struct {
	ID           string
	DocumentType classify.DocumentType
	Subject      string
	Site         backend.Site
	Template     *backend.Template
	Guidelines   guidelines.CombinedInstruction
	ProjectInfo  string
	CreatedAt    time.Time
}

// Expired reports whether the session has aged past ttl at instant
// now.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) >= ttl
}

// Store owns all sessions. No other component retains a session
// reference across calls.
type Store struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty session store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// TTL returns the configured session lifetime, for error messages that
// tell the caller how long phase 1 results stay valid.
func (st *Store) TTL() time.Duration {
	return st.ttl
}

// Create mints a session id, stores the session, and returns it.
func (st *Store) Create(documentType classify.DocumentType, subject string, site backend.Site, tpl *backend.Template, combined guidelines.CombinedInstruction, projectInfo string) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		DocumentType: documentType,
		Subject:      subject,
		Site:         site,
		Template:     tpl,
		Guidelines:   combined,
		ProjectInfo:  projectInfo,
		CreatedAt:    timeNow(),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Take claims the session for its continuation, removing it from the
// store. A second Take with the same id fails with ErrExpired, as does
// a Take past the TTL — which also evicts the stale entry.
func (st *Store) Take(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrExpired
	}
	delete(st.sessions, id)

	if s.Expired(timeNow(), st.ttl) {
		return nil, ErrExpired
	}
	return s, nil
}

// Len reports the number of live sessions, counting entries past the
// TTL that have not been looked up yet.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
