package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is an identity session handed out by the mocked token endpoint.
type Session struct {
	Username  string
	UserID    string
	TenantID  string
	Token     string
	ExpiresAt time.Time
}

// Sessions keeps one session per username so repeated authentication yields
// the same tenant and token.
type Sessions struct {
	mu         sync.RWMutex
	byUsername map[string]*Session
	byToken    map[string]*Session
	ttl        time.Duration
	now        func() time.Time
}

// NewSessions creates an empty session table. now is injectable for tests.
func NewSessions(ttl time.Duration, now func() time.Time) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Sessions{
		byUsername: make(map[string]*Session),
		byToken:    make(map[string]*Session),
		ttl:        ttl,
		now:        now,
	}
}

// ForCredentials returns the session of username, creating it on first use.
// tenantID binds the session to a tenant the first time; when empty a numeric
// tenant id is generated.
func (s *Sessions) ForCredentials(username, tenantID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byUsername[username]; ok {
		return *existing
	}

	if tenantID == "" {
		tenantID = generateTenantID()
	}
	sess := &Session{
		Username:  username,
		UserID:    uuid.NewString(),
		TenantID:  tenantID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	s.byUsername[username] = sess
	s.byToken[sess.Token] = sess
	return *sess
}

// ByToken looks a session up by its token id.
func (s *Sessions) ByToken(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byToken[token]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Count returns the number of sessions handed out.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byUsername)
}

// generateTenantID produces a six digit tenant id, the shape real accounts use.
func generateTenantID() string {
	return fmt.Sprintf("%06d", 100000+uuid.New().ID()%900000)
}

// Prune drops the sessions whose token has expired and returns them. The next
// authentication of such a user starts a fresh session.
func (s *Sessions) Prune() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed []Session
	for username, sess := range s.byUsername {
		if now.Before(sess.ExpiresAt) {
			continue
		}
		delete(s.byUsername, username)
		delete(s.byToken, sess.Token)
		removed = append(removed, *sess)
	}
	return removed
}
