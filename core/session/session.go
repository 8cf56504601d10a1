package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side state associated with a browser.
type Session struct {
	ID        string    `json:"id"`
	StudentID int       `json:"student_id,omitempty"`
	Messages  []string  `json:"messages,omitempty"` // error notices, shown once
	Success   string    `json:"success,omitempty"`  // success notice, shown once
	ExpiresAt time.Time `json:"expires_at"`

	modified bool
}

func New(ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
		modified:  true,
	}
}

func (s *Session) IsAuthenticated() bool { return s.StudentID > 0 }
func (s *Session) IsExpired() bool       { return time.Now().After(s.ExpiresAt) }
func (s *Session) Modified() bool        { return s.modified }

// Login attaches the student to the session under a fresh ID.
// The previous ID is returned so the caller can delete it from the Store.
func (s *Session) Login(studentID int) (oldID string) {
	oldID = s.ID
	s.ID = uuid.NewString()
	s.StudentID = studentID
	s.modified = true
	return oldID
}

func (s *Session) Logout() {
	s.StudentID = 0
	s.modified = true
}

func (s *Session) AddMessages(msgs ...string) {
	if len(msgs) == 0 {
		return
	}
	s.Messages = append(s.Messages, msgs...)
	s.modified = true
}

func (s *Session) ClearMessages() {
	if len(s.Messages) == 0 {
		return
	}
	s.Messages = nil
	s.modified = true
}

func (s *Session) SetSuccess(msg string) {
	s.Success = msg
	s.modified = true
}

// PopNotices returns & clears the pending notices.
func (s *Session) PopNotices() (msgs []string, success string) {
	msgs, success = s.Messages, s.Success
	if len(msgs) > 0 || success != "" {
		s.Messages, s.Success = nil, ""
		s.modified = true
	}
	return msgs, success
}

// Stored returns the copy of s a Store keeps: unmodified, sharing no memory with s.
func (s Session) Stored() Session {
	s.Messages = append([]string(nil), s.Messages...)
	s.modified = false
	return s
}

// Touch extends the session lifetime.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
	s.modified = true
}

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
