package models

import "sync"

// SessionState holds the page-lifetime flags. The zero value is ready to use.
type SessionState struct {
	mu                sync.RWMutex
	threadLoaded      bool
	activeReplyTarget *CommentID
}

func NewSessionState() *SessionState {
	return &SessionState{}
}

func (s *SessionState) ThreadLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadLoaded
}

// MarkThreadLoaded flips threadLoaded to true. There is no way back.
func (s *SessionState) MarkThreadLoaded() {
	s.mu.Lock()
	s.threadLoaded = true
	s.mu.Unlock()
}

// ActiveReplyTarget returns the comment being replied to, nil means a new top-level comment
func (s *SessionState) ActiveReplyTarget() *CommentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeReplyTarget == nil {
		return nil
	}
	id := *s.activeReplyTarget
	return &id
}

func (s *SessionState) SetReplyTarget(id CommentID) {
	s.mu.Lock()
	s.activeReplyTarget = &id
	s.mu.Unlock()
}

func (s *SessionState) ClearReplyTarget() {
	s.mu.Lock()
	s.activeReplyTarget = nil
	s.mu.Unlock()
}
