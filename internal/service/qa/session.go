package qa

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/tuskqa/internal/core"
)

// Session scopes asks to one owner. At most one ask runs at a time;
// a concurrent ask is rejected rather than queued.
type Session struct {
	owner    string
	svc      *Service
	inFlight atomic.Bool

	mu           sync.Mutex
	lastEvidence []core.EvidenceItem
}

func newSession(owner string, svc *Service) *Session {
	return &Session{owner: owner, svc: svc}
}

func (s *Session) Owner() string {
	return s.owner
}

// Ask returns ErrEmptyQuestion or ErrAskInProgress, and otherwise always a non-empty answer.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, ErrEmptyQuestion
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return Answer{}, ErrAskInProgress
	}
	defer s.inFlight.Store(false)

	ans, evidence := s.svc.ask(ctx, s.owner, question)

	s.mu.Lock()
	s.lastEvidence = evidence
	s.mu.Unlock()
	return ans, nil
}

// LastEvidence is the selection used by the most recent completed ask.
func (s *Session) LastEvidence() []core.EvidenceItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.EvidenceItem(nil), s.lastEvidence...)
}
