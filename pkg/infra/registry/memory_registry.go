package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

// MemoryRegistry keeps session records in process memory, shared across
// connections. A janitor goroutine evicts records whose last_seen_at is older
// than the idle TTL, reclaiming sessions that were created but never bridged.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*conversation.Session
	idleTTL  time.Duration
	done     chan struct{}
	stopOnce sync.Once
	logger   *logrus.Logger
}

func NewMemoryRegistry(idleTTL, sweepInterval time.Duration, logger *logrus.Logger) *MemoryRegistry {
	r := &MemoryRegistry{
		sessions: make(map[uuid.UUID]*conversation.Session),
		idleTTL:  idleTTL,
		done:     make(chan struct{}),
		logger:   logger,
	}
	if idleTTL > 0 && sweepInterval > 0 {
		go r.janitor(sweepInterval)
	}
	return r
}

func (r *MemoryRegistry) Create(
	ctx context.Context,
	userID string,
	attrs conversation.Attributes,
) (*conversation.Session, error) {
	sess := conversation.NewSession(userID, attrs)

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	snapshot := *sess
	return &snapshot, nil
}

func (r *MemoryRegistry) Get(ctx context.Context, id uuid.UUID) (*conversation.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	snapshot := *sess
	return &snapshot, true
}

func (r *MemoryRegistry) Delete(ctx context.Context, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *MemoryRegistry) ListForUser(ctx context.Context, userID string) ([]*conversation.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*conversation.Session
	for _, sess := range r.sessions {
		if sess.UserID != userID {
			continue
		}
		snapshot := *sess
		out = append(out, &snapshot)
	}
	return out, nil
}

func (r *MemoryRegistry) Touch(ctx context.Context, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		sess.LastSeenAt = time.Now()
	}
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (r *MemoryRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

func (r *MemoryRegistry) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.done:
			return
		}
	}
}

func (r *MemoryRegistry) evictIdle() {
	cutoff := time.Now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		if sess.LastSeenAt.Before(cutoff) {
			delete(r.sessions, id)
			r.logger.WithFields(logrus.Fields{
				"session_id": id.String(),
				"user_id":    sess.UserID,
			}).Debug("evicted idle session")
		}
	}
}
