package store

import (
	"context"
	"sort"
	"sync"

	"github.com/soyeahso/matchat/internal/domain"
)

// MemoryInbox implements Inbox in process memory.
type MemoryInbox struct {
	mu       sync.RWMutex
	sessions map[string][]domain.InboxMessage
}

// NewMemoryInbox creates an empty in-memory inbox.
func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{sessions: make(map[string][]domain.InboxMessage)}
}

func (m *MemoryInbox) Record(_ context.Context, msg domain.InboxMessage) (domain.InboxMessage, error) {
	msg, err := prepare(msg)
	if err != nil {
		return msg, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[msg.SessionID] = append(m.sessions[msg.SessionID], msg)
	return msg, nil
}

func (m *MemoryInbox) List(_ context.Context, sessionID string, limit int) ([]domain.InboxMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.sessions[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.InboxMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *MemoryInbox) Sessions(_ context.Context) ([]domain.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SessionSummary, 0, len(m.sessions))
	for id, msgs := range m.sessions {
		if len(msgs) == 0 {
			continue
		}
		out = append(out, domain.SessionSummary{
			SessionID: id,
			Messages:  len(msgs),
			LastSeen:  msgs[len(msgs)-1].ReceivedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out, nil
}

func (m *MemoryInbox) Close() error {
	return nil
}
