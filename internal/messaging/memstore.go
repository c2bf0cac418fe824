package messaging

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// MemoryStore keeps the message log in process memory. It backs the
// "memory" store driver and the engine's tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memLog{}}
}

func (s *MemoryStore) Append(ctx context.Context, msg NewMessage) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.append(msg)
}

func (s *MemoryStore) FindByID(ctx context.Context, id MessageID) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.findByID(id)
}

func (s *MemoryStore) FindBetween(ctx context.Context, a, b UserID) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.findBetween(a, b), nil
}

func (s *MemoryStore) FindByRecipient(ctx context.Context, user UserID) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.filter(func(m Message) bool { return m.ReceiverID == user }), nil
}

func (s *MemoryStore) FindBySender(ctx context.Context, user UserID) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.filter(func(m Message) bool { return m.SenderID == user }), nil
}

func (s *MemoryStore) FindSince(ctx context.Context, user UserID, since time.Time) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.findSince(user, since), nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, viewer UserID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.countUnread(viewer), nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, viewer UserID, ids []MessageID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.markRead(viewer, ids), nil
}

// Atomically holds the write lock for the whole callback and restores the
// previous log if fn fails.
func (s *MemoryStore) Atomically(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(&memTx{data: s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// memTx is the view handed to Atomically callbacks. The caller already holds
// the store lock.
type memTx struct {
	data *memLog
}

func (t *memTx) Append(ctx context.Context, msg NewMessage) (Message, error) {
	return t.data.append(msg)
}

func (t *memTx) FindByID(ctx context.Context, id MessageID) (Message, error) {
	return t.data.findByID(id)
}

func (t *memTx) FindBetween(ctx context.Context, a, b UserID) ([]Message, error) {
	return t.data.findBetween(a, b), nil
}

func (t *memTx) FindByRecipient(ctx context.Context, user UserID) ([]Message, error) {
	return t.data.filter(func(m Message) bool { return m.ReceiverID == user }), nil
}

func (t *memTx) FindBySender(ctx context.Context, user UserID) ([]Message, error) {
	return t.data.filter(func(m Message) bool { return m.SenderID == user }), nil
}

func (t *memTx) FindSince(ctx context.Context, user UserID, since time.Time) ([]Message, error) {
	return t.data.findSince(user, since), nil
}

func (t *memTx) CountUnread(ctx context.Context, viewer UserID) (int64, error) {
	return t.data.countUnread(viewer), nil
}

func (t *memTx) MarkRead(ctx context.Context, viewer UserID, ids []MessageID) (int64, error) {
	return t.data.markRead(viewer, ids), nil
}

func (t *memTx) Atomically(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

type memLog struct {
	rows   []Message
	lastID MessageID
}

func (l *memLog) clone() *memLog {
	return &memLog{rows: slices.Clone(l.rows), lastID: l.lastID}
}

func (l *memLog) append(msg NewMessage) (Message, error) {
	msg, err := msg.Normalize()
	if err != nil {
		return Message{}, err
	}
	l.lastID++
	m := Message{
		ID:         l.lastID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		SentAt:     msg.SentAt,
	}
	l.rows = append(l.rows, m)
	return m, nil
}

func (l *memLog) findByID(id MessageID) (Message, error) {
	m, ok := lo.Find(l.rows, func(m Message) bool { return m.ID == id })
	if !ok {
		return Message{}, ErrNotFound
	}
	return m, nil
}

func (l *memLog) filter(keep func(Message) bool) []Message {
	return lo.Filter(l.rows, func(m Message, _ int) bool { return keep(m) })
}

func (l *memLog) findBetween(a, b UserID) []Message {
	thread := l.filter(func(m Message) bool {
		return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
	})
	SortThread(thread)
	return thread
}

func (l *memLog) findSince(user UserID, since time.Time) []Message {
	found := l.filter(func(m Message) bool {
		return (m.SenderID == user || m.ReceiverID == user) && m.SentAt.After(since)
	})
	SortThread(found)
	return found
}

func (l *memLog) countUnread(viewer UserID) int64 {
	return int64(lo.CountBy(l.rows, func(m Message) bool { return m.UnreadFor(viewer) }))
}

func (l *memLog) markRead(viewer UserID, ids []MessageID) int64 {
	if len(ids) == 0 {
		return 0
	}
	wanted := lo.Keyify(ids)
	var changed int64
	for i := range l.rows {
		if _, ok := wanted[l.rows[i].ID]; !ok || !l.rows[i].UnreadFor(viewer) {
			continue
		}
		l.rows[i].IsRead = true
		changed++
	}
	return changed
}
