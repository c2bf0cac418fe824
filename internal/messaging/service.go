package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service is the entry point for transports. Every operation takes the acting
// user explicitly; an empty id means nobody is signed in.
type Service struct {
	store      Store
	directory  Directory
	aggregator *Aggregator
	readState  *ReadState
	log        *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used to stamp new messages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, directory Directory, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		directory:  directory,
		aggregator: NewAggregator(store),
		readState:  NewReadState(store),
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a message from actor to receiver.
func (s *Service) Send(ctx context.Context, actor, receiver UserID, content string) (Message, error) {
	if actor == "" {
		return Message{}, ErrUnauthenticated
	}
	draft, err := NewMessage{
		SenderID:   actor,
		ReceiverID: receiver,
		Content:    content,
		SentAt:     s.now(),
	}.Normalize()
	if err != nil {
		return Message{}, err
	}

	msg, err := s.store.Append(ctx, draft)
	if err != nil {
		s.log.Error("failed to append message", "sender", actor, "receiver", receiver, "error", err)
		return Message{}, err
	}
	s.log.Info("message sent", "id", msg.ID, "sender", actor, "receiver", receiver)
	return msg, nil
}

// ListConversations returns actor's inbox, most recent conversation first.
func (s *Service) ListConversations(ctx context.Context, actor UserID) ([]Conversation, error) {
	if actor == "" {
		return nil, ErrUnauthenticated
	}
	inbox, err := s.aggregator.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	for i := range inbox {
		inbox[i].Counterpart = s.lookup(ctx, inbox[i].CounterpartID)
	}
	return inbox, nil
}

// OpenConversation returns the thread with counterpart and marks what actor
// received in it as read.
func (s *Service) OpenConversation(ctx context.Context, actor, counterpart UserID) (Thread, error) {
	if actor == "" {
		return Thread{}, ErrUnauthenticated
	}
	switch counterpart {
	case "":
		return Thread{}, &ValidationError{Field: "counterpartId", Reason: "is required"}
	case actor:
		return Thread{}, &ValidationError{Field: "counterpartId", Reason: "cannot open a conversation with yourself"}
	}

	msgs, err := s.readState.Open(ctx, actor, counterpart)
	if err != nil {
		s.log.Error("failed to open conversation", "viewer", actor, "counterpart", counterpart, "error", err)
		return Thread{}, err
	}
	return Thread{
		CounterpartID: counterpart,
		Counterpart:   s.lookup(ctx, counterpart),
		Messages:      msgs,
	}, nil
}

// MessagesSince returns actor's traffic sent after since, oldest first. It
// does not change read state.
func (s *Service) MessagesSince(ctx context.Context, actor UserID, since time.Time) ([]Message, error) {
	if actor == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.FindSince(ctx, actor, since)
}

// MarkMessageRead acknowledges a single message. Only its receiver may do so.
func (s *Service) MarkMessageRead(ctx context.Context, actor UserID, id MessageID) (Message, error) {
	if actor == "" {
		return Message{}, ErrUnauthenticated
	}
	var msg Message
	err := s.store.Atomically(ctx, func(tx Store) error {
		found, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if found.ReceiverID != actor {
			return ErrForbidden
		}
		if !found.IsRead {
			if _, err := tx.MarkRead(ctx, actor, []MessageID{id}); err != nil {
				return err
			}
			found.IsRead = true
		}
		msg = found
		return nil
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// UnreadCount is the number of messages waiting for actor across all conversations.
func (s *Service) UnreadCount(ctx context.Context, actor UserID) (int64, error) {
	if actor == "" {
		return 0, ErrUnauthenticated
	}
	return s.store.CountUnread(ctx, actor)
}

// lookup resolves display details, returning nil when the directory cannot.
// Historical messages stay visible even after a participant is removed.
func (s *Service) lookup(ctx context.Context, id UserID) *DisplayInfo {
	if s.directory == nil {
		return nil
	}
	info, err := s.directory.LookupUser(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("user lookup failed", "user", id, "error", err)
		}
		return nil
	}
	return &info
}
