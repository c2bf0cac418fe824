package messaging

import (
	"context"
	"slices"

	"github.com/samber/lo"
)

// SortThread orders messages oldest first, breaking SentAt ties by ID.
func SortThread(msgs []Message) {
	slices.SortFunc(msgs, func(a, b Message) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
}

// Aggregate builds viewer's inbox from every message the viewer sent or
// received. Each counterpart appears once, newest conversation first.
// Messages the viewer took no part in are ignored.
func Aggregate(viewer UserID, msgs []Message) []Conversation {
	byCounterpart := make(map[UserID]*Conversation)
	for _, m := range lo.UniqBy(msgs, func(m Message) MessageID { return m.ID }) {
		counterpart, ok := m.Counterpart(viewer)
		if !ok || counterpart == "" {
			continue
		}
		conv, seen := byCounterpart[counterpart]
		if !seen {
			conv = &Conversation{CounterpartID: counterpart, LastMessage: m}
			byCounterpart[counterpart] = conv
		} else if conv.LastMessage.Before(m) {
			conv.LastMessage = m
		}
		if m.SenderID == counterpart && m.UnreadFor(viewer) {
			conv.UnreadCount++
		}
	}

	inbox := lo.Map(lo.Values(byCounterpart), func(c *Conversation, _ int) Conversation { return *c })
	slices.SortFunc(inbox, func(a, b Conversation) int {
		switch {
		case b.LastMessage.Before(a.LastMessage):
			return -1
		case a.LastMessage.Before(b.LastMessage):
			return 1
		}
		return 0
	})
	return inbox
}

// Aggregator reads the viewer's messages from a Store and aggregates them.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// List returns the viewer's conversations, most recent first. A viewer with
// no messages gets an empty slice.
func (a *Aggregator) List(ctx context.Context, viewer UserID) ([]Conversation, error) {
	sent, err := a.store.FindBySender(ctx, viewer)
	if err != nil {
		return nil, err
	}
	received, err := a.store.FindByRecipient(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return Aggregate(viewer, append(sent, received...)), nil
}
