package messaging

import (
	"context"

	"github.com/samber/lo"
)

// ReadState opens threads and acknowledges what the viewer was shown.
type ReadState struct {
	store Store
}

func NewReadState(store Store) *ReadState {
	return &ReadState{store: store}
}

// Open returns the thread between viewer and counterpart, oldest first, and
// marks read exactly the unread messages in that snapshot that were addressed
// to viewer. Messages appended after the snapshot stay unread.
func (r *ReadState) Open(ctx context.Context, viewer, counterpart UserID) ([]Message, error) {
	var thread []Message
	err := r.store.Atomically(ctx, func(tx Store) error {
		msgs, err := tx.FindBetween(ctx, viewer, counterpart)
		if err != nil {
			return err
		}

		unread := lo.FilterMap(msgs, func(m Message, _ int) (MessageID, bool) {
			return m.ID, m.UnreadFor(viewer)
		})
		if len(unread) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := tx.MarkRead(ctx, viewer, unread); err != nil {
				return err
			}
			for i := range msgs {
				if msgs[i].ReceiverID == viewer {
					msgs[i].IsRead = true
				}
			}
		}
		thread = msgs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return thread, nil
}
