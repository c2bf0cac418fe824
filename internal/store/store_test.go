package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"healthcare-messaging-server/internal/messaging"
	"healthcare-messaging-server/internal/models"
)

// setupTestDB opens a private in-memory SQLite database with the production
// migrations applied.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func appendAt(t *testing.T, s *MessageStore, from, to messaging.UserID, content string, at time.Time) messaging.Message {
	t.Helper()
	msg, err := s.Append(context.Background(), messaging.NewMessage{
		SenderID:   from,
		ReceiverID: to,
		Content:    content,
		SentAt:     at,
	})
	require.NoError(t, err)
	return msg
}

func Test_Append_Assigns_Increasing_IDs(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))

	first := appendAt(t, s, "A", "B", " hi ", base)
	second := appendAt(t, s, "B", "A", "hey", base)

	require.Greater(t, second.ID, first.ID)
	require.Equal(t, "hi", first.Content)
	require.False(t, first.IsRead)

	stored, err := s.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)
	require.True(t, base.Equal(stored.SentAt))
}

func Test_Append_Rejects_Invalid_Messages(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()

	for _, msg := range []messaging.NewMessage{
		{SenderID: "A", ReceiverID: "A", Content: "me", SentAt: base},
		{SenderID: "A", ReceiverID: "B", Content: "  ", SentAt: base},
		{SenderID: "A", ReceiverID: "", Content: "x", SentAt: base},
	} {
		_, err := s.Append(ctx, msg)
		require.ErrorIs(t, err, messaging.ErrInvalidInput)
	}

	var count int64
	require.NoError(t, s.db.Model(&models.Message{}).Count(&count).Error)
	require.Zero(t, count)
}

func Test_FindByID_Missing(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))

	_, err := s.FindByID(context.Background(), 42)
	require.ErrorIs(t, err, messaging.ErrNotFound)
}

func Test_FindBetween_Orders_By_Time_Then_ID(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()

	late := appendAt(t, s, "A", "B", "late", base.Add(time.Minute))
	m1 := appendAt(t, s, "A", "B", "m1", base)
	m2 := appendAt(t, s, "B", "A", "m2", base)
	appendAt(t, s, "A", "C", "other", base)

	thread, err := s.FindBetween(ctx, "B", "A")
	require.NoError(t, err)
	require.Len(t, thread, 3)
	require.Equal(t, []messaging.MessageID{m1.ID, m2.ID, late.ID},
		[]messaging.MessageID{thread[0].ID, thread[1].ID, thread[2].ID})

	none, err := s.FindBetween(ctx, "X", "Y")
	require.NoError(t, err)
	require.Empty(t, none)
}

func Test_MarkRead_Is_Scoped_And_Idempotent(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()

	toB := appendAt(t, s, "A", "B", "for b", base)
	toA := appendAt(t, s, "B", "A", "for a", base.Add(time.Second))

	changed, err := s.MarkRead(ctx, "B", []messaging.MessageID{toB.ID, toA.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, changed)

	changed, err = s.MarkRead(ctx, "B", []messaging.MessageID{toB.ID})
	require.NoError(t, err)
	require.Zero(t, changed)

	changed, err = s.MarkRead(ctx, "B", nil)
	require.NoError(t, err)
	require.Zero(t, changed)

	stillUnread, err := s.FindByID(ctx, toA.ID)
	require.NoError(t, err)
	require.False(t, stillUnread.IsRead)

	unreadA, err := s.CountUnread(ctx, "A")
	require.NoError(t, err)
	require.EqualValues(t, 1, unreadA)
	unreadB, err := s.CountUnread(ctx, "B")
	require.NoError(t, err)
	require.Zero(t, unreadB)
}

func Test_FindSince(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))

	appendAt(t, s, "A", "B", "old", base)
	fresh := appendAt(t, s, "B", "A", "fresh", base.Add(time.Hour))
	appendAt(t, s, "C", "D", "unrelated", base.Add(time.Hour))

	msgs, err := s.FindSince(context.Background(), "A", base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, fresh.ID, msgs[0].ID)
}

func Test_Atomically_Rolls_Back_On_Error(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	msg := appendAt(t, s, "A", "B", "x", base)

	err := s.Atomically(ctx, func(tx messaging.Store) error {
		if _, err := tx.MarkRead(ctx, "B", []messaging.MessageID{msg.ID}); err != nil {
			return err
		}
		return messaging.ErrForbidden
	})
	require.ErrorIs(t, err, messaging.ErrForbidden)

	stored, err := s.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.False(t, stored.IsRead)
}

func Test_Service_Over_Relational_Store(t *testing.T) {
	db := setupTestDB(t)
	directory := NewUserDirectory(db)
	doctor := models.User{Email: "house@example.com", FirstName: "Gregory", LastName: "House", Role: models.RoleDoctor}
	require.NoError(t, db.Create(&doctor).Error)
	patient := messaging.UserID("patient-1")

	svc := messaging.NewService(NewMessageStore(db), directory, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := svc.Send(ctx, messaging.UserID(doctor.ID), patient, "hello")
	require.NoError(t, err)

	inbox, err := svc.ListConversations(ctx, patient)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, 1, inbox[0].UnreadCount)
	require.NotNil(t, inbox[0].Counterpart)
	require.Equal(t, "House", inbox[0].Counterpart.LastName)
	require.Equal(t, string(models.RoleDoctor), inbox[0].Counterpart.Role)

	thread, err := svc.OpenConversation(ctx, patient, messaging.UserID(doctor.ID))
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	require.True(t, thread.Messages[0].IsRead)

	inbox, err = svc.ListConversations(ctx, patient)
	require.NoError(t, err)
	require.Equal(t, 0, inbox[0].UnreadCount)

	doctorInbox, err := svc.ListConversations(ctx, messaging.UserID(doctor.ID))
	require.NoError(t, err)
	require.Len(t, doctorInbox, 1)
	require.Nil(t, doctorInbox[0].Counterpart)
}

func Test_Concurrent_Appends_And_Opens(t *testing.T) {
	s := NewMessageStore(setupTestDB(t))
	ctx := context.Background()
	readState := messaging.NewReadState(s)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(ctx, messaging.NewMessage{
				SenderID: "A", ReceiverID: "B", Content: "burst", SentAt: base.Add(time.Duration(i) * time.Second),
			})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := readState.Open(ctx, "B", "A")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	thread, err := readState.Open(ctx, "B", "A")
	require.NoError(t, err)
	require.Len(t, thread, 10)
	unread, err := s.CountUnread(ctx, "B")
	require.NoError(t, err)
	require.Zero(t, unread)
}

func Test_UserDirectory_Unknown_User(t *testing.T) {
	directory := NewUserDirectory(setupTestDB(t))

	_, err := directory.LookupUser(context.Background(), "missing")
	require.ErrorIs(t, err, messaging.ErrNotFound)
}
