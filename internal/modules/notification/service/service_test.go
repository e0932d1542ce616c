package service

import (
	"context"
	"errors"
	"testing"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/modules/notification/dto"
	"github.com/IMRiesen/avitolike/internal/testutil/memstore"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/google/uuid"
)

func TestCreateNotification(t *testing.T) {
	store := memstore.New()
	svc := NewNotificationService(store.Notifications(), nil)
	userID := uuid.New()

	resp, err := svc.CreateNotification(context.Background(), dto.CreateNotificationRequest{
		UserID:  userID,
		Title:   "Hello",
		Message: "You have a message",
		Type:    entity.NotificationMessage,
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Icon != "✉️" || resp.IsRead {
		t.Fatalf("got %+v", resp)
	}
	if resp.CreatedAt != "2024-01-01T00:00:01" {
		t.Fatalf("createdAt = %q", resp.CreatedAt)
	}
	if n := store.NotificationsFor(userID); len(n) != 1 || n[0].ID != resp.ID {
		t.Fatalf("stored %+v", n)
	}
}

func TestGetNotificationsNewestFirstAndCapped(t *testing.T) {
	store := memstore.New()
	svc := NewNotificationService(store.Notifications(), nil)
	userID := uuid.New()

	batch := make([]*entity.Notification, 0, ListLimit+5)
	for i := 0; i < ListLimit+5; i++ {
		batch = append(batch, &entity.Notification{UserID: userID, Title: "t", Message: "m", Type: entity.NotificationFavorite})
	}
	if err := svc.NotifyMany(context.Background(), batch); err != nil {
		t.Fatal(err)
	}
	if err := svc.Notify(context.Background(), &entity.Notification{UserID: uuid.New(), Title: "other", Message: "m", Type: "x"}); err != nil {
		t.Fatal(err)
	}

	list, err := svc.GetNotifications(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != ListLimit {
		t.Fatalf("len = %d, want %d", len(list), ListLimit)
	}
	if list[0].ID != batch[len(batch)-1].ID {
		t.Fatal("expected newest notification first")
	}
	for _, n := range list {
		if n.UserID != userID {
			t.Fatalf("leaked notification for %s", n.UserID)
		}
	}
}

func TestMarkAsRead(t *testing.T) {
	store := memstore.New()
	svc := NewNotificationService(store.Notifications(), nil)
	owner, stranger := uuid.New(), uuid.New()

	n := &entity.Notification{UserID: owner, Title: "t", Message: "m", Type: entity.NotificationNewReview}
	if err := svc.Notify(context.Background(), n); err != nil {
		t.Fatal(err)
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, stranger); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("stranger err = %v, want not found", err)
	}
	if err := svc.MarkAsRead(context.Background(), uuid.New(), owner); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("missing err = %v, want not found", err)
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, owner); err != nil {
		t.Fatal(err)
	}
	count, err := svc.UnreadCount(context.Background(), owner)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("unread = %d", count)
	}
}

func TestMarkAllAsRead(t *testing.T) {
	store := memstore.New()
	svc := NewNotificationService(store.Notifications(), nil)
	userID, other := uuid.New(), uuid.New()

	for _, id := range []uuid.UUID{userID, userID, userID, other} {
		if err := svc.Notify(context.Background(), &entity.Notification{UserID: id, Title: "t", Message: "m", Type: entity.NotificationMessage}); err != nil {
			t.Fatal(err)
		}
	}

	if c, _ := svc.UnreadCount(context.Background(), userID); c != 3 {
		t.Fatalf("unread before = %d", c)
	}
	if err := svc.MarkAllAsRead(context.Background(), userID); err != nil {
		t.Fatal(err)
	}
	if c, _ := svc.UnreadCount(context.Background(), userID); c != 0 {
		t.Fatalf("unread after = %d", c)
	}
	if c, _ := svc.UnreadCount(context.Background(), other); c != 1 {
		t.Fatalf("other user's unread = %d, want untouched", c)
	}
}

func TestNotifyManyPropagatesFailure(t *testing.T) {
	store := memstore.New()
	store.NotificationErr = errors.New("db down")
	svc := NewNotificationService(store.Notifications(), nil)

	err := svc.NotifyMany(context.Background(), []*entity.Notification{{UserID: uuid.New(), Type: entity.NotificationPriceChange}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("7b0f6a52-0c31-4a43-9d8e-3f7c1b2a9e10")
	if got := Channel(id); got != "user_notifications:7b0f6a52-0c31-4a43-9d8e-3f7c1b2a9e10" {
		t.Fatalf("got %q", got)
	}
}
