package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/modules/notification/dto"
	notifRepo "github.com/IMRiesen/avitolike/internal/modules/notification/repository"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ListLimit caps how many notifications a user sees at once.
const ListLimit = 50

// Channel is the redis pub/sub channel carrying a user's live notifications.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationService interface {
	CreateNotification(ctx context.Context, req dto.CreateNotificationRequest) (*dto.NotificationResponse, error)
	// Notify and NotifyMany are used by other modules for side-effect fan-out.
	Notify(ctx context.Context, notification *entity.Notification) error
	NotifyMany(ctx context.Context, notifications []*entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, req dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	n := &entity.Notification{
		UserID:    req.UserID,
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		RelatedID: req.RelatedID,
	}
	if err := s.Notify(ctx, n); err != nil {
		return nil, err
	}

	resp := dto.FromEntity(n)
	return &resp, nil
}

func (s *notificationService) Notify(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("save notification: %w", apperror.FromDB(err))
	}
	s.publish(ctx, notification)
	return nil
}

func (s *notificationService) NotifyMany(ctx context.Context, notifications []*entity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("save notifications: %w", apperror.FromDB(err))
	}
	for _, n := range notifications {
		s.publish(ctx, n)
	}
	return nil
}

// publish pushes to live subscribers. The stored row is authoritative, so
// failures are only logged.
func (s *notificationService) publish(ctx context.Context, n *entity.Notification) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(dto.FromEntity(n))
	if err != nil {
		logrus.WithError(err).Warn("marshal notification")
		return
	}
	if err := s.redisClient.Publish(ctx, Channel(n.UserID), payload).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", n.UserID).Warn("publish notification")
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.FindByUserID(ctx, userID, ListLimit)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, dto.FromEntity(n))
	}
	return resp, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	affected, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notification not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
