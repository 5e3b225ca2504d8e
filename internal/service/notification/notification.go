package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/pkg/push"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

// tokenGone is the provider error for an uninstalled app.
const tokenGone = "NotRegistered"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// NotifyRequest is one in-app notification fanned out to several users.
type NotifyRequest struct {
	UserIDs []uuid.UUID
	Type    string
	Title   string
	Body    string
	Data    map[string]string
}

type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token" validate:"notblank,max=512"`
	Platform    string `json:"platform" validate:"required,oneof=web android ios"`
}

type BroadcastRequest struct {
	Topic string            `json:"topic" validate:"notblank,max=100"`
	Title string            `json:"title" validate:"notblank,max=200"`
	Body  string            `json:"body" validate:"max=2000"`
	Data  map[string]string `json:"data"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Notify stores a notification per user and pushes it to their devices.
	// Push failures are logged, never returned.
	Notify(ctx context.Context, req NotifyRequest) ([]*repo.Notification, error)
	List(ctx context.Context, p domain.Principal, unreadOnly bool, page repo.Page) ([]*repo.Notification, int, error)
	MarkRead(ctx context.Context, p domain.Principal, id uuid.UUID) error
	MarkAllRead(ctx context.Context, p domain.Principal) (int, error)
	RegisterDevice(ctx context.Context, p domain.Principal, req RegisterDeviceRequest) (*repo.UserDevice, error)
	RemoveDevice(ctx context.Context, p domain.Principal, token string) error
	Broadcast(ctx context.Context, p domain.Principal, req BroadcastRequest) (string, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	db   repo.Store
	push push.Sender
}

func New(db repo.Store, sender push.Sender) Service {
	return &notificationService{db: db, push: sender}
}

func (s *notificationService) Notify(ctx context.Context, req NotifyRequest) ([]*repo.Notification, error) {
	data := make(map[string]any, len(req.Data))
	for k, v := range req.Data {
		data[k] = v
	}

	out := make([]*repo.Notification, 0, len(req.UserIDs))
	seen := map[uuid.UUID]bool{}
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		for _, uid := range req.UserIDs {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			n := &repo.Notification{UserID: uid, Type: req.Type, Title: req.Title, Body: req.Body, Data: data}
			if err := q.CreateNotification(ctx, n); err != nil {
				return fmt.Errorf("create notification: %w", err)
			}
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := push.Message{Title: req.Title, Body: req.Body, Data: req.Data}
	for _, n := range out {
		s.pushTo(ctx, n.UserID, msg)
	}
	return out, nil
}

func (s *notificationService) pushTo(ctx context.Context, userID uuid.UUID, msg push.Message) {
	devices, err := s.db.ListDevices(ctx, userID)
	if err != nil {
		slog.Warn("push: failed to list devices", "user_id", userID, "error", err)
		return
	}
	if len(devices) == 0 {
		return
	}
	tokens := make([]string, len(devices))
	for i, d := range devices {
		tokens[i] = d.DeviceToken
	}

	results, err := s.push.Send(ctx, tokens, msg)
	if err != nil {
		slog.Warn("push: delivery failed", "user_id", userID, "devices", len(tokens), "error", err)
		return
	}
	for _, r := range results {
		if r.OK() {
			continue
		}
		slog.Warn("push: token rejected", "user_id", userID, "error", r.Err)
		if r.Err == tokenGone {
			if err := s.db.DeleteDevice(ctx, userID, r.Token); err != nil && !repo.IsNotFound(err) {
				slog.Warn("push: failed to drop stale device", "user_id", userID, "error", err)
			}
		}
	}
}

func (s *notificationService) List(ctx context.Context, p domain.Principal, unreadOnly bool, page repo.Page) ([]*repo.Notification, int, error) {
	return s.db.ListNotifications(ctx, repo.NotificationFilter{UserID: p.UserID, UnreadOnly: unreadOnly, Page: page})
}

func (s *notificationService) MarkRead(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	ok, err := s.db.MarkNotificationRead(ctx, p.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, p domain.Principal) (int, error) {
	return s.db.MarkAllNotificationsRead(ctx, p.UserID)
}

func (s *notificationService) RegisterDevice(ctx context.Context, p domain.Principal, req RegisterDeviceRequest) (*repo.UserDevice, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	d := &repo.UserDevice{
		UserID:      p.UserID,
		DeviceToken: strings.TrimSpace(req.DeviceToken),
		Platform:    req.Platform,
	}
	if err := s.db.UpsertDevice(ctx, d); err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}
	return d, nil
}

func (s *notificationService) RemoveDevice(ctx context.Context, p domain.Principal, token string) error {
	if err := s.db.DeleteDevice(ctx, p.UserID, token); err != nil {
		if repo.IsNotFound(err) {
			return ErrDeviceNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) Broadcast(ctx context.Context, p domain.Principal, req BroadcastRequest) (string, error) {
	if p.Role != domain.RoleAdmin {
		return "", ErrAdminOnly
	}
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	id, err := s.push.SendTopic(ctx, strings.TrimSpace(req.Topic), push.Message{Title: req.Title, Body: req.Body, Data: req.Data})
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}
	return id, nil
}
