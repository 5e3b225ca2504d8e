package memstore

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func (q *queries) CreateNotification(ctx context.Context, n *repo.Notification) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.users[n.UserID]; !ok {
		return foreignKey("notifications_user_id_fkey")
	}
	n.ID = newID(n.ID)
	stamp(&n.CreatedAt, nil)
	row := *n
	row.Data = maps.Clone(n.Data)
	st.notifications[n.ID] = row
	return nil
}

func (q *queries) ListNotifications(ctx context.Context, f repo.NotificationFilter) ([]*repo.Notification, int, error) {
	defer q.lock()()
	list := collect(q.state().notifications, func(n repo.Notification) bool {
		return n.UserID == f.UserID && (!f.UnreadOnly || !n.IsRead)
	}, func(a, b repo.Notification) bool {
		return byTime(b.CreatedAt, a.CreatedAt, b.ID, a.ID)
	})
	return paginate(list, f.Page), len(list), nil
}

func (q *queries) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	defer q.lock()()
	st := q.state()
	n, ok := st.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	st.notifications[id] = n
	return true, nil
}

func (q *queries) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	defer q.lock()()
	st := q.state()
	count := 0
	for id, n := range st.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			st.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (q *queries) UpsertDevice(ctx context.Context, d *repo.UserDevice) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.users[d.UserID]; !ok {
		return foreignKey("user_devices_user_id_fkey")
	}
	d.IsActive = true
	for id, other := range st.devices {
		if other.DeviceToken == d.DeviceToken {
			other.UserID = d.UserID
			other.Platform = d.Platform
			other.IsActive = true
			st.devices[id] = other
			*d = other
			return nil
		}
	}
	d.ID = newID(d.ID)
	stamp(&d.CreatedAt, nil)
	st.devices[d.ID] = *d
	return nil
}

func (q *queries) DeleteDevice(ctx context.Context, userID uuid.UUID, token string) error {
	defer q.lock()()
	st := q.state()
	for id, d := range st.devices {
		if d.UserID == userID && d.DeviceToken == token {
			delete(st.devices, id)
			return nil
		}
	}
	return repo.NewNotFoundError("user device")
}

func (q *queries) ListDevices(ctx context.Context, userID uuid.UUID) ([]*repo.UserDevice, error) {
	defer q.lock()()
	return collect(q.state().devices, func(d repo.UserDevice) bool {
		return d.UserID == userID && d.IsActive
	}, func(a, b repo.UserDevice) bool { return byTime(a.CreatedAt, b.CreatedAt, a.ID, b.ID) }), nil
}

func (q *queries) CreateAd(ctx context.Context, a *repo.Ad) error {
	defer q.lock()()
	a.ID = newID(a.ID)
	stamp(&a.CreatedAt, nil)
	if a.StartsAt.IsZero() {
		a.StartsAt = a.CreatedAt
	}
	q.state().ads[a.ID] = *a
	return nil
}

func (q *queries) GetAd(ctx context.Context, id uuid.UUID) (*repo.Ad, error) {
	defer q.lock()()
	a, ok := q.state().ads[id]
	if !ok {
		return nil, repo.NewNotFoundError("ad")
	}
	return &a, nil
}

func (q *queries) DeleteAd(ctx context.Context, id uuid.UUID) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.ads[id]; !ok {
		return repo.NewNotFoundError("ad")
	}
	delete(st.ads, id)
	return nil
}

func (q *queries) ListActiveAds(ctx context.Context, at time.Time) ([]*repo.Ad, error) {
	defer q.lock()()
	return collect(q.state().ads, func(a repo.Ad) bool {
		return a.IsActive && !a.StartsAt.After(at) && (a.EndsAt == nil || a.EndsAt.After(at))
	}, func(a, b repo.Ad) bool { return byTime(b.StartsAt, a.StartsAt, b.ID, a.ID) }), nil
}
