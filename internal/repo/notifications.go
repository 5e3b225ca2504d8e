package repo

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var notificationColumns = []string{"id", "user_id", "type", "title", "body", "data", "is_read", "created_at"}

func scanNotification(rs rowScanner) (*Notification, error) {
	var (
		n    Notification
		data []byte
	)
	if err := rs.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &data, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	m, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	n.Data = m
	return &n, nil
}

func (c *Client) CreateNotification(ctx context.Context, n *Notification) error {
	n.ID = newID(n.ID)
	stamp(&n.CreatedAt, nil)
	data, err := jsonText(n.Data)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, builder().Insert(TableNotifications).Columns(notificationColumns...).
		Values(n.ID, n.UserID, n.Type, n.Title, n.Body, data, n.IsRead, n.CreatedAt))
	return err
}

func notificationPredicate(f NotificationFilter) *entsql.Predicate {
	preds := []*entsql.Predicate{entsql.EQ("user_id", f.UserID)}
	if f.UnreadOnly {
		preds = append(preds, entsql.EQ("is_read", false))
	}
	return and(preds)
}

func (c *Client) ListNotifications(ctx context.Context, f NotificationFilter) ([]*Notification, int, error) {
	total, err := c.count(ctx, TableNotifications, notificationPredicate(f))
	if err != nil {
		return nil, 0, err
	}
	sel := selectFrom(TableNotifications, notificationColumns).
		Where(notificationPredicate(f)).
		OrderBy(entsql.Desc("created_at"))
	list, err := queryAll(ctx, c, paginate(sel, f.Page), scanNotification)
	return list, total, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	n, err := c.exec(ctx, builder().Update(TableNotifications).
		Set("is_read", true).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID))))
	return n == 1, err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := c.exec(ctx, builder().Update(TableNotifications).
		Set("is_read", true).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("is_read", false))))
	return int(n), err
}

var deviceColumns = []string{"id", "user_id", "device_token", "platform", "is_active", "created_at"}

func scanDevice(rs rowScanner) (*UserDevice, error) {
	var d UserDevice
	if err := rs.Scan(&d.ID, &d.UserID, &d.DeviceToken, &d.Platform, &d.IsActive, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDevice registers a token, moving it to the new user when it was
// already registered.
func (c *Client) UpsertDevice(ctx context.Context, d *UserDevice) error {
	d.ID = newID(d.ID)
	d.IsActive = true
	stamp(&d.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableUserDevices).Columns(deviceColumns...).
		Values(d.ID, d.UserID, d.DeviceToken, d.Platform, d.IsActive, d.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("device_token"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("user_id")
				u.SetExcluded("platform")
				u.SetExcluded("is_active")
			}),
		))
	return err
}

func (c *Client) DeleteDevice(ctx context.Context, userID uuid.UUID, token string) error {
	n, err := c.exec(ctx, builder().Delete(TableUserDevices).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("device_token", token))))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("user device")
	}
	return nil
}

func (c *Client) ListDevices(ctx context.Context, userID uuid.UUID) ([]*UserDevice, error) {
	sel := selectFrom(TableUserDevices, deviceColumns).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("is_active", true)))
	return queryAll(ctx, c, sel, scanDevice)
}

var adColumns = []string{"id", "title", "body", "image_key", "starts_at", "ends_at", "is_active", "created_by", "created_at"}

func scanAd(rs rowScanner) (*Ad, error) {
	var (
		a         Ad
		image     sql.NullString
		ends      sql.NullTime
		createdBy uuid.NullUUID
	)
	if err := rs.Scan(&a.ID, &a.Title, &a.Body, &image, &a.StartsAt, &ends, &a.IsActive, &createdBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ImageKey = stringPtr(image)
	a.EndsAt = timePtr(ends)
	a.CreatedBy = uuidPtr(createdBy)
	return &a, nil
}

func (c *Client) CreateAd(ctx context.Context, a *Ad) error {
	a.ID = newID(a.ID)
	stamp(&a.CreatedAt, nil)
	if a.StartsAt.IsZero() {
		a.StartsAt = a.CreatedAt
	}
	_, err := c.exec(ctx, builder().Insert(TableAds).Columns(adColumns...).
		Values(a.ID, a.Title, a.Body, a.ImageKey, a.StartsAt, a.EndsAt, a.IsActive, a.CreatedBy, a.CreatedAt))
	return err
}

func (c *Client) GetAd(ctx context.Context, id uuid.UUID) (*Ad, error) {
	return queryOne(ctx, c, "ad", selectFrom(TableAds, adColumns).Where(entsql.EQ("id", id)), scanAd)
}

func (c *Client) DeleteAd(ctx context.Context, id uuid.UUID) error {
	n, err := c.exec(ctx, builder().Delete(TableAds).Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("ad")
	}
	return nil
}

func (c *Client) ListActiveAds(ctx context.Context, at time.Time) ([]*Ad, error) {
	sel := selectFrom(TableAds, adColumns).Where(entsql.And(
		entsql.EQ("is_active", true),
		entsql.LTE("starts_at", at),
		entsql.Or(entsql.IsNull("ends_at"), entsql.GT("ends_at", at)),
	)).OrderBy(entsql.Desc("starts_at"))
	return queryAll(ctx, c, sel, scanAd)
}
