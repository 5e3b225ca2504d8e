package repo

import (
	"context"
	"database/sql"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var userColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "role",
	"faculty_id", "student_code", "is_active", "created_at", "updated_at",
}

func scanUser(rs rowScanner) (*User, error) {
	var (
		u       User
		faculty uuid.NullUUID
		code    sql.NullString
	)
	if err := rs.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&faculty, &code, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.FacultyID = uuidPtr(faculty)
	u.StudentCode = stringPtr(code)
	return &u, nil
}

func (c *Client) CreateUser(ctx context.Context, u *User) error {
	u.ID = newID(u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	stamp(&u.CreatedAt, &u.UpdatedAt)
	_, err := c.exec(ctx, builder().Insert(TableUsers).Columns(userColumns...).Values(
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.FacultyID, u.StudentCode, u.IsActive, u.CreatedAt, u.UpdatedAt,
	))
	return err
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return queryOne(ctx, c, "user", selectFrom(TableUsers, userColumns).Where(entsql.EQ("id", id)), scanUser)
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	sel := selectFrom(TableUsers, userColumns).Where(entsql.EQ("email", strings.ToLower(strings.TrimSpace(email))))
	return queryOne(ctx, c, "user", sel, scanUser)
}

func userPredicate(f UserFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Role != nil {
		preds = append(preds, entsql.EQ("role", *f.Role))
	}
	if f.FacultyID != nil {
		preds = append(preds, entsql.EQ("faculty_id", *f.FacultyID))
	}
	return and(preds)
}

func (c *Client) ListUsers(ctx context.Context, f UserFilter) ([]*User, int, error) {
	total, err := c.count(ctx, TableUsers, userPredicate(f))
	if err != nil {
		return nil, 0, err
	}
	sel := where(selectFrom(TableUsers, userColumns), userPredicate(f)).OrderBy("last_name", "first_name")
	users, err := queryAll(ctx, c, paginate(sel, f.Page), scanUser)
	return users, total, err
}

func (c *Client) UpdateUser(ctx context.Context, u *User) error {
	stamp(nil, &u.UpdatedAt)
	n, err := c.exec(ctx, builder().Update(TableUsers).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("password_hash", u.PasswordHash).
		Set("role", u.Role).
		Set("faculty_id", u.FacultyID).
		Set("student_code", u.StudentCode).
		Set("is_active", u.IsActive).
		Set("updated_at", u.UpdatedAt).
		Where(entsql.EQ("id", u.ID)))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("user")
	}
	return nil
}

var facultyColumns = []string{"id", "name", "created_at"}

func scanFaculty(rs rowScanner) (*Faculty, error) {
	var f Faculty
	if err := rs.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) CreateFaculty(ctx context.Context, f *Faculty) error {
	f.ID = newID(f.ID)
	stamp(&f.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableFaculties).Columns(facultyColumns...).Values(f.ID, f.Name, f.CreatedAt))
	return err
}

func (c *Client) GetFaculty(ctx context.Context, id uuid.UUID) (*Faculty, error) {
	return queryOne(ctx, c, "faculty", selectFrom(TableFaculties, facultyColumns).Where(entsql.EQ("id", id)), scanFaculty)
}

func (c *Client) ListFaculties(ctx context.Context) ([]*Faculty, error) {
	return queryAll(ctx, c, selectFrom(TableFaculties, facultyColumns).OrderBy("name"), scanFaculty)
}
