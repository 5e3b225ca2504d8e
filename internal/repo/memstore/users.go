package memstore

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func (q *queries) CreateUser(ctx context.Context, u *repo.User) error {
	defer q.lock()()
	st := q.state()

	u.ID = newID(u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, other := range st.users {
		if other.Email == u.Email {
			return unique(repo.UniqueUserEmail)
		}
	}
	if u.FacultyID != nil {
		if _, ok := st.faculties[*u.FacultyID]; !ok {
			return foreignKey("users_faculty_id_fkey")
		}
	}
	stamp(&u.CreatedAt, &u.UpdatedAt)
	st.users[u.ID] = *u
	return nil
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	defer q.lock()()
	u, ok := q.state().users[id]
	if !ok {
		return nil, repo.NewNotFoundError("user")
	}
	return &u, nil
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*repo.User, error) {
	defer q.lock()()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range q.state().users {
		if u.Email == email {
			return ptr(u), nil
		}
	}
	return nil, repo.NewNotFoundError("user")
}

func (q *queries) ListUsers(ctx context.Context, f repo.UserFilter) ([]*repo.User, int, error) {
	defer q.lock()()
	list := collect(q.state().users, func(u repo.User) bool {
		if f.Role != nil && u.Role != *f.Role {
			return false
		}
		if f.FacultyID != nil && (u.FacultyID == nil || *u.FacultyID != *f.FacultyID) {
			return false
		}
		return true
	}, func(a, b repo.User) bool {
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	})
	return paginate(list, f.Page), len(list), nil
}

func (q *queries) UpdateUser(ctx context.Context, u *repo.User) error {
	defer q.lock()()
	st := q.state()
	cur, ok := st.users[u.ID]
	if !ok {
		return repo.NewNotFoundError("user")
	}
	stamp(nil, &u.UpdatedAt)
	u.Email = cur.Email
	u.CreatedAt = cur.CreatedAt
	st.users[u.ID] = *u
	return nil
}

func (q *queries) CreateFaculty(ctx context.Context, f *repo.Faculty) error {
	defer q.lock()()
	st := q.state()
	for _, other := range st.faculties {
		if other.Name == f.Name {
			return unique(repo.UniqueFacultyName)
		}
	}
	f.ID = newID(f.ID)
	stamp(&f.CreatedAt, nil)
	st.faculties[f.ID] = *f
	return nil
}

func (q *queries) GetFaculty(ctx context.Context, id uuid.UUID) (*repo.Faculty, error) {
	defer q.lock()()
	f, ok := q.state().faculties[id]
	if !ok {
		return nil, repo.NewNotFoundError("faculty")
	}
	return &f, nil
}

func (q *queries) ListFaculties(ctx context.Context) ([]*repo.Faculty, error) {
	defer q.lock()()
	return collect(q.state().faculties, nil, func(a, b repo.Faculty) bool { return a.Name < b.Name }), nil
}
