// Package memstore is an in-memory repo.Store. Transactions run one at a
// time against a copy of the state that replaces the live state on commit.
// It enforces the same unique, foreign key and check constraints as the
// PostgreSQL schema.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

type state struct {
	users         map[uuid.UUID]repo.User
	faculties     map[uuid.UUID]repo.Faculty
	chairs        map[uuid.UUID]repo.Chair
	treatments    map[uuid.UUID]repo.Treatment
	subclasses    map[uuid.UUID]repo.TreatmentSubclass
	options       map[uuid.UUID]repo.TreatmentSubclassOption
	patients      map[uuid.UUID]repo.Patient
	odontograms   map[uuid.UUID]repo.Odontogram
	teeth         map[uuid.UUID]repo.OdontogramTooth
	procedures    map[uuid.UUID]repo.PatientProcedure
	assignments   map[uuid.UUID]repo.Assignment
	sessions      map[uuid.UUID]repo.TreatmentSession
	photos        map[uuid.UUID]repo.ProcedurePhoto
	audits        []repo.Audit
	notifications map[uuid.UUID]repo.Notification
	devices       map[uuid.UUID]repo.UserDevice
	ads           map[uuid.UUID]repo.Ad
}

func newState() *state {
	return &state{
		users:         map[uuid.UUID]repo.User{},
		faculties:     map[uuid.UUID]repo.Faculty{},
		chairs:        map[uuid.UUID]repo.Chair{},
		treatments:    map[uuid.UUID]repo.Treatment{},
		subclasses:    map[uuid.UUID]repo.TreatmentSubclass{},
		options:       map[uuid.UUID]repo.TreatmentSubclassOption{},
		patients:      map[uuid.UUID]repo.Patient{},
		odontograms:   map[uuid.UUID]repo.Odontogram{},
		teeth:         map[uuid.UUID]repo.OdontogramTooth{},
		procedures:    map[uuid.UUID]repo.PatientProcedure{},
		assignments:   map[uuid.UUID]repo.Assignment{},
		sessions:      map[uuid.UUID]repo.TreatmentSession{},
		photos:        map[uuid.UUID]repo.ProcedurePhoto{},
		notifications: map[uuid.UUID]repo.Notification{},
		devices:       map[uuid.UUID]repo.UserDevice{},
		ads:           map[uuid.UUID]repo.Ad{},
	}
}

// clone copies every table. Rows are stored by value so a shallow map copy
// isolates the transaction from the live state.
func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		faculties:     maps.Clone(s.faculties),
		chairs:        maps.Clone(s.chairs),
		treatments:    maps.Clone(s.treatments),
		subclasses:    maps.Clone(s.subclasses),
		options:       maps.Clone(s.options),
		patients:      maps.Clone(s.patients),
		odontograms:   maps.Clone(s.odontograms),
		teeth:         maps.Clone(s.teeth),
		procedures:    maps.Clone(s.procedures),
		assignments:   maps.Clone(s.assignments),
		sessions:      maps.Clone(s.sessions),
		photos:        maps.Clone(s.photos),
		audits:        slices.Clone(s.audits),
		notifications: maps.Clone(s.notifications),
		devices:       maps.Clone(s.devices),
		ads:           maps.Clone(s.ads),
	}
}

// Store is safe for concurrent use.
type Store struct {
	*queries
	mu sync.Mutex
	st *state
}

var _ repo.Store = (*Store)(nil)

func New() *Store {
	s := &Store{st: newState()}
	s.queries = &queries{s: s}
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(q repo.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&queries{s: s, st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Close() error { return nil }

// queries implements repo.Queries. Outside a transaction (st == nil) every
// call takes the store lock and works on the live state.
type queries struct {
	s  *Store
	st *state
}

func (q *queries) lock() func() {
	if q.st != nil {
		return func() {}
	}
	q.s.mu.Lock()
	return q.s.mu.Unlock
}

func (q *queries) state() *state {
	if q.st != nil {
		return q.st
	}
	return q.s.st
}

func ptr[T any](v T) *T { return &v }

func newID(id uuid.UUID) uuid.UUID {
	if id != uuid.Nil {
		return id
	}
	return uuid.Must(uuid.NewV7())
}

func now() time.Time { return time.Now().UTC() }

func stamp(created, updated *time.Time) {
	t := now()
	if created != nil && created.IsZero() {
		*created = t
	}
	if updated != nil {
		*updated = t
	}
}

func unique(name string) error {
	return repo.NewConstraintError(repo.ConstraintUnique, name, nil)
}

func foreignKey(name string) error {
	return repo.NewConstraintError(repo.ConstraintForeignKey, name, nil)
}

// collect copies the rows accepted by keep and sorts them with less.
func collect[T any](rows map[uuid.UUID]T, keep func(T) bool, less func(a, b T) bool) []*T {
	out := make([]*T, 0)
	for _, r := range rows {
		if keep == nil || keep(r) {
			out = append(out, ptr(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(*out[i], *out[j]) })
	return out
}

func paginate[T any](items []*T, p repo.Page) []*T {
	if p.Offset > 0 {
		if p.Offset >= len(items) {
			return []*T{}
		}
		items = items[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func byTime(a, b time.Time, ida, idb uuid.UUID) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return ida.String() < idb.String()
}
