package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func (q *queries) CreateChair(ctx context.Context, c *repo.Chair) error {
	defer q.lock()()
	st := q.state()
	for _, other := range st.chairs {
		if other.Name == c.Name {
			return unique(repo.UniqueChairName)
		}
	}
	c.ID = newID(c.ID)
	stamp(&c.CreatedAt, nil)
	st.chairs[c.ID] = *c
	return nil
}

func (q *queries) GetChair(ctx context.Context, id uuid.UUID) (*repo.Chair, error) {
	defer q.lock()()
	c, ok := q.state().chairs[id]
	if !ok {
		return nil, repo.NewNotFoundError("chair")
	}
	return &c, nil
}

func (q *queries) ListChairs(ctx context.Context) ([]*repo.Chair, error) {
	defer q.lock()()
	return collect(q.state().chairs, nil, func(a, b repo.Chair) bool { return a.Name < b.Name }), nil
}

func (q *queries) CreateTreatment(ctx context.Context, t *repo.Treatment) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.chairs[t.ChairID]; !ok {
		return foreignKey("treatments_chair_id_fkey")
	}
	for _, other := range st.treatments {
		if other.Code == t.Code {
			return unique(repo.UniqueTreatmentCode)
		}
	}
	t.ID = newID(t.ID)
	stamp(&t.CreatedAt, nil)
	st.treatments[t.ID] = *t
	return nil
}

func (q *queries) GetTreatment(ctx context.Context, id uuid.UUID) (*repo.Treatment, error) {
	defer q.lock()()
	t, ok := q.state().treatments[id]
	if !ok {
		return nil, repo.NewNotFoundError("treatment")
	}
	return &t, nil
}

func (q *queries) ListTreatments(ctx context.Context, f repo.TreatmentFilter) ([]*repo.Treatment, error) {
	defer q.lock()()
	return collect(q.state().treatments, func(t repo.Treatment) bool {
		return f.ChairID == nil || t.ChairID == *f.ChairID
	}, func(a, b repo.Treatment) bool { return a.Code < b.Code }), nil
}

func (q *queries) CreateSubclass(ctx context.Context, s *repo.TreatmentSubclass) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.treatments[s.TreatmentID]; !ok {
		return foreignKey("treatment_subclasses_treatment_id_fkey")
	}
	for _, other := range st.subclasses {
		if other.TreatmentID == s.TreatmentID && other.Name == s.Name {
			return unique(repo.UniqueSubclassName)
		}
	}
	s.ID = newID(s.ID)
	stamp(&s.CreatedAt, nil)
	st.subclasses[s.ID] = *s
	return nil
}

func (q *queries) ListSubclasses(ctx context.Context, treatmentID uuid.UUID) ([]*repo.TreatmentSubclass, error) {
	defer q.lock()()
	return collect(q.state().subclasses, func(s repo.TreatmentSubclass) bool {
		return s.TreatmentID == treatmentID
	}, func(a, b repo.TreatmentSubclass) bool { return a.Name < b.Name }), nil
}

func (q *queries) CreateOption(ctx context.Context, o *repo.TreatmentSubclassOption) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.treatments[o.TreatmentID]; !ok {
		return foreignKey("treatment_subclass_options_treatment_id_fkey")
	}
	if o.SubclassID != nil {
		if _, ok := st.subclasses[*o.SubclassID]; !ok {
			return foreignKey("treatment_subclass_options_subclass_id_fkey")
		}
	}
	o.ID = newID(o.ID)
	stamp(&o.CreatedAt, nil)
	st.options[o.ID] = *o
	return nil
}

func (q *queries) GetOption(ctx context.Context, id uuid.UUID) (*repo.TreatmentSubclassOption, error) {
	defer q.lock()()
	o, ok := q.state().options[id]
	if !ok {
		return nil, repo.NewNotFoundError("treatment option")
	}
	return &o, nil
}

func (q *queries) ListOptions(ctx context.Context, treatmentID uuid.UUID) ([]*repo.TreatmentSubclassOption, error) {
	defer q.lock()()
	return collect(q.state().options, func(o repo.TreatmentSubclassOption) bool {
		return o.TreatmentID == treatmentID
	}, func(a, b repo.TreatmentSubclassOption) bool { return a.Name < b.Name }), nil
}
