package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewClient(entsql.OpenDB(dialect.Postgres, db)), mock
}

func TestGetProcedure(t *testing.T) {
	c, mock := newMockClient(t)
	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(procedureColumns).AddRow(
		id.String(), uuid.NewString(), uuid.NewString(), uuid.NewString(), nil, int64(16), "O",
		nil, "disponible", false, "", nil, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "patient_procedures" WHERE "id" = $1`)).
		WithArgs(id).
		WillReturnRows(rows)

	p, err := c.GetProcedure(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, domain.ProcedureDisponible, p.Status)
	require.NotNil(t, p.ToothFDI)
	assert.Equal(t, 16, *p.ToothFDI)
	assert.Equal(t, "O", p.Surface)
	assert.Nil(t, p.OdontogramID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProcedureNotFound(t *testing.T) {
	c, mock := newMockClient(t)
	mock.ExpectQuery(`FROM "patient_procedures"`).WillReturnRows(sqlmock.NewRows(procedureColumns))

	_, err := c.GetProcedure(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClaimProcedure(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"claimed", 1, true},
		{"lost the race", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newMockClient(t)
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "patient_procedures" SET "status" = $1`)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := c.ClaimProcedure(context.Background(), uuid.New())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListPatientsCountsThenPages(t *testing.T) {
	c, mock := newMockClient(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "patients"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	rows := sqlmock.NewRows(patientColumns).AddRow(
		uuid.NewString(), nil, nil, "Ana", "Paz", "DNI", "123",
		nil, "F", "", "", "",
		false, false, false, false, false,
		false, false, "", "", "",
		nil, now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM "patients" .*ORDER BY "last_name", "first_name" LIMIT 1 OFFSET 2`).
		WillReturnRows(rows)

	list, total, err := c.ListPatients(context.Background(), PatientFilter{Page: Page{Limit: 1, Offset: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateConstraintErrors(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
		kind error
	}{
		{"unique", "23505", apperr.ErrConflict},
		{"foreign key", "23503", apperr.ErrNotFound},
		{"check", "23514", apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newMockClient(t)
			mock.ExpectExec(`INSERT INTO "users"`).
				WillReturnError(&pq.Error{Code: tt.code, Constraint: UniqueUserEmail})

			err := c.CreateUser(context.Background(), &User{Email: "a@b.c", Role: domain.RoleAdmin})
			require.Error(t, err)
			assert.True(t, IsConstraintError(err))
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestWithTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		c, mock := newMockClient(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "patient_procedures"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "assignments"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := c.WithTx(context.Background(), func(q Queries) error {
			if _, err := q.ClaimProcedure(context.Background(), uuid.New()); err != nil {
				return err
			}
			return q.CreateAssignment(context.Background(), &Assignment{PatientProcedureID: uuid.New(), StudentID: uuid.New()})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		c, mock := newMockClient(t)
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := c.WithTx(context.Background(), func(q Queries) error { return boom })
		require.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested runs in the outer transaction", func(t *testing.T) {
		c, mock := newMockClient(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := c.WithTx(context.Background(), func(q Queries) error {
			return q.(*Client).WithTx(context.Background(), func(Queries) error { return nil })
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertDeviceUsesOnConflict(t *testing.T) {
	c, mock := newMockClient(t)
	mock.ExpectExec(`INSERT INTO "user_devices" .* ON CONFLICT \("device_token"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := c.UpsertDevice(context.Background(), &UserDevice{UserID: uuid.New(), DeviceToken: "tok", Platform: "android"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
