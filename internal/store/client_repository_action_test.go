// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

var actionRowColumns = []string{
	"id", "type", "payload", "owner_id", "device_id", "client_timestamp",
	"server_timestamp", "status", "retry_count", "max_retries", "next_attempt_at",
	"priority", "blocked_by", "last_error", "last_error_kind", "conflict_id",
	"applied_version", "resolution", "created_at", "updated_at",
}

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func testProfileAction(id string, deps ...string) models.Action {
	return models.Action{
		ID:   id,
		Type: models.ActionUpdateProfile,
		Payload: &models.UpdateProfilePayload{
			ProfileID:   "p-1",
			BaseVersion: 1,
			Fields:      map[string]any{"name": "Ada"},
		},
		OwnerID:         "user-1",
		DeviceID:        "dev-1",
		ClientTimestamp: t0,
		Status:          models.StatusPending,
		MaxRetries:      3,
		Priority:        models.PriorityHigh,
		Dependencies:    deps,
		CreatedAt:       t0,
		UpdatedAt:       t0,
	}
}

func actionRow(id string, status models.ActionStatus, next driver.Value) []driver.Value {
	return []driver.Value{
		id, "update_profile", `{"profile_id":"p-1","base_version":1,"fields":{"name":"Ada"}}`,
		"user-1", "dev-1", t0, nil, string(status), 1, 3, next, 2, "", "", "", "", nil, "", t0, t0,
	}
}

// ── InsertAction ─────────────────────────────────────────────────────────────

func TestLocalActionRepository_InsertAction(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	action := testProfileAction("a-2", "a-1")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actions")).
		WithArgs(
			"a-2", "update_profile", sqlmock.AnyArg(), "user-1", "dev-1", t0,
			nil, "pending", 0, 3, nil, 2, "", "", "", "", nil, "", t0, t0,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO action_dependencies")).
		WithArgs("a-2", "a-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertAction(testContext(), action))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalActionRepository_InsertAction_Duplicate(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actions")).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	mock.ExpectRollback()

	err := repo.InsertAction(testContext(), testProfileAction("a-1"))
	require.ErrorIs(t, err, ErrActionExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalActionRepository_InsertAction_DependencyError(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actions")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO action_dependencies")).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := repo.InsertAction(testContext(), testProfileAction("a-2", "a-1"))
	require.ErrorIs(t, err, ErrExecutingStatement)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ── ListActions / GetAction ──────────────────────────────────────────────────

func TestLocalActionRepository_ListActions(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	next := t0.Add(time.Minute)
	mock.ExpectQuery(`SELECT (.+) FROM actions a WHERE a.device_id = \? AND a.status IN \(\?,\?\) ORDER BY a.seq`).
		WithArgs("dev-1", "pending", "conflicted").
		WillReturnRows(sqlmock.NewRows(actionRowColumns).
			AddRow(actionRow("a-1", models.StatusPending, nil)...).
			AddRow(actionRow("a-2", models.StatusConflicted, next)...))
	mock.ExpectQuery(`SELECT action_id, depends_on FROM action_dependencies WHERE action_id IN \(\?,\?\) ORDER BY rowid`).
		WithArgs("a-1", "a-2").
		WillReturnRows(sqlmock.NewRows([]string{"action_id", "depends_on"}).
			AddRow("a-2", "a-1").
			AddRow("a-2", "a-0"))

	actions, err := repo.ListActions(testContext(), ActionFilter{
		DeviceID: "dev-1",
		Statuses: []models.ActionStatus{models.StatusPending, models.StatusConflicted},
	})
	require.NoError(t, err)
	require.Len(t, actions, 2)

	assert.Equal(t, "a-1", actions[0].ID)
	assert.Nil(t, actions[0].NextAttemptAt)
	assert.Empty(t, actions[0].Dependencies)
	assert.Equal(t, models.PriorityHigh, actions[0].Priority)

	profile, ok := actions[0].Payload.(*models.UpdateProfilePayload)
	require.True(t, ok)
	assert.Equal(t, "p-1", profile.ProfileID)

	assert.Equal(t, models.StatusConflicted, actions[1].Status)
	require.NotNil(t, actions[1].NextAttemptAt)
	assert.True(t, next.Equal(*actions[1].NextAttemptAt))
	assert.Equal(t, []string{"a-1", "a-0"}, actions[1].Dependencies)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalActionRepository_GetAction_NotFound(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	mock.ExpectQuery(`SELECT (.+) FROM actions a WHERE a.id IN \(\?\)`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(actionRowColumns))

	_, err := repo.GetAction(testContext(), "missing")
	require.ErrorIs(t, err, ErrActionNotFound)
}

func TestLocalActionRepository_ListDependents(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	mock.ExpectQuery(`SELECT (.+) FROM actions a JOIN action_dependencies d ON d.action_id = a.id WHERE d.depends_on = \? ORDER BY a.seq`).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(actionRowColumns).AddRow(actionRow("a-2", models.StatusPending, nil)...))
	mock.ExpectQuery(`SELECT action_id, depends_on FROM action_dependencies`).
		WithArgs("a-2").
		WillReturnRows(sqlmock.NewRows([]string{"action_id", "depends_on"}).AddRow("a-2", "a-1"))

	dependents, err := repo.ListDependents(testContext(), "a-1")
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.True(t, dependents[0].DependsOn("a-1"))
}

func TestLocalActionRepository_ListActions_QueryError(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	mock.ExpectQuery(`SELECT (.+) FROM actions a`).WillReturnError(errors.New("database is locked"))

	_, err := repo.ListActions(testContext(), ActionFilter{})
	require.ErrorIs(t, err, ErrExecutingQuery)
}

func TestLocalActionRepository_ListActions_BadPayload(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	row := actionRow("a-1", models.StatusPending, nil)
	row[1] = "launch_rocket"
	mock.ExpectQuery(`SELECT (.+) FROM actions a`).
		WillReturnRows(sqlmock.NewRows(actionRowColumns).AddRow(row...))

	_, err := repo.ListActions(testContext(), ActionFilter{})
	require.ErrorIs(t, err, ErrEncodingValue)
}

// ── UpdateAction / DeleteAction ──────────────────────────────────────────────

func TestLocalActionRepository_UpdateAction(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  error
	}{
		{name: "success", affected: 1},
		{name: "not found", affected: 0, wantErr: ErrActionNotFound},
		{name: "exec error", execErr: errors.New("boom"), wantErr: ErrExecutingStatement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLiteTestDB(t)
			repo := NewLocalActionRepository(db, logger.Nop())

			action := testProfileAction("a-1")
			action.Status = models.StatusSynced
			version := int64(4)
			action.AppliedVersion = &version

			exec := mock.ExpectExec(regexp.QuoteMeta("UPDATE actions SET")).
				WithArgs(sqlmock.AnyArg(), "synced", 0, nil, nil, "", "", "", "", int64(4), "", t0, "a-1")
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			err := repo.UpdateAction(testContext(), action)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLocalActionRepository_DeleteAction(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actions WHERE id = ?")).
		WithArgs("a-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteAction(testContext(), "a-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actions WHERE id = ?")).
		WithArgs("a-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.DeleteAction(testContext(), "a-1"), ErrActionNotFound)
}

func TestLocalActionRepository_DeleteSyncedBefore(t *testing.T) {
	db, mock := newSQLiteTestDB(t)
	repo := NewLocalActionRepository(db, logger.Nop())

	cutoff := t0.Add(-24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actions WHERE device_id = ? AND status = 'synced'")).
		WithArgs("dev-1", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteSyncedBefore(testContext(), "dev-1", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}

func TestDeleteSyncedQuery_KeepsUnsyncedDependencies(t *testing.T) {
	q := deleteSyncedActionsBefore
	assert.Contains(t, q, "status = 'synced'")
	assert.Contains(t, q, "NOT EXISTS")
	assert.Contains(t, q, "dependent.status <> 'synced'", "failed dependents keep their dependency")
	assert.NotContains(t, q, "'pending', 'in_flight', 'conflicted'")
}
