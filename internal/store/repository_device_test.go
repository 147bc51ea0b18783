package store

import (
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

var deviceRowColumns = []string{
	"device_id", "user_id", "capabilities", "public_key", "checkpoint_at",
	"checkpoint_version", "registered_at", "last_seen_at",
}

func TestDeviceRepository_UpsertDevice(t *testing.T) {
	db, mock := newPostgresTestDB(t)
	repo := NewDeviceRepository(db, logger.Nop())

	mock.ExpectQuery(`INSERT INTO devices (.+) ON CONFLICT \(device_id\) DO UPDATE SET`).
		WithArgs("dev-1", "user-1", `["camera"]`, "pk", t0).
		WillReturnRows(sqlmock.NewRows(deviceRowColumns).
			AddRow("dev-1", "user-1", []byte(`["camera"]`), "pk", t0, 7, t0, t0))

	device, err := repo.UpsertDevice(testContext(), models.DeviceSyncState{
		DeviceID:     "dev-1",
		UserID:       "user-1",
		Capabilities: []string{"camera"},
		PublicKey:    "pk",
		RegisteredAt: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"camera"}, device.Capabilities)
	assert.Equal(t, int64(7), device.LastSyncCheckpoint.Version)
}

func TestDeviceRepository_GetDevice_NotFound(t *testing.T) {
	db, mock := newPostgresTestDB(t)
	repo := NewDeviceRepository(db, logger.Nop())

	mock.ExpectQuery(regexp.QuoteMeta("FROM devices WHERE device_id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(deviceRowColumns))

	_, err := repo.GetDevice(testContext(), "ghost")
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestDeviceRepository_AdvanceCheckpoint(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "newer checkpoint stored", affected: 1, want: true},
		{name: "stale checkpoint ignored", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newPostgresTestDB(t)
			repo := NewDeviceRepository(db, logger.Nop())

			mock.ExpectExec(regexp.QuoteMeta("WHERE device_id = $1 AND checkpoint_version < $3")).
				WithArgs("dev-1", t0, int64(4)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			advanced, err := repo.AdvanceCheckpoint(testContext(), "dev-1", models.Checkpoint{At: t0, Version: 4})
			require.NoError(t, err)
			assert.Equal(t, tt.want, advanced)
		})
	}
}

func TestDeviceRepository_TouchDevice(t *testing.T) {
	db, mock := newPostgresTestDB(t)
	repo := NewDeviceRepository(db, logger.Nop())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices SET last_seen_at = $2")).
		WithArgs("dev-1", t0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.TouchDevice(testContext(), "dev-1", t0), ErrDeviceNotFound)
}
