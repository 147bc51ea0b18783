// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	insertAction = `
		INSERT INTO actions (
			id,
			type,
			payload,
			owner_id,
			device_id,
			client_timestamp,
			server_timestamp,
			status,
			retry_count,
			max_retries,
			next_attempt_at,
			priority,
			blocked_by,
			last_error,
			last_error_kind,
			conflict_id,
			applied_version,
			resolution,
			created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	insertActionDependency = `
		INSERT INTO action_dependencies (action_id, depends_on) VALUES (?, ?);`

	updateAction = `
		UPDATE actions SET
			payload          = ?,
			status           = ?,
			retry_count      = ?,
			next_attempt_at  = ?,
			server_timestamp = ?,
			blocked_by       = ?,
			last_error       = ?,
			last_error_kind  = ?,
			conflict_id      = ?,
			applied_version  = ?,
			resolution       = ?,
			updated_at       = ?
		WHERE id = ?;`

	deleteAction = `
		DELETE FROM actions WHERE id = ?;`

	// A synced action is kept while any unsynced action depends on it,
	// failed ones included since they can be requeued.
	deleteSyncedActionsBefore = `
		DELETE FROM actions
		WHERE device_id = ?
		  AND status = 'synced'
		  AND updated_at < ?
		  AND NOT EXISTS (
			SELECT 1
			FROM action_dependencies d
			JOIN actions dependent ON dependent.id = d.action_id
			WHERE d.depends_on = actions.id
			  AND dependent.status <> 'synced'
		  );`

	saveProof = `
		INSERT INTO offline_proofs (
			id,
			proof_type,
			input_digest,
			placeholder,
			nonce,
			device_id,
			action_id,
			created_at,
			expires_at,
			validation_status,
			sync_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			validation_status = excluded.validation_status,
			sync_status       = excluded.sync_status;`

	getProof = `
		SELECT
			id,
			proof_type,
			input_digest,
			placeholder,
			nonce,
			device_id,
			action_id,
			created_at,
			expires_at,
			validation_status,
			sync_status
		FROM offline_proofs
		WHERE id = ?;`

	setProofStatusByAction = `
		UPDATE offline_proofs SET
			sync_status       = ?,
			validation_status = ?
		WHERE action_id = ?;`

	deleteProof = `
		DELETE FROM offline_proofs
		WHERE id = ?;`

	saveDeviceState = `
		INSERT INTO device_state (
			device_id,
			user_id,
			capabilities,
			public_key,
			checkpoint_at,
			checkpoint_version,
			network_status,
			sync_status,
			registered_at,
			last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET
			user_id       = excluded.user_id,
			capabilities  = excluded.capabilities,
			public_key    = excluded.public_key,
			registered_at = excluded.registered_at,
			last_seen_at  = excluded.last_seen_at;`

	getDeviceState = `
		SELECT
			device_id,
			user_id,
			capabilities,
			public_key,
			checkpoint_at,
			checkpoint_version,
			network_status,
			sync_status,
			registered_at,
			last_seen_at
		FROM device_state
		WHERE device_id = ?;`

	saveLocalCheckpoint = `
		UPDATE device_state SET
			checkpoint_at      = ?,
			checkpoint_version = ?
		WHERE device_id = ? AND checkpoint_version < ?;`

	setDeviceStatus = `
		UPDATE device_state SET
			network_status = COALESCE(NULLIF(?, ''), network_status),
			sync_status    = COALESCE(NULLIF(?, ''), sync_status)
		WHERE device_id = ?;`

	saveLocalConflict = `
		INSERT INTO conflicts (
			conflict_id,
			action_id,
			device_id,
			resource_key,
			conflict_type,
			base_version,
			server_version,
			base_snapshot,
			local_snapshot,
			server_snapshot,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (conflict_id) DO UPDATE SET
			server_version  = excluded.server_version,
			server_snapshot = excluded.server_snapshot;`

	localConflictColumns = `
			conflict_id,
			action_id,
			device_id,
			resource_key,
			conflict_type,
			base_version,
			server_version,
			base_snapshot,
			local_snapshot,
			server_snapshot,
			created_at`

	getLocalConflict = `SELECT` + localConflictColumns + `
		FROM conflicts
		WHERE conflict_id = ?;`

	listLocalConflicts = `SELECT` + localConflictColumns + `
		FROM conflicts
		WHERE device_id = ?
		ORDER BY created_at;`

	deleteLocalConflict = `
		DELETE FROM conflicts WHERE conflict_id = ?;`
)

var actionColumns = []string{
	"a.id",
	"a.type",
	"a.payload",
	"a.owner_id",
	"a.device_id",
	"a.client_timestamp",
	"a.server_timestamp",
	"a.status",
	"a.retry_count",
	"a.max_retries",
	"a.next_attempt_at",
	"a.priority",
	"a.blocked_by",
	"a.last_error",
	"a.last_error_kind",
	"a.conflict_id",
	"a.applied_version",
	"a.resolution",
	"a.created_at",
	"a.updated_at",
}

var proofColumns = []string{
	"id",
	"proof_type",
	"input_digest",
	"placeholder",
	"nonce",
	"device_id",
	"action_id",
	"created_at",
	"expires_at",
	"validation_status",
	"sync_status",
}
