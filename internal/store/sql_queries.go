package store

const (
	upsertDevice = `
		INSERT INTO devices (
			device_id,
			user_id,
			capabilities,
			public_key,
			checkpoint_at,
			checkpoint_version,
			registered_at,
			last_seen_at
		) VALUES ($1, $2, $3, $4, $5, 0, $5, $5)
		ON CONFLICT (device_id) DO UPDATE SET
			user_id      = EXCLUDED.user_id,
			capabilities = EXCLUDED.capabilities,
			public_key   = EXCLUDED.public_key,
			last_seen_at = EXCLUDED.last_seen_at
		RETURNING ` + deviceColumns + `;`

	deviceColumns = `device_id, user_id, capabilities, public_key, checkpoint_at, checkpoint_version, registered_at, last_seen_at`

	getDevice = `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE device_id = $1;`

	advanceCheckpoint = `
		UPDATE devices SET
			checkpoint_at      = $2,
			checkpoint_version = $3,
			last_seen_at       = NOW()
		WHERE device_id = $1 AND checkpoint_version < $3;`

	touchDevice = `
		UPDATE devices SET last_seen_at = $2
		WHERE device_id = $1;`

	resourceColumns = `resource_key, kind, owner_id, version, snapshot, updated_by, updated_at`

	getResource = `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE resource_key = $1;`

	getSnapshotAt = `
		SELECT snapshot
		FROM resource_versions
		WHERE resource_key = $1 AND version = $2;`

	findAppliedByAction = `
		SELECT resource_key, version, created_at
		FROM resource_versions
		WHERE action_id = $1;`

	// createResource inserts version 1 and its history row in one statement.
	// No row comes back when the key already exists.
	createResource = `
		WITH inserted AS (
			INSERT INTO resources (resource_key, kind, owner_id, version, snapshot, updated_by, updated_at)
			VALUES ($1, $2, $3, 1, $4, $5, $6)
			ON CONFLICT (resource_key) DO NOTHING
			RETURNING ` + resourceColumns + `
		), history AS (
			INSERT INTO resource_versions (resource_key, version, snapshot, action_id, device_id, created_at)
			SELECT resource_key, version, snapshot, $7, updated_by, updated_at FROM inserted
		)
		SELECT ` + resourceColumns + ` FROM inserted;`

	// updateResource is the optimistic-lock write. No row comes back when the
	// stored version moved.
	updateResource = `
		WITH updated AS (
			UPDATE resources SET
				version    = version + 1,
				snapshot   = $2,
				updated_by = $3,
				updated_at = $4
			WHERE resource_key = $1 AND version = $5
			RETURNING ` + resourceColumns + `
		), history AS (
			INSERT INTO resource_versions (resource_key, version, snapshot, action_id, device_id, created_at)
			SELECT resource_key, version, snapshot, $6, updated_by, updated_at FROM updated
		)
		SELECT ` + resourceColumns + ` FROM updated;`

	conflictColumns = `conflict_id, action_id, device_id, resource_key, conflict_type, base_version, server_version,
		base_snapshot, local_snapshot, server_snapshot, resolution_strategy, resolved_snapshot, resolved_at, new_version, created_at`

	// saveConflict keeps one row per action id; a resubmitted action only
	// refreshes the server side of the existing conflict.
	saveConflict = `
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (action_id) DO UPDATE SET
			server_version  = EXCLUDED.server_version,
			server_snapshot = EXCLUDED.server_snapshot
		RETURNING ` + conflictColumns + `;`

	getConflict = `
		SELECT ` + conflictColumns + `
		FROM conflicts
		WHERE conflict_id = $1;`

	getConflictForUpdate = `
		SELECT ` + conflictColumns + `
		FROM conflicts
		WHERE conflict_id = $1
		FOR UPDATE;`

	recordStrategy = `
		UPDATE conflicts SET resolution_strategy = $2
		WHERE conflict_id = $1 AND resolved_at IS NULL;`

	resolveConflict = `
		UPDATE conflicts SET
			resolution_strategy = $2,
			resolved_snapshot   = $3,
			resolved_at         = $4,
			new_version         = $5
		WHERE conflict_id = $1 AND resolved_at IS NULL
		RETURNING ` + conflictColumns + `;`
)
