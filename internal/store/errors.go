package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrActionNotFound is returned when no local action has the given id.
	ErrActionNotFound = errors.New("action was not found")

	// ErrActionExists is returned when an action id is enqueued twice.
	ErrActionExists = errors.New("action already exists")

	// ErrProofNotFound is returned when no offline proof has the given id.
	ErrProofNotFound = errors.New("offline proof was not found")

	// ErrDeviceNotFound is returned when a device is not registered.
	ErrDeviceNotFound = errors.New("device was not found")

	// ErrResourceNotFound is returned when no server resource has the key.
	ErrResourceNotFound = errors.New("resource was not found")

	// ErrResourceExists is returned when a create targets an existing key.
	ErrResourceExists = errors.New("resource already exists")

	// ErrActionAlreadyApplied is returned when an action id already has a
	// history row.
	ErrActionAlreadyApplied = errors.New("action was already applied")

	// ErrConflictResolved is returned when resolving a closed conflict.
	ErrConflictResolved = errors.New("conflict is already resolved")

	// ErrConflictNotFound is returned when no conflict has the given id.
	ErrConflictNotFound = errors.New("conflict was not found")

	// ErrVersionConflict is returned when an optimistic-locking check fails:
	// the expected version does not match the stored version, meaning
	// another writer changed the resource first.
	ErrVersionConflict = errors.New("resource version conflict occurred")

	// ErrCacheMiss is returned by the idempotency cache for unknown keys.
	ErrCacheMiss = errors.New("idempotency key not cached")

	// ErrDocumentStoreDisabled is returned when no document target is configured.
	ErrDocumentStoreDisabled = errors.New("document store is not configured")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrEncodingValue is returned when a JSON column cannot be encoded or
	// decoded.
	ErrEncodingValue = errors.New("failed to encode column value")
)
