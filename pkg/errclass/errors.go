package errclass

import "fmt"

// StateError is a stable, machine-readable error class.
type StateError struct {
	Code    string
	Message string
}

func (e *StateError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StateError) Is(target error) bool {
	t, ok := target.(*StateError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new StateError with the same Code but a specific message.
func (e *StateError) WithMessage(msg string) *StateError {
	return &StateError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new StateError with a formatted message.
func (e *StateError) WithMessagef(format string, args ...any) *StateError {
	return &StateError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	// ErrMissingField: the raw input lacks a required field (e.g. budget).
	// The normalizer fails instead of defaulting, since a defaulted value
	// would corrupt every later diff.
	ErrMissingField = &StateError{Code: "E_MISSING_FIELD"}

	// ErrUnknownEnum: a status, match type, or bidding strategy name is not
	// in its closed enum.
	ErrUnknownEnum = &StateError{Code: "E_UNKNOWN_ENUM"}

	// ErrPartialSnapshot: a snapshot is marked partial; the diff engine
	// refuses it because absence cannot be told apart from removal.
	ErrPartialSnapshot = &StateError{Code: "E_PARTIAL_SNAPSHOT"}

	// ErrSchemaVersion: a stored snapshot carries an unrecognized schema
	// version. Never downgraded silently.
	ErrSchemaVersion = &StateError{Code: "E_SCHEMA_VERSION"}

	// ErrWriteConflict: another writer holds the store lock.
	ErrWriteConflict = &StateError{Code: "E_WRITE_CONFLICT"}

	// ErrDuplicateKey: two rows in one raw record resolve to the same
	// stable entity key.
	ErrDuplicateKey = &StateError{Code: "E_DUPLICATE_KEY"}

	ErrSnapshotNotFound = &StateError{Code: "E_SNAPSHOT_NOT_FOUND"}
	ErrStoreCorrupt     = &StateError{Code: "E_STORE_CORRUPT"}
)
