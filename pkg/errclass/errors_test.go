package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/stretchr/testify/assert"
)

func TestStateError_Error(t *testing.T) {
	assert.Equal(t, "E_MISSING_FIELD", errclass.ErrMissingField.Error())

	withMsg := errclass.ErrMissingField.WithMessage("budget is required")
	assert.Equal(t, "E_MISSING_FIELD: budget is required", withMsg.Error())
}

func TestStateError_IsMatchesByCode(t *testing.T) {
	err := errclass.ErrWriteConflict.WithMessage("changelog lock held by another process")
	assert.True(t, errors.Is(err, errclass.ErrWriteConflict))
	assert.False(t, errors.Is(err, errclass.ErrStoreCorrupt))
}

func TestStateError_IsThroughWrapping(t *testing.T) {
	inner := errclass.ErrSchemaVersion.WithMessagef("snapshot has schema version %d, expected %d", 99, 1)
	wrapped := fmt.Errorf("load snapshot: %w", inner)
	assert.True(t, errors.Is(wrapped, errclass.ErrSchemaVersion))
}

func TestStateError_WithMessageDoesNotMutate(t *testing.T) {
	_ = errclass.ErrPartialSnapshot.WithMessage("current snapshot is partial")
	assert.Empty(t, errclass.ErrPartialSnapshot.Message)
}
