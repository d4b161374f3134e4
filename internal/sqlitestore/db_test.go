package sqlitestore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/adstate-project/adstate/pkg/errclass"
)

func TestMapBusy(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{"nil", nil, false},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"wrapped busy", fmt.Errorf("insert entry: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), true},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"unrelated", errors.New("disk full"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapBusy(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			if tt.wantConflict {
				assert.ErrorIs(t, got, errclass.ErrWriteConflict)
			} else {
				assert.Equal(t, tt.err, got)
				assert.NotErrorIs(t, got, errclass.ErrWriteConflict)
			}
		})
	}
}
