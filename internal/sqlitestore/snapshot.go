package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adstate-project/adstate/internal/snapstore"
	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/adstate-project/adstate/pkg/model"
)

// SnapshotStore implements snapstore.Store over SQLite. The row upsert
// gives the same single-last-known-snapshot semantics as the file store's
// atomic replace.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a SQLite-backed snapshot store.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

var _ snapstore.Store = (*SnapshotStore)(nil)

func (s *SnapshotStore) Save(ctx context.Context, snap *model.CampaignSnapshot) error {
	if snap.AccountID == "" || snap.CampaignID == "" {
		return errclass.ErrMissingField.WithMessage("snapshot identity")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (account_id, campaign_id, schema_version, captured_at, body)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(account_id, campaign_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			captured_at = excluded.captured_at,
			body = excluded.body`,
		snap.AccountID, snap.CampaignID, snapstore.SchemaVersion,
		snap.CapturedAt.UTC().Format(time.RFC3339Nano), string(body))
	if err != nil {
		return mapBusy(fmt.Errorf("save snapshot: %w", err))
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, accountID, campaignID string) (*model.CampaignSnapshot, error) {
	var version int
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT schema_version, body FROM snapshots WHERE account_id = ? AND campaign_id = ?`,
		accountID, campaignID).Scan(&version, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errclass.ErrSnapshotNotFound.WithMessagef("%s/%s", accountID, campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if version != snapstore.SchemaVersion {
		return nil, errclass.ErrSchemaVersion.WithMessagef("stored version %d, supported %d",
			version, snapstore.SchemaVersion)
	}
	var snap model.CampaignSnapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, errclass.ErrStoreCorrupt.WithMessagef("snapshot body: %v", err)
	}
	return &snap, nil
}
