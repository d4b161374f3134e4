package snapstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/adstate-project/adstate/pkg/fsutil"
	"github.com/adstate-project/adstate/pkg/model"
)

const snapshotDirName = "snapshots"

// FileStore keeps one JSON document per (account, campaign) under
// <dataDir>/snapshots. Writes go through an atomic tmp+rename so a reader
// never observes a half-written snapshot and a failed save leaves the
// previous one intact.
type FileStore struct {
	dataDir string
}

// NewFileStore creates a file-backed snapshot store rooted at dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

// Save replaces the stored snapshot for the snapshot's (account, campaign).
func (s *FileStore) Save(_ context.Context, snap *model.CampaignSnapshot) error {
	if snap.AccountID == "" || snap.CampaignID == "" {
		return errclass.ErrMissingField.WithMessage("snapshot identity")
	}
	dir := filepath.Join(s.dataDir, snapshotDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(envelope{SchemaVersion: SchemaVersion, Snapshot: snap}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return fsutil.AtomicWrite(s.path(snap.AccountID, snap.CampaignID), data, 0644)
}

// Load returns the stored snapshot, errclass.ErrSnapshotNotFound if none
// exists, or errclass.ErrSchemaVersion for an unrecognized stored version.
func (s *FileStore) Load(_ context.Context, accountID, campaignID string) (*model.CampaignSnapshot, error) {
	data, err := os.ReadFile(s.path(accountID, campaignID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errclass.ErrSnapshotNotFound.WithMessagef("%s/%s", accountID, campaignID)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return decodeEnvelope(data)
}

func decodeEnvelope(data []byte) (*model.CampaignSnapshot, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errclass.ErrStoreCorrupt.WithMessagef("snapshot envelope: %v", err)
	}
	if probe.SchemaVersion != SchemaVersion {
		return nil, errclass.ErrSchemaVersion.WithMessagef("stored version %d, supported %d",
			probe.SchemaVersion, SchemaVersion)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errclass.ErrStoreCorrupt.WithMessagef("snapshot body: %v", err)
	}
	if env.Snapshot == nil {
		return nil, errclass.ErrStoreCorrupt.WithMessage("snapshot body missing")
	}
	return env.Snapshot, nil
}

// Upstream IDs are numeric strings, but nothing here depends on that.
func (s *FileStore) path(accountID, campaignID string) string {
	name := fsutil.SafeName(accountID) + "_" + fsutil.SafeName(campaignID) + ".json"
	return filepath.Join(s.dataDir, snapshotDirName, name)
}
