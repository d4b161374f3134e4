// Package snapstore persists the single last-known canonical snapshot per
// (account, campaign).
package snapstore

import (
	"context"

	"github.com/adstate-project/adstate/pkg/model"
)

// SchemaVersion is the current persisted snapshot schema. Loads of any
// other version fail; stored state is never guessed at.
const SchemaVersion = 1

// Store holds one snapshot per (account, campaign); Save fully replaces
// the previous one. Load returns errclass.ErrSnapshotNotFound when no
// snapshot has been saved yet.
type Store interface {
	Save(ctx context.Context, snap *model.CampaignSnapshot) error
	Load(ctx context.Context, accountID, campaignID string) (*model.CampaignSnapshot, error)
}

// envelope is the persisted form: the snapshot wrapped with its schema
// version.
type envelope struct {
	SchemaVersion int                     `json:"schema_version"`
	Snapshot      *model.CampaignSnapshot `json:"snapshot"`
}

// versionProbe reads only the schema version so it can be checked before
// the snapshot body is decoded.
type versionProbe struct {
	SchemaVersion int `json:"schema_version"`
}
