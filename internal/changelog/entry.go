// Package changelog maintains the append-only per-campaign history of
// detected changes and manual operator notes.
package changelog

import (
	"context"
	"fmt"
	"time"

	"github.com/adstate-project/adstate/pkg/model"
)

// Entry is one immutable changelog line: either a detected ChangeRecord or
// a manual note, distinguished by Source. Old and New keep the raw values
// for programmatic reuse; Text is the rendered delta.
type Entry struct {
	Seq        int64                `json:"seq"`
	DetectedAt time.Time            `json:"detected_at"`
	Source     model.ChangeSource   `json:"source"`
	Category   model.ChangeCategory `json:"category"`
	Entity     model.EntityRef      `json:"entity,omitempty"`
	Old        string               `json:"old,omitempty"`
	New        string               `json:"new,omitempty"`
	Text       string               `json:"text"`

	// BatchHash is the content hash of the batch this entry arrived in;
	// re-appending a batch with the hash of the latest batch is a no-op.
	BatchHash string `json:"batch_hash"`
}

// Store is the append-only changelog. Append is all-or-nothing and
// idempotent against immediate retries; Read returns entries ordered by
// DetectedAt ascending, ties broken by insertion order. A zero since reads
// everything.
type Store interface {
	Append(ctx context.Context, accountID, campaignID string, entries []Entry) error
	Read(ctx context.Context, accountID, campaignID string, since time.Time) ([]Entry, error)
}

// FromRecords converts detected change records into changelog entries,
// rendering the delta text. Seq and BatchHash are assigned by the store.
func FromRecords(records []model.ChangeRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			DetectedAt: rec.DetectedAt,
			Source:     rec.Source,
			Category:   rec.Category,
			Entity:     rec.Entity,
			Old:        rec.Old,
			New:        rec.New,
			Text:       renderText(rec),
		})
	}
	return entries
}

// NewNote builds a manual free-text entry.
func NewNote(text string, at time.Time) Entry {
	return Entry{
		DetectedAt: at,
		Source:     model.SourceManual,
		Category:   model.CategoryNote,
		Text:       text,
	}
}

func renderText(rec model.ChangeRecord) string {
	switch rec.Category {
	case model.ChangeBudget:
		return fmt.Sprintf("Budget: $%s/day → $%s/day", rec.Old, rec.New)
	case model.ChangeBiddingStrategy:
		return fmt.Sprintf("Bidding strategy: %s → %s", rec.Old, rec.New)
	case model.ChangeTargetCPA:
		switch {
		case rec.Old == "":
			return fmt.Sprintf("Target CPA set: $%s", rec.New)
		case rec.New == "":
			return fmt.Sprintf("Target CPA cleared (was $%s)", rec.Old)
		default:
			return fmt.Sprintf("Target CPA: $%s → $%s", rec.Old, rec.New)
		}
	case model.ChangeCampaignStatus:
		return fmt.Sprintf("Campaign %s: %s → %s", entityLabel(rec.Entity), rec.Old, rec.New)
	case model.ChangeAdGroupStatus:
		return fmt.Sprintf("Ad group %s: %s → %s", entityLabel(rec.Entity), rec.Old, rec.New)
	case model.ChangeKeywordAdded:
		return fmt.Sprintf("Keyword added: %q (%s)", rec.Entity.KeywordText, rec.Entity.MatchType)
	case model.ChangeKeywordRemoved:
		return fmt.Sprintf("Keyword removed: %q (%s)", rec.Entity.KeywordText, rec.Entity.MatchType)
	case model.ChangeKeywordStatus:
		return fmt.Sprintf("Keyword %q (%s): %s → %s", rec.Entity.KeywordText, rec.Entity.MatchType, rec.Old, rec.New)
	case model.ChangeKeywordBid:
		switch {
		case rec.Old == "":
			return fmt.Sprintf("Keyword %q (%s) bid set: $%s", rec.Entity.KeywordText, rec.Entity.MatchType, rec.New)
		case rec.New == "":
			return fmt.Sprintf("Keyword %q (%s) bid cleared (was $%s)", rec.Entity.KeywordText, rec.Entity.MatchType, rec.Old)
		default:
			return fmt.Sprintf("Keyword %q (%s) bid: $%s → $%s", rec.Entity.KeywordText, rec.Entity.MatchType, rec.Old, rec.New)
		}
	case model.ChangeAdStatus:
		return fmt.Sprintf("Ad %d (ad group %d): %s → %s", rec.Entity.AdID, rec.Entity.AdGroupID, rec.Old, rec.New)
	}
	return fmt.Sprintf("%s: %s → %s", rec.Category, rec.Old, rec.New)
}

func entityLabel(ref model.EntityRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	if ref.AdGroupID != 0 {
		return fmt.Sprintf("%d", ref.AdGroupID)
	}
	return ref.CampaignID
}

// hashableEntry is the batch-hash view of an entry: Seq and BatchHash are
// excluded so the hash depends only on content.
type hashableEntry struct {
	DetectedAt time.Time            `json:"detected_at"`
	Source     model.ChangeSource   `json:"source"`
	Category   model.ChangeCategory `json:"category"`
	Entity     model.EntityRef      `json:"entity,omitempty"`
	Old        string               `json:"old,omitempty"`
	New        string               `json:"new,omitempty"`
	Text       string               `json:"text"`
}

// HashView strips Seq and BatchHash so a batch hashes identically no
// matter where in the log it lands. The result is fed to
// jsonutil.ContentHash.
func HashView(entries []Entry) any {
	out := make([]hashableEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, hashableEntry{
			DetectedAt: e.DetectedAt,
			Source:     e.Source,
			Category:   e.Category,
			Entity:     e.Entity,
			Old:        e.Old,
			New:        e.New,
			Text:       e.Text,
		})
	}
	return out
}
