package model

import "time"

// ChangeCategory identifies the type of detected change.
type ChangeCategory string

const (
	ChangeBudget          ChangeCategory = "budget_changed"
	ChangeBiddingStrategy ChangeCategory = "bidding_strategy_changed"
	ChangeTargetCPA       ChangeCategory = "target_cpa_changed"
	ChangeCampaignStatus  ChangeCategory = "campaign_status_changed"
	ChangeAdGroupStatus   ChangeCategory = "ad_group_status_changed"
	ChangeKeywordAdded    ChangeCategory = "keyword_added"
	ChangeKeywordRemoved  ChangeCategory = "keyword_removed"
	ChangeKeywordStatus   ChangeCategory = "keyword_status_changed"
	ChangeKeywordBid      ChangeCategory = "keyword_bid_changed"
	ChangeAdStatus        ChangeCategory = "ad_status_changed"

	// CategoryNote is used by manual changelog entries, which carry free
	// text instead of a detected delta.
	CategoryNote ChangeCategory = "note"
)

// ChangeSource distinguishes detected changes from operator annotations.
type ChangeSource string

const (
	SourceAutomatic ChangeSource = "automatic"
	SourceManual    ChangeSource = "manual"
)

// EntityRef points at the entity a change applies to. Campaign-level changes
// set only CampaignID; keyword changes additionally set AdGroupID,
// KeywordText, and MatchType; ad changes set AdGroupID and AdID.
type EntityRef struct {
	CampaignID  string    `json:"campaign_id,omitempty"`
	AdGroupID   int64     `json:"ad_group_id,omitempty"`
	KeywordText string    `json:"keyword_text,omitempty"`
	MatchType   MatchType `json:"match_type,omitempty"`
	AdID        int64     `json:"ad_id,omitempty"`
	Name        string    `json:"name,omitempty"`
}

// ChangeRecord is a single typed difference between two snapshots.
// Old and New hold the values rendered canonically (two-decimal amounts
// for money, enum names for statuses and strategies) for programmatic
// reuse.
type ChangeRecord struct {
	Category   ChangeCategory `json:"category"`
	Entity     EntityRef      `json:"entity"`
	Old        string         `json:"old,omitempty"`
	New        string         `json:"new,omitempty"`
	DetectedAt time.Time      `json:"detected_at"`
	Source     ChangeSource   `json:"source"`
}
