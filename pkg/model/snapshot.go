package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// KeywordKey identifies a keyword within a campaign. Identity is derived
// from stable fields (parent ad group, text, match type), never from the
// platform's criterion row IDs, which churn on re-creation.
type KeywordKey struct {
	AdGroupID int64     `json:"ad_group_id"`
	Text      string    `json:"text"`
	MatchType MatchType `json:"match_type"`
}

func (k KeywordKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.AdGroupID, k.Text, k.MatchType)
}

// AdGroupKey identifies an ad group within a campaign.
type AdGroupKey struct {
	AdGroupID int64 `json:"ad_group_id"`
}

// AdKey identifies an ad within a campaign.
type AdKey struct {
	AdGroupID int64 `json:"ad_group_id"`
	AdID      int64 `json:"ad_id"`
}

// KeywordState is the tracked configuration of one keyword.
type KeywordState struct {
	Status    EntityStatus `json:"status"`
	BidMicros *int64       `json:"bid_micros,omitempty"`
}

// AdGroupState is the tracked configuration of one ad group.
type AdGroupState struct {
	Name   string       `json:"name,omitempty"`
	Status EntityStatus `json:"status"`
}

// AdState is the tracked configuration of one ad.
type AdState struct {
	Status EntityStatus `json:"status"`
}

// KeywordSet is a keyed keyword collection. It serializes as a list of
// entries sorted by key so that serialized snapshots are deterministic.
type KeywordSet map[KeywordKey]KeywordState

// AdGroupSet is a keyed ad group collection.
type AdGroupSet map[AdGroupKey]AdGroupState

// AdSet is a keyed ad collection.
type AdSet map[AdKey]AdState

// CampaignSnapshot is the canonical point-in-time configuration of one
// campaign: budget, bidding, and keyed entity collections. Performance
// metrics never appear here; the normalizer drops them by construction.
type CampaignSnapshot struct {
	AccountID        string          `json:"account_id"`
	CampaignID       string          `json:"campaign_id"`
	CampaignName     string          `json:"campaign_name,omitempty"`
	CapturedAt       time.Time       `json:"captured_at"`
	Status           EntityStatus    `json:"status"`
	BudgetMicros     int64           `json:"budget_micros"`
	BiddingStrategy  BiddingStrategy `json:"bidding_strategy"`
	TargetCPAMicros  *int64          `json:"target_cpa_micros,omitempty"`
	TargetROASMillis *int64          `json:"target_roas_millis,omitempty"`
	Keywords         KeywordSet      `json:"keywords"`
	AdGroups         AdGroupSet      `json:"ad_groups"`
	Ads              AdSet           `json:"ads"`

	// Partial marks a snapshot built from an incompletely enumerated fetch.
	// The diff engine refuses partial snapshots: absence of a key in them
	// cannot be distinguished from removal.
	Partial bool `json:"partial,omitempty"`
}

type keywordEntry struct {
	KeywordKey
	KeywordState
}

type adGroupEntry struct {
	AdGroupKey
	AdGroupState
}

type adEntry struct {
	AdKey
	AdState
}

// MarshalJSON serializes the set as entries sorted by key.
func (s KeywordSet) MarshalJSON() ([]byte, error) {
	entries := make([]keywordEntry, 0, len(s))
	for k, v := range s {
		entries = append(entries, keywordEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].KeywordKey, entries[j].KeywordKey
		if a.AdGroupID != b.AdGroupID {
			return a.AdGroupID < b.AdGroupID
		}
		if a.Text != b.Text {
			return a.Text < b.Text
		}
		return a.MatchType < b.MatchType
	})
	return json.Marshal(entries)
}

// UnmarshalJSON rebuilds the keyed map, rejecting duplicate keys.
func (s *KeywordSet) UnmarshalJSON(data []byte) error {
	var entries []keywordEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	out := make(KeywordSet, len(entries))
	for _, e := range entries {
		if _, dup := out[e.KeywordKey]; dup {
			return fmt.Errorf("duplicate keyword key %s", e.KeywordKey)
		}
		out[e.KeywordKey] = e.KeywordState
	}
	*s = out
	return nil
}

func (s AdGroupSet) MarshalJSON() ([]byte, error) {
	entries := make([]adGroupEntry, 0, len(s))
	for k, v := range s {
		entries = append(entries, adGroupEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AdGroupID < entries[j].AdGroupID
	})
	return json.Marshal(entries)
}

func (s *AdGroupSet) UnmarshalJSON(data []byte) error {
	var entries []adGroupEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	out := make(AdGroupSet, len(entries))
	for _, e := range entries {
		if _, dup := out[e.AdGroupKey]; dup {
			return fmt.Errorf("duplicate ad group key %d", e.AdGroupID)
		}
		out[e.AdGroupKey] = e.AdGroupState
	}
	*s = out
	return nil
}

func (s AdSet) MarshalJSON() ([]byte, error) {
	entries := make([]adEntry, 0, len(s))
	for k, v := range s {
		entries = append(entries, adEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].AdKey, entries[j].AdKey
		if a.AdGroupID != b.AdGroupID {
			return a.AdGroupID < b.AdGroupID
		}
		return a.AdID < b.AdID
	})
	return json.Marshal(entries)
}

func (s *AdSet) UnmarshalJSON(data []byte) error {
	var entries []adEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	out := make(AdSet, len(entries))
	for _, e := range entries {
		if _, dup := out[e.AdKey]; dup {
			return fmt.Errorf("duplicate ad key %d/%d", e.AdGroupID, e.AdID)
		}
		out[e.AdKey] = e.AdState
	}
	*s = out
	return nil
}
