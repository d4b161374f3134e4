// Package diff computes typed change records between two canonical
// campaign snapshots.
package diff

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/adstate-project/adstate/pkg/model"
)

// Engine compares snapshots. Money comparisons suppress deltas below the
// configured noise thresholds so rounding artifacts never surface as
// changes.
type Engine struct {
	minDeltaMicros  int64
	minDeltaPercent float64
}

// NewEngine creates an engine with the given noise thresholds.
// minDeltaMicros is an absolute floor; minDeltaPercent (0 disables it) is
// relative to the previous value.
func NewEngine(minDeltaMicros int64, minDeltaPercent float64) *Engine {
	return &Engine{minDeltaMicros: minDeltaMicros, minDeltaPercent: minDeltaPercent}
}

// Diff returns the ordered change records between prev and curr.
//
// Output ordering is fixed: budget and bidding first, then campaign and
// ad-group status, then keyword-level, then ad-level, with entity-key order
// inside each category. detectedAt is stamped on every record; the engine
// never reads the wall clock, so repeated calls are byte-identical.
//
// Partial snapshots are refused on either side: a key absent from a partial
// enumeration cannot be distinguished from a removed entity.
//
// Target ROAS is carried in snapshots but has no change category of its
// own; a ROAS move surfaces only alongside a bidding strategy change.
func (e *Engine) Diff(prev, curr *model.CampaignSnapshot, detectedAt time.Time) ([]model.ChangeRecord, error) {
	if prev.Partial || curr.Partial {
		return nil, errclass.ErrPartialSnapshot.WithMessage("refusing to diff a partial snapshot; re-fetch the full campaign state")
	}
	if prev.AccountID != curr.AccountID || prev.CampaignID != curr.CampaignID {
		return nil, fmt.Errorf("snapshot identity mismatch: %s/%s vs %s/%s",
			prev.AccountID, prev.CampaignID, curr.AccountID, curr.CampaignID)
	}

	campaignRef := model.EntityRef{CampaignID: curr.CampaignID, Name: curr.CampaignName}
	var records []model.ChangeRecord

	emit := func(cat model.ChangeCategory, ref model.EntityRef, old, new string) {
		records = append(records, model.ChangeRecord{
			Category:   cat,
			Entity:     ref,
			Old:        old,
			New:        new,
			DetectedAt: detectedAt,
			Source:     model.SourceAutomatic,
		})
	}

	// Biggest levers first: budget, then bidding.
	if e.moneyChanged(prev.BudgetMicros, curr.BudgetMicros) {
		emit(model.ChangeBudget, campaignRef, formatMoney(prev.BudgetMicros), formatMoney(curr.BudgetMicros))
	}
	if prev.BiddingStrategy != curr.BiddingStrategy {
		emit(model.ChangeBiddingStrategy, campaignRef, string(prev.BiddingStrategy), string(curr.BiddingStrategy))
	}
	if old, new, changed := e.optionalMoneyChanged(prev.TargetCPAMicros, curr.TargetCPAMicros); changed {
		emit(model.ChangeTargetCPA, campaignRef, old, new)
	}
	if prev.Status != curr.Status {
		emit(model.ChangeCampaignStatus, campaignRef, string(prev.Status), string(curr.Status))
	}

	records = append(records, e.diffAdGroups(prev, curr, campaignRef, detectedAt)...)
	records = append(records, e.diffKeywords(prev, curr, detectedAt)...)
	records = append(records, e.diffAds(prev, curr, detectedAt)...)

	return records, nil
}

func (e *Engine) diffAdGroups(prev, curr *model.CampaignSnapshot, campaignRef model.EntityRef, detectedAt time.Time) []model.ChangeRecord {
	var records []model.ChangeRecord
	for _, key := range sortedAdGroupKeys(prev.AdGroups) {
		prevState := prev.AdGroups[key]
		currState, ok := curr.AdGroups[key]
		if !ok || prevState.Status == currState.Status {
			continue
		}
		ref := model.EntityRef{
			CampaignID: campaignRef.CampaignID,
			AdGroupID:  key.AdGroupID,
			Name:       adGroupName(prevState, currState),
		}
		records = append(records, model.ChangeRecord{
			Category:   model.ChangeAdGroupStatus,
			Entity:     ref,
			Old:        string(prevState.Status),
			New:        string(currState.Status),
			DetectedAt: detectedAt,
			Source:     model.SourceAutomatic,
		})
	}
	return records
}

func (e *Engine) diffKeywords(prev, curr *model.CampaignSnapshot, detectedAt time.Time) []model.ChangeRecord {
	var added, removed, statusChanged, bidChanged []model.ChangeRecord

	keywordRef := func(key model.KeywordKey) model.EntityRef {
		return model.EntityRef{
			CampaignID:  curr.CampaignID,
			AdGroupID:   key.AdGroupID,
			KeywordText: key.Text,
			MatchType:   key.MatchType,
		}
	}
	record := func(cat model.ChangeCategory, key model.KeywordKey, old, new string) model.ChangeRecord {
		return model.ChangeRecord{
			Category:   cat,
			Entity:     keywordRef(key),
			Old:        old,
			New:        new,
			DetectedAt: detectedAt,
			Source:     model.SourceAutomatic,
		}
	}

	for _, key := range sortedKeywordKeys(curr.Keywords) {
		if _, ok := prev.Keywords[key]; !ok {
			added = append(added, record(model.ChangeKeywordAdded, key, "", string(curr.Keywords[key].Status)))
		}
	}

	for _, key := range sortedKeywordKeys(prev.Keywords) {
		prevState := prev.Keywords[key]
		currState, ok := curr.Keywords[key]
		if !ok {
			// Both snapshots are full enumerations here, so absence is an
			// explicit removal, not a fetch gap.
			removed = append(removed, record(model.ChangeKeywordRemoved, key, string(prevState.Status), ""))
			continue
		}
		if prevState.Status != currState.Status {
			statusChanged = append(statusChanged, record(model.ChangeKeywordStatus, key,
				string(prevState.Status), string(currState.Status)))
		}
		if old, new, changed := e.optionalMoneyChanged(prevState.BidMicros, currState.BidMicros); changed {
			bidChanged = append(bidChanged, record(model.ChangeKeywordBid, key, old, new))
		}
	}

	records := added
	records = append(records, removed...)
	records = append(records, statusChanged...)
	records = append(records, bidChanged...)
	return records
}

func (e *Engine) diffAds(prev, curr *model.CampaignSnapshot, detectedAt time.Time) []model.ChangeRecord {
	var records []model.ChangeRecord
	for _, key := range sortedAdKeys(prev.Ads) {
		prevState := prev.Ads[key]
		currState, ok := curr.Ads[key]
		if !ok || prevState.Status == currState.Status {
			continue
		}
		records = append(records, model.ChangeRecord{
			Category: model.ChangeAdStatus,
			Entity: model.EntityRef{
				CampaignID: curr.CampaignID,
				AdGroupID:  key.AdGroupID,
				AdID:       key.AdID,
			},
			Old:        string(prevState.Status),
			New:        string(currState.Status),
			DetectedAt: detectedAt,
			Source:     model.SourceAutomatic,
		})
	}
	return records
}

// moneyChanged reports whether the delta clears the noise thresholds.
func (e *Engine) moneyChanged(prevMicros, currMicros int64) bool {
	delta := currMicros - prevMicros
	if delta < 0 {
		delta = -delta
	}
	if delta == 0 || delta < e.minDeltaMicros {
		return false
	}
	if e.minDeltaPercent > 0 && prevMicros != 0 {
		base := prevMicros
		if base < 0 {
			base = -base
		}
		if float64(delta)/float64(base)*100 < e.minDeltaPercent {
			return false
		}
	}
	return true
}

// optionalMoneyChanged handles nullable money fields. A value appearing or
// disappearing is always a change; when both sides are set the noise
// thresholds apply.
func (e *Engine) optionalMoneyChanged(prev, curr *int64) (old, new string, changed bool) {
	switch {
	case prev == nil && curr == nil:
		return "", "", false
	case prev == nil:
		return "", formatMoney(*curr), true
	case curr == nil:
		return formatMoney(*prev), "", true
	default:
		if !e.moneyChanged(*prev, *curr) {
			return "", "", false
		}
		return formatMoney(*prev), formatMoney(*curr), true
	}
}

// formatMoney renders micros as a plain two-decimal amount ("75.00").
func formatMoney(micros int64) string {
	return strconv.FormatFloat(model.MicrosToDollars(micros), 'f', 2, 64)
}

func adGroupName(prevState, currState model.AdGroupState) string {
	if currState.Name != "" {
		return currState.Name
	}
	return prevState.Name
}

func sortedKeywordKeys(set model.KeywordSet) []model.KeywordKey {
	keys := make([]model.KeywordKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AdGroupID != keys[j].AdGroupID {
			return keys[i].AdGroupID < keys[j].AdGroupID
		}
		if keys[i].Text != keys[j].Text {
			return keys[i].Text < keys[j].Text
		}
		return keys[i].MatchType < keys[j].MatchType
	})
	return keys
}

func sortedAdGroupKeys(set model.AdGroupSet) []model.AdGroupKey {
	keys := make([]model.AdGroupKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].AdGroupID < keys[j].AdGroupID })
	return keys
}

func sortedAdKeys(set model.AdSet) []model.AdKey {
	keys := make([]model.AdKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AdGroupID != keys[j].AdGroupID {
			return keys[i].AdGroupID < keys[j].AdGroupID
		}
		return keys[i].AdID < keys[j].AdID
	})
	return keys
}
