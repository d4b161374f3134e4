// Package normalize converts fetcher-shaped campaign records into canonical
// snapshots: metrics stripped, money in micros, enums closed, keys stable.
package normalize

import (
	"math"
	"time"

	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/adstate-project/adstate/pkg/model"
)

// Normalize builds a canonical snapshot from one raw campaign record.
// capturedAt is supplied by the caller so repeated normalization of the
// same record is deterministic.
//
// Required fields fail with ErrMissingField; enum values outside the closed
// sets fail with ErrUnknownEnum. Nothing is defaulted: a silently defaulted
// budget or status would surface later as a phantom change.
func Normalize(raw *model.RawCampaignRecord, capturedAt time.Time) (*model.CampaignSnapshot, error) {
	if raw.AccountID == "" {
		return nil, errclass.ErrMissingField.WithMessage("account_id")
	}
	if raw.CampaignID == "" {
		return nil, errclass.ErrMissingField.WithMessage("campaign_id")
	}
	if raw.Budget == nil {
		return nil, errclass.ErrMissingField.WithMessagef("campaign %s: budget", raw.CampaignID)
	}
	if raw.Status == "" {
		return nil, errclass.ErrMissingField.WithMessagef("campaign %s: status", raw.CampaignID)
	}
	if raw.BiddingStrategy == "" {
		return nil, errclass.ErrMissingField.WithMessagef("campaign %s: bidding_strategy", raw.CampaignID)
	}

	status, err := model.ParseEntityStatus(raw.Status)
	if err != nil {
		return nil, errclass.ErrUnknownEnum.WithMessage(err.Error())
	}
	strategy, err := model.ParseBiddingStrategy(raw.BiddingStrategy)
	if err != nil {
		return nil, errclass.ErrUnknownEnum.WithMessage(err.Error())
	}

	snap := &model.CampaignSnapshot{
		AccountID:       raw.AccountID,
		CampaignID:      raw.CampaignID,
		CampaignName:    raw.CampaignName,
		CapturedAt:      capturedAt,
		Status:          status,
		BudgetMicros:    model.DollarsToMicros(*raw.Budget),
		BiddingStrategy: strategy,
		Keywords:        make(model.KeywordSet, len(raw.Keywords)),
		AdGroups:        make(model.AdGroupSet, len(raw.AdGroups)),
		Ads:             make(model.AdSet, len(raw.Ads)),
		Partial:         raw.Partial,
	}

	if raw.TargetCPA != nil {
		micros := model.DollarsToMicros(*raw.TargetCPA)
		snap.TargetCPAMicros = &micros
	}
	if raw.TargetROAS != nil {
		millis := int64(math.Round(*raw.TargetROAS * 1000))
		snap.TargetROASMillis = &millis
	}

	for _, kw := range raw.Keywords {
		key, state, err := normalizeKeyword(kw)
		if err != nil {
			return nil, err
		}
		if _, dup := snap.Keywords[key]; dup {
			return nil, errclass.ErrDuplicateKey.WithMessagef("keyword %s", key)
		}
		snap.Keywords[key] = state
	}

	for _, ag := range raw.AdGroups {
		if ag.AdGroupID == 0 {
			return nil, errclass.ErrMissingField.WithMessage("ad_group_id")
		}
		agStatus, err := model.ParseEntityStatus(ag.Status)
		if err != nil {
			return nil, errclass.ErrUnknownEnum.WithMessage(err.Error())
		}
		key := model.AdGroupKey{AdGroupID: ag.AdGroupID}
		if _, dup := snap.AdGroups[key]; dup {
			return nil, errclass.ErrDuplicateKey.WithMessagef("ad group %d", ag.AdGroupID)
		}
		snap.AdGroups[key] = model.AdGroupState{Name: ag.AdGroupName, Status: agStatus}
	}

	for _, ad := range raw.Ads {
		if ad.AdGroupID == 0 || ad.AdID == 0 {
			return nil, errclass.ErrMissingField.WithMessage("ad identity")
		}
		adStatus, err := model.ParseEntityStatus(ad.Status)
		if err != nil {
			return nil, errclass.ErrUnknownEnum.WithMessage(err.Error())
		}
		key := model.AdKey{AdGroupID: ad.AdGroupID, AdID: ad.AdID}
		if _, dup := snap.Ads[key]; dup {
			return nil, errclass.ErrDuplicateKey.WithMessagef("ad %d/%d", ad.AdGroupID, ad.AdID)
		}
		snap.Ads[key] = model.AdState{Status: adStatus}
	}

	return snap, nil
}

func normalizeKeyword(kw model.RawKeyword) (model.KeywordKey, model.KeywordState, error) {
	var zero model.KeywordKey
	if kw.AdGroupID == 0 {
		return zero, model.KeywordState{}, errclass.ErrMissingField.WithMessagef("keyword %q: ad_group_id", kw.KeywordText)
	}
	if kw.KeywordText == "" {
		return zero, model.KeywordState{}, errclass.ErrMissingField.WithMessagef("ad group %d: keyword_text", kw.AdGroupID)
	}
	matchType, err := model.ParseMatchType(kw.MatchType)
	if err != nil {
		return zero, model.KeywordState{}, errclass.ErrUnknownEnum.WithMessage(err.Error())
	}
	status, err := model.ParseEntityStatus(kw.Status)
	if err != nil {
		return zero, model.KeywordState{}, errclass.ErrUnknownEnum.WithMessage(err.Error())
	}

	state := model.KeywordState{Status: status}
	if kw.CPCBid != nil {
		micros := model.DollarsToMicros(*kw.CPCBid)
		state.BidMicros = &micros
	}

	key := model.KeywordKey{AdGroupID: kw.AdGroupID, Text: kw.KeywordText, MatchType: matchType}
	return key, state, nil
}
