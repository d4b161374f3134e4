package diff_test

import (
	"testing"
	"time"

	"github.com/adstate-project/adstate/internal/diff"
	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/adstate-project/adstate/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var detectedAt = time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// oneCent is the default absolute noise floor.
const oneCent = int64(10_000)

func baseSnapshot() *model.CampaignSnapshot {
	bid := int64(2_500_000)
	return &model.CampaignSnapshot{
		AccountID:       "9660434837",
		CampaignID:      "22557679902",
		CampaignName:    "PPCL Central NC v3",
		CapturedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Status:          model.StatusEnabled,
		BudgetMicros:    50_000_000,
		BiddingStrategy: model.BiddingMaximizeConversions,
		Keywords: model.KeywordSet{
			{AdGroupID: 100, Text: "sell my house fast", MatchType: model.MatchPhrase}: {Status: model.StatusEnabled, BidMicros: &bid},
			{AdGroupID: 100, Text: "cash offer", MatchType: model.MatchExact}:          {Status: model.StatusEnabled},
		},
		AdGroups: model.AdGroupSet{
			{AdGroupID: 100}: {Name: "Sellers", Status: model.StatusEnabled},
		},
		Ads: model.AdSet{
			{AdGroupID: 100, AdID: 900}: {Status: model.StatusEnabled},
		},
	}
}

// clone round-trips through the keyed collections so mutations in one copy
// never leak into the other.
func clone(s *model.CampaignSnapshot) *model.CampaignSnapshot {
	out := *s
	out.Keywords = make(model.KeywordSet, len(s.Keywords))
	for k, v := range s.Keywords {
		if v.BidMicros != nil {
			b := *v.BidMicros
			v.BidMicros = &b
		}
		out.Keywords[k] = v
	}
	out.AdGroups = make(model.AdGroupSet, len(s.AdGroups))
	for k, v := range s.AdGroups {
		out.AdGroups[k] = v
	}
	out.Ads = make(model.AdSet, len(s.Ads))
	for k, v := range s.Ads {
		out.Ads[k] = v
	}
	if s.TargetCPAMicros != nil {
		c := *s.TargetCPAMicros
		out.TargetCPAMicros = &c
	}
	return &out
}

func TestDiff_IdenticalSnapshotsProduceNothing(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.CapturedAt = curr.CapturedAt.Add(24 * time.Hour)

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDiff_BudgetChange(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.BudgetMicros = 75_000_000

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeBudget, records[0].Category)
	assert.Equal(t, "50.00", records[0].Old)
	assert.Equal(t, "75.00", records[0].New)
	assert.Equal(t, detectedAt, records[0].DetectedAt)
	assert.Equal(t, model.SourceAutomatic, records[0].Source)
	assert.Equal(t, "22557679902", records[0].Entity.CampaignID)
}

func TestDiff_SubThresholdBudgetDeltaSuppressed(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.BudgetMicros = prev.BudgetMicros + 5_000 // half a cent

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDiff_PercentThresholdSuppressed(t *testing.T) {
	// 2% relative floor: a 0.5% budget move is noise even above the
	// absolute floor.
	engine := diff.NewEngine(oneCent, 2.0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.BudgetMicros = prev.BudgetMicros + 250_000 // +0.5%

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	assert.Empty(t, records)

	curr.BudgetMicros = prev.BudgetMicros + 1_500_000 // +3%
	records, err = engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeBudget, records[0].Category)
}

func TestDiff_KeywordRemovedAndAdded(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	removed := model.KeywordKey{AdGroupID: 100, Text: "cash offer", MatchType: model.MatchExact}
	delete(curr.Keywords, removed)
	addedKey := model.KeywordKey{AdGroupID: 100, Text: "we buy houses", MatchType: model.MatchBroad}
	curr.Keywords[addedKey] = model.KeywordState{Status: model.StatusEnabled}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Added before removed.
	assert.Equal(t, model.ChangeKeywordAdded, records[0].Category)
	assert.Equal(t, "we buy houses", records[0].Entity.KeywordText)
	assert.Equal(t, model.MatchBroad, records[0].Entity.MatchType)
	assert.Equal(t, "ENABLED", records[0].New)

	assert.Equal(t, model.ChangeKeywordRemoved, records[1].Category)
	assert.Equal(t, "cash offer", records[1].Entity.KeywordText)
	assert.Equal(t, "ENABLED", records[1].Old)
	assert.Empty(t, records[1].New)
}

func TestDiff_KeywordRemovalOnly(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	delete(curr.Keywords, model.KeywordKey{AdGroupID: 100, Text: "sell my house fast", MatchType: model.MatchPhrase})

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeKeywordRemoved, records[0].Category)
	assert.Equal(t, "sell my house fast", records[0].Entity.KeywordText)
	assert.Equal(t, model.MatchPhrase, records[0].Entity.MatchType)
}

func TestDiff_StrategyOnlyChange(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	prev.BiddingStrategy = model.BiddingMaximizeClicks
	curr := clone(prev)
	curr.BiddingStrategy = model.BiddingMaximizeConversions

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeBiddingStrategy, records[0].Category)
	assert.Equal(t, "MAXIMIZE_CLICKS", records[0].Old)
	assert.Equal(t, "MAXIMIZE_CONVERSIONS", records[0].New)

	again, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	assert.Equal(t, records, again)
}

func TestDiff_MatchTypeChangeIsRemoveThenAdd(t *testing.T) {
	// Match type is identity, so changing it reads as one keyword removed
	// and another added.
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	old := model.KeywordKey{AdGroupID: 100, Text: "cash offer", MatchType: model.MatchExact}
	delete(curr.Keywords, old)
	curr.Keywords[model.KeywordKey{AdGroupID: 100, Text: "cash offer", MatchType: model.MatchPhrase}] = model.KeywordState{Status: model.StatusEnabled}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.ChangeKeywordAdded, records[0].Category)
	assert.Equal(t, model.ChangeKeywordRemoved, records[1].Category)
	assert.Equal(t, records[0].Entity.KeywordText, records[1].Entity.KeywordText)
}

func TestDiff_KeywordStatusAndBid(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	key := model.KeywordKey{AdGroupID: 100, Text: "sell my house fast", MatchType: model.MatchPhrase}
	curr.Keywords[key] = model.KeywordState{Status: model.StatusPaused, BidMicros: ptr(int64(3_000_000))}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, model.ChangeKeywordStatus, records[0].Category)
	assert.Equal(t, "ENABLED", records[0].Old)
	assert.Equal(t, "PAUSED", records[0].New)

	assert.Equal(t, model.ChangeKeywordBid, records[1].Category)
	assert.Equal(t, "2.50", records[1].Old)
	assert.Equal(t, "3.00", records[1].New)
}

func TestDiff_SubThresholdBidDeltaSuppressed(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	key := model.KeywordKey{AdGroupID: 100, Text: "sell my house fast", MatchType: model.MatchPhrase}
	curr.Keywords[key] = model.KeywordState{Status: model.StatusEnabled, BidMicros: ptr(int64(2_505_000))}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	assert.Empty(t, records, "half-cent bid move is noise")

	curr.Keywords[key] = model.KeywordState{Status: model.StatusEnabled, BidMicros: ptr(int64(2_520_000))}
	records, err = engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeKeywordBid, records[0].Category)
}

func TestDiff_KeywordBidSetAndCleared(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	key := model.KeywordKey{AdGroupID: 100, Text: "cash offer", MatchType: model.MatchExact}
	curr.Keywords[key] = model.KeywordState{Status: model.StatusEnabled, BidMicros: ptr(int64(1_250_000))}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeKeywordBid, records[0].Category)
	assert.Empty(t, records[0].Old)
	assert.Equal(t, "1.25", records[0].New)

	// And the reverse: clearing an explicit bid is a change too.
	back, err := engine.Diff(curr, prev, detectedAt)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "1.25", back[0].Old)
	assert.Empty(t, back[0].New)
}

func TestDiff_CampaignAndAdGroupStatus(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.Status = model.StatusPaused
	curr.AdGroups[model.AdGroupKey{AdGroupID: 100}] = model.AdGroupState{Name: "Sellers", Status: model.StatusPaused}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.ChangeCampaignStatus, records[0].Category)
	assert.Equal(t, model.ChangeAdGroupStatus, records[1].Category)
	assert.Equal(t, int64(100), records[1].Entity.AdGroupID)
	assert.Equal(t, "Sellers", records[1].Entity.Name)
}

func TestDiff_AdStatus(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.Ads[model.AdKey{AdGroupID: 100, AdID: 900}] = model.AdState{Status: model.StatusPaused}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeAdStatus, records[0].Category)
	assert.Equal(t, int64(900), records[0].Entity.AdID)
}

func TestDiff_TargetCPASetChangedCleared(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()

	// nil -> set
	curr := clone(prev)
	curr.TargetCPAMicros = ptr(int64(25_000_000))
	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ChangeTargetCPA, records[0].Category)
	assert.Empty(t, records[0].Old)
	assert.Equal(t, "25.00", records[0].New)

	// set -> set
	next := clone(curr)
	next.TargetCPAMicros = ptr(int64(30_000_000))
	records, err = engine.Diff(curr, next, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "25.00", records[0].Old)
	assert.Equal(t, "30.00", records[0].New)

	// set -> nil
	records, err = engine.Diff(next, prev, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "30.00", records[0].Old)
	assert.Empty(t, records[0].New)
}

func TestDiff_BiddingStrategyChange(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.BiddingStrategy = model.BiddingTargetCPA
	curr.TargetCPAMicros = ptr(int64(40_000_000))

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.ChangeBiddingStrategy, records[0].Category)
	assert.Equal(t, "MAXIMIZE_CONVERSIONS", records[0].Old)
	assert.Equal(t, "TARGET_CPA", records[0].New)
	assert.Equal(t, model.ChangeTargetCPA, records[1].Category)
}

func TestDiff_CategoryOrderingIsFixed(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	// Touch every category at once.
	curr.BudgetMicros = 60_000_000
	curr.BiddingStrategy = model.BiddingTargetCPA
	curr.TargetCPAMicros = ptr(int64(35_000_000))
	curr.Status = model.StatusPaused
	curr.AdGroups[model.AdGroupKey{AdGroupID: 100}] = model.AdGroupState{Name: "Sellers", Status: model.StatusPaused}
	curr.Keywords[model.KeywordKey{AdGroupID: 100, Text: "we buy houses", MatchType: model.MatchBroad}] = model.KeywordState{Status: model.StatusEnabled}
	delete(curr.Keywords, model.KeywordKey{AdGroupID: 100, Text: "cash offer", MatchType: model.MatchExact})
	kwKey := model.KeywordKey{AdGroupID: 100, Text: "sell my house fast", MatchType: model.MatchPhrase}
	curr.Keywords[kwKey] = model.KeywordState{Status: model.StatusPaused, BidMicros: ptr(int64(3_500_000))}
	curr.Ads[model.AdKey{AdGroupID: 100, AdID: 900}] = model.AdState{Status: model.StatusPaused}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)

	got := make([]model.ChangeCategory, len(records))
	for i, r := range records {
		got[i] = r.Category
	}
	assert.Equal(t, []model.ChangeCategory{
		model.ChangeBudget,
		model.ChangeBiddingStrategy,
		model.ChangeTargetCPA,
		model.ChangeCampaignStatus,
		model.ChangeAdGroupStatus,
		model.ChangeKeywordAdded,
		model.ChangeKeywordRemoved,
		model.ChangeKeywordStatus,
		model.ChangeKeywordBid,
		model.ChangeAdStatus,
	}, got)
}

func TestDiff_RepeatedCallsAreIdentical(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.BudgetMicros = 75_000_000
	curr.Keywords[model.KeywordKey{AdGroupID: 100, Text: "we buy houses", MatchType: model.MatchBroad}] = model.KeywordState{Status: model.StatusEnabled}

	first, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.Diff(prev, curr, detectedAt)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDiff_RefusesPartialSnapshots(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()

	curr := clone(prev)
	curr.Partial = true
	_, err := engine.Diff(prev, curr, detectedAt)
	assert.ErrorIs(t, err, errclass.ErrPartialSnapshot)

	partialPrev := clone(prev)
	partialPrev.Partial = true
	_, err = engine.Diff(partialPrev, clone(prev), detectedAt)
	assert.ErrorIs(t, err, errclass.ErrPartialSnapshot)
}

func TestDiff_RejectsIdentityMismatch(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.CampaignID = "99999999999"

	_, err := engine.Diff(prev, curr, detectedAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity mismatch")
}

func TestDiff_KeywordOrderWithinCategory(t *testing.T) {
	engine := diff.NewEngine(oneCent, 0)
	prev := baseSnapshot()
	curr := clone(prev)
	curr.Keywords[model.KeywordKey{AdGroupID: 200, Text: "a", MatchType: model.MatchExact}] = model.KeywordState{Status: model.StatusEnabled}
	curr.Keywords[model.KeywordKey{AdGroupID: 100, Text: "zz", MatchType: model.MatchExact}] = model.KeywordState{Status: model.StatusEnabled}
	curr.Keywords[model.KeywordKey{AdGroupID: 100, Text: "aa", MatchType: model.MatchExact}] = model.KeywordState{Status: model.StatusEnabled}

	records, err := engine.Diff(prev, curr, detectedAt)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "aa", records[0].Entity.KeywordText)
	assert.Equal(t, "zz", records[1].Entity.KeywordText)
	assert.Equal(t, int64(200), records[2].Entity.AdGroupID)
}
