package model

// Raw records are the fetcher-shaped input to the normalizer. Monetary
// amounts arrive as floating-point whole currency units and enums as free
// strings, exactly as the upstream data fetcher reports them. Performance
// metric fields are present so the wire shape parses, but the normalizer
// never carries them into a snapshot.

// RawCampaignRecord is one campaign as reported by the upstream fetcher.
type RawCampaignRecord struct {
	AccountID       string   `json:"account_id"`
	CampaignID      string   `json:"campaign_id"`
	CampaignName    string   `json:"campaign_name"`
	Status          string   `json:"status"`
	Budget          *float64 `json:"budget"`
	BiddingStrategy string   `json:"bidding_strategy"`
	TargetCPA       *float64 `json:"target_cpa,omitempty"`
	TargetROAS      *float64 `json:"target_roas,omitempty"`

	// Partial marks a fetch whose entity collections are known to be
	// incompletely enumerated (pagination cut short, per-page errors).
	Partial bool `json:"partial,omitempty"`

	AdGroups []RawAdGroup `json:"ad_groups"`
	Keywords []RawKeyword `json:"keywords"`
	Ads      []RawAd      `json:"ads,omitempty"`

	// Volatile performance metrics, ignored by the normalizer.
	Impressions int64   `json:"impressions,omitempty"`
	Clicks      int64   `json:"clicks,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Conversions float64 `json:"conversions,omitempty"`
}

// RawAdGroup is one ad group row from the fetcher.
type RawAdGroup struct {
	AdGroupID   int64   `json:"ad_group_id"`
	AdGroupName string  `json:"ad_group_name,omitempty"`
	Status      string  `json:"status"`
	CPCBid      *float64 `json:"cpc_bid,omitempty"`

	Impressions int64   `json:"impressions,omitempty"`
	Clicks      int64   `json:"clicks,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Conversions float64 `json:"conversions,omitempty"`
}

// RawKeyword is one keyword row from the fetcher.
type RawKeyword struct {
	AdGroupID    int64    `json:"ad_group_id"`
	KeywordText  string   `json:"keyword_text"`
	MatchType    string   `json:"match_type"`
	Status       string   `json:"status"`
	CPCBid       *float64 `json:"cpc_bid,omitempty"`
	QualityScore *int     `json:"quality_score,omitempty"`

	Impressions int64   `json:"impressions,omitempty"`
	Clicks      int64   `json:"clicks,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Conversions float64 `json:"conversions,omitempty"`
}

// RawAd is one ad row from the fetcher.
type RawAd struct {
	AdGroupID int64  `json:"ad_group_id"`
	AdID      int64  `json:"ad_id"`
	Status    string `json:"status"`
}
