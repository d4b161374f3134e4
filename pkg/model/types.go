package model

import (
	"fmt"
	"math"
	"strings"
)

// EntityStatus is the serving status of a campaign, ad group, ad, or keyword.
type EntityStatus string

const (
	StatusEnabled EntityStatus = "ENABLED"
	StatusPaused  EntityStatus = "PAUSED"
	StatusRemoved EntityStatus = "REMOVED"
)

// ParseEntityStatus maps an upstream status string to the closed enum.
func ParseEntityStatus(s string) (EntityStatus, error) {
	switch EntityStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusEnabled:
		return StatusEnabled, nil
	case StatusPaused:
		return StatusPaused, nil
	case StatusRemoved:
		return StatusRemoved, nil
	}
	return "", fmt.Errorf("unknown entity status %q", s)
}

// MatchType is a keyword matching mode. It is part of a keyword's stable
// identity, so it is a closed enum rather than a free string.
type MatchType string

const (
	MatchExact  MatchType = "EXACT"
	MatchPhrase MatchType = "PHRASE"
	MatchBroad  MatchType = "BROAD"
)

// ParseMatchType maps an upstream match type string to the closed enum.
func ParseMatchType(s string) (MatchType, error) {
	switch MatchType(strings.ToUpper(strings.TrimSpace(s))) {
	case MatchExact:
		return MatchExact, nil
	case MatchPhrase:
		return MatchPhrase, nil
	case MatchBroad:
		return MatchBroad, nil
	}
	return "", fmt.Errorf("unknown match type %q", s)
}

// BiddingStrategy is a campaign bidding strategy type.
type BiddingStrategy string

const (
	BiddingManualCPC               BiddingStrategy = "MANUAL_CPC"
	BiddingTargetCPA               BiddingStrategy = "TARGET_CPA"
	BiddingTargetROAS              BiddingStrategy = "TARGET_ROAS"
	BiddingMaximizeClicks          BiddingStrategy = "MAXIMIZE_CLICKS"
	BiddingMaximizeConversions     BiddingStrategy = "MAXIMIZE_CONVERSIONS"
	BiddingMaximizeConversionValue BiddingStrategy = "MAXIMIZE_CONVERSION_VALUE"
	BiddingTargetImpressionShare   BiddingStrategy = "TARGET_IMPRESSION_SHARE"
)

var knownStrategies = map[BiddingStrategy]bool{
	BiddingManualCPC:               true,
	BiddingTargetCPA:               true,
	BiddingTargetROAS:              true,
	BiddingMaximizeClicks:          true,
	BiddingMaximizeConversions:     true,
	BiddingMaximizeConversionValue: true,
	BiddingTargetImpressionShare:   true,
}

// ParseBiddingStrategy maps an upstream strategy name to the closed enum.
// Unknown names are rejected, never silently dropped.
func ParseBiddingStrategy(s string) (BiddingStrategy, error) {
	bs := BiddingStrategy(strings.ToUpper(strings.TrimSpace(s)))
	if !knownStrategies[bs] {
		return "", fmt.Errorf("unknown bidding strategy %q", s)
	}
	return bs, nil
}

// IsSmartBidding reports whether the strategy is an automated (smart) one.
func (b BiddingStrategy) IsSmartBidding() bool {
	return b != BiddingManualCPC
}

// DollarsToMicros converts a currency amount in whole units to micros,
// the fixed-point unit used for all stored monetary values.
func DollarsToMicros(d float64) int64 {
	return int64(math.Round(d * 1_000_000))
}

// MicrosToDollars converts micros back to whole currency units.
func MicrosToDollars(m int64) float64 {
	return float64(m) / 1_000_000
}
