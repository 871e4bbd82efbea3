package model

import (
	"strings"
	"time"
)

// ContractorProfile declares which trades a tradesperson works in.
type ContractorProfile struct {
	UserID          string     `json:"user_id"`
	PrimaryTrade    TradeTag   `json:"primary_trade,omitempty"`
	SecondaryTrades []TradeTag `json:"secondary_trades"`
	County          string     `json:"county,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewContractorProfile normalizes trade input; unknown spellings are returned
// in dropped.
func NewContractorProfile(userID, primary string, secondary []string, county string) (*ContractorProfile, []string) {
	p := &ContractorProfile{
		UserID:    userID,
		County:    strings.TrimSpace(county),
		UpdatedAt: time.Now().UTC(),
	}
	var dropped []string
	if strings.TrimSpace(primary) != "" {
		if t, ok := NormalizeTrade(primary); ok {
			p.PrimaryTrade = t
		} else {
			dropped = append(dropped, primary)
		}
	}
	sec, d := NormalizeTrades(secondary)
	dropped = append(dropped, d...)
	p.SecondaryTrades = make([]TradeTag, 0, len(sec))
	for _, t := range sec {
		if t != p.PrimaryTrade {
			p.SecondaryTrades = append(p.SecondaryTrades, t)
		}
	}
	return p, dropped
}

// ContractorListing is a directory entry: a profile with its review summary.
type ContractorListing struct {
	*ContractorProfile
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// TradeSet is primary followed by secondary trades, without duplicates.
func (p *ContractorProfile) TradeSet() []TradeTag {
	if p == nil {
		return nil
	}
	out := make([]TradeTag, 0, 1+len(p.SecondaryTrades))
	if p.PrimaryTrade != "" {
		out = append(out, p.PrimaryTrade)
	}
	for _, t := range p.SecondaryTrades {
		if !ContainsTrade(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// OverlapsTrades reports whether the profile's trade set intersects set.
func (p *ContractorProfile) OverlapsTrades(set []TradeTag) bool {
	own := p.TradeSet()
	for _, t := range set {
		if ContainsTrade(own, t) {
			return true
		}
	}
	return false
}
