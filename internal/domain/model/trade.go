package model

import (
	"strings"
	"unicode"
)

// TradeTag is a canonical label for a category of skilled work.
type TradeTag string

const (
	TradePlumbing           TradeTag = "plumbing"
	TradeElectrical         TradeTag = "electrical"
	TradeCarpentry          TradeTag = "carpentry"
	TradePaintingDecorating TradeTag = "painting_decorating"
	TradeRoofing            TradeTag = "roofing"
	TradeTiling             TradeTag = "tiling"
	TradePlastering         TradeTag = "plastering"
	TradeGeneralBuilding    TradeTag = "general_building"
	TradeLocksmith          TradeTag = "locksmith"
	TradeHeating            TradeTag = "heating"
	TradeApplianceRepair    TradeTag = "appliance_repair"
	TradeLandscaping        TradeTag = "landscaping"
	TradeFlooring           TradeTag = "flooring"
	TradeGlazing            TradeTag = "glazing"
)

// TaxonomyVersion changes whenever the trade list below changes.
const TaxonomyVersion = "2024.1"

// DefaultTrade is returned by the keyword classifier when nothing matches.
const DefaultTrade = TradeGeneralBuilding

var trades = []TradeTag{
	TradePlumbing,
	TradeElectrical,
	TradeCarpentry,
	TradePaintingDecorating,
	TradeRoofing,
	TradeTiling,
	TradePlastering,
	TradeGeneralBuilding,
	TradeLocksmith,
	TradeHeating,
	TradeApplianceRepair,
	TradeLandscaping,
	TradeFlooring,
	TradeGlazing,
}

var tradeIndex = func() map[TradeTag]int {
	m := make(map[TradeTag]int, len(trades))
	for i, t := range trades {
		m[t] = i
	}
	return m
}()

// tradeAliases maps normalized spellings seen in user input and model output
// onto canonical tags.
var tradeAliases = map[string]TradeTag{
	"plumber":                   TradePlumbing,
	"plumbing_heating":          TradePlumbing,
	"electrician":               TradeElectrical,
	"electric":                  TradeElectrical,
	"electrics":                 TradeElectrical,
	"carpenter":                 TradeCarpentry,
	"joiner":                    TradeCarpentry,
	"joinery":                   TradeCarpentry,
	"painter":                   TradePaintingDecorating,
	"painting":                  TradePaintingDecorating,
	"decorating":                TradePaintingDecorating,
	"painter_decorator":         TradePaintingDecorating,
	"painting_and_decorating":   TradePaintingDecorating,
	"roofer":                    TradeRoofing,
	"tiler":                     TradeTiling,
	"plasterer":                 TradePlastering,
	"builder":                   TradeGeneralBuilding,
	"general_builder":           TradeGeneralBuilding,
	"building":                  TradeGeneralBuilding,
	"building_and_construction": TradeGeneralBuilding,
	"building_construction":     TradeGeneralBuilding,
	"construction":              TradeGeneralBuilding,
	"locksmiths":                TradeLocksmith,
	"heating_engineer":          TradeHeating,
	"heating_and_gas":           TradeHeating,
	"gas":                       TradeHeating,
	"appliance":                 TradeApplianceRepair,
	"appliances":                TradeApplianceRepair,
	"gardener":                  TradeLandscaping,
	"gardening":                 TradeLandscaping,
	"landscaper":                TradeLandscaping,
	"flooring_installer":        TradeFlooring,
	"floor_fitter":              TradeFlooring,
	"glazier":                   TradeGlazing,
	"window_door_installer":     TradeGlazing,
	"windows_and_doors":         TradeGlazing,
}

// ListTrades returns the taxonomy in display order. The slice is a copy.
func ListTrades() []TradeTag {
	out := make([]TradeTag, len(trades))
	copy(out, trades)
	return out
}

// IsValid reports whether tag is a canonical member of the taxonomy.
func IsValid(tag TradeTag) bool {
	_, ok := tradeIndex[tag]
	return ok
}

// NormalizeTrade maps a free spelling ("Plumber", "Painting & Decorating")
// to its canonical tag.
func NormalizeTrade(raw string) (TradeTag, bool) {
	key := slugify(raw)
	if key == "" {
		return "", false
	}
	if t := TradeTag(key); IsValid(t) {
		return t, true
	}
	if t, ok := tradeAliases[key]; ok {
		return t, true
	}
	return "", false
}

// NormalizeTrades dedups case-insensitively, keeps first-seen order and
// filters to the taxonomy. Inputs that could not be mapped are returned in
// dropped so callers can log them.
func NormalizeTrades(raw []string) (tags []TradeTag, dropped []string) {
	seen := make(map[TradeTag]struct{}, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		t, ok := NormalizeTrade(r)
		if !ok {
			dropped = append(dropped, r)
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags, dropped
}

// SortTrades orders tags by taxonomy position.
func SortTrades(tags []TradeTag) {
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tradeIndex[tags[j]] < tradeIndex[tags[j-1]]; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
}

// TradeStrings converts tags for storage drivers.
func TradeStrings(tags []TradeTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// ContainsTrade reports whether t is in tags.
func ContainsTrade(tags []TradeTag, t TradeTag) bool {
	for _, x := range tags {
		if x == t {
			return true
		}
	}
	return false
}

// slugify lowercases and collapses every run of non-alphanumerics into "_";
// "&" reads as "and".
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", " and ")
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
