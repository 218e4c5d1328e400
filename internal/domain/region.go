package domain

import (
	"sort"
	"strings"
)

// Region is one HadUKP regional series.
type Region struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// SourceFile returns the HadUKP file name holding the region's daily totals.
func (r Region) SourceFile() string {
	return "Had" + r.Code + "_daily_totals.txt"
}

// catalogue is the closed set of regions in display order.
var catalogue = []Region{
	{Name: "england & wales", Code: "EWP"},
	{Name: "south east england", Code: "SEEP"},
	{Name: "south west england & wales", Code: "SWEP"},
	{Name: "central england", Code: "CEP"},
	{Name: "north west england & wales", Code: "NWEP"},
	{Name: "north east england", Code: "NEEP"},
	{Name: "scotland", Code: "SP"},
	{Name: "south scotland", Code: "SSP"},
	{Name: "north scotland", Code: "NSP"},
	{Name: "east scotland", Code: "ESP"},
	{Name: "northern ireland", Code: "NIP"},
}

// DefaultRegions is the region selection used when a caller does not choose one.
var DefaultRegions = []string{"scotland", "england & wales"}

// Regions returns a copy of the region catalogue in display order.
func Regions() []Region {
	out := make([]Region, len(catalogue))
	copy(out, catalogue)
	return out
}

// LookupRegion resolves a region by name (case-insensitive) or by source code.
func LookupRegion(name string) (Region, bool) {
	name = normalizeRegionName(name)
	for _, r := range catalogue {
		if r.Name == name || strings.EqualFold(r.Code, name) {
			return r, true
		}
	}
	return Region{}, false
}

// RegionSetKey returns a canonical, order-independent key for a set of regions.
func RegionSetKey(regions []Region) string {
	codes := make([]string, 0, len(regions))
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		codes = append(codes, r.Code)
	}
	sort.Strings(codes)
	return strings.Join(codes, ",")
}

func normalizeRegionName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
