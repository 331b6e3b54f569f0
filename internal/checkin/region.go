package checkin

import (
	"fmt"
	"strings"
	"time"
)

// Region selects the rewards-service server whose timezone defines the
// daily reset.
type Region string

const (
	RegionAsia    Region = "asia"
	RegionEurope  Region = "europe"
	RegionAmerica Region = "america"
	RegionCHT     Region = "cht"
)

// Fixed UTC offsets. The service resets at local midnight and ignores DST.
var regionOffsets = map[Region]int{
	RegionAsia:    8,
	RegionEurope:  1,
	RegionAmerica: -5,
	RegionCHT:     8,
}

// ParseRegion parses a region name, case-insensitively.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := regionOffsets[r]; !ok {
		return "", fmt.Errorf("checkin: unknown region %q (want asia, europe, america or cht)", s)
	}
	return r, nil
}

// Location returns the fixed zone of the region.
func (r Region) Location() *time.Location {
	offset, ok := regionOffsets[r]
	if !ok {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offset), offset*int(time.Hour/time.Second))
}

// DayBeginning returns the reset boundary of the period containing now:
// midnight of now's date in the region's zone.
func (r Region) DayBeginning(now time.Time) time.Time {
	local := now.In(r.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, local.Location())
}

// NextReset returns the first reset boundary strictly after the current
// period began.
func (r Region) NextReset(now time.Time) time.Time {
	return r.DayBeginning(now).AddDate(0, 0, 1)
}
