package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

// DefaultZoneNames are the North American zones a feed's "updated" timestamp is
// checked against when the zone list is not configured.
var DefaultZoneNames = []string{
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
}

// DefaultCountryMarkers match US locations. The bare "us" marker also matches
// any location text containing "us" (e.g. "Austria", "Columbus"); this is a
// known imprecision of the upstream location strings and is kept as is.
var DefaultCountryMarkers = []string{"united states", "us"}

// Policy is the immutable input of the freshness filter.
type Policy struct {
	Window         time.Duration
	Zones          []*time.Location
	Keywords       []string
	CountryMarkers []string
	RequireRemote  bool
}

// LoadZones resolves IANA zone names.
func LoadZones(names []string) ([]*time.Location, error) {
	zones := make([]*time.Location, 0, len(names))
	for _, name := range names {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("load zone %q: %w", name, err)
		}
		zones = append(zones, loc)
	}
	return zones, nil
}

// IsQualifying reports whether p is recent enough, matches a keyword and is in
// the target country. It has no side effects.
func IsQualifying(p posting.Posting, policy Policy, now time.Time) bool {
	return IsFresh(p.PublishedAt, policy.Window, policy.Zones, now) &&
		MatchesKeywords(p.Title, policy.Keywords) &&
		MatchesLocation(p.Location, policy.CountryMarkers, policy.RequireRemote)
}

// IsFresh accepts publishedAt when it is at or after now-window in UTC or in
// any zone-shifted reading of that cutoff. The shifted reading takes the
// cutoff's wall clock in the zone and interprets it as UTC, which covers feeds
// that report local wall time without a usable offset.
func IsFresh(publishedAt time.Time, window time.Duration, zones []*time.Location, now time.Time) bool {
	cutoff := now.UTC().Add(-window)
	if !publishedAt.Before(cutoff) {
		return true
	}
	for _, loc := range zones {
		if loc == nil {
			continue
		}
		if !publishedAt.Before(shiftedCutoff(cutoff, loc)) {
			return true
		}
	}
	return false
}

func shiftedCutoff(cutoff time.Time, loc *time.Location) time.Time {
	local := cutoff.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
}

// MatchesKeywords is a case-insensitive substring match, not a word match:
// "engineer" matches "SoftwareEngineering".
func MatchesKeywords(text string, keywords []string) bool {
	lowerText := strings.ToLower(text)
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func MatchesLocation(location string, markers []string, requireRemote bool) bool {
	if !MatchesKeywords(location, markers) {
		return false
	}
	if requireRemote && !strings.Contains(strings.ToLower(location), "remote") {
		return false
	}
	return true
}
