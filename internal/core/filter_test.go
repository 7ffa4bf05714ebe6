package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

var testNow = time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

func testPolicy(t *testing.T) Policy {
	t.Helper()
	zones, err := LoadZones(DefaultZoneNames)
	require.NoError(t, err)
	return Policy{
		Window:         30 * time.Minute,
		Zones:          zones,
		Keywords:       []string{"software", "backend"},
		CountryMarkers: DefaultCountryMarkers,
	}
}

func freshPosting(id string) posting.Posting {
	return posting.Posting{
		SourceID:    "acme",
		ID:          id,
		Title:       "Senior Software Engineer",
		URL:         "https://boards.greenhouse.io/acme/jobs/" + id,
		PublishedAt: testNow.Add(-5 * time.Minute),
		Location:    "Remote - United States",
	}
}

func TestIsFreshBoundary(t *testing.T) {
	window := 30 * time.Minute
	cutoff := testNow.Add(-window)

	assert.True(t, IsFresh(cutoff, window, nil, testNow), "exactly at the cutoff")
	assert.True(t, IsFresh(testNow, window, nil, testNow))
	assert.False(t, IsFresh(cutoff.Add(-time.Nanosecond), window, nil, testNow))
}

func TestIsFreshZoneShift(t *testing.T) {
	window := 30 * time.Minute
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// January: New York is UTC-5, so the shifted cutoff is 12:30 UTC.
	shifted := time.Date(2026, 1, 15, 12, 30, 0, 0, time.UTC)

	assert.False(t, IsFresh(shifted, window, nil, testNow), "too old in UTC alone")
	assert.True(t, IsFresh(shifted, window, []*time.Location{ny}, testNow), "boundary in the New York reading")
	assert.False(t, IsFresh(shifted.Add(-time.Second), window, []*time.Location{ny}, testNow))
}

func TestIsFreshOlderThanEveryZone(t *testing.T) {
	policy := testPolicy(t)
	// Los Angeles is the furthest zone (UTC-8 in January).
	old := testNow.Add(-policy.Window).Add(-8 * time.Hour).Add(-time.Second)
	assert.False(t, IsFresh(old, policy.Window, policy.Zones, testNow))
	assert.True(t, IsFresh(old.Add(time.Second), policy.Window, policy.Zones, testNow))
}

func TestMatchesKeywords(t *testing.T) {
	tests := []struct {
		title    string
		keywords []string
		want     bool
	}{
		{"Senior SOFTWARE Engineer", []string{"software"}, true},
		{"SoftwareEngineering Lead", []string{"Engineer"}, true},
		{"Product Manager", []string{"software", "backend"}, false},
		{"Backend Developer", []string{" ", "backend"}, true},
		{"Anything", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesKeywords(tt.title, tt.keywords))
		})
	}
}

func TestMatchesLocation(t *testing.T) {
	assert.True(t, MatchesLocation("New York, United States", DefaultCountryMarkers, false))
	assert.True(t, MatchesLocation("Remote (US)", DefaultCountryMarkers, true))
	assert.False(t, MatchesLocation("Berlin, Germany", DefaultCountryMarkers, false))
	// substring artifact of the "us" marker
	assert.True(t, MatchesLocation("Vienna, Austria", DefaultCountryMarkers, false))
	assert.False(t, MatchesLocation("Austin, TX, United States", DefaultCountryMarkers, true))
}

func TestIsQualifying(t *testing.T) {
	policy := testPolicy(t)

	p := freshPosting("1")
	assert.True(t, IsQualifying(p, policy, testNow))

	wrongTitle := p
	wrongTitle.Title = "Account Executive"
	assert.False(t, IsQualifying(wrongTitle, policy, testNow))

	wrongCountry := p
	wrongCountry.Location = "Toronto, Canada"
	assert.False(t, IsQualifying(wrongCountry, policy, testNow))

	stale := p
	stale.PublishedAt = testNow.Add(-48 * time.Hour)
	assert.False(t, IsQualifying(stale, policy, testNow))
}

func TestLoadZonesRejectsUnknown(t *testing.T) {
	_, err := LoadZones([]string{"Mars/Olympus"})
	assert.Error(t, err)
}
