// Package consistency compares an account record with its discovery record
// and reports the fields that have drifted apart.
//
// Expected discovery values are derived with the same functions the
// synchronizer uses, so a freshly built record never reports a difference.
package consistency

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/profilesync"
)

// FullySynchronizedMessage is the report for a pair with no differences.
const FullySynchronizedMessage = "Account and discovery records are fully synchronized."

// Severity ranks how visible a difference is to other people.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Severities lists severities from most to least severe.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// Difference is one drifted field.
type Difference struct {
	Field          string   `json:"field"`
	Severity       Severity `json:"severity"`
	AccountValue   string   `json:"accountValue"`
	DiscoveryValue string   `json:"discoveryValue"`
}

type check struct {
	field    string
	severity Severity
	expected func(models.AccountRecord) string
	actual   func(models.DiscoveryRecord) string
}

var checks = []check{
	{"name", SeverityHigh,
		func(a models.AccountRecord) string { return a.Name },
		func(d models.DiscoveryRecord) string { return d.Name }},
	{"smoking", SeverityHigh,
		func(a models.AccountRecord) string { return fmt.Sprint(profilesync.Lifestyle(a).Smoking) },
		func(d models.DiscoveryRecord) string { return fmt.Sprint(d.Lifestyle.Smoking) }},
	{"pets", SeverityHigh,
		func(a models.AccountRecord) string { return fmt.Sprint(profilesync.Lifestyle(a).Pets) },
		func(d models.DiscoveryRecord) string { return fmt.Sprint(d.Lifestyle.Pets) }},
	{"budget", SeverityHigh,
		func(a models.AccountRecord) string { b, _ := profilesync.BudgetString(a); return b },
		func(d models.DiscoveryRecord) string { return d.Budget }},
	{"hasPlace", SeverityHigh,
		func(a models.AccountRecord) string { return fmt.Sprint(a.HasPlace) },
		func(d models.DiscoveryRecord) string { return fmt.Sprint(d.HasPlace) }},
	{"roomType", SeverityHigh,
		profilesync.RoomType,
		func(d models.DiscoveryRecord) string { return d.RoomType }},

	{"personalityType", SeverityMedium,
		func(a models.AccountRecord) string { return a.PersonalityType },
		func(d models.DiscoveryRecord) string { return d.PersonalityType }},
	{"personalityTraits", SeverityMedium,
		func(a models.AccountRecord) string { return joinList(a.PersonalityTraits) },
		func(d models.DiscoveryRecord) string { return joinList(d.PersonalityTraits) }},
	{"gender", SeverityMedium,
		func(a models.AccountRecord) string { return a.Gender },
		func(d models.DiscoveryRecord) string { return d.Gender }},
	{"image", SeverityMedium,
		func(a models.AccountRecord) string { id, _ := profilesync.ImageIdentifier(a); return id },
		func(d models.DiscoveryRecord) string { return d.Image }},
	{"cleanliness", SeverityMedium,
		func(a models.AccountRecord) string { return profilesync.Lifestyle(a).Cleanliness },
		func(d models.DiscoveryRecord) string { return d.Lifestyle.Cleanliness }},
	{"noiseLevel", SeverityMedium,
		func(a models.AccountRecord) string { return profilesync.Lifestyle(a).NoiseLevel },
		func(d models.DiscoveryRecord) string { return d.Lifestyle.NoiseLevel }},
	{"verified", SeverityMedium,
		func(a models.AccountRecord) string { return fmt.Sprint(a.IsVerified) },
		func(d models.DiscoveryRecord) string { return fmt.Sprint(d.Verified) }},

	{"guestFrequency", SeverityLow,
		func(a models.AccountRecord) string { return profilesync.Lifestyle(a).GuestFrequency },
		func(d models.DiscoveryRecord) string { return d.Lifestyle.GuestFrequency }},
	{"sleepSchedule", SeverityLow,
		profilesync.SleepSchedule,
		func(d models.DiscoveryRecord) string { return d.Lifestyle.SleepSchedule }},
	{"location", SeverityLow,
		func(a models.AccountRecord) string { l, _ := profilesync.LocationString(a); return l },
		func(d models.DiscoveryRecord) string { return d.Location }},
	{"bio", SeverityLow,
		func(a models.AccountRecord) string { return a.Bio },
		func(d models.DiscoveryRecord) string { return d.Bio }},
	{"university", SeverityLow,
		func(a models.AccountRecord) string { return a.University },
		func(d models.DiscoveryRecord) string { return d.University }},
	{"major", SeverityLow,
		func(a models.AccountRecord) string { return a.Major },
		func(d models.DiscoveryRecord) string { return d.Major }},
	{"year", SeverityLow,
		func(a models.AccountRecord) string { return a.Year },
		func(d models.DiscoveryRecord) string { return d.Year }},
}

// SeverityOf returns the severity of field and whether the field is checked.
func SeverityOf(field string) (Severity, bool) {
	for _, c := range checks {
		if c.field == field {
			return c.severity, true
		}
	}
	return "", false
}

// Diff returns the differences between account and discovery, most severe
// first. A nil result means the pair is in sync.
func Diff(account models.AccountRecord, discovery models.DiscoveryRecord) []Difference {
	var diffs []Difference
	for _, c := range checks {
		want, got := c.expected(account), c.actual(discovery)
		if want != got {
			diffs = append(diffs, Difference{
				Field:          c.field,
				Severity:       c.severity,
				AccountValue:   want,
				DiscoveryValue: got,
			})
		}
	}
	slices.SortStableFunc(diffs, func(a, b Difference) int {
		return rank(a.Severity) - rank(b.Severity)
	})
	return diffs
}

// Report renders Diff as text grouped by severity.
func Report(account models.AccountRecord, discovery models.DiscoveryRecord) string {
	return Format(Diff(account, discovery))
}

// Format renders diffs as text grouped by severity.
func Format(diffs []Difference) string {
	if len(diffs) == 0 {
		return FullySynchronizedMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d difference(s) between account and discovery records.\n", len(diffs))
	for _, sev := range Severities {
		header := false
		for _, d := range diffs {
			if d.Severity != sev {
				continue
			}
			if !header {
				fmt.Fprintf(&b, "\n%s severity:\n", strings.ToUpper(string(sev)))
				header = true
			}
			fmt.Fprintf(&b, "  - %s: account=%q discovery=%q\n", d.Field, d.AccountValue, d.DiscoveryValue)
		}
	}
	return b.String()
}

// CountBySeverity tallies diffs per severity.
func CountBySeverity(diffs []Difference) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, d := range diffs {
		counts[d.Severity]++
	}
	return counts
}

func rank(s Severity) int {
	return slices.Index(Severities, s)
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}
