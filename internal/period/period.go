// Package period maps anchor years to the fixed historical-period buckets
// used for backward-compatible category filtering.
package period

import (
	"sort"

	"hindsite/internal/model"
)

// Bucket is one fixed historical era. Buckets form an ascending,
// non-overlapping partition of the covered timeline.
type Bucket struct {
	ID    string `json:"id"`
	Start int    `json:"start_year"`
	End   int    `json:"end_year"`
	Label string `json:"label"`
}

// DefaultBucketID is assigned when no card carries an anchor year.
const DefaultBucketID = "early-2020s"

// buckets is the static period table. Order matters: lookups return the
// first bucket whose inclusive range contains the year.
var buckets = []Bucket{
	{ID: "early-90s", Start: 1990, End: 1994, Label: "Early 90s"},
	{ID: "late-90s", Start: 1995, End: 1999, Label: "Late 90s"},
	{ID: "early-2000s", Start: 2000, End: 2004, Label: "Early 2000s"},
	{ID: "late-2000s", Start: 2005, End: 2009, Label: "Late 2000s"},
	{ID: "early-2010s", Start: 2010, End: 2014, Label: "Early 2010s"},
	{ID: "late-2010s", Start: 2015, End: 2019, Label: "Late 2010s"},
	{ID: "early-2020s", Start: 2020, End: 2029, Label: "Early 2020s"},
}

// Buckets returns a copy of the period table in ascending order.
func Buckets() []Bucket {
	out := make([]Bucket, len(buckets))
	copy(out, buckets)
	return out
}

// YearToPeriod returns the bucket containing year, if any.
func YearToPeriod(year int) (Bucket, bool) {
	for _, b := range buckets {
		if year >= b.Start && year <= b.End {
			return b, true
		}
	}
	return Bucket{}, false
}

// PeriodsForCards derives the legacy period-id list for an issue from the
// anchor years across all of its cards, in timeline order. Issues whose
// cards carry no anchor at all get the single default current-era bucket.
func PeriodsForCards(cards []model.Card) []string {
	seen := make(map[string]Bucket)
	for _, c := range cards {
		for _, y := range anchorYears(c) {
			if b, ok := YearToPeriod(y); ok {
				seen[b.ID] = b
			}
		}
	}

	if len(seen) == 0 {
		return []string{DefaultBucketID}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return seen[ids[i]].Start < seen[ids[j]].Start
	})
	return ids
}

func anchorYears(c model.Card) []int {
	var years []int
	if c.ThenStart != nil {
		years = append(years, *c.ThenStart)
	}
	if c.ThenEnd != nil {
		years = append(years, *c.ThenEnd)
	}
	return years
}
