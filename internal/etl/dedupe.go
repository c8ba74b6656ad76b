package etl

import (
	"sort"
	"time"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// sourcePriority is the fixed total order used as the primary dedup
// tie-break: records from earlier divisions beat later ones regardless of
// recency.
var sourcePriority = []model.Division{
	model.DivisionBidding,
	model.DivisionMSDC,
	model.DivisionSales,
	model.DivisionMarketing,
	model.DivisionOther,
}

// SourceRank returns the dedup priority of a division; lower wins. Divisions
// outside the fixed order rank after OTHER.
func SourceRank(d model.Division) int {
	for i, p := range sourcePriority {
		if d == p {
			return i
		}
	}
	return len(sourcePriority) + 1
}

// FilterKeyed removes records lacking a complete dedup identity. Such
// records cannot be deduplicated or stored and are dropped unconditionally.
func FilterKeyed(records []model.CanonicalRecord) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if r.HasIdentity() {
			out = append(out, r)
		}
	}
	return out
}

// Dedupe collapses records sharing a dedup identity down to one survivor.
//
// Candidates are ordered by (source rank ascending, effective timestamp
// descending, original row order) and the first per identity is kept. The
// ordering is total: the row-order fallback makes the result deterministic
// even for records that tie on both rank and timestamp. Records without an
// identity are removed first.
func Dedupe(records []model.CanonicalRecord) []model.CanonicalRecord {
	keyed := FilterKeyed(records)

	sorted := make([]model.CanonicalRecord, len(keyed))
	copy(sorted, keyed)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ka, kb := *a.CompanyNameCanonical, *b.CompanyNameCanonical; ka != kb {
			return ka < kb
		}
		if ka, kb := *a.ProjectNameCanonical, *b.ProjectNameCanonical; ka != kb {
			return ka < kb
		}
		if ra, rb := SourceRank(a.SourceDivision), SourceRank(b.SourceDivision); ra != rb {
			return ra < rb
		}
		if c := compareTimeDesc(a.EffectiveTime(), b.EffectiveTime()); c != 0 {
			return c < 0
		}
		return a.RowNumber < b.RowNumber
	})

	out := make([]model.CanonicalRecord, 0, len(sorted))
	var lastKey string
	for i, r := range sorted {
		key := *r.CompanyNameCanonical + "\x00" + *r.ProjectNameCanonical
		if i == 0 || key != lastKey {
			out = append(out, r)
			lastKey = key
		}
	}
	return out
}

// compareTimeDesc orders later timestamps first; a nil timestamp sorts after
// any concrete one (a null coalesce, not an average).
func compareTimeDesc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.After(*b):
		return -1
	case b.After(*a):
		return 1
	default:
		return 0
	}
}
