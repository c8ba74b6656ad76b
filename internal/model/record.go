// Package model defines the canonical data types shared by the ETL pipeline.
package model

import "time"

// Division identifies the business unit a record originated from. It doubles
// as the dedup tie-break priority (see etl.SourceRank).
type Division string

const (
	DivisionBidding   Division = "BIDDING"
	DivisionMSDC      Division = "MSDC"
	DivisionSales     Division = "SALES"
	DivisionMarketing Division = "MARKETING"
	DivisionOther     Division = "OTHER"
)

// Canonical funnel stages. NormalizeStage maps known synonyms onto these;
// unrecognized tokens are preserved as-is and surfaced by validation.
const (
	StageLeads      = "leads"
	StageProspect   = "prospect"
	StageQualified  = "qualified"
	StageSubmission = "submission"
	StageWin        = "win"
)

// CanonicalStages is the set of stages considered valid by validation.
var CanonicalStages = map[string]bool{
	StageLeads:      true,
	StageProspect:   true,
	StageQualified:  true,
	StageSubmission: true,
	StageWin:        true,
}

// CanonicalRecord is the normalized unit of work produced from one raw row.
//
// Optional text fields are nil when the source cell was empty or missing.
// EstRevenue uses NaN as its null channel so unparseable money values never
// abort a run. The pair (CompanyNameCanonical, ProjectNameCanonical) is the
// dedup identity; records where either is nil cannot survive into the
// canonical store.
type CanonicalRecord struct {
	CompanyName          *string
	CompanyNameCanonical *string
	ProjectName          *string
	ProjectNameCanonical *string
	SalesPerson          *string
	SourceDivision       Division
	FunnelStage          *string
	EstRevenue           float64
	Segment              *string
	CreatedAt            *time.Time
	UpdatedAt            *time.Time
	IngestedAt           time.Time

	// Extra holds non-canonical columns carried through for export fidelity
	// (e.g. secondary monetary columns that lost the est_revenue preference).
	Extra map[string]*string

	// RowNumber is the 1-based position of the row in the source table,
	// used as the final dedup tie-break and as the staging row number.
	RowNumber int
}

// HasIdentity reports whether the record carries a complete dedup identity.
func (r CanonicalRecord) HasIdentity() bool {
	return r.CompanyNameCanonical != nil && r.ProjectNameCanonical != nil
}

// EffectiveTime returns updated_at when present, else created_at, else nil.
func (r CanonicalRecord) EffectiveTime() *time.Time {
	if r.UpdatedAt != nil {
		return r.UpdatedAt
	}
	return r.CreatedAt
}
