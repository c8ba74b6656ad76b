package etl

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// The normalizers below are pure and total: for any string input they return
// a value or the null channel (nil pointer / NaN), never an error. Bad data
// surfaces later as validation counters, not as crashes.

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	ptRe           = regexp.MustCompile(`\bP\s*T\b\.?`)
	cvRe           = regexp.MustCompile(`\bC\s*V\b\.?`)
	tbkRe          = regexp.MustCompile(`\bT\s*B\s*K\b\.?`)
	punctSepRe     = regexp.MustCompile(`[.,;:/\\]+`)
	nonMoneyRe     = regexp.MustCompile(`[^0-9.,]`)
	groupSepRe     = regexp.MustCompile(`[.,]`)
	plainNumericRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// legalAbbrevs fixes the most common dotted spellings before the regex pass.
var legalAbbrevs = strings.NewReplacer(
	"P.T.", "PT",
	"PT.", "PT",
	" C V ", " CV ",
)

// NormalizeText trims and collapses internal whitespace runs to one space.
// Blank input maps to nil. Idempotent.
func NormalizeText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = whitespaceRe.ReplaceAllString(s, " ")
	return &s
}

// NormalizeCompany generates the canonical company-name merge key:
// uppercase, legal-entity abbreviations (PT, CV, TBK with stray dots or
// spaces) collapsed to their bare forms, punctuation separators replaced by
// spaces, whitespace collapsed. Idempotent and deterministic; nil for blank
// input.
func NormalizeCompany(name string) *string {
	x := strings.ToUpper(strings.TrimSpace(name))
	if x == "" {
		return nil
	}
	x = legalAbbrevs.Replace(x)
	x = ptRe.ReplaceAllString(x, "PT")
	x = cvRe.ReplaceAllString(x, "CV")
	x = tbkRe.ReplaceAllString(x, "TBK")
	x = punctSepRe.ReplaceAllString(x, " ")
	x = strings.TrimSpace(whitespaceRe.ReplaceAllString(x, " "))
	if x == "" {
		return nil
	}
	return &x
}

// CanonicalizeProject generates the canonical project-name merge key:
// uppercase, trimmed, internal whitespace collapsed. Nil for blank input.
func CanonicalizeProject(name string) *string {
	x := strings.ToUpper(strings.TrimSpace(name))
	if x == "" {
		return nil
	}
	x = whitespaceRe.ReplaceAllString(x, " ")
	return &x
}

// ParseMoney parses locale-ambiguous currency strings. It strips everything
// outside [0-9.,-], then takes the rightmost of the last '.' or ',' as the
// decimal separator: everything before it is grouping and is removed,
// everything after becomes the fractional part. A leading sign is preserved.
// Returns NaN for empty or unparseable input; never errors.
//
//	"1.234,56" → 1234.56    "1,234.56" → 1234.56    "-500" → -500
func ParseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
	}
	s = strings.TrimLeft(s, "+-")
	s = nonMoneyRe.ReplaceAllString(s, "")
	if s == "" {
		return math.NaN()
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	decPos := max(lastDot, lastComma)

	var cleaned string
	if decPos == -1 {
		cleaned = groupSepRe.ReplaceAllString(s, "")
	} else {
		intPart := groupSepRe.ReplaceAllString(s[:decPos], "")
		fracPart := groupSepRe.ReplaceAllString(s[decPos+1:], "")
		cleaned = intPart + "." + fracPart
	}

	v, err := strconv.ParseFloat(sign+cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// serialEpoch is the legacy spreadsheet serial-date anchor.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dayFirstLayouts are tried in order. Go's unpadded verbs also accept
// zero-padded values, so "05/03/2025" parses as day 5, month 3.
var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseDateTime attempts day-first calendar parsing; when the value is purely
// numeric and calendar parsing failed, it is interpreted as a spreadsheet
// serial day count anchored at 1899-12-30 (fractional days carry time of
// day). Unparseable values yield nil, never an error.
func ParseDateTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}

	if plainNumericRe.MatchString(s) {
		days, err := strconv.ParseFloat(s, 64)
		// Serial values outside the plausible calendar range (e.g. phone
		// numbers or IDs that happen to be numeric) are nulled, not mapped
		// to absurd timestamps.
		if err == nil && days > 0 && days < maxSerialDays {
			whole := int(days)
			frac := days - float64(whole)
			t := serialEpoch.AddDate(0, 0, whole).
				Add(time.Duration(frac * float64(24*time.Hour)))
			return &t
		}
	}

	return nil
}

// maxSerialDays caps serial parsing at roughly year 2262, matching the
// range a timestamp column can actually hold downstream.
const maxSerialDays = 132970

// stageSynonyms maps known stage spellings onto the five canonical stages.
var stageSynonyms = map[string]string{
	"lead":       model.StageLeads,
	"leads":      model.StageLeads,
	"prospect":   model.StageProspect,
	"qualified":  model.StageQualified,
	"qualify":    model.StageQualified,
	"submission": model.StageSubmission,
	"submitted":  model.StageSubmission,
	"win":        model.StageWin,
	"won":        model.StageWin,
	"closed won": model.StageWin,
}

// NormalizeStage lowercases and trims, then maps known synonyms to the
// canonical stages. Unrecognized non-blank tokens pass through unchanged in
// lowercase so validation can flag them; blank input maps to nil.
func NormalizeStage(s string) *string {
	x := strings.ToLower(strings.TrimSpace(s))
	if x == "" {
		return nil
	}
	if canon, ok := stageSynonyms[x]; ok {
		return &canon
	}
	return &x
}

// NormalizeSource classifies a free-text source label into a Division by
// substring containment. Everything unrecognized, including blank input,
// resolves to OTHER. Not injective: many labels map to one division.
func NormalizeSource(s string) model.Division {
	x := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.Contains(x, "BIDD"):
		return model.DivisionBidding
	case strings.Contains(x, "MSDC"):
		return model.DivisionMSDC
	case strings.Contains(x, "MARKET"), strings.Contains(x, "MKT"):
		return model.DivisionMarketing
	case strings.Contains(x, "SALES"):
		return model.DivisionSales
	default:
		return model.DivisionOther
	}
}
