package etl

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasYAML []byte

// Canonical field names. RequiredFields are materialized as all-null columns
// when no source header resolves to them, so downstream normalizers always
// find them.
const (
	FieldCompanyName    = "company_name"
	FieldProjectName    = "project_name"
	FieldSalesPerson    = "sales_person"
	FieldSourceDivision = "source_division"
	FieldFunnelStage    = "funnel_stage"
	FieldEstRevenue     = "est_revenue"
	FieldCreatedAt      = "created_at"
	FieldUpdatedAt      = "updated_at"
	FieldSegment        = "segment"
)

// RequiredFields must exist after resolution even if entirely null.
var RequiredFields = []string{
	FieldCompanyName,
	FieldProjectName,
	FieldFunnelStage,
	FieldSourceDivision,
	FieldCreatedAt,
}

// canonicalFields is the full set of canonical column names.
var canonicalFields = map[string]bool{
	FieldCompanyName:    true,
	FieldProjectName:    true,
	FieldSalesPerson:    true,
	FieldSourceDivision: true,
	FieldFunnelStage:    true,
	FieldEstRevenue:     true,
	FieldCreatedAt:      true,
	FieldUpdatedAt:      true,
	FieldSegment:        true,
}

type aliasEntry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type aliasTable struct {
	Fields []aliasEntry `yaml:"fields"`
}

var columnAliases = mustLoadAliases()

func mustLoadAliases() []aliasEntry {
	var t aliasTable
	if err := yaml.Unmarshal(aliasYAML, &t); err != nil {
		panic("etl: invalid embedded alias table: " + err.Error())
	}
	return t.Fields
}

// ResolveColumns maps arbitrary source headers to canonical field names.
//
// Pre-steps: headers generated for unnamed cells ("Unnamed: N" markers) and
// columns whose values are entirely empty are dropped, as are fully empty
// rows. Then, for each canonical field, its alias list is tried in priority
// order against the lowercased, trimmed headers; the first alias present
// wins and the source column is renamed. A source column is consumed by at
// most one canonical field. Unmatched headers pass through unchanged.
// Finally, any required field still absent is appended as an all-null column.
func ResolveColumns(t Table) Table {
	t = dropUnnamedAndEmpty(t)

	lower := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := lower[key]; !dup {
			lower[key] = i
		}
	}

	renamed := make(map[int]string)
	claimed := make(map[int]bool)
	for _, field := range columnAliases {
		for _, alias := range field.Aliases {
			idx, ok := lower[alias]
			if ok && !claimed[idx] {
				renamed[idx] = field.Name
				claimed[idx] = true
				break
			}
		}
	}

	headers := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		if canon, ok := renamed[i]; ok {
			headers[i] = canon
		} else {
			headers[i] = strings.TrimSpace(h)
		}
	}
	t.Headers = headers

	for _, required := range RequiredFields {
		if t.columnIndex(required) == -1 {
			t = appendNullColumn(t, required)
		}
	}

	return t
}

// dropUnnamedAndEmpty removes placeholder-named columns, all-empty columns,
// and all-empty rows.
func dropUnnamedAndEmpty(t Table) Table {
	keep := make([]int, 0, len(t.Headers))
	for i, h := range t.Headers {
		if strings.HasPrefix(strings.TrimSpace(h), "Unnamed:") {
			continue
		}
		if columnEmpty(t, i) {
			continue
		}
		keep = append(keep, i)
	}

	out := Table{Headers: make([]string, 0, len(keep))}
	for _, i := range keep {
		out.Headers = append(out.Headers, t.Headers[i])
	}
	for _, row := range t.Rows {
		if isBlankRow(row) {
			continue
		}
		cells := make([]string, 0, len(keep))
		for _, i := range keep {
			if i < len(row) {
				cells = append(cells, row[i])
			} else {
				cells = append(cells, "")
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func columnEmpty(t Table, col int) bool {
	for row := range t.Rows {
		if t.Cell(row, col) != "" {
			return false
		}
	}
	return true
}

func appendNullColumn(t Table, name string) Table {
	t.Headers = append(t.Headers, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return t
}
