// Package requirements turns the scraped recommended-version table into
// RequirementRows keyed by product family.
package requirements

import (
	"github.com/jonathan/version-auditor/internal/clientid"
	"github.com/jonathan/version-auditor/internal/fetch"
	"github.com/jonathan/version-auditor/internal/types"
)

const (
	// TypeColumn holds the product family; blank cells continue the previous family.
	TypeColumn = "Type"
	// RecommendedVersionColumn holds the vendor's recommended client version.
	RecommendedVersionColumn = "Recommended Version"
	// NotApplicable marks rows with no recommended version; they are dropped.
	NotApplicable = "N/A"
)

// Normalize converts a scraped table into RequirementRows.
//
// Every row is padded with absent cells or truncated to the header count, the
// Type column is forward-filled, rows whose recommended version is exactly "N/A"
// are dropped, and each row's join key is the first word of its Type.
func Normalize(table *fetch.Table) ([]types.RequirementRow, error) {
	if table == nil {
		return nil, &SchemaError{Message: "no table to normalize"}
	}

	headers := table.Headers
	typeIdx := indexOf(headers, TypeColumn)
	if typeIdx < 0 {
		return nil, &SchemaError{Column: TypeColumn, Message: "column not found"}
	}
	versionIdx := indexOf(headers, RecommendedVersionColumn)
	if versionIdx < 0 {
		return nil, &SchemaError{Column: RecommendedVersionColumn, Message: "column not found"}
	}

	rows := make([][]*string, len(table.Rows))
	for i, raw := range table.Rows {
		rows[i] = conform(raw, len(headers))
	}

	if err := forwardFill(rows, typeIdx); err != nil {
		return nil, err
	}

	out := make([]types.RequirementRow, 0, len(rows))
	for _, cells := range rows {
		recommended := deref(cells[versionIdx])
		if recommended == NotApplicable {
			continue
		}
		family := deref(cells[typeIdx])
		out = append(out, types.RequirementRow{
			ProductFamily:      family,
			RecommendedVersion: recommended,
			JoinKey:            clientid.JoinKey(family),
			Columns:            columnMap(headers, cells),
		})
	}
	return out, nil
}

// conform pads raw with absent cells or truncates it so it has exactly n cells.
func conform(raw []string, n int) []*string {
	cells := make([]*string, n)
	for i := 0; i < n && i < len(raw); i++ {
		v := raw[i]
		cells[i] = &v
	}
	return cells
}

// forwardFill replaces empty or absent cells in column col with the nearest
// preceding non-empty value. The first row must have a value.
func forwardFill(rows [][]*string, col int) error {
	var last *string
	for i, cells := range rows {
		if v := cells[col]; v != nil && *v != "" {
			last = v
			continue
		}
		if last == nil {
			return &SchemaError{
				Column:  TypeColumn,
				Row:     i,
				Message: "first row has no value to forward-fill from",
			}
		}
		filled := *last
		cells[col] = &filled
	}
	return nil
}

func columnMap(headers []string, cells []*string) map[string]*string {
	m := make(map[string]*string, len(headers))
	for i, h := range headers {
		// Duplicate header labels keep the first column, matching indexOf.
		if _, seen := m[h]; seen {
			continue
		}
		m[h] = cells[i]
	}
	return m
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
