package validate

import (
	"fmt"
	"strings"

	"github.com/dataflux/dataflux/mapping"
	"github.com/dataflux/dataflux/value"
)

// ColumnMetadata is the destination-side shape of one column the
// validator checks rows against.
type ColumnMetadata struct {
	Name string
	Type value.DataType
	Nullable bool
	HasDefault bool
	CharMaxLength int // 0 means unbounded
}

// TableMetadata is the destination-side shape of one table.
type TableMetadata struct {
	Name string
	Columns []ColumnMetadata
}

func (t TableMetadata) column(name string) (ColumnMetadata, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnMetadata{}, false
}

// MetadataGraph resolves a destination table's metadata, reporting
// false when the table is unknown.
type MetadataGraph func(table string) (TableMetadata, bool)

// Validator checks streamed destination rows against a metadata graph
// and policy.
type Validator struct {
	metadata MetadataGraph
	fields mapping.FieldTransformations
	policy Policy
}

func NewValidator(metadata MetadataGraph, fields mapping.FieldTransformations, policy Policy) *Validator {
	return &Validator{metadata: metadata, fields: fields, policy: policy}
}

// ValidateRow runs every check against one output row destined for
// table, returning the findings it raised.
func (v *Validator) ValidateRow(table string, row value.RowData) []Finding {
	meta, ok := v.metadata(table)
	if !ok {
		return v.handleMissingTable(table, row)
	}

	var findings []Finding
	seen := make(map[string]bool, len(row.FieldValues))

	for _, fv := range row.FieldValues {
		seen[strings.ToLower(fv.Name)] = true
		col, ok := meta.column(fv.Name)
		if !ok {
			findings = append(findings, v.handleUnmappedColumn(table, fv.Name)...)
			continue
		}
		findings = append(findings, checkField(table, col, fv)...)
	}

	findings = append(findings, v.checkMissingRequiredColumns(table, meta, seen)...)
	return findings
}

func (v *Validator) handleMissingTable(table string, row value.RowData) []Finding {
	switch v.policy.Table {
	case RequireExistingTable:
		return []Finding{{Code: CodeTableMissing, Severity: SeverityError, Table: table,
			Message: fmt.Sprintf("destination table %q does not exist", table)}}
	default:
		return []Finding{{Code: CodeUnmappedColumnForNewTable, Severity: SeverityWarning, Table: table,
			Message: fmt.Sprintf("table %q will be created from streamed rows", table)}}
	}
}

func (v *Validator) handleUnmappedColumn(table, column string) []Finding {
	if v.policy.Column == RequireExistingColumn {
		return []Finding{{Code: CodeUnmappedColumnNotPlanned, Severity: SeverityError, Table: table, Column: column,
			Message: fmt.Sprintf("column %q has no matching destination column", column)}}
	}
	renames, hasRenames := v.fields.Entity(table)
	isRenameTarget := hasRenames && renames.ContainsTarget(column)
	isComputed := false
	for _, cf := range v.fields.Computed(table) {
		if strings.EqualFold(cf.Name, column) {
			isComputed = true
			break
		}
	}
	if isRenameTarget || isComputed {
		return nil
	}
	return []Finding{{Code: CodeUnmappedColumnForNewTable, Severity: SeverityWarning, Table: table, Column: column,
		Message: fmt.Sprintf("column %q is not planned for destination table %q", column, table)}}
}

func checkField(table string, col ColumnMetadata, fv value.FieldValue) []Finding {
	var findings []Finding

	if fv.Value == nil || fv.Value.IsNull() {
		if !col.Nullable {
			findings = append(findings, Finding{Code: CodeNullViolation, Severity: SeverityError, Table: table, Column: col.Name,
				Message: fmt.Sprintf("column %q is NOT NULL but row value is null/absent", col.Name)})
		}
		return findings
	}

	actual := fv.DataType
	if !actual.IsCompatible(col.Type) {
		findings = append(findings, Finding{Code: CodeTypeMismatch, Severity: SeverityError, Table: table, Column: col.Name,
			Message: fmt.Sprintf("column %q expects %s, row carries %s", col.Name, col.Type, actual)})
	}

	if col.CharMaxLength > 0 {
		if s, ok := fv.Value.AsString(); ok && len(s) > col.CharMaxLength {
			findings = append(findings, Finding{Code: CodeTruncationRisk, Severity: SeverityWarning, Table: table, Column: col.Name,
				Message: fmt.Sprintf("column %q value length %d exceeds max length %d", col.Name, len(s), col.CharMaxLength)})
		}
	}
	return findings
}

func (v *Validator) checkMissingRequiredColumns(table string, meta TableMetadata, seen map[string]bool) []Finding {
	var findings []Finding
	for _, col := range meta.Columns {
		if seen[strings.ToLower(col.Name)] {
			continue
		}
		if !col.Nullable && !col.HasDefault {
			findings = append(findings, Finding{Code: CodeMissingRequiredColumn, Severity: SeverityError, Table: table, Column: col.Name,
				Message: fmt.Sprintf("column %q is NOT NULL with no default and missing from the row", col.Name)})
		}
	}
	return findings
}
