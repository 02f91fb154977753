// Package schema builds the DDL plan for a migration target: the DFS
// traversal of a table's foreign-key neighborhood, and
// the CREATE TABLE / foreign-key / enum statements derived from it.
package schema

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/dataflux/dataflux/expr"
	"github.com/dataflux/dataflux/mapping"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
)

// TypeConverter maps a source driver's raw column type into the
// engine's DataType, e.g. value.FromMySQLType or value.FromPostgresType.
type TypeConverter func(rawType string) (value.DataType, error)

// EnumExtractor reports whether column on table is an enum, given the
// source's raw type string for it.
type EnumExtractor func(table, column, rawType string) bool

// ColumnSource is the minimal per-table metadata the plan builder
// needs: its columns (with raw driver types), primary keys, and the
// tables it references or is referenced by.
type ColumnSource struct {
	Table string
	Columns []RawColumn
	PrimaryKeys []string
	ReferencedTables []string // table -> referenced table (outgoing FK)
	ReferencingTables []string // tables with a FK pointing at this one
	ForeignKeys []ForeignKeyDef
}

type RawColumn struct {
	Name string
	RawType string
	Ordinal int
}

// MetadataLookup resolves one table's ColumnSource, the graph edge the
// DFS traversal walks.
type MetadataLookup func(table string) (ColumnSource, bool)

// ColumnDef is one planned destination column.
type ColumnDef struct {
	Name string
	Type value.DataType
	Nullable bool
	IsEnum bool
}

// ForeignKeyDef is one planned foreign-key constraint.
type ForeignKeyDef struct {
	Table string
	Column string
	RefTable string
	RefColumn string
}

// TablePlan is the fully-resolved plan for one visited table.
type TablePlan struct {
	Table string
	Columns []ColumnDef
	ForeignKeys []ForeignKeyDef
	PrimaryKeys []string
}

// Plan is the complete schema plan for a root table and every table it
// transitively references or is referenced by.
type Plan struct {
	Tables []TablePlan
}

// Build DFS-traverses referenced_tables ∪ referencing_tables starting
// at root, guarded by a visited-set keyed by table name, and resolves
// each visited table's columns via convert and enum membership via
// isEnum.
func Build(root string, lookup MetadataLookup, convert TypeConverter, isEnum EnumExtractor) (Plan, error) {
	visited := make(map[string]bool)
	var plan Plan
	if err := visitSchemaDeps(root, lookup, convert, isEnum, visited, &plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func visitSchemaDeps(table string, lookup MetadataLookup, convert TypeConverter, isEnum EnumExtractor, visited map[string]bool, plan *Plan) error {
	if visited[table] {
		return nil
	}
	visited[table] = true

	src, ok := lookup(table)
	if !ok {
		return nil
	}

	cols := make([]RawColumn, len(src.Columns))
	copy(cols, src.Columns)
	sortByOrdinal(cols)

	planCols := make([]ColumnDef, 0, len(cols))
	for _, c := range cols {
		dt, err := convert(c.RawType)
		if err != nil {
			return err
		}
		planCols = append(planCols, ColumnDef{
			Name: c.Name,
			Type: dt,
			IsEnum: isEnum(table, c.Name, c.RawType),
		})
	}

	plan.Tables = append(plan.Tables, TablePlan{
		Table: table,
		Columns: planCols,
		ForeignKeys: src.ForeignKeys,
		PrimaryKeys: src.PrimaryKeys,
	})

	deps := append(append([]string{}, src.ReferencedTables...), src.ReferencingTables...)
	for _, dep := range deps {
		if err := visitSchemaDeps(dep, lookup, convert, isEnum, visited, plan); err != nil {
			return err
		}
	}
	return nil
}

func sortByOrdinal(cols []RawColumn) {
	slices.SortFunc(cols, func(a, b RawColumn) bool { return a.Ordinal < b.Ordinal })
}

// CopyColumns selects whether table DDL includes every source column
// or only the ones an entity's mapping declares a rename for.
type CopyColumns int

const (
	CopyAll CopyColumns = iota
	MapOnly
)

// TableQueries resolves each planned table's destination name via
// entities, optionally filters to mapped columns under MapOnly, folds
// in computed-field types inferred by expr.InferType, and asks gen
// for CREATE TABLE statements.
func TableQueries(plan Plan, entities mapping.NameResolver, fields mapping.FieldTransformations, copyColumns CopyColumns, gen sqlgen.Generator) ([]sqlgen.Statement, []string) {
	var stmts []sqlgen.Statement
	var warnings []string

	for _, t := range plan.Tables {
		destName := entities.Resolve(t.Table)
		columns := filterColumns(t, destName, fields, copyColumns)

		seen := make(map[string]bool, len(columns))
		for _, c := range columns {
			seen[strings.ToLower(c.Name)] = true
		}

		for _, cf := range fields.Computed(destName) {
			lname := strings.ToLower(cf.Name)
			if seen[lname] {
				warnings = append(warnings, "computed field "+cf.Name+" collides with existing column on "+destName+", dropped")
				continue
			}
			dt, ok := inferComputedType(cf.Expression, t)
			if !ok {
				dt = value.String_
			}
			columns = append(columns, sqlgen.ColumnMeta{Name: cf.Name, Type: dt, Nullable: true})
			seen[lname] = true
		}

		table := sqlgen.TableMeta{Name: destName, Columns: withOrdinals(columns), PrimaryKeys: t.PrimaryKeys}
		stmt, err := gen.CreateTable(table)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, warnings
}

func filterColumns(t TablePlan, destName string, fields mapping.FieldTransformations, copyColumns CopyColumns) []sqlgen.ColumnMeta {
	renames, hasRenames := fields.Entity(destName)

	var cols []sqlgen.ColumnMeta
	for _, c := range t.Columns {
		if copyColumns == MapOnly && hasRenames && !renames.ContainsSource(c.Name) {
			continue
		}
		cols = append(cols, sqlgen.ColumnMeta{Name: c.Name, Type: c.Type, Nullable: !isPrimaryKey(t, c.Name)})
	}
	return cols
}

func isPrimaryKey(t TablePlan, column string) bool {
	for _, pk := range t.PrimaryKeys {
		if strings.EqualFold(pk, column) {
			return true
		}
	}
	return false
}

func withOrdinals(cols []sqlgen.ColumnMeta) []sqlgen.ColumnMeta {
	for i := range cols {
		cols[i].Ordinal = i
	}
	return cols
}

// inferComputedType infers a computed field's destination type using
// the source table's raw column types as the local environment; it
// has no cross-entity resolver here, matching schema-planning's
// single-table scope for this column's own table.
func inferComputedType(n expr.Node, t TablePlan) (value.DataType, bool) {
	cols := make(map[string]value.DataType, len(t.Columns))
	for _, c := range t.Columns {
		cols[c.Name] = c.Type
	}
	return expr.InferType(n, cols, nil, nil)
}

// FkQueries resolves both sides of every planned foreign key through
// entities/fields and asks gen for AddForeignKey statements. When
// ignoreConstraints is set it returns no statements at all.
func FkQueries(plan Plan, entities mapping.NameResolver, fields mapping.FieldTransformations, ignoreConstraints bool, gen sqlgen.Generator) ([]sqlgen.Statement, error) {
	if ignoreConstraints {
		return nil, nil
	}
	var stmts []sqlgen.Statement
	for _, t := range plan.Tables {
		table := entities.Resolve(t.Table)
		for _, fk := range t.ForeignKeys {
			column := fields.Resolve(table, fk.Column)
			refTable := entities.Resolve(fk.RefTable)
			refColumn := fields.Resolve(refTable, fk.RefColumn)
			stmt, err := gen.AddForeignKey(table, column, refTable, refColumn)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// EnumDDL reports the CREATE TYPE body parsed out of a driver enum
// type string such as "enum('a','b','c')".
func ParseEnumBody(rawType string) []string {
	start := strings.IndexByte(rawType, '(')
	end := strings.LastIndexByte(rawType, ')')
	if start < 0 || end < 0 || end <= start {
		return nil
	}
	body := rawType[start+1 : end]
	parts := strings.Split(body, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, "'")
		if p != "" {
			values = append(values, p)
		}
	}
	return values
}

// EnumQueries queries adapter-reported raw type strings (already
// fetched into rawEnumTypes, keyed "table.column") and emits a
// CREATE TYPE... AS ENUM for each.
func EnumQueries(rawEnumTypes map[string]string, gen sqlgen.Generator) ([]sqlgen.Statement, error) {
	var stmts []sqlgen.Statement
	for key, rawType := range rawEnumTypes {
		values := ParseEnumBody(rawType)
		if len(values) == 0 {
			continue
		}
		stmt, err := gen.CreateEnum(key, values)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}
