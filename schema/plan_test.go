package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/mapping"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
)

func metaFixture() MetadataLookup {
	graph := map[string]ColumnSource{
		"orders": {
			Table: "orders",
			Columns: []RawColumn{
				{Name: "id", RawType: "INT", Ordinal: 0},
				{Name: "customer_id", RawType: "INT", Ordinal: 1},
			},
			PrimaryKeys:      []string{"id"},
			ReferencedTables: []string{"customers"},
			ForeignKeys: []ForeignKeyDef{
				{Table: "orders", Column: "customer_id", RefTable: "customers", RefColumn: "id"},
			},
		},
		"customers": {
			Table: "customers",
			Columns: []RawColumn{
				{Name: "id", RawType: "INT", Ordinal: 0},
				{Name: "name", RawType: "VARCHAR", Ordinal: 1},
			},
			PrimaryKeys: []string{"id"},
		},
	}
	return func(table string) (ColumnSource, bool) {
		s, ok := graph[table]
		return s, ok
	}
}

func convertFixture(rawType string) (value.DataType, error) {
	switch rawType {
	case "INT":
		return value.Int, nil
	case "VARCHAR":
		return value.VarChar, nil
	}
	return value.String_, nil
}

func noEnum(string, string, string) bool { return false }

func TestBuildVisitsTransitiveDependenciesOnce(t *testing.T) {
	plan, err := Build("orders", metaFixture(), convertFixture, noEnum)
	require.NoError(t, err)
	require.Len(t, plan.Tables, 2)
	names := []string{plan.Tables[0].Table, plan.Tables[1].Table}
	require.Contains(t, names, "orders")
	require.Contains(t, names, "customers")
}

func TestBuildPreservesColumnOrdinalOrder(t *testing.T) {
	plan, err := Build("customers", metaFixture(), convertFixture, noEnum)
	require.NoError(t, err)
	require.Equal(t, "id", plan.Tables[0].Columns[0].Name)
	require.Equal(t, "name", plan.Tables[0].Columns[1].Name)
}

func TestParseEnumBodyExtractsValues(t *testing.T) {
	values := ParseEnumBody("enum('a','b','c')")
	require.Equal(t, []string{"a", "b", "c"}, values)
}

func TestParseEnumBodyEmptyWithoutParens(t *testing.T) {
	require.Nil(t, ParseEnumBody("int"))
}

type fakeGenerator struct{ created []sqlgen.TableMeta }

func (g *fakeGenerator) Select(sqlgen.FetchRowsRequest) (sqlgen.Statement, error) { return sqlgen.Statement{}, nil }
func (g *fakeGenerator) InsertBatch(sqlgen.TableMeta, []value.RowData) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (g *fakeGenerator) CopyFromStdin(string, []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (g *fakeGenerator) MergeFromStaging(sqlgen.TableMeta, string, []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (g *fakeGenerator) UpsertFromStaging(sqlgen.TableMeta, string, []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (g *fakeGenerator) CreateTable(table sqlgen.TableMeta) (sqlgen.Statement, error) {
	g.created = append(g.created, table)
	return sqlgen.Statement{SQL: "CREATE TABLE " + table.Name}, nil
}
func (g *fakeGenerator) DropTable(string) (sqlgen.Statement, error) { return sqlgen.Statement{}, nil }
func (g *fakeGenerator) AddColumn(string, sqlgen.ColumnMeta) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (g *fakeGenerator) AddForeignKey(table, column, refTable, refColumn string) (sqlgen.Statement, error) {
	return sqlgen.Statement{SQL: table + "." + column + " -> " + refTable + "." + refColumn}, nil
}
func (g *fakeGenerator) CreateEnum(string, []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (g *fakeGenerator) ToggleTriggers(string, bool) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (g *fakeGenerator) KeyExistence(sqlgen.TableMeta, []value.Value) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}

func TestTableQueriesResolvesDestinationNames(t *testing.T) {
	plan, err := Build("orders", metaFixture(), convertFixture, noEnum)
	require.NoError(t, err)

	entities := mapping.NewNameResolver(map[string]string{"orders": "dw_orders", "customers": "dw_customers"})
	fields := mapping.NewFieldTransformations()
	gen := &fakeGenerator{}

	stmts, warnings := TableQueries(plan, entities, fields, CopyAll, gen)
	require.Empty(t, warnings)
	require.Len(t, stmts, 2)
	require.Equal(t, "dw_orders", gen.created[0].Name)
}

func TestFkQueriesSkippedWhenIgnoreConstraints(t *testing.T) {
	plan, err := Build("orders", metaFixture(), convertFixture, noEnum)
	require.NoError(t, err)

	entities := mapping.NewNameResolver(nil)
	fields := mapping.NewFieldTransformations()
	gen := &fakeGenerator{}

	stmts, err := FkQueries(plan, entities, fields, true, gen)
	require.NoError(t, err)
	require.Empty(t, stmts)
}
