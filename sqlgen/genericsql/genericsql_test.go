package genericsql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/expr"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
)

func ordersTable() sqlgen.TableMeta {
	return sqlgen.TableMeta{
		Name: "orders",
		Columns: []sqlgen.ColumnMeta{
			{Name: "id", Ordinal: 0, Type: value.Long, Nullable: false},
			{Name: "customer_id", Ordinal: 1, Type: value.Long, Nullable: false},
			{Name: "total", Ordinal: 2, Type: value.Decimal_, Nullable: true},
		},
		PrimaryKeys: []string{"id"},
	}
}

func TestSelectNoFilter(t *testing.T) {
	g := Generator{}
	req := sqlgen.FetchRowsRequest{
		Table:   "orders",
		Columns: []string{"id", "total"},
		Builder: sqlgen.NewSelect("orders", "id", "total").Limit(100),
	}
	stmt, err := g.Select(req)
	require.NoError(t, err)
	require.Equal(t, `SELECT "id", "total" FROM "orders" LIMIT 100`, stmt.SQL)
	require.Empty(t, stmt.Params)
}

func TestSelectWithWhereAndOrder(t *testing.T) {
	g := Generator{}
	builder := sqlgen.NewSelect("orders").
		Where(expr.Binary{
			Op:    expr.OpGt,
			Left:  expr.Identifier{Name: "id"},
			Right: expr.Literal{Value: value.Int64(42)},
		}).
		OrderBy(sqlgen.QualCol{Column: "id"}, sqlgen.Asc).
		Limit(50)
	req := sqlgen.FetchRowsRequest{Table: "orders", Builder: builder}

	stmt, err := g.Select(req)
	require.NoError(t, err)
	require.Equal(t, `SELECT * FROM "orders" WHERE ("id" > $1) ORDER BY "id" ASC LIMIT 50`, stmt.SQL)
	require.Len(t, stmt.Params, 1)
	require.Equal(t, value.Int64(42), stmt.Params[0])
}

func TestInsertBatchNullsAbsentFields(t *testing.T) {
	g := Generator{}
	table := ordersTable()
	id := value.Int64(1)
	rows := []value.RowData{
		{FieldValues: []value.FieldValue{
			{Name: "id", Value: &id},
		}},
	}
	stmt, err := g.InsertBatch(table, rows)
	require.NoError(t, err)
	require.Contains(t, stmt.SQL, `INSERT INTO "orders" ("id", "customer_id", "total") VALUES ($1, $2, $3)`)
	require.Len(t, stmt.Params, 3)
	require.Equal(t, value.Int64(1), stmt.Params[0])
	require.True(t, stmt.Params[1].IsNull())
	require.True(t, stmt.Params[2].IsNull())
}

func TestUpsertFromStagingWithPrimaryKey(t *testing.T) {
	g := Generator{}
	stmt, err := g.UpsertFromStaging(ordersTable(), "orders_staging", []string{"id", "customer_id", "total"})
	require.NoError(t, err)
	require.Contains(t, stmt.SQL, "ON CONFLICT (\"id\") DO UPDATE SET")
	require.Contains(t, stmt.SQL, `"customer_id" = EXCLUDED."customer_id"`)
	require.NotContains(t, stmt.SQL, `"id" = EXCLUDED."id"`)
}

func TestUpsertFromStagingNoPrimaryKey(t *testing.T) {
	g := Generator{}
	table := sqlgen.TableMeta{Name: "events", Columns: []sqlgen.ColumnMeta{{Name: "payload"}}}
	stmt, err := g.UpsertFromStaging(table, "events_staging", []string{"payload"})
	require.NoError(t, err)
	require.NotContains(t, stmt.SQL, "ON CONFLICT")
}

func TestMergeFromStagingRequiresPrimaryKey(t *testing.T) {
	g := Generator{}
	table := sqlgen.TableMeta{Name: "events", Columns: []sqlgen.ColumnMeta{{Name: "payload"}}}
	_, err := g.MergeFromStaging(table, "events_staging", []string{"payload"})
	require.Error(t, err)
}

func TestCreateTableRendersPrimaryKey(t *testing.T) {
	g := Generator{}
	stmt, err := g.CreateTable(ordersTable())
	require.NoError(t, err)
	require.Contains(t, stmt.SQL, `CREATE TABLE IF NOT EXISTS "orders"`)
	require.Contains(t, stmt.SQL, `"id" BIGINT NOT NULL`)
	require.Contains(t, stmt.SQL, `PRIMARY KEY ("id")`)
}

func TestKeyExistence(t *testing.T) {
	g := Generator{}
	stmt, err := g.KeyExistence(ordersTable(), []value.Value{value.Int64(1), value.Int64(2)})
	require.NoError(t, err)
	require.Equal(t, `SELECT "id" FROM "orders" WHERE "id" IN ($1, $2)`, stmt.SQL)
	require.Len(t, stmt.Params, 2)
}
