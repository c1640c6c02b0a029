package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dblens/client"
)

func usersOrdersSchema() *client.Schema {
	return &client.Schema{
		DatabaseName: "shop",
		DatabaseType: "postgres",
		Tables: []client.Table{
			{
				Name: "orders",
				Columns: []client.Column{
					{Name: "id", DataType: "integer"},
					{Name: "user_id", DataType: "integer"},
					{Name: "total", DataType: "numeric"},
				},
				PrimaryKeys: []string{"id"},
				ForeignKeys: []client.ForeignKey{
					{Column: "user_id", ReferencesTable: "users", ReferencesColumn: "id"},
				},
				RowCount: 250,
			},
			{
				Name: "users",
				Columns: []client.Column{
					{Name: "id", DataType: "integer"},
					{Name: "email", DataType: "text"},
				},
				PrimaryKeys: []string{"id"},
				RowCount:    40,
			},
		},
	}
}

func TestGridLayoutPositions(t *testing.T) {
	tables := make([]client.Table, 7)
	for i := range tables {
		tables[i] = client.Table{Name: string(rune('a' + i)), Columns: []client.Column{{Name: "id"}}}
	}

	nodes := MapTablesToNodes(tables, LayoutGrid)
	require.Len(t, nodes, 7)

	// Three columns, 350 apart; rows 400 apart.
	assert.Equal(t, Position{X: 0, Y: 0}, nodes[0].Position)
	assert.Equal(t, Position{X: 350, Y: 0}, nodes[1].Position)
	assert.Equal(t, Position{X: 700, Y: 0}, nodes[2].Position)
	assert.Equal(t, Position{X: 0, Y: 400}, nodes[3].Position)
	assert.Equal(t, Position{X: 0, Y: 800}, nodes[6].Position)

	for i, node := range nodes {
		assert.Equal(t, i, node.Data.ColorIndex)
	}
}

func TestExplicitColorIndexWins(t *testing.T) {
	five := 5
	tables := []client.Table{
		{Name: "plain", Columns: []client.Column{{Name: "id"}}},
		{Name: "tinted", Columns: []client.Column{{Name: "id"}}, ColorIndex: &five},
	}

	nodes := MapTablesToNodes(tables, LayoutGrid)
	require.Len(t, nodes, 2)
	assert.Equal(t, 0, nodes[0].Data.ColorIndex)
	assert.Equal(t, 5, nodes[1].Data.ColorIndex)
}

func TestHierarchicalLayoutOrdersByForeignKeyCount(t *testing.T) {
	schema := usersOrdersSchema()

	nodes := MapTablesToNodes(schema.Tables, LayoutHierarchical)
	require.Len(t, nodes, 2)

	// users has no outgoing keys, so it comes first.
	assert.Equal(t, "users", nodes[0].ID)
	assert.Equal(t, "orders", nodes[1].ID)
}

func TestHierarchicalSortIsStable(t *testing.T) {
	tables := []client.Table{
		{Name: "a"},
		{Name: "b"},
		{Name: "c", ForeignKeys: []client.ForeignKey{{Column: "a_id", ReferencesTable: "a", ReferencesColumn: "id"}}},
		{Name: "d"},
	}

	nodes := MapTablesToNodes(tables, LayoutHierarchical)
	got := []string{nodes[0].ID, nodes[1].ID, nodes[2].ID, nodes[3].ID}
	assert.Equal(t, []string{"a", "b", "d", "c"}, got)
}

func TestEdgesSkipUnresolvableForeignKeys(t *testing.T) {
	tables := []client.Table{
		{
			Name:    "orders",
			Columns: []client.Column{{Name: "id"}, {Name: "user_id"}, {Name: "coupon_id"}},
			ForeignKeys: []client.ForeignKey{
				{Column: "user_id", ReferencesTable: "users", ReferencesColumn: "id"},
				{Column: "coupon_id", ReferencesTable: "coupons", ReferencesColumn: "id"},
				{Column: "user_id", ReferencesTable: "users", ReferencesColumn: "uuid"},
			},
		},
		{Name: "users", Columns: []client.Column{{Name: "id"}, {Name: "email"}}},
	}

	edges := MapForeignKeysToEdges(tables)
	require.Len(t, edges, 1, "missing table and missing column are both skipped")
	assert.Equal(t, "orders", edges[0].Source)
	assert.Equal(t, "users", edges[0].Target)
}

func TestMapSchemaToFlow(t *testing.T) {
	schema := usersOrdersSchema()

	flow := MapSchemaToFlow(schema, LayoutGrid)
	assert.Len(t, flow.Nodes, 2)
	assert.Len(t, flow.Edges, 1)
	assert.Equal(t, 2, flow.Metadata.TableCount)
	assert.Equal(t, 1, flow.Metadata.RelationshipCount)
	assert.Equal(t, 5, flow.Metadata.ColumnCount)
	assert.EqualValues(t, 290, flow.Metadata.RowCount)

	orders := flow.Nodes[0]
	assert.Equal(t, "orders", orders.ID)
	assert.Equal(t, 3, orders.Data.ColumnCount)
	assert.Equal(t, []string{"id"}, orders.Data.PrimaryKeys)
}

func TestMapSchemaToFlowEmpty(t *testing.T) {
	flow := MapSchemaToFlow(nil, LayoutGrid)
	assert.Empty(t, flow.Nodes)
	assert.Empty(t, flow.Edges)

	flow = MapSchemaToFlow(&client.Schema{}, LayoutGrid)
	assert.Empty(t, flow.Nodes)
	assert.Empty(t, flow.Edges)
	assert.Zero(t, flow.Metadata.TableCount)
}

func TestFilterTablesByName(t *testing.T) {
	tables := []client.Table{
		{Name: "users"},
		{Name: "user_sessions"},
		{Name: "orders"},
	}

	assert.Len(t, FilterTablesByName(tables, "USER"), 2)
	assert.Len(t, FilterTablesByName(tables, "sess"), 1)
	assert.Empty(t, FilterTablesByName(tables, "missing"))
	assert.Equal(t, tables, FilterTablesByName(tables, "  "))
	assert.Equal(t, tables, FilterTablesByName(tables, ""))
}

func TestValidateSchema(t *testing.T) {
	valid, problems := ValidateSchema(nil)
	assert.False(t, valid)
	assert.NotEmpty(t, problems)

	valid, problems = ValidateSchema(usersOrdersSchema())
	assert.True(t, valid)
	assert.Empty(t, problems)

	valid, problems = ValidateSchema(&client.Schema{Tables: []client.Table{
		{Name: "a", Columns: []client.Column{{Name: "id"}}, PrimaryKeys: []string{"id"}},
		{Name: "a", Columns: []client.Column{{Name: "id"}}},
		{Name: "c", Columns: []client.Column{{Name: "x_id"}}, PrimaryKeys: []string{"x_id"},
			ForeignKeys: []client.ForeignKey{{Column: "x_id", ReferencesTable: "ghost", ReferencesColumn: "id"}}},
	}})
	assert.True(t, valid, "advisory problems do not make the schema undrawable")
	assert.Len(t, problems, 3) // duplicate name, no primary key, unknown reference

	valid, problems = ValidateSchema(&client.Schema{Tables: []client.Table{
		{Name: "", Columns: []client.Column{{Name: "id"}}, PrimaryKeys: []string{"id"}},
		{Name: "b", PrimaryKeys: []string{"id"}},
	}})
	assert.False(t, valid, "nameless and columnless tables cannot be drawn")
	assert.Len(t, problems, 2)
}

func TestExportDiagram(t *testing.T) {
	flow := MapSchemaToFlow(usersOrdersSchema(), LayoutGrid)

	export := ExportDiagram(flow)
	assert.Equal(t, "1.0", export.Version)
	assert.False(t, export.ExportedAt.IsZero())
	require.Len(t, export.Nodes, 2)
	require.Len(t, export.Edges, 1)
	assert.Equal(t, flow.Nodes[0].ID, export.Nodes[0].ID)
	assert.Equal(t, flow.Nodes[0].Position, export.Nodes[0].Position)
	assert.Equal(t, flow.Edges[0].Source, export.Edges[0].Source)
	assert.Equal(t, flow.Metadata, export.Metadata)

	raw, err := MarshalExport(export)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": "1.0"`)
}
