// Package diagram converts an inspected schema into a flow-graph layout of
// table nodes and foreign-key edges, plus helpers for filtering, validation
// and export.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"dblens/client"
)

const (
	gridColumns   = 3
	columnSpacing = 350
	rowSpacing    = 400
)

// Layout selects how nodes are placed on the grid.
type Layout string

const (
	// LayoutGrid keeps the schema's table order.
	LayoutGrid Layout = "grid"
	// LayoutHierarchical orders tables by ascending foreign-key count so
	// referenced tables tend to appear before the tables pointing at them.
	LayoutHierarchical Layout = "hierarchical"
)

// Position is a node's placement in diagram coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the denormalized table payload attached to a node.
type NodeData struct {
	Label       string              `json:"label"`
	Columns     []client.Column     `json:"columns"`
	PrimaryKeys []string            `json:"primary_keys"`
	ForeignKeys []client.ForeignKey `json:"foreign_keys"`
	ColumnCount int                 `json:"column_count"`
	RowCount    int64               `json:"row_count"`
	ColorIndex  int                 `json:"color_index"`
}

// Node is a positioned table in the diagram.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge is a foreign-key relationship between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Metadata summarizes the diagram's contents.
type Metadata struct {
	TableCount        int   `json:"table_count"`
	RelationshipCount int   `json:"relationship_count"`
	ColumnCount       int   `json:"column_count"`
	RowCount          int64 `json:"row_count"`
}

// Flow is the complete diagram model.
type Flow struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata"`
}

// MapTablesToNodes lays tables out on a three-column grid. Hierarchical
// layout stable-sorts by ascending foreign-key count first, so unreferencing
// tables land in the top rows. A table's explicit color index wins; otherwise
// it defaults to the grid position.
func MapTablesToNodes(tables []client.Table, layout Layout) []Node {
	ordered := tables
	if layout == LayoutHierarchical {
		ordered = make([]client.Table, len(tables))
		copy(ordered, tables)
		sort.SliceStable(ordered, func(i, j int) bool {
			return len(ordered[i].ForeignKeys) < len(ordered[j].ForeignKeys)
		})
	}

	nodes := make([]Node, 0, len(ordered))
	for i, table := range ordered {
		colorIndex := i
		if table.ColorIndex != nil {
			colorIndex = *table.ColorIndex
		}
		nodes = append(nodes, Node{
			ID:   table.Name,
			Type: "table",
			Position: Position{
				X: float64((i % gridColumns) * columnSpacing),
				Y: float64((i / gridColumns) * rowSpacing),
			},
			Data: NodeData{
				Label:       table.Name,
				Columns:     table.Columns,
				PrimaryKeys: table.PrimaryKeys,
				ForeignKeys: table.ForeignKeys,
				ColumnCount: len(table.Columns),
				RowCount:    table.RowCount,
				ColorIndex:  colorIndex,
			},
		})
	}
	return nodes
}

// MapForeignKeysToEdges builds one edge per resolvable foreign key. Keys
// whose target table or column is absent from the schema are skipped rather
// than producing dangling edges.
func MapForeignKeysToEdges(tables []client.Table) []Edge {
	columns := make(map[string]map[string]struct{}, len(tables))
	for _, table := range tables {
		cols := make(map[string]struct{}, len(table.Columns))
		for _, col := range table.Columns {
			cols[col.Name] = struct{}{}
		}
		columns[table.Name] = cols
	}

	var edges []Edge
	for _, table := range tables {
		for _, fk := range table.ForeignKeys {
			targetCols, ok := columns[fk.ReferencesTable]
			if !ok {
				continue
			}
			if _, ok := targetCols[fk.ReferencesColumn]; !ok {
				continue
			}
			edges = append(edges, Edge{
				ID:     fmt.Sprintf("%s.%s->%s.%s", table.Name, fk.Column, fk.ReferencesTable, fk.ReferencesColumn),
				Source: table.Name,
				Target: fk.ReferencesTable,
				Label:  fmt.Sprintf("%s → %s", fk.Column, fk.ReferencesColumn),
			})
		}
	}
	return edges
}

// MapSchemaToFlow produces the full diagram for a schema. An empty schema
// yields an empty flow.
func MapSchemaToFlow(schema *client.Schema, layout Layout) Flow {
	if schema == nil || len(schema.Tables) == 0 {
		return Flow{Nodes: []Node{}, Edges: []Edge{}}
	}

	nodes := MapTablesToNodes(schema.Tables, layout)
	edges := MapForeignKeysToEdges(schema.Tables)

	meta := Metadata{
		TableCount:        len(schema.Tables),
		RelationshipCount: len(edges),
	}
	for _, table := range schema.Tables {
		meta.ColumnCount += len(table.Columns)
		meta.RowCount += table.RowCount
	}
	return Flow{Nodes: nodes, Edges: edges, Metadata: meta}
}

// FilterTablesByName keeps tables whose name contains the term, ignoring
// case. An empty term keeps everything.
func FilterTablesByName(tables []client.Table, term string) []client.Table {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tables
	}
	var out []client.Table
	for _, table := range tables {
		if strings.Contains(strings.ToLower(table.Name), term) {
			out = append(out, table)
		}
	}
	return out
}

// ValidateSchema checks a schema before diagramming. Every table needs a
// name and at least one column; breaking either makes the schema invalid.
// Duplicate names, missing primary keys and dangling references are reported
// as advisory problems only.
func ValidateSchema(schema *client.Schema) (bool, []string) {
	if schema == nil || len(schema.Tables) == 0 {
		return false, []string{"schema has no tables"}
	}

	valid := true
	var problems []string
	names := make(map[string]struct{}, len(schema.Tables))
	for i, table := range schema.Tables {
		if table.Name == "" {
			problems = append(problems, fmt.Sprintf("table %d has no name", i))
			valid = false
			continue
		}
		if _, dup := names[table.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate table name %q", table.Name))
		}
		names[table.Name] = struct{}{}
		if len(table.Columns) == 0 {
			problems = append(problems, fmt.Sprintf("table %q has no columns", table.Name))
			valid = false
		}
		if len(table.PrimaryKeys) == 0 {
			problems = append(problems, fmt.Sprintf("table %q has no primary key", table.Name))
		}
	}
	for _, table := range schema.Tables {
		for _, fk := range table.ForeignKeys {
			if _, ok := names[fk.ReferencesTable]; !ok {
				problems = append(problems, fmt.Sprintf("table %q references unknown table %q", table.Name, fk.ReferencesTable))
			}
		}
	}
	return valid, problems
}
