package diagram

import (
	"encoding/json"
	"time"
)

const exportVersion = "1.0"

// ExportNode is the stable on-disk form of a node.
type ExportNode struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// ExportEdge is the stable on-disk form of an edge.
type ExportEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Export is a versioned snapshot of a diagram, suitable for saving and
// later re-import.
type Export struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Nodes      []ExportNode `json:"nodes"`
	Edges      []ExportEdge `json:"edges"`
	Metadata   Metadata     `json:"metadata"`
}

// ExportDiagram snapshots a flow into its versioned export form.
func ExportDiagram(flow Flow) Export {
	out := Export{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Nodes:      make([]ExportNode, 0, len(flow.Nodes)),
		Edges:      make([]ExportEdge, 0, len(flow.Edges)),
		Metadata:   flow.Metadata,
	}
	for _, node := range flow.Nodes {
		out.Nodes = append(out.Nodes, ExportNode{ID: node.ID, Position: node.Position, Data: node.Data})
	}
	for _, edge := range flow.Edges {
		out.Edges = append(out.Edges, ExportEdge{ID: edge.ID, Source: edge.Source, Target: edge.Target, Label: edge.Label})
	}
	return out
}

// MarshalExport serializes an export as indented JSON.
func MarshalExport(export Export) ([]byte, error) {
	return json.MarshalIndent(export, "", "  ")
}
