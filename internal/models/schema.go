package models

// Introspection result types. These are never persisted; they are produced by
// the connectors and returned on the schema endpoint.

type Column struct {
	Name     string  `json:"name"`
	DataType string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

type ForeignKey struct {
	ConstraintName   string `json:"constraint_name,omitempty"`
	Column           string `json:"column"`
	ReferencesTable  string `json:"references_table"`
	ReferencesColumn string `json:"references_column"`
}

type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

type Table struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Columns     []Column     `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	Indexes     []Index      `json:"indexes,omitempty"`
	RowCount    int64        `json:"row_count"`
}

type Schema struct {
	DatabaseName string  `json:"database_name"`
	DatabaseType string  `json:"database_type"`
	Tables       []Table `json:"tables"`
}
