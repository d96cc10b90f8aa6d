package port

import "context"

// TableInfo summarises one table or view of the sync database.
type TableInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "table" or "view"
	RowCount    int64  `json:"row_count"`
	ColumnCount int    `json:"column_count"`
	Description string `json:"description,omitempty"`
}

// ColumnInfo describes a single column.
type ColumnInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsNullable   bool   `json:"is_nullable"`
	DefaultValue string `json:"default_value,omitempty"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	Description  string `json:"description,omitempty"`
}

// ForeignKey describes one foreign key reference.
type ForeignKey struct {
	ColumnName       string `json:"column_name"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// IndexInfo describes one index.
type IndexInfo struct {
	Name     string `json:"name"`
	IsUnique bool   `json:"is_unique"`
}

// TableDetail is the full structure of one table.
type TableDetail struct {
	Name        string       `json:"name"`
	RowCount    int64        `json:"row_count"`
	Columns     []ColumnInfo `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []IndexInfo  `json:"indexes,omitempty"`
	Description string       `json:"description,omitempty"`
}

// SchemaExplorer provides read-only schema discovery over the sync database.
// Its queries are fixed internal statements, not candidate input, so they do
// not pass through the validator.
type SchemaExplorer interface {
	ListTables(ctx context.Context) ([]TableInfo, error)
	DescribeTable(ctx context.Context, name string) (*TableDetail, error)
}
