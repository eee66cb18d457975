// Package model defines the response shapes shared by the HTTP, MCP, and
// service layers: query results, visualization payloads, and error envelopes.
package model

// QueryResult is the uniform response for a natural-language query. Result is
// always present: success rows, a single structured error row, or the fixed
// unknown-intent row. Each success row carries sql_query and sql_params keys
// injected for display.
type QueryResult struct {
	SessionID     string           `json:"session_id,omitempty"`
	Result        []map[string]any `json:"result"`
	Visualization *Visualization   `json:"visualization,omitempty"`
}

// Visualization is a pass-through chart descriptor for the rendering client.
type Visualization struct {
	Type   string           `json:"type"`
	Config VizConfig        `json:"config"`
	Data   []map[string]any `json:"data"`
}

// VizConfig names the fields a renderer should bind to each axis.
type VizConfig struct {
	Title         string `json:"title"`
	ValueField    string `json:"value_field,omitempty"`
	CountField    string `json:"count_field,omitempty"`
	CategoryField string `json:"category_field,omitempty"`
}

// TableSummary aggregates the metadata returned by the table-summary action.
type TableSummary struct {
	TableName   string           `json:"table_name"`
	RowCount    int64            `json:"row_count"`
	ColumnCount int              `json:"column_count"`
	ColumnNames []string         `json:"column_names"`
	SampleRows  []map[string]any `json:"sample_rows"`
}
