// Package intent defines the closed set of query actions the service
// supports and the typed request variant for each one. The Decode step maps
// the resolver's loosely-typed output into a variant and fails closed to
// Unknown on any shape mismatch, so nothing downstream ever sees a filter
// object it did not expect.
package intent

// Action names one of the fixed query shapes. The wire names are what the
// intent resolver is prompted to emit.
type Action string

const (
	ActionFetchTables      Action = "fetch_tables"
	ActionFetchRecords     Action = "fetch_n_records"
	ActionFetchJoined      Action = "fetch_n_joined_records"
	ActionFetchAppended    Action = "fetch_n_appended_records"
	ActionTableSummary     Action = "get_table_summary"
	ActionSummarizeColumn  Action = "summarize_column"
	ActionAnalyzeRelation  Action = "analyze_relationship"
	ActionCountUnits       Action = "count_units"
	ActionCountEnterprises Action = "count_enterprises"
	ActionCompanyName      Action = "get_company_name"
	ActionUnknown          Action = "unknown"
)

// DefaultLimit is the row limit applied when the resolver supplies none.
const DefaultLimit = 5

// Condition is a single structured filter predicate. Operator dictates
// arity: BETWEEN takes exactly two Values, IN takes one or more, the null
// checks take none, and every other operator takes exactly one Value.
type Condition struct {
	Column   string
	Operator string
	Value    any
	Values   []any
}

// JoinColumns names the join key on each side of a two-table join.
type JoinColumns struct {
	Table1Column string
	Table2Column string
}

// OrderSpec is an ORDER BY directive. Column may carry a table prefix when
// two tables are in scope.
type OrderSpec struct {
	Column    string
	Direction string
}

// Request is the tagged-variant interface implemented by one concrete struct
// per action.
type Request interface {
	Action() Action
}

// TablesRequest lists all tables in the schema.
type TablesRequest struct{}

func (TablesRequest) Action() Action { return ActionFetchTables }

// RecordsRequest fetches rows from one table with optional column selection,
// condition, and ordering.
type RecordsRequest struct {
	Table     string
	Columns   []string
	Limit     int
	Condition *Condition
	OrderBy   *OrderSpec
}

func (RecordsRequest) Action() Action { return ActionFetchRecords }

// JoinRequest joins two tables. JoinColumns defaults to id/id and JoinType
// to INNER when the resolver supplies neither.
type JoinRequest struct {
	Table1      string
	Table2      string
	Columns     []string
	Limit       int
	JoinColumns JoinColumns
	JoinType    string
	Condition   *Condition
	OrderBy     *OrderSpec
}

func (JoinRequest) Action() Action { return ActionFetchJoined }

// AppendRequest combines two tables vertically over their common columns.
type AppendRequest struct {
	Table1    string
	Table2    string
	Limit     int
	Condition *Condition
	OrderBy   *OrderSpec
}

func (AppendRequest) Action() Action { return ActionFetchAppended }

// TableSummaryRequest returns row count, column metadata, and sample rows.
type TableSummaryRequest struct {
	Table string
}

func (TableSummaryRequest) Action() Action { return ActionTableSummary }

// ColumnSummaryRequest counts the distinct values of one column, shaped for
// a bar chart.
type ColumnSummaryRequest struct {
	Table  string
	Column string
}

func (ColumnSummaryRequest) Action() Action { return ActionSummarizeColumn }

// RelationshipRequest sums a quantitative column grouped by a categorical
// one, shaped for a histogram.
type RelationshipRequest struct {
	Table              string
	CategoricalColumn  string
	QuantitativeColumn string
}

func (RelationshipRequest) Action() Action { return ActionAnalyzeRelation }

// CountUnitsRequest counts rows in the units table, optionally filtered.
type CountUnitsRequest struct {
	Condition *Condition
}

func (CountUnitsRequest) Action() Action { return ActionCountUnits }

// CountEnterprisesRequest counts rows in the enterprises table, optionally
// filtered.
type CountEnterprisesRequest struct {
	Condition *Condition
}

func (CountEnterprisesRequest) Action() Action { return ActionCountEnterprises }

// CompanyNameRequest looks up a company name by enterprise id. EnterpriseID
// may come from the filters or from session defaults; empty means neither
// supplied one.
type CompanyNameRequest struct {
	EnterpriseID string
}

func (CompanyNameRequest) Action() Action { return ActionCompanyName }

// UnknownRequest is the short-circuit variant for unresolvable intents.
type UnknownRequest struct{}

func (UnknownRequest) Action() Action { return ActionUnknown }
