package intent

import (
	"reflect"
	"testing"
)

func TestDecodeFetchTables(t *testing.T) {
	req := Decode("fetch_tables", nil)
	if _, ok := req.(TablesRequest); !ok {
		t.Fatalf("Decode() = %T, want TablesRequest", req)
	}
}

func TestDecodeUnknownAction(t *testing.T) {
	for _, action := range []string{"", "unknown", "drop_table", "fetch_everything"} {
		req := Decode(action, map[string]any{"table_name": "users"})
		if _, ok := req.(UnknownRequest); !ok {
			t.Errorf("Decode(%q) = %T, want UnknownRequest", action, req)
		}
	}
}

func TestDecodeRecords(t *testing.T) {
	req := Decode("fetch_n_records", map[string]any{
		"table_name": "users",
		"n":          float64(10),
		"columns":    []any{"id", "name"},
		"condition": map[string]any{
			"column": "status", "operator": "=", "value": "active",
		},
		"order_by": map[string]any{"column": "name", "direction": "DESC"},
	})

	r, ok := req.(RecordsRequest)
	if !ok {
		t.Fatalf("Decode() = %T, want RecordsRequest", req)
	}
	if r.Table != "users" || r.Limit != 10 {
		t.Fatalf("Table = %q, Limit = %d", r.Table, r.Limit)
	}
	if !reflect.DeepEqual(r.Columns, []string{"id", "name"}) {
		t.Fatalf("Columns = %v", r.Columns)
	}
	if r.Condition == nil || r.Condition.Column != "status" || r.Condition.Value != "active" {
		t.Fatalf("Condition = %+v", r.Condition)
	}
	if r.OrderBy == nil || r.OrderBy.Column != "name" || r.OrderBy.Direction != "DESC" {
		t.Fatalf("OrderBy = %+v", r.OrderBy)
	}
}

func TestDecodeRecordsDefaults(t *testing.T) {
	req := Decode("fetch_n_records", map[string]any{"table_name": "users"})
	r, ok := req.(RecordsRequest)
	if !ok {
		t.Fatalf("Decode() = %T, want RecordsRequest", req)
	}
	if r.Limit != DefaultLimit {
		t.Fatalf("Limit = %d, want %d", r.Limit, DefaultLimit)
	}
	if r.Condition != nil || r.OrderBy != nil || r.Columns != nil {
		t.Fatal("optional fields should be unset")
	}
}

func TestDecodeRecordsFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
	}{
		{"missing table", map[string]any{"n": float64(5)}},
		{"malformed n", map[string]any{"table_name": "users", "n": "lots"}},
		{"fractional n", map[string]any{"table_name": "users", "n": 2.5}},
		{"malformed columns", map[string]any{"table_name": "users", "columns": "id,name"}},
		{"malformed condition", map[string]any{"table_name": "users", "condition": "status=active"}},
		{"condition missing column", map[string]any{"table_name": "users", "condition": map[string]any{"operator": "="}}},
		{"malformed order", map[string]any{"table_name": "users", "order_by": "name"}},
		{"malformed values", map[string]any{"table_name": "users", "condition": map[string]any{"column": "id", "values": "1,2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Decode("fetch_n_records", tt.filters)
			if _, ok := req.(UnknownRequest); !ok {
				t.Fatalf("Decode() = %T, want UnknownRequest", req)
			}
		})
	}
}

func TestDecodeRecordsColumnValueFold(t *testing.T) {
	req := Decode("fetch_n_records", map[string]any{
		"table_name": "users",
		"column":     "email",
		"value":      "john@example.com",
	})
	r, ok := req.(RecordsRequest)
	if !ok {
		t.Fatalf("Decode() = %T, want RecordsRequest", req)
	}
	if r.Condition == nil || r.Condition.Column != "email" || r.Condition.Operator != "=" {
		t.Fatalf("Condition = %+v, want email equality", r.Condition)
	}
	if r.Limit != 1 {
		t.Fatalf("Limit = %d, want 1 for point lookup", r.Limit)
	}

	// Explicit n survives the fold.
	req = Decode("fetch_n_records", map[string]any{
		"table_name": "users", "column": "email", "value": "x", "n": float64(7),
	})
	if r := req.(RecordsRequest); r.Limit != 7 {
		t.Fatalf("Limit = %d, want 7", r.Limit)
	}
}

func TestDecodeJoinDefaults(t *testing.T) {
	req := Decode("fetch_n_joined_records", map[string]any{
		"table1": "users", "table2": "orders",
	})
	r, ok := req.(JoinRequest)
	if !ok {
		t.Fatalf("Decode() = %T, want JoinRequest", req)
	}
	if r.JoinType != "INNER" {
		t.Fatalf("JoinType = %q, want INNER", r.JoinType)
	}
	if r.JoinColumns.Table1Column != "id" || r.JoinColumns.Table2Column != "id" {
		t.Fatalf("JoinColumns = %+v, want id/id", r.JoinColumns)
	}
	if r.Limit != DefaultLimit {
		t.Fatalf("Limit = %d", r.Limit)
	}
}

func TestDecodeJoinExplicit(t *testing.T) {
	req := Decode("fetch_n_joined_records", map[string]any{
		"table1":    "users",
		"table2":    "orders",
		"join_type": "LEFT",
		"join_columns": map[string]any{
			"table1_column": "id", "table2_column": "user_id",
		},
	})
	r := req.(JoinRequest)
	if r.JoinType != "LEFT" {
		t.Fatalf("JoinType = %q", r.JoinType)
	}
	if r.JoinColumns.Table2Column != "user_id" {
		t.Fatalf("JoinColumns = %+v", r.JoinColumns)
	}
}

func TestDecodeJoinFailsClosed(t *testing.T) {
	// Missing second table.
	if _, ok := Decode("fetch_n_joined_records", map[string]any{"table1": "users"}).(UnknownRequest); !ok {
		t.Fatal("missing table2 should fail closed")
	}
	// Malformed join_columns.
	if _, ok := Decode("fetch_n_joined_records", map[string]any{
		"table1": "a", "table2": "b", "join_columns": "id",
	}).(UnknownRequest); !ok {
		t.Fatal("malformed join_columns should fail closed")
	}
}

func TestDecodeAppend(t *testing.T) {
	req := Decode("fetch_n_appended_records", map[string]any{
		"table1": "users", "table2": "customers",
		"condition": map[string]any{"column": "name", "operator": "!=", "value": "x"},
	})
	r, ok := req.(AppendRequest)
	if !ok {
		t.Fatalf("Decode() = %T, want AppendRequest", req)
	}
	if r.Condition == nil || r.Condition.Operator != "!=" {
		t.Fatalf("Condition = %+v", r.Condition)
	}
}

func TestDecodeTableSummary(t *testing.T) {
	req := Decode("get_table_summary", map[string]any{"table_name": "users"})
	if r, ok := req.(TableSummaryRequest); !ok || r.Table != "users" {
		t.Fatalf("Decode() = %#v", req)
	}
	if _, ok := Decode("get_table_summary", map[string]any{}).(UnknownRequest); !ok {
		t.Fatal("missing table_name should fail closed")
	}
}

func TestDecodeColumnSummary(t *testing.T) {
	req := Decode("summarize_column", map[string]any{"table_name": "users", "column": "status"})
	if r, ok := req.(ColumnSummaryRequest); !ok || r.Column != "status" {
		t.Fatalf("Decode() = %#v", req)
	}
}

func TestDecodeRelationship(t *testing.T) {
	req := Decode("analyze_relationship", map[string]any{
		"table_name": "products", "categorical_column": "category", "quantitative_column": "revenue",
	})
	r, ok := req.(RelationshipRequest)
	if !ok {
		t.Fatalf("Decode() = %T", req)
	}
	if r.CategoricalColumn != "category" || r.QuantitativeColumn != "revenue" {
		t.Fatalf("Decode() = %#v", r)
	}
}

func TestDecodeCounts(t *testing.T) {
	if _, ok := Decode("count_units", map[string]any{}).(CountUnitsRequest); !ok {
		t.Fatal("count_units should decode without filters")
	}
	r, ok := Decode("count_enterprises", map[string]any{
		"condition": map[string]any{"column": "status", "value": "active"},
	}).(CountEnterprisesRequest)
	if !ok || r.Condition == nil {
		t.Fatalf("Decode() = %#v", r)
	}
}

func TestDecodeCompanyName(t *testing.T) {
	// Numeric ids coerce to strings.
	r, ok := Decode("get_company_name", map[string]any{"enterprise_id": float64(42)}).(CompanyNameRequest)
	if !ok || r.EnterpriseID != "42" {
		t.Fatalf("Decode() = %#v", r)
	}

	// Missing id still decodes; session defaults may fill it later.
	r, ok = Decode("get_company_name", map[string]any{}).(CompanyNameRequest)
	if !ok || r.EnterpriseID != "" {
		t.Fatalf("Decode() = %#v", r)
	}
}
