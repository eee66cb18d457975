package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode maps a resolver's loose {action, filters} output into a typed
// Request. It fails closed: an unrecognized action, a missing mandatory
// field, or a malformed nested object all yield UnknownRequest. Unknown
// filter keys are ignored, never trusted as SQL fragments.
func Decode(action string, filters map[string]any) Request {
	if filters == nil {
		filters = map[string]any{}
	}

	switch Action(strings.TrimSpace(action)) {
	case ActionFetchTables:
		return TablesRequest{}

	case ActionFetchRecords:
		return decodeRecords(filters)

	case ActionFetchJoined:
		return decodeJoin(filters)

	case ActionFetchAppended:
		return decodeAppend(filters)

	case ActionTableSummary:
		table, ok := asString(filters["table_name"])
		if !ok {
			return UnknownRequest{}
		}
		return TableSummaryRequest{Table: table}

	case ActionSummarizeColumn:
		table, ok1 := asString(filters["table_name"])
		column, ok2 := asString(filters["column"])
		if !ok1 || !ok2 {
			return UnknownRequest{}
		}
		return ColumnSummaryRequest{Table: table, Column: column}

	case ActionAnalyzeRelation:
		table, ok1 := asString(filters["table_name"])
		cat, ok2 := asString(filters["categorical_column"])
		quant, ok3 := asString(filters["quantitative_column"])
		if !ok1 || !ok2 || !ok3 {
			return UnknownRequest{}
		}
		return RelationshipRequest{Table: table, CategoricalColumn: cat, QuantitativeColumn: quant}

	case ActionCountUnits:
		cond, ok := optionalCondition(filters)
		if !ok {
			return UnknownRequest{}
		}
		return CountUnitsRequest{Condition: cond}

	case ActionCountEnterprises:
		cond, ok := optionalCondition(filters)
		if !ok {
			return UnknownRequest{}
		}
		return CountEnterprisesRequest{Condition: cond}

	case ActionCompanyName:
		id, _ := asString(filters["enterprise_id"])
		return CompanyNameRequest{EnterpriseID: id}

	default:
		return UnknownRequest{}
	}
}

func decodeRecords(filters map[string]any) Request {
	table, ok := asString(filters["table_name"])
	if !ok {
		return UnknownRequest{}
	}

	req := RecordsRequest{Table: table, Limit: DefaultLimit}

	if cols, ok := asStringSlice(filters["columns"]); ok {
		req.Columns = cols
	} else if _, present := filters["columns"]; present {
		return UnknownRequest{}
	}

	n, hasN := asInt(filters["n"])
	if hasN {
		req.Limit = n
	} else if _, present := filters["n"]; present {
		return UnknownRequest{}
	}

	cond, ok := optionalCondition(filters)
	if !ok {
		return UnknownRequest{}
	}
	req.Condition = cond

	// Legacy convenience: a bare column+value pair folds into an equality
	// condition, with limit 1 unless n was given explicitly.
	if req.Condition == nil {
		col, okCol := asString(filters["column"])
		val, okVal := filters["value"]
		if okCol && okVal {
			req.Condition = &Condition{Column: col, Operator: "=", Value: val}
			if !hasN {
				req.Limit = 1
			}
		}
	}

	order, ok := optionalOrder(filters)
	if !ok {
		return UnknownRequest{}
	}
	req.OrderBy = order

	return req
}

func decodeJoin(filters map[string]any) Request {
	table1, ok1 := asString(filters["table1"])
	table2, ok2 := asString(filters["table2"])
	if !ok1 || !ok2 {
		return UnknownRequest{}
	}

	req := JoinRequest{
		Table1:      table1,
		Table2:      table2,
		Limit:       DefaultLimit,
		JoinColumns: JoinColumns{Table1Column: "id", Table2Column: "id"},
		JoinType:    "INNER",
	}

	if n, ok := asInt(filters["n"]); ok {
		req.Limit = n
	} else if _, present := filters["n"]; present {
		return UnknownRequest{}
	}

	if cols, ok := asStringSlice(filters["columns"]); ok {
		req.Columns = cols
	} else if _, present := filters["columns"]; present {
		return UnknownRequest{}
	}

	if raw, present := filters["join_columns"]; present {
		m, ok := raw.(map[string]any)
		if !ok {
			return UnknownRequest{}
		}
		if c, ok := asString(m["table1_column"]); ok {
			req.JoinColumns.Table1Column = c
		}
		if c, ok := asString(m["table2_column"]); ok {
			req.JoinColumns.Table2Column = c
		}
	}

	if jt, ok := asString(filters["join_type"]); ok {
		req.JoinType = jt
	} else if _, present := filters["join_type"]; present {
		return UnknownRequest{}
	}

	cond, ok := optionalCondition(filters)
	if !ok {
		return UnknownRequest{}
	}
	req.Condition = cond

	order, ok := optionalOrder(filters)
	if !ok {
		return UnknownRequest{}
	}
	req.OrderBy = order

	return req
}

func decodeAppend(filters map[string]any) Request {
	table1, ok1 := asString(filters["table1"])
	table2, ok2 := asString(filters["table2"])
	if !ok1 || !ok2 {
		return UnknownRequest{}
	}

	req := AppendRequest{Table1: table1, Table2: table2, Limit: DefaultLimit}

	if n, ok := asInt(filters["n"]); ok {
		req.Limit = n
	} else if _, present := filters["n"]; present {
		return UnknownRequest{}
	}

	cond, ok := optionalCondition(filters)
	if !ok {
		return UnknownRequest{}
	}
	req.Condition = cond

	order, ok := optionalOrder(filters)
	if !ok {
		return UnknownRequest{}
	}
	req.OrderBy = order

	return req
}

// optionalCondition decodes filters["condition"] if present. The second
// return is false only when the key is present but malformed.
func optionalCondition(filters map[string]any) (*Condition, bool) {
	raw, present := filters["condition"]
	if !present {
		return nil, true
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	column, ok := asString(m["column"])
	if !ok {
		return nil, false
	}

	cond := &Condition{Column: column, Operator: "="}
	if op, ok := asString(m["operator"]); ok {
		cond.Operator = op
	}
	if v, present := m["value"]; present {
		cond.Value = v
	}
	if raw, present := m["values"]; present {
		vs, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		cond.Values = vs
	}
	return cond, true
}

// optionalOrder decodes filters["order_by"] if present.
func optionalOrder(filters map[string]any) (*OrderSpec, bool) {
	raw, present := filters["order_by"]
	if !present {
		return nil, true
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	column, ok := asString(m["column"])
	if !ok {
		return nil, false
	}

	spec := &OrderSpec{Column: column, Direction: "ASC"}
	if d, ok := asString(m["direction"]); ok {
		spec.Direction = d
	}
	return spec, true
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		// Resolvers sometimes emit numeric ids where strings are expected.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s)), true
		}
		return "", false
	default:
		return "", false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
