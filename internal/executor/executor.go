// Package executor dispatches resolved actions to the query builder, runs
// the SQL under a timeout watchdog, normalizes rows to mappings, and attaches
// SQL provenance to every result, success or failure.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/askql/askql/internal/intent"
	"github.com/askql/askql/internal/metrics"
	"github.com/askql/askql/internal/model"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/sqlgen"
	"github.com/askql/askql/internal/validate"
)

// DefaultTimeout bounds query execution when no override is configured.
const DefaultTimeout = 30 * time.Second

const (
	unitsTable       = "units"
	enterprisesTable = "enterprises"
	companyNameCol   = "company_name"
	enterpriseIDCol  = "enterprise_id"
)

// Result is the outcome of one action execution. SQL and Params are always
// set to whatever was built, even when Err is non-nil, so the caller can
// inspect what was attempted.
type Result struct {
	Rows          []map[string]any
	SQL           string
	Params        []any
	Visualization *model.Visualization
	Err           error
}

// Executor owns the validate-build-execute pipeline for all actions.
type Executor struct {
	db        *sqlx.DB
	schema    schema.Introspector
	validator *validate.Validator
	builder   *sqlgen.Builder
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates an Executor. A zero timeout falls back to DefaultTimeout.
func New(db *sqlx.DB, sc schema.Introspector, v *validate.Validator, b *sqlgen.Builder, timeout time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{db: db, schema: sc, validator: v, builder: b, timeout: timeout, logger: logger}
}

// Execute runs one resolved action. Validation failures short-circuit
// without touching the database; everything else runs under the watchdog.
// No failure mode escapes as a panic or unshaped error.
func (e *Executor) Execute(ctx context.Context, req intent.Request) *Result {
	start := time.Now()
	res := e.dispatch(ctx, req)

	outcome := "ok"
	switch {
	case res.Err == nil:
	case isTimeout(res.Err):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	metrics.ObserveQuery(string(req.Action()), outcome, time.Since(start))

	if res.Err != nil {
		e.logger.Warn("action failed", "action", req.Action(), "error", res.Err, "sql", res.SQL)
	}
	return res
}

func (e *Executor) dispatch(ctx context.Context, req intent.Request) *Result {
	switch r := req.(type) {
	case intent.TablesRequest:
		return e.fetchTables(ctx)
	case intent.RecordsRequest:
		return e.fetchRecords(ctx, r)
	case intent.JoinRequest:
		return e.fetchJoined(ctx, r)
	case intent.AppendRequest:
		return e.fetchAppended(ctx, r)
	case intent.TableSummaryRequest:
		return e.tableSummary(ctx, r)
	case intent.ColumnSummaryRequest:
		return e.summarizeColumn(ctx, r)
	case intent.RelationshipRequest:
		return e.analyzeRelationship(ctx, r)
	case intent.CountUnitsRequest:
		return e.countRows(ctx, unitsTable, r.Condition)
	case intent.CountEnterprisesRequest:
		return e.countRows(ctx, enterprisesTable, r.Condition)
	case intent.CompanyNameRequest:
		return e.companyName(ctx, r)
	case intent.UnknownRequest:
		return &Result{Err: ErrUnsupported, Params: []any{}}
	default:
		return &Result{Err: ErrUnsupported, Params: []any{}}
	}
}

func (e *Executor) fetchTables(ctx context.Context) *Result {
	sqlStr, params := e.builder.FetchTables()
	rows, err := e.runQuery(ctx, sqlStr, params)
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Err: err}
}

func (e *Executor) fetchRecords(ctx context.Context, req intent.RecordsRequest) *Result {
	table, err := e.validator.Table(ctx, req.Table)
	if err != nil {
		return &Result{Err: err}
	}

	pred, err := e.validator.Condition(ctx, table, req.Condition, 1)
	if err != nil {
		return &Result{Err: err}
	}

	order, err := e.validator.OrderBy(ctx, table, req.OrderBy)
	if err != nil {
		return &Result{Err: err}
	}

	// No requested columns means SELECT *. The all-columns fallback in the
	// validator only applies when columns were named but none survived.
	var cols []validate.SafeIdent
	if len(req.Columns) > 0 {
		cols, err = e.validator.Columns(ctx, table, req.Columns)
		if err != nil {
			return &Result{Err: err}
		}
	}

	sqlStr, params := e.builder.FetchRecords(cols, table, pred, order, req.Limit)
	rows, err := e.runQuery(ctx, sqlStr, params)
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Err: err}
}

func (e *Executor) fetchJoined(ctx context.Context, req intent.JoinRequest) *Result {
	table1, err := e.validator.Table(ctx, req.Table1)
	if err != nil {
		return &Result{Err: err}
	}
	table2, err := e.validator.Table(ctx, req.Table2)
	if err != nil {
		return &Result{Err: err}
	}

	joinCol1, joinCol2, err := e.validator.JoinColumns(ctx, table1, table2, req.JoinColumns)
	if err != nil {
		return &Result{Err: err}
	}

	joinType, err := e.validator.JoinType(req.JoinType)
	if err != nil {
		return &Result{Err: err}
	}

	pred, err := e.validator.ConditionForJoin(ctx, table1, table2, req.Condition, 1)
	if err != nil {
		return &Result{Err: err}
	}

	order, err := e.validator.OrderByForJoin(ctx, table1, table2, req.OrderBy)
	if err != nil {
		return &Result{Err: err}
	}

	var cols, allCols1, allCols2 []validate.SafeIdent
	if len(req.Columns) == 0 {
		allCols1, err = e.validator.Columns(ctx, table1, nil)
		if err != nil {
			return &Result{Err: err}
		}
		allCols2, err = e.validator.Columns(ctx, table2, nil)
		if err != nil {
			return &Result{Err: err}
		}
	} else {
		cols, err = e.validator.Columns(ctx, table1, req.Columns)
		if err != nil {
			return &Result{Err: err}
		}
	}

	sqlStr, params := e.builder.FetchJoined(cols, table1, allCols1, joinType, table2, allCols2, joinCol1, joinCol2, pred, order, req.Limit)
	rows, err := e.runQuery(ctx, sqlStr, params)
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Err: err}
}

func (e *Executor) fetchAppended(ctx context.Context, req intent.AppendRequest) *Result {
	table1, err := e.validator.Table(ctx, req.Table1)
	if err != nil {
		return &Result{Err: err}
	}
	table2, err := e.validator.Table(ctx, req.Table2)
	if err != nil {
		return &Result{Err: err}
	}

	common, err := e.validator.CommonColumns(ctx, table1, table2)
	if err != nil {
		return &Result{Err: err}
	}

	// The same condition guards both arms with independent placeholder
	// ranges, so the parameter list carries its values twice.
	pred1, err := e.validator.ConditionForAppend(ctx, table1, req.Condition, 1)
	if err != nil {
		return &Result{Err: err}
	}
	pred2, err := e.validator.ConditionForAppend(ctx, table2, req.Condition, len(pred1.Params)+1)
	if err != nil {
		return &Result{Err: err}
	}

	order, err := e.validator.OrderByForAppend(ctx, table1, table2, req.OrderBy)
	if err != nil {
		return &Result{Err: err}
	}

	sqlStr, params := e.builder.FetchAppended(common, table1, pred1, table2, pred2, order, req.Limit)
	rows, err := e.runQuery(ctx, sqlStr, params)
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Err: err}
}

func (e *Executor) tableSummary(ctx context.Context, req intent.TableSummaryRequest) *Result {
	table, err := e.validator.Table(ctx, req.Table)
	if err != nil {
		return &Result{Err: err}
	}

	countSQL, countParams := e.builder.RowCount(table)
	sampleSQL, sampleParams := e.builder.SampleRows(table, 3)

	rows, err := e.run(ctx, func(ctx context.Context, conn *sqlx.Conn) ([]map[string]any, error) {
		countRows, err := queryMaps(ctx, conn, countSQL, countParams)
		if err != nil {
			return nil, err
		}
		var rowCount any
		if len(countRows) > 0 {
			rowCount = countRows[0]["row_count"]
		}

		infos, err := e.schema.ColumnTypes(ctx, table.String())
		if err != nil {
			return nil, err
		}
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Name
		}

		samples, err := queryMaps(ctx, conn, sampleSQL, sampleParams)
		if err != nil {
			return nil, err
		}

		return []map[string]any{
			{"table_name": table.String()},
			{"row_count": rowCount},
			{"column_count": len(infos)},
			{"column_names": names},
			{"sample_rows": samples},
		}, nil
	})
	return &Result{Rows: rows, SQL: countSQL, Params: countParams, Err: err}
}

func (e *Executor) summarizeColumn(ctx context.Context, req intent.ColumnSummaryRequest) *Result {
	table, err := e.validator.Table(ctx, req.Table)
	if err != nil {
		return &Result{Err: err}
	}
	column, err := e.validator.Column(ctx, table, req.Column)
	if err != nil {
		return &Result{Err: err}
	}

	sqlStr, params := e.builder.SummarizeColumn(table, column)
	rows, err := e.runQuery(ctx, sqlStr, params)
	if err != nil {
		return &Result{SQL: sqlStr, Params: params, Err: err}
	}

	viz := &model.Visualization{
		Type: "bar_chart",
		Config: model.VizConfig{
			Title:      "Distribution of " + column.String() + " in " + table.String(),
			ValueField: column.String(),
			CountField: "count",
		},
		Data: rows,
	}
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Visualization: viz}
}

func (e *Executor) analyzeRelationship(ctx context.Context, req intent.RelationshipRequest) *Result {
	table, err := e.validator.Table(ctx, req.Table)
	if err != nil {
		return &Result{Err: err}
	}
	categorical, err := e.validator.Column(ctx, table, req.CategoricalColumn)
	if err != nil {
		return &Result{Err: err}
	}
	quantitative, err := e.validator.Column(ctx, table, req.QuantitativeColumn)
	if err != nil {
		return &Result{Err: err}
	}

	sqlStr, params := e.builder.AnalyzeRelationship(table, categorical, quantitative)
	rows, err := e.runQuery(ctx, sqlStr, params)
	if err != nil {
		return &Result{SQL: sqlStr, Params: params, Err: err}
	}

	viz := &model.Visualization{
		Type: "histogram",
		Config: model.VizConfig{
			Title:         "Sum of " + quantitative.String() + " by " + categorical.String() + " in " + table.String(),
			CategoryField: categorical.String(),
			ValueField:    quantitative.String(),
		},
		Data: rows,
	}
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Visualization: viz}
}

func (e *Executor) countRows(ctx context.Context, tableName string, cond *intent.Condition) *Result {
	table, err := e.validator.Table(ctx, tableName)
	if err != nil {
		return &Result{Err: err}
	}

	pred, err := e.validator.Condition(ctx, table, cond, 1)
	if err != nil {
		return &Result{Err: err}
	}

	sqlStr, params := e.builder.CountRows(table, pred)
	rows, err := e.runQuery(ctx, sqlStr, params)
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Err: err}
}

func (e *Executor) companyName(ctx context.Context, req intent.CompanyNameRequest) *Result {
	if req.EnterpriseID == "" {
		return &Result{Err: &validate.Error{
			Message: "enterprise_id is required: none supplied and no session default set",
		}}
	}

	table, err := e.validator.Table(ctx, enterprisesTable)
	if err != nil {
		return &Result{Err: err}
	}
	nameCol, err := e.validator.Column(ctx, table, companyNameCol)
	if err != nil {
		return &Result{Err: err}
	}
	idCol, err := e.validator.Column(ctx, table, enterpriseIDCol)
	if err != nil {
		return &Result{Err: err}
	}

	sqlStr, params := e.builder.CompanyName(table, nameCol, idCol, req.EnterpriseID, 1)
	rows, err := e.runQuery(ctx, sqlStr, params)
	return &Result{Rows: rows, SQL: sqlStr, Params: params, Err: err}
}

// runQuery executes one statement on a dedicated connection under the
// watchdog and normalizes the rows.
func (e *Executor) runQuery(ctx context.Context, sqlStr string, params []any) ([]map[string]any, error) {
	return e.run(ctx, func(ctx context.Context, conn *sqlx.Conn) ([]map[string]any, error) {
		return queryMaps(ctx, conn, sqlStr, params)
	})
}

// run executes fn on its own connection with a hard deadline. The worker
// goroutine is detached from caller cancellation; if the deadline elapses
// the worker is abandoned and its eventual result discarded. This is
// best-effort cancellation only.
func (e *Executor) run(ctx context.Context, fn func(ctx context.Context, conn *sqlx.Conn) ([]map[string]any, error)) ([]map[string]any, error) {
	type outcome struct {
		rows []map[string]any
		err  error
	}
	ch := make(chan outcome, 1)

	bg := context.WithoutCancel(ctx)
	go func() {
		conn, err := e.db.Connx(bg)
		if err != nil {
			ch <- outcome{err: &ExecError{Err: err}}
			return
		}
		defer conn.Close()

		rows, err := fn(bg, conn)
		if err != nil {
			ch <- outcome{err: &ExecError{Err: err}}
			return
		}
		ch <- outcome{rows: rows}
	}()

	select {
	case out := <-ch:
		return out.rows, out.err
	case <-time.After(e.timeout):
		metrics.ObserveTimeout()
		return nil, &TimeoutError{Timeout: e.timeout}
	}
}

// queryMaps runs a statement and scans every row into a map, converting
// []byte values to strings for clean JSON serialization.
func queryMaps(ctx context.Context, conn *sqlx.Conn, sqlStr string, params []any) ([]map[string]any, error) {
	rows, err := conn.QueryxContext(ctx, sqlStr, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]map[string]any, 0)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		cleanMapValues(row)
		records = append(records, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// cleanMapValues converts []byte values from database scans into strings.
func cleanMapValues(m map[string]any) {
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}
}

func isTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
