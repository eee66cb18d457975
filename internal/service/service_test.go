package service

import (
	"context"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/askql/askql/internal/executor"
	"github.com/askql/askql/internal/nlu"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/session"
	"github.com/askql/askql/internal/sqlgen"
	"github.com/askql/askql/internal/validate"
)

type fakeSchema struct {
	tables map[string][]string
}

func (f *fakeSchema) Columns(ctx context.Context, table string) ([]string, error) {
	return f.tables[table], nil
}

func (f *fakeSchema) ColumnTypes(ctx context.Context, table string) ([]schema.ColumnInfo, error) {
	cols := f.tables[table]
	infos := make([]schema.ColumnInfo, len(cols))
	for i, c := range cols {
		infos[i] = schema.ColumnInfo{Name: c, DataType: "text"}
	}
	return infos, nil
}

func (f *fakeSchema) TableNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeSchema) SchemaName() string { return "public" }

// stubResolver replays a scripted sequence of intents, one per Resolve call.
type stubResolver struct {
	intents  []nlu.RawIntent
	errs     []error
	calls    int
	friendly string
}

func (s *stubResolver) Resolve(ctx context.Context, text string, sctx nlu.Context) (nlu.RawIntent, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var raw nlu.RawIntent
	if i < len(s.intents) {
		raw = s.intents[i]
	}
	return raw, err
}

func (s *stubResolver) ExplainError(ctx context.Context, userQuery, technical string) string {
	if s.friendly != "" {
		return s.friendly
	}
	return technical
}

func newTestService(t *testing.T, resolver nlu.Resolver) (*QueryService, sqlmock.Sqlmock, *session.MemoryStore) {
	return newTestServiceWithTimeout(t, resolver, 0)
}

func newTestServiceWithTimeout(t *testing.T, resolver nlu.Resolver, timeout time.Duration) (*QueryService, sqlmock.Sqlmock, *session.MemoryStore) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sc := &fakeSchema{
		tables: map[string][]string{
			"users":       {"id", "name", "email"},
			"enterprises": {"enterprise_id", "company_name"},
		},
	}
	v := validate.New(sc, nil)
	b := sqlgen.New("public")
	exec := executor.New(sqlx.NewDb(db, "sqlmock"), sc, v, b, timeout, nil)
	sessions := session.NewMemoryStore(0)
	return New(resolver, sessions, exec, nil), mock, sessions
}

func TestExecuteQueryInjectsProvenance(t *testing.T) {
	resolver := &stubResolver{intents: []nlu.RawIntent{{
		Action:  "fetch_n_records",
		Filters: map[string]any{"table_name": "users", "n": float64(2)},
	}}}
	svc, mock, _ := newTestService(t, resolver)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM public.users LIMIT $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob"))

	res := svc.ExecuteQuery(context.Background(), "show me 2 users", "")
	if res.SessionID == "" {
		t.Fatal("a fresh session id should be minted")
	}
	if len(res.Result) != 2 {
		t.Fatalf("Result = %v", res.Result)
	}
	for _, row := range res.Result {
		if row["sql_query"] != "SELECT * FROM public.users LIMIT 2" {
			t.Fatalf("sql_query = %v", row["sql_query"])
		}
		if !reflect.DeepEqual(row["sql_params"], []any{2}) {
			t.Fatalf("sql_params = %v", row["sql_params"])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestExecuteQueryEchoesSessionIDAndRecordsHistory(t *testing.T) {
	resolver := &stubResolver{intents: []nlu.RawIntent{{Action: "fetch_tables"}}}
	svc, mock, sessions := newTestService(t, resolver)

	mock.ExpectQuery("SELECT table_name FROM information_schema").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))

	res := svc.ExecuteQuery(context.Background(), "what tables are there", "sess-7")
	if res.SessionID != "sess-7" {
		t.Fatalf("SessionID = %q", res.SessionID)
	}

	history, _ := sessions.History(context.Background(), "sess-7", 0)
	if !reflect.DeepEqual(history, []string{"what tables are there"}) {
		t.Fatalf("history = %v", history)
	}
}

func TestExecuteQueryResolutionFailureDegrades(t *testing.T) {
	resolver := &stubResolver{errs: []error{&nlu.ResolutionError{Err: context.DeadlineExceeded}}}
	svc, _, _ := newTestService(t, resolver)

	res := svc.ExecuteQuery(context.Background(), "gibberish", "sess-1")
	if len(res.Result) != 1 {
		t.Fatalf("Result = %v", res.Result)
	}
	row := res.Result[0]
	if row["action"] != "unknown" {
		t.Fatalf("action = %v", row["action"])
	}
	if row["sql_query"] != nil {
		t.Fatalf("sql_query = %v, want nil", row["sql_query"])
	}
	if _, ok := row["message"].(string); !ok {
		t.Fatalf("message = %v", row["message"])
	}
}

func TestExecuteQueryValidationErrorIsExplained(t *testing.T) {
	resolver := &stubResolver{
		intents: []nlu.RawIntent{{
			Action:  "fetch_n_records",
			Filters: map[string]any{"table_name": "no_such_table"},
		}},
		friendly: "That table does not exist.",
	}
	svc, _, _ := newTestService(t, resolver)

	res := svc.ExecuteQuery(context.Background(), "records from no_such_table", "sess-1")
	row := res.Result[0]
	if row["error"] != "That table does not exist." {
		t.Fatalf("error = %v", row["error"])
	}
	// Validation failed before any SQL was built.
	if row["sql_query"] != nil {
		t.Fatalf("sql_query = %v, want nil", row["sql_query"])
	}
	if !reflect.DeepEqual(row["sql_params"], []any{}) {
		t.Fatalf("sql_params = %v, want empty", row["sql_params"])
	}
}

func TestExecuteQueryTimeoutMessageIsFixed(t *testing.T) {
	resolver := &stubResolver{
		intents: []nlu.RawIntent{{
			Action:  "fetch_n_records",
			Filters: map[string]any{"table_name": "users", "n": float64(5)},
		}},
		friendly: "a gentler rewording",
	}
	svc, mock, _ := newTestServiceWithTimeout(t, resolver, 20*time.Millisecond)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM public.users LIMIT $1")).
		WithArgs(5).
		WillDelayFor(300 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	res := svc.ExecuteQuery(context.Background(), "slow query", "sess-1")
	row := res.Result[0]
	msg, _ := row["error"].(string)
	if !strings.HasPrefix(msg, "Query timeout") {
		t.Fatalf("error = %q, timeouts must not be reworded", msg)
	}
}

func TestExecuteQueryRemembersCompanyDefaults(t *testing.T) {
	resolver := &stubResolver{intents: []nlu.RawIntent{
		{Action: "get_company_name", Filters: map[string]any{"enterprise_id": "42"}},
		{Action: "get_company_name", Filters: map[string]any{}},
	}}
	svc, mock, sessions := newTestService(t, resolver)

	companySQL := regexp.QuoteMeta("SELECT company_name FROM public.enterprises WHERE enterprise_id = $1 LIMIT $2")
	mock.ExpectQuery(companySQL).
		WithArgs("42", 1).
		WillReturnRows(sqlmock.NewRows([]string{"company_name"}).AddRow("Acme Corp"))
	// The follow-up omits the id and rides on the stored default.
	mock.ExpectQuery(companySQL).
		WithArgs("42", 1).
		WillReturnRows(sqlmock.NewRows([]string{"company_name"}).AddRow("Acme Corp"))

	res := svc.ExecuteQuery(context.Background(), "company for enterprise 42", "sess-1")
	if res.Result[0]["company_name"] != "Acme Corp" {
		t.Fatalf("Result = %v", res.Result)
	}

	defaults, _ := sessions.Defaults(context.Background(), "sess-1")
	want := map[string]string{"enterprise_id": "42", "company_name": "Acme Corp"}
	if !reflect.DeepEqual(defaults, want) {
		t.Fatalf("defaults = %v, want %v", defaults, want)
	}

	res = svc.ExecuteQuery(context.Background(), "and its name?", "sess-1")
	if res.Result[0]["company_name"] != "Acme Corp" {
		t.Fatalf("follow-up Result = %v", res.Result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestClearSession(t *testing.T) {
	resolver := &stubResolver{intents: []nlu.RawIntent{{Action: "fetch_tables"}}}
	svc, mock, _ := newTestService(t, resolver)

	mock.ExpectQuery("SELECT table_name FROM information_schema").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))

	svc.ExecuteQuery(context.Background(), "tables", "sess-1")
	if err := svc.ClearSession(context.Background(), "sess-1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	history, err := svc.History(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history = %v after clear", history)
	}
}
