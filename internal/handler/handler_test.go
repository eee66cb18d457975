package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/askql/askql/internal/executor"
	"github.com/askql/askql/internal/nlu"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/service"
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

type stubResolver struct {
	raw nlu.RawIntent
}

func (s *stubResolver) Resolve(ctx context.Context, text string, sctx nlu.Context) (nlu.RawIntent, error) {
	return s.raw, nil
}

// newTestRouter wires the handlers onto the same routes the server mounts.
func newTestRouter(t *testing.T, resolver nlu.Resolver) (chi.Router, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sc := &fakeSchema{tables: map[string][]string{"users": {"id", "name"}}}
	exec := executor.New(sqlx.NewDb(db, "sqlmock"), sc, validate.New(sc, nil), sqlgen.New("public"), 0, nil)
	svc := service.New(resolver, session.NewMemoryStore(0), exec, nil)

	query := NewQueryHandler(svc)
	sessions := NewSessionHandler(svc)
	tables := NewTablesHandler(exec)

	r := chi.NewRouter()
	r.Post("/api/v1/query", query.Execute)
	r.Get("/api/v1/tables", tables.List)
	r.Get("/api/v1/session/{sessionID}/history", sessions.History)
	r.Delete("/api/v1/session/{sessionID}", sessions.Clear)
	return r, mock
}

func doRequest(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	resolver := &stubResolver{raw: nlu.RawIntent{
		Action:  "fetch_n_records",
		Filters: map[string]any{"table_name": "users", "n": float64(1)},
	}}
	router, mock := newTestRouter(t, resolver)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM public.users LIMIT $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice"))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/query",
		`{"query": "one user please", "session_id": "sess-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID string           `json:"session_id"`
		Result    []map[string]any `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "sess-1" {
		t.Fatalf("session_id = %q", resp.SessionID)
	}
	if len(resp.Result) != 1 || resp.Result[0]["name"] != "alice" {
		t.Fatalf("result = %v", resp.Result)
	}
	if resp.Result[0]["sql_query"] != "SELECT * FROM public.users LIMIT 1" {
		t.Fatalf("sql_query = %v", resp.Result[0]["sql_query"])
	}
}

func TestQueryEndpointRequiresQuery(t *testing.T) {
	router, _ := newTestRouter(t, &stubResolver{})

	for name, body := range map[string]string{
		"missing query": `{"session_id": "s"}`,
		"blank query":   `{"query": "   "}`,
		"bad json":      `{"query": `,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/query", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp struct {
				Error struct {
					Code    int    `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error envelope: %v", err)
			}
			if resp.Error.Code != http.StatusBadRequest || resp.Error.Message == "" {
				t.Fatalf("error = %+v", resp.Error)
			}
		})
	}
}

func TestTablesEndpoint(t *testing.T) {
	router, mock := newTestRouter(t, &stubResolver{})

	mock.ExpectQuery("SELECT table_name FROM information_schema").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("orders").
			AddRow("users"))

	rec := doRequest(t, router, http.MethodGet, "/api/v1/tables", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Tables []string `json:"tables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Tables) != 2 || resp.Tables[0] != "orders" {
		t.Fatalf("tables = %v", resp.Tables)
	}
}

func TestSessionHistoryAndClear(t *testing.T) {
	resolver := &stubResolver{raw: nlu.RawIntent{Action: "fetch_tables"}}
	router, mock := newTestRouter(t, resolver)

	mock.ExpectQuery("SELECT table_name FROM information_schema").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))

	doRequest(t, router, http.MethodPost, "/api/v1/query",
		`{"query": "list tables", "session_id": "sess-9"}`)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/session/sess-9/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var hist struct {
		SessionID string   `json:"session_id"`
		History   []string `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if hist.SessionID != "sess-9" || len(hist.History) != 1 || hist.History[0] != "list tables" {
		t.Fatalf("history = %+v", hist)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/session/sess-9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/session/sess-9/history", "")
	json.Unmarshal(rec.Body.Bytes(), &hist)
	if len(hist.History) != 0 {
		t.Fatalf("history after clear = %v", hist.History)
	}
}

func TestSessionHistoryUnknownSessionIsEmpty(t *testing.T) {
	router, _ := newTestRouter(t, &stubResolver{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/session/never-seen/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var hist struct {
		History []string `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if hist.History == nil || len(hist.History) != 0 {
		t.Fatalf("history = %#v, want empty slice", hist.History)
	}
}
