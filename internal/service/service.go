// Package service orchestrates one natural-language query end to end:
// session memory, intent resolution, decoding, execution, and response
// shaping. Every failure mode is absorbed into a structured response; the
// service never returns a transport-level error for a bad query.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/askql/askql/internal/executor"
	"github.com/askql/askql/internal/intent"
	"github.com/askql/askql/internal/metrics"
	"github.com/askql/askql/internal/model"
	"github.com/askql/askql/internal/nlu"
	"github.com/askql/askql/internal/session"
	"github.com/askql/askql/internal/sqlgen"
)

// DefaultHistoryLimit caps how many prior queries are handed to the resolver
// as session context.
const DefaultHistoryLimit = 10

// ErrorExplainer reframes technical errors for end users. Implemented by the
// resolver when the model backend supports it.
type ErrorExplainer interface {
	ExplainError(ctx context.Context, userQuery, technical string) string
}

// QueryService ties the resolver, session store, and executor together.
type QueryService struct {
	resolver     nlu.Resolver
	sessions     session.Store
	executor     *executor.Executor
	logger       *slog.Logger
	historyLimit int
}

// New creates a QueryService.
func New(resolver nlu.Resolver, sessions session.Store, exec *executor.Executor, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		resolver:     resolver,
		sessions:     sessions,
		executor:     exec,
		logger:       logger,
		historyLimit: DefaultHistoryLimit,
	}
}

// ExecuteQuery processes one natural-language query for a session. An empty
// sessionID mints a fresh one; the id used is echoed in the result so clients
// can continue the session.
func (s *QueryService) ExecuteQuery(ctx context.Context, text, sessionID string) model.QueryResult {
	if sessionID == "" {
		sessionID = newSessionID()
	}

	if err := s.sessions.Append(ctx, sessionID, text); err != nil {
		s.logger.Warn("failed to record session query", "session_id", sessionID, "error", err)
	}

	sctx := s.sessionContext(ctx, sessionID)

	req := s.resolve(ctx, text, sctx)

	// A company-name lookup without an explicit id falls back to the
	// session default resolved by an earlier query.
	if cn, ok := req.(intent.CompanyNameRequest); ok && cn.EnterpriseID == "" {
		if id := sctx.Defaults["enterprise_id"]; id != "" {
			cn.EnterpriseID = id
			req = cn
		}
	}

	res := s.executor.Execute(ctx, req)

	switch {
	case errors.Is(res.Err, executor.ErrUnsupported):
		return model.QueryResult{
			SessionID: sessionID,
			Result: []map[string]any{{
				"message":    "I couldn't understand that request. Try asking about tables, records, joins, summaries, or counts.",
				"action":     string(intent.ActionUnknown),
				"sql_query":  nil,
				"sql_params": []any{},
			}},
		}
	case res.Err != nil:
		return model.QueryResult{
			SessionID: sessionID,
			Result: []map[string]any{{
				"error":      s.errorMessage(ctx, text, res.Err),
				"sql_query":  renderedOrNil(res.SQL, res.Params),
				"sql_params": paramsOrEmpty(res.Params),
			}},
		}
	}

	rendered := sqlgen.RenderSQL(res.SQL, res.Params)
	params := paramsOrEmpty(res.Params)
	for _, row := range res.Rows {
		row["sql_query"] = rendered
		row["sql_params"] = params
	}

	if req.Action() == intent.ActionCompanyName && len(res.Rows) > 0 {
		s.rememberCompany(ctx, sessionID, req, res.Rows[0])
	}

	return model.QueryResult{
		SessionID:     sessionID,
		Result:        res.Rows,
		Visualization: res.Visualization,
	}
}

// History returns the raw queries recorded for a session, oldest first.
func (s *QueryService) History(ctx context.Context, sessionID string) ([]string, error) {
	return s.sessions.History(ctx, sessionID, 0)
}

// ClearSession drops all memory for a session.
func (s *QueryService) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// resolve calls the model and decodes its output. Any resolution failure
// degrades to the unknown request; decoding itself already fails closed.
func (s *QueryService) resolve(ctx context.Context, text string, sctx nlu.Context) intent.Request {
	raw, err := s.resolver.Resolve(ctx, text, sctx)
	if err != nil {
		metrics.ObserveResolution("error")
		s.logger.Warn("intent resolution failed", "error", err)
		return intent.UnknownRequest{}
	}

	req := intent.Decode(raw.Action, raw.Filters)
	if req.Action() == intent.ActionUnknown {
		metrics.ObserveResolution("unknown")
	} else {
		metrics.ObserveResolution("ok")
	}
	return req
}

// sessionContext loads history and defaults; failures degrade to empty
// context rather than blocking the query.
func (s *QueryService) sessionContext(ctx context.Context, sessionID string) nlu.Context {
	history, err := s.sessions.History(ctx, sessionID, s.historyLimit)
	if err != nil {
		s.logger.Warn("failed to load session history", "session_id", sessionID, "error", err)
	}
	defaults, err := s.sessions.Defaults(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load session defaults", "session_id", sessionID, "error", err)
	}
	return nlu.Context{History: history, Defaults: defaults}
}

// rememberCompany stores the resolved enterprise id and company name as
// session defaults so follow-up queries can omit them.
func (s *QueryService) rememberCompany(ctx context.Context, sessionID string, req intent.Request, row map[string]any) {
	cn, ok := req.(intent.CompanyNameRequest)
	if !ok {
		return
	}
	defaults := map[string]string{"enterprise_id": cn.EnterpriseID}
	if name, ok := row["company_name"].(string); ok && name != "" {
		defaults["company_name"] = name
	}
	if err := s.sessions.MergeDefaults(ctx, sessionID, defaults); err != nil {
		s.logger.Warn("failed to store session defaults", "session_id", sessionID, "error", err)
	}
}

// errorMessage shapes an execution failure for the response row. Timeouts
// keep their fixed message; everything else may be reframed by the model when
// the resolver supports it.
func (s *QueryService) errorMessage(ctx context.Context, text string, err error) string {
	var te *executor.TimeoutError
	if errors.As(err, &te) {
		return te.Error()
	}
	if ex, ok := s.resolver.(ErrorExplainer); ok {
		return ex.ExplainError(ctx, text, err.Error())
	}
	return err.Error()
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// renderedOrNil keeps error responses honest: nil when validation failed
// before any SQL was built.
func renderedOrNil(sqlStr string, params []any) any {
	if sqlStr == "" {
		return nil
	}
	return sqlgen.RenderSQL(sqlStr, params)
}

func paramsOrEmpty(params []any) []any {
	if params == nil {
		return []any{}
	}
	return params
}
