package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/askql/askql/internal/executor"
	"github.com/askql/askql/internal/nlu"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/service"
	"github.com/askql/askql/internal/session"
	"github.com/askql/askql/internal/sqlgen"
	"github.com/askql/askql/internal/validate"
)

// components bundles everything a serving command needs. Close releases the
// database handle and the session store.
type components struct {
	db       *sqlx.DB
	exec     *executor.Executor
	svc      *service.QueryService
	sessions session.Store
	logger   *slog.Logger
}

func (c *components) Close() {
	if c.sessions != nil {
		c.sessions.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}

func newLogger(dev bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// buildComponents connects to the target database and wires the full query
// pipeline from viper configuration.
func buildComponents(logger *slog.Logger) (*components, error) {
	dsn := viper.GetString("database.dsn")
	if dsn == "" {
		return nil, fmt.Errorf("database.dsn is not set (config file or ASKQL_DATABASE_DSN)")
	}

	db, err := schema.Connect(schema.ConnectConfig{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	schemaName := viper.GetString("database.schema")
	introspector := schema.NewPostgresIntrospector(db, schemaName)
	validator := validate.New(introspector, logger)
	builder := sqlgen.New(schemaName)

	timeout := viper.GetDuration("query.timeout")
	exec := executor.New(db, introspector, validator, builder, timeout, logger)

	sessions, err := newSessionStore()
	if err != nil {
		db.Close()
		return nil, err
	}

	resolver := nlu.NewOpenAIResolver(nlu.OpenAIConfig{
		BaseURL: viper.GetString("openai.base_url"),
		APIKey:  viper.GetString("openai.api_key"),
		Model:   viper.GetString("openai.model"),
	}, logger)

	svc := service.New(resolver, sessions, exec, logger)

	return &components{
		db:       db,
		exec:     exec,
		svc:      svc,
		sessions: sessions,
		logger:   logger,
	}, nil
}

func newSessionStore() (session.Store, error) {
	expiry := viper.GetDuration("session.expiry")

	switch backend := viper.GetString("session.backend"); backend {
	case "", "memory":
		return session.NewMemoryStore(expiry), nil
	case "sqlite":
		dataDir := viper.GetString("session.data_dir")
		if dataDir == "" {
			home, _ := os.UserHomeDir()
			dataDir = home + "/.askql"
		}
		store, err := session.NewSQLiteStore(dataDir, expiry)
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q; use 'memory' or 'sqlite'", backend)
	}
}
