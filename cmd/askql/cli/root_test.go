package cli

import (
	"testing"

	"github.com/spf13/viper"
)

func TestInitConfigMapsEnvToNestedKeys(t *testing.T) {
	t.Setenv("ASKQL_DATABASE_DSN", "postgres://env-wins")
	t.Setenv("ASKQL_SERVER_PORT", "9090")

	initConfig()

	if got := viper.GetString("database.dsn"); got != "postgres://env-wins" {
		t.Fatalf("database.dsn = %q, env var should map to the nested key", got)
	}
	if got := viper.GetInt("server.port"); got != 9090 {
		t.Fatalf("server.port = %d, env var should override the default", got)
	}
	// Defaults still apply where no env var is set.
	if got := viper.GetString("session.backend"); got != "memory" {
		t.Fatalf("session.backend = %q", got)
	}
}
