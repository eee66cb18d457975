// Package cli defines the askql command tree.
package cli

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "askql",
		Short: "Ask your database questions in plain English",
		Long: `AskQL: a natural-language query service for PostgreSQL.

AskQL turns free-text questions into validated, parameterized SQL over a
closed set of query templates. Every identifier is checked against the live
schema and every value is bound as a parameter, so the language model can
suggest what to run but never what the SQL looks like. Results carry the
executed SQL for full provenance, plus chart payloads for distributions and
relationships.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./askql.yaml)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newPingCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	// Optional .env for local development; env vars win over the file.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("askql")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.askql")
	}

	// Maps nested keys to env vars, e.g. database.dsn -> ASKQL_DATABASE_DSN.
	viper.SetEnvPrefix("ASKQL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.rate_limit", 120)
	viper.SetDefault("database.schema", "public")
	viper.SetDefault("query.timeout", "30s")
	viper.SetDefault("session.backend", "memory")
	viper.SetDefault("session.expiry", "24h")
}
