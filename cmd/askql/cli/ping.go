package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askql/askql/internal/schema"
)

func newPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the configured database",
		Long:  "Connect to the configured database, verify it responds, and report how many tables are visible in the configured schema.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Connection timeout")

	return cmd
}

func runPing(timeout time.Duration) error {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	dsn := viper.GetString("database.dsn")
	if dsn == "" {
		return fmt.Errorf("%s database.dsn is not set (config file or ASKQL_DATABASE_DSN)", red("✗"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := schema.Connect(schema.ConnectConfig{DSN: dsn})
	if err != nil {
		return fmt.Errorf("%s connect failed: %w", red("✗"), err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", red("✗"), err)
	}
	fmt.Printf("%s database reachable\n", green("✓"))

	schemaName := viper.GetString("database.schema")
	introspector := schema.NewPostgresIntrospector(db, schemaName)
	tables, err := introspector.TableNames(ctx)
	if err != nil {
		return fmt.Errorf("%s schema introspection failed: %w", red("✗"), err)
	}
	fmt.Printf("%s schema %q has %d tables\n", green("✓"), schemaName, len(tables))

	return nil
}
