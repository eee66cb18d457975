package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askql/askql/internal/server"
)

const banner = `
   _        _     ___  _
  /_\   ___| | __/ _ \| |
 / _ \ (_-<| |/ / (_) | |__
/_/ \_\/__/|_|\_\\__\_\____|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the AskQL API server",
		Long:  "Start the HTTP server that answers natural-language queries against the configured database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logger := newLogger(dev)

	comps, err := buildComponents(logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	host := viper.GetString("server.host")
	port := viper.GetInt("server.port")

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimit:       viper.GetInt("server.rate_limit"),
	}
	srv := server.New(srvCfg, comps.svc, comps.exec, comps.db, logger)

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Listening on http://%s:%d\n", green("→"), host, port)
	fmt.Printf("%s Query:   POST http://%s:%d/api/v1/query\n", green("→"), host, port)
	fmt.Printf("%s Tables:  GET  http://%s:%d/api/v1/tables\n", green("→"), host, port)
	fmt.Printf("%s Health:  GET  http://%s:%d/healthz\n", green("→"), host, port)
	fmt.Printf("%s Schema:  %s\n", green("→"), viper.GetString("database.schema"))
	fmt.Printf("%s Session: %s backend, %s expiry\n", green("→"),
		viper.GetString("session.backend"), strings.TrimSpace(viper.GetString("session.expiry")))
	fmt.Println()

	return srv.ListenAndServe()
}
