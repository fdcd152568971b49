package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/goccy/go-yaml"
	clientcmd "github.com/rzbill/logbook/internal/cmd/client"
	serverrun "github.com/rzbill/logbook/internal/cmd/server"
	cfgpkg "github.com/rzbill/logbook/internal/config"
	logpkg "github.com/rzbill/logbook/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// initialize logger for CLI
	// Respect LOGBOOK_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("LOGBOOK_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:          "logbook",
		Short:        "Logbook journal CLI",
		Long:         "Logbook keeps a local journal of logs committed against user-defined log types. This CLI runs the server and talks to it.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("url", apiURL(), "API base URL (env LOGBOOK_URL)")

	// init
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to overwrite", path)
			}
			b, err := yaml.Marshal(cfgpkg.Default())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().String("config", "logbook.yaml", "Config file to write")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the logbook HTTP server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			envFiles, _ := cmd.Flags().GetStringArray("env-file")

			cfg, err := serverrun.LoadConfig(configPath, envFiles...)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			override := func(name string, dst *string) {
				if flags.Changed(name) {
					*dst, _ = flags.GetString(name)
				}
			}
			override("data-dir", &cfg.DataDir)
			override("engine", &cfg.Engine)
			override("http", &cfg.HTTPAddr)
			override("fsync", &cfg.Fsync)
			override("log-level", &cfg.Log.Level)
			override("log-format", &cfg.Log.Format)
			override("location", &cfg.Location)
			if flags.Changed("fsync-interval-ms") {
				cfg.FsyncIntervalMs, _ = flags.GetInt("fsync-interval-ms")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", "", "Config file, JSON or YAML (env LOGBOOK_CONFIG)")
	serverStartCmd.Flags().StringArray("env-file", []string{}, "Dotenv file to load (repeat; default .env)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("engine", cfgpkg.EnginePebble, "Storage engine: pebble|sqlite")
	serverStartCmd.Flags().String("http", "127.0.0.1:8787", "HTTP listen address")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms (default 5)")
	serverStartCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "", "Log format: text|json (default text)")
	serverStartCmd.Flags().String("location", "", "IANA time zone for date sections (default local)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.AddCommands(rootCmd, func() string {
		v, _ := rootCmd.PersistentFlags().GetString("url")
		return v
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("LOGBOOK_URL"); v != "" {
		return v
	}
	return "http://127.0.0.1:8787"
}
