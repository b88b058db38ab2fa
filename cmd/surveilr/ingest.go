package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opsfolio/resource-surveillance-sub000/internal/config"
	"github.com/opsfolio/resource-surveillance-sub000/internal/imap"
	"github.com/opsfolio/resource-surveillance-sub000/internal/session"
	"github.com/opsfolio/resource-surveillance-sub000/internal/telemetry"
)

var (
	stateDBFsPath  string
	logLevelFlag   string
	metricsAddr    string
	rootPaths      []string
	includeHidden  bool
	behaviorName   string
	saveBehaviorAs string
	includeStateDB bool
	vfsRoot        string
	tasksFile      string

	imapUsername  string
	imapPassword  string
	imapAddr      string
	imapPort      int
	imapFolders   []string
	imapBatchSize uint64
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest resources into the RSSD state database",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(logLevelFlag)
		if err != nil {
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

func init() {
	// Load env/.env-seeded defaults the same way cmd/pulse-agent's
	// loadConfig(args, getenv) does; cobra flags below still win when
	// explicitly set, env/.env only supplies what flags default to.
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("surveilr: failed to load configuration")
	}

	ingestCmd.PersistentFlags().StringVar(&stateDBFsPath, "db", cfg.StateDBFsPath, "path to the RSSD state database")
	ingestCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", cfg.LogLevel.String(), "zerolog level (trace|debug|info|warn|error)")
	ingestCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve /metrics on while this run executes, empty disables")

	ingestCmd.AddCommand(ingestFilesCmd)
	ingestCmd.AddCommand(ingestTasksCmd)
	ingestCmd.AddCommand(ingestImapCmd)

	ingestFilesCmd.Flags().StringSliceVar(&rootPaths, "root", cfg.RootPaths, "root path to walk (repeatable)")
	ingestFilesCmd.Flags().BoolVar(&includeHidden, "include-hidden", cfg.IncludeHidden, "include dotfiles/dot-directories")
	ingestFilesCmd.Flags().StringVar(&behaviorName, "behavior", cfg.BehaviorName, "named behavior to load from the RSSD")
	ingestFilesCmd.Flags().StringVar(&saveBehaviorAs, "save-behavior", cfg.SaveBehaviorAs, "persist this run's behavior under this name")
	ingestFilesCmd.Flags().BoolVar(&includeStateDB, "include-state-db", cfg.IncludeStateDB, "include the RSSD file itself in the walk")
	ingestFilesCmd.Flags().StringVar(&vfsRoot, "vfs-root", "", "walk this directory through an fs.FS (io/fs) backend instead of the physical-path walker")

	ingestTasksCmd.Flags().StringVar(&tasksFile, "tasks-file", cfg.TaskLinesFile, "file of task lines to ingest, - for stdin")
	ingestTasksCmd.Flags().StringVar(&behaviorName, "behavior", cfg.BehaviorName, "named behavior to load from the RSSD")
	ingestTasksCmd.Flags().StringVar(&saveBehaviorAs, "save-behavior", cfg.SaveBehaviorAs, "persist this run's behavior under this name")

	ingestImapCmd.Flags().StringVar(&imapUsername, "imap-username", cfg.ImapUsername, "IMAP account username")
	ingestImapCmd.Flags().StringVar(&imapPassword, "imap-password", cfg.ImapPassword, "IMAP account password")
	ingestImapCmd.Flags().StringVar(&imapAddr, "imap-addr", cfg.ImapAddr, "IMAP server host")
	ingestImapCmd.Flags().IntVar(&imapPort, "imap-port", cfg.ImapPort, "IMAP server port")
	ingestImapCmd.Flags().StringSliceVar(&imapFolders, "imap-folder", cfg.ImapFolders, "IMAP folder to ingest (repeatable)")
	ingestImapCmd.Flags().Uint64Var(&imapBatchSize, "imap-batch-size", cfg.ImapBatchSize, "max messages fetched per folder")
}

// newMetrics builds a telemetry.Metrics for this run and, if metricsAddr is
// set, serves it on /metrics for the run's duration, mirroring
// rcourtman-Pulse's cmd/pulse-agent "start a tiny metrics server alongside
// the agent loop" pattern.
func newMetrics() *telemetry.Metrics {
	m := telemetry.New(prometheus.DefaultRegisterer)
	if metricsAddr == "" {
		return m
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("surveilr: metrics server stopped")
		}
	}()
	return m
}

var ingestFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Walk filesystem root paths and ingest every resource found",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(rootPaths) == 0 && vfsRoot == "" {
			return fmt.Errorf("ingest files: at least one --root is required")
		}
		opts := session.FilesOptions{
			RootPaths:                 rootPaths,
			IncludeHidden:             includeHidden,
			LoadBehaviorName:          behaviorName,
			SaveBehaviorName:          saveBehaviorAs,
			IncludeStateDBInIngestion: includeStateDB,
			Metrics:                   newMetrics(),
		}
		if vfsRoot != "" {
			opts.VFS = os.DirFS(vfsRoot)
			opts.RootPaths = []string{vfsRoot}
		}
		result, err := session.IngestFiles(cmd.Context(), stateDBFsPath, opts)
		if err != nil {
			return fmt.Errorf("ingest files: %w", err)
		}
		log.Info().Str("session", result.SessionID).Str("device", result.DeviceID).
			Dur("duration", result.Finished.Sub(result.Started)).Msg("ingest files complete")
		return nil
	},
}

var ingestTasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Run each line of a task file as a capturable executable",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := os.Stdin
		if tasksFile != "-" && tasksFile != "" {
			f, err := os.Open(tasksFile)
			if err != nil {
				return fmt.Errorf("ingest tasks: open %s: %w", tasksFile, err)
			}
			defer f.Close()
			input = f
		}
		metrics := newMetrics()
		result, err := session.IngestTasks(cmd.Context(), stateDBFsPath, session.TasksOptions{
			Input:            input,
			Metrics:          metrics,
			LoadBehaviorName: behaviorName,
			SaveBehaviorName: saveBehaviorAs,
		})
		if err != nil {
			return fmt.Errorf("ingest tasks: %w", err)
		}
		log.Info().Str("session", result.SessionID).Str("device", result.DeviceID).
			Dur("duration", result.Finished.Sub(result.Started)).Msg("ingest tasks complete")
		return nil
	},
}

var ingestImapCmd = &cobra.Command{
	Use:   "imap",
	Short: "Fetch one or more IMAP mailbox folders and ingest every message",
	RunE: func(cmd *cobra.Command, args []string) error {
		if imapUsername == "" || imapAddr == "" {
			return fmt.Errorf("ingest imap: --imap-username and --imap-addr are required")
		}
		metrics := newMetrics()
		cfg := imap.Config{
			Username:  imapUsername,
			Password:  imapPassword,
			Addr:      imapAddr,
			Port:      imapPort,
			Mailboxes: imapFolders,
			BatchSize: imapBatchSize,
		}
		result, err := session.IngestImap(cmd.Context(), stateDBFsPath, session.ImapOptions{
			Config:  cfg,
			Folders: imapFolders,
			Metrics: metrics,
		})
		if err != nil {
			return fmt.Errorf("ingest imap: %w", err)
		}
		log.Info().Str("session", result.SessionID).Str("device", result.DeviceID).
			Dur("duration", result.Finished.Sub(result.Started)).Msg("ingest imap complete")
		return nil
	},
}
