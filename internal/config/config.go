// Package config loads CLI flags, environment variables, and an optional
// .env file into a single Config, modeled on rcourtman-Pulse's
// cmd/pulse-agent/main.go loadConfig(args, getenv) pattern: env vars seed
// flag defaults, flags win when explicitly set.
package config

import (
	"flag"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every value an `ingest` subcommand needs, regardless of
// which ingestion mode (files/tasks/imap) ultimately runs.
type Config struct {
	StateDBFsPath string
	LogLevel      zerolog.Level

	RootPaths       []string
	IncludeHidden   bool
	BehaviorName    string
	SaveBehaviorAs  string
	IncludeStateDB  bool

	TaskLinesFile string

	ImapUsername  string
	ImapPassword  string
	ImapAddr      string
	ImapPort      int
	ImapFolders   []string
	ImapBatchSize uint64

	MetricsAddr string
}

const defaultStateDBFsPath = "resource-surveillance.sqlite.db"

// Load calls godotenv.Load (ignoring a missing .env file, matching the
// library's documented usage for optional local overrides), then parses
// args against flag defaults seeded from environment variables.
func Load(args []string, getenv func(string) string) (Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("surveilr", flag.ContinueOnError)

	envStateDB := strings.TrimSpace(getenv("SURVEILR_STATEDB_FS_PATH"))
	defaultStateDB := defaultStateDBFsPath
	if envStateDB != "" {
		defaultStateDB = envStateDB
	}

	envLogLevel := strings.TrimSpace(getenv("SURVEILR_LOG_LEVEL"))
	defaultLogLevel := "info"
	if envLogLevel != "" {
		defaultLogLevel = envLogLevel
	}

	envMetricsAddr := strings.TrimSpace(getenv("SURVEILR_METRICS_ADDR"))
	defaultMetricsAddr := ":9090"
	if envMetricsAddr != "" {
		defaultMetricsAddr = envMetricsAddr
	}

	stateDB := fs.String("db", defaultStateDB, "path to the RSSD state database")
	logLevel := fs.String("log-level", defaultLogLevel, "zerolog level (trace|debug|info|warn|error)")
	metricsAddr := fs.String("metrics-addr", defaultMetricsAddr, "address to serve /metrics on, empty disables")

	var rootPaths multiValue
	fs.Var(&rootPaths, "root", "root path to walk (repeatable)")
	includeHidden := fs.Bool("include-hidden", false, "include dotfiles/dot-directories")
	behaviorName := fs.String("behavior", "", "named behavior to load from the RSSD")
	saveBehaviorAs := fs.String("save-behavior", "", "persist this run's behavior under this name")
	includeStateDB := fs.Bool("include-state-db", false, "include the RSSD file itself in the walk")

	taskLinesFile := fs.String("tasks-file", "-", "file of task lines to ingest, - for stdin")

	imapUsername := fs.String("imap-username", strings.TrimSpace(getenv("SURVEILR_IMAP_USERNAME")), "IMAP account username")
	imapPassword := fs.String("imap-password", strings.TrimSpace(getenv("SURVEILR_IMAP_PASSWORD")), "IMAP account password")
	imapAddr := fs.String("imap-addr", strings.TrimSpace(getenv("SURVEILR_IMAP_ADDR")), "IMAP server host")
	imapPort := fs.Int("imap-port", 993, "IMAP server port")
	var imapFolders multiValue
	fs.Var(&imapFolders, "imap-folder", "IMAP folder to ingest (repeatable)")
	imapBatchSize := fs.Uint64("imap-batch-size", 1000, "max messages fetched per folder")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return Config{
		StateDBFsPath:  *stateDB,
		LogLevel:       level,
		RootPaths:      rootPaths,
		IncludeHidden:  *includeHidden,
		BehaviorName:   *behaviorName,
		SaveBehaviorAs: *saveBehaviorAs,
		IncludeStateDB: *includeStateDB,
		TaskLinesFile:  *taskLinesFile,
		ImapUsername:   *imapUsername,
		ImapPassword:   *imapPassword,
		ImapAddr:       *imapAddr,
		ImapPort:       *imapPort,
		ImapFolders:    imapFolders,
		ImapBatchSize:  *imapBatchSize,
		MetricsAddr:    *metricsAddr,
	}, nil
}

// multiValue accumulates repeated -flag occurrences into a string slice,
// per rcourtman-Pulse cmd/pulse-agent/main.go's multiValue flag.Value.
type multiValue []string

func (m *multiValue) String() string { return strings.Join(*m, ",") }

func (m *multiValue) Set(v string) error {
	*m = append(*m, v)
	return nil
}
