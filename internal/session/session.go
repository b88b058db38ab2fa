// Package session is the control-flow orchestrator for one ingestion run:
// open the RSSD, upsert the device, resolve a behavior, insert a session
// row, walk each root path writing uniform_resource rows inside a single
// transaction, then finish and commit. Grounded on
// original_source/src/resource_serde/src/ingest/files.rs's `ingest_files`
// and .../ingest/tasks.rs's `ingest_tasks`.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opsfolio/resource-surveillance-sub000/internal/behavior"
	"github.com/opsfolio/resource-surveillance-sub000/internal/builder"
	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
	"github.com/opsfolio/resource-surveillance-sub000/internal/device"
	"github.com/opsfolio/resource-surveillance-sub000/internal/rssd"
	"github.com/opsfolio/resource-surveillance-sub000/internal/walk"
)

// FilesOptions configures one `ingest files` run.
type FilesOptions struct {
	RootPaths                 []string
	IncludeHidden             bool
	Behavior                  *behavior.IngestFilesBehavior
	LoadBehaviorName          string
	SaveBehaviorName          string
	IncludeStateDBInIngestion bool
	Metrics                   Metrics

	// VFS, when set, ingests from this fs.FS instead of walking RootPaths on
	// the physical filesystem (walk.VirtualFSWalker, per spec.md 4.2's
	// virtual/layered-VFS backend). RootPaths is then used only for the
	// fs_path label recorded against the session, defaulting to "vfs:/" when
	// empty.
	VFS fs.FS
}

// Result is what one ingestion run reports back to its caller.
type Result struct {
	SessionID string
	DeviceID  string
	Started   time.Time
	Finished  time.Time
}

// IngestFiles runs the full files-ingestion control flow against dbFsPath,
// committing exactly once at the end. An error mid-walk for one resource is
// recorded as that resource's ur_status/ur_diagnostics and does not abort
// the session; only infrastructure failures (opening the db, the
// transaction itself) return an error here.
func IngestFiles(ctx context.Context, dbFsPath string, opts FilesOptions) (Result, error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	started := startTime()

	conn, err := rssd.Open(ctx, dbFsPath)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: open: %w", err)
	}
	defer conn.Close()

	tx, err := conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := rssd.Bootstrap(ctx, tx); err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: bootstrap: %w", err)
	}

	dev, err := device.New("")
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: device: %w", err)
	}
	sysinfo, err := device.StateSysinfoJSON(ctx)
	if err != nil {
		sysinfo = "{}"
	}
	deviceID, err := rssd.UpsertDevice(ctx, tx, dev.Name, device.State, dev.Boundary, sysinfo)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: upsert device: %w", err)
	}

	loadedBehavior := opts.Behavior
	if loadedBehavior == nil && opts.LoadBehaviorName != "" {
		confJSON, found, err := rssd.LoadBehaviorConfig(ctx, tx, deviceID, opts.LoadBehaviorName)
		if err != nil {
			return Result{}, fmt.Errorf("session.IngestFiles: load behavior %s: %w", opts.LoadBehaviorName, err)
		}
		if found {
			b, err := behavior.FromJSON([]byte(confJSON))
			if err != nil {
				return Result{}, fmt.Errorf("session.IngestFiles: parse behavior %s: %w", opts.LoadBehaviorName, err)
			}
			loadedBehavior = &b
		} else {
			log.Warn().Str("behavior", opts.LoadBehaviorName).Msg("session: named behavior not found, using default")
		}
	}

	beh := behaviorOrDefault(loadedBehavior, opts.RootPaths, opts.IncludeHidden)
	classifier, err := classifierFor(beh)
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: classifier: %w", err)
	}

	var behaviorID string
	if opts.SaveBehaviorName != "" {
		confJSON, err := beh.PersistableJSONText()
		if err != nil {
			return Result{}, fmt.Errorf("session.IngestFiles: behavior json: %w", err)
		}
		behaviorID, err = rssd.UpsertBehavior(ctx, tx, deviceID, opts.SaveBehaviorName, confJSON)
		if err != nil {
			return Result{}, fmt.Errorf("session.IngestFiles: upsert behavior: %w", err)
		}
	}

	behaviorJSON, err := beh.PersistableJSONText()
	if err != nil {
		behaviorJSON = "{}"
	}
	sessionID, err := rssd.InsertSession(ctx, tx, deviceID, behaviorID, behaviorJSON, started.Format(time.RFC3339))
	if err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: insert session: %w", err)
	}
	log.Debug().Str("session", sessionID).Msg("session: walk session started")

	exclude := func(string) bool { return false }
	if !opts.IncludeStateDBInIngestion {
		exclude = walk.ExcludeRSSD(dbFsPath)
	}

	if opts.VFS != nil {
		label := "vfs:/"
		if len(opts.RootPaths) > 0 {
			label = opts.RootPaths[0]
		}
		fsPathID, err := rssd.InsertFsPath(ctx, tx, sessionID, label)
		if err != nil {
			return Result{}, fmt.Errorf("session.IngestFiles: insert fs path %s: %w", label, err)
		}
		walker := walk.NewVirtualFSWalker(opts.VFS, classifier, exclude)
		walkErr := walker.Walk(func(enc walk.Encountered) bool {
			handleEncountered(ctx, tx, deviceID, sessionID, fsPathID, label, enc, metrics)
			return true
		})
		if walkErr != nil {
			log.Error().Err(walkErr).Str("root", label).Msg("session: vfs walk error")
		}
	} else {
		for _, rootPath := range opts.RootPaths {
			canonical, err := canonicalize(rootPath)
			if err != nil {
				log.Error().Err(err).Str("root", rootPath).Msg("session: unable to canonicalize root path")
				continue
			}

			fsPathID, err := rssd.InsertFsPath(ctx, tx, sessionID, canonical)
			if err != nil {
				return Result{}, fmt.Errorf("session.IngestFiles: insert fs path %s: %w", canonical, err)
			}

			walker := walk.NewSmartIgnoreWalker(canonical, classifier, exclude, opts.IncludeHidden)
			walkErr := walker.Walk(func(enc walk.Encountered) bool {
				handleEncountered(ctx, tx, deviceID, sessionID, fsPathID, canonical, enc, metrics)
				return true
			})
			if walkErr != nil {
				log.Error().Err(walkErr).Str("root", canonical).Msg("session: walk error")
			}
		}
	}

	if err := rssd.FinishSession(ctx, tx, sessionID, finishTime().Format(time.RFC3339)); err != nil {
		log.Error().Err(err).Msg("session: unable to finish session row")
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("session.IngestFiles: commit: %w", err)
	}
	committed = true

	finished := finishTime()
	metrics.ObserveSessionDuration(finished.Sub(started).Seconds())

	return Result{SessionID: sessionID, DeviceID: deviceID, Started: started, Finished: finished}, nil
}

// handleEncountered builds and writes one walked item, then records its
// fs_path_entry row; walker-internal Ignored/NotFile/NotFound/Error items
// never reach a resource write (Ignored and Error items are logged,
// NotFile and NotFound items are dropped silently), mirroring the original's
// `resources.uniform_resources()` iterator which only yields actual
// resources.
func handleEncountered(ctx context.Context, tx *sql.Tx, deviceID, sessionID, fsPathID, root string, enc walk.Encountered, metrics Metrics) {
	switch enc.Kind {
	case walk.KindIgnored:
		log.Debug().Str("uri", enc.URI).Str("reason", enc.Reason).Msg("session: ignored")
		return
	case walk.KindNotFile, walk.KindNotFound:
		return
	case walk.KindError:
		log.Error().Err(enc.Err).Str("uri", enc.URI).Msg("session: walk error")
		return
	}

	ext := builder.ExtensionOf(enc.URI)
	ur := builder.Build(enc.Resource, enc.Class, ext, nil)

	wc := writeCtx{tx: tx, deviceID: deviceID, sessionID: sessionID, fsPathID: fsPathID, metrics: metrics}
	action := writeUniformResource(ctx, wc, ur)
	metrics.IncURStatus(action.Status())

	uniformResourceID := action.UniformResourceID
	if action.Kind == ActionCapturedExecutableSqlOutput {
		if _, err := tx.ExecContext(ctx, action.SQLScript); err != nil {
			action = WriterAction{
				Kind: ActionError, URI: action.URI, Err: err,
				CapturedExecDiags: map[string]any{"SQL": action.SQLScript},
			}
			metrics.IncURStatus(action.Status())
		} else {
			action.URStatusOverride = "EXECUTED_CAPTURED_SQL"
		}
	}

	pi := extractPathInfo(root, enc.URI)
	var capturedExecJSON string
	if action.CapturedExecDiags != nil {
		if b, err := json.Marshal(action.CapturedExecDiags); err == nil {
			capturedExecJSON = string(b)
		}
	}

	if _, err := rssd.InsertFsPathEntry(ctx, tx, rssd.FsPathEntryRow{
		SessionID: sessionID, FsPathID: fsPathID, UniformResourceID: uniformResourceID,
		FilePathAbs: pi.AbsPath, FilePathRelParent: pi.RelParent, FilePathRel: pi.Rel,
		FileBasename: pi.Basename, FileExtn: pi.Extension,
		CapturedExecutable: capturedExecJSON, URStatus: action.Status(), URDiagnostics: action.Diagnostics(),
	}); err != nil {
		log.Error().Err(err).Str("uri", enc.URI).Msg("session: unable to insert fs path entry")
	}
}

// nowFn lets tests stub wall-clock reads instead of calling time.Now() at
// every call site.
var nowFn = time.Now

func startTime() time.Time  { return nowFn() }
func finishTime() time.Time { return nowFn() }

func canonicalize(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

func behaviorOrDefault(b *behavior.IngestFilesBehavior, rootPaths []string, includeHidden bool) behavior.IngestFilesBehavior {
	if b != nil {
		return *b
	}
	return behavior.New(rootPaths, includeHidden, behavior.ClassifierJSON{})
}

func classifierFor(b behavior.IngestFilesBehavior) (*classify.Classifier, error) {
	if len(b.Classifier.Flaggables) == 0 && len(b.Classifier.Rewrite) == 0 {
		return classify.Defaults()
	}
	return b.BuildClassifier()
}
